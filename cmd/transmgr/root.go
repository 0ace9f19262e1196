// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"codeberg.org/pixivfe/transmgr/config"
	"codeberg.org/pixivfe/transmgr/core/storage"
	"codeberg.org/pixivfe/transmgr/core/translation"
)

// cli holds the state shared by every command.
type cli struct {
	// fs backs the file driver and the scanner.
	fs afero.Fs

	configFile string
	noProgress bool
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	c := &cli{fs: fs}

	root := &cobra.Command{
		Use:   "transmgr",
		Short: "Manage application translations",
		Long: `transmgr manages the translations of an application.

Translations are stored either as files below the language path or in a
database, as selected by translation.driver in the configuration.

Commands:
  languages      List the stored languages
  add-language   Create a language
  add            Store one translation
  missing        Show the keys used in sources but not stored
  sync-missing   Store the missing keys, machine translated when enabled
  synchronise    Copy translations between the file and database backends
  migrate        Create or upgrade the database schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.Global.Load(c.configFile)
		},
	}

	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "",
		"Path to a transmgr configuration file in YAML or TOML format")

	root.AddCommand(
		c.newLanguagesCmd(),
		c.newAddLanguageCmd(),
		c.newAddCmd(),
		c.newMissingCmd(),
		c.newSyncMissingCmd(),
		c.newSynchroniseCmd(),
		c.newMigrateCmd(),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "transmgr %s (%s)\n", config.BuildVersion, config.Global.Build.Revision())
		},
	}
}

// openDriver opens the backend of driverType with the loaded configuration.
func (c *cli) openDriver(ctx context.Context, driverType storage.DriverType) (storage.Driver, func(), error) {
	opts := config.Global.DriverOptions(c.fs)
	opts.Type = driverType

	driver, err := translation.OpenDriver(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s driver: %w", driverType, err)
	}

	return driver, func() { _ = translation.CloseDriver(driver) }, nil
}

// openManager returns a Manager over the configured backend. configure may
// adjust the options built from the configuration.
func (c *cli) openManager(ctx context.Context, configure ...func(*translation.Options)) (*translation.Manager, func(), error) {
	opts, err := config.Global.ManagerOptions(c.fs)
	if err != nil {
		return nil, nil, err
	}

	for _, fn := range configure {
		fn(&opts)
	}

	driver, release, err := c.openDriver(ctx, config.Global.Translation.Driver)
	if err != nil {
		return nil, nil, err
	}

	return translation.New(driver, opts), release, nil
}
