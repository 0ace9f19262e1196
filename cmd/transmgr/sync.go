// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"codeberg.org/pixivfe/transmgr/config"
	"codeberg.org/pixivfe/transmgr/core/storage"
	"codeberg.org/pixivfe/transmgr/core/storage/dbstore"
	"codeberg.org/pixivfe/transmgr/core/translation"
)

var errSameDriver = errors.New("--from and --to must name different drivers")

func (c *cli) newSyncMissingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync-missing [language]",
		Short: "Store the missing keys",
		Long: `Store the keys used in sources but not stored for a language, or for every
language when none is given. Stored values are never replaced.

When auto-translation is enabled the values of languages other than the
source language are machine translated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			language := ""
			if len(args) > 0 {
				language = args[0]
			}

			progress := newProgress(cmd.ErrOrStderr())
			defer progress.finish()

			m, release, err := c.openManager(cmd.Context(), func(opts *translation.Options) {
				if !c.noProgress {
					opts.Progress = progress.update
				}
			})
			if err != nil {
				return err
			}
			defer release()

			return m.SaveMissingTranslations(cmd.Context(), language)
		},
	}

	cmd.Flags().BoolVar(&c.noProgress, "no-progress", false, "Do not draw progress bars")

	return cmd
}

// progress draws one bar per language written by SaveMissingTranslations.
type progress struct {
	w        io.Writer
	language string
	bar      *progressbar.ProgressBar
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

func (p *progress) update(language string, done, total int) {
	if p.bar == nil || p.language != language {
		p.finish()

		p.language = language
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", language)),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	_ = p.bar.Set(done)
}

func (p *progress) finish() {
	if p.bar == nil {
		return
	}

	_ = p.bar.Finish()
	fmt.Fprintln(p.w)

	p.bar = nil
}

func (c *cli) newSynchroniseCmd() *cobra.Command {
	var (
		from, to string
		language string
	)

	cmd := &cobra.Command{
		Use:     "synchronise",
		Aliases: []string{"synchronize"},
		Short:   "Copy translations between the file and database backends",
		Long: `Copy every translation of a language, or of every language, from one
backend to the other. Missing languages are created and stored values are
replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fromType, err := storage.ParseDriverType(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}

			toType, err := storage.ParseDriverType(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			if fromType == toType {
				return errSameDriver
			}

			source, releaseSource, err := c.openDriver(cmd.Context(), fromType)
			if err != nil {
				return err
			}
			defer releaseSource()

			target, releaseTarget, err := c.openDriver(cmd.Context(), toType)
			if err != nil {
				return err
			}
			defer releaseTarget()

			written, err := translation.Synchronise(cmd.Context(), source, target, language)

			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d translations from %s to %s\n", written, fromType, toType)

			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", string(storage.FileDriver), "Backend to read from (file or database)")
	cmd.Flags().StringVar(&to, "to", string(storage.DatabaseDriver), "Backend to write to (file or database)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Only copy this language")

	return cmd
}

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := dbstore.Open(cmd.Context(), config.Global.DriverOptions(c.fs).Database)
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := db.SchemaVersion(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database schema at version %d\n", version)

			return nil
		},
	}
}
