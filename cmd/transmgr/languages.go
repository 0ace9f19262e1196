// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"codeberg.org/pixivfe/transmgr/core/storage"
)

func (c *cli) newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the stored languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, release, err := c.openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			languages, err := m.AllLanguages(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			for _, code := range languages.Codes() {
				marker := ""
				if code == m.SourceLanguage() {
					marker = "(source)"
				}

				fmt.Fprintf(tw, "%s\t%s\t%s\n", code, languages[code], marker)
			}

			return tw.Flush()
		},
	}
}

func (c *cli) newAddLanguageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-language <code> [name]",
		Short: "Create a language",
		Long: `Create a language. Without a name the English display name of the
code is stored, for example "German" for "de".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]

			name := ""
			if len(args) > 1 {
				name = args[1]
			}

			m, release, err := c.openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			err = m.AddLanguage(cmd.Context(), code, name)
			if storage.IsLanguageExists(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "Language %s already exists\n", code)

				return err
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Language %s created\n", code)

			return nil
		},
	}
}
