// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"codeberg.org/pixivfe/transmgr/core/catalog"
	"codeberg.org/pixivfe/transmgr/core/translation"
)

func (c *cli) newAddCmd() *cobra.Command {
	var payload translation.Payload

	cmd := &cobra.Command{
		Use:   "add <language> <key> <value>",
		Short: "Store one translation",
		Long: `Store one translation. With --group the key is a short key of that group,
otherwise a string key. Existing values are replaced and an unknown language
is created.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			language := args[0]
			payload.Key, payload.Value = args[1], args[2]

			m, release, err := c.openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			return m.Add(cmd.Context(), payload, language, payload.Group != "")
		},
	}

	cmd.Flags().StringVarP(&payload.Group, "group", "g", "", "Short-key group, for example auth")
	cmd.Flags().StringVarP(&payload.Namespace, "namespace", "n", "", "Vendor namespace")

	return cmd
}

func (c *cli) newMissingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "missing [language]",
		Short: "Show the keys used in sources but not stored",
		Long: `Show the keys used in sources but not stored for a language, or for every
language when none is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, release, err := c.openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			languages := args

			if len(languages) == 0 {
				all, err := m.AllLanguages(cmd.Context())
				if err != nil {
					return err
				}

				languages = all.Codes()
			}

			out := cmd.OutOrStdout()

			for _, language := range languages {
				missing, err := m.FindMissingTranslations(cmd.Context(), language)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "%s: %d missing\n", language, missing.Len())
				printMissing(cmd, missing)
			}

			return nil
		},
	}
}

func printMissing(cmd *cobra.Command, missing catalog.CombinedTranslations) {
	out := cmd.OutOrStdout()

	for _, group := range slices.Sorted(maps.Keys(missing.ShortKeys)) {
		for _, key := range missing.ShortKeys[group].Keys() {
			fmt.Fprintf(out, "  %s.%s\n", group, key)
		}
	}

	for _, namespace := range slices.Sorted(maps.Keys(missing.StringKeys)) {
		for _, key := range slices.Sorted(maps.Keys(missing.StringKeys[namespace])) {
			fmt.Fprintf(out, "  [%s] %s\n", namespace, key)
		}
	}
}
