// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package translation

import (
	"context"
	"strings"

	"codeberg.org/pixivfe/transmgr/core/catalog"
)

// SourceLanguageTranslationsWith pairs every top-level entry of the source
// language with the entry of language at the same position. Entries missing
// from language are paired with an empty leaf. Entries only language has are
// left out.
func (m *Manager) SourceLanguageTranslationsWith(ctx context.Context, language string) (catalog.Merged, error) {
	source, err := m.AllTranslationsFor(ctx, m.opts.SourceLanguage)
	if err != nil {
		return catalog.Merged{}, err
	}

	target, err := m.AllTranslationsFor(ctx, language)
	if err != nil {
		return catalog.Merged{}, err
	}

	return merge(source, target), nil
}

func merge(source, target catalog.CombinedTranslations) catalog.Merged {
	merged := catalog.NewMerged()

	for group, tree := range source.ShortKeys {
		pairs := make(map[string]catalog.Pair, len(tree))

		for key, node := range tree {
			t, ok := target.ShortKeys[group][key]
			if !ok {
				t = catalog.Leaf("")
			}

			pairs[key] = catalog.Pair{Source: node, Target: t}
		}

		merged.ShortKeys[group] = pairs
	}

	for namespace, keys := range source.StringKeys {
		pairs := make(map[string]catalog.Pair, len(keys))

		for key, value := range keys {
			pairs[key] = catalog.Pair{
				Source: catalog.Leaf(value),
				Target: catalog.Leaf(target.StringKeys[namespace][key]),
			}
		}

		merged.StringKeys[namespace] = pairs
	}

	return merged
}

// FilterTranslationsFor returns SourceLanguageTranslationsWith(language)
// narrowed to the entries where filter occurs, ignoring case, in the group,
// the key, the source value or the target value.
//
// An empty filter returns everything. Otherwise entries whose source is a
// nested group are skipped and groups left empty are dropped.
func (m *Manager) FilterTranslationsFor(ctx context.Context, language, filter string) (catalog.Merged, error) {
	merged, err := m.SourceLanguageTranslationsWith(ctx, language)
	if err != nil {
		return catalog.Merged{}, err
	}

	if filter == "" {
		return merged, nil
	}

	return filterMerged(merged, filter), nil
}

func filterMerged(merged catalog.Merged, filter string) catalog.Merged {
	needle := strings.ToLower(filter)
	out := catalog.NewMerged()

	for group, pairs := range merged.ShortKeys {
		if kept := filterPairs(group, pairs, needle); len(kept) > 0 {
			out.ShortKeys[group] = kept
		}
	}

	for namespace, pairs := range merged.StringKeys {
		if kept := filterPairs(namespace, pairs, needle); len(kept) > 0 {
			out.StringKeys[namespace] = kept
		}
	}

	return out
}

func filterPairs(group string, pairs map[string]catalog.Pair, needle string) map[string]catalog.Pair {
	kept := make(map[string]catalog.Pair)

	for key, pair := range pairs {
		if !pair.Source.IsLeaf() {
			continue
		}

		for _, s := range []string{group, key, pair.Source.Value, pair.Target.Text()} {
			if strings.Contains(strings.ToLower(s), needle) {
				kept[key] = pair

				break
			}
		}
	}

	return kept
}

// OnlyGroup narrows merged to one short-key group or string namespace. An
// empty group returns merged unchanged.
func OnlyGroup(merged catalog.Merged, group string) catalog.Merged {
	if group == "" {
		return merged
	}

	out := catalog.NewMerged()

	if pairs, ok := merged.ShortKeys[group]; ok {
		out.ShortKeys[group] = pairs
	}

	if pairs, ok := merged.StringKeys[group]; ok {
		out.StringKeys[group] = pairs
	}

	return out
}
