// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

// Pair holds the source language value of a key next to the value of the
// language being edited.
type Pair struct {
	Source *Node `json:"source"`
	Target *Node `json:"target"`
}

// Merged is the side-by-side view used by editors, keyed like
// CombinedTranslations down to the top-level key of each group.
type Merged struct {
	ShortKeys  map[string]map[string]Pair `json:"short_keys"`
	StringKeys map[string]map[string]Pair `json:"string_keys"`
}

// NewMerged returns an empty Merged ready for use.
func NewMerged() Merged {
	return Merged{
		ShortKeys:  make(map[string]map[string]Pair),
		StringKeys: make(map[string]map[string]Pair),
	}
}
