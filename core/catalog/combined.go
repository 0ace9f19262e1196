// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import (
	"slices"
	"strings"
)

const (
	// StringNamespace is the bucket holding application-level string keys.
	StringNamespace = "string"

	// NamespaceSeparator separates a vendor name from a group or bucket name.
	NamespaceSeparator = "::"
)

// Languages maps a language code to its display name.
type Languages map[string]string

// Codes returns the language codes in sorted order.
func (l Languages) Codes() []string {
	codes := make([]string, 0, len(l))
	for code := range l {
		codes = append(codes, code)
	}

	slices.Sort(codes)

	return codes
}

// CombinedTranslations is the backend-agnostic view of the translations of one
// language.
//
// ShortKeys maps a group name (optionally "vendor::group") to its tree.
// StringKeys maps a namespace ("string" or "vendor::string") to a flat
// dictionary keyed by source string.
type CombinedTranslations struct {
	ShortKeys  map[string]Group             `json:"short_keys"`
	StringKeys map[string]map[string]string `json:"string_keys"`
}

// NewCombined returns an empty CombinedTranslations ready for use.
func NewCombined() CombinedTranslations {
	return CombinedTranslations{
		ShortKeys:  make(map[string]Group),
		StringKeys: make(map[string]map[string]string),
	}
}

// SetShortKey stores value under the dotted key of group, creating the group
// if needed.
func (c *CombinedTranslations) SetShortKey(group, key, value string) {
	if c.ShortKeys == nil {
		c.ShortKeys = make(map[string]Group)
	}

	g, ok := c.ShortKeys[group]
	if !ok {
		g = make(Group)
		c.ShortKeys[group] = g
	}

	g.Set(key, value)
}

// SetStringKey stores value under key in namespace, creating the namespace if
// needed.
func (c *CombinedTranslations) SetStringKey(namespace, key, value string) {
	if c.StringKeys == nil {
		c.StringKeys = make(map[string]map[string]string)
	}

	ns, ok := c.StringKeys[namespace]
	if !ok {
		ns = make(map[string]string)
		c.StringKeys[namespace] = ns
	}

	ns[key] = value
}

// Len returns the number of leaf entries across both key types.
func (c CombinedTranslations) Len() int {
	n := 0

	for _, g := range c.ShortKeys {
		n += len(g.Flatten())
	}

	for _, ns := range c.StringKeys {
		n += len(ns)
	}

	return n
}

// IsEmpty reports whether c holds no entries.
func (c CombinedTranslations) IsEmpty() bool {
	return c.Len() == 0
}

// SplitNamespace splits "vendor::name" into its parts. A name without a vendor
// returns an empty vendor.
func SplitNamespace(name string) (vendor, rest string) {
	vendor, rest, found := strings.Cut(name, NamespaceSeparator)
	if !found {
		return "", name
	}

	return vendor, rest
}

// JoinNamespace is the inverse of SplitNamespace.
func JoinNamespace(vendor, name string) string {
	if vendor == "" {
		return name
	}

	return vendor + NamespaceSeparator + name
}

// IsStringNamespace reports whether name addresses a string-key bucket.
func IsStringNamespace(name string) bool {
	_, rest := SplitNamespace(name)

	return rest == StringNamespace
}
