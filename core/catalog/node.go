// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import (
	"encoding/json"
	"slices"
	"strings"
)

// KeySeparator joins the segments of a dotted short key.
const KeySeparator = "."

// Node is a value in a short-key translation tree.
//
// A leaf carries a translated string in Value. A branch carries further keys in
// Children. A Node with a non-nil Children map is always a branch, even when the
// map is empty.
type Node struct {
	Value    string
	Children map[string]*Node
}

// Leaf returns a leaf node holding value.
func Leaf(value string) *Node {
	return &Node{Value: value}
}

// Branch returns a branch node holding children.
func Branch(children map[string]*Node) *Node {
	if children == nil {
		children = make(map[string]*Node)
	}

	return &Node{Children: children}
}

// IsLeaf reports whether n holds a string rather than nested keys.
func (n *Node) IsLeaf() bool {
	return n.Children == nil
}

// Text returns the value of a leaf, or an empty string for a branch.
func (n *Node) Text() string {
	if n == nil || !n.IsLeaf() {
		return ""
	}

	return n.Value
}

// MarshalJSON encodes a leaf as a JSON string and a branch as a JSON object.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.IsLeaf() {
		return json.Marshal(n.Value)
	}

	return json.Marshal(n.Children)
}

// Group is the content of one short-key group, keyed by top-level key.
type Group map[string]*Node

// Set stores value under the dotted key, creating a branch for every segment
// but the last.
//
// When an intermediate segment already holds a leaf, the leaf is kept and the
// rest of the key is stored literally at that level instead.
func (g Group) Set(key, value string) {
	segments := strings.Split(key, KeySeparator)
	current := g

	for i, segment := range segments[:len(segments)-1] {
		node, ok := current[segment]

		switch {
		case !ok:
			node = Branch(nil)
			current[segment] = node
		case node.IsLeaf():
			current[strings.Join(segments[i:], KeySeparator)] = Leaf(value)

			return
		}

		current = node.Children
	}

	current[segments[len(segments)-1]] = Leaf(value)
}

// Lookup returns the node stored at the dotted key.
//
// Literal keys containing dots take precedence over nested lookups.
func (g Group) Lookup(key string) (*Node, bool) {
	if node, ok := g[key]; ok {
		return node, true
	}

	head, rest, found := strings.Cut(key, KeySeparator)
	if !found {
		return nil, false
	}

	node, ok := g[head]
	if !ok || node.IsLeaf() {
		return nil, false
	}

	return Group(node.Children).Lookup(rest)
}

// Has reports whether a leaf or a branch exists at exactly the dotted key.
//
// In a flat group a literal key below the dotted key, such as "menu.file"
// for "menu", counts as a branch.
func (g Group) Has(key string) bool {
	if _, ok := g[key]; ok {
		return true
	}

	for k, node := range g {
		if strings.HasPrefix(k, key+KeySeparator) {
			return true
		}

		if rest, ok := strings.CutPrefix(key, k+KeySeparator); ok && !node.IsLeaf() && Group(node.Children).Has(rest) {
			return true
		}
	}

	return false
}

// Flatten returns every leaf of g keyed by its dotted path.
func (g Group) Flatten() map[string]string {
	out := make(map[string]string)
	flattenInto(out, "", g)

	return out
}

// Keys returns the dotted paths of every leaf of g in sorted order.
func (g Group) Keys() []string {
	keys := make([]string, 0, len(g))
	for key := range g.Flatten() {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

func flattenInto(out map[string]string, prefix string, g Group) {
	for key, node := range g {
		path := key
		if prefix != "" {
			path = prefix + KeySeparator + key
		}

		if node.IsLeaf() {
			out[path] = node.Value

			continue
		}

		flattenInto(out, path, node.Children)
	}
}
