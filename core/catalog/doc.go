// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package catalog holds the in-memory shape shared by the scanner, the storage
drivers and the reconciliation engine.

Translations come in two kinds. Short keys are addressed by a group and a
dotted key, for example trans("auth.failed.title"), and live in a tree per
group. String keys are addressed by their literal source string, for example
__("Welcome back"), and live in a flat dictionary per namespace.

Both kinds may be vendor scoped: "vendor::group" for short keys and
"vendor::string" for string keys.
*/
package catalog
