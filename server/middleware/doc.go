// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides the HTTP middleware of the transmgr API.

A Middleware receives the next handler explicitly; router.Router chains them
in registration order. CatchError adapts handlers returning an error.
*/
package middleware
