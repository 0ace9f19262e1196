// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"io"
)

// MsgKey is a translation key, either "group.key" or a string key, resolved
// lazily against the default catalog.
type MsgKey string

// Tr translates this key within the locale in ctx.
func (s MsgKey) Tr(ctx context.Context) string {
	return Tr(ctx, string(s))
}

// Render writes the translation to w.
func (s MsgKey) Render(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, s.Tr(ctx))

	return err
}

// UserError is an error whose message is a translated string, safe to show
// to API clients.
type UserError struct {
	message string
	err     error
}

// NewUserError translates key in ctx and wraps err, which may be nil.
func NewUserError(ctx context.Context, err error, key string, kv ...any) *UserError {
	return &UserError{message: Tr(ctx, key, kv...), err: err}
}

// Error returns the translated message.
func (e *UserError) Error() string {
	return e.message
}

// Unwrap returns the wrapped error.
func (e *UserError) Unwrap() error {
	return e.err
}
