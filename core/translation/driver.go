// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package translation

import (
	"context"
	"io"

	"github.com/spf13/afero"

	"codeberg.org/pixivfe/transmgr/core/storage"
	"codeberg.org/pixivfe/transmgr/core/storage/dbstore"
	"codeberg.org/pixivfe/transmgr/core/storage/filestore"
)

// DriverOptions selects and configures a storage backend.
type DriverOptions struct {
	Type storage.DriverType

	// Fs is the filesystem of the file backend. Defaults to the OS filesystem.
	Fs afero.Fs
	// LangPath is the root directory of the file backend.
	LangPath string

	// Database configures the database backend.
	Database dbstore.Options
}

// OpenDriver returns the backend named by opts.Type. Close it with
// CloseDriver.
func OpenDriver(ctx context.Context, opts DriverOptions) (storage.Driver, error) {
	switch opts.Type {
	case storage.FileDriver:
		fs := opts.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}

		return filestore.New(fs, opts.LangPath), nil
	case storage.DatabaseDriver:
		d, err := dbstore.Open(ctx, opts.Database)
		if err != nil {
			return nil, err
		}

		return d, nil
	default:
		_, err := storage.ParseDriverType(string(opts.Type))

		return nil, err
	}
}

// CloseDriver releases the resources held by d, if any.
func CloseDriver(d storage.Driver) error {
	if c, ok := d.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
