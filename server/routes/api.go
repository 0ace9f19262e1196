// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routes implements the JSON API used by translation editors.

Handlers return errors instead of writing error responses themselves;
middleware.CatchError turns them into JSON bodies with a matching status.
*/
package routes

import (
	"context"

	"codeberg.org/pixivfe/transmgr/core/storage"
	"codeberg.org/pixivfe/transmgr/core/translation"
)

// DriverFactory returns the storage driver serving one request and a
// function releasing it.
type DriverFactory func(ctx context.Context) (storage.Driver, func(), error)

// SharedDriver returns a DriverFactory handing out d to every request.
func SharedDriver(d storage.Driver) DriverFactory {
	return func(context.Context) (storage.Driver, func(), error) {
		return d, func() {}, nil
	}
}

// API holds the dependencies of the handlers.
type API struct {
	drivers DriverFactory
	opts    translation.Options
}

// NewAPI returns an API building a Manager with opts on top of a driver from
// drivers for every request. opts.Events should be shared so subscribers
// outlive requests.
func NewAPI(drivers DriverFactory, opts translation.Options) *API {
	if opts.Events == nil {
		opts.Events = translation.NewEvents()
	}

	return &API{drivers: drivers, opts: opts}
}

// manager builds the Manager of one request. release must be called once
// the request is done.
func (api *API) manager(ctx context.Context) (*translation.Manager, func(), error) {
	driver, release, err := api.drivers(ctx)
	if err != nil {
		return nil, nil, err
	}

	return translation.New(driver, api.opts), release, nil
}
