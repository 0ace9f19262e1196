// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"context"

	servertiming "github.com/mitchellh/go-server-timing"
)

// StartTiming starts a Server-Timing metric on the header carried by ctx and
// returns the function stopping it. Without a header it does nothing.
func StartTiming(ctx context.Context, name, description string) (stop func()) {
	timing := servertiming.FromContext(ctx)
	if timing == nil {
		return func() {}
	}

	metric := timing.NewMetric(name).WithDesc(description).Start()

	return func() { metric.Stop() }
}
