// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"context"
	"testing"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTiming(t *testing.T) {
	t.Parallel()

	// no header in the context
	StartTiming(context.Background(), "storage", "Storage backend")()

	var h servertiming.Header

	stop := StartTiming(servertiming.NewContext(context.Background(), &h), "storage", "Storage backend")
	stop()

	require.Len(t, h.Metrics, 1)
	assert.Equal(t, "storage", h.Metrics[0].Name)
	assert.Equal(t, "Storage backend", h.Metrics[0].Desc)
}
