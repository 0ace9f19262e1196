// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/pixivfe/transmgr/config"
)

func TestEnvExample(t *testing.T) {
	t.Parallel()

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	out := envExample(cfg)

	assert.Contains(t, out, "## Translation\n")
	assert.Contains(t, out, "TRANSMGR_DRIVER=\"file\"\n")
	assert.Contains(t, out, "# TRANSMGR_DB_DSN=file:./data/translations.db\n")
	assert.Contains(t, out, "# TRANSMGR_AUTO_TRANSLATE_API_KEY=\n")
	assert.NotContains(t, out, "## Build")
}

func TestYAMLExample(t *testing.T) {
	t.Parallel()

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	out, err := yamlExample(cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "\ntranslation:\n")
	assert.Contains(t, out, "  # driver: file\n")
	assert.Contains(t, out, "  # interval: 200ms\n")
}
