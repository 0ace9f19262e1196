// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Transmgr is the command line companion of the transmgr server. It manages
languages, finds the translation keys used in sources but not stored, and
copies translations between storage backends.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"codeberg.org/pixivfe/transmgr/core/audit"
)

func main() {
	audit.SetDefaultLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd(afero.NewOsFs()).ExecuteContext(ctx)

	stop()

	if err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
