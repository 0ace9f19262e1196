// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package autotranslate

import (
	"context"

	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/transmgr/core/lrucache"
)

// Cached is a Translator remembering the successful results of another one.
// Failed translations are not cached.
type Cached struct {
	next  Translator
	cache *lrucache.Cache
}

var _ Translator = (*Cached)(nil)

// NewCached wraps next with a cache of size entries, zstd compressed when
// compress is set.
func NewCached(next Translator, size int, compress bool) (*Cached, error) {
	cache, err := lrucache.New(size, compress)
	if err != nil {
		return nil, err
	}

	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Translate(ctx context.Context, text, source, target string) (string, error) {
	key := source + "\x00" + target + "\x00" + text

	if translated, ok := c.cache.Get(key); ok {
		log.Debug().
			Str("sys", "autotranslate").
			Str("source", source).
			Str("target", target).
			Msg("Translation cache hit")

		return translated, nil
	}

	translated, err := c.next.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}

	c.cache.Add(key, translated)

	return translated, nil
}
