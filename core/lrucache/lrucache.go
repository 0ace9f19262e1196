// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a fixed-capacity least-recently-used cache of
strings, safe for concurrent use.

A cache created with compression keeps values zstd compressed whenever that
makes them smaller, and decompresses them transparently in Get.
*/
package lrucache

import (
	"container/list"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var ErrInvalidSize = errors.New("must provide a positive size")

// Cache is a fixed-capacity LRU cache of strings. Create it with New.
type Cache struct {
	size  int
	order *list.List // front is the most recently used
	items map[string]*list.Element
	mu    sync.Mutex

	enc *zstd.Encoder
	dec *zstd.Decoder
}

type entry struct {
	key        string
	value      []byte
	compressed bool
}

// New returns a cache holding at most size entries.
func New(size int, compress bool) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		size:  size,
		order: list.New(),
		items: make(map[string]*list.Element),
	}

	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}

		c.enc, c.dec = enc, dec
	}

	return c, nil
}

// Add stores value under key as the most recently used entry and reports
// whether another entry was evicted to make room.
func (c *Cache) Add(key, value string) bool {
	stored, compressed := c.encode(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)

		e := el.Value.(*entry)
		e.value, e.compressed = stored, compressed

		return false
	}

	c.items[key] = c.order.PushFront(&entry{key: key, value: stored, compressed: compressed})

	if c.order.Len() <= c.size {
		return false
	}

	oldest := c.order.Back()
	c.order.Remove(oldest)
	delete(c.items, oldest.Value.(*entry).key)

	return true
}

// Get returns the value of key and marks it as most recently used.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()

	el, ok := c.items[key]
	if !ok {
		c.mu.Unlock()

		return "", false
	}

	c.order.MoveToFront(el)

	e := *el.Value.(*entry)

	c.mu.Unlock()

	return c.decode(e)
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}

	c.order.Remove(el)
	delete(c.items, key)

	return true
}

// Keys returns the cached keys from the least to the most recently used.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))

	for el := c.order.Back(); el != nil; el = el.Prev() {
		keys = append(keys, el.Value.(*entry).key)
	}

	return keys
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// encode compresses value when compression is enabled and saves space. It
// runs without the lock; zstd encoders allow concurrent EncodeAll calls.
func (c *Cache) encode(value string) ([]byte, bool) {
	raw := []byte(value)

	if c.enc == nil || len(raw) == 0 {
		return raw, false
	}

	if packed := c.enc.EncodeAll(raw, nil); len(packed) < len(raw) {
		return packed, true
	}

	return raw, false
}

func (c *Cache) decode(e entry) (string, bool) {
	if !e.compressed {
		return string(e.value), true
	}

	raw, err := c.dec.DecodeAll(e.value, nil)
	if err != nil {
		return "", false
	}

	return string(raw), true
}
