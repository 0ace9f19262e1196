// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package translation

import (
	"context"
	"sync"
)

// TranslationAdded is emitted after Manager.Add stores a translation. Group is
// the short-key group, or the string namespace for string keys.
type TranslationAdded struct {
	Language string `json:"language"`
	Group    string `json:"group"`
	Key      string `json:"key"`
	Value    string `json:"value"`
}

// Events dispatches TranslationAdded notifications to subscribers.
//
// Subscribers run synchronously in registration order on the goroutine that
// added the translation. An Events value is safe for concurrent use and can
// be shared by many Managers.
type Events struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func(context.Context, TranslationAdded)
}

// NewEvents returns an empty dispatcher.
func NewEvents() *Events {
	return &Events{}
}

// Subscribe registers fn. The returned function unregisters it.
func (e *Events) Subscribe(fn func(context.Context, TranslationAdded)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)

				return
			}
		}
	}
}

func (e *Events) publish(ctx context.Context, event TranslationAdded) {
	e.mu.RLock()
	subs := make([]subscriber, len(e.subs))
	copy(subs, e.subs)
	e.mu.RUnlock()

	for _, s := range subs {
		s.fn(ctx, event)
	}
}
