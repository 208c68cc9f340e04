/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package eventbus is a typed, synchronous publish/subscribe channel.
//
// Publish delivers to every handler on the caller's goroutine in subscription
// order before returning, so the order of notifications always equals the
// order of Publish calls. Handlers may subscribe or unsubscribe while a
// delivery is in progress; such changes take effect from the next Publish.
package eventbus

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// Handler receives published values.
type Handler[T any] func(T)

type entry[T any] struct {
	id uint64
	fn Handler[T]
}

// Bus fans out values of type T to its subscribers. The zero value is ready to use.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers []entry[T]
	nextID   uint64

	// Logger receives handler panics. Nil drops them silently.
	Logger *slog.Logger
}

// Subscribe registers fn and returns a function that removes it again.
// Calling the returned function more than once is harmless.
func (b *Bus[T]) Subscribe(fn Handler[T]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, entry[T]{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.handlers {
		if e.id == id {
			// copy-on-write so an in-flight Publish keeps its snapshot intact
			next := make([]entry[T], 0, len(b.handlers)-1)
			next = append(next, b.handlers[:i]...)
			b.handlers = append(next, b.handlers[i+1:]...)
			return
		}
	}
}

// Publish calls every current handler with v.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	snapshot := b.handlers
	b.mu.RUnlock()
	for _, e := range snapshot {
		b.call(e.fn, v)
	}
}

func (b *Bus[T]) call(fn Handler[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			if b.Logger != nil {
				b.Logger.Error("event handler panic", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			}
		}
	}()
	fn(v)
}

// Len returns the number of subscribed handlers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// Clear drops every subscriber.
func (b *Bus[T]) Clear() {
	b.mu.Lock()
	b.handlers = nil
	b.mu.Unlock()
}
