/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps bounded in-memory undo/redo stacks of opaque state
// snapshots, one pair of stacks per key (the canvas keys by deck name).
package undo

import (
	"sync"
	"time"
)

// Snapshot is an opaque state blob. Its size is estimated as len(Blob).
type Snapshot struct {
	Key  string
	Blob []byte
	TS   time.Time
}

// Config caps memory and depth.
type Config struct {
	// MaxBytes is a soft cap over all keys; the oldest undo entries go first.
	MaxBytes int
	// MaxPerKey limits the undo depth per key (0 means unlimited).
	MaxPerKey int
	// MinInterval coalesces pushes for the same key closer than this,
	// replacing the previous entry. Zero disables coalescing.
	MinInterval time.Duration
}

// History holds the stacks. It is safe for concurrent use.
type History struct {
	cfg Config
	mu  sync.Mutex

	undo map[string][]Snapshot
	redo map[string][]Snapshot

	totalBytes int
}

func New(cfg Config) *History {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 4 * 1024 * 1024
	}
	return &History{cfg: cfg, undo: map[string][]Snapshot{}, redo: map[string][]Snapshot{}}
}

// Push records the state before a change. Redo for the key is dropped.
func (h *History) Push(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropRedoLocked(s.Key)
	stack := h.undo[s.Key]
	if n := len(stack); n > 0 && h.cfg.MinInterval > 0 && s.TS.Sub(stack[n-1].TS) < h.cfg.MinInterval {
		// Keep the older state; the newer one is an intermediate step.
		stack[n-1].TS = s.TS
		return
	}
	h.undo[s.Key] = append(stack, s)
	h.totalBytes += len(s.Blob)
	h.enforceCapsLocked(s.Key)
}

// Undo swaps current for the newest undo entry of its key. current goes on
// the redo stack.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	stack := h.undo[current.Key]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	prev := stack[len(stack)-1]
	h.undo[current.Key] = stack[:len(stack)-1]
	h.totalBytes -= len(prev.Blob)
	h.redo[current.Key] = append(h.redo[current.Key], current)
	h.totalBytes += len(current.Blob)
	return prev, true
}

// Redo reverses the last Undo for current's key.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.redo[current.Key]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	next := r[len(r)-1]
	h.redo[current.Key] = r[:len(r)-1]
	h.totalBytes -= len(next.Blob)
	h.undo[current.Key] = append(h.undo[current.Key], current)
	h.totalBytes += len(current.Blob)
	h.enforceCapsLocked(current.Key)
	return next, true
}

// CanUndo and CanRedo report whether the key has entries.
func (h *History) CanUndo(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo[key]) > 0
}

func (h *History) CanRedo(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo[key]) > 0
}

// Clear drops both stacks of key.
func (h *History) Clear(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.undo[key] {
		h.totalBytes -= len(s.Blob)
	}
	h.dropRedoLocked(key)
	delete(h.undo, key)
	if h.totalBytes < 0 {
		h.totalBytes = 0
	}
}

// Stats returns sizes for diagnostics.
func (h *History) Stats() (totalBytes int, keys int, undoEntries int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	keys = len(h.undo)
	for _, v := range h.undo {
		undoEntries += len(v)
	}
	return h.totalBytes, keys, undoEntries
}

func (h *History) dropRedoLocked(key string) {
	for _, s := range h.redo[key] {
		h.totalBytes -= len(s.Blob)
	}
	delete(h.redo, key)
}

func (h *History) enforceCapsLocked(key string) {
	if h.cfg.MaxPerKey > 0 {
		stack := h.undo[key]
		if extra := len(stack) - h.cfg.MaxPerKey; extra > 0 {
			for _, s := range stack[:extra] {
				h.totalBytes -= len(s.Blob)
			}
			h.undo[key] = append([]Snapshot{}, stack[extra:]...)
		}
	}
	// global cap: prune the oldest bottom entry across keys
	for h.totalBytes > h.cfg.MaxBytes {
		oldest := ""
		found := false
		var oldestTS time.Time
		for k, stack := range h.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldest, oldestTS, found = k, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := h.undo[oldest]
		h.totalBytes -= len(stack[0].Blob)
		h.undo[oldest] = stack[1:]
		if len(h.undo[oldest]) == 0 {
			delete(h.undo, oldest)
		}
	}
}
