/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"sort"
	"sync"

	"dragoneye/internal/domain"
	"dragoneye/internal/geom"
	"dragoneye/internal/viewport"
)

// registry keeps listeners in registration order. The returned off func
// removes exactly one registration and is safe to call twice.
type registry[F any] struct {
	next  int
	items []regEntry[F]
}

type regEntry[F any] struct {
	id int
	fn F
}

func (r *registry[F]) add(fn F) func() {
	r.next++
	id := r.next
	r.items = append(r.items, regEntry[F]{id: id, fn: fn})
	var once sync.Once
	return func() {
		once.Do(func() {
			for i, e := range r.items {
				if e.id == id {
					r.items = append(r.items[:i:i], r.items[i+1:]...)
					return
				}
			}
		})
	}
}

// snapshot lets listeners register or unregister while an event is delivered.
func (r *registry[F]) snapshot() []F {
	out := make([]F, len(r.items))
	for i, e := range r.items {
		out[i] = e.fn
	}
	return out
}

func (r *registry[F]) len() int { return len(r.items) }

// Host is the toolkit independent half of the card canvas. It holds the deck
// layout, implements the viewport's Container, PointerCapturer and Surface
// interfaces, and tracks the selection. A widget feeds it native events
// through the Dispatch methods and redraws on Changed.
type Host struct {
	deck   domain.Deck
	placed []domain.Placed
	bounds geom.Rect
	// cur follows the engine on every change and drives hit testing and
	// selection; painted is what the surface last drew.
	cur     viewport.Transform
	painted viewport.Transform

	pointer  [4]registry[func(viewport.PointerEvent) bool]
	wheel    registry[func(viewport.WheelEvent) bool]
	menu     registry[func(geom.Point) bool]
	captured map[int]bool

	band     *viewport.SelectionBox
	selected map[domain.Ref]bool

	// Changed is called after anything visible changed.
	Changed func()
}

// NewHost lays out d at the identity transform.
func NewHost(d domain.Deck) *Host {
	h := &Host{cur: viewport.Identity(), painted: viewport.Identity(), captured: map[int]bool{}, selected: map[domain.Ref]bool{}}
	h.SetDeck(d)
	return h
}

// SetDeck replaces the deck and clears the selection.
func (h *Host) SetDeck(d domain.Deck) {
	h.deck = d
	h.placed = h.deck.Layout()
	h.selected = map[domain.Ref]bool{}
	h.changed()
}

func (h *Host) Deck() domain.Deck { return h.deck }

// Placed returns the laid out cards in content space.
func (h *Host) Placed() []domain.Placed { return h.placed }

// SetBounds updates the container rectangle in screen coordinates.
func (h *Host) SetBounds(r geom.Rect) { h.bounds = r }

func (h *Host) Bounds() geom.Rect { return h.bounds }

// ScreenRect maps a content rectangle to screen coordinates under the
// current transform.
func (h *Host) ScreenRect(r geom.Rect) geom.Rect {
	return geom.Translate(h.bounds.X, h.bounds.Y).Mul(h.cur.Affine()).ApplyRect(r)
}

// Candidates reports every card with its screen bounds.
func (h *Host) Candidates() []viewport.Candidate {
	out := make([]viewport.Candidate, 0, len(h.placed))
	for _, p := range h.placed {
		out = append(out, viewport.Candidate{
			Bounds: h.ScreenRect(p.Bounds),
			Ref:    &viewport.CardRef{GroupIndex: p.Ref.Group, CardIndex: p.Ref.Card},
		})
	}
	return out
}

func (h *Host) OnPointer(kind viewport.PointerKind, fn func(viewport.PointerEvent) bool) func() {
	return h.pointer[kind].add(fn)
}

func (h *Host) OnWheel(fn func(viewport.WheelEvent) bool) func() { return h.wheel.add(fn) }

func (h *Host) OnContextMenu(fn func(geom.Point) bool) func() { return h.menu.add(fn) }

// Listeners counts live registrations.
func (h *Host) Listeners() int {
	n := h.wheel.len() + h.menu.len()
	for i := range h.pointer {
		n += h.pointer[i].len()
	}
	return n
}

func (h *Host) CapturePointer(id int) { h.captured[id] = true }
func (h *Host) ReleasePointer(id int) { delete(h.captured, id) }

// Captured reports whether pointer id is captured.
func (h *Host) Captured(id int) bool { return h.captured[id] }

// Follow records a transform change as soon as the engine publishes it.
// Nothing is redrawn until the next ApplyTransform.
func (h *Host) Follow(t viewport.Transform) { h.cur = t }

// Current returns the transform hit testing and selection work against.
func (h *Host) Current() viewport.Transform { return h.cur }

// ApplyTransform is called by the viewport once per frame.
func (h *Host) ApplyTransform(t viewport.Transform) {
	h.painted = t
	h.changed()
}

// Transform returns the last painted transform.
func (h *Host) Transform() viewport.Transform { return h.painted }

// HitTest returns the topmost card under the screen point p.
func (h *Host) HitTest(p geom.Point) (domain.Ref, bool) {
	for i := len(h.placed) - 1; i >= 0; i-- {
		if h.ScreenRect(h.placed[i].Bounds).Contains(p) {
			return h.placed[i].Ref, true
		}
	}
	return domain.Ref{}, false
}

// TargetAt classifies the screen point for pointer-down routing.
func (h *Host) TargetAt(p geom.Point) viewport.Target {
	if _, ok := h.HitTest(p); ok {
		return viewport.TargetInteractive
	}
	return viewport.TargetBackground
}

// DispatchPointer delivers ev to every listener of kind and reports whether
// one of them consumed it.
func (h *Host) DispatchPointer(kind viewport.PointerKind, ev viewport.PointerEvent) bool {
	if int(kind) < 0 || int(kind) >= len(h.pointer) {
		return false
	}
	consumed := false
	for _, fn := range h.pointer[kind].snapshot() {
		if fn(ev) {
			consumed = true
		}
	}
	return consumed
}

func (h *Host) DispatchWheel(ev viewport.WheelEvent) bool {
	consumed := false
	for _, fn := range h.wheel.snapshot() {
		if fn(ev) {
			consumed = true
		}
	}
	return consumed
}

// DispatchContextMenu reports whether a listener suppressed the menu.
func (h *Host) DispatchContextMenu(at geom.Point) bool {
	suppressed := false
	for _, fn := range h.menu.snapshot() {
		if fn(at) {
			suppressed = true
		}
	}
	return suppressed
}

// Band returns the live selection rectangle in screen coordinates.
func (h *Host) Band() (geom.Rect, bool) {
	if h.band == nil {
		return geom.Rect{}, false
	}
	return h.band.Rect(), true
}

// ApplySelection follows the viewport's selection stream.
func (h *Host) ApplySelection(ev viewport.SelectEvent) {
	switch ev.Phase {
	case viewport.SelectStart, viewport.SelectUpdate:
		box := ev.Box
		h.band = &box
	case viewport.SelectEnd:
		h.band = nil
		refs := make([]domain.Ref, 0, len(ev.Selected))
		for _, r := range ev.Selected {
			refs = append(refs, domain.Ref{Group: r.GroupIndex, Card: r.CardIndex})
		}
		h.SetSelected(refs)
		return
	case viewport.SelectClear:
		h.band = nil
		h.SetSelected(nil)
		return
	}
	h.changed()
}

// SetSelected replaces the selection.
func (h *Host) SetSelected(refs []domain.Ref) {
	h.selected = make(map[domain.Ref]bool, len(refs))
	for _, r := range refs {
		h.selected[r] = true
	}
	h.changed()
}

func (h *Host) IsSelected(r domain.Ref) bool { return h.selected[r] }

// Selected returns the selection in deck order.
func (h *Host) Selected() []domain.Ref {
	out := make([]domain.Ref, 0, len(h.selected))
	for r := range h.selected {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Card < out[j].Card
	})
	return out
}

func (h *Host) changed() {
	if h.Changed != nil {
		h.Changed()
	}
}
