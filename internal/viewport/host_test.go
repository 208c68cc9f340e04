/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"dragoneye/internal/geom"
	applog "dragoneye/internal/log"
)

// fakeHost is an in-memory container that records listener registrations
// and dispatches synthetic events to them in registration order.
type fakeHost struct {
	bounds geom.Rect
	cands  []Candidate

	nextID  int
	pointer map[PointerKind]map[int]func(PointerEvent) bool
	wheel   map[int]func(WheelEvent) bool
	menu    map[int]func(geom.Point) bool
	order   []int

	captured map[int]bool
	applied  []Transform
}

func newFakeHost(bounds geom.Rect) *fakeHost {
	return &fakeHost{
		bounds:   bounds,
		pointer:  map[PointerKind]map[int]func(PointerEvent) bool{},
		wheel:    map[int]func(WheelEvent) bool{},
		menu:     map[int]func(geom.Point) bool{},
		captured: map[int]bool{},
	}
}

func (h *fakeHost) register() int {
	h.nextID++
	h.order = append(h.order, h.nextID)
	return h.nextID
}

func (h *fakeHost) OnPointer(kind PointerKind, fn func(PointerEvent) bool) func() {
	id := h.register()
	if h.pointer[kind] == nil {
		h.pointer[kind] = map[int]func(PointerEvent) bool{}
	}
	h.pointer[kind][id] = fn
	return func() { delete(h.pointer[kind], id) }
}

func (h *fakeHost) OnWheel(fn func(WheelEvent) bool) func() {
	id := h.register()
	h.wheel[id] = fn
	return func() { delete(h.wheel, id) }
}

func (h *fakeHost) OnContextMenu(fn func(geom.Point) bool) func() {
	id := h.register()
	h.menu[id] = fn
	return func() { delete(h.menu, id) }
}

func (h *fakeHost) Bounds() geom.Rect       { return h.bounds }
func (h *fakeHost) Candidates() []Candidate { return h.cands }

func (h *fakeHost) CapturePointer(id int) { h.captured[id] = true }
func (h *fakeHost) ReleasePointer(id int) { delete(h.captured, id) }

func (h *fakeHost) ApplyTransform(t Transform) { h.applied = append(h.applied, t) }

// listeners counts live registrations of every kind.
func (h *fakeHost) listeners() int {
	n := len(h.wheel) + len(h.menu)
	for _, m := range h.pointer {
		n += len(m)
	}
	return n
}

func (h *fakeHost) pointerListeners(kind PointerKind) int { return len(h.pointer[kind]) }

func (h *fakeHost) dispatchPointer(kind PointerKind, ev PointerEvent) bool {
	handled := false
	for _, id := range h.order {
		if fn, ok := h.pointer[kind][id]; ok {
			if fn(ev) {
				handled = true
			}
		}
	}
	return handled
}

func (h *fakeHost) down(x, y float64, b Button, t Target) bool {
	return h.dispatchPointer(PointerDown, PointerEvent{ID: 1, Type: PointerMouse, Button: b, Position: geom.Pt(x, y), Target: t})
}

func (h *fakeHost) move(x, y float64) bool {
	return h.dispatchPointer(PointerMove, PointerEvent{ID: 1, Type: PointerMouse, Position: geom.Pt(x, y)})
}

func (h *fakeHost) up(x, y float64) bool {
	return h.dispatchPointer(PointerUp, PointerEvent{ID: 1, Type: PointerMouse, Position: geom.Pt(x, y)})
}

func (h *fakeHost) scroll(ev WheelEvent) bool {
	handled := false
	for _, id := range h.order {
		if fn, ok := h.wheel[id]; ok && fn(ev) {
			handled = true
		}
	}
	return handled
}

// contextMenu reports whether any listener suppressed the native menu.
func (h *fakeHost) contextMenu(at geom.Point) bool {
	suppressed := false
	for _, id := range h.order {
		if fn, ok := h.menu[id]; ok && fn(at) {
			suppressed = true
		}
	}
	return suppressed
}

// recorder collects published values in order.
type recorder struct {
	transforms []Transform
	selects    []SelectEvent
}

func (r *recorder) phases() []SelectPhase {
	out := make([]SelectPhase, 0, len(r.selects))
	for _, ev := range r.selects {
		out = append(out, ev.Phase)
	}
	return out
}

func ref(g, c int) *CardRef { return &CardRef{GroupIndex: g, CardIndex: c} }

// newTestViewport attaches a viewport to a fresh host with a manual clock.
func newTestViewport(bounds geom.Rect) (*Viewport, *fakeHost, *ManualScheduler, *recorder) {
	sched := &ManualScheduler{}
	v := New(Options{Scheduler: sched, Logger: applog.Discard()})
	h := newFakeHost(bounds)
	rec := &recorder{}
	v.SubscribeTransform(func(t Transform) { rec.transforms = append(rec.transforms, t) })
	v.SubscribeSelection(func(ev SelectEvent) { rec.selects = append(rec.selects, ev) })
	v.Attach(h, h)
	return v, h, sched, rec
}
