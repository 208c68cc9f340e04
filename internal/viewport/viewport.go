/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"log/slog"
	"time"

	"dragoneye/internal/eventbus"
	"dragoneye/internal/geom"
)

// WheelEvent is a scroll sample in screen coordinates with modifier state.
type WheelEvent struct {
	Position geom.Point
	DeltaX   float64
	DeltaY   float64
	Ctrl     bool
	Meta     bool
	Shift    bool
}

// Input is the listener registry of a host container. Each On* call
// registers fn and returns a function that removes exactly that
// registration. A listener returns true when it consumed the event; for
// context-menu listeners true means the native menu is suppressed.
type Input interface {
	OnPointer(kind PointerKind, fn func(PointerEvent) bool) (off func())
	OnWheel(fn func(WheelEvent) bool) (off func())
	OnContextMenu(fn func(at geom.Point) bool) (off func())
}

// Container is the host element the viewport is attached to.
type Container interface {
	Input
	// Bounds is the container rectangle in screen coordinates.
	Bounds() geom.Rect
	// Candidates lists the selectable elements currently on screen.
	Candidates() []Candidate
}

// PointerCapturer is implemented by containers that can route all events
// of one pointer to themselves while it is held.
type PointerCapturer interface {
	CapturePointer(id int)
	ReleasePointer(id int)
}

// Surface is the content layer the transform is applied to.
type Surface interface {
	ApplyTransform(Transform)
}

// Viewport combines the transform engine with gesture handling for one
// container at a time. All methods must be called from the goroutine that
// delivers input events.
type Viewport struct {
	opts   Options
	engine *Engine
	log    *slog.Logger

	container Container
	surface   Surface
	detach    []func()

	sess      *session
	selection eventbus.Bus[SelectEvent]
	tasks     *taskSet
	painter   *framePainter
}

// New returns a detached viewport at the identity transform.
func New(opts Options) *Viewport {
	opts = opts.normalized()
	v := &Viewport{opts: opts, engine: NewEngine(opts), log: opts.Logger}
	v.selection.Logger = opts.Logger
	v.tasks = newTaskSet(opts.Scheduler)
	v.painter = &framePainter{tasks: v.tasks, interval: opts.FrameInterval, apply: v.paint}
	v.engine.view = v.center
	v.engine.Subscribe(func(t Transform) {
		if v.surface != nil {
			v.painter.request(t)
		}
	})
	return v
}

// Options returns the effective options.
func (v *Viewport) Options() Options { return v.opts }

// Engine exposes the transform engine.
func (v *Viewport) Engine() *Engine { return v.engine }

// Transform returns the current transform.
func (v *Viewport) Transform() Transform { return v.engine.Transform() }

// State returns the current gesture state.
func (v *Viewport) State() State {
	if v.sess == nil {
		return Idle
	}
	return v.sess.state
}

// Selection returns the rubber band of the running gesture, if any.
func (v *Viewport) Selection() (SelectionBox, bool) {
	if v.sess == nil || v.sess.state != BoxSelecting {
		return SelectionBox{}, false
	}
	return v.sess.box, true
}

// Attached reports whether a container is attached.
func (v *Viewport) Attached() bool { return v.container != nil }

// Attach binds the viewport to container c and surface s (which may be nil).
// A previous container is detached first.
func (v *Viewport) Attach(c Container, s Surface) {
	v.Detach()
	if c == nil {
		return
	}
	v.container = c
	v.surface = s
	v.detach = append(v.detach,
		c.OnPointer(PointerDown, v.onPointerDown),
		c.OnWheel(v.onWheel),
	)
	v.log.Debug("attached", slog.Any("bounds", c.Bounds()))
	if s != nil {
		v.painter.request(v.engine.Transform())
	}
}

// Detach ends any running gesture without emitting events, removes every
// listener and cancels all deferred work.
func (v *Viewport) Detach() {
	if v.sess != nil {
		v.sess.close()
	}
	v.tasks.cancelAll()
	v.painter.reset()
	for i := len(v.detach) - 1; i >= 0; i-- {
		v.detach[i]()
	}
	if v.container != nil {
		v.log.Debug("detached")
	}
	v.detach = nil
	v.container = nil
	v.surface = nil
}

// SubscribeTransform registers fn for transform snapshots.
func (v *Viewport) SubscribeTransform(fn func(Transform)) (unsubscribe func()) {
	return v.engine.Subscribe(fn)
}

// SubscribeSelection registers fn for selection events.
func (v *Viewport) SubscribeSelection(fn func(SelectEvent)) (unsubscribe func()) {
	return v.selection.Subscribe(fn)
}

func (v *Viewport) ZoomIn() bool  { return v.engine.ZoomIn() }
func (v *Viewport) ZoomOut() bool { return v.engine.ZoomOut() }
func (v *Viewport) ResetView()    { v.engine.ResetView() }

// After runs fn after delay unless the viewport is detached first.
func (v *Viewport) After(delay time.Duration, fn func()) (cancel func()) {
	return v.tasks.schedule(delay, fn)
}

func (v *Viewport) emitSelect(ev SelectEvent) {
	if ev.Selected != nil {
		ev.Selected = append(make([]CardRef, 0, len(ev.Selected)), ev.Selected...)
	}
	v.selection.Publish(ev)
}

func (v *Viewport) center() (geom.Point, bool) {
	if v.container == nil {
		return geom.Point{}, false
	}
	b := v.container.Bounds()
	return geom.Pt(b.W/2, b.H/2), true
}

func (v *Viewport) paint(t Transform) {
	if v.surface != nil {
		v.surface.ApplyTransform(t)
	}
}

// onWheel maps modifiers to an engine call: Ctrl or Meta zooms at the
// cursor, Shift pans horizontally, otherwise the view pans vertically.
func (v *Viewport) onWheel(ev WheelEvent) bool {
	if v.container == nil || !finite(ev.DeltaX, ev.DeltaY) || !ev.Position.Finite() {
		return false
	}
	switch {
	case ev.Ctrl || ev.Meta:
		if ev.DeltaY == 0 {
			return true
		}
		o := v.container.Bounds().Min()
		f := 1 - v.opts.ZoomStep
		if ev.DeltaY < 0 {
			f = 1 + v.opts.ZoomStep
		}
		v.engine.ZoomAtPoint(ev.Position.X-o.X, ev.Position.Y-o.Y, f)
	case ev.Shift:
		d := ev.DeltaX
		if d == 0 {
			d = ev.DeltaY
		}
		v.engine.HandleHorizontalPan(d)
	default:
		v.engine.HandleVerticalPan(ev.DeltaY)
	}
	return true
}
