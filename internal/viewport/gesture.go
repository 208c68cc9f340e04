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

	"dragoneye/internal/geom"
)

// State is the gesture state of the single pointer stream.
type State int

const (
	Idle State = iota
	Panning
	DecidingClick
	BoxSelecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case DecidingClick:
		return "deciding-click"
	case BoxSelecting:
		return "box-selecting"
	default:
		return "unknown"
	}
}

// Button identifies a pointer button using DOM numbering.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// PointerType tells mouse from pen and touch input.
type PointerType int

const (
	PointerMouse PointerType = iota
	PointerPen
	PointerTouch
)

// Target classifies what lies under the pointer at pointer-down.
type Target int

const (
	// TargetNone is anything that is neither background nor interactive,
	// for example a scrollbar or an overlay owned by someone else.
	TargetNone Target = iota
	TargetBackground
	TargetInteractive
)

// PointerKind selects the pointer event stream a listener is registered on.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerCancel
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// PointerEvent is one pointer sample in screen coordinates.
type PointerEvent struct {
	ID       int
	Type     PointerType
	Button   Button
	Position geom.Point
	Target   Target
}

// session is the capture session of one pointer gesture. It owns the
// move/up/cancel listener registrations and, while panning, the pointer
// capture and the context-menu suppression. close undoes all of it.
type session struct {
	v       *Viewport
	pointer int
	state   State
	anchor  geom.Point
	last    geom.Point
	box     SelectionBox
	release []func()
	closed  bool
}

func (v *Viewport) beginSession(ev PointerEvent, st State) {
	s := &session{v: v, pointer: ev.ID, state: st, anchor: ev.Position, last: ev.Position}
	if st == DecidingClick {
		s.box = SelectionBox{StartX: ev.Position.X, StartY: ev.Position.Y, EndX: ev.Position.X, EndY: ev.Position.Y}
	}
	in := v.container
	s.release = append(s.release,
		in.OnPointer(PointerMove, s.onMove),
		in.OnPointer(PointerUp, s.onUp),
		in.OnPointer(PointerCancel, s.onCancel),
	)
	if st == Panning {
		s.release = append(s.release, in.OnContextMenu(func(geom.Point) bool { return true }))
		if pc, ok := in.(PointerCapturer); ok {
			pc.CapturePointer(ev.ID)
			s.release = append(s.release, func() { pc.ReleasePointer(ev.ID) })
		}
	}
	v.sess = s
	v.log.Debug("gesture", slog.String("from", Idle.String()), slog.String("to", st.String()), slog.Int("pointer", ev.ID))
}

// close releases everything the session acquired, newest first.
func (s *session) close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.release) - 1; i >= 0; i-- {
		s.release[i]()
	}
	s.release = nil
	if s.v.sess == s {
		s.v.sess = nil
	}
}

func (s *session) transition(to State) {
	s.v.log.Debug("gesture", slog.String("from", s.state.String()), slog.String("to", to.String()), slog.Int("pointer", s.pointer))
	s.state = to
}

func (s *session) onMove(ev PointerEvent) bool {
	if s.closed || ev.ID != s.pointer {
		return false
	}
	if !ev.Position.Finite() {
		return true
	}
	p := ev.Position
	switch s.state {
	case Panning:
		dx, dy := p.X-s.last.X, p.Y-s.last.Y
		s.last = p
		s.v.engine.PanBy(dx, dy)
	case DecidingClick:
		s.last = p
		s.box.EndX, s.box.EndY = p.X, p.Y
		if geom.Distance(s.anchor, p) > s.v.opts.SelectionThreshold {
			s.transition(BoxSelecting)
			s.box.Active = true
			s.v.emitSelect(SelectEvent{Phase: SelectStart, Box: s.box})
		}
	case BoxSelecting:
		s.last = p
		s.box.EndX, s.box.EndY = p.X, p.Y
		s.v.emitSelect(SelectEvent{Phase: SelectUpdate, Box: s.box})
	}
	return true
}

func (s *session) onUp(ev PointerEvent) bool {
	if s.closed || ev.ID != s.pointer {
		return false
	}
	if ev.Position.Finite() {
		s.last = ev.Position
	}
	s.finish()
	return true
}

// onCancel ends the gesture like a release at the last known position.
func (s *session) onCancel(ev PointerEvent) bool {
	if s.closed || ev.ID != s.pointer {
		return false
	}
	s.finish()
	return true
}

func (s *session) finish() {
	v := s.v
	from := s.state
	if from == BoxSelecting {
		s.box.EndX, s.box.EndY = s.last.X, s.last.Y
	}
	s.transition(Idle)
	s.close()

	switch from {
	case BoxSelecting:
		var origin geom.Point
		var cands []Candidate
		if v.container != nil {
			origin = v.container.Bounds().Min()
			cands = v.container.Candidates()
		}
		sel := Contained(s.box.Rect(), origin, cands)
		v.log.Debug("selection end", slog.Int("selected", len(sel)))
		v.emitSelect(SelectEvent{Phase: SelectEnd, Box: s.box, Selected: sel})
	case DecidingClick:
		v.emitSelect(SelectEvent{Phase: SelectClear, Box: s.box})
	}
}

// onPointerDown decides whether a new gesture starts. It reports whether the
// event was claimed; unclaimed events propagate to the target.
func (v *Viewport) onPointerDown(ev PointerEvent) bool {
	if v.sess != nil || !ev.Position.Finite() {
		return false
	}
	switch {
	case ev.Button == ButtonMiddle && ev.Type == PointerMouse:
		v.beginSession(ev, Panning)
		return true
	case ev.Button == ButtonPrimary && ev.Target == TargetInteractive:
		return false
	case ev.Button == ButtonPrimary && ev.Target == TargetBackground:
		v.beginSession(ev, DecidingClick)
		return true
	default:
		return false
	}
}
