/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package replay drives the card canvas headlessly from a gesture script.
// The viewport runs on a virtual clock, so a script always produces the same
// event stream.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"dragoneye/internal/domain"
	"dragoneye/internal/geom"
	applog "dragoneye/internal/log"
	"dragoneye/internal/ui"
	"dragoneye/internal/viewport"
)

// Bounds is the container rectangle in screen coordinates.
type Bounds struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Step is one scripted input. Op selects which fields matter:
//
//	down, move, up, cancel  x, y, id, button, pointer
//	wheel                   x, y, dx, dy, ctrl, meta, shift
//	menu                    x, y
//	zoom_in, zoom_out, reset, fit, undo, redo
//	wait                    for
type Step struct {
	Op      string        `yaml:"op"`
	X       float64       `yaml:"x"`
	Y       float64       `yaml:"y"`
	ID      int           `yaml:"id"`
	Button  string        `yaml:"button"`
	Pointer string        `yaml:"pointer"`
	DX      float64       `yaml:"dx"`
	DY      float64       `yaml:"dy"`
	Ctrl    bool          `yaml:"ctrl"`
	Meta    bool          `yaml:"meta"`
	Shift   bool          `yaml:"shift"`
	For     time.Duration `yaml:"for"`
}

// Script is a replayable gesture session.
type Script struct {
	Bounds Bounds `yaml:"bounds"`
	// Threshold overrides the box selection threshold when positive.
	Threshold float64 `yaml:"threshold"`
	Steps     []Step  `yaml:"steps"`
}

// Record is one line of replay output.
type Record struct {
	Step      int                   `json:"step"`
	Op        string                `json:"op"`
	Event     string                `json:"event"`
	Transform *viewport.Transform   `json:"transform,omitempty"`
	Select    *viewport.SelectEvent `json:"select,omitempty"`
	MenuOpen  *bool                 `json:"menuOpen,omitempty"`
	Consumed  *bool                 `json:"consumed,omitempty"`
}

// Summary is the state after the last step.
type Summary struct {
	Steps     int                `json:"steps"`
	State     string             `json:"state"`
	Transform viewport.Transform `json:"transform"`
	Selected  []domain.Ref       `json:"selected"`
	Elapsed   time.Duration      `json:"elapsedNs"`
}

// LoadScript reads a YAML script from path.
func LoadScript(path string) (Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(b)
}

// ParseScript decodes and checks a YAML script.
func ParseScript(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	if s.Bounds.W <= 0 || s.Bounds.H <= 0 {
		s.Bounds.W, s.Bounds.H = 1024, 768
	}
	for i, st := range s.Steps {
		if _, ok := ops[strings.ToLower(st.Op)]; !ok {
			return Script{}, fmt.Errorf("step %d: unknown op %q", i+1, st.Op)
		}
		if _, err := parseButton(st.Button); err != nil {
			return Script{}, fmt.Errorf("step %d: %w", i+1, err)
		}
		if _, err := parsePointer(st.Pointer); err != nil {
			return Script{}, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return s, nil
}

var ops = map[string]bool{
	"down": true, "move": true, "up": true, "cancel": true,
	"wheel": true, "menu": true, "wait": true,
	"zoom_in": true, "zoom_out": true, "reset": true, "fit": true,
	"undo": true, "redo": true,
}

func parseButton(s string) (viewport.Button, error) {
	switch strings.ToLower(s) {
	case "", "primary", "left":
		return viewport.ButtonPrimary, nil
	case "middle":
		return viewport.ButtonMiddle, nil
	case "secondary", "right":
		return viewport.ButtonSecondary, nil
	}
	return 0, fmt.Errorf("unknown button %q", s)
}

func parsePointer(s string) (viewport.PointerType, error) {
	switch strings.ToLower(s) {
	case "", "mouse":
		return viewport.PointerMouse, nil
	case "pen":
		return viewport.PointerPen, nil
	case "touch":
		return viewport.PointerTouch, nil
	}
	return 0, fmt.Errorf("unknown pointer type %q", s)
}

// Run plays s against deck d and calls emit for every published event.
// Pending frames are flushed after the last step.
func Run(ctx context.Context, d domain.Deck, s Script, emit func(Record) error) (Summary, error) {
	l := applog.WithOperation(applog.WithComponent("replay"), "run").With(slog.String("deck", d.Name))
	sched := &viewport.ManualScheduler{}
	ctrl := ui.NewController(d, viewport.Options{Scheduler: sched, SelectionThreshold: s.Threshold})
	defer ctrl.Close()
	ctrl.Host.SetBounds(geom.R(s.Bounds.X, s.Bounds.Y, s.Bounds.W, s.Bounds.H))

	cur := Record{}
	var emitErr error
	send := func(r Record) {
		if emitErr == nil {
			emitErr = emit(r)
		}
	}
	offT := ctrl.View.SubscribeTransform(func(t viewport.Transform) {
		send(Record{Step: cur.Step, Op: cur.Op, Event: "transform", Transform: &t})
	})
	defer offT()
	offS := ctrl.View.SubscribeSelection(func(ev viewport.SelectEvent) {
		send(Record{Step: cur.Step, Op: cur.Op, Event: "select", Select: &ev})
	})
	defer offS()

	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		cur = Record{Step: i + 1, Op: strings.ToLower(st.Op)}
		play(ctrl, sched, cur, st, send)
		if emitErr != nil {
			return Summary{}, fmt.Errorf("emit step %d: %w", i+1, emitErr)
		}
	}
	sched.Advance(ctrl.View.Options().FrameInterval)
	if emitErr != nil {
		return Summary{}, fmt.Errorf("emit: %w", emitErr)
	}

	sum := Summary{
		Steps:     len(s.Steps),
		State:     ctrl.View.State().String(),
		Transform: ctrl.Host.Transform(),
		Selected:  ctrl.Host.Selected(),
		Elapsed:   sched.Now(),
	}
	l.Debug("replay finished", slog.Int("steps", sum.Steps), slog.String("state", sum.State))
	return sum, nil
}

func play(ctrl *ui.Controller, sched *viewport.ManualScheduler, cur Record, st Step, send func(Record)) {
	at := geom.Pt(st.X, st.Y)
	consumed := func(ok bool) {
		r := cur
		r.Event = "input"
		r.Consumed = &ok
		send(r)
	}
	btn, _ := parseButton(st.Button)
	pt, _ := parsePointer(st.Pointer)
	pe := viewport.PointerEvent{ID: st.ID, Type: pt, Button: btn, Position: at}

	switch cur.Op {
	case "down":
		consumed(ctrl.PointerDown(pe))
	case "move":
		consumed(ctrl.PointerMove(pe))
	case "up":
		consumed(ctrl.PointerUp(pe))
	case "cancel":
		consumed(ctrl.PointerCancel(pe))
	case "wheel":
		consumed(ctrl.Wheel(viewport.WheelEvent{Position: at, DeltaX: st.DX, DeltaY: st.DY, Ctrl: st.Ctrl, Meta: st.Meta, Shift: st.Shift}))
	case "menu":
		open := ctrl.ContextMenu(at)
		r := cur
		r.Event = "menu"
		r.MenuOpen = &open
		send(r)
	case "zoom_in":
		ctrl.View.ZoomIn()
	case "zoom_out":
		ctrl.View.ZoomOut()
	case "reset":
		ctrl.View.ResetView()
	case "fit":
		ctrl.FitDeck()
	case "undo":
		consumed(ctrl.UndoSelection())
	case "redo":
		consumed(ctrl.RedoSelection())
	case "wait":
		sched.Advance(st.For)
	}
}
