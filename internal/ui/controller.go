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
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"dragoneye/internal/domain"
	"dragoneye/internal/geom"
	applog "dragoneye/internal/log"
	"dragoneye/internal/undo"
	"dragoneye/internal/viewport"
)

// MenuItem is one context menu entry.
type MenuItem struct {
	Label  string
	Action func()
}

// Controller wires a Host to a Viewport and routes native input to both.
type Controller struct {
	Host *Host
	View *viewport.Viewport
	log  *slog.Logger
	offs []func()
	hist *undo.History
	now  func() time.Time
}

// NewController creates the host for d and attaches a viewport with opts.
func NewController(d domain.Deck, opts viewport.Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = applog.WithComponent("viewport")
	}
	c := &Controller{
		Host: NewHost(d),
		View: viewport.New(opts),
		log:  applog.WithComponent("ui"),
		hist: undo.New(undo.Config{MaxPerKey: 100}),
		now:  time.Now,
	}
	c.Host.Follow(c.View.Transform())
	c.offs = append(c.offs, c.View.SubscribeTransform(c.Host.Follow))
	c.offs = append(c.offs, c.View.SubscribeSelection(func(ev viewport.SelectEvent) {
		switch ev.Phase {
		case viewport.SelectEnd, viewport.SelectClear:
			c.changeSelection(func() { c.Host.ApplySelection(ev) })
		default:
			c.Host.ApplySelection(ev)
		}
		if ev.Phase == viewport.SelectEnd {
			c.log.Debug("box selection", slog.Int("cards", len(ev.Selected)))
		}
	}))
	c.View.Attach(c.Host, c.Host)
	return c
}

// PointerDown classifies the target, offers the press to the viewport and
// handles plain clicks on cards that the viewport lets through.
func (c *Controller) PointerDown(ev viewport.PointerEvent) bool {
	ev.Target = c.Host.TargetAt(ev.Position)
	if c.Host.DispatchPointer(viewport.PointerDown, ev) {
		return true
	}
	if ev.Button == viewport.ButtonPrimary && ev.Target == viewport.TargetInteractive && c.View.State() == viewport.Idle {
		if ref, ok := c.Host.HitTest(ev.Position); ok {
			c.SetSelection([]domain.Ref{ref})
			return true
		}
	}
	return false
}

func (c *Controller) PointerMove(ev viewport.PointerEvent) bool {
	return c.Host.DispatchPointer(viewport.PointerMove, ev)
}

func (c *Controller) PointerUp(ev viewport.PointerEvent) bool {
	return c.Host.DispatchPointer(viewport.PointerUp, ev)
}

func (c *Controller) PointerCancel(ev viewport.PointerEvent) bool {
	return c.Host.DispatchPointer(viewport.PointerCancel, ev)
}

func (c *Controller) Wheel(ev viewport.WheelEvent) bool { return c.Host.DispatchWheel(ev) }

// ContextMenu reports whether the menu may open at the screen point at.
func (c *Controller) ContextMenu(at geom.Point) bool { return !c.Host.DispatchContextMenu(at) }

// MenuItems lists the canvas context menu.
func (c *Controller) MenuItems() []MenuItem {
	items := []MenuItem{
		{Label: "Zoom in", Action: func() { c.View.ZoomIn() }},
		{Label: "Zoom out", Action: func() { c.View.ZoomOut() }},
		{Label: "Reset view", Action: c.View.ResetView},
	}
	if len(c.Host.Selected()) > 0 {
		items = append(items, MenuItem{Label: "Clear selection", Action: func() { c.SetSelection(nil) }})
	}
	key := c.historyKey()
	if c.hist.CanUndo(key) {
		items = append(items, MenuItem{Label: "Undo selection", Action: func() { c.UndoSelection() }})
	}
	if c.hist.CanRedo(key) {
		items = append(items, MenuItem{Label: "Redo selection", Action: func() { c.RedoSelection() }})
	}
	return items
}

// SetSelection replaces the selection and records the previous one for undo.
func (c *Controller) SetSelection(refs []domain.Ref) {
	c.changeSelection(func() { c.Host.SetSelected(refs) })
}

// changeSelection runs apply and pushes the prior selection when it changed.
func (c *Controller) changeSelection(apply func()) {
	before := c.Host.Selected()
	apply()
	if slices.Equal(before, c.Host.Selected()) {
		return
	}
	c.hist.Push(c.snapshot(before))
}

// UndoSelection restores the previous selection.
func (c *Controller) UndoSelection() bool {
	prev, ok := c.hist.Undo(c.snapshot(c.Host.Selected()))
	return ok && c.restore(prev)
}

// RedoSelection reapplies a selection removed by UndoSelection.
func (c *Controller) RedoSelection() bool {
	next, ok := c.hist.Redo(c.snapshot(c.Host.Selected()))
	return ok && c.restore(next)
}

func (c *Controller) historyKey() string { return c.Host.Deck().Name }

func (c *Controller) snapshot(refs []domain.Ref) undo.Snapshot {
	blob, err := json.Marshal(refs)
	if err != nil {
		c.log.Warn("selection not recorded", slog.Any("err", err))
	}
	return undo.Snapshot{Key: c.historyKey(), Blob: blob, TS: c.now()}
}

func (c *Controller) restore(s undo.Snapshot) bool {
	var refs []domain.Ref
	if err := json.Unmarshal(s.Blob, &refs); err != nil {
		c.log.Warn("selection history entry unreadable", slog.Any("err", err))
		return false
	}
	c.Host.SetSelected(refs)
	return true
}

// FitDeck zooms so the whole deck is visible, within the scale limits.
func (c *Controller) FitDeck() {
	d := c.Host.Deck()
	ext, ok := d.Extent()
	b := c.Host.Bounds()
	if !ok || b.Empty() {
		return
	}
	const margin = 24
	opts := c.View.Options()
	s := math.Min((b.W-2*margin)/ext.W, (b.H-2*margin)/ext.H)
	s = math.Max(opts.MinScale, math.Min(opts.MaxScale, s))
	center := ext.Center()
	c.View.Engine().SetTransform(s, b.W/2-center.X*s, b.H/2-center.Y*s)
}

// Status is a one-line summary for the status bar.
func (c *Controller) Status() string {
	t := c.View.Transform()
	return fmt.Sprintf("Zoom %d%%  |  %s  |  %d selected", int(math.Round(t.Scale*100)), c.View.State(), len(c.Host.Selected()))
}

// Close detaches the viewport and drops subscriptions.
func (c *Controller) Close() {
	for i := len(c.offs) - 1; i >= 0; i-- {
		c.offs[i]()
	}
	c.offs = nil
	c.View.Detach()
}
