//go:build fyne && cgo

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
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"dragoneye/internal/geom"
	"dragoneye/internal/textlayout"
	"dragoneye/internal/viewport"
)

const (
	// mousePointer is the only pointer id a desktop mouse produces.
	mousePointer = 1
	titlePt      = 14.0
)

var (
	colCanvasBG   = color.RGBA{R: 30, G: 30, B: 34, A: 255}
	colCard       = color.RGBA{R: 236, G: 232, B: 222, A: 255}
	colCardStroke = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	colSelected   = color.RGBA{R: 255, G: 214, B: 102, A: 255}
	colBandFill   = color.RGBA{R: 0, G: 170, B: 255, A: 40}
	colBandStroke = color.RGBA{R: 0, G: 170, B: 255, A: 255}
)

// CardCanvas is the fyne widget showing a deck. Input goes to the
// Controller; drawing follows the Host's transform and selection.
type CardCanvas struct {
	widget.BaseWidget
	ctrl *Controller
	last fyne.Position

	// OnChanged runs after every redraw request, e.g. to update a status bar.
	OnChanged func()
}

var (
	_ desktop.Mouseable = (*CardCanvas)(nil)
	_ desktop.Hoverable = (*CardCanvas)(nil)
	_ fyne.Scrollable   = (*CardCanvas)(nil)
)

func NewCardCanvas(ctrl *Controller) *CardCanvas {
	c := &CardCanvas{ctrl: ctrl}
	ctrl.Host.Changed = func() {
		c.Refresh()
		if c.OnChanged != nil {
			c.OnChanged()
		}
	}
	c.ExtendBaseWidget(c)
	return c
}

func (c *CardCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(colCanvasBG)
	band := canvas.NewRectangle(colBandFill)
	band.StrokeColor = colBandStroke
	band.StrokeWidth = 1
	band.Hide()
	r := &cardCanvasRenderer{c: c, bg: bg, band: band, font: textlayout.Basic()}
	// fyne ships Go Regular; its metrics match what the canvas draws.
	if m, err := textlayout.GoRegular(titlePt); err == nil {
		r.font = m
	}
	r.rebuild()
	return r
}

func (c *CardCanvas) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

// syncBounds keeps the host's screen rectangle current; fyne has no
// move notification for nested objects.
func (c *CardCanvas) syncBounds() {
	app := fyne.CurrentApp()
	if app == nil {
		return
	}
	abs := app.Driver().AbsolutePositionForObject(c)
	sz := c.Size()
	c.ctrl.Host.SetBounds(geom.R(float64(abs.X), float64(abs.Y), float64(sz.Width), float64(sz.Height)))
}

func pointFrom(p fyne.Position) geom.Point { return geom.Pt(float64(p.X), float64(p.Y)) }

func buttonFrom(b desktop.MouseButton) (viewport.Button, bool) {
	switch b {
	case desktop.MouseButtonPrimary:
		return viewport.ButtonPrimary, true
	case desktop.MouseButtonTertiary:
		return viewport.ButtonMiddle, true
	case desktop.MouseButtonSecondary:
		return viewport.ButtonSecondary, true
	}
	return 0, false
}

func (c *CardCanvas) pointer(e *desktop.MouseEvent) viewport.PointerEvent {
	b, _ := buttonFrom(e.Button)
	return viewport.PointerEvent{ID: mousePointer, Type: viewport.PointerMouse, Button: b, Position: pointFrom(e.AbsolutePosition)}
}

func (c *CardCanvas) MouseDown(e *desktop.MouseEvent) {
	c.syncBounds()
	c.last = e.AbsolutePosition
	if _, ok := buttonFrom(e.Button); !ok {
		return
	}
	c.ctrl.PointerDown(c.pointer(e))
}

func (c *CardCanvas) MouseUp(e *desktop.MouseEvent) {
	c.last = e.AbsolutePosition
	c.ctrl.PointerUp(c.pointer(e))
	if e.Button == desktop.MouseButtonSecondary {
		c.showContextMenu(e.Position, e.AbsolutePosition)
	}
}

func (c *CardCanvas) MouseIn(*desktop.MouseEvent) {}

func (c *CardCanvas) MouseMoved(e *desktop.MouseEvent) {
	c.last = e.AbsolutePosition
	c.ctrl.PointerMove(c.pointer(e))
}

// MouseOut cancels a gesture unless the pointer is captured, since fyne
// stops delivering moves once the mouse leaves the widget.
func (c *CardCanvas) MouseOut() {
	if c.ctrl.View.State() == viewport.Idle || c.ctrl.Host.Captured(mousePointer) {
		return
	}
	c.ctrl.PointerCancel(viewport.PointerEvent{ID: mousePointer, Type: viewport.PointerMouse, Position: pointFrom(c.last)})
}

func (c *CardCanvas) Scrolled(e *fyne.ScrollEvent) {
	c.syncBounds()
	ev := viewport.WheelEvent{
		Position: pointFrom(e.AbsolutePosition),
		// fyne reports positive DY for scrolling up; the viewport expects the opposite.
		DeltaX: -float64(e.Scrolled.DX),
		DeltaY: -float64(e.Scrolled.DY),
	}
	if d, ok := fyne.CurrentApp().Driver().(desktop.Driver); ok {
		mods := d.CurrentKeyModifiers()
		ev.Ctrl = mods&fyne.KeyModifierControl != 0
		ev.Meta = mods&fyne.KeyModifierSuper != 0
		ev.Shift = mods&fyne.KeyModifierShift != 0
	}
	c.ctrl.Wheel(ev)
}

func (c *CardCanvas) showContextMenu(local, abs fyne.Position) {
	if !c.ctrl.ContextMenu(pointFrom(abs)) {
		return
	}
	cv := fyne.CurrentApp().Driver().CanvasForObject(c)
	if cv == nil {
		return
	}
	var items []*fyne.MenuItem
	for _, it := range c.ctrl.MenuItems() {
		items = append(items, fyne.NewMenuItem(it.Label, it.Action))
	}
	menu := widget.NewPopUpMenu(fyne.NewMenu("", items...), cv)
	menu.ShowAtRelativePosition(local, c)
	// Focus once the popup is on screen so keyboard navigation works.
	c.ctrl.View.After(0, func() { cv.Focus(menu) })
}

type cardCanvasRenderer struct {
	c      *CardCanvas
	bg     *canvas.Rectangle
	band   *canvas.Rectangle
	cards  []*canvas.Rectangle
	titles []*canvas.Text
	objs   []fyne.CanvasObject
	deckN  int
	font   textlayout.Measurer
}

// rebuild recreates card objects when the deck changed size.
func (r *cardCanvasRenderer) rebuild() {
	placed := r.c.ctrl.Host.Placed()
	r.cards = r.cards[:0]
	r.titles = r.titles[:0]
	r.objs = []fyne.CanvasObject{r.bg}
	for range placed {
		rect := canvas.NewRectangle(colCard)
		rect.StrokeColor = colCardStroke
		rect.StrokeWidth = 1
		rect.CornerRadius = 4
		txt := canvas.NewText("", colCardStroke)
		txt.TextStyle = fyne.TextStyle{Bold: true}
		r.cards = append(r.cards, rect)
		r.titles = append(r.titles, txt)
		r.objs = append(r.objs, rect, txt)
	}
	r.objs = append(r.objs, r.band)
	r.deckN = len(placed)
}

func (r *cardCanvasRenderer) Destroy()                     {}
func (r *cardCanvasRenderer) Objects() []fyne.CanvasObject { return r.objs }
func (r *cardCanvasRenderer) MinSize() fyne.Size           { return r.c.MinSize() }

func (r *cardCanvasRenderer) Refresh() {
	if len(r.c.ctrl.Host.Placed()) != r.deckN {
		r.rebuild()
	}
	r.Layout(r.c.Size())
	canvas.Refresh(r.c)
}

// scaledFont measures at titlePt*scale; glyph advances grow linearly.
func (r *cardCanvasRenderer) scaledFont(scale float64) textlayout.Measurer {
	base := r.font
	return textlayout.MeasurerFunc(func(s string) float64 { return base.Width(s) * scale }, base.LineHeight()*scale)
}

func (r *cardCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	r.c.syncBounds()

	h := r.c.ctrl.Host
	t := h.Transform()
	m := t.Affine()
	for i, p := range h.Placed() {
		if i >= len(r.cards) {
			break
		}
		b := m.ApplyRect(p.Bounds)
		rect := r.cards[i]
		rect.Move(fyne.NewPos(float32(b.X), float32(b.Y)))
		rect.Resize(fyne.NewSize(float32(b.W), float32(b.H)))
		if h.IsSelected(p.Ref) {
			rect.FillColor = colSelected
		} else {
			rect.FillColor = colCard
		}

		txt := r.titles[i]
		txt.TextSize = float32(titlePt * t.Scale)
		if txt.TextSize < 6 {
			txt.Hide()
			continue
		}
		txt.Show()
		txt.Text = textlayout.Fit(r.scaledFont(t.Scale), p.Card.Title, b.W-8, 1)[0]
		txt.Move(fyne.NewPos(float32(b.X+4), float32(b.Y+4)))
	}

	if band, ok := h.Band(); ok {
		origin := h.Bounds().Min()
		local := band.Offset(-origin.X, -origin.Y)
		r.band.Move(fyne.NewPos(float32(local.X), float32(local.Y)))
		r.band.Resize(fyne.NewSize(float32(local.W), float32(local.H)))
		r.band.Show()
	} else {
		r.band.Hide()
	}
}
