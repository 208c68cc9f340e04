//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests exercise the Fyne card canvas. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"dragoneye/internal/domain"
	"dragoneye/internal/viewport"
)

func almostEqual(a, b, eps float32) bool {
	if a > b {
		return a-b <= eps
	}
	return b-a <= eps
}

func newTestCanvas(t *testing.T) (*CardCanvas, *cardCanvasRenderer, *viewport.ManualScheduler) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	sched := &viewport.ManualScheduler{}
	ctrl := NewController(domain.Deck{Name: "t", Groups: []domain.Group{{Name: "g", Cards: []domain.Card{
		{ID: "a", Title: "Alpha"}, {ID: "b", Title: "Beta"},
	}}}}, viewport.Options{Scheduler: sched})
	t.Cleanup(ctrl.Close)
	cv := NewCardCanvas(ctrl)
	r, ok := cv.CreateRenderer().(*cardCanvasRenderer)
	if !ok {
		t.Fatalf("expected cardCanvasRenderer, got %T", cv.CreateRenderer())
	}
	cv.Resize(fyne.NewSize(800, 600))
	return cv, r, sched
}

func TestCardCanvas_LayoutFollowsTransform(t *testing.T) {
	cv, r, sched := newTestCanvas(t)
	if len(r.cards) != 2 {
		t.Fatalf("expected 2 card objects, got %d", len(r.cards))
	}
	r.Layout(fyne.NewSize(800, 600))
	first := cv.ctrl.Host.Placed()[0].Bounds
	if !almostEqual(r.cards[0].Position().X, float32(first.X), 0.01) || !almostEqual(r.cards[0].Size().Width, float32(first.W), 0.01) {
		t.Fatalf("identity layout mismatch: pos=%v size=%v want %v", r.cards[0].Position(), r.cards[0].Size(), first)
	}

	cv.ctrl.View.Engine().SetTransform(2, 10, 20)
	sched.Advance(time.Second)
	r.Layout(fyne.NewSize(800, 600))
	if !almostEqual(r.cards[0].Position().X, float32(first.X*2+10), 0.01) || !almostEqual(r.cards[0].Size().Width, float32(first.W*2), 0.01) {
		t.Fatalf("scaled layout mismatch: pos=%v size=%v", r.cards[0].Position(), r.cards[0].Size())
	}
	if r.titles[0].Text != "Alpha" {
		t.Fatalf("title = %q", r.titles[0].Text)
	}
}

func TestCardCanvas_SelectionHighlight(t *testing.T) {
	cv, r, _ := newTestCanvas(t)
	cv.ctrl.Host.SetSelected([]domain.Ref{{Group: 0, Card: 1}})
	r.Layout(fyne.NewSize(800, 600))
	if r.cards[1].FillColor != colSelected || r.cards[0].FillColor != colCard {
		t.Fatalf("unexpected fills: %v %v", r.cards[0].FillColor, r.cards[1].FillColor)
	}
	if r.band.Visible() {
		t.Fatalf("band should be hidden without a box selection")
	}
}

func TestCardCanvas_RebuildOnDeckChange(t *testing.T) {
	cv, r, _ := newTestCanvas(t)
	cv.ctrl.Host.SetDeck(domain.Deck{Name: "one", Groups: []domain.Group{{Cards: []domain.Card{{ID: "x", Title: "X"}}}}})
	r.Refresh()
	if len(r.cards) != 1 || len(r.Objects()) != 4 {
		t.Fatalf("expected 1 card and 4 objects, got %d / %d", len(r.cards), len(r.Objects()))
	}
}

func TestThemeFor(t *testing.T) {
	if _, ok := themeFor("system"); ok {
		t.Fatalf("system theme should keep the fyne default")
	}
	if _, ok := themeFor("dark"); !ok {
		t.Fatalf("dark theme expected")
	}
}
