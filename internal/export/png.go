/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"dragoneye/internal/domain"
	"dragoneye/internal/geom"
	applog "dragoneye/internal/log"
	"dragoneye/internal/textlayout"
)

// PNGOptions controls the overview image.
type PNGOptions struct {
	Width, Height int // pixels; 1280x800 when zero
	// View maps content space to image pixels. Nil fits the whole deck.
	View *geom.Affine
	// Highlight marks cards, e.g. the last box selection.
	Highlight []domain.Ref
	// Selection is drawn as an outline in image space when non-nil.
	Selection *geom.Rect
}

var (
	colBackground = color.RGBA{245, 245, 240, 255}
	colCard       = color.RGBA{255, 255, 255, 255}
	colStroke     = color.RGBA{40, 40, 40, 255}
	colHighlight  = color.RGBA{255, 214, 102, 255}
	colSelection  = color.RGBA{30, 110, 220, 255}
)

const pngMargin = 24.0

// FitView returns the affine that centers ext inside a w x h image with a margin.
func FitView(ext geom.Rect, w, h int) geom.Affine {
	if ext.Empty() {
		return geom.Identity
	}
	s := math.Min((float64(w)-2*pngMargin)/ext.W, (float64(h)-2*pngMargin)/ext.H)
	if s <= 0 || math.IsNaN(s) {
		s = 1
	}
	c := ext.Center()
	return geom.Translate(float64(w)/2, float64(h)/2).Mul(geom.Scale(s, s)).Mul(geom.Translate(-c.X, -c.Y))
}

// RenderPNG draws the laid out deck into a new image.
func RenderPNG(d domain.Deck, opt PNGOptions) *image.RGBA {
	w, h := opt.Width, opt.Height
	if w <= 0 || h <= 0 {
		w, h = 1280, 800
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(colBackground), image.Point{}, draw.Src)

	view := geom.Identity
	if opt.View != nil {
		view = *opt.View
	} else if ext, ok := d.Extent(); ok {
		view = FitView(ext, w, h)
	}
	marked := map[domain.Ref]bool{}
	for _, r := range opt.Highlight {
		marked[r] = true
	}
	m := textlayout.Basic()
	for _, p := range d.Layout() {
		r := view.ApplyRect(p.Bounds)
		ir := toImageRect(r)
		if !ir.Overlaps(img.Bounds()) {
			continue
		}
		fill := colCard
		if marked[p.Ref] {
			fill = colHighlight
		}
		draw.Draw(img, ir, image.NewUniform(fill), image.Point{}, draw.Src)
		strokeRect(img, ir, colStroke)
		if r.W > 16 && r.H > m.LineHeight()+4 {
			title := textlayout.Fit(m, p.Card.Title, r.W-8, 1)
			drawText(img, title[0], ir.Min.X+4, ir.Min.Y+int(m.LineHeight())+2, colStroke)
		}
	}
	if opt.Selection != nil {
		strokeRect(img, toImageRect(*opt.Selection), colSelection)
	}
	return img
}

// ExportPNG renders the deck and writes it to outPath.
func ExportPNG(d domain.Deck, outPath string, opt PNGOptions) error {
	img := RenderPNG(d, opt)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	applog.WithOperation(applog.WithComponent("export"), "png").Info("png exported",
		slog.String("out", outPath), slog.Int("w", img.Bounds().Dx()), slog.Int("h", img.Bounds().Dy()))
	return nil
}

func toImageRect(r geom.Rect) image.Rectangle {
	return image.Rect(int(math.Round(r.X)), int(math.Round(r.Y)), int(math.Round(r.X+r.W)), int(math.Round(r.Y+r.H)))
}

func drawText(img *image.RGBA, s string, x, y int, col color.RGBA) {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: basicfont.Face7x13, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

// strokeRect draws a 1px border just inside r, clipped to the image.
func strokeRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	if r.Empty() {
		return
	}
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}
