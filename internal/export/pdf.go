/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders decks for print (PDF sheets) and preview (PNG overview).
package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"dragoneye/internal/domain"
	applog "dragoneye/internal/log"
	"dragoneye/internal/textlayout"
)

// Sheet geometry in millimetres. Cards use the common 63x88 poker size.
const (
	SheetWidth  = 210.0
	SheetHeight = 297.0
	CardWidth   = 63.0
	CardHeight  = 88.0
	Columns     = 3
	Rows        = 3
	PerSheet    = Columns * Rows

	cardPad     = 3.0
	guideLength = 5.0
	titleSize   = 10.0
	metaSize    = 7.0
	bodySize    = 7.5
	lineFactor  = 1.25
	ptToMM      = 25.4 / 72
)

// PDFOptions controls print sheet export.
type PDFOptions struct {
	CutGuides bool
	// Groups restricts the export to the named groups. Empty exports all.
	Groups []string
	Author string
}

// slot is a card position on a sheet, top-left corner in mm.
type slot struct {
	Sheet int
	X, Y  float64
}

// cardSlots places n cards row by row, PerSheet per sheet, centered on A4.
func cardSlots(n int) []slot {
	left := (SheetWidth - Columns*CardWidth) / 2
	top := (SheetHeight - Rows*CardHeight) / 2
	out := make([]slot, n)
	for i := range out {
		k := i % PerSheet
		out[i] = slot{
			Sheet: i / PerSheet,
			X:     left + float64(k%Columns)*CardWidth,
			Y:     top + float64(k/Columns)*CardHeight,
		}
	}
	return out
}

func selectCards(d domain.Deck, groups []string) []domain.Card {
	want := map[string]bool{}
	for _, g := range groups {
		want[strings.TrimSpace(g)] = true
	}
	var out []domain.Card
	for _, g := range d.Groups {
		if len(want) > 0 && !want[g.Name] {
			continue
		}
		out = append(out, g.Cards...)
	}
	return out
}

// ExportPDF writes the deck as A4 print sheets to outPath and returns the
// number of sheets written.
func ExportPDF(d domain.Deck, outPath string, opt PDFOptions) (int, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "pdf").With(slog.String("out", outPath))
	pdf, cards, sheets, err := buildPDF(d, opt)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	l.Info("pdf exported", slog.Int("cards", cards), slog.Int("sheets", sheets))
	return sheets, nil
}

// WritePDF is ExportPDF into w.
func WritePDF(d domain.Deck, w io.Writer, opt PDFOptions) (int, error) {
	pdf, _, sheets, err := buildPDF(d, opt)
	if err != nil {
		return 0, err
	}
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	return sheets, nil
}

func buildPDF(d domain.Deck, opt PDFOptions) (pdf *gofpdf.Fpdf, cards, sheets int, err error) {
	selected := selectCards(d, opt.Groups)
	if len(selected) == 0 {
		return nil, 0, 0, fmt.Errorf("deck %q has no cards to export", d.Name)
	}

	pdf = gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(d.Name+" print sheets", true)
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, true)
	}
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	// Core fonts are cp1252; translate UTF-8 before measuring and drawing.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	slots := cardSlots(len(selected))
	sheet := -1
	for i, c := range selected {
		s := slots[i]
		if s.Sheet != sheet {
			pdf.AddPage()
			sheet = s.Sheet
			if opt.CutGuides {
				drawCutGuides(pdf, min(PerSheet, len(selected)-i))
			}
		}
		drawCard(pdf, tr, c, s.X, s.Y)
	}
	if err := pdf.Error(); err != nil {
		return nil, 0, 0, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, len(selected), sheet + 1, nil
}

func drawCard(pdf *gofpdf.Fpdf, tr func(string) string, c domain.Card, x, y float64) {
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.3)
	pdf.Rect(x, y, CardWidth, CardHeight, "D")

	inner := CardWidth - 2*cardPad
	cy := y + cardPad

	pdf.SetFont("Helvetica", "B", titleSize)
	th := titleSize * ptToMM * lineFactor
	title := textlayout.Fit(pdfMeasurer(pdf, th), tr(c.Title), inner, 2)
	for _, line := range title {
		cy += th
		pdf.Text(x+cardPad, cy, line)
	}

	pdf.SetFont("Helvetica", "I", metaSize)
	mh := metaSize * ptToMM * lineFactor
	cy += mh
	pdf.Text(x+cardPad, cy, tr(fmt.Sprintf("%s - cost %d", c.Kind, c.Cost)))
	cy += cardPad / 2
	pdf.Line(x+cardPad, cy, x+CardWidth-cardPad, cy)

	pdf.SetFont("Helvetica", "", bodySize)
	bh := bodySize * ptToMM * lineFactor
	footer := 0.0
	if len(c.Tags) > 0 {
		footer = mh + cardPad
	}
	if maxLines := int((y + CardHeight - cardPad - footer - cy) / bh); maxLines > 0 && c.Text != "" {
		for _, line := range textlayout.Fit(pdfMeasurer(pdf, bh), tr(c.Text), inner, maxLines) {
			cy += bh
			pdf.Text(x+cardPad, cy, line)
		}
	}

	if len(c.Tags) > 0 {
		pdf.SetFont("Helvetica", "I", metaSize)
		tags := textlayout.Fit(pdfMeasurer(pdf, mh), tr(strings.Join(c.Tags, ", ")), inner, 1)
		pdf.Text(x+cardPad, y+CardHeight-cardPad, tags[0])
	}
}

// pdfMeasurer measures with the document's current font.
func pdfMeasurer(pdf *gofpdf.Fpdf, lineHeight float64) textlayout.Measurer {
	return textlayout.MeasurerFunc(pdf.GetStringWidth, lineHeight)
}

// drawCutGuides draws short ticks outside the grid at every card edge.
func drawCutGuides(pdf *gofpdf.Fpdf, n int) {
	if n <= 0 {
		return
	}
	rows := (n + Columns - 1) / Columns
	cols := min(n, Columns)
	left := (SheetWidth - Columns*CardWidth) / 2
	top := (SheetHeight - Rows*CardHeight) / 2
	right := left + float64(cols)*CardWidth
	bottom := top + float64(rows)*CardHeight

	pdf.SetDrawColor(128, 128, 128)
	pdf.SetLineWidth(0.1)
	for c := 0; c <= cols; c++ {
		x := left + float64(c)*CardWidth
		pdf.Line(x, top-1-guideLength, x, top-1)
		pdf.Line(x, bottom+1, x, bottom+1+guideLength)
	}
	for r := 0; r <= rows; r++ {
		y := top + float64(r)*CardHeight
		pdf.Line(left-1-guideLength, y, left-1, y)
		pdf.Line(right+1, y, right+1+guideLength, y)
	}
}
