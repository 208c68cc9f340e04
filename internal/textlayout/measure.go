/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and line-breaks card text.
// Measurement sits behind the Measurer interface so the same wrapping code
// serves the PDF exporter (gofpdf string widths) and the canvas (x/image faces).
package textlayout

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Measurer reports text advance widths and the line height in one unit
// (pixels for faces, user units for PDF).
type Measurer interface {
	Width(s string) float64
	LineHeight() float64
}

// FaceMeasurer measures with a font.Face. Kerning is applied by font.MeasureString.
type FaceMeasurer struct {
	Face font.Face
}

func (m FaceMeasurer) Width(s string) float64 {
	return fromFixed(font.MeasureString(m.Face, s))
}

func (m FaceMeasurer) LineHeight() float64 {
	return fromFixed(m.Face.Metrics().Height)
}

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }

// Basic measures with basicfont.Face7x13: every rune is 7px wide, lines are 13px.
// It is deterministic and used in tests.
func Basic() FaceMeasurer { return FaceMeasurer{Face: basicfont.Face7x13} }

// GoRegular returns a measurer over the embedded Go Regular font at sizePt (72 DPI).
func GoRegular(sizePt float64) (FaceMeasurer, error) {
	return parseFace(goregular.TTF, "goregular", sizePt)
}

// LoadFace reads an OpenType/TrueType font file and returns a measurer at sizePt.
func LoadFace(path string, sizePt float64) (FaceMeasurer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FaceMeasurer{}, fmt.Errorf("read font %s: %w", path, err)
	}
	return parseFace(data, path, sizePt)
}

func parseFace(data []byte, name string, sizePt float64) (FaceMeasurer, error) {
	if sizePt <= 0 {
		sizePt = 12
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return FaceMeasurer{}, fmt.Errorf("parse font %s: %w", name, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: sizePt, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return FaceMeasurer{}, fmt.Errorf("face %s: %w", name, err)
	}
	return FaceMeasurer{Face: face}, nil
}

type funcMeasurer struct {
	width  func(string) float64
	height float64
}

func (m funcMeasurer) Width(s string) float64 { return m.width(s) }
func (m funcMeasurer) LineHeight() float64    { return m.height }

// MeasurerFunc adapts a width function and fixed line height, e.g. a PDF
// document's GetStringWidth.
func MeasurerFunc(width func(string) float64, lineHeight float64) Measurer {
	return funcMeasurer{width: width, height: lineHeight}
}
