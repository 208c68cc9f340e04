/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "dragoneye/internal/geom"

// This file defines the deck model edited on the card canvas. It serializes
// to JSON, YAML and TOML with the same field names.

// Default card size in content units, used when a card has no explicit size.
const (
	DefaultCardWidth  = 180.0
	DefaultCardHeight = 250.0

	// auto layout spacing for cards without a position
	layoutGap       = 24.0
	layoutGroupGap  = 64.0
	layoutHeaderPad = 32.0
)

// Deck is the document: named groups of cards.
type Deck struct {
	Name    string  `json:"name" yaml:"name" toml:"name"`
	Version int     `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Groups  []Group `json:"groups" yaml:"groups" toml:"groups"`
}

// Group is an ordered collection of cards, e.g. a faction or a booster slot.
type Group struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Cards []Card `json:"cards" yaml:"cards" toml:"cards"`
}

// Card is a single card with its placement on the canvas.
type Card struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Title    string   `json:"title" yaml:"title" toml:"title"`
	Kind     string   `json:"kind" yaml:"kind" toml:"kind"` // unit, spell, item, terrain, hero
	Cost     int      `json:"cost" yaml:"cost" toml:"cost"`
	Text     string   `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
	Position *Point   `json:"position,omitempty" yaml:"position,omitempty" toml:"position,omitempty"`
	Size     *Size    `json:"size,omitempty" yaml:"size,omitempty" toml:"size,omitempty"`
}

// Point is a content-space position.
type Point struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
}

// Size is a width/height pair in content units.
type Size struct {
	W float64 `json:"w" yaml:"w" toml:"w"`
	H float64 `json:"h" yaml:"h" toml:"h"`
}

// Ref addresses a card by group and index within the group.
type Ref struct {
	Group int
	Card  int
}

// Placed is a card together with its content-space rectangle.
type Placed struct {
	Ref    Ref
	Card   *Card
	Bounds geom.Rect
}

// Card returns the card at ref, or false if ref is out of range.
func (d *Deck) Card(ref Ref) (*Card, bool) {
	if ref.Group < 0 || ref.Group >= len(d.Groups) {
		return nil, false
	}
	g := &d.Groups[ref.Group]
	if ref.Card < 0 || ref.Card >= len(g.Cards) {
		return nil, false
	}
	return &g.Cards[ref.Card], true
}

// Dimensions returns the explicit size or the default card size.
func (c Card) Dimensions() (w, h float64) {
	if c.Size != nil && c.Size.W > 0 && c.Size.H > 0 {
		return c.Size.W, c.Size.H
	}
	return DefaultCardWidth, DefaultCardHeight
}

// Bounds returns the card rectangle at its explicit position, or at the
// origin when it has none.
func (c Card) Bounds() geom.Rect {
	w, h := c.Dimensions()
	if c.Position == nil {
		return geom.R(0, 0, w, h)
	}
	return geom.R(c.Position.X, c.Position.Y, w, h)
}

// Layout places every card in content space. Cards with a position keep it;
// the others are laid out in one row per group, left to right.
func (d *Deck) Layout() []Placed {
	var out []Placed
	y := 0.0
	for gi := range d.Groups {
		g := &d.Groups[gi]
		x := 0.0
		rowH := 0.0
		for ci := range g.Cards {
			c := &g.Cards[ci]
			b := c.Bounds()
			if c.Position == nil {
				b = geom.R(x, y+layoutHeaderPad, b.W, b.H)
				x += b.W + layoutGap
				rowH = max(rowH, b.H)
			}
			out = append(out, Placed{Ref: Ref{Group: gi, Card: ci}, Card: c, Bounds: b})
		}
		if rowH == 0 {
			rowH = DefaultCardHeight
		}
		y += layoutHeaderPad + rowH + layoutGroupGap
	}
	return out
}

// Extent returns the union of all laid out card rectangles.
func (d *Deck) Extent() (geom.Rect, bool) {
	placed := d.Layout()
	if len(placed) == 0 {
		return geom.Rect{}, false
	}
	r := placed[0].Bounds
	for _, p := range placed[1:] {
		r = r.Union(p.Bounds)
	}
	return r, true
}

// CardCount returns the number of cards across all groups.
func (d *Deck) CardCount() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Cards)
	}
	return n
}
