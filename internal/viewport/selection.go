/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import "dragoneye/internal/geom"

// SelectionBox is the rubber band of a background drag in screen
// coordinates. Active turns true once the drag passed the threshold.
type SelectionBox struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
	Active bool    `json:"active"`
}

// Rect returns the normalized rectangle between start and end.
func (b SelectionBox) Rect() geom.Rect {
	return geom.RectFromPoints(geom.Pt(b.StartX, b.StartY), geom.Pt(b.EndX, b.EndY))
}

// SelectPhase tags a SelectEvent.
type SelectPhase int

const (
	SelectStart SelectPhase = iota
	SelectUpdate
	SelectEnd
	SelectClear
)

func (p SelectPhase) String() string {
	switch p {
	case SelectStart:
		return "start"
	case SelectUpdate:
		return "update"
	case SelectEnd:
		return "end"
	case SelectClear:
		return "clear"
	default:
		return "unknown"
	}
}

// MarshalText lets phases appear by name in JSON output.
func (p SelectPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// CardRef identifies a card by group and position within the group.
// The viewport never dereferences it.
type CardRef struct {
	GroupIndex int `json:"groupIndex"`
	CardIndex  int `json:"cardIndex"`
}

// SelectEvent is published on the selection stream. Box is the current
// rubber band; Selected is only set for SelectEnd and may be empty.
type SelectEvent struct {
	Phase    SelectPhase  `json:"phase"`
	Box      SelectionBox `json:"box"`
	Selected []CardRef    `json:"selected,omitempty"`
}

// Candidate is a selectable element as reported by the host: its bounds in
// screen coordinates and its identity. A nil Ref is treated as {0, 0}.
type Candidate struct {
	Bounds geom.Rect
	Ref    *CardRef
}

// Contained returns the refs of all candidates lying fully inside box,
// edges included. Both box and candidate bounds are converted to the
// container-local space of origin before comparing. Partial overlap does not
// select. Candidates with non-finite bounds are skipped.
func Contained(box geom.Rect, origin geom.Point, cands []Candidate) []CardRef {
	local := box.Offset(-origin.X, -origin.Y)
	out := make([]CardRef, 0, len(cands))
	for _, c := range cands {
		b := c.Bounds
		if !finite(b.X, b.Y, b.W, b.H) {
			continue
		}
		if !local.ContainsRect(b.Offset(-origin.X, -origin.Y)) {
			continue
		}
		var ref CardRef
		if c.Ref != nil {
			ref = *c.Ref
		}
		out = append(out, ref)
	}
	return out
}
