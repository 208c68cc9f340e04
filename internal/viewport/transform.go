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

	"dragoneye/internal/eventbus"
	"dragoneye/internal/geom"
)

// Transform maps content space to container-local screen space:
// screen = content*Scale + Translate.
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
}

// Identity is the transform at start-up and after ResetView.
func Identity() Transform { return Transform{Scale: 1} }

// ToContent converts a container-local point to content space.
func (t Transform) ToContent(p geom.Point) geom.Point {
	return geom.Point{X: (p.X - t.TranslateX) / t.Scale, Y: (p.Y - t.TranslateY) / t.Scale}
}

// ToScreen converts a content-space point to container-local space.
func (t Transform) ToScreen(p geom.Point) geom.Point {
	return geom.Point{X: p.X*t.Scale + t.TranslateX, Y: p.Y*t.Scale + t.TranslateY}
}

// Affine returns the transform as a matrix, scale applied first.
func (t Transform) Affine() geom.Affine {
	return geom.Translate(t.TranslateX, t.TranslateY).Mul(geom.Scale(t.Scale, t.Scale))
}

// Engine owns the viewport transform. Every mutation publishes a snapshot to
// subscribers synchronously, in call order. It is not safe for concurrent use.
type Engine struct {
	opts Options
	t    Transform
	bus  eventbus.Bus[Transform]
	log  *slog.Logger

	// view reports the container-local visual center; nil while detached.
	view func() (geom.Point, bool)
}

// NewEngine returns an engine at the identity transform.
func NewEngine(opts Options) *Engine {
	opts = opts.normalized()
	e := &Engine{opts: opts, t: Identity(), log: opts.Logger}
	e.bus.Logger = opts.Logger
	return e
}

// Transform returns the current transform.
func (e *Engine) Transform() Transform { return e.t }

// Subscribe registers fn for transform snapshots.
func (e *Engine) Subscribe(fn func(Transform)) (unsubscribe func()) { return e.bus.Subscribe(fn) }

func (e *Engine) clamp(s float64) float64 {
	if s < e.opts.MinScale {
		return e.opts.MinScale
	}
	if s > e.opts.MaxScale {
		return e.opts.MaxScale
	}
	return s
}

func (e *Engine) set(t Transform) {
	e.t = t
	e.bus.Publish(t)
}

// ZoomAtPoint rescales by factor while keeping the content point under
// (x, y) fixed. The point is container-local. It reports whether the
// transform changed; a request that clamps to the current scale is absorbed.
func (e *Engine) ZoomAtPoint(x, y, factor float64) bool {
	if !finite(x, y, factor) || factor <= 0 {
		return false
	}
	cur := e.t
	ns := e.clamp(cur.Scale * factor)
	if ns == cur.Scale {
		return false
	}
	cx := (x - cur.TranslateX) / cur.Scale
	cy := (y - cur.TranslateY) / cur.Scale
	e.set(Transform{Scale: ns, TranslateX: x - cx*ns, TranslateY: y - cy*ns})
	e.log.Debug("zoom", slog.Float64("scale", ns), slog.Float64("x", x), slog.Float64("y", y))
	return true
}

// ZoomIn zooms toward the container center by one step.
func (e *Engine) ZoomIn() bool { return e.zoomCenter(1 + e.opts.ZoomStep) }

// ZoomOut zooms away from the container center by one step.
func (e *Engine) ZoomOut() bool { return e.zoomCenter(1 - e.opts.ZoomStep) }

func (e *Engine) zoomCenter(factor float64) bool {
	if e.view == nil {
		return false
	}
	c, ok := e.view()
	if !ok {
		return false
	}
	return e.ZoomAtPoint(c.X, c.Y, factor)
}

// ResetView returns to the identity transform.
func (e *Engine) ResetView() { e.set(Identity()) }

// SetTransform positions the view absolutely. Scale is clamped, translation
// is taken verbatim. Non-finite input is ignored.
func (e *Engine) SetTransform(scale, tx, ty float64) {
	if !finite(scale, tx, ty) {
		return
	}
	e.set(Transform{Scale: e.clamp(scale), TranslateX: tx, TranslateY: ty})
}

// HandleVerticalPan applies a vertical wheel delta; positive moves content up.
func (e *Engine) HandleVerticalPan(deltaY float64) {
	if !finite(deltaY) {
		return
	}
	t := e.t
	t.TranslateY -= deltaY
	e.set(t)
}

// HandleHorizontalPan applies a horizontal wheel delta; positive moves content left.
func (e *Engine) HandleHorizontalPan(deltaX float64) {
	if !finite(deltaX) {
		return
	}
	t := e.t
	t.TranslateX -= deltaX
	e.set(t)
}

// PanBy translates by a raw screen-space delta, independent of scale.
func (e *Engine) PanBy(dx, dy float64) {
	if !finite(dx, dy) {
		return
	}
	t := e.t
	t.TranslateX += dx
	t.TranslateY += dy
	e.set(t)
}
