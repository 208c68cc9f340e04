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
	"math"
	"time"

	applog "dragoneye/internal/log"
)

// Defaults used when an Options field is left zero or is invalid.
const (
	DefaultMinScale           = 0.1
	DefaultMaxScale           = 5.0
	DefaultZoomStep           = 0.1
	DefaultSelectionThreshold = 5.0
	DefaultFrameInterval      = 16 * time.Millisecond
)

// Options tunes a Viewport. The zero value yields the defaults above, a
// TimerScheduler without dispatch and the application logger. Without
// dispatch, frames only reach the surface once the owner calls RunQueued on
// that scheduler.
type Options struct {
	MinScale float64
	MaxScale float64
	// ZoomStep is the relative change per ZoomIn/ZoomOut or wheel notch.
	ZoomStep float64
	// SelectionThreshold is the distance in pixels a background drag must
	// exceed before it becomes a box selection.
	SelectionThreshold float64
	FrameInterval      time.Duration

	Scheduler Scheduler
	Logger    *slog.Logger
}

// DefaultOptions returns Options populated with the package defaults.
func DefaultOptions() Options { return Options{}.normalized() }

func (o Options) normalized() Options {
	if !positive(o.MinScale) {
		o.MinScale = DefaultMinScale
	}
	if !positive(o.MaxScale) {
		o.MaxScale = DefaultMaxScale
	}
	if o.MinScale > o.MaxScale {
		o.MinScale, o.MaxScale = DefaultMinScale, DefaultMaxScale
	}
	// a step of 1 or more would make ZoomOut a non-positive factor
	if !positive(o.ZoomStep) || o.ZoomStep >= 1 {
		o.ZoomStep = DefaultZoomStep
	}
	if !positive(o.SelectionThreshold) {
		o.SelectionThreshold = DefaultSelectionThreshold
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = DefaultFrameInterval
	}
	if o.Scheduler == nil {
		o.Scheduler = &TimerScheduler{}
	}
	if o.Logger == nil {
		o.Logger = applog.WithComponent("viewport")
	}
	return o
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) }

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
