/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dragoneye/internal/geom"
	applog "dragoneye/internal/log"
)

func TestZoomOutStopsAtMinScale(t *testing.T) {
	v, _, _, rec := newTestViewport(geom.R(0, 0, 800, 600))

	calls := 0
	for v.ZoomOut() {
		calls++
		require.Less(t, calls, 100, "zoom out never reached the lower bound")
	}
	assert.Equal(t, DefaultMinScale, v.Transform().Scale)
	published := len(rec.transforms)
	assert.Equal(t, calls, published)

	for i := 0; i < 10; i++ {
		assert.False(t, v.ZoomOut())
	}
	assert.Len(t, rec.transforms, published, "no events once clamped")
}

func TestZoomInUsesContainerCenter(t *testing.T) {
	v, _, _, _ := newTestViewport(geom.R(100, 50, 800, 600))
	c := geom.Pt(400, 300)
	before := v.Transform().ToContent(c)
	require.True(t, v.ZoomIn())
	assert.InDelta(t, 1+DefaultZoomStep, v.Transform().Scale, 1e-12)
	after := v.Transform().ToContent(c)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestZoomWithoutContainerIsNoop(t *testing.T) {
	v := New(Options{Scheduler: &ManualScheduler{}, Logger: applog.Discard()})
	assert.False(t, v.ZoomIn())
	assert.False(t, v.ZoomOut())
	assert.Equal(t, Identity(), v.Transform())
	assert.False(t, v.Attached())

	// the engine works before attach
	v.Engine().PanBy(5, 5)
	assert.Equal(t, 5.0, v.Transform().TranslateX)
}

func TestWheelModes(t *testing.T) {
	v, h, _, rec := newTestViewport(geom.R(100, 100, 800, 600))

	require.True(t, h.scroll(WheelEvent{Position: geom.Pt(150, 150), DeltaY: 40}))
	assert.Equal(t, Transform{Scale: 1, TranslateY: -40}, v.Transform())

	h.scroll(WheelEvent{Position: geom.Pt(150, 150), DeltaX: 3, DeltaY: 25, Shift: true})
	assert.Equal(t, Transform{Scale: 1, TranslateX: -3, TranslateY: -40}, v.Transform())

	h.scroll(WheelEvent{Position: geom.Pt(150, 150), DeltaY: 25, Shift: true})
	assert.Equal(t, -28.0, v.Transform().TranslateX, "shift falls back to deltaY")

	// ctrl zooms in at the cursor, converted to container-local (50, 50)
	local := geom.Pt(50, 50)
	before := v.Transform().ToContent(local)
	h.scroll(WheelEvent{Position: geom.Pt(150, 150), DeltaY: -100, Ctrl: true})
	assert.InDelta(t, 1.1, v.Transform().Scale, 1e-12)
	after := v.Transform().ToContent(local)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	h.scroll(WheelEvent{Position: geom.Pt(150, 150), DeltaY: 100, Meta: true})
	assert.InDelta(t, 1.1*0.9, v.Transform().Scale, 1e-12)

	n := len(rec.transforms)
	h.scroll(WheelEvent{Position: geom.Pt(150, 150), DeltaY: 0, Ctrl: true})
	h.scroll(WheelEvent{Position: geom.Pt(150, 150), DeltaY: math.NaN()})
	assert.Len(t, rec.transforms, n)
}

func TestFramePainterCollapsesMutations(t *testing.T) {
	v, h, sched, _ := newTestViewport(geom.R(0, 0, 800, 600))
	sched.Advance(DefaultFrameInterval)
	require.Len(t, h.applied, 1, "attach paints the current transform once")
	assert.Equal(t, Identity(), h.applied[0])

	v.Engine().PanBy(1, 0)
	v.Engine().PanBy(1, 0)
	v.Engine().ZoomAtPoint(0, 0, 2)
	assert.Len(t, h.applied, 1, "nothing painted before the frame elapses")
	sched.Advance(DefaultFrameInterval - time.Millisecond)
	assert.Len(t, h.applied, 1)
	sched.Advance(time.Millisecond)
	require.Len(t, h.applied, 2)
	assert.Equal(t, v.Transform(), h.applied[1])

	sched.Advance(time.Second)
	assert.Len(t, h.applied, 2, "no paint without mutation")

	v.Engine().PanBy(0, 3)
	sched.Advance(DefaultFrameInterval)
	assert.Len(t, h.applied, 3)
}

func TestDetachRemovesEverything(t *testing.T) {
	v, h, sched, rec := newTestViewport(geom.R(0, 0, 800, 600))
	h.down(0, 0, ButtonMiddle, TargetBackground)
	require.Equal(t, 6, h.listeners())
	ran := false
	v.After(100*time.Millisecond, func() { ran = true })
	v.Engine().PanBy(1, 1)

	v.Detach()
	assert.Equal(t, 0, h.listeners())
	assert.False(t, h.captured[1])
	assert.Equal(t, Idle, v.State())
	assert.Equal(t, 0, sched.Pending())
	sched.Advance(time.Second)
	assert.False(t, ran)
	assert.Empty(t, h.applied)
	assert.Empty(t, rec.selects, "detach does not emit selection events")

	// events after detach reach nobody
	assert.False(t, h.down(0, 0, ButtonPrimary, TargetBackground))
	v.Detach()
}

func TestAttachDetachesPrevious(t *testing.T) {
	v, first, _, rec := newTestViewport(geom.R(0, 0, 800, 600))
	first.down(0, 0, ButtonPrimary, TargetBackground)
	first.move(30, 30)
	require.Equal(t, 5, first.listeners())

	second := newFakeHost(geom.R(0, 0, 400, 300))
	v.Attach(second, second)
	assert.Equal(t, 0, first.listeners())
	assert.Equal(t, 2, second.listeners())
	assert.Equal(t, Idle, v.State())

	first.up(30, 30)
	assert.Equal(t, []SelectPhase{SelectStart}, rec.phases())

	second.down(0, 0, ButtonPrimary, TargetBackground)
	second.up(0, 0)
	assert.Equal(t, []SelectPhase{SelectStart, SelectClear}, rec.phases())

	// reattach many times without leaking
	for i := 0; i < 5; i++ {
		v.Attach(first, nil)
	}
	assert.Equal(t, 2, first.listeners())
	assert.Equal(t, 0, second.listeners())
}

func TestAfterRunsOnceAndCanBeCancelled(t *testing.T) {
	v, _, sched, _ := newTestViewport(geom.R(0, 0, 800, 600))
	var order []string
	v.After(20*time.Millisecond, func() { order = append(order, "b") })
	v.After(10*time.Millisecond, func() { order = append(order, "a") })
	cancel := v.After(15*time.Millisecond, func() { order = append(order, "x") })
	cancel()
	cancel()
	sched.Advance(50 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)
	sched.Advance(time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	v, _, _, _ := newTestViewport(geom.R(0, 0, 800, 600))
	n := 0
	off := v.SubscribeTransform(func(Transform) { n++ })
	v.ResetView()
	off()
	v.ResetView()
	assert.Equal(t, 1, n)
}

func TestOrderingAcrossStreams(t *testing.T) {
	v, h, _, _ := newTestViewport(geom.R(0, 0, 800, 600))
	var log []string
	v.SubscribeTransform(func(Transform) { log = append(log, "t") })
	v.SubscribeSelection(func(ev SelectEvent) { log = append(log, ev.Phase.String()) })

	h.down(0, 0, ButtonMiddle, TargetBackground)
	h.move(5, 5)
	h.up(5, 5)
	h.down(0, 0, ButtonPrimary, TargetBackground)
	h.move(20, 20)
	h.scroll(WheelEvent{DeltaY: 1})
	h.move(30, 30)
	h.up(30, 30)
	assert.Equal(t, []string{"t", "start", "t", "update", "end"}, log)
}
