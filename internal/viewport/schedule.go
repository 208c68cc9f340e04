/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler runs fn once after delay. The returned cancel prevents a task
// that has not started yet from running; it is safe to call more than once.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) (cancel func())
}

// TimerScheduler schedules with time.AfterFunc. Viewport state belongs to
// the input goroutine, so fired tasks never run on the timer goroutine:
// they are handed to Dispatch when it is set (fyne.Do for the desktop host)
// and queued otherwise. Queued tasks run from RunQueued, which the owner
// calls on the input goroutine whenever Ready fires.
type TimerScheduler struct {
	Dispatch func(func())

	mu    sync.Mutex
	queue []func()
	ready chan struct{}
}

func (s *TimerScheduler) Schedule(delay time.Duration, fn func()) func() {
	var cancelled atomic.Bool
	run := func() {
		if !cancelled.Load() {
			fn()
		}
	}
	t := time.AfterFunc(delay, func() {
		if s.Dispatch != nil {
			s.Dispatch(run)
			return
		}
		s.enqueue(run)
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

func (s *TimerScheduler) enqueue(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	ready := s.readyLocked()
	s.mu.Unlock()
	select {
	case ready <- struct{}{}:
	default:
	}
}

func (s *TimerScheduler) readyLocked() chan struct{} {
	if s.ready == nil {
		s.ready = make(chan struct{}, 1)
	}
	return s.ready
}

// Ready receives a value when queued tasks are waiting for RunQueued.
func (s *TimerScheduler) Ready() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyLocked()
}

// RunQueued runs the tasks that fired since the last call, in firing order,
// and returns how many ran. Tasks cancelled after firing are skipped.
func (s *TimerScheduler) RunQueued() int {
	s.mu.Lock()
	q := s.queue
	s.queue = nil
	s.mu.Unlock()
	for _, fn := range q {
		fn()
	}
	return len(q)
}

// ManualScheduler is a virtual clock. Tasks only run from Advance, which
// makes frame pacing deterministic for tests and headless replay.
type ManualScheduler struct {
	now   time.Duration
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	due  time.Duration
	seq  uint64
	fn   func()
	dead bool
}

func (m *ManualScheduler) Schedule(delay time.Duration, fn func()) func() {
	if delay < 0 {
		delay = 0
	}
	m.seq++
	t := &manualTask{due: m.now + delay, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return func() { t.dead = true }
}

// Now returns the virtual time elapsed so far.
func (m *ManualScheduler) Now() time.Duration { return m.now }

// Pending returns the number of tasks that are scheduled and not cancelled.
func (m *ManualScheduler) Pending() int {
	n := 0
	for _, t := range m.tasks {
		if !t.dead {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d and runs every task that becomes due,
// in due-time order. Tasks scheduled by running tasks are honoured if they
// fall inside the window. It returns the number of tasks run.
func (m *ManualScheduler) Advance(d time.Duration) int {
	target := m.now + d
	ran := 0
	for {
		next := m.popDue(target)
		if next == nil {
			break
		}
		m.now = next.due
		next.fn()
		ran++
	}
	m.now = target
	return ran
}

func (m *ManualScheduler) popDue(target time.Duration) *manualTask {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.dead {
			live = append(live, t)
		}
	}
	m.tasks = live
	if len(m.tasks) == 0 {
		return nil
	}
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due != m.tasks[j].due {
			return m.tasks[i].due < m.tasks[j].due
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})
	first := m.tasks[0]
	if first.due > target {
		return nil
	}
	m.tasks = m.tasks[1:]
	first.dead = true
	return first
}

// taskSet tracks the deferred work of one viewport lifetime so that all of
// it can be cancelled at once.
type taskSet struct {
	mu    sync.Mutex
	sched Scheduler
	next  uint64
	live  map[uint64]func()
}

func newTaskSet(s Scheduler) *taskSet {
	return &taskSet{sched: s, live: make(map[uint64]func())}
}

func (ts *taskSet) schedule(delay time.Duration, fn func()) (cancel func()) {
	ts.mu.Lock()
	ts.next++
	id := ts.next
	// registered before scheduling so a task firing early still finds itself
	ts.live[id] = func() {}
	ts.mu.Unlock()

	c := ts.sched.Schedule(delay, func() {
		ts.mu.Lock()
		_, ok := ts.live[id]
		delete(ts.live, id)
		ts.mu.Unlock()
		if ok {
			fn()
		}
	})

	ts.mu.Lock()
	if _, ok := ts.live[id]; ok {
		ts.live[id] = c
	}
	ts.mu.Unlock()
	return func() {
		ts.mu.Lock()
		c, ok := ts.live[id]
		delete(ts.live, id)
		ts.mu.Unlock()
		if ok {
			c()
		}
	}
}

func (ts *taskSet) pending() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.live)
}

func (ts *taskSet) cancelAll() {
	ts.mu.Lock()
	live := ts.live
	ts.live = make(map[uint64]func())
	ts.mu.Unlock()
	for _, c := range live {
		c()
	}
}

// framePainter applies the latest transform to the surface at most once per
// frame interval. Requests within one frame collapse into a single paint.
type framePainter struct {
	tasks    *taskSet
	interval time.Duration
	apply    func(Transform)

	latest  Transform
	pending bool
	paints  int
}

func (p *framePainter) request(t Transform) {
	p.latest = t
	if p.pending {
		return
	}
	p.pending = true
	p.tasks.schedule(p.interval, p.flush)
}

func (p *framePainter) flush() {
	p.pending = false
	p.paints++
	if p.apply != nil {
		p.apply(p.latest)
	}
}

// reset forgets a pending frame after its task was cancelled.
func (p *framePainter) reset() { p.pending = false }
