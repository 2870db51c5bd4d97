// Copyright (c) 2019 Perlin
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package matcher

import (
	"context"
	"sync"
	"time"

	"github.com/perlin-network/matcher/conf"
	"github.com/perlin-network/matcher/log"
	"go.uber.org/atomic"
)

type Status int

const (
	Idle Status = iota
	Scheduled
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	default:
		return "unknown"
	}
}

type iteratorConfig struct {
	interval time.Duration
	metrics  *Metrics
}

type IteratorOption func(cfg *iteratorConfig)

// WithInterval sets the pause between the end of one step and the start of
// the next.
func WithInterval(d time.Duration) IteratorOption {
	return func(cfg *iteratorConfig) {
		cfg.interval = d
	}
}

func WithIteratorMetrics(m *Metrics) IteratorOption {
	return func(cfg *iteratorConfig) {
		cfg.metrics = m
	}
}

// Iterator drives iterate one step at a time in the background and hands
// every new state to onUpdate. Steps never overlap.
//
// Every Start opens a new run identified by a generation number, and Stop
// retires it. A step checks its generation before it runs and again before
// it schedules its successor, so a Stop issued while a step is executing
// still prevents the next one.
type Iterator[S any] struct {
	iteratorConfig

	iterate  func(S) S
	onUpdate func(S)
	done     func(S) bool

	mu    sync.Mutex
	state S
	timer *time.Timer
	idle  chan struct{}

	running sync.Mutex

	scheduled  atomic.Bool
	generation atomic.Uint64
	steps      atomic.Uint64
}

func NewIterator[S any](iterate func(S) S, init S, onUpdate func(S), opts ...IteratorOption) *Iterator[S] {
	it := &Iterator[S]{
		iteratorConfig: iteratorConfig{interval: conf.GetStepInterval()},

		iterate:  iterate,
		onUpdate: onUpdate,

		state: init,
		idle:  make(chan struct{}),
	}
	close(it.idle)

	for _, opt := range opts {
		opt(&it.iteratorConfig)
	}

	return it
}

// DoneWhen makes the iterator return to Idle by itself once a step produces
// a state satisfying fn.
func (it *Iterator[S]) DoneWhen(fn func(S) bool) *Iterator[S] {
	it.mu.Lock()
	it.done = fn
	it.mu.Unlock()

	return it
}

func (it *Iterator[S]) Start() {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.scheduled.Load() {
		return
	}

	it.scheduled.Store(true)
	it.idle = make(chan struct{})

	it.schedule(it.generation.Inc())
}

func (it *Iterator[S]) Stop() {
	it.mu.Lock()
	defer it.mu.Unlock()

	if !it.scheduled.Load() {
		return
	}

	if it.timer != nil {
		it.timer.Stop()
		it.timer = nil
	}

	it.finish()
}

// finish must be called with mu held.
func (it *Iterator[S]) finish() {
	it.generation.Inc()
	it.scheduled.Store(false)
	close(it.idle)
}

// schedule must be called with mu held.
func (it *Iterator[S]) schedule(gen uint64) {
	it.timer = time.AfterFunc(it.interval, func() {
		it.step(gen)
	})
}

func (it *Iterator[S]) cancelled(gen uint64) bool {
	return it.generation.Load() != gen
}

func (it *Iterator[S]) step(gen uint64) {
	it.running.Lock()
	defer it.running.Unlock()

	if it.cancelled(gen) {
		return
	}

	it.mu.Lock()
	state := it.state
	it.mu.Unlock()

	start := time.Now()
	next := it.iterate(state)
	elapsed := time.Since(start)

	it.mu.Lock()
	it.state = next
	done := it.done
	it.mu.Unlock()

	logger := log.Iterator("step")
	log.Debug(&logger, &log.StepCompleted{Step: it.steps.Inc(), Elapsed: elapsed})
	it.metrics.markStep(elapsed)

	if it.onUpdate != nil {
		it.onUpdate(next)
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	if it.cancelled(gen) {
		return
	}

	if done != nil && done(next) {
		it.timer = nil
		it.finish()
		return
	}

	it.schedule(gen)
}

func (it *Iterator[S]) Status() Status {
	if it.scheduled.Load() {
		return Scheduled
	}

	return Idle
}

// State returns the latest state produced by a step, or the initial state.
func (it *Iterator[S]) State() S {
	it.mu.Lock()
	defer it.mu.Unlock()

	return it.state
}

// Steps returns how many steps have completed.
func (it *Iterator[S]) Steps() uint64 {
	return it.steps.Load()
}

// Wait blocks until the iterator is Idle or ctx is done.
func (it *Iterator[S]) Wait(ctx context.Context) error {
	it.mu.Lock()
	idle := it.idle
	it.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
