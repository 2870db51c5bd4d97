package matcher

import (
	"math"
	"sync"
	"time"

	"github.com/perlin-network/matcher/conf"
	"github.com/perlin-network/matcher/log"
	"github.com/pkg/errors"
)

// Optimizable describes a search space. Iter returns a random neighbour of a
// state, and Evaluate(a, b) is positive when b is strictly better than a.
// Neither may modify the states given to them: the optimizer shares one parent
// state between all of its sampled neighbours.
type Optimizable[S any, In any] interface {
	Iter(state S) S
	Evaluate(a, b S) int
	InitialStateFromInput(input In) (S, error)
}

type options struct {
	workers    int
	depthLimit int
	metrics    *Metrics
}

type Option func(o *options)

// WithWorkers searches the subtrees below the root of every search tree on n
// goroutines.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithDepthLimit stops progressive deepening at depth n. 0 lets the depth grow
// without bound.
func WithDepthLimit(n int) Option {
	return func(o *options) {
		o.depthLimit = n
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Optimizer is a randomized tree search wrapped in an adaptive refinement
// loop. Each round samples breadth neighbours per level down to maxDepth and
// keeps the best leaf if it beats the current state. The search only deepens
// after a round that improved.
type Optimizer[S any, In any] struct {
	space   Optimizable[S, In]
	report  func(S)
	ready   func(S) bool
	breadth int

	options
	pool *WorkerPool
}

func NewOptimizer[S any, In any](space Optimizable[S, In], report func(S), ready func(S) bool, breadth int, opts ...Option) (*Optimizer[S, In], error) {
	if breadth < 1 {
		return nil, errors.Wrapf(ErrInvalidBreadth, "got %d", breadth)
	}

	if report == nil {
		report = func(S) {}
	}

	if ready == nil {
		ready = func(S) bool { return false }
	}

	o := &Optimizer[S, In]{
		space:   space,
		report:  report,
		ready:   ready,
		breadth: breadth,
		options: options{
			workers:    conf.GetWorkers(),
			depthLimit: conf.GetDepthLimit(),
		},
	}

	for _, opt := range opts {
		opt(&o.options)
	}

	if o.workers > 1 {
		o.pool = NewWorkerPool()
		o.pool.Start(o.workers)
	}

	return o, nil
}

// Close releases the worker pool, if any.
func (o *Optimizer[S, In]) Close() {
	if o.pool != nil {
		o.pool.Stop()
	}
}

// pickBest keeps the earliest state among equally good ones.
func (o *Optimizer[S, In]) pickBest(states []S) S {
	best := states[0]
	for _, state := range states[1:] {
		if o.space.Evaluate(best, state) > 0 {
			best = state
		}
	}

	return best
}

// Tree samples breadth neighbours of state, searches below each of them and
// returns the best leaf. At depth >= maxDepth, state itself is the leaf.
func (o *Optimizer[S, In]) Tree(depth, maxDepth int, state S) S {
	if depth >= maxDepth {
		return state
	}

	if depth == 0 && o.pool != nil {
		return o.fanOut(maxDepth, state)
	}

	tries := make([]S, o.breadth)
	for i := range tries {
		tries[i] = o.Tree(depth+1, maxDepth, o.space.Iter(state))
	}

	return o.pickBest(tries)
}

// fanOut samples the first level on the calling goroutine and hands each
// subtree to the pool. Results are compared in sampling order so ties break
// the same way as in a sequential search.
func (o *Optimizer[S, In]) fanOut(maxDepth int, state S) S {
	tries := make([]S, o.breadth)
	for i := range tries {
		tries[i] = o.space.Iter(state)
	}

	var wg sync.WaitGroup

	for i := range tries {
		i := i

		wg.Add(1)
		job := func() {
			defer wg.Done()
			tries[i] = o.Tree(1, maxDepth, tries[i])
		}

		if err := o.pool.Queue(job); err != nil {
			logger := log.Optimizer()
			log.Error(&logger, err, "Searching a subtree on the calling goroutine.")

			job()
		}
	}

	wg.Wait()

	return o.pickBest(tries)
}

// Loop runs up to timesLeft refinement rounds starting from state.
func (o *Optimizer[S, In]) Loop(timesLeft, maxDepth int, state S) S {
	state, _ = o.loop(timesLeft, maxDepth, state)
	return state
}

func (o *Optimizer[S, In]) loop(timesLeft, maxDepth int, state S) (S, int) {
	logger := log.Optimizer()

	for round := 1; ; round++ {
		o.report(state)

		if o.ready(state) || timesLeft <= 0 {
			return state, maxDepth
		}

		start := time.Now()
		candidate := o.Tree(0, maxDepth, state)
		gain := o.space.Evaluate(state, candidate)

		o.metrics.markRound(leaves(o.breadth, maxDepth), maxDepth, gain > 0, time.Since(start))

		if gain > 0 {
			state = candidate

			if o.depthLimit <= 0 || maxDepth < o.depthLimit {
				maxDepth++
			}

			log.Debug(&logger, &log.SearchImproved{Round: round, Gain: gain, MaxDepth: maxDepth})
		} else {
			log.Debug(&logger, &log.SearchStalled{Round: round, MaxDepth: maxDepth})
		}

		timesLeft--
	}
}

// Stepper returns a function running a single refinement round per call. The
// search depth adapts across calls the same way it does inside Loop.
func (o *Optimizer[S, In]) Stepper(maxDepth int) func(S) S {
	var mu sync.Mutex

	return func(state S) S {
		mu.Lock()
		defer mu.Unlock()

		state, maxDepth = o.loop(1, maxDepth, state)
		return state
	}
}

// Optimize builds the initial state from raw, refines it for up to loopTimes
// rounds and reports the final state once more before returning it.
func Optimize[S any, In any](space Optimizable[S, In], report func(S), ready func(S) bool, breadth, depth, loopTimes int, raw In, opts ...Option) (S, error) {
	var zero S

	o, err := NewOptimizer(space, report, ready, breadth, opts...)
	if err != nil {
		return zero, err
	}
	defer o.Close()

	state, err := space.InitialStateFromInput(raw)
	if err != nil {
		return zero, errors.Wrap(err, "failed to build the initial state")
	}

	optimized := o.Loop(loopTimes, depth, state)
	o.report(optimized)

	return optimized, nil
}

func leaves(breadth, depth int) int64 {
	n := math.Pow(float64(breadth), float64(depth))
	if n >= math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(n)
}
