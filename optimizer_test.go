package matcher

import (
	"bytes"
	"math/rand"
	"sync"
	"testing"

	"github.com/perlin-network/matcher/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scalar is a search space over integers where bigger is better.
type scalar struct {
	mu    sync.Mutex
	iter  func(s int) int
	calls []int
}

func (c *scalar) Iter(s int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.iter(s)
	c.calls = append(c.calls, next)

	return next
}

func (c *scalar) Evaluate(a, b int) int {
	return b - a
}

func (c *scalar) InitialStateFromInput(in int) (int, error) {
	if in < 0 {
		return 0, errors.New("negative input")
	}
	return in, nil
}

func (c *scalar) count(value int) int {
	n := 0
	for _, call := range c.calls {
		if call == value {
			n++
		}
	}
	return n
}

func increment(s int) int { return s + 1 }

func TestNewOptimizerInvalidBreadth(t *testing.T) {
	_, err := NewOptimizer[int, int](&scalar{iter: increment}, nil, nil, 0)
	assert.Equal(t, ErrInvalidBreadth, errors.Cause(err))
}

func TestTreeAtMaxDepthIsNoop(t *testing.T) {
	for breadth := 1; breadth <= 5; breadth++ {
		space := &scalar{iter: increment}

		o, err := NewOptimizer[int, int](space, nil, nil, breadth)
		require.NoError(t, err)

		assert.Equal(t, 17, o.Tree(3, 3, 17))
		assert.Equal(t, 17, o.Tree(0, 0, 17))
		assert.Empty(t, space.calls)
	}
}

func TestTreeSamplesEveryLevel(t *testing.T) {
	space := &scalar{iter: increment}

	o, err := NewOptimizer[int, int](space, nil, nil, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, o.Tree(1, 3, 1))

	assert.Equal(t, 0, space.count(1))
	assert.Equal(t, 3, space.count(2))
	assert.Equal(t, 9, space.count(3))
}

func TestTreePicksBestLeaf(t *testing.T) {
	i := 1
	space := &scalar{iter: func(int) int { i++; return i }}

	o, err := NewOptimizer[int, int](space, nil, nil, 3)
	require.NoError(t, err)

	// 3+9+27 samples numbered 2 through 40.
	assert.Equal(t, 40, o.Tree(0, 3, 1))
	assert.Equal(t, 43, o.Tree(0, 1, 0))
	assert.Equal(t, 43, i)
}

// pair is scored on score alone so ties can be told apart by id.
type pair struct{ score, id int }

type pairs struct {
	iter func(p pair) pair
}

func (p *pairs) Iter(s pair) pair { return p.iter(s) }
func (p *pairs) Evaluate(a, b pair) int { return b.score - a.score }
func (p *pairs) InitialStateFromInput(in pair) (pair, error) { return in, nil }

func TestTreeBreaksTiesTowardFirst(t *testing.T) {
	id := 0
	space := &pairs{iter: func(pair) pair { id++; return pair{score: 1, id: id} }}

	o, err := NewOptimizer[pair, pair](space, nil, nil, 4)
	require.NoError(t, err)

	assert.Equal(t, pair{score: 1, id: 1}, o.Tree(0, 1, pair{}))
}

func TestOptimizePicksHighest(t *testing.T) {
	i := 1
	space := &scalar{iter: func(int) int { i++; return i }}

	output, err := Optimize[int, int](space, nil, nil, 3, 4, 1, i)
	require.NoError(t, err)

	assert.Equal(t, i, output)
}

func TestOptimizeNeverDecreases(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	space := &scalar{iter: func(s int) int { return s + rng.Intn(11) - 5 }}

	var reports []int
	output, err := Optimize[int, int](space, func(s int) { reports = append(reports, s) }, nil, 3, 2, 30, 100, WithDepthLimit(4))
	require.NoError(t, err)

	assert.True(t, output >= 100)
	require.NotEmpty(t, reports)
	for i := 1; i < len(reports); i++ {
		assert.True(t, reports[i] >= reports[i-1], "report %d dropped from %d to %d", i, reports[i-1], reports[i])
	}
	assert.Equal(t, output, reports[len(reports)-1])
	assert.True(t, len(space.calls) <= 30*(3+9+27+81))
}

func TestOptimizeInitialStateError(t *testing.T) {
	_, err := Optimize[int, int](&scalar{iter: increment}, nil, nil, 2, 2, 2, -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "negative input")
}

func TestLoopStopsWhenReady(t *testing.T) {
	space := &scalar{iter: increment}

	var reports []int
	o, err := NewOptimizer[int, int](space, func(s int) { reports = append(reports, s) }, func(s int) bool { return s >= 10 }, 1)
	require.NoError(t, err)

	assert.Equal(t, 10, o.Loop(100, 1, 0))
	assert.Equal(t, 10, reports[len(reports)-1])
}

func TestLoopZeroDepthNeverImproves(t *testing.T) {
	space := &scalar{iter: increment}

	o, err := NewOptimizer[int, int](space, nil, nil, 3)
	require.NoError(t, err)

	state, depth := o.loop(10, 0, 5)
	assert.Equal(t, 5, state)
	assert.Equal(t, 0, depth)
	assert.Empty(t, space.calls)
}

func TestLoopDeepensOnlyAfterImprovement(t *testing.T) {
	improving, err := NewOptimizer[int, int](&scalar{iter: increment}, nil, nil, 1)
	require.NoError(t, err)

	_, depth := improving.loop(3, 1, 0)
	assert.Equal(t, 4, depth)

	stuck, err := NewOptimizer[int, int](&scalar{iter: func(s int) int { return s - 1 }}, nil, nil, 1)
	require.NoError(t, err)

	state, depth := stuck.loop(3, 1, 0)
	assert.Equal(t, 0, state)
	assert.Equal(t, 1, depth)

	capped, err := NewOptimizer[int, int](&scalar{iter: increment}, nil, nil, 1, WithDepthLimit(2))
	require.NoError(t, err)

	_, depth = capped.loop(5, 1, 0)
	assert.Equal(t, 2, depth)
}

func TestStepperCarriesDepth(t *testing.T) {
	space := &scalar{iter: increment}

	o, err := NewOptimizer[int, int](space, nil, nil, 1)
	require.NoError(t, err)

	step := o.Stepper(1)

	state := 0
	for i := 0; i < 3; i++ {
		state = step(state)
	}

	// Depths 1, 2 and 3 were searched in turn.
	assert.Equal(t, 6, state)
	assert.Len(t, space.calls, 6)
}

func TestTreeParallelFanOut(t *testing.T) {
	space := &scalar{iter: increment}

	o, err := NewOptimizer[int, int](space, nil, nil, 3, WithWorkers(4))
	require.NoError(t, err)
	defer o.Close()

	assert.Equal(t, 3, o.Tree(0, 3, 0))
	assert.Len(t, space.calls, 3+9+27)
}

func TestTreeAfterCloseSearchesInline(t *testing.T) {
	var buf bytes.Buffer
	log.SetWriter(t.Name(), &buf)
	defer log.RemoveWriter(t.Name())

	space := &scalar{iter: increment}

	o, err := NewOptimizer[int, int](space, nil, nil, 2, WithWorkers(2))
	require.NoError(t, err)
	o.Close()

	assert.Equal(t, 2, o.Tree(0, 2, 0))
	assert.Len(t, space.calls, 2+4)
	assert.Contains(t, buf.String(), ErrStopped.Error())
}

func TestOptimizeParallelNeverDecreases(t *testing.T) {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(2))

	space := &scalar{iter: func(s int) int {
		mu.Lock()
		defer mu.Unlock()
		return s + rng.Intn(7) - 3
	}}

	var reports []int
	output, err := Optimize[int, int](space, func(s int) { reports = append(reports, s) }, nil, 4, 2, 20, 0, WithWorkers(3), WithDepthLimit(4))
	require.NoError(t, err)

	assert.True(t, output >= 0)
	for i := 1; i < len(reports); i++ {
		assert.True(t, reports[i] >= reports[i-1])
	}
}

func TestLeaves(t *testing.T) {
	assert.EqualValues(t, 1, leaves(5, 0))
	assert.EqualValues(t, 3125, leaves(5, 5))
}
