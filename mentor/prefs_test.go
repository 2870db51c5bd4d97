package mentor

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/perlin-network/matcher/conf"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomRequests(rng *rand.Rand, n, maxID int) []Request {
	requests := make([]Request, n)

	for i := range requests {
		ids := rng.Perm(maxID)[:4]
		prefs := make([]int, len(ids))
		for j, id := range ids {
			prefs[j] = id + 1
		}

		requests[i] = Request{Name: fmt.Sprintf("mentee-%d", i), Preferences: prefs}
	}

	return requests
}

func TestInitialStateFromInput(t *testing.T) {
	p := New(WithSeed(1))

	state, err := p.InitialStateFromInput([]Request{
		{Name: "a", Preferences: []int{1, 2}},
		{Name: "b", Preferences: []int{1, 3}},
		{Name: "c", Preferences: []int{4}},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 4}, []int{state.Choices[0].Resource, state.Choices[1].Resource, state.Choices[2].Resource})
	assert.Equal(t, "{1:2, 4:1}", state.Taken.String())
	assert.Equal(t, -1, state.Deficit)
	assert.Equal(t, 42, state.RankScore)
	assert.Equal(t, -1, state.Score)
	assert.NoError(t, Verify(state))
}

func TestInitialStateFromInputFeasible(t *testing.T) {
	state, err := New().InitialStateFromInput([]Request{
		{Name: "a", Preferences: []int{1, 2}},
		{Name: "b", Preferences: []int{2, 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, state.Deficit)
	assert.Equal(t, 28, state.Score)
}

func TestInitialStateFromInputNoPreferences(t *testing.T) {
	_, err := New().InitialStateFromInput([]Request{
		{Name: "a", Preferences: []int{1}},
		{Name: "Bob", Preferences: nil},
	})

	assert.Equal(t, ErrNoPreferences, errors.Cause(err))
	assert.Contains(t, err.Error(), `"Bob"`)
}

func TestPositionalScore(t *testing.T) {
	prefs := []int{7, 3, 9, 1}

	assert.Equal(t, 14, PositionalScore(prefs, 7))
	assert.Equal(t, 13, PositionalScore(prefs, 3))
	assert.Equal(t, 12, PositionalScore(prefs, 9))
	assert.Equal(t, 11, PositionalScore(prefs, 1))
	assert.Panics(t, func() { PositionalScore(prefs, 2) })
}

func TestIterKeepsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := New(WithSeed(7))

	state, err := p.InitialStateFromInput(randomRequests(rng, 20, 39))
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		next := p.Iter(state)

		if !assert.NoError(t, Verify(next)) {
			return
		}

		changed := 0
		for j := range next.Choices {
			if next.Choices[j].Resource != state.Choices[j].Resource {
				changed++
				assert.NotZero(t, Rank(next.Choices[j].Preferences, next.Choices[j].Resource))
			}
			assert.Equal(t, state.Choices[j].Name, next.Choices[j].Name)
		}
		assert.Equal(t, 1, changed)

		state = next
	}
}

func TestIterLeavesParentUntouched(t *testing.T) {
	p := New(WithSeed(3))

	parent, err := p.InitialStateFromInput(randomRequests(rand.New(rand.NewSource(3)), 10, 12))
	require.NoError(t, err)

	before := Pairs(parent)
	taken := parent.Taken.String()

	for i := 0; i < 50; i++ {
		p.Iter(parent)
	}

	assert.Equal(t, before, Pairs(parent))
	assert.Equal(t, taken, parent.Taken.String())
	assert.NoError(t, Verify(parent))
}

func TestIterSinglePreferenceSwitchesToItself(t *testing.T) {
	p := New(WithSeed(5))

	state, err := p.InitialStateFromInput([]Request{{Name: "solo", Preferences: []int{8}}})
	require.NoError(t, err)

	next := p.Iter(state)
	assert.Equal(t, 8, next.Choices[0].Resource)
	assert.Equal(t, state.Score, next.Score)
	assert.Equal(t, "{8:1}", next.Taken.String())
}

func TestIterEmptyState(t *testing.T) {
	p := New()

	state, err := p.InitialStateFromInput(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, p.Iter(state).Score)
}

func TestEvaluateAntisymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	p := New(WithSeed(11))

	state, err := p.InitialStateFromInput(randomRequests(rng, 12, 20))
	require.NoError(t, err)

	states := []State{state}
	for i := 0; i < 40; i++ {
		states = append(states, p.Iter(states[len(states)-1]))
	}

	for _, a := range states {
		for _, b := range states {
			assert.Equal(t, p.Evaluate(a, b), -p.Evaluate(b, a))
		}
		assert.Equal(t, AdjustedScore(a), AdjustedScore(a))
		assert.Zero(t, p.Evaluate(a, a))
	}
}

func TestEvaluatePrefersFeasible(t *testing.T) {
	p := New()

	infeasible, err := p.InitialStateFromInput([]Request{
		{Name: "a", Preferences: []int{1, 2}},
		{Name: "b", Preferences: []int{1, 3}},
	})
	require.NoError(t, err)

	feasible, err := p.InitialStateFromInput([]Request{
		{Name: "a", Preferences: []int{2, 1}},
		{Name: "b", Preferences: []int{1, 3}},
	})
	require.NoError(t, err)

	assert.True(t, p.Evaluate(infeasible, feasible) > 0)
	assert.True(t, p.Evaluate(feasible, infeasible) < 0)
}

func TestReady(t *testing.T) {
	defer conf.Reset()

	p := New()

	state, err := p.InitialStateFromInput([]Request{
		{Name: "a", Preferences: []int{1, 2}},
		{Name: "b", Preferences: []int{2, 3}},
	})
	require.NoError(t, err)
	assert.True(t, Ready(state))

	second := state
	second.Choices = []Assignment{
		{Request: state.Choices[0].Request, Resource: 2},
		{Request: state.Choices[1].Request, Resource: 3},
	}
	assert.Equal(t, 2.0, MeanRank(second))
	assert.False(t, Ready(second))

	conf.Update(conf.WithReadyMeanRank(2.5))
	assert.True(t, Ready(second))

	infeasible, err := p.InitialStateFromInput([]Request{
		{Name: "a", Preferences: []int{1}},
		{Name: "b", Preferences: []int{1}},
	})
	require.NoError(t, err)
	assert.False(t, Ready(infeasible))
}

func TestSummarize(t *testing.T) {
	p := New()

	state, err := p.InitialStateFromInput([]Request{
		{Name: "a", Preferences: []int{1, 2}},
		{Name: "b", Preferences: []int{2, 3}},
	})
	require.NoError(t, err)

	summary := Summarize(state)
	assert.True(t, summary.Feasible)
	assert.Equal(t, []int{2, 0, 0, 0}, summary.Ranks)
	assert.Equal(t, 1.0, summary.MeanRank)

	out := summary.String()
	assert.True(t, strings.HasPrefix(out, "Score: 28.\n1sts: 2.\n2nds: 0.\n3rds: 0.\n4ths: 0.\n"))
	assert.Contains(t, out, "Mean rank: 1.000.")

	failed, err := p.InitialStateFromInput([]Request{
		{Name: "a", Preferences: []int{1}},
		{Name: "b", Preferences: []int{1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Failed. Score: -1.\n", Summarize(failed).String())
}

func TestPairsAndLoad(t *testing.T) {
	state, err := New().InitialStateFromInput([]Request{
		{Name: "a", Preferences: []int{5}},
		{Name: "b", Preferences: []int{5}},
		{Name: "c", Preferences: []int{2}},
		{Name: "d", Preferences: []int{9}},
		{Name: "e", Preferences: []int{9}},
		{Name: "f", Preferences: []int{9}},
	})
	require.NoError(t, err)

	assert.Equal(t, []Pair{{"a", 5}, {"b", 5}, {"c", 2}, {"d", 9}, {"e", 9}, {"f", 9}}, Pairs(state))
	assert.Equal(t, []ResourceLoad{{Resource: 5, Holders: 2}, {Resource: 9, Holders: 3}}, Load(state))
}
