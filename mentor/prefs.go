package mentor

import (
	"math/rand"
	"sync"
	"time"

	"github.com/perlin-network/matcher/conf"
	"github.com/perlin-network/matcher/counter"
	"github.com/pkg/errors"
)

var ErrNoPreferences = errors.New("each mentee must have at least one preferred mentor")

type Option func(p *Prefs)

func WithSeed(seed int64) Option {
	return func(p *Prefs) {
		p.rng = rand.New(rand.NewSource(seed))
	}
}

// Prefs scores mentee/mentor pairings and generates neighbouring pairings by
// moving one mentee to another of their preferred mentors. It is safe for
// concurrent use.
type Prefs struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New(opts ...Option) *Prefs {
	p := &Prefs{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// InitialStateFromInput pairs everyone with their first preference.
func (p *Prefs) InitialStateFromInput(requests []Request) (State, error) {
	choices := make([]Assignment, len(requests))
	taken := counter.Empty[int]()

	for i, request := range requests {
		if len(request.Preferences) == 0 {
			return State{}, errors.Wrapf(ErrNoPreferences, "request %d (%q)", i, request.Name)
		}

		choices[i] = Assignment{Request: request, Resource: request.Preferences[0]}
		taken, _ = taken.Increment(request.Preferences[0])
	}

	deficit := taken.Size() - len(choices)
	rankScore := RankScore(choices)

	return State{
		Choices:   choices,
		Score:     adjust(deficit, rankScore),
		RankScore: rankScore,
		Deficit:   deficit,
		Taken:     taken,
	}, nil
}

// pick chooses an assignment to change and the resource it switches to. When
// a requester has no other preference, it switches to itself.
func (p *Prefs) pick(choices []Assignment) (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	index := p.rng.Intn(len(choices))
	choice := choices[index]

	others := make([]int, 0, len(choice.Preferences))
	for _, pref := range choice.Preferences {
		if pref != choice.Resource {
			others = append(others, pref)
		}
	}

	if len(others) == 0 {
		others = choice.Preferences
	}

	return index, others[p.rng.Intn(len(others))]
}

// Iter returns a neighbour of state differing in exactly one assignment.
func (p *Prefs) Iter(state State) State {
	if len(state.Choices) == 0 {
		return state
	}

	index, resource := p.pick(state.Choices)
	old := state.Choices[index]

	choices := make([]Assignment, len(state.Choices))
	copy(choices, state.Choices)
	choices[index].Resource = resource

	taken, decDiff := state.Taken.Release(old.Resource)
	taken, incDiff := taken.Increment(resource)

	deficit := state.Deficit + decDiff + incDiff
	rankScore := state.RankScore -
		PositionalScore(old.Preferences, old.Resource) +
		PositionalScore(old.Preferences, resource)

	return State{
		Choices:   choices,
		Score:     adjust(deficit, rankScore),
		RankScore: rankScore,
		Deficit:   deficit,
		Taken:     taken,
	}
}

// Evaluate is positive when b scores strictly higher than a.
func (p *Prefs) Evaluate(a, b State) int {
	return AdjustedScore(b) - AdjustedScore(a)
}

func MeanRank(state State) float64 {
	if len(state.Choices) == 0 {
		return 0
	}

	sum := 0
	for _, choice := range state.Choices {
		sum += Rank(choice.Preferences, choice.Resource)
	}

	return float64(sum) / float64(len(state.Choices))
}

// Ready reports whether state is feasible and close enough to everyone's
// first choice to stop searching.
func Ready(state State) bool {
	return state.Score > 0 && MeanRank(state) < conf.GetReadyMeanRank()
}
