package mentor

import (
	"github.com/perlin-network/matcher/counter"
	"github.com/pkg/errors"
)

// MaxRank is the base positional scores are measured from: an assignment
// scores MaxRank minus its 1-based rank.
const MaxRank = 15

type Request struct {
	Name        string
	Preferences []int
}

type Assignment struct {
	Request
	Resource int
}

// State is a complete assignment of every requester. States are values: Iter
// and InitialStateFromInput always build new ones and nothing writes to an
// existing State. Choices keeps the order requests were given in.
type State struct {
	Choices []Assignment

	Score     int
	RankScore int
	Deficit   int

	Taken *counter.Counter[int]
}

// Rank returns the 1-based position of resource within prefs, or 0.
func Rank(prefs []int, resource int) int {
	for i, pref := range prefs {
		if pref == resource {
			return i + 1
		}
	}

	return 0
}

// PositionalScore panics if resource is not one of prefs: assigning a resource
// nobody asked for is a bug in the caller, not bad input.
func PositionalScore(prefs []int, resource int) int {
	rank := Rank(prefs, resource)
	if rank == 0 {
		panic(errors.Errorf("mentor: resource %d is not among preferences %v", resource, prefs))
	}

	return MaxRank - rank
}

func RankScore(choices []Assignment) int {
	sum := 0
	for _, choice := range choices {
		sum += PositionalScore(choice.Preferences, choice.Resource)
	}

	return sum
}

// Deficit counts the resources that would be missing if every requester held
// a distinct one. It is zero or negative.
func Deficit(choices []Assignment) int {
	taken := counter.Empty[int]()
	for _, choice := range choices {
		taken, _ = taken.Increment(choice.Resource)
	}

	return taken.Size() - len(choices)
}

func adjust(deficit, rankScore int) int {
	if deficit < 0 {
		return deficit
	}

	return rankScore
}

// AdjustedScore is the fitness searched on. Infeasible states are ranked
// purely by how overcommitted they are.
func AdjustedScore(state State) int {
	return adjust(state.Deficit, state.RankScore)
}

// Verify recomputes everything State caches from its Choices and reports the
// first mismatch.
func Verify(state State) error {
	taken := counter.Empty[int]()
	for _, choice := range state.Choices {
		taken, _ = taken.Increment(choice.Resource)
	}

	if taken.String() != state.Taken.String() {
		return errors.Errorf("taken is %s, expected %s", state.Taken, taken)
	}

	if deficit := taken.Size() - len(state.Choices); deficit != state.Deficit {
		return errors.Errorf("deficit is %d, expected %d", state.Deficit, deficit)
	}

	if rankScore := RankScore(state.Choices); rankScore != state.RankScore {
		return errors.Errorf("rank score is %d, expected %d", state.RankScore, rankScore)
	}

	if score := adjust(state.Deficit, state.RankScore); score != state.Score {
		return errors.Errorf("score is %d, expected %d", state.Score, score)
	}

	return nil
}
