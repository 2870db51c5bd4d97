package mentor

import (
	"fmt"
	"strings"

	"github.com/perlin-network/matcher/conf"
)

type Pair struct {
	Name     string
	Resource int
}

func Pairs(state State) []Pair {
	pairs := make([]Pair, len(state.Choices))
	for i, choice := range state.Choices {
		pairs[i] = Pair{Name: choice.Name, Resource: choice.Resource}
	}

	return pairs
}

type ResourceLoad struct {
	Resource int
	Holders  int
}

// Load lists the resources held by more than one requester, lowest id first.
func Load(state State) []ResourceLoad {
	var loads []ResourceLoad

	state.Taken.Range(func(resource int, holders int) bool {
		if holders > 1 {
			loads = append(loads, ResourceLoad{Resource: resource, Holders: holders})
		}
		return true
	})

	return loads
}

type Summary struct {
	Score    int
	Feasible bool

	// Ranks[i] is how many requesters got their (i+1)-th preference.
	Ranks    []int
	MeanRank float64
}

func Summarize(state State) Summary {
	s := Summary{
		Score:    state.Score,
		Feasible: state.Score >= 0,
		Ranks:    make([]int, conf.GetMaxPreferences()),
		MeanRank: MeanRank(state),
	}

	for _, choice := range state.Choices {
		rank := Rank(choice.Preferences, choice.Resource)
		for len(s.Ranks) < rank {
			s.Ranks = append(s.Ranks, 0)
		}
		s.Ranks[rank-1]++
	}

	return s
}

func ordinal(n int) string {
	switch {
	case n%100 >= 11 && n%100 <= 13:
		return fmt.Sprintf("%dth", n)
	case n%10 == 1:
		return fmt.Sprintf("%dst", n)
	case n%10 == 2:
		return fmt.Sprintf("%dnd", n)
	case n%10 == 3:
		return fmt.Sprintf("%drd", n)
	}

	return fmt.Sprintf("%dth", n)
}

func (s Summary) String() string {
	if !s.Feasible {
		return fmt.Sprintf("Failed. Score: %d.\n", s.Score)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Score: %d.\n", s.Score)
	for i, count := range s.Ranks {
		fmt.Fprintf(&b, "%ss: %d.\n", ordinal(i+1), count)
	}
	fmt.Fprintf(&b, "Mean rank: %.3f.", s.MeanRank)

	return b.String()
}
