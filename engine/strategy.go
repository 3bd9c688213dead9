package engine

import (
	"math/rand"
	"time"
)

// Strategy selects which active states to run next. Only selection differs
// between strategies; stepping, loop-limit enforcement, and stash
// classification are shared and live on PathGroup.Explore.
type Strategy interface {
	// SelectStates removes and returns the states that should be stepped
	// in the next round, mutating pg.active accordingly.
	SelectStates(pg *PathGroup) []*State
}

// BFSStrategy drains every currently active state each round, so states
// discovered this round run alongside states that were already active,
// giving breadth-first exploration order.
type BFSStrategy struct{}

func (BFSStrategy) SelectStates(pg *PathGroup) []*State {
	states := pg.active
	pg.active = nil
	return states
}

// DFSStrategy always continues the most recently forked state, exhausting
// one path to completion before backtracking to its sibling.
type DFSStrategy struct{}

func (DFSStrategy) SelectStates(pg *PathGroup) []*State {
	n := len(pg.active)
	state := pg.active[n-1]
	pg.active = pg.active[:n-1]
	return []*State{state}
}

// RandomStrategy picks one active state uniformly at random each round.
type RandomStrategy struct {
	rng *rand.Rand
}

// NewRandomStrategy returns a RandomStrategy seeded from seed. Two
// strategies built from the same seed select states in the same order.
func NewRandomStrategy(seed int64) *RandomStrategy {
	return &RandomStrategy{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomStrategy) SelectStates(pg *PathGroup) []*State {
	idx := s.rng.Intn(len(pg.active))
	state := pg.active[idx]
	pg.active = append(pg.active[:idx], pg.active[idx+1:]...)
	return []*State{state}
}

// StrategyByName resolves the --strategy flag values the CLI accepts.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "bfs", "":
		return BFSStrategy{}, nil
	case "dfs":
		return DFSStrategy{}, nil
	case "random":
		return NewRandomStrategy(time.Now().UnixNano()), nil
	default:
		return nil, ErrUnknownStrategy
	}
}
