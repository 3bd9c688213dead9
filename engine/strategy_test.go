package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func dummyStates(n int) []*State {
	states := make([]*State, n)
	for i := range states {
		states[i] = &State{ip: i}
	}
	return states
}

func TestBFSStrategyDrainsEveryActiveState(t *testing.T) {
	pg := &PathGroup{active: dummyStates(3)}
	selected := BFSStrategy{}.SelectStates(pg)
	require.Len(t, selected, 3)
	require.Empty(t, pg.active)
}

func TestDFSStrategyPopsMostRecentlyAddedState(t *testing.T) {
	states := dummyStates(3)
	pg := &PathGroup{active: states}
	selected := DFSStrategy{}.SelectStates(pg)
	require.Len(t, selected, 1)
	require.Same(t, states[2], selected[0])
	require.Len(t, pg.active, 2)
}

func TestRandomStrategyPicksOneStateAndShrinksActive(t *testing.T) {
	pg := &PathGroup{active: dummyStates(5)}
	strategy := NewRandomStrategy(42)
	selected := strategy.SelectStates(pg)
	require.Len(t, selected, 1)
	require.Len(t, pg.active, 4)
}

func TestStrategyByNameResolvesKnownNames(t *testing.T) {
	for _, name := range []string{"bfs", "dfs", "random", ""} {
		strategy, err := StrategyByName(name)
		require.NoError(t, err)
		require.NotNil(t, strategy)
	}

	_, err := StrategyByName("greedy")
	require.ErrorIs(t, err, ErrUnknownStrategy)
}
