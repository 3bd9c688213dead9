package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// Predicate classifies a state from its accumulated stdout, e.g. as found
// or as one to avoid.
type Predicate func(*State) bool

// PathGroup partitions every state reachable from one entry point into five
// disjoint stashes as exploration proceeds.
type PathGroup struct {
	active    []*State
	deadended []*State
	found     []*State
	avoided   []*State
	errored   []*State
}

// NewPathGroup returns a PathGroup with state as its sole active member.
func NewPathGroup(state *State) *PathGroup {
	return &PathGroup{active: []*State{state}}
}

func (pg *PathGroup) Active() []*State    { return pg.active }
func (pg *PathGroup) Deadended() []*State { return pg.deadended }
func (pg *PathGroup) Found() []*State     { return pg.found }
func (pg *PathGroup) Avoided() []*State   { return pg.avoided }
func (pg *PathGroup) Errored() []*State   { return pg.errored }

// ExploreOptions configures one PathGroup.Explore call. FindBytes/AvoidBytes
// are a convenience for the common case of matching a literal substring of
// stdout; Find/Avoid, if set, take precedence.
type ExploreOptions struct {
	Find       Predicate
	Avoid      Predicate
	FindBytes  []byte
	AvoidBytes []byte
	Strategy   Strategy
	LoopLimit  int // 0 means unlimited
	NumFind    int // 0 defaults to 1

	// Trace, if non-nil, receives one line per stash transition (found,
	// avoided, errored, deadended) and per loop-budget drop, in the same
	// ad hoc fmt.Fprintf style the teacher's debugOut/PrintCurrentState
	// tracing used. Nil disables tracing entirely.
	Trace io.Writer
}

func conditionPredicate(fn Predicate, needle []byte) Predicate {
	if fn != nil {
		return fn
	}
	if needle != nil {
		return func(s *State) bool { return bytes.Contains(s.Stdout(), needle) }
	}
	return func(*State) bool { return false }
}

// Explore drains the active stash, stepping states with opts.Strategy until
// either no active states remain or NumFind states have been found. It
// returns ctx.Err() if ctx is canceled mid-exploration, e.g. by a CLI driver
// responding to SIGINT.
func (pg *PathGroup) Explore(ctx context.Context, opts ExploreOptions) error {
	find := conditionPredicate(opts.Find, opts.FindBytes)
	avoid := conditionPredicate(opts.Avoid, opts.AvoidBytes)

	strategy := opts.Strategy
	if strategy == nil {
		strategy = BFSStrategy{}
	}

	numFind := opts.NumFind
	if numFind == 0 {
		numFind = 1
	}

	loopCounts := map[int]int{}

	for len(pg.active) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		states := strategy.SelectStates(pg)
		for _, state := range states {
			successors, classified := pg.stepState(state, find, avoid, opts.LoopLimit, loopCounts, opts.Trace)
			if len(pg.found) >= numFind {
				return nil
			}
			if classified {
				continue
			}
			if len(successors) > 0 {
				pg.active = append(pg.active, successors...)
			} else {
				trace(opts.Trace, "->\t\tstash transition> ip=%d -> deadended\n", state.ip)
				pg.deadended = append(pg.deadended, state)
			}
		}
	}
	return nil
}

func trace(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, format, args...)
}

// isSymbolicConditional reports whether state is standing on a conditional
// jump whose branch condition is a still-unresolved symbolic term.
func isSymbolicConditional(state *State) bool {
	ins, ok := state.instruction()
	if !ok {
		return false
	}
	if ins.Op != OpJumpIfZero && ins.Op != OpJumpIfNegative {
		return false
	}
	top, err := state.stackPeek()
	if err != nil {
		return false
	}
	return top.IsSymbolic()
}

// stepState single-steps state until it exits, errors, gets classified as
// found/avoided, hits the loop limit, or produces more than one successor.
// The bool result reports whether this call already disposed of state, by
// filing it into a stash (errored/found/avoided) or by dropping it at the
// loop limit, in which case the caller must not also file its returned
// (nil) successors anywhere.
func (pg *PathGroup) stepState(
	state *State,
	find, avoid Predicate,
	loopLimit int,
	loopCounts map[int]int,
	traceOut io.Writer,
) ([]*State, bool) {
	for {
		if _, ok := state.instruction(); !ok {
			return nil, false
		}

		if loopLimit > 0 && isSymbolicConditional(state) {
			if loopCounts[state.ip] >= loopLimit {
				trace(traceOut, "->\t\tloop budget> ip=%d limit=%d exceeded, dropping state\n", state.ip, loopLimit)
				return nil, true
			}
			loopCounts[state.ip]++
		}

		ins, _ := state.instruction()
		op := ins.Op

		successors, err := state.Step()
		if err != nil {
			trace(traceOut, "->\t\tstash transition> ip=%d -> errored (%v)\n", state.ip, err)
			pg.errored = append(pg.errored, state)
			return nil, true
		}

		if op == OpPrintChar || op == OpPrintNumber {
			if find(state) {
				trace(traceOut, "->\t\tstash transition> ip=%d -> found\n", state.ip)
				pg.found = append(pg.found, state)
				return nil, true
			}
			if avoid(state) {
				trace(traceOut, "->\t\tstash transition> ip=%d -> avoided\n", state.ip)
				pg.avoided = append(pg.avoided, state)
				return nil, true
			}
		}

		if len(successors) == 1 {
			state = successors[0]
			continue
		}
		return successors, false
	}
}
