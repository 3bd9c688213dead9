package engine

import "errors"

// Symbolic-execution errors are raised by State.Step and are recovered by the
// exploration engine: the offending state is routed to the errored stash and
// the rest of the path group keeps running.
var (
	errEmptyStack     = errors.New("empty stack")
	errEmptyCallstack = errors.New("empty callstack")
	errDivideByZero   = errors.New("division by zero")
	errUnknownLabel   = errors.New("unknown label")
)

// SymbolicExecutionError wraps a per-state failure encountered while
// stepping. It is never fatal to the exploration as a whole; the path group
// catches it and moves the state to the errored stash.
type SymbolicExecutionError struct {
	Op  Op
	IP  int
	Err error
}

func (e *SymbolicExecutionError) Error() string {
	return e.Err.Error()
}

func (e *SymbolicExecutionError) Unwrap() error {
	return e.Err
}

func newStepError(op Op, ip int, err error) error {
	return &SymbolicExecutionError{Op: op, IP: ip, Err: err}
}

// errUnevaluable reports that an expression could not be evaluated down to a
// concrete Boolean or numeral. Unlike SymbolicExecutionError this indicates
// the interpreter relied on an invariant the solver could not uphold; callers
// that catch SymbolicExecutionError will still observe it because eval
// failures are always surfaced through a step.
var errUnevaluable = errors.New("unable to evaluate expression to a concrete value")

// ErrUnknownStrategy is returned by StrategyByName (and by the CLI) when asked
// for a strategy name outside {bfs, dfs, random}.
var ErrUnknownStrategy = errors.New("unknown exploration strategy")
