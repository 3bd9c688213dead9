package engine

import (
	"strconv"

	"github.com/aclements/go-z3/z3"
)

// VarType tags a symbolic input variable so Concretize knows how to render
// it back into bytes.
type VarType int

const (
	VarTypeChar VarType = iota + 1
	VarTypeNumber
)

// Value is a tagged union of a concrete machine integer and a symbolic term
// over the constraint theory. Arithmetic over Values is closed: a
// concrete-concrete operation reduces eagerly, and any symbolic operand
// produces a symbolic result. Exactly one of bv/iv is populated depending on
// the Store's mode, and only when symbolic is true.
type Value struct {
	symbolic bool
	isBV     bool // true: bv is the live term; false (when symbolic): iv is
	concrete int64
	bv       z3.BV
	iv       z3.Int
	name     string
}

// ConcreteValue wraps a plain machine integer, e.g. a PUSH literal.
func ConcreteValue(n int64) Value {
	return Value{concrete: n}
}

// heapKey returns the key used to index the heap map. Concrete values
// compare by numeric equality; symbolic values compare by term identity
// (their z3 string form), matching the reference's conservative choice not
// to resolve aliasing between symbolically-equal-but-distinct terms.
func (v Value) heapKey() string {
	if !v.symbolic {
		return "c:" + strconv.FormatInt(v.concrete, 10)
	}
	if v.isBV {
		return "b:" + v.bv.String()
	}
	return "i:" + v.iv.String()
}

// IsSymbolic reports whether v carries a symbolic term.
func (v Value) IsSymbolic() bool {
	return v.symbolic
}

// Int returns the concrete integer carried by v. It is only meaningful when
// IsSymbolic is false; callers that might hold a symbolic Value should go
// through Store.Eval first.
func (v Value) Int() int64 {
	return v.concrete
}

// Name returns the symbol name a freshly allocated variable was given, or ""
// for a concrete Value or a Value derived from arithmetic.
func (v Value) Name() string {
	return v.name
}

// Cond is a Boolean condition: either a known true/false, or a symbolic
// predicate that must be discharged through the solver before a branch can
// be taken without forking.
type Cond struct {
	symbolic bool
	concrete bool
	b        z3.Bool
}

func concreteCond(b bool) Cond {
	return Cond{concrete: b}
}

func symbolicCond(b z3.Bool) Cond {
	return Cond{symbolic: true, b: b}
}

// IsSymbolic reports whether c must be resolved by the solver.
func (c Cond) IsSymbolic() bool {
	return c.symbolic
}

// Bool returns the concrete truth value of c. Only meaningful when
// IsSymbolic is false.
func (c Cond) Bool() bool {
	return c.concrete
}

// Not negates a condition, staying concrete if c is concrete.
func (c Cond) Not() Cond {
	if !c.symbolic {
		return concreteCond(!c.concrete)
	}
	return symbolicCond(c.b.Not())
}
