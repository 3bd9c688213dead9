package engine

import (
	"strconv"
	"sync"

	"github.com/aclements/go-z3/z3"
)

// sharedContext returns the single z3.Context used by every Store in the
// process. A Context is safe to read from many solver sessions; only the
// per-path constraint list and model cache are owned by individual States.
var sharedContext = sync.OnceValue(func() *z3.Context {
	return z3.NewContext(z3.NewContextConfig())
})

// Store wraps an SMT solver session: it accumulates Boolean path
// constraints, answers satisfiability queries, and caches the last
// satisfying model so evaluation and concretization of symbolic terms stay
// cheap. It never leaks z3 types past the engine package boundary.
type Store struct {
	ctx         *z3.Context
	bitlength   int // 0 selects unbounded-integer mode
	constraints []z3.Bool
	model       *z3.Model // nil until the first successful IsSatisfiable
	freshCount  int
}

// NewStore returns an empty constraint store. bitlength is the width of
// freshly allocated symbolic bytes; 0 selects unbounded integers.
func NewStore(bitlength int) *Store {
	return &Store{ctx: sharedContext(), bitlength: bitlength}
}

// Clone returns an independent store whose constraint list and model cache
// are copies of s's. The constraint slice is copied so appends on either
// store never alias; the cached model, being read-only once solved, is
// shared by reference the way the reference implementation's shallow dict
// copy shares its z3 model values.
func (s *Store) Clone() *Store {
	return &Store{
		ctx:         s.ctx,
		bitlength:   s.bitlength,
		constraints: append([]z3.Bool(nil), s.constraints...),
		model:       s.model,
		freshCount:  s.freshCount,
	}
}

// Add appends one path constraint.
func (s *Store) Add(c Cond) {
	if c.symbolic {
		s.constraints = append(s.constraints, c.b)
		return
	}
	if !c.concrete {
		// A constant-false constraint makes every future query on this
		// store unsatisfiable; keep that faithfully rather than dropping
		// a condition that looked trivially true.
		s.constraints = append(s.constraints, s.ctx.FromBool(false))
	}
}

// IsSatisfiable creates a fresh solver session, feeds every accumulated
// constraint, and reports whether they are jointly satisfiable. On success
// the model cache is replaced with the new model; the cache is never
// cleared by Add, only refreshed here.
func (s *Store) IsSatisfiable() (bool, error) {
	solver := s.ctx.NewSolver()
	for _, c := range s.constraints {
		solver.Assert(c)
	}
	sat, err := solver.Check()
	if err != nil {
		return false, err
	}
	if sat {
		s.model = solver.Model()
	}
	return sat, nil
}

// Eval reduces v to a concrete Go integer. A concrete Value is returned
// immediately. A symbolic Value is evaluated against the cached model;
// callers are expected to have called IsSatisfiable on the current path
// first. If no model is cached, or the model leaves symbolic residue, Eval
// fails with a SolverError-class error.
func (s *Store) Eval(v Value) (int64, error) {
	if !v.symbolic {
		return v.concrete, nil
	}
	if s.model == nil {
		return 0, errUnevaluable
	}

	var (
		result z3.Value
		ok     bool
	)
	if s.bitlength > 0 {
		result, ok = s.model.Eval(v.bv, true)
	} else {
		result, ok = s.model.Eval(v.iv, true)
	}
	if !ok {
		return 0, errUnevaluable
	}

	switch n := result.(type) {
	case z3.BV:
		i, ok := n.AsInt64()
		if !ok {
			return 0, errUnevaluable
		}
		return i, nil
	case z3.Int:
		i, ok := n.AsInt64()
		if !ok {
			return 0, errUnevaluable
		}
		return i, nil
	default:
		return 0, errUnevaluable
	}
}

// EvalCond reduces c to a concrete Go bool the same way Eval does for
// integers.
func (s *Store) EvalCond(c Cond) (bool, error) {
	if !c.symbolic {
		return c.concrete, nil
	}
	if s.model == nil {
		return false, errUnevaluable
	}
	result, ok := s.model.Eval(c.b, true)
	if !ok {
		return false, errUnevaluable
	}
	b, ok := result.(z3.Bool)
	if !ok {
		return false, errUnevaluable
	}
	return b.AsBool(), nil
}

func (s *Store) bvSort() z3.Sort {
	return s.ctx.BVSort(s.bitlength)
}

func (s *Store) toBV(v Value) z3.BV {
	if v.symbolic {
		return v.bv
	}
	return s.ctx.FromInt(v.concrete, s.bvSort()).(z3.BV)
}

func (s *Store) toInt(v Value) z3.Int {
	if v.symbolic {
		return v.iv
	}
	return s.ctx.FromInt(v.concrete, s.ctx.IntSort()).(z3.Int)
}

// FreshSymbol allocates a new symbolic byte-sized input variable and
// constrains it to 0 <= v <= 0xFF, mirroring the range every freshly read
// byte of stdin is given. The caller still must tag the result with a
// VarType once it knows whether the byte represents a character or a
// decimal number.
func (s *Store) FreshSymbol(prefix string) Value {
	name := symbolName(prefix, s.freshCount)
	s.freshCount++

	var v Value
	if s.bitlength > 0 {
		bv := s.ctx.Const(name, s.bvSort()).(z3.BV)
		v = Value{symbolic: true, isBV: true, bv: bv, name: name}
		lo := s.ctx.FromInt(0, s.bvSort()).(z3.BV)
		hi := s.ctx.FromInt(0xFF, s.bvSort()).(z3.BV)
		s.Add(symbolicCond(lo.SLE(bv).And(bv.SLE(hi))))
	} else {
		iv := s.ctx.Const(name, s.ctx.IntSort()).(z3.Int)
		v = Value{symbolic: true, iv: iv, name: name}
		lo := s.ctx.FromInt(0, s.ctx.IntSort()).(z3.Int)
		hi := s.ctx.FromInt(0xFF, s.ctx.IntSort()).(z3.Int)
		s.Add(symbolicCond(lo.Le(iv).And(iv.Le(hi))))
	}
	return v
}

func symbolName(prefix string, n int) string {
	return prefix + "_" + strconv.Itoa(n)
}

// Add, Sub, Mul, Div and Mod implement Whitespace's arithmetic ops: pop rhs
// then lhs (right operand on top), push lhs op rhs. Division and modulo
// follow floor semantics regardless of mode.

func (s *Store) ValueAdd(lhs, rhs Value) Value {
	return s.binOp(lhs, rhs,
		func(a, b int64) int64 { return a + b },
		func(a, b z3.BV) z3.BV { return a.Add(b) },
		func(a, b z3.Int) z3.Int { return a.Add(b) },
	)
}

func (s *Store) ValueSub(lhs, rhs Value) Value {
	return s.binOp(lhs, rhs,
		func(a, b int64) int64 { return a - b },
		func(a, b z3.BV) z3.BV { return a.Sub(b) },
		func(a, b z3.Int) z3.Int { return a.Sub(b) },
	)
}

func (s *Store) ValueMul(lhs, rhs Value) Value {
	return s.binOp(lhs, rhs,
		func(a, b int64) int64 { return a * b },
		func(a, b z3.BV) z3.BV { return a.Mul(b) },
		func(a, b z3.Int) z3.Int { return a.Mul(b) },
	)
}

func (s *Store) ValueDiv(lhs, rhs Value) Value {
	return s.binOp(lhs, rhs, floorDiv, s.floorDivBV, s.floorDivInt)
}

func (s *Store) ValueMod(lhs, rhs Value) Value {
	return s.binOp(lhs, rhs, floorMod, s.floorModBV, s.floorModInt)
}

func (s *Store) binOp(
	lhs, rhs Value,
	concreteOp func(a, b int64) int64,
	bvOp func(a, b z3.BV) z3.BV,
	ivOp func(a, b z3.Int) z3.Int,
) Value {
	if !lhs.symbolic && !rhs.symbolic {
		return Value{concrete: concreteOp(lhs.concrete, rhs.concrete)}
	}
	if s.bitlength > 0 {
		return Value{symbolic: true, isBV: true, bv: bvOp(s.toBV(lhs), s.toBV(rhs))}
	}
	return Value{symbolic: true, iv: ivOp(s.toInt(lhs), s.toInt(rhs))}
}

// floorDivBV and floorModBV adjust z3's truncating SDiv/SRem to floor
// semantics: when the remainder is nonzero and the operands' signs differ,
// the truncating quotient is one too high (toward zero) and the remainder
// needs the divisor added back in.
func (s *Store) floorDivBV(a, b z3.BV) z3.BV {
	q := a.SDiv(b)
	r := a.SRem(b)
	zero := s.ctx.FromInt(0, s.bvSort()).(z3.BV)
	one := s.ctx.FromInt(1, s.bvSort()).(z3.BV)
	needsAdjust := r.NE(zero).And(r.SLT(zero).Xor(b.SLT(zero)))
	return s.ctx.Ite(needsAdjust, q.Sub(one), q).(z3.BV)
}

func (s *Store) floorModBV(a, b z3.BV) z3.BV {
	r := a.SRem(b)
	zero := s.ctx.FromInt(0, s.bvSort()).(z3.BV)
	needsAdjust := r.NE(zero).And(r.SLT(zero).Xor(b.SLT(zero)))
	return s.ctx.Ite(needsAdjust, r.Add(b), r).(z3.BV)
}

// floorDivInt and floorModInt adjust SMT-LIB's Euclidean Int div/mod (the
// remainder is never negative) to floor semantics: the two agree for a
// positive divisor, but for a negative divisor with a nonzero remainder the
// Euclidean quotient is one too high and the remainder needs the divisor
// added back in.
func (s *Store) floorDivInt(a, b z3.Int) z3.Int {
	zero := s.ctx.FromInt(0, s.ctx.IntSort()).(z3.Int)
	one := s.ctx.FromInt(1, s.ctx.IntSort()).(z3.Int)
	needsAdjust := a.Mod(b).Eq(zero).Not().And(b.Lt(zero))
	return s.ctx.Ite(needsAdjust, a.Div(b).Sub(one), a.Div(b)).(z3.Int)
}

func (s *Store) floorModInt(a, b z3.Int) z3.Int {
	r := a.Mod(b)
	zero := s.ctx.FromInt(0, s.ctx.IntSort()).(z3.Int)
	needsAdjust := r.Eq(zero).Not().And(b.Lt(zero))
	return s.ctx.Ite(needsAdjust, r.Add(b), r).(z3.Int)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if r := a % b; r != 0 && (r < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// ValueEq and ValueLt build the conditions JUMP_IF_ZERO/JUMP_IF_NEGATIVE
// need: t == 0 and t < 0 respectively, generalized to arbitrary operands so
// they can also ground future conditionals.

func (s *Store) ValueEq(lhs, rhs Value) Cond {
	if !lhs.symbolic && !rhs.symbolic {
		return concreteCond(lhs.concrete == rhs.concrete)
	}
	if s.bitlength > 0 {
		return symbolicCond(s.toBV(lhs).Eq(s.toBV(rhs)))
	}
	return symbolicCond(s.toInt(lhs).Eq(s.toInt(rhs)))
}

func (s *Store) ValueLt(lhs, rhs Value) Cond {
	if !lhs.symbolic && !rhs.symbolic {
		return concreteCond(lhs.concrete < rhs.concrete)
	}
	if s.bitlength > 0 {
		return symbolicCond(s.toBV(lhs).SLT(s.toBV(rhs)))
	}
	return symbolicCond(s.toInt(lhs).Lt(s.toInt(rhs)))
}
