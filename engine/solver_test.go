package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloorDivFloorModMatchMathematicalFloor(t *testing.T) {
	cases := []struct {
		a, b, wantDiv, wantMod int64
	}{
		{7, 2, 3, 1},
		{-7, 2, -4, 1},
		{7, -2, -4, -1},
		{-7, -2, 3, -1},
		{6, 3, 2, 0},
		{-6, 3, -2, 0},
	}
	for _, c := range cases {
		require.Equal(t, c.wantDiv, floorDiv(c.a, c.b), "floorDiv(%d, %d)", c.a, c.b)
		require.Equal(t, c.wantMod, floorMod(c.a, c.b), "floorMod(%d, %d)", c.a, c.b)
	}
}

func TestConcreteValueArithmeticDoesNotTouchSolver(t *testing.T) {
	store := NewStore(8)

	sum := store.ValueAdd(ConcreteValue(2), ConcreteValue(3))
	require.False(t, sum.IsSymbolic())
	require.Equal(t, int64(5), sum.Int())

	quotient := store.ValueDiv(ConcreteValue(-7), ConcreteValue(2))
	require.False(t, quotient.IsSymbolic())
	require.Equal(t, int64(-4), quotient.Int())

	remainder := store.ValueMod(ConcreteValue(-7), ConcreteValue(2))
	require.False(t, remainder.IsSymbolic())
	require.Equal(t, int64(1), remainder.Int())
}

func TestValueEqLtConcreteShortCircuit(t *testing.T) {
	store := NewStore(8)

	eq := store.ValueEq(ConcreteValue(4), ConcreteValue(4))
	require.False(t, eq.IsSymbolic())
	require.True(t, eq.Bool())

	lt := store.ValueLt(ConcreteValue(4), ConcreteValue(1))
	require.False(t, lt.IsSymbolic())
	require.False(t, lt.Bool())
}

func TestConcreteHeapKeysCompareByValueNotByGoEquality(t *testing.T) {
	a := ConcreteValue(7)
	b := ConcreteValue(7)
	require.Equal(t, a.heapKey(), b.heapKey())

	c := ConcreteValue(8)
	require.NotEqual(t, a.heapKey(), c.heapKey())
}

func TestFreshSymbolIsTaggedSymbolicAndConstrainedToByteRange(t *testing.T) {
	store := NewStore(8)
	v := store.FreshSymbol("input")
	require.True(t, v.IsSymbolic())
	require.Equal(t, "input_0", v.Name())

	sat, err := store.IsSatisfiable()
	require.NoError(t, err)
	require.True(t, sat)

	value, err := store.Eval(v)
	require.NoError(t, err)
	require.GreaterOrEqual(t, value, int64(0))
	require.LessOrEqual(t, value, int64(0xFF))
}

func TestStoreCloneConstraintsAreIndependent(t *testing.T) {
	store := NewStore(8)
	v := store.FreshSymbol("input")

	clone := store.Clone()
	clone.Add(store.ValueEq(v, ConcreteValue(5)))

	require.Len(t, store.constraints, 1, "the range constraint from FreshSymbol")
	require.Len(t, clone.constraints, 2, "the shared range constraint plus the clone-only equality")
}
