package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustRunAll(t *testing.T, s *State) *State {
	t.Helper()
	for {
		successors, err := s.Step()
		require.NoError(t, err)
		if len(successors) == 0 {
			return s
		}
		require.Len(t, successors, 1, "concrete execution should never fork")
		s = successors[0]
	}
}

func TestStatePushAddPrintExit(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: 3, HasParameter: true},
		{Op: OpPush, Parameter: 4, HasParameter: true},
		{Op: OpAdd},
		{Op: OpPrintNumber},
		{Op: OpExit},
	}
	s := CreateEntryState(instructions, nil, 8)
	s = mustRunAll(t, s)
	require.Equal(t, "7", string(s.Stdout()))
}

func TestStateStackManipulation(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: 1, HasParameter: true},
		{Op: OpPush, Parameter: 2, HasParameter: true},
		{Op: OpPush, Parameter: 3, HasParameter: true},
		{Op: OpDupTop},
		{Op: OpDiscardTop},
		{Op: OpSwapTop2},
		{Op: OpCopyToTop, Parameter: 2, HasParameter: true},
		{Op: OpSlideNOff, Parameter: 2, HasParameter: true},
		{Op: OpPrintNumber},
		{Op: OpExit},
	}
	// stack evolves: [1] [1 2] [1 2 3] [1 2 3 3] [1 2 3] [1 3 2]
	// [1 3 2 1] (copy_to_top 2 reaches index 0) [1 1] (slide_n_off 2 drops
	// the next two entries and keeps the saved top)
	s := CreateEntryState(instructions, nil, 8)
	s = mustRunAll(t, s)
	require.Equal(t, "1", string(s.Stdout()))
}

func TestStateHeapStoreRetrieve(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: 42, HasParameter: true}, // address
		{Op: OpPush, Parameter: 99, HasParameter: true}, // value
		{Op: OpStore},
		{Op: OpPush, Parameter: 42, HasParameter: true},
		{Op: OpRetrieve},
		{Op: OpPrintNumber},
		{Op: OpExit},
	}
	s := CreateEntryState(instructions, nil, 8)
	s = mustRunAll(t, s)
	require.Equal(t, "99", string(s.Stdout()))
}

func TestStateRetrieveUninitializedHeapDefaultsToZero(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: 5, HasParameter: true},
		{Op: OpRetrieve},
		{Op: OpPrintNumber},
		{Op: OpExit},
	}
	s := CreateEntryState(instructions, nil, 8)
	s = mustRunAll(t, s)
	require.Equal(t, "0", string(s.Stdout()))
}

func TestStateCallAndReturn(t *testing.T) {
	instructions := []Instruction{
		{Op: OpCall, Parameter: 0, HasParameter: true}, // ip 0
		{Op: OpExit},                                   // ip 1, resumed after RETURN
		{Op: OpMark, Parameter: 0, HasParameter: true}, // ip 2 (label 0)
		{Op: OpPush, Parameter: 9, HasParameter: true}, // ip 3
		{Op: OpPrintNumber},                            // ip 4
		{Op: OpReturn},                                 // ip 5
	}
	s := CreateEntryState(instructions, nil, 8)
	s = mustRunAll(t, s)
	require.Equal(t, "9", string(s.Stdout()))
}

func TestStateDivModFloorSemantics(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: -7, HasParameter: true},
		{Op: OpPush, Parameter: 2, HasParameter: true},
		{Op: OpDiv},
		{Op: OpPrintNumber},
		{Op: OpPush, Parameter: -7, HasParameter: true},
		{Op: OpPush, Parameter: 2, HasParameter: true},
		{Op: OpMod},
		{Op: OpPrintNumber},
		{Op: OpExit},
	}
	s := CreateEntryState(instructions, nil, 8)
	s = mustRunAll(t, s)
	require.Equal(t, "-41", string(s.Stdout()))
}

func TestStateDivideByZeroErrors(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: 1, HasParameter: true},
		{Op: OpPush, Parameter: 0, HasParameter: true},
		{Op: OpDiv},
	}
	s := CreateEntryState(instructions, nil, 8)
	_, err := s.Step()
	require.NoError(t, err)
	_, err = s.Step()
	require.NoError(t, err)
	_, err = s.Step()
	require.Error(t, err)
	require.ErrorIs(t, err, errDivideByZero)
}

func TestStateUnknownLabelErrors(t *testing.T) {
	instructions := []Instruction{
		{Op: OpJump, Parameter: 99, HasParameter: true},
	}
	s := CreateEntryState(instructions, nil, 8)
	_, err := s.Step()
	require.Error(t, err)
	require.ErrorIs(t, err, errUnknownLabel)
}

func TestStateConditionalJumpConcreteTakesBranch(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: 0, HasParameter: true},
		{Op: OpJumpIfZero, Parameter: 0, HasParameter: true},
		{Op: OpPush, Parameter: 1, HasParameter: true},
		{Op: OpPrintNumber},
		{Op: OpExit},
		{Op: OpMark, Parameter: 0, HasParameter: true},
		{Op: OpPush, Parameter: 2, HasParameter: true},
		{Op: OpPrintNumber},
		{Op: OpExit},
	}
	s := CreateEntryState(instructions, nil, 8)
	s = mustRunAll(t, s)
	require.Equal(t, "2", string(s.Stdout()))
}

func TestStateConditionalJumpSymbolicForksIntoTwoStates(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: 0, HasParameter: true}, // heap address for the read value
		{Op: OpReadChar},
		{Op: OpPush, Parameter: 0, HasParameter: true},
		{Op: OpRetrieve},
		{Op: OpJumpIfZero, Parameter: 0, HasParameter: true},
		{Op: OpPush, Parameter: 1, HasParameter: true},
		{Op: OpPrintNumber},
		{Op: OpExit},
		{Op: OpMark, Parameter: 0, HasParameter: true},
		{Op: OpPush, Parameter: 2, HasParameter: true},
		{Op: OpPrintNumber},
		{Op: OpExit},
	}
	s := CreateEntryState(instructions, nil, 8)

	var successors []*State
	var err error
	for {
		successors, err = s.Step()
		require.NoError(t, err)
		if len(successors) != 1 {
			break
		}
		s = successors[0]
	}
	require.Len(t, successors, 2, "a symbolic conditional jump should fork into two states")
}

func TestStateConcretizeNilBufferRendersStdin(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: 0, HasParameter: true},
		{Op: OpReadChar},
		{Op: OpPush, Parameter: 1, HasParameter: true},
		{Op: OpReadNumber},
	}
	stdin := []Value{ConcreteValue(int64('A')), ConcreteValue(65)}
	s := CreateEntryState(instructions, stdin, 8)

	for range instructions {
		_, err := s.Step()
		require.NoError(t, err)
	}

	out, err := s.Concretize(nil)
	require.NoError(t, err)
	require.Equal(t, "A65", string(out))
}

func TestStateConcretizeExplicitBufferMixesCharAndNumber(t *testing.T) {
	s := CreateEntryState(nil, nil, 8)

	charValue := ConcreteValue(int64('B'))
	numberValue := ConcreteValue(99)
	s.varToType[charValue.heapKey()] = VarTypeChar
	s.varToType[numberValue.heapKey()] = VarTypeNumber

	out, err := s.Concretize([]Value{charValue, numberValue})
	require.NoError(t, err)
	require.Equal(t, "B99", string(out))
}

func TestStatePrintCharAppendsByte(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: 65, HasParameter: true},
		{Op: OpPrintChar},
		{Op: OpExit},
	}
	s := CreateEntryState(instructions, nil, 8)
	s = mustRunAll(t, s)
	require.Equal(t, "A", string(s.Stdout()))
}

func TestStatePrintCharOutOfRangeErrors(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: 256, HasParameter: true},
		{Op: OpPrintChar},
	}
	s := CreateEntryState(instructions, nil, 8)
	_, err := s.Step()
	require.NoError(t, err)
	_, err = s.Step()
	require.Error(t, err)
	require.ErrorIs(t, err, errUnevaluable)
}

func TestStateCloneIsIndependent(t *testing.T) {
	instructions := []Instruction{
		{Op: OpPush, Parameter: 1, HasParameter: true},
		{Op: OpPush, Parameter: 1, HasParameter: true},
	}
	s := CreateEntryState(instructions, nil, 8)
	_, err := s.Step()
	require.NoError(t, err)

	clone := s.Clone()
	_, err = clone.Step() // pushes another 1 onto the clone only
	require.NoError(t, err)

	require.Len(t, s.stack, 1)
	require.Len(t, clone.stack, 2)
}
