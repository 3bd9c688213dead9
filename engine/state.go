package engine

import "strconv"

// State is an interpreter frame for one control-flow path through a
// Whitespace program: its instruction pointer, operand and call stacks,
// heap, stdin/stdout logs, and its own constraint store. Each State
// exclusively owns its mutable fields; instructions and labels are shared
// read-only references across every fork of one program.
type State struct {
	ip int

	stack     []Value
	callstack []int
	heap      map[string]Value

	labels       map[int]int
	instructions []Instruction

	input  []Value
	stdin  []Value
	stdout [][]byte

	varToType map[string]VarType

	solver    *Store
	bitlength int
}

// CreateEntryState returns the initial State for a parsed program. stdin, if
// non-nil, is a sequence of concrete or pre-made symbolic Values that will be
// consumed in order by READ_CHAR/READ_NUMBER before fresh symbols are
// allocated. bitlength is the width of freshly allocated symbolic bytes; 0
// selects unbounded-integer mode.
func CreateEntryState(instructions []Instruction, stdin []Value, bitlength int) *State {
	labels := labelsOf(instructions)

	s := &State{
		instructions: instructions,
		labels:       labels,
		heap:         map[string]Value{},
		varToType:    map[string]VarType{},
		solver:       NewStore(bitlength),
		bitlength:    bitlength,
	}
	if len(stdin) > 0 {
		s.input = append([]Value(nil), stdin...)
	}
	return s
}

func labelsOf(instructions []Instruction) map[int]int {
	labels := map[int]int{}
	for ip, ins := range instructions {
		if ins.Op == OpMark {
			labels[ins.Parameter] = ip
		}
	}
	return labels
}

// instruction returns the instruction at ip, or false if ip lies outside the
// program. Every out-of-range ip, however it was reached, is treated
// uniformly as a terminal condition.
func (s *State) instruction() (Instruction, bool) {
	if s.ip < 0 || s.ip >= len(s.instructions) {
		return Instruction{}, false
	}
	return s.instructions[s.ip], true
}

// Clone returns a deep copy of s's owned fields. Instructions and labels are
// shared, not copied.
func (s *State) Clone() *State {
	clone := &State{
		ip:           s.ip,
		instructions: s.instructions,
		labels:       s.labels,
		bitlength:    s.bitlength,
		solver:       s.solver.Clone(),
	}

	clone.stack = append([]Value(nil), s.stack...)
	clone.callstack = append([]int(nil), s.callstack...)

	clone.heap = make(map[string]Value, len(s.heap))
	for k, v := range s.heap {
		clone.heap[k] = v
	}

	clone.input = append([]Value(nil), s.input...)
	clone.stdin = append([]Value(nil), s.stdin...)

	clone.stdout = make([][]byte, len(s.stdout))
	copy(clone.stdout, s.stdout)

	clone.varToType = make(map[string]VarType, len(s.varToType))
	for k, v := range s.varToType {
		clone.varToType[k] = v
	}

	return clone
}

// Stdout returns the emitted bytes concatenated into one slice.
func (s *State) Stdout() []byte {
	var out []byte
	for _, chunk := range s.stdout {
		out = append(out, chunk...)
	}
	return out
}

// Concretize evaluates buffer (or stdin, if buffer is nil) under the
// current model and renders it to bytes: CHAR-tagged elements become their
// single byte, NUMBER-tagged elements become their decimal representation.
func (s *State) Concretize(buffer []Value) ([]byte, error) {
	if buffer == nil {
		buffer = s.stdin
	}

	var out []byte
	for _, v := range buffer {
		value, err := s.solver.Eval(v)
		if err != nil {
			return nil, err
		}
		switch s.varToType[v.heapKey()] {
		case VarTypeChar:
			out = append(out, byte(value))
		case VarTypeNumber:
			out = append(out, []byte(strconv.FormatInt(value, 10))...)
		default:
			// Values never consumed by a read (e.g. in an explicit
			// buffer) carry no tag; render them as their raw byte.
			out = append(out, byte(value))
		}
	}
	return out, nil
}

// Step single-steps the current state. If the instruction is a conditional
// jump over a symbolic condition, the state clones itself and both outcomes
// are returned. It returns the empty slice when the state has reached EXIT
// or run off the end of the program.
func (s *State) Step() ([]*State, error) {
	ins, ok := s.instruction()
	if !ok {
		return nil, nil
	}

	switch ins.Op {
	case OpReadChar:
		return s.readInput(VarTypeChar)
	case OpReadNumber:
		return s.readInput(VarTypeNumber)
	case OpPrintChar:
		return s.printChar()
	case OpPrintNumber:
		return s.printNumber()

	case OpPush:
		return s.push(ins.Parameter)
	case OpDupTop:
		return s.dupTop()
	case OpSwapTop2:
		return s.swapTop2()
	case OpDiscardTop:
		return s.discardTop()
	case OpCopyToTop:
		return s.copyToTop(ins.Parameter)
	case OpSlideNOff:
		return s.slideNOff(ins.Parameter)

	case OpAdd:
		return s.binaryArith(s.solver.ValueAdd)
	case OpSub:
		return s.binaryArith(s.solver.ValueSub)
	case OpMul:
		return s.binaryArith(s.solver.ValueMul)
	case OpDiv:
		return s.binaryArithChecked(s.solver.ValueDiv)
	case OpMod:
		return s.binaryArithChecked(s.solver.ValueMod)

	case OpMark:
		s.ip++
		return s.self(), nil
	case OpCall:
		return s.call(ins.Parameter)
	case OpJump:
		return s.jump(ins.Parameter)
	case OpJumpIfZero:
		return s.jumpIfZero(ins.Parameter)
	case OpJumpIfNegative:
		return s.jumpIfNegative(ins.Parameter)
	case OpReturn:
		return s.ret()
	case OpExit:
		s.ip++
		return nil, nil

	case OpStore:
		return s.storeHeap()
	case OpRetrieve:
		return s.retrieveHeap()
	}

	return nil, newStepError(ins.Op, s.ip, errUnevaluable)
}

func (s *State) self() []*State {
	return []*State{s}
}

func (s *State) stackPop() (Value, error) {
	n := len(s.stack)
	if n == 0 {
		return Value{}, errEmptyStack
	}
	v := s.stack[n-1]
	s.stack = s.stack[:n-1]
	return v, nil
}

func (s *State) stackPeek() (Value, error) {
	n := len(s.stack)
	if n == 0 {
		return Value{}, errEmptyStack
	}
	return s.stack[n-1], nil
}

func (s *State) readSymbolicInput(varType VarType) (Value, bool, error) {
	var v Value
	if len(s.input) > 0 {
		v = s.input[0]
		s.input = s.input[1:]
	} else {
		v = s.solver.FreshSymbol("input")
	}
	s.stdin = append(s.stdin, v)
	s.varToType[v.heapKey()] = varType

	sat, err := s.solver.IsSatisfiable()
	if err != nil {
		return Value{}, false, err
	}
	return v, sat, nil
}

func (s *State) readInput(varType VarType) ([]*State, error) {
	ins, _ := s.instruction()
	addr, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}

	v, sat, err := s.readSymbolicInput(varType)
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	if !sat {
		return nil, nil
	}

	s.heap[addr.heapKey()] = v
	s.ip++
	return s.self(), nil
}

func (s *State) printChar() ([]*State, error) {
	ins, _ := s.instruction()
	top, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	value, err := s.solver.Eval(top)
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	if value < 0 || value > 255 {
		return nil, newStepError(ins.Op, s.ip, errUnevaluable)
	}
	s.stdout = append(s.stdout, []byte{byte(value)})
	s.ip++
	return s.self(), nil
}

func (s *State) printNumber() ([]*State, error) {
	ins, _ := s.instruction()
	top, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	value, err := s.solver.Eval(top)
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	s.stdout = append(s.stdout, []byte(strconv.FormatInt(value, 10)))
	s.ip++
	return s.self(), nil
}

func (s *State) push(n int) ([]*State, error) {
	s.stack = append(s.stack, ConcreteValue(int64(n)))
	s.ip++
	return s.self(), nil
}

func (s *State) dupTop() ([]*State, error) {
	ins, _ := s.instruction()
	top, err := s.stackPeek()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	s.stack = append(s.stack, top)
	s.ip++
	return s.self(), nil
}

func (s *State) swapTop2() ([]*State, error) {
	ins, _ := s.instruction()
	top1, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	top2, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	s.stack = append(s.stack, top1, top2)
	s.ip++
	return s.self(), nil
}

func (s *State) discardTop() ([]*State, error) {
	ins, _ := s.instruction()
	if _, err := s.stackPop(); err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	s.ip++
	return s.self(), nil
}

func (s *State) copyToTop(n int) ([]*State, error) {
	ins, _ := s.instruction()
	idx := len(s.stack) - 1 - n
	if idx < 0 {
		return nil, newStepError(ins.Op, s.ip, errEmptyStack)
	}
	s.stack = append(s.stack, s.stack[idx])
	s.ip++
	return s.self(), nil
}

func (s *State) slideNOff(n int) ([]*State, error) {
	ins, _ := s.instruction()
	top, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	for i := 0; i < n; i++ {
		if _, err := s.stackPop(); err != nil {
			return nil, newStepError(ins.Op, s.ip, err)
		}
	}
	s.stack = append(s.stack, top)
	s.ip++
	return s.self(), nil
}

func (s *State) binaryArith(op func(lhs, rhs Value) Value) ([]*State, error) {
	ins, _ := s.instruction()
	rhs, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	lhs, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	s.stack = append(s.stack, op(lhs, rhs))
	s.ip++
	return s.self(), nil
}

func (s *State) binaryArithChecked(op func(lhs, rhs Value) Value) ([]*State, error) {
	ins, _ := s.instruction()
	rhs, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	lhs, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}

	divisor, err := s.solver.Eval(rhs)
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	if divisor == 0 {
		return nil, newStepError(ins.Op, s.ip, errDivideByZero)
	}

	s.stack = append(s.stack, op(lhs, rhs))
	s.ip++
	return s.self(), nil
}

func (s *State) call(label int) ([]*State, error) {
	ins, _ := s.instruction()
	target, ok := s.labels[label]
	if !ok {
		return nil, newStepError(ins.Op, s.ip, errUnknownLabel)
	}
	s.callstack = append(s.callstack, s.ip+1)
	s.ip = target
	return s.self(), nil
}

func (s *State) jump(label int) ([]*State, error) {
	ins, _ := s.instruction()
	target, ok := s.labels[label]
	if !ok {
		return nil, newStepError(ins.Op, s.ip, errUnknownLabel)
	}
	s.ip = target
	return s.self(), nil
}

func (s *State) jumpIfZero(label int) ([]*State, error) {
	ins, _ := s.instruction()
	top, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	cond := s.solver.ValueEq(top, ConcreteValue(0))
	return s.conditionalJump(label, cond)
}

func (s *State) jumpIfNegative(label int) ([]*State, error) {
	ins, _ := s.instruction()
	top, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	cond := s.solver.ValueLt(top, ConcreteValue(0))
	return s.conditionalJump(label, cond)
}

// conditionalJump implements §4.3: a concrete condition takes or skips the
// branch without forking; a symbolic condition forks into a taken and a
// not_taken candidate, keeping the model-preferred one unconditionally and
// the other only if it is independently satisfiable.
func (s *State) conditionalJump(label int, cond Cond) ([]*State, error) {
	ins, _ := s.instruction()
	target, ok := s.labels[label]
	if !ok {
		return nil, newStepError(ins.Op, s.ip, errUnknownLabel)
	}

	if !cond.IsSymbolic() {
		if cond.Bool() {
			s.ip = target
		} else {
			s.ip++
		}
		return s.self(), nil
	}

	taken := s
	notTaken := s.Clone()

	preferred, err := s.solver.EvalCond(cond)
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}

	if preferred {
		taken.solver.Add(cond)
		taken.ip = target
		notTaken.solver.Add(cond.Not())
		notTaken.ip++
	} else {
		taken.solver.Add(cond.Not())
		taken.ip++
		notTaken.solver.Add(cond)
		notTaken.ip = target
	}

	successors := []*State{taken}
	sat, err := notTaken.solver.IsSatisfiable()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	if sat {
		// When both branches are feasible, the jumping one comes first.
		if preferred {
			successors = append(successors, notTaken)
		} else {
			successors = []*State{notTaken, taken}
		}
	}
	return successors, nil
}

func (s *State) ret() ([]*State, error) {
	ins, _ := s.instruction()
	n := len(s.callstack)
	if n == 0 {
		return nil, newStepError(ins.Op, s.ip, errEmptyCallstack)
	}
	target := s.callstack[n-1]
	s.callstack = s.callstack[:n-1]
	s.ip = target
	return s.self(), nil
}

func (s *State) storeHeap() ([]*State, error) {
	ins, _ := s.instruction()
	value, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	index, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	s.heap[index.heapKey()] = value
	s.ip++
	return s.self(), nil
}

func (s *State) retrieveHeap() ([]*State, error) {
	ins, _ := s.instruction()
	index, err := s.stackPop()
	if err != nil {
		return nil, newStepError(ins.Op, s.ip, err)
	}
	value, ok := s.heap[index.heapKey()]
	if !ok {
		value = ConcreteValue(0)
	}
	s.stack = append(s.stack, value)
	s.ip++
	return s.self(), nil
}
