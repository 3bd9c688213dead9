package engine

// Op identifies the operation an instruction performs. Op values are unique
// across all five IMP categories so a bare Op is enough to dispatch in
// State.Step.
type Op int

const (
	// IO
	OpReadChar Op = iota
	OpReadNumber
	OpPrintChar
	OpPrintNumber

	// Stack manipulation
	OpPush
	OpDupTop
	OpSwapTop2
	OpDiscardTop
	OpCopyToTop
	OpSlideNOff

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	// Flow control
	OpMark
	OpCall
	OpJump
	OpJumpIfZero
	OpJumpIfNegative
	OpReturn
	OpExit

	// Heap access
	OpStore
	OpRetrieve
)

// ParamKind says whether (and how) an Op's instruction carries a parameter.
type ParamKind int

const (
	ParamNone ParamKind = iota
	ParamNumber
	ParamLabel
)

// opSpec is a single row of the opcode table: the category it lives under,
// its bit pattern local to that category, and the parameter it expects.
type opSpec struct {
	imp     IMP
	op      Op
	pattern string
	param   ParamKind
}

// opTable is the full closed set of Whitespace instructions. It is a cold,
// static table consulted only by the parser; the interpreter itself
// dispatches on Op via a switch (see State.Step).
var opTable = []opSpec{
	{IMPIO, OpReadChar, "\t ", ParamNone},
	{IMPIO, OpReadNumber, "\t\t", ParamNone},
	{IMPIO, OpPrintChar, "  ", ParamNone},
	{IMPIO, OpPrintNumber, " \t", ParamNone},

	{IMPStackManipulation, OpPush, " ", ParamNumber},
	{IMPStackManipulation, OpDupTop, "\n ", ParamNone},
	{IMPStackManipulation, OpSwapTop2, "\n\t", ParamNone},
	{IMPStackManipulation, OpDiscardTop, "\n\n", ParamNone},
	{IMPStackManipulation, OpCopyToTop, "\t ", ParamNumber},
	{IMPStackManipulation, OpSlideNOff, "\t\n", ParamNumber},

	{IMPArithmetic, OpAdd, "  ", ParamNone},
	{IMPArithmetic, OpSub, " \t", ParamNone},
	{IMPArithmetic, OpMul, " \n", ParamNone},
	{IMPArithmetic, OpDiv, "\t ", ParamNone},
	{IMPArithmetic, OpMod, "\t\t", ParamNone},

	{IMPFlowControl, OpMark, "  ", ParamLabel},
	{IMPFlowControl, OpCall, " \t", ParamLabel},
	{IMPFlowControl, OpJump, " \n", ParamLabel},
	{IMPFlowControl, OpJumpIfZero, "\t ", ParamLabel},
	{IMPFlowControl, OpJumpIfNegative, "\t\t", ParamLabel},
	{IMPFlowControl, OpReturn, "\t\n", ParamNone},
	{IMPFlowControl, OpExit, "\n\n", ParamNone},

	{IMPHeapAccess, OpStore, " ", ParamNone},
	{IMPHeapAccess, OpRetrieve, "\t", ParamNone},
}

var opNames = map[Op]string{
	OpReadChar:       "READ_CHAR",
	OpReadNumber:     "READ_NUMBER",
	OpPrintChar:      "PRINT_CHAR",
	OpPrintNumber:    "PRINT_NUMBER",
	OpPush:           "PUSH",
	OpDupTop:         "DUP_TOP",
	OpSwapTop2:       "SWAP_TOP2",
	OpDiscardTop:     "DISCARD_TOP",
	OpCopyToTop:      "COPY_TO_TOP",
	OpSlideNOff:      "SLIDE_N_OFF",
	OpAdd:            "ADD",
	OpSub:            "SUB",
	OpMul:            "MUL",
	OpDiv:            "DIV",
	OpMod:            "MOD",
	OpMark:           "MARK",
	OpCall:           "CALL",
	OpJump:           "JUMP",
	OpJumpIfZero:     "JUMP_IF_ZERO",
	OpJumpIfNegative: "JUMP_IF_NEGATIVE",
	OpReturn:         "RETURN",
	OpExit:           "EXIT",
	OpStore:          "STORE",
	OpRetrieve:       "RETRIEVE",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "?unknown-op?"
}

// opsForIMP returns the opSpecs belonging to a single category, in table
// order, for the parser to try in turn.
func opsForIMP(imp IMP) []opSpec {
	var specs []opSpec
	for _, s := range opTable {
		if s.imp == imp {
			specs = append(specs, s)
		}
	}
	return specs
}
