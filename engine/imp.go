package engine

// IMP identifies one of the five Instruction Modification Parameter
// categories of Whitespace. The category's bit pattern is the fixed prefix
// every instruction in that category begins with.
type IMP int

const (
	IMPIO IMP = iota
	IMPStackManipulation
	IMPArithmetic
	IMPFlowControl
	IMPHeapAccess
)

// impSpec pairs a category with the literal space/tab prefix that identifies
// it in source text.
type impSpec struct {
	imp     IMP
	pattern string
}

// impSpecs is ordered the way the Whitespace grammar is usually presented;
// order does not affect matching since the five prefixes are pairwise
// prefix-free.
var impSpecs = []impSpec{
	{IMPIO, "\t\n"},
	{IMPStackManipulation, " "},
	{IMPArithmetic, "\t "},
	{IMPFlowControl, "\n"},
	{IMPHeapAccess, "\t\t"},
}

func (i IMP) String() string {
	switch i {
	case IMPIO:
		return "IO"
	case IMPStackManipulation:
		return "StackManipulation"
	case IMPArithmetic:
		return "Arithmetic"
	case IMPFlowControl:
		return "FlowControl"
	case IMPHeapAccess:
		return "HeapAccess"
	default:
		return "?unknown-imp?"
	}
}
