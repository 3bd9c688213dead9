package engine

import "fmt"

// Instruction is a single decoded Whitespace command: its category, its
// operation, and the operation's parameter (a label id or a signed literal)
// if it takes one.
type Instruction struct {
	IMP          IMP
	Op           Op
	Parameter    int
	HasParameter bool
}

func (i Instruction) String() string {
	if !i.HasParameter {
		return fmt.Sprintf("Instruction(%s, %s)", i.IMP, i.Op)
	}
	return fmt.Sprintf("Instruction(%s, %s, %d)", i.IMP, i.Op, i.Parameter)
}
