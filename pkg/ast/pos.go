package ast

import "fmt"

// Pos is a source position, attached to every AST node so diagnostics can
// report "FILE":LINE:COL.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%q:%d:%d", p.File, p.Line, p.Col)
}

// IsZero reports whether the position was never set.
func (p Pos) IsZero() bool { return p.Line == 0 && p.Col == 0 }
