package compiler

import (
	"fmt"
	"sort"

	"github.com/venusdb/sdl/pkg/ast"
)

// Severity is a diagnostic's urgency, encoded as the letter in the
// GNU-style message prefix (spec.md §6).
type Severity int

const (
	SeverityNote Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) letter() string {
	switch s {
	case SeverityError:
		return "E"
	case SeverityWarning:
		return "W"
	default:
		return "N"
	}
}

// Diagnostic is one compiler message: a fixed 5-digit code, a severity,
// the source position it anchors to, the dotted path of the definition
// it concerns, and a human-readable message.
//
// Format (spec.md §6): "FILE":LINE:COL:{E|W|N}CODE:PATH:MESSAGE
type Diagnostic struct {
	Pos      ast.Pos
	Severity Severity
	Code     int
	Path     string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%s%05d:%s:%s", d.Pos, d.Severity.letter(), d.Code, d.Path, d.Message)
}

// Diagnostics accumulates messages across compiler phases in emission
// order.
type Diagnostics []Diagnostic

func (ds *Diagnostics) add(sev Severity, code int, pos ast.Pos, path, format string, args ...any) {
	*ds = append(*ds, Diagnostic{
		Pos:      pos,
		Severity: sev,
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (ds *Diagnostics) errorf(code int, pos ast.Pos, path, format string, args ...any) {
	ds.add(SeverityError, code, pos, path, format, args...)
}

func (ds *Diagnostics) warnf(code int, pos ast.Pos, path, format string, args ...any) {
	ds.add(SeverityWarning, code, pos, path, format, args...)
}

func (ds *Diagnostics) notef(code int, pos ast.Pos, path, format string, args ...any) {
	ds.add(SeverityNote, code, pos, path, format, args...)
}

// HasErrors reports whether any diagnostic at or above error severity
// has been recorded.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any warning (or error) has been recorded.
func (ds Diagnostics) HasWarnings() bool {
	for _, d := range ds {
		if d.Severity >= SeverityWarning {
			return true
		}
	}
	return false
}

// Sorted returns a copy ordered by source position, for stable
// presentation to a user.
func (ds Diagnostics) Sorted() Diagnostics {
	out := make(Diagnostics, len(ds))
	copy(out, ds)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.File != out[j].Pos.File {
			return out[i].Pos.File < out[j].Pos.File
		}
		if out[i].Pos.Line != out[j].Pos.Line {
			return out[i].Pos.Line < out[j].Pos.Line
		}
		return out[i].Pos.Col < out[j].Pos.Col
	})
	return out
}
