package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Pos is a line and column in the original source file, both 1-based.
// The zero Pos is invalid and means "no position".
type Pos struct {
	Line int
	Col  int
}

// NoPos is the zero Pos
var NoPos = Pos{}

func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Before reports whether p comes strictly before other
func (p Pos) Before(other Pos) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Col < other.Col
}

// ParsePos reads a position written as "line:col" or "line"
func ParsePos(s string) (Pos, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoPos, nil
	}
	lineStr, colStr, hasCol := strings.Cut(s, ":")
	line, err := strconv.Atoi(lineStr)
	if err != nil {
		return NoPos, fmt.Errorf("invalid line in position '%s'", s)
	}
	col := 1
	if hasCol {
		col, err = strconv.Atoi(colStr)
		if err != nil {
			return NoPos, fmt.Errorf("invalid column in position '%s'", s)
		}
	}
	return Pos{Line: line, Col: col}, nil
}

// Positioner allows finding the location in the original source file.
type Positioner interface {
	Pos() Pos // position of first character belonging to the node
	End() Pos // position of first character immediately after the node
}

// Range represents a range of positions in the source code.
type Range struct {
	PosStart Pos
	PosEnd   Pos
}

// Pos returns the starting position of the range.
func (r Range) Pos() Pos { return r.PosStart }

// End returns the ending position of the range.
func (r Range) End() Pos { return r.PosEnd }

// String returns a string representation of the range.
func (r Range) String() string {
	if r.PosStart == r.PosEnd || !r.PosEnd.IsValid() {
		return r.PosStart.String()
	}
	return fmt.Sprintf("%v-%v", r.PosStart, r.PosEnd)
}

// RangeBetween creates a Range between two Positioners.
func RangeBetween(fst, snd Positioner) Range {
	return Range{fst.Pos(), snd.End()}
}

// RangeOf creates a Range from a Positioner.
func RangeOf(expr Positioner) Range {
	if expr == nil {
		return Range{}
	}
	if asRange, ok := expr.(*Range); ok {
		return *asRange
	}
	if asRange, ok := expr.(Range); ok {
		return asRange
	}
	return Range{expr.Pos(), expr.End()}
}

// CompareRanges orders ranges by start, then by end
func CompareRanges(a, b Range) int {
	switch {
	case a.PosStart.Before(b.PosStart):
		return -1
	case b.PosStart.Before(a.PosStart):
		return 1
	case a.PosEnd.Before(b.PosEnd):
		return -1
	case b.PosEnd.Before(a.PosEnd):
		return 1
	}
	return 0
}
