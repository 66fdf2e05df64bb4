package ot

import "fmt"

// Position addresses a point in a line-structured document.
// Offsets count runes within the line.
type Position struct {
	Line   int `json:"line"`
	Offset int `json:"offset"`
}

// Pos is shorthand for Position{Line: line, Offset: offset}.
func Pos(line, offset int) Position {
	return Position{Line: line, Offset: offset}
}

// IsValid reports whether both components are non-negative.
func (p Position) IsValid() bool {
	return p.Line >= 0 && p.Offset >= 0
}

// Compare orders positions by line, then by offset.
// It returns -1, 0 or +1.
func (p Position) Compare(o Position) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Offset < o.Offset:
		return -1
	case p.Offset > o.Offset:
		return 1
	default:
		return 0
	}
}

// Before reports whether p sorts strictly before o.
func (p Position) Before(o Position) bool {
	return p.Compare(o) < 0
}

// After reports whether p sorts strictly after o.
func (p Position) After(o Position) bool {
	return p.Compare(o) > 0
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Line, p.Offset)
}

func validatePosition(name string, p Position) error {
	if !p.IsValid() {
		return fmt.Errorf("%s %s: %w", name, p, ErrInvalidPosition)
	}

	return nil
}
