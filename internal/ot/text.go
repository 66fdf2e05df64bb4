package ot

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// span holds the fields shared by Insert and Delete.
//
// If lineDelta is 0, offsetDelta is the length of the affected span on the
// start line. Otherwise it is the offset of the end on the last affected line.
type span struct {
	start       Position
	lineDelta   int
	offsetDelta int
	text        string
}

func (s span) Start() Position  { return s.start }
func (s span) LineDelta() int   { return s.lineDelta }
func (s span) OffsetDelta() int { return s.offsetDelta }
func (s span) Text() string     { return s.text }

// End returns the position right after the affected text.
func (s span) End() Position {
	return endOf(s.start, s.lineDelta, s.offsetDelta)
}

func endOf(start Position, lineDelta, offsetDelta int) Position {
	if lineDelta == 0 {
		return Position{Line: start.Line, Offset: start.Offset + offsetDelta}
	}

	return Position{Line: start.Line + lineDelta, Offset: offsetDelta}
}

func validateSpan(start Position, lineDelta, offsetDelta int, text string) error {
	if err := validatePosition("start", start); err != nil {
		return err
	}

	if lineDelta < 0 || offsetDelta < 0 {
		return fmt.Errorf("lineDelta=%d offsetDelta=%d: %w", lineDelta, offsetDelta, ErrNegativeDelta)
	}

	if strings.ContainsRune(text, '\r') {
		return fmt.Errorf("carriage return in %q: %w", text, ErrUnnormalizedText)
	}

	if n := strings.Count(text, LineSeparator); n != lineDelta {
		return fmt.Errorf("%d separators for lineDelta %d: %w", n, lineDelta, ErrUnnormalizedText)
	}

	return nil
}

// extent derives lineDelta and offsetDelta from normalized text.
func extent(text string) (int, int) {
	lines := strings.Count(text, LineSeparator)
	if lines == 0 {
		return 0, utf8.RuneCountInString(text)
	}

	last := text[strings.LastIndex(text, LineSeparator)+len(LineSeparator):]

	return lines, utf8.RuneCountInString(last)
}

// Insert adds text at its start position.
type Insert struct {
	span

	origin Position
}

// NewInsert validates and builds an insert. origin is the position the edit
// was first generated for and only breaks ties between concurrent inserts.
func NewInsert(start Position, lineDelta, offsetDelta int, text string, origin Position) (Insert, error) {
	if err := validateSpan(start, lineDelta, offsetDelta, text); err != nil {
		return Insert{}, fmt.Errorf("insert: %w", err)
	}

	if err := validatePosition("origin", origin); err != nil {
		return Insert{}, fmt.Errorf("insert: %w", err)
	}

	return newInsert(start, lineDelta, offsetDelta, text, origin), nil
}

// InsertText builds an insert whose deltas are derived from text and whose
// origin is start.
func InsertText(start Position, text string) (Insert, error) {
	ld, od := extent(text)

	return NewInsert(start, ld, od, text, start)
}

func newInsert(start Position, lineDelta, offsetDelta int, text string, origin Position) Insert {
	return Insert{
		span: span{
			start:       start,
			lineDelta:   lineDelta,
			offsetDelta: offsetDelta,
			text:        text,
		},
		origin: origin,
	}
}

func (Insert) Kind() Kind { return KindInsert }

// Origin returns the position used to order concurrent inserts at one start.
func (i Insert) Origin() Position { return i.origin }

// Invert returns the delete removing the inserted text. The origin is lost:
// inverting the delete again yields an insert whose origin is its start.
func (i Insert) Invert() Operation {
	return Delete{span: i.span}
}

func (i Insert) String() string {
	return fmt.Sprintf("Insert(%s, %d, %d, %q, origin=%s)", i.start, i.lineDelta, i.offsetDelta, i.text, i.origin)
}

func (i Insert) withStart(start Position) Insert {
	i.start = start

	return i
}

// Delete removes text starting at its start position.
type Delete struct {
	span
}

// NewDelete validates and builds a delete of text.
func NewDelete(start Position, lineDelta, offsetDelta int, text string) (Delete, error) {
	if err := validateSpan(start, lineDelta, offsetDelta, text); err != nil {
		return Delete{}, fmt.Errorf("delete: %w", err)
	}

	return Delete{span: span{start: start, lineDelta: lineDelta, offsetDelta: offsetDelta, text: text}}, nil
}

// DeleteText builds a delete whose deltas are derived from text.
func DeleteText(start Position, text string) (Delete, error) {
	ld, od := extent(text)

	return NewDelete(start, ld, od, text)
}

// deleteOf builds a delete from text already known to be normalized.
func deleteOf(start Position, text string) Delete {
	ld, od := extent(text)

	return Delete{span: span{start: start, lineDelta: ld, offsetDelta: od, text: text}}
}

func (Delete) Kind() Kind { return KindDelete }

// Invert returns the insert restoring the removed text.
func (d Delete) Invert() Operation {
	return Insert{span: d.span, origin: d.start}
}

func (d Delete) String() string {
	return fmt.Sprintf("Delete(%s, %d, %d, %q)", d.start, d.lineDelta, d.offsetDelta, d.text)
}

func (d Delete) withStart(start Position) Delete {
	d.start = start

	return d
}

// cut splits the text of s at document position p, which must lie within
// [s.Start(), s.End()].
func (s span) cut(p Position) (string, string, error) {
	lines := p.Line - s.start.Line

	runes := []rune(s.text)
	idx := 0

	if lines == 0 {
		idx = p.Offset - s.start.Offset
	} else {
		sep := nthSeparator(runes, lines)
		if sep < 0 {
			return "", "", fmt.Errorf("separator %d of %q: %w", lines, s.text, ErrSeparatorNotFound)
		}

		idx = sep + 1 + p.Offset
	}

	if idx < 0 || idx > len(runes) {
		return "", "", fmt.Errorf("cut %s outside %s..%s: %w", p, s.start, s.End(), ErrInvalidPosition)
	}

	return string(runes[:idx]), string(runes[idx:]), nil
}

// nthSeparator returns the rune index of the n-th (1-based) line separator,
// or -1.
func nthSeparator(runes []rune, n int) int {
	for i, r := range runes {
		if r != '\n' {
			continue
		}

		n--
		if n == 0 {
			return i
		}
	}

	return -1
}
