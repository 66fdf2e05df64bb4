package ot

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Errors returned when an operation does not fit the document.
var (
	ErrOutOfRange   = errors.New("position outside document")
	ErrTextMismatch = errors.New("deleted text does not match document")
)

// Document holds line-structured text and applies operations to it.
// It is safe for concurrent use.
type Document struct {
	mu      sync.RWMutex
	content []rune
}

// NewDocument creates a document with the given initial content.
func NewDocument(initial string) *Document {
	return &Document{
		content: []rune(initial),
	}
}

// Apply executes op on the document. The document is left untouched if any
// part of op fails.
func (d *Document) Apply(op Operation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next, err := apply(d.content, op)
	if err != nil {
		return err
	}

	d.content = next

	return nil
}

// Content returns the current document content.
func (d *Document) Content() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return string(d.content)
}

// Len returns the number of runes in the document.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.content)
}

// ApplyTo returns text with op applied.
func ApplyTo(text string, op Operation) (string, error) {
	out, err := apply([]rune(text), op)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

func apply(content []rune, op Operation) ([]rune, error) {
	switch o := op.(type) {
	case NoOp:
		return content, nil
	case Split:
		mid, err := apply(content, o.first)
		if err != nil {
			return nil, err
		}

		return apply(mid, o.second)
	case Insert:
		return applyInsert(content, o)
	case Delete:
		return applyDelete(content, o)
	default:
		return nil, fmt.Errorf("apply %T: %w", op, ErrUnsupportedOperation)
	}
}

func applyInsert(content []rune, op Insert) ([]rune, error) {
	at, err := runeIndex(content, op.start)
	if err != nil {
		return nil, err
	}

	text := []rune(op.text)

	out := make([]rune, 0, len(content)+len(text))
	out = append(out, content[:at]...)
	out = append(out, text...)
	out = append(out, content[at:]...)

	return out, nil
}

func applyDelete(content []rune, op Delete) ([]rune, error) {
	at, err := runeIndex(content, op.start)
	if err != nil {
		return nil, err
	}

	text := []rune(op.text)
	end := at + len(text)

	if end > len(content) || string(content[at:end]) != op.text {
		return nil, fmt.Errorf("%s: %w", op, ErrTextMismatch)
	}

	out := make([]rune, 0, len(content)-len(text))
	out = append(out, content[:at]...)
	out = append(out, content[end:]...)

	return out, nil
}

// runeIndex converts p into an index into content.
func runeIndex(content []rune, p Position) (int, error) {
	if !p.IsValid() {
		return 0, fmt.Errorf("%s: %w", p, ErrInvalidPosition)
	}

	lineStart := 0

	for line := 0; line < p.Line; line++ {
		next := slices.Index(content[lineStart:], '\n')
		if next < 0 {
			return 0, fmt.Errorf("line %d: %w", p.Line, ErrOutOfRange)
		}

		lineStart += next + 1
	}

	lineLen := slices.Index(content[lineStart:], '\n')
	if lineLen < 0 {
		lineLen = len(content) - lineStart
	}

	if p.Offset > lineLen {
		return 0, fmt.Errorf("offset %d on line %d of length %d: %w", p.Offset, p.Line, lineLen, ErrOutOfRange)
	}

	return lineStart + p.Offset, nil
}
