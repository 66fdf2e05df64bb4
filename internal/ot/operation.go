package ot

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidPosition      = errors.New("invalid position")
	ErrNegativeDelta        = errors.New("negative delta")
	ErrUnnormalizedText     = errors.New("text does not use the normalized line separator")
	ErrSeparatorNotFound    = errors.New("line separator not found in operation text")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// LineSeparator is the only line separator operation text may contain.
const LineSeparator = "\n"

// Kind identifies an operation variant.
type Kind int

const (
	KindNoOp Kind = iota
	KindInsert
	KindDelete
	KindSplit
)

func (k Kind) String() string {
	switch k {
	case KindNoOp:
		return "noop"
	case KindInsert:
		return "insert"
	case KindDelete:
		return "delete"
	case KindSplit:
		return "split"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Operation is an immutable edit. The variants are NoOp, Insert, Delete
// and Split. Values compare structurally with ==.
type Operation interface {
	Kind() Kind
	Invert() Operation
	String() string
}

// TextOperation is an Insert or a Delete.
type TextOperation interface {
	Operation
	Start() Position
	End() Position
	LineDelta() int
	OffsetDelta() int
	Text() string
}

// NoOp leaves the document unchanged.
type NoOp struct{}

func (NoOp) Kind() Kind { return KindNoOp }

func (NoOp) Invert() Operation { return NoOp{} }

func (NoOp) String() string { return "NoOp" }

// Split applies First and then Second, where Second is expressed against the
// document produced by First. The engine creates splits when a concurrent edit
// cuts an operation in two.
type Split struct {
	first  Operation
	second Operation
}

// NewSplit composes two operations.
func NewSplit(first, second Operation) Split {
	return Split{first: first, second: second}
}

func (Split) Kind() Kind { return KindSplit }

// First returns the operation applied first.
func (s Split) First() Operation { return s.first }

// Second returns the operation applied to the result of First.
func (s Split) Second() Operation { return s.second }

// Invert undoes Second before First.
func (s Split) Invert() Operation {
	return Split{first: s.second.Invert(), second: s.first.Invert()}
}

func (s Split) String() string {
	return fmt.Sprintf("Split(%s, %s)", s.first, s.second)
}

// Flatten returns the text operations contained in op in application order.
// NoOps are dropped.
func Flatten(op Operation) []TextOperation {
	var out []TextOperation

	return appendLeaves(out, op)
}

func appendLeaves(out []TextOperation, op Operation) []TextOperation {
	switch o := op.(type) {
	case Split:
		out = appendLeaves(out, o.first)

		return appendLeaves(out, o.second)
	case TextOperation:
		return append(out, o)
	default:
		return out
	}
}
