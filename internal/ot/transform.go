package ot

import "fmt"

// Transform rewrites op1 so that applying the result after op2 has the effect
// op1 had on the state both were generated against (GOTO inclusion
// transformation).
//
// Given op1 and op2 generated concurrently against the same document:
//
//	Apply(Apply(doc, op2), Transform(op1, op2, true)) ==
//	Apply(Apply(doc, op1), Transform(op2, op1, false))
//
// tieBreak decides which of two inserts at the same start and origin goes
// first: when true, op1 stays in place. Callers must pass complementary values
// for the two sides of a concurrent pair.
//
// Transform never mutates its arguments and is safe for concurrent use.
func Transform(op1, op2 Operation, tieBreak bool) (Operation, error) {
	switch a := op1.(type) {
	case NoOp:
		return a, nil
	case Split:
		if _, ok := op2.(NoOp); ok {
			return a, nil
		}

		return transformSplit(a, op2, tieBreak)
	case Insert:
		return transformInsert(a, op2, tieBreak)
	case Delete:
		return transformDelete(a, op2, tieBreak)
	default:
		return nil, unsupported(op1, op2)
	}
}

func unsupported(op1, op2 Operation) error {
	return fmt.Errorf("transform %T against %T: %w", op1, op2, ErrUnsupportedOperation)
}

// transformSplit transforms both halves. The second half lives in the
// document produced by the first, so its context is op2 moved past the first.
func transformSplit(s Split, op2 Operation, tieBreak bool) (Operation, error) {
	first, err := Transform(s.first, op2, tieBreak)
	if err != nil {
		return nil, err
	}

	ctx, err := Transform(op2, s.first, !tieBreak)
	if err != nil {
		return nil, err
	}

	second, err := Transform(s.second, ctx, tieBreak)
	if err != nil {
		return nil, err
	}

	return NewSplit(first, second), nil
}

func transformAgainstSplit(op1 Operation, s Split, tieBreak bool) (Operation, error) {
	t, err := Transform(op1, s.first, tieBreak)
	if err != nil {
		return nil, err
	}

	return Transform(t, s.second, tieBreak)
}

func transformInsert(a Insert, op2 Operation, tieBreak bool) (Operation, error) {
	switch b := op2.(type) {
	case NoOp:
		return a, nil
	case Split:
		return transformAgainstSplit(a, b, tieBreak)
	case Insert:
		return insertInsert(a, b, tieBreak), nil
	case Delete:
		return insertDelete(a, b), nil
	default:
		return nil, unsupported(a, op2)
	}
}

func transformDelete(a Delete, op2 Operation, tieBreak bool) (Operation, error) {
	switch b := op2.(type) {
	case NoOp:
		return a, nil
	case Split:
		return transformAgainstSplit(a, b, tieBreak)
	case Insert:
		return deleteInsert(a, b)
	case Delete:
		return deleteDelete(a, b)
	default:
		return nil, unsupported(a, op2)
	}
}

// insertInsert orders concurrent inserts by start, then origin, then tieBreak.
func insertInsert(a, b Insert, tieBreak bool) Insert {
	switch c := a.start.Compare(b.start); {
	case c < 0:
		return a
	case c > 0:
		return a.withStart(shiftRight(a.start, b.span))
	}

	switch c := a.origin.Compare(b.origin); {
	case c < 0:
		return a
	case c == 0 && tieBreak:
		return a
	}

	return a.withStart(shiftRight(a.start, b.span))
}

func insertDelete(a Insert, b Delete) Insert {
	switch {
	case !a.start.After(b.start):
		return a
	case a.start.After(b.End()):
		return a.withStart(shiftLeft(a.start, b.span))
	default:
		// Landed inside the removed text.
		return a.withStart(b.start)
	}
}

func deleteInsert(a Delete, b Insert) (Operation, error) {
	switch {
	case !b.start.Before(a.End()):
		return a, nil
	case !b.start.After(a.start):
		return a.withStart(shiftRight(a.start, b.span)), nil
	}

	// b lands strictly inside a: delete around the inserted text.
	head, tail, err := a.cut(b.start)
	if err != nil {
		return nil, err
	}

	// Once head is gone the insert begins at a.start.
	moved := b.withStart(a.start)

	return NewSplit(
		deleteOf(a.start, head),
		deleteOf(shiftRight(a.start, moved.span), tail),
	), nil
}

func deleteDelete(a, b Delete) (Operation, error) {
	aEnd, bEnd := a.End(), b.End()

	switch {
	case !b.start.Before(aEnd):
		return a, nil
	case !a.start.Before(bEnd):
		return a.withStart(shiftLeft(a.start, b.span)), nil
	}

	headCovered := !b.start.After(a.start)
	tailCovered := !bEnd.Before(aEnd)

	switch {
	case headCovered && tailCovered:
		return NoOp{}, nil
	case headCovered:
		return dropLeadingOverlap(a, b)
	case tailCovered:
		return dropTrailingOverlap(a, b)
	default:
		return dropInnerOverlap(a, b)
	}
}

// dropLeadingOverlap keeps the part of a after b. It starts where b started.
func dropLeadingOverlap(a, b Delete) (Operation, error) {
	_, tail, err := a.cut(b.End())
	if err != nil {
		return nil, err
	}

	return deleteOf(b.start, tail), nil
}

// dropTrailingOverlap keeps the part of a before b.
func dropTrailingOverlap(a, b Delete) (Operation, error) {
	head, _, err := a.cut(b.start)
	if err != nil {
		return nil, err
	}

	return deleteOf(a.start, head), nil
}

// dropInnerOverlap removes b from the middle of a and joins the remains.
func dropInnerOverlap(a, b Delete) (Operation, error) {
	head, _, err := a.cut(b.start)
	if err != nil {
		return nil, err
	}

	_, tail, err := a.cut(b.End())
	if err != nil {
		return nil, err
	}

	return deleteOf(a.start, head+tail), nil
}

// TransformIndex maps pos, a position in the document before op, to the
// matching position after op. Positions inside deleted text collapse to the
// start of the deletion; positions at or after an insert's start move past it.
func TransformIndex(pos Position, op Operation) (Position, error) {
	switch o := op.(type) {
	case NoOp:
		return pos, nil
	case Split:
		p, err := TransformIndex(pos, o.first)
		if err != nil {
			return Position{}, err
		}

		return TransformIndex(p, o.second)
	case Insert:
		if pos.Before(o.start) {
			return pos, nil
		}

		return shiftRight(pos, o.span), nil
	case Delete:
		switch {
		case !pos.After(o.start):
			return pos, nil
		case !pos.Before(o.End()):
			return shiftLeft(pos, o.span), nil
		default:
			return o.start, nil
		}
	default:
		return Position{}, fmt.Errorf("transform index against %T: %w", op, ErrUnsupportedOperation)
	}
}
