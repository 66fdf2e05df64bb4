package ot

import "strings"

// Edit is a single change handed to an editor. A replace fills both the
// inserted and the deleted fields; any other edit leaves one side empty.
type Edit struct {
	SourceUser          string   `json:"sourceUser"`
	Position            Position `json:"position"`
	InsertedLineDelta   int      `json:"insertedLineDelta"`
	InsertedOffsetDelta int      `json:"insertedOffsetDelta"`
	InsertedText        string   `json:"insertedText"`
	DeletedLineDelta    int      `json:"deletedLineDelta"`
	DeletedOffsetDelta  int      `json:"deletedOffsetDelta"`
	DeletedText         string   `json:"deletedText"`
	TargetDocument      string   `json:"targetDocument"`
}

// IsReplace reports whether the edit both removes and inserts text.
func (e Edit) IsReplace() bool {
	return e.InsertedText != "" && e.DeletedText != ""
}

// ToEdits flattens op into edit records to be applied in order. With merge
// set, neighbouring operations are folded together first and a delete
// followed by an insert at the same position becomes one replace record.
func ToEdits(op Operation, source, target string, merge bool) []Edit {
	ops := Flatten(op)
	if merge {
		ops = Compact(ops)
	}

	edits := make([]Edit, 0, len(ops))

	for i := 0; i < len(ops); i++ {
		e := Edit{
			SourceUser:     source,
			Position:       ops[i].Start(),
			TargetDocument: target,
		}

		switch o := ops[i].(type) {
		case Insert:
			setInserted(&e, o)
		case Delete:
			setDeleted(&e, o)

			if merge && i+1 < len(ops) {
				if ins, ok := ops[i+1].(Insert); ok && ins.start == o.start {
					setInserted(&e, ins)
					i++
				}
			}
		}

		edits = append(edits, e)
	}

	return edits
}

func setInserted(e *Edit, op Insert) {
	e.InsertedLineDelta = op.lineDelta
	e.InsertedOffsetDelta = op.offsetDelta
	e.InsertedText = op.text
}

func setDeleted(e *Edit, op Delete) {
	e.DeletedLineDelta = op.lineDelta
	e.DeletedOffsetDelta = op.offsetDelta
	e.DeletedText = op.text
}

// Compact merges adjacent operations where the pair has a shorter equivalent:
// contiguous inserts, contiguous deletes, and an insert and delete at the same
// start where one text is a prefix of the other. Pairs that cancel out vanish.
func Compact(ops []TextOperation) []TextOperation {
	out := make([]TextOperation, 0, len(ops))

	for _, op := range ops {
		out = push(out, op)
	}

	return out
}

func push(out []TextOperation, op TextOperation) []TextOperation {
	for len(out) > 0 {
		merged, ok := mergePair(out[len(out)-1], op)
		if !ok {
			break
		}

		out = out[:len(out)-1]
		if merged == nil {
			return out
		}

		op = merged
	}

	return append(out, op)
}

// mergePair folds next, applied after prev, into prev. A nil result with ok
// set means the two cancel out.
func mergePair(prev, next TextOperation) (TextOperation, bool) {
	switch p := prev.(type) {
	case Insert:
		switch n := next.(type) {
		case Insert:
			if n.start == p.End() {
				ld, od := extent(p.text + n.text)

				return newInsert(p.start, ld, od, p.text+n.text, p.origin), true
			}
		case Delete:
			if n.start == p.start {
				return foldInsertDelete(p, n)
			}
		}
	case Delete:
		switch n := next.(type) {
		case Delete:
			if n.start == p.start {
				return deleteOf(p.start, p.text+n.text), true
			}

			if n.End() == p.start {
				return deleteOf(n.start, n.text+p.text), true
			}
		case Insert:
			if n.start == p.start {
				return foldDeleteInsert(p, n)
			}
		}
	}

	return nil, false
}

// foldInsertDelete handles inserting ins and then deleting del at the same start.
func foldInsertDelete(ins Insert, del Delete) (TextOperation, bool) {
	switch {
	case ins.text == del.text:
		return nil, true
	case strings.HasPrefix(ins.text, del.text):
		return insertAt(ins.start, ins.text[len(del.text):]), true
	case strings.HasPrefix(del.text, ins.text):
		return deleteOf(ins.start, del.text[len(ins.text):]), true
	default:
		return nil, false
	}
}

// foldDeleteInsert handles deleting del and then inserting ins at the same start.
func foldDeleteInsert(del Delete, ins Insert) (TextOperation, bool) {
	switch {
	case ins.text == del.text:
		return nil, true
	case strings.HasPrefix(ins.text, del.text):
		return insertAt(textEnd(del.start, del.text), ins.text[len(del.text):]), true
	case strings.HasPrefix(del.text, ins.text):
		return deleteOf(textEnd(del.start, ins.text), del.text[len(ins.text):]), true
	default:
		return nil, false
	}
}

func insertAt(start Position, text string) Insert {
	ld, od := extent(text)

	return newInsert(start, ld, od, text, start)
}

func textEnd(start Position, text string) Position {
	ld, od := extent(text)

	return endOf(start, ld, od)
}
