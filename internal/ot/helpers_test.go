package ot_test

import (
	"testing"

	"github.com/serroba/textot/internal/ot"
	"github.com/stretchr/testify/require"
)

func ins(t *testing.T, line, offset int, text string) ot.Insert {
	t.Helper()

	op, err := ot.InsertText(ot.Pos(line, offset), text)
	require.NoError(t, err)

	return op
}

func del(t *testing.T, line, offset int, text string) ot.Delete {
	t.Helper()

	op, err := ot.DeleteText(ot.Pos(line, offset), text)
	require.NoError(t, err)

	return op
}

func apply(t *testing.T, text string, op ot.Operation) string {
	t.Helper()

	out, err := ot.ApplyTo(text, op)
	require.NoError(t, err, "apply %s to %q", op, text)

	return out
}

func transform(t *testing.T, op1, op2 ot.Operation, tieBreak bool) ot.Operation {
	t.Helper()

	out, err := ot.Transform(op1, op2, tieBreak)
	require.NoError(t, err, "transform %s against %s", op1, op2)

	return out
}

// posAt converts a rune index into a position in text.
func posAt(text string, idx int) ot.Position {
	line, lineStart := 0, 0

	for i, r := range []rune(text)[:idx] {
		if r == '\n' {
			line++
			lineStart = i + 1
		}
	}

	return ot.Pos(line, idx-lineStart)
}

// bogus is an operation variant the engine does not know.
type bogus struct{}

func (bogus) Kind() ot.Kind        { return ot.Kind(42) }
func (bogus) Invert() ot.Operation { return bogus{} }
func (bogus) String() string       { return "bogus" }
