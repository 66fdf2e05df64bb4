package ot_test

import (
	"math/rand/v2"
	"testing"

	"github.com/serroba/textot/internal/ot"
	"github.com/stretchr/testify/require"
)

const (
	docAlphabet  = "ab\n"
	textAlphabet = "xy\n"
)

func randomString(r *rand.Rand, alphabet string, n int) string {
	letters := []rune(alphabet)
	out := make([]rune, n)

	for i := range out {
		out[i] = letters[r.IntN(len(letters))]
	}

	return string(out)
}

// randomEdit returns an insert or a delete that applies to doc.
func randomEdit(t *testing.T, r *rand.Rand, doc string) ot.Operation {
	t.Helper()

	runes := []rune(doc)

	if len(runes) == 0 || r.IntN(2) == 0 {
		at := r.IntN(len(runes) + 1)
		text := randomString(r, textAlphabet, 1+r.IntN(3))

		op, err := ot.InsertText(posAt(doc, at), text)
		require.NoError(t, err)

		return op
	}

	from := r.IntN(len(runes))
	to := from + 1 + r.IntN(len(runes)-from)

	op, err := ot.DeleteText(posAt(doc, from), string(runes[from:to]))
	require.NoError(t, err)

	return op
}

// randomOperation sometimes composes two edits into a Split.
func randomOperation(t *testing.T, r *rand.Rand, doc string) ot.Operation {
	t.Helper()

	first := randomEdit(t, r, doc)
	if r.IntN(3) != 0 {
		return first
	}

	second := randomEdit(t, r, apply(t, doc, first))

	return ot.NewSplit(first, second)
}

func TestTransform_ConvergesOnRandomPairs(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(7, 11))

	for range 3000 {
		doc := randomString(r, docAlphabet, r.IntN(12))
		op1 := randomOperation(t, r, doc)
		op2 := randomOperation(t, r, doc)

		verifyConvergence(t, doc, op1, op2)
	}
}

func TestTransformIndex_FollowsTransformedInserts(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(3, 5))

	// A one-character marker inserted at a cursor lands where the
	// transformed cursor points, unless the context inserted at the same spot.
	for range 2000 {
		doc := randomString(r, docAlphabet, r.IntN(12))
		ctx := randomEdit(t, r, doc)
		cursor := posAt(doc, r.IntN(len([]rune(doc))+1))

		moved, err := ot.TransformIndex(cursor, ctx)
		require.NoError(t, err)

		marker, err := ot.InsertText(cursor, "#")
		require.NoError(t, err)

		if c, ok := ctx.(ot.Insert); ok && c.Start() == cursor {
			continue
		}

		got := transform(t, marker, ctx, true)
		require.Equal(t, moved, got.(ot.Insert).Start(), "doc=%q ctx=%s cursor=%s", doc, ctx, cursor)
	}
}
