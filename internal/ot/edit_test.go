package ot_test

import (
	"testing"

	"github.com/serroba/textot/internal/ot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToEdits_WithoutMerge(t *testing.T) {
	t.Parallel()

	op := ot.NewSplit(del(t, 0, 1, "bc"), ins(t, 0, 1, "X\nY"))

	edits := ot.ToEdits(op, "alice", "doc-1", false)
	require.Len(t, edits, 2)

	assert.Equal(t, ot.Edit{
		SourceUser:         "alice",
		Position:           ot.Pos(0, 1),
		DeletedOffsetDelta: 2,
		DeletedText:        "bc",
		TargetDocument:     "doc-1",
	}, edits[0])

	assert.Equal(t, ot.Edit{
		SourceUser:          "alice",
		Position:            ot.Pos(0, 1),
		InsertedLineDelta:   1,
		InsertedOffsetDelta: 1,
		InsertedText:        "X\nY",
		TargetDocument:      "doc-1",
	}, edits[1])

	assert.False(t, edits[0].IsReplace())
}

func TestToEdits_MergeBuildsReplace(t *testing.T) {
	t.Parallel()

	op := ot.NewSplit(del(t, 0, 1, "bc"), ins(t, 0, 1, "XY"))

	edits := ot.ToEdits(op, "alice", "doc-1", true)
	require.Len(t, edits, 1)

	e := edits[0]
	assert.True(t, e.IsReplace())
	assert.Equal(t, ot.Pos(0, 1), e.Position)
	assert.Equal(t, "bc", e.DeletedText)
	assert.Equal(t, "XY", e.InsertedText)
}

func TestToEdits_NoOp(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ot.ToEdits(ot.NoOp{}, "alice", "doc-1", true))
}

func TestCompact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ops  []ot.TextOperation
		want []ot.TextOperation
	}{
		{
			"contiguous inserts",
			[]ot.TextOperation{ins(t, 0, 1, "ab"), ins(t, 0, 3, "c")},
			[]ot.TextOperation{ins(t, 0, 1, "abc")},
		},
		{
			"contiguous inserts across lines",
			[]ot.TextOperation{ins(t, 0, 1, "a\n"), ins(t, 1, 0, "b")},
			[]ot.TextOperation{ins(t, 0, 1, "a\nb")},
		},
		{
			"deletes at the same start",
			[]ot.TextOperation{del(t, 0, 1, "b"), del(t, 0, 1, "c")},
			[]ot.TextOperation{del(t, 0, 1, "bc")},
		},
		{
			"backspacing delete",
			[]ot.TextOperation{del(t, 0, 2, "c"), del(t, 0, 1, "b")},
			[]ot.TextOperation{del(t, 0, 1, "bc")},
		},
		{
			"insert then delete of the same text cancels",
			[]ot.TextOperation{ins(t, 0, 1, "xy"), del(t, 0, 1, "xy")},
			[]ot.TextOperation{},
		},
		{
			"delete then reinsert cancels",
			[]ot.TextOperation{del(t, 0, 1, "xy"), ins(t, 0, 1, "xy")},
			[]ot.TextOperation{},
		},
		{
			"insert then delete of its prefix",
			[]ot.TextOperation{ins(t, 0, 1, "xyz"), del(t, 0, 1, "x")},
			[]ot.TextOperation{ins(t, 0, 1, "yz")},
		},
		{
			"delete then insert of a prefix",
			[]ot.TextOperation{del(t, 0, 0, "abc"), ins(t, 0, 0, "ab")},
			[]ot.TextOperation{del(t, 0, 2, "c")},
		},
		{
			"delete then insert extending it",
			[]ot.TextOperation{del(t, 0, 0, "ab"), ins(t, 0, 0, "abcd")},
			[]ot.TextOperation{ins(t, 0, 2, "cd")},
		},
		{
			"unrelated operations stay",
			[]ot.TextOperation{ins(t, 0, 0, "x"), del(t, 0, 3, "d")},
			[]ot.TextOperation{ins(t, 0, 0, "x"), del(t, 0, 3, "d")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ot.Compact(tt.ops))
		})
	}
}

func TestCompact_PreservesResult(t *testing.T) {
	t.Parallel()

	const doc = "abcd\nef"

	ops := []ot.TextOperation{
		del(t, 0, 1, "bc"),
		ins(t, 0, 1, "bcX"),
		ins(t, 0, 4, "Y"),
		del(t, 1, 0, "e"),
		del(t, 1, 0, "f"),
	}

	want := doc
	for _, op := range ops {
		want = apply(t, want, op)
	}

	got := doc
	for _, op := range ot.Compact(ops) {
		got = apply(t, got, op)
	}

	assert.Equal(t, want, got)
	assert.Len(t, ot.Compact(ops), 2)
}
