package ot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanCut(t *testing.T) {
	t.Parallel()

	s := span{start: Pos(2, 3), lineDelta: 2, offsetDelta: 1, text: "ab\ncdé\nf"}

	tests := []struct {
		at         Position
		head, tail string
	}{
		{Pos(2, 3), "", "ab\ncdé\nf"},
		{Pos(2, 4), "a", "b\ncdé\nf"},
		{Pos(3, 0), "ab\n", "cdé\nf"},
		{Pos(3, 3), "ab\ncdé", "\nf"},
		{Pos(4, 1), "ab\ncdé\nf", ""},
	}

	for _, tt := range tests {
		head, tail, err := s.cut(tt.at)
		require.NoError(t, err)
		assert.Equal(t, tt.head, head, "cut at %s", tt.at)
		assert.Equal(t, tt.tail, tail, "cut at %s", tt.at)
	}

	_, _, err := s.cut(Pos(2, 1))
	require.ErrorIs(t, err, ErrInvalidPosition)
}

func TestTransform_SeparatorNotFound(t *testing.T) {
	t.Parallel()

	// Claims a line break its text does not contain.
	broken := Delete{span: span{start: Pos(0, 0), lineDelta: 1, offsetDelta: 1, text: "abcd"}}

	x, err := InsertText(Pos(1, 0), "x")
	require.NoError(t, err)

	_, err = Transform(broken, x, true)
	require.ErrorIs(t, err, ErrSeparatorNotFound)
}
