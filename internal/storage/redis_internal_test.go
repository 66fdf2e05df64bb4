package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot(t *testing.T) {
	t.Parallel()

	snap, err := decodeSnapshot(map[string]string{
		"doc_id":     "doc1",
		"revision":   "42",
		"content":    "a\nb",
		"created_at": "2024-03-01T10:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, Snapshot{
		DocID:     "doc1",
		Revision:  42,
		Content:   "a\nb",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}, snap)
}

func TestDecodeSnapshot_BadRevision(t *testing.T) {
	t.Parallel()

	_, err := decodeSnapshot(map[string]string{"doc_id": "doc1", "revision": "many"})
	require.Error(t, err)
}

func TestRedisStore_Keys(t *testing.T) {
	t.Parallel()

	s := NewRedisStore(nil, "")

	assert.Equal(t, "textot:doc:d1", s.docKey("d1"))
	assert.Equal(t, "textot:doc:d1:ops", s.opsKey("d1"))
	assert.Equal(t, "textot:doc:d1:snapshot", s.snapshotKey("d1"))
}
