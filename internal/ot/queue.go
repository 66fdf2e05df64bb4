package ot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Errors returned by Queue.
var (
	ErrRevisionTooOld = errors.New("base revision too old, history unavailable")
	ErrFutureRevision = errors.New("base revision is in the future")
)

// SequencedOperation is an operation with the revision it was assigned.
type SequencedOperation struct {
	Operation

	Revision int
	Site     string
}

// Queue orders operations into revisions. An operation generated against an
// older revision is transformed, in order, against every operation sequenced
// after that revision before it receives its own.
type Queue struct {
	mu          sync.RWMutex
	revision    int
	history     []SequencedOperation
	historySize int
	log         zerolog.Logger
}

// NewQueue creates a queue retaining at most historySize operations.
func NewQueue(historySize int, log zerolog.Logger) *Queue {
	return &Queue{
		history:     make([]SequencedOperation, 0, historySize),
		historySize: historySize,
		log:         log,
	}
}

// Revision returns the current revision.
func (q *Queue) Revision() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return q.revision
}

// HistorySize returns the number of operations the queue retains.
func (q *Queue) HistorySize() int {
	return q.historySize
}

// Reset discards the history and continues numbering after revision.
func (q *Queue) Reset(revision int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.revision = revision
	q.history = q.history[:0]
}

// Apply transforms op, generated by site against baseRevision, into the
// current revision and sequences it. Sequenced operations take precedence
// over op when inserts tie.
func (q *Queue) Apply(op Operation, baseRevision int, site string) (SequencedOperation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	transformed, err := q.rebase(op, baseRevision)
	if err != nil {
		return SequencedOperation{}, err
	}

	return q.push(transformed, site, baseRevision), nil
}

// Transform returns op moved from baseRevision to the current revision
// without sequencing it.
func (q *Queue) Transform(op Operation, baseRevision int) (Operation, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return q.rebase(op, baseRevision)
}

// Push sequences op, which must already be expressed against the current
// revision.
func (q *Queue) Push(op Operation, site string) SequencedOperation {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.push(op, site, q.revision)
}

func (q *Queue) rebase(op Operation, baseRevision int) (Operation, error) {
	missed, err := q.since(baseRevision)
	if err != nil {
		return nil, err
	}

	transformed := op

	for _, prior := range missed {
		transformed, err = Transform(transformed, prior.Operation, false)
		if err != nil {
			return nil, fmt.Errorf("transform against revision %d: %w", prior.Revision, err)
		}
	}

	return transformed, nil
}

func (q *Queue) push(op Operation, site string, baseRevision int) SequencedOperation {
	q.revision++

	result := SequencedOperation{
		Operation: op,
		Revision:  q.revision,
		Site:      site,
	}

	q.addToHistory(result)

	q.log.Debug().
		Str("site", site).
		Int("base", baseRevision).
		Int("revision", result.Revision).
		Stringer("op", op).
		Msg("sequenced operation")

	return result
}

// TransformIndex maps pos from the document at baseRevision to the current one.
func (q *Queue) TransformIndex(pos Position, baseRevision int) (Position, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	missed, err := q.since(baseRevision)
	if err != nil {
		return Position{}, err
	}

	for _, prior := range missed {
		pos, err = TransformIndex(pos, prior.Operation)
		if err != nil {
			return Position{}, err
		}
	}

	return pos, nil
}

// since returns the history after baseRevision. Callers hold q.mu.
func (q *Queue) since(baseRevision int) ([]SequencedOperation, error) {
	if baseRevision > q.revision {
		return nil, fmt.Errorf("base %d, current %d: %w", baseRevision, q.revision, ErrFutureRevision)
	}

	oldest := q.revision - len(q.history)
	if baseRevision < oldest {
		return nil, fmt.Errorf("base %d, oldest %d: %w", baseRevision, oldest, ErrRevisionTooOld)
	}

	return q.history[len(q.history)-(q.revision-baseRevision):], nil
}

// addToHistory appends op, pruning the oldest entry past historySize.
func (q *Queue) addToHistory(op SequencedOperation) {
	q.history = append(q.history, op)

	if len(q.history) > q.historySize {
		q.history = q.history[1:]
	}
}

// History returns a copy of the retained operations after sinceRevision.
func (q *Queue) History(sinceRevision int) []SequencedOperation {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var result []SequencedOperation

	for _, op := range q.history {
		if op.Revision > sinceRevision {
			result = append(result, op)
		}
	}

	return result
}
