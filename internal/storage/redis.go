package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"

	"github.com/serroba/textot/internal/ot"
)

const defaultKeyPrefix = "textot"

// RedisConfig holds connection settings for a Redis backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Connect opens a client and checks that the server answers.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}

	return rdb, nil
}

// RedisStore keeps each document in three keys: a metadata hash, a list
// holding the operation log in revision order and a snapshot hash.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store on top of rdb. An empty prefix uses "textot".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) docKey(docID string) string      { return s.prefix + ":doc:" + docID }
func (s *RedisStore) opsKey(docID string) string      { return s.docKey(docID) + ":ops" }
func (s *RedisStore) snapshotKey(docID string) string { return s.docKey(docID) + ":snapshot" }

// storedOperation is one entry of the operation log list.
type storedOperation struct {
	Revision  int             `json:"rev"`
	Site      string          `json:"site,omitempty"`
	Operation json.RawMessage `json:"op"`
}

// EncodeOperation serializes a sequenced operation as a log entry.
func EncodeOperation(op ot.SequencedOperation) (string, error) {
	raw, err := ot.MarshalOperation(op.Operation)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(storedOperation{Revision: op.Revision, Site: op.Site, Operation: raw})
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// DecodeOperation parses a log entry written by EncodeOperation.
func DecodeOperation(entry string) (ot.SequencedOperation, error) {
	var stored storedOperation
	if err := json.Unmarshal([]byte(entry), &stored); err != nil {
		return ot.SequencedOperation{}, fmt.Errorf("decode log entry: %w", err)
	}

	op, err := ot.UnmarshalOperation(stored.Operation)
	if err != nil {
		return ot.SequencedOperation{}, err
	}

	return ot.SequencedOperation{Operation: op, Revision: stored.Revision, Site: stored.Site}, nil
}

func (s *RedisStore) CreateDocument(ctx context.Context, docID string) error {
	created, err := s.rdb.HSetNX(ctx, s.docKey(docID), "created_at", time.Now().Format(time.RFC3339)).Result()
	if err != nil {
		return err
	}

	if !created {
		return ErrDocumentExists
	}

	return nil
}

func (s *RedisStore) DocumentExists(ctx context.Context, docID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.docKey(docID)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (s *RedisStore) requireDocument(ctx context.Context, docID string) error {
	exists, err := s.DocumentExists(ctx, docID)
	if err != nil {
		return err
	}

	if !exists {
		return ErrDocumentNotFound
	}

	return nil
}

// SaveSnapshot stores the snapshot and trims the operations it covers.
func (s *RedisStore) SaveSnapshot(ctx context.Context, docID string, revision int, content string) error {
	if err := s.requireDocument(ctx, docID); err != nil {
		return err
	}

	ops, err := s.loadAll(ctx, docID)
	if err != nil {
		return err
	}

	covered := 0
	for _, op := range ops {
		if op.Revision > revision {
			break
		}

		covered++
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.snapshotKey(docID),
			"doc_id", docID,
			"revision", revision,
			"content", content,
			"created_at", time.Now().Format(time.RFC3339),
		)
		pipe.LTrim(ctx, s.opsKey(docID), int64(covered), -1)

		return nil
	})

	return err
}

func (s *RedisStore) LoadSnapshot(ctx context.Context, docID string) (Snapshot, error) {
	if err := s.requireDocument(ctx, docID); err != nil {
		return Snapshot{}, err
	}

	fields, err := s.rdb.HGetAll(ctx, s.snapshotKey(docID)).Result()
	if err != nil {
		return Snapshot{}, err
	}

	if len(fields) == 0 {
		return Snapshot{}, ErrSnapshotNotFound
	}

	return decodeSnapshot(fields)
}

func decodeSnapshot(fields map[string]string) (Snapshot, error) {
	var snap Snapshot

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		WeaklyTypedInput: true,
		Result:           &snap,
	})
	if err != nil {
		return Snapshot{}, err
	}

	if err := dec.Decode(fields); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	return snap, nil
}

func (s *RedisStore) AppendOperation(ctx context.Context, docID string, op ot.SequencedOperation) error {
	if err := s.requireDocument(ctx, docID); err != nil {
		return err
	}

	entry, err := EncodeOperation(op)
	if err != nil {
		return err
	}

	return s.rdb.RPush(ctx, s.opsKey(docID), entry).Err()
}

func (s *RedisStore) LoadOperations(ctx context.Context, docID string, sinceRevision int) ([]ot.SequencedOperation, error) {
	if err := s.requireDocument(ctx, docID); err != nil {
		return nil, err
	}

	ops, err := s.loadAll(ctx, docID)
	if err != nil {
		return nil, err
	}

	var result []ot.SequencedOperation

	for _, op := range ops {
		if op.Revision > sinceRevision {
			result = append(result, op)
		}
	}

	return result, nil
}

func (s *RedisStore) loadAll(ctx context.Context, docID string) ([]ot.SequencedOperation, error) {
	entries, err := s.rdb.LRange(ctx, s.opsKey(docID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	ops := make([]ot.SequencedOperation, 0, len(entries))

	for _, entry := range entries {
		op, err := DecodeOperation(entry)
		if err != nil {
			return nil, err
		}

		ops = append(ops, op)
	}

	return ops, nil
}

func (s *RedisStore) LatestRevision(ctx context.Context, docID string) (int, error) {
	if err := s.requireDocument(ctx, docID); err != nil {
		return 0, err
	}

	last, err := s.rdb.LIndex(ctx, s.opsKey(docID), -1).Result()

	switch {
	case err == nil:
		op, err := DecodeOperation(last)
		if err != nil {
			return 0, err
		}

		return op.Revision, nil
	case !errors.Is(err, redis.Nil):
		return 0, err
	}

	rev, err := s.rdb.HGet(ctx, s.snapshotKey(docID), "revision").Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	return strconv.Atoi(rev)
}

var _ Store = (*RedisStore)(nil)
