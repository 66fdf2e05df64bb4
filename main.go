package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/serroba/textot/internal/acl"
	"github.com/serroba/textot/internal/collab"
	"github.com/serroba/textot/internal/ot"
	"github.com/serroba/textot/internal/storage"
)

// logEntry is one line of the replayed operation log.
type logEntry struct {
	Site string          `json:"site"`
	Base int             `json:"base"`
	Role string          `json:"role,omitempty"`
	Op   json.RawMessage `json:"op"`
}

type output struct {
	Content  string    `json:"content"`
	Revision int       `json:"revision"`
	Edits    []ot.Edit `json:"edits"`
}

type config struct {
	docID         string
	opsPath       string
	redisAddr     string
	snapshotEvery int
	historySize   int
	merge         bool
}

func main() {
	var cfg config

	flag.StringVar(&cfg.docID, "doc", "scratch", "document ID")
	flag.StringVar(&cfg.opsPath, "ops", "-", "JSON lines operation log, - for stdin")
	flag.StringVar(&cfg.redisAddr, "redis", "", "Redis address; in-memory store when empty")
	flag.IntVar(&cfg.snapshotEvery, "snapshot-every", 50, "revisions between snapshots")
	flag.IntVar(&cfg.historySize, "history", 100, "operations retained for transformation")
	flag.BoolVar(&cfg.merge, "merge", true, "merge adjacent edits into replace records")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := newLogger(*level)

	if err := run(cfg, logger, os.Stdout); err != nil {
		logger.Fatal().Err(err).Msg("replay failed")
	}
}

func run(cfg config, logger zerolog.Logger, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := openStore(ctx, cfg.redisAddr)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	manager := collab.NewManager(collab.ManagerConfig{
		Store:          store,
		SnapshotPolicy: storage.NewSnapshotPolicy(cfg.snapshotEvery),
		HistorySize:    cfg.historySize,
		MergeEdits:     cfg.merge,
		Logger:         &logger,
	})

	in, err := openInput(cfg.opsPath)
	if err != nil {
		return fmt.Errorf("open operation log: %w", err)
	}
	defer in.Close()

	out, err := replay(ctx, manager, cfg.docID, in)
	if err != nil {
		return err
	}

	if err := manager.CloseAll(ctx); err != nil {
		logger.Error().Err(err).Msg("could not close sessions")
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func openStore(ctx context.Context, redisAddr string) (storage.Store, error) {
	if redisAddr == "" {
		return storage.NewMemoryStore(), nil
	}

	rdb, err := storage.Connect(ctx, storage.RedisConfig{Addr: redisAddr})
	if err != nil {
		return nil, err
	}

	return storage.NewRedisStore(rdb, ""), nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	return os.Open(path)
}

// replay submits every logged operation in order. Site names in the log are
// mapped to site IDs on first use.
func replay(ctx context.Context, manager *collab.Manager, docID string, in io.Reader) (output, error) {
	session, err := manager.GetOrCreateSession(ctx, docID)
	if err != nil {
		return output{}, err
	}

	sites := make(map[string]string)
	edits := []ot.Edit{}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var entry logEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return output{}, fmt.Errorf("line %d: %w", line, err)
		}

		op, err := ot.UnmarshalOperation(entry.Op)
		if err != nil {
			return output{}, fmt.Errorf("line %d: %w", line, err)
		}

		site, ok := sites[entry.Site]
		if !ok {
			site, err = join(session, entry)
			if err != nil {
				return output{}, fmt.Errorf("line %d: %w", line, err)
			}

			sites[entry.Site] = site
		}

		result, err := session.Submit(ctx, site, op, entry.Base)
		if err != nil {
			return output{}, fmt.Errorf("line %d: %w", line, err)
		}

		edits = append(edits, result.Edits...)
	}

	if err := scanner.Err(); err != nil {
		return output{}, err
	}

	content, revision, err := session.State()
	if err != nil {
		return output{}, err
	}

	return output{Content: content, Revision: revision, Edits: edits}, nil
}

// join registers the author of entry with the role it names, editor by default.
func join(session *collab.Session, entry logEntry) (string, error) {
	if entry.Role == "" {
		return session.Join(entry.Site, acl.Editor)
	}

	role, err := acl.ParseRole(entry.Role)
	if err != nil {
		return "", err
	}

	return session.Join(entry.Site, role)
}
