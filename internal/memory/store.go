package memory

import (
	"database/sql"
	"fmt"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/bowerhall/willow/internal/logger"
	"github.com/bowerhall/willow/internal/vector"
)

const defaultMirrorThreshold = 4

// OpenDimensions opens a store with an explicit vec0 dimension, which
// must match the embedding backend.
func OpenDimensions(path string, dimensions int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, mirrorAt: defaultMirrorThreshold}
	if err := s.migrate(dimensions); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate(dimensions int) error {
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if _, err := s.db.Exec(vecSchema(dimensions)); err != nil {
		return err
	}

	return nil
}

func (s *Store) SetEmbedder(e vector.Embedder) {
	s.embedder = e
}

// SetIndex installs the vector backend that mirrors high-weight
// records. Without one, inserts stay relational-only.
func (s *Store) SetIndex(idx vector.Index) {
	s.index = idx
}

// SetMirrorThreshold changes the minimum importance mirrored into the
// vector index.
func (s *Store) SetMirrorThreshold(importance int) {
	s.mirrorAt = importance
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// withRetry runs a store operation and, on failure, pings the
// connection once and retries before surfacing a descriptive error.
func (s *Store) withRetry(op string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}

	logger.Warn("store operation failed, reconnecting", "op", op, "error", err)

	if pingErr := s.db.Ping(); pingErr != nil {
		return fmt.Errorf("%s: store unavailable: %v", op, err)
	}

	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
