// Package badger is the embedded storage driver built on badgerhold.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"nextstep/internal/apperr"
	"nextstep/internal/logger"
	"nextstep/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Options configures the store. InMemory ignores Path.
type Options struct {
	Path     string
	InMemory bool
}

// Store implements storage.Store on top of a badgerhold store.
type Store struct {
	db  *badgerhold.Store
	log *logger.Logger
}

// Open opens or creates the database. Records are JSON encoded so that
// map-valued fields such as log meta round-trip without gob registration.
func Open(opts Options, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.New("BadgerStore")
	}

	hold := badgerhold.DefaultOptions
	hold.Encoder = json.Marshal
	hold.Decoder = json.Unmarshal

	if opts.InMemory {
		hold.Options = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(filepath.Clean(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		hold.Options = badgerdb.DefaultOptions(opts.Path)
	}
	hold.Options = hold.Options.WithLogger(nil)

	db, err := badgerhold.Open(hold)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	log.LogDebugf("Badger database opened (path=%q inMemory=%t)", opts.Path, opts.InMemory)

	return &Store{db: db, log: log}, nil
}

// OpenInMemory is used by tests and one-shot CLI runs.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true}, logger.Discard("BadgerStore"))
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db.Badger().IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, badgerhold.ErrNotFound) {
		return apperr.NotFound(kind, id)
	}
	return err
}
