package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/coursepilot/coursepilot/internal/sse"
)

// localPrefix namespaces every key of the local tier inside Badger.
const localPrefix = "local:"

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// Store is the local tier, backed by Badger.
type Store struct {
	db           *badger.DB
	logger       *slog.Logger
	eventEmitter EventEmitter
}

var _ KV = (*Store)(nil)

// New opens the local tier at path. The emitter receives one storage.changed
// event per successful Set or Remove.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Survive crashes without corrupting the value log
	opts.CompactL0OnClose = true // Faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if emitter == nil {
		emitter = NewNoopEmitter()
	}

	s := &Store{
		db:           db,
		logger:       logger,
		eventEmitter: emitter,
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return s, nil
}

// Namespace implements KV.
func (s *Store) Namespace() Namespace { return NamespaceLocal }

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Get implements KV.
func (s *Store) Get(ctx context.Context, keys ...string) (Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(Values, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		if len(keys) == 0 {
			return s.scanAll(txn, out)
		}
		for _, key := range keys {
			item, err := txn.Get(localKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get %q: %w", key, err)
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %q: %w", key, err)
			}
			out[key] = val
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) scanAll(txn *badger.Txn, out Values) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(localPrefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read %q: %w", item.Key(), err)
		}
		out[strings.TrimPrefix(string(item.Key()), localPrefix)] = val
	}
	return nil
}

// Set implements KV. All keys are written in one Badger transaction.
func (s *Store) Set(ctx context.Context, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	encoded, err := EncodeAll(values)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for key, data := range encoded {
			if err := txn.Set(localKey(key), data); err != nil {
				return fmt.Errorf("set %q: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emitChanged(sortedKeys(encoded), false)
	return nil
}

// Remove implements KV.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(localKey(key)); err != nil {
				return fmt.Errorf("delete %q: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emitChanged(keys, true)
	return nil
}

func (s *Store) emitChanged(keys []string, removed bool) {
	s.eventEmitter.Emit(sse.NewStorageChangedEvent(string(NamespaceLocal), keys, removed))
}

func localKey(key string) []byte {
	return []byte(localPrefix + key)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
