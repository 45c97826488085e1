package badger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/storage"
)

const (
	defaultSequenceBandwidth = 100
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db            *badger.DB
	logger        *slog.Logger
	schemaVersion uint64
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithLogger sets the logger used by the backend and by badger itself.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) BackendOption {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist. The schema marker is written
// on first open; a store written by a newer schema is opened anyway.
func OpenBackend(filePath string, inMemory bool, opts ...BackendOption) (*Backend, error) {
	backend := &Backend{logger: slog.Default()}
	for _, opt := range opts {
		opt(backend)
	}

	var badgerOpts badger.Options

	if inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		badgerOpts = badger.DefaultOptions(filePath)
	}

	badgerOpts.Logger = &badgerLoggerAdapter{logger: backend.logger}
	badgerOpts.Compression = options.None

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	backend.db = db

	if err := backend.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return backend, nil
}

// ensureSchema records the schema version on first access.
func (b *Backend) ensureSchema() error {
	return b.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(schemaKey))
		if err == nil {
			return item.Value(func(val []byte) error {
				if len(val) != 8 {
					b.logger.Warn("ignoring malformed schema marker", "len", len(val))
					b.schemaVersion = core.SchemaVersion
					return nil
				}
				b.schemaVersion = binary.BigEndian.Uint64(val)
				if b.schemaVersion > core.SchemaVersion {
					b.logger.Warn("store written by a newer schema, unknown fields will be ignored",
						"stored", b.schemaVersion, "supported", core.SchemaVersion)
				}
				return nil
			})
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		b.schemaVersion = core.SchemaVersion
		if err := tx.Set([]byte(schemaKey), binary.BigEndian.AppendUint64(nil, core.SchemaVersion)); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

// SchemaVersion returns the schema version recorded in the store.
func (b *Backend) SchemaVersion() uint64 {
	return b.schemaVersion
}

// Logger returns the backend logger.
func (b *Backend) Logger() *slog.Logger {
	return b.logger
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction that fn must commit.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns a BadgerDB sequence for generating sequential IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

// commit commits tx, reporting write conflicts as storage.ErrTransactionFailed.
func commit(tx *badger.Txn) error {
	err := tx.Commit()
	if err == nil {
		return nil
	}
	if errors.Is(err, badger.ErrConflict) || errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return err
}
