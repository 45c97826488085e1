package badger

import (
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/storage"
)

// IndexFunc returns the secondary index keys of a record.
// Every index key stores the record ID as its value.
type IndexFunc[T any] func(*T) [][]byte

// Collection is a named set of records keyed by ID.
//
// Each record lives under name:id, so the collection is ordered by ID, which
// is creation order for monotonically assigned IDs. All methods run inside a
// caller-supplied transaction so that several collections and relations can
// change in one commit. Writes keep the secondary indexes registered with
// WithIndexes in step with the records.
type Collection[T any] struct {
	name    string
	prefix  []byte
	codec   storage.Codec[T]
	idOf    func(*T) core.ID
	indexes IndexFunc[T]
	logger  *slog.Logger
}

// NewCollection creates a collection over the given codec.
// idOf returns the ID under which a record is stored.
func NewCollection[T any](name string, codec storage.Codec[T], idOf func(*T) core.ID, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T]{
		name:   name,
		prefix: []byte(name + ":"),
		codec:  codec,
		idOf:   idOf,
		logger: logger,
	}
}

// WithIndexes registers the secondary indexes maintained by Insert, Upsert,
// Save and Delete.
func (c *Collection[T]) WithIndexes(indexes IndexFunc[T]) *Collection[T] {
	c.indexes = indexes
	return c
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) key(id core.ID) []byte {
	return makeKey(c.name, uint64(id))
}

// Load returns every record in the collection ordered by ID.
// A record that fails to decode makes the whole collection read as empty;
// the failure is logged, not returned.
func (c *Collection[T]) Load(tx *badger.Txn) ([]*T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = c.prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var records []*T
	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		var record *T
		err := item.Value(func(val []byte) error {
			var err error
			record, err = c.codec.Unmarshal(val)
			return err
		})
		if err != nil {
			if errors.Is(err, storage.ErrSerializationFailed) {
				c.logger.Warn("malformed record, treating collection as empty",
					"collection", c.name, "id", trailingID(item.Key()), "err", err)
				return nil, nil
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Save replaces the entire collection with records.
func (c *Collection[T]) Save(tx *badger.Txn, records []*T) error {
	var stale []core.ID
	opts := badger.DefaultIteratorOptions
	opts.Prefix = c.prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		stale = append(stale, trailingID(iter.Item().Key()))
	}
	iter.Close()

	for _, id := range stale {
		if err := c.Delete(tx, id); err != nil {
			return err
		}
	}
	for _, record := range records {
		if err := c.Upsert(tx, record); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the record with the given ID, or nil if it is absent.
// A malformed record is logged and reported as absent.
func (c *Collection[T]) Get(tx *badger.Txn, id core.ID) (*T, error) {
	item, err := tx.Get(c.key(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *T
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = c.codec.Unmarshal(val)
		return unmarshalErr
	})
	if err != nil {
		if errors.Is(err, storage.ErrSerializationFailed) {
			c.logger.Warn("malformed record, treating as absent", "collection", c.name, "id", id, "err", err)
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// Exists reports whether a record with the given ID is stored.
func (c *Collection[T]) Exists(tx *badger.Txn, id core.ID) (bool, error) {
	_, err := tx.Get(c.key(id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

// Insert stores a record under an ID that must not be taken yet.
// Returns storage.ErrDuplicateKey otherwise. The ID key is read before it is
// written, so two transactions inserting the same ID cannot both commit.
func (c *Collection[T]) Insert(tx *badger.Txn, record *T) error {
	id := c.idOf(record)
	exists, err := c.Exists(tx, id)
	if err != nil {
		return err
	}
	if exists {
		return storage.ErrDuplicateKey
	}
	if err := tx.Set(c.key(id), c.codec.Marshal(record)); err != nil {
		return err
	}
	return c.reindex(tx, id, nil, c.indexKeys(record))
}

// Upsert inserts the record or replaces the one with the same ID.
func (c *Collection[T]) Upsert(tx *badger.Txn, record *T) error {
	id := c.idOf(record)
	var stale [][]byte
	if c.indexes != nil {
		old, err := c.Get(tx, id)
		if err != nil {
			return err
		}
		stale = c.indexKeys(old)
	}
	if err := tx.Set(c.key(id), c.codec.Marshal(record)); err != nil {
		return err
	}
	return c.reindex(tx, id, stale, c.indexKeys(record))
}

// Delete removes the record with the given ID and its index entries.
// Deleting an absent record is a no-op.
func (c *Collection[T]) Delete(tx *badger.Txn, id core.ID) error {
	if c.indexes != nil {
		old, err := c.Get(tx, id)
		if err != nil {
			return err
		}
		if err := c.reindex(tx, id, c.indexKeys(old), nil); err != nil {
			return err
		}
	}
	return tx.Delete(c.key(id))
}

func (c *Collection[T]) indexKeys(record *T) [][]byte {
	if c.indexes == nil || record == nil {
		return nil
	}
	return c.indexes(record)
}

// reindex deletes the stale index keys that are not fresh and writes the
// fresh ones that were not already there.
func (c *Collection[T]) reindex(tx *badger.Txn, id core.ID, stale, fresh [][]byte) error {
	current := make(map[string]bool, len(stale))
	for _, key := range stale {
		current[string(key)] = true
	}
	wanted := make(map[string]bool, len(fresh))
	for _, key := range fresh {
		wanted[string(key)] = true
	}

	for _, key := range stale {
		if !wanted[string(key)] {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
	}
	value := storage.MarshalID(id)
	for _, key := range fresh {
		if !current[string(key)] {
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// NextID returns the ID after the highest stored one.
// Pair it with Insert so a concurrent writer picking the same ID conflicts.
func (c *Collection[T]) NextID(tx *badger.Txn) (core.ID, error) {
	maxID, err := c.MaxID(tx)
	if err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

// MaxID returns the highest stored ID, or 0 for an empty collection.
func (c *Collection[T]) MaxID(tx *badger.Txn) (core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	iter.Seek(prefixEnd(c.prefix))
	if !iter.ValidForPrefix(c.prefix) {
		return 0, nil
	}
	return trailingID(iter.Item().Key()), nil
}

// Scan returns up to limit records with ID > afterID, ordered by ID.
// Malformed records are logged and skipped.
func (c *Collection[T]) Scan(tx *badger.Txn, afterID core.ID, limit int) ([]*T, error) {
	if limit <= 0 {
		return nil, nil
	}
	opts := badger.DefaultIteratorOptions
	opts.Prefix = c.prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var records []*T
	for iter.Seek(c.key(afterID + 1)); iter.Valid() && len(records) < limit; iter.Next() {
		item := iter.Item()
		var record *T
		err := item.Value(func(val []byte) error {
			var err error
			record, err = c.codec.Unmarshal(val)
			return err
		})
		if err != nil {
			if errors.Is(err, storage.ErrSerializationFailed) {
				c.logger.Warn("skipping malformed record", "collection", c.name, "id", trailingID(item.Key()), "err", err)
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// readIndexed resolves index entries under prefix to records, newest first when
// reverse is set. Index values are record IDs. Stops after limit records
// when limit > 0.
func readIndexed[T any](tx *badger.Txn, c *Collection[T], prefix []byte, reverse bool, limit int) ([]*T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.Reverse = reverse
	iter := tx.NewIterator(opts)
	defer iter.Close()

	start := prefix
	if reverse {
		start = prefixEnd(prefix)
	}

	var results []*T
	for iter.Seek(start); iter.Valid(); iter.Next() {
		if limit > 0 && len(results) >= limit {
			break
		}

		// Read the ID from the index
		var recordID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			recordID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return nil, err
		}

		// Look up the full record
		record, err := c.Get(tx, recordID)
		if err != nil {
			return nil, err
		}
		if record != nil {
			results = append(results, record)
		}
	}
	return results, nil
}

// countPrefix counts keys under prefix without reading values.
func countPrefix(tx *badger.Txn, prefix []byte) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	n := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		n++
	}
	return n
}
