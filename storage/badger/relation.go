package badger

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pawgraph/core"
)

// RelationIndex stores a set of (a, b) ID pairs.
//
// Each pair is written twice, once under the forward prefix keyed a:b and
// once under the reverse prefix keyed b:a, so both sides can be listed with
// a prefix scan. The pair carries no value; presence of the key is membership.
type RelationIndex struct {
	rel     core.Relation
	forward string
	reverse string
}

// NewRelationIndex creates the index for rel.
func NewRelationIndex(rel core.Relation) *RelationIndex {
	forward, reverse := makeRelationPrefixes(rel)
	return &RelationIndex{rel: rel, forward: forward, reverse: reverse}
}

// Relation returns the relation this index stores.
func (ri *RelationIndex) Relation() core.Relation {
	return ri.rel
}

// Has reports whether (a, b) is a member.
func (ri *RelationIndex) Has(tx *badger.Txn, a, b core.ID) (bool, error) {
	_, err := tx.Get(makeKey(ri.forward, uint64(a), uint64(b)))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

// Add inserts (a, b). Returns false if the pair was already present.
func (ri *RelationIndex) Add(tx *badger.Txn, a, b core.ID) (bool, error) {
	present, err := ri.Has(tx, a, b)
	if err != nil || present {
		return false, err
	}
	if err := tx.Set(makeKey(ri.forward, uint64(a), uint64(b)), nil); err != nil {
		return false, err
	}
	if err := tx.Set(makeKey(ri.reverse, uint64(b), uint64(a)), nil); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes (a, b). Returns false if the pair was not present.
func (ri *RelationIndex) Remove(tx *badger.Txn, a, b core.ID) (bool, error) {
	present, err := ri.Has(tx, a, b)
	if err != nil || !present {
		return false, err
	}
	if err := tx.Delete(makeKey(ri.forward, uint64(a), uint64(b))); err != nil {
		return false, err
	}
	if err := tx.Delete(makeKey(ri.reverse, uint64(b), uint64(a))); err != nil {
		return false, err
	}
	return true, nil
}

// ListByFirst returns every b paired with a, in ascending ID order.
func (ri *RelationIndex) ListByFirst(tx *badger.Txn, a core.ID) []core.ID {
	return listSecond(tx, makeKey(ri.forward, uint64(a)))
}

// ListBySecond returns every a paired with b, in ascending ID order.
func (ri *RelationIndex) ListBySecond(tx *badger.Txn, b core.ID) []core.ID {
	return listSecond(tx, makeKey(ri.reverse, uint64(b)))
}

// CountByFirst returns the number of pairs whose first element is a.
func (ri *RelationIndex) CountByFirst(tx *badger.Txn, a core.ID) int {
	return countPrefix(tx, makeKey(ri.forward, uint64(a)))
}

// CountBySecond returns the number of pairs whose second element is b.
func (ri *RelationIndex) CountBySecond(tx *badger.Txn, b core.ID) int {
	return countPrefix(tx, makeKey(ri.reverse, uint64(b)))
}

func listSecond(tx *badger.Txn, prefix []byte) []core.ID {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		ids = append(ids, trailingID(iter.Item().Key()))
	}
	return ids
}
