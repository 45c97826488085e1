// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/storage"
)

// CheckpointRepository implements storage.CheckpointRepository for BadgerDB.
type CheckpointRepository struct {
	backend *Backend
}

var _ storage.CheckpointRepository = (*CheckpointRepository)(nil)

// NewCheckpointRepository creates a new CheckpointRepository.
func NewCheckpointRepository(backend *Backend) *CheckpointRepository {
	return &CheckpointRepository{
		backend: backend,
	}
}

// SaveCheckpoint persists a checkpoint for a processor type.
func (r *CheckpointRepository) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if checkpoint.ProcessorType == "" {
		return storage.ErrInvalidQuery
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		checkpoint.UpdatedAt = now()
		key := makeCheckpointKey(checkpoint.ProcessorType)
		if err := tx.Set(key, storage.CheckpointCodec.Marshal(checkpoint)); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

// LoadCheckpoint retrieves the checkpoint for a processor type.
// Returns nil, nil if no checkpoint exists. An unreadable checkpoint is
// logged and reported as absent so the processor starts over.
func (r *CheckpointRepository) LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error) {
	var checkpoint *core.Checkpoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCheckpointKey(processorType)
		item, err := tx.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			checkpoint, unmarshalErr = storage.CheckpointCodec.Unmarshal(val)
			if unmarshalErr != nil {
				r.backend.Logger().Warn("ignoring malformed checkpoint", "processor", processorType, "err", unmarshalErr)
				checkpoint = nil
			}
			return nil
		})
	}, false)

	return checkpoint, err
}

// ClearCheckpoint removes the checkpoint for a processor type.
func (r *CheckpointRepository) ClearCheckpoint(ctx context.Context, processorType string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeCheckpointKey(processorType)); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}
