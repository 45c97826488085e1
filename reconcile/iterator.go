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


package reconcile

import (
	"context"

	"github.com/poiesic/pawgraph/core"
)

const (
	// DefaultBatchSize is the default number of records to fetch in each batch
	DefaultBatchSize = 100
)

// FetchFunc returns up to limit records with ID > afterID, ordered by ID.
type FetchFunc[T any] func(ctx context.Context, afterID core.ID, limit int) ([]*T, error)

// Iterator walks a collection in ID order, one batch at a time.
type Iterator[T any] struct {
	fetch     FetchFunc[T]
	idOf      func(*T) core.ID
	batchSize int
}

// NewIterator creates a new iterator.
// batchSize: number of records to fetch in each batch (DefaultBatchSize if <= 0)
func NewIterator[T any](fetch FetchFunc[T], idOf func(*T) core.ID, batchSize int) *Iterator[T] {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Iterator[T]{
		fetch:     fetch,
		idOf:      idOf,
		batchSize: batchSize,
	}
}

// NewPostIterator iterates posts through fetch, typically PostRepository.GetPostsAfterID.
func NewPostIterator(fetch FetchFunc[core.Post], batchSize int) *Iterator[core.Post] {
	return NewIterator(fetch, func(p *core.Post) core.ID { return p.Id }, batchSize)
}

// NewCommentIterator iterates comments through fetch, typically CommentRepository.GetCommentsAfterID.
func NewCommentIterator(fetch FetchFunc[core.Comment], batchSize int) *Iterator[core.Comment] {
	return NewIterator(fetch, func(c *core.Comment) core.ID { return c.Id }, batchSize)
}

// ForEach calls fn for each batch of records with ID > after.
// fn receives the batch and the ID of its last record.
// Iteration stops on first error from fn or when all records are processed.
// Context cancellation is checked between batches.
func (it *Iterator[T]) ForEach(ctx context.Context, after core.ID, fn func(batch []*T, last core.ID) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := it.fetch(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		after = it.idOf(batch[len(batch)-1])
		if err := fn(batch, after); err != nil {
			return err
		}

		if len(batch) < it.batchSize {
			return nil
		}
	}
}
