package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/pawgraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slicePosts serves posts with IDs 1..n in ID order.
func slicePosts(n int, calls *int) FetchFunc[core.Post] {
	return func(ctx context.Context, afterID core.ID, limit int) ([]*core.Post, error) {
		*calls++
		var out []*core.Post
		for id := afterID + 1; id <= core.ID(n) && len(out) < limit; id++ {
			out = append(out, &core.Post{Id: id})
		}
		return out, nil
	}
}

func TestIterator_Batches(t *testing.T) {
	calls := 0
	it := NewPostIterator(slicePosts(7, &calls), 3)

	var sizes []int
	var lasts []core.ID
	err := it.ForEach(context.Background(), 0, func(batch []*core.Post, last core.ID) error {
		sizes = append(sizes, len(batch))
		lasts = append(lasts, last)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Equal(t, []core.ID{3, 6, 7}, lasts)
	assert.Equal(t, 3, calls, "a short batch ends iteration")
}

func TestIterator_ExactMultiple(t *testing.T) {
	calls := 0
	it := NewPostIterator(slicePosts(6, &calls), 3)

	total := 0
	err := it.ForEach(context.Background(), 0, func(batch []*core.Post, _ core.ID) error {
		total += len(batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Equal(t, 3, calls, "an empty batch ends iteration")
}

func TestIterator_StartsAfter(t *testing.T) {
	calls := 0
	it := NewPostIterator(slicePosts(5, &calls), 0)

	var ids []core.ID
	err := it.ForEach(context.Background(), 3, func(batch []*core.Post, _ core.ID) error {
		for _, p := range batch {
			ids = append(ids, p.Id)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{4, 5}, ids)
}

func TestIterator_StopsOnError(t *testing.T) {
	calls := 0
	it := NewPostIterator(slicePosts(10, &calls), 2)
	boom := errors.New("boom")

	batches := 0
	err := it.ForEach(context.Background(), 0, func([]*core.Post, core.ID) error {
		batches++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, batches)
}

func TestIterator_ContextCanceled(t *testing.T) {
	calls := 0
	it := NewPostIterator(slicePosts(10, &calls), 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := it.ForEach(ctx, 0, func([]*core.Post, core.ID) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
