package badger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	writers = 8
	rounds  = 40
)

// outcome tallies concurrent writes: successes, conflicts, and anything else.
type outcome struct {
	mu        sync.Mutex
	succeeded int
	conflicts int
	failures  []error
}

func (o *outcome) record(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case err == nil:
		o.succeeded++
	case errors.Is(err, storage.ErrTransactionFailed):
		o.conflicts++
	default:
		o.failures = append(o.failures, err)
	}
}

// runWriters calls write(worker, round) from every worker concurrently.
func runWriters(write func(worker, round int) error) *outcome {
	out := &outcome{}
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range rounds {
				out.record(write(w, r))
			}
		}()
	}
	wg.Wait()
	return out
}

func TestAddComment_ConcurrentWritersKeepEveryComment(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	for w := range writers {
		seedPost(t, repos, core.ID(101+w), 0, 0)
	}

	out := runWriters(func(w, _ int) error {
		_, err := repos.Comments.AddComment(ctx, &core.Comment{PostId: core.ID(101 + w), AuthorId: 1, Content: "woof"})
		return err
	})
	require.Empty(t, out.failures)
	require.NotZero(t, out.succeeded)
	t.Logf("%d comments added, %d conflicts", out.succeeded, out.conflicts)

	stored, err := repos.Comments.GetCommentsAfterID(ctx, 0, writers*rounds)
	require.NoError(t, err)
	assert.Len(t, stored, out.succeeded, "every successful AddComment is stored")

	seen := make(map[core.ID]bool, len(stored))
	for _, c := range stored {
		assert.False(t, seen[c.Id], "comment id %d assigned twice", c.Id)
		seen[c.Id] = true
	}

	total := 0
	for w := range writers {
		postID := core.ID(101 + w)
		post, err := repos.Posts.GetPost(ctx, postID)
		require.NoError(t, err)
		thread, err := repos.Comments.GetPostComments(ctx, postID)
		require.NoError(t, err)
		assert.Equal(t, len(thread), post.CommentsCount, "post %d", postID)
		total += post.CommentsCount
	}
	assert.Equal(t, out.succeeded, total)
}

func TestAddPosts_ConcurrentWritersGetUniqueIDs(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	out := runWriters(func(w, _ int) error {
		_, err := repos.Posts.AddPosts(ctx, &core.Post{AuthorId: core.ID(w + 1), Content: "new pup"})
		return err
	})
	require.Empty(t, out.failures)
	require.NotZero(t, out.succeeded)

	stored, err := repos.Posts.GetPostsAfterID(ctx, 0, writers*rounds)
	require.NoError(t, err)
	assert.Len(t, stored, out.succeeded)

	seen := make(map[core.ID]bool, len(stored))
	for _, p := range stored {
		assert.False(t, seen[p.Id], "post id %d assigned twice", p.Id)
		seen[p.Id] = true
	}

	// The feed index agrees with the records
	recent, err := repos.Posts.GetAllPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, recent, out.succeeded)
}

func TestToggle_ConcurrentSamePair(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	seedPost(t, repos, 102, 0, 0)

	out := runWriters(func(_, _ int) error {
		_, err := repos.Interactions.Toggle(ctx, core.LikesPost, 5, 102)
		return err
	})
	require.Empty(t, out.failures)
	require.NotZero(t, out.succeeded)

	liked, err := repos.Interactions.Has(ctx, core.LikesPost, 5, 102)
	require.NoError(t, err)
	assert.Equal(t, out.succeeded%2 == 1, liked, "membership follows the committed toggles")

	post, err := repos.Posts.GetPost(ctx, 102)
	require.NoError(t, err)
	likes, err := repos.Interactions.CountBySecond(ctx, core.LikesPost, 102)
	require.NoError(t, err)
	assert.Equal(t, likes, post.LikesCount)
}

func TestToggle_ConcurrentUsersCounterMatchesRelation(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	seedPost(t, repos, 103, 0, 0)

	// Each worker is its own user and flips its like every round
	out := runWriters(func(w, _ int) error {
		_, err := repos.Interactions.Toggle(ctx, core.LikesPost, core.ID(w+1), 103)
		return err
	})
	require.Empty(t, out.failures)

	post, err := repos.Posts.GetPost(ctx, 103)
	require.NoError(t, err)
	likes, err := repos.Interactions.CountBySecond(ctx, core.LikesPost, 103)
	require.NoError(t, err)
	assert.Equal(t, likes, post.LikesCount)
}
