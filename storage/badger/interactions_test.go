package badger

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPost(t *testing.T, repos *Repositories, id core.ID, likes, comments int) {
	t.Helper()
	_, err := repos.Posts.AddPosts(context.Background(), &core.Post{
		Id: id, AuthorId: 1, Content: "post", LikesCount: likes, CommentsCount: comments,
	})
	require.NoError(t, err)
}

func TestToggle_LikeScenario(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	seedPost(t, repos, 102, 8, 1)

	res, err := repos.Interactions.Toggle(ctx, core.LikesPost, 5, 102)
	require.NoError(t, err)
	assert.Equal(t, core.ToggleResult{Active: true, Count: 9, TargetFound: true}, res)

	res, err = repos.Interactions.Toggle(ctx, core.LikesPost, 5, 102)
	require.NoError(t, err)
	assert.Equal(t, core.ToggleResult{Active: false, Count: 8, TargetFound: true}, res)

	post, err := repos.Posts.GetPost(ctx, 102)
	require.NoError(t, err)
	assert.Equal(t, 8, post.LikesCount)

	liked, err := repos.Interactions.Has(ctx, core.LikesPost, 5, 102)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestToggle_CounterFloor(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	seedPost(t, repos, 1, 0, 0)

	// Desynchronize: pair present while the counter says zero
	update(t, repos.Backend, func(tx *badger.Txn) error {
		_, err := NewRelationIndex(core.LikesPost).Add(tx, 3, 1)
		return err
	})

	res, err := repos.Interactions.Toggle(ctx, core.LikesPost, 3, 1)
	require.NoError(t, err)
	assert.False(t, res.Active)
	assert.Equal(t, 0, res.Count)
}

func TestToggle_RelationCounterAgreement(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	seedPost(t, repos, 7, 0, 0)

	users := []core.ID{1, 2, 3, 2, 4, 1, 5, 2, 3}
	for _, u := range users {
		_, err := repos.Interactions.Toggle(ctx, core.LikesPost, u, 7)
		require.NoError(t, err)
	}

	post, err := repos.Posts.GetPost(ctx, 7)
	require.NoError(t, err)
	n, err := repos.Interactions.CountBySecond(ctx, core.LikesPost, 7)
	require.NoError(t, err)
	assert.Equal(t, n, post.LikesCount)

	likers, err := repos.Interactions.ListBySecond(ctx, core.LikesPost, 7)
	require.NoError(t, err)
	// 1 twice, 2 three times, 3 twice, 4 once, 5 once
	assert.Equal(t, []core.ID{2, 4, 5}, likers)
}

func TestToggle_CommentLike(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	comment, err := repos.Comments.AddComment(ctx, &core.Comment{PostId: 1, AuthorId: 2, Content: "nice"})
	require.NoError(t, err)

	res, err := repos.Interactions.Toggle(ctx, core.LikesComment, 9, comment.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ToggleResult{Active: true, Count: 1, TargetFound: true}, res)

	stored, err := repos.Comments.GetComment(ctx, comment.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LikesCount)
}

func TestToggle_MissingTarget(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	res, err := repos.Interactions.Toggle(ctx, core.LikesPost, 1, 999)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.False(t, res.TargetFound)
	assert.Zero(t, res.Count)

	// Bookkeeping still happened
	has, err := repos.Interactions.Has(ctx, core.LikesPost, 1, 999)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestToggle_SaveCountsCardinality(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	seedPost(t, repos, 101, 3, 0)

	res, err := repos.Interactions.Toggle(ctx, core.SavesPost, 1, 101)
	require.NoError(t, err)
	assert.Equal(t, core.ToggleResult{Active: true, Count: 1, TargetFound: true}, res)

	res, err = repos.Interactions.Toggle(ctx, core.SavesPost, 2, 101)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	saved, err := repos.Interactions.ListByFirst(ctx, core.SavesPost, 1)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{101}, saved)

	// Saves never touch the likes counter
	post, err := repos.Posts.GetPost(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, 3, post.LikesCount)
}

func TestToggle_FollowAsymmetry(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	_, err := repos.Users.AddUsers(ctx, &core.User{Id: 1, Username: "a"}, &core.User{Id: 2, Username: "b"})
	require.NoError(t, err)

	res, err := repos.Interactions.Toggle(ctx, core.Follows, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, core.ToggleResult{Active: true, Count: 1, TargetFound: true}, res)

	following, err := repos.Interactions.Has(ctx, core.Follows, 1, 2)
	require.NoError(t, err)
	assert.True(t, following)

	reverse, err := repos.Interactions.Has(ctx, core.Follows, 2, 1)
	require.NoError(t, err)
	assert.False(t, reverse)

	n, err := repos.Interactions.CountByFirst(ctx, core.Follows, 2)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSet_Idempotent(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	seedPost(t, repos, 5, 2, 0)

	res, err := repos.Interactions.Set(ctx, core.LikesPost, 1, 5, true)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)

	res, err = repos.Interactions.Set(ctx, core.LikesPost, 1, 5, true)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Equal(t, 3, res.Count, "setting an existing state leaves the counter alone")

	res, err = repos.Interactions.Set(ctx, core.LikesPost, 1, 5, false)
	require.NoError(t, err)
	assert.Equal(t, core.ToggleResult{Active: false, Count: 2, TargetFound: true}, res)

	res, err = repos.Interactions.Set(ctx, core.LikesPost, 1, 5, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
}

func TestInteractions_InvalidRelation(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Interactions.Toggle(ctx, core.Relation(42), 1, 2)
	assert.ErrorIs(t, err, core.ErrInvalidRelation)

	_, err = repos.Interactions.Has(ctx, core.Relation(0), 1, 2)
	assert.ErrorIs(t, err, core.ErrInvalidRelation)
}

func TestRecountPost(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	seedPost(t, repos, 102, 8, 1)

	_, err := repos.Interactions.Toggle(ctx, core.LikesPost, 5, 102)
	require.NoError(t, err)
	_, err = repos.Comments.AddComment(ctx, &core.Comment{PostId: 102, AuthorId: 5, Content: "hi"})
	require.NoError(t, err)

	post, err := repos.Interactions.RecountPost(ctx, 102)
	require.NoError(t, err)
	assert.Equal(t, 1, post.LikesCount)
	assert.Equal(t, 1, post.CommentsCount)

	stored, err := repos.Posts.GetPost(ctx, 102)
	require.NoError(t, err)
	assert.Equal(t, post, stored)

	_, err = repos.Interactions.RecountPost(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecountComment(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	comment, err := repos.Comments.AddComment(ctx, &core.Comment{PostId: 1, AuthorId: 2, Content: "nice"})
	require.NoError(t, err)
	update(t, repos.Backend, func(tx *badger.Txn) error {
		likes := NewRelationIndex(core.LikesComment)
		for _, u := range []core.ID{3, 4} {
			if _, err := likes.Add(tx, u, comment.Id); err != nil {
				return err
			}
		}
		return nil
	})

	recounted, err := repos.Interactions.RecountComment(ctx, comment.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, recounted.LikesCount)

	_, err = repos.Interactions.RecountComment(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInteractions_PersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	repos, err := NewRepositories(backend)
	require.NoError(t, err)
	seedPost(t, repos, 102, 8, 0)
	_, err = repos.Interactions.Toggle(ctx, core.LikesPost, 5, 102)
	require.NoError(t, err)
	require.NoError(t, repos.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	repos, err = NewRepositories(backend)
	require.NoError(t, err)
	defer repos.Close()

	liked, err := repos.Interactions.Has(ctx, core.LikesPost, 5, 102)
	require.NoError(t, err)
	assert.True(t, liked)

	post, err := repos.Posts.GetPost(ctx, 102)
	require.NoError(t, err)
	assert.Equal(t, 9, post.LikesCount)
}

func TestRecountPost_IgnoresDeletedComments(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	seedPost(t, repos, 101, 0, 0)

	var ids []core.ID
	for _, text := range []string{"one", "two", "three"} {
		comment, err := repos.Comments.AddComment(ctx, &core.Comment{PostId: 101, AuthorId: 2, Content: text})
		require.NoError(t, err)
		ids = append(ids, comment.Id)
	}

	comments := newCommentCollection(repos.Backend)
	update(t, repos.Backend, func(tx *badger.Txn) error {
		return comments.Delete(tx, ids[1])
	})

	thread, err := repos.Comments.GetPostComments(ctx, 101)
	require.NoError(t, err)
	assert.Len(t, thread, 2)

	post, err := repos.Interactions.RecountPost(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, 2, post.CommentsCount)
}
