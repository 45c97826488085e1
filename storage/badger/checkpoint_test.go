package badger

import (
	"context"
	"testing"

	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	cp, err := repos.Checkpoints.LoadCheckpoint(ctx, "reconcile")
	require.NoError(t, err)
	assert.Nil(t, cp)

	require.NoError(t, repos.Checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{ProcessorType: "reconcile", LastId: 104}))

	cp, err = repos.Checkpoints.LoadCheckpoint(ctx, "reconcile")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, core.ID(104), cp.LastId)
	assert.False(t, cp.UpdatedAt.IsZero())

	// Processors are independent
	other, err := repos.Checkpoints.LoadCheckpoint(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, repos.Checkpoints.ClearCheckpoint(ctx, "reconcile"))
	cp, err = repos.Checkpoints.LoadCheckpoint(ctx, "reconcile")
	require.NoError(t, err)
	assert.Nil(t, cp)

	err = repos.Checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestCheckpointRepository_NamesDoNotCollideWithCollections(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for _, name := range []string{postsCollection, usersCollection, commentsCollection} {
		require.NoError(t, repos.Checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{ProcessorType: name, LastId: 7}))
	}

	posts, err := repos.Posts.GetPostsAfterID(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)

	users, err := repos.Users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	comments, err := repos.Comments.GetCommentsAfterID(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, comments)

	cp, err := repos.Checkpoints.LoadCheckpoint(ctx, postsCollection)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, core.ID(7), cp.LastId)
}
