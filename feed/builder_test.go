package feed

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/interaction"
	"github.com/poiesic/pawgraph/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repos   *badger.Repositories
	store   *interaction.Store
	builder *Builder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	store, err := interaction.NewStore(repos.Users, repos.Posts, repos.Comments, repos.Interactions)
	require.NoError(t, err)

	builder, err := NewBuilder(store, repos.Pets, repos.Posts, opts...)
	require.NoError(t, err)
	t.Cleanup(builder.Release)

	ctx := context.Background()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	_, err = repos.Users.AddUsers(ctx,
		&core.User{Id: 1, Name: "Maria Silva", Username: "maria"},
		&core.User{Id: 2, Name: "João Santos", Username: "joao"},
	)
	require.NoError(t, err)
	_, err = repos.Posts.AddPosts(ctx,
		&core.Post{Id: 101, AuthorId: 1, Content: "Luna at the park", CreatedAt: base, LikesCount: 3},
		&core.Post{Id: 102, AuthorId: 2, Content: "Thor's new toy", CreatedAt: base.Add(time.Hour), LikesCount: 8},
		&core.Post{Id: 103, AuthorId: 1, Content: "Nap time", CreatedAt: base.Add(2 * time.Hour)},
	)
	require.NoError(t, err)

	return &fixture{repos: repos, store: store, builder: builder}
}

func TestNewBuilder_Requirements(t *testing.T) {
	_, err := NewBuilder(nil, nil, nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestFeed_Anonymous(t *testing.T) {
	f := newFixture(t)

	items, err := f.builder.Feed(context.Background(), Anonymous, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, core.ID(103), items[0].Post.Id)
	assert.Equal(t, core.ID(102), items[1].Post.Id)
	assert.Equal(t, core.ID(101), items[2].Post.Id)
	assert.Equal(t, "joao", items[1].Author.Username)
	for _, item := range items {
		assert.False(t, item.IsLiked)
		assert.False(t, item.IsSaved)
	}
}

func TestFeed_ViewerFlags(t *testing.T) {
	f := newFixture(t, WithPoolSize(2))
	ctx := context.Background()

	_, err := f.store.TogglePostLike(ctx, 2, 101)
	require.NoError(t, err)
	_, err = f.store.TogglePostSave(ctx, 2, 103)
	require.NoError(t, err)

	viewer := AsUser(core.SessionUser{Id: 2, Username: "joao"})
	items, err := f.builder.Feed(ctx, viewer, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.True(t, items[0].IsSaved)
	assert.False(t, items[0].IsLiked)
	assert.True(t, items[2].IsLiked)
	assert.Equal(t, 4, items[2].Post.LikesCount)

	limited, err := f.builder.Feed(ctx, viewer, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.store.AddComment(ctx, 2, 101, "What a good girl")
	require.NoError(t, err)
	_, err = f.store.AddComment(ctx, 1, 101, "Thanks!")
	require.NoError(t, err)
	_, err = f.store.ToggleCommentLike(ctx, 1, first.Id)
	require.NoError(t, err)

	thread, err := f.builder.Thread(ctx, AsUser(core.SessionUser{Id: 1}), 101)
	require.NoError(t, err)
	require.Len(t, thread, 2)

	// Newest first; both were created within the same test so compare by ID
	var liked *CommentItem
	for _, item := range thread {
		if item.Comment.Id == first.Id {
			liked = item
		}
	}
	require.NotNil(t, liked)
	assert.True(t, liked.IsLiked)
	assert.Equal(t, 1, liked.Comment.LikesCount)
	assert.Equal(t, "joao", liked.Author.Username)

	empty, err := f.builder.Thread(ctx, Anonymous, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProfile_Own(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repos.Pets.GetOrCreatePet(ctx, 1, "Luna", "Golden Retriever")
	require.NoError(t, err)
	_, err = f.store.ToggleFollow(ctx, 2, 1)
	require.NoError(t, err)
	_, err = f.store.TogglePostSave(ctx, 1, 102)
	require.NoError(t, err)

	profile, err := f.builder.Profile(ctx, AsUser(core.SessionUser{Id: 1}), 1)
	require.NoError(t, err)
	assert.True(t, profile.IsOwn)
	assert.False(t, profile.IsFollowing)
	assert.Equal(t, 1, profile.FollowerCount)
	assert.Zero(t, profile.FollowingCount)
	require.Len(t, profile.Pets, 1)
	assert.Equal(t, "Luna", profile.Pets[0].Name)
	require.Len(t, profile.Posts, 2)
	assert.Equal(t, core.ID(103), profile.Posts[0].Id)
	require.Len(t, profile.SavedPosts, 1)
	assert.Equal(t, core.ID(102), profile.SavedPosts[0].Id)
}

func TestProfile_Other(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.ToggleFollow(ctx, 2, 1)
	require.NoError(t, err)
	_, err = f.store.TogglePostSave(ctx, 1, 102)
	require.NoError(t, err)

	profile, err := f.builder.Profile(ctx, AsUser(core.SessionUser{Id: 2}), 1)
	require.NoError(t, err)
	assert.False(t, profile.IsOwn)
	assert.True(t, profile.IsFollowing)
	assert.Empty(t, profile.SavedPosts, "saved posts are private")

	anon, err := f.builder.Profile(ctx, Anonymous, 1)
	require.NoError(t, err)
	assert.False(t, anon.IsOwn)
	assert.False(t, anon.IsFollowing)
}

func TestProfile_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.builder.Profile(context.Background(), Anonymous, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSession(t *testing.T) {
	_, ok := Anonymous.CurrentUser()
	assert.False(t, ok)

	user, ok := AsUser(core.SessionUser{Id: 7, Name: "Ana"}).CurrentUser()
	require.True(t, ok)
	assert.Equal(t, core.ID(7), user.Id)

	assert.Zero(t, viewerID(nil))
	assert.Zero(t, viewerID(AsUser(core.SessionUser{})))
}
