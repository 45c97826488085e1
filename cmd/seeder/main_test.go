package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/pawgraph"
	"github.com/poiesic/pawgraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoSeed(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	seed := demoSeed(now)

	require.Len(t, seed.Users, 8)
	require.Len(t, seed.Posts, 8)
	assert.Len(t, seed.Pets, 6)

	thor := seed.Posts[1]
	assert.Equal(t, core.ID(102), thor.Id)
	assert.Equal(t, core.ID(2), thor.AuthorId)
	assert.Equal(t, 8, thor.LikesCount)
	assert.Equal(t, 1, thor.CommentsCount)
	assert.Equal(t, now.Add(-2*time.Hour), thor.CreatedAt)
}

func TestApply_Idempotent(t *testing.T) {
	db, err := pawgraph.NewDatabase("", pawgraph.WithInMemory())
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	seed := demoSeed(time.Now())
	require.NoError(t, apply(ctx, db, seed))
	require.NoError(t, apply(ctx, db, demoSeed(time.Now())))

	users, err := db.UserRepository().ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 8)

	posts, err := db.PostRepository().GetAllPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 8)
	assert.Equal(t, core.ID(101), posts[0].Id, "newest first")

	pets, err := db.PetRepository().GetUserPets(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, "Luna", pets[0].Name)
}

func TestLoadSeed(t *testing.T) {
	file := filepath.Join(t.TempDir(), "seed.json")
	data := `{
		"users": [{"Id": 10, "Username": "zoe", "Name": "Zoe"}],
		"pets": [{"OwnerId": 10, "Name": "Pipoca", "Type": "cat"}],
		"posts": [{"Id": 500, "AuthorId": 10, "Content": "Pipoca!", "LikesCount": 2}]
	}`
	require.NoError(t, os.WriteFile(file, []byte(data), 0644))

	seed, err := loadSeed(file)
	require.NoError(t, err)
	require.Len(t, seed.Users, 1)
	assert.Equal(t, "zoe", seed.Users[0].Username)
	require.Len(t, seed.Posts, 1)
	assert.Equal(t, 2, seed.Posts[0].LikesCount)

	_, err = loadSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = loadSeed(bad)
	assert.ErrorContains(t, err, "parse")
}
