package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/poiesic/pawgraph"
	"github.com/poiesic/pawgraph/config"
	"github.com/poiesic/pawgraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testConfig(dbPath string) *config.Config {
	return &config.Config{DB: dbPath, LogLevel: "error", ReconcileBatch: 50}
}

// seedDB stores two users and the 102 demo post, then closes the store.
func seedDB(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "db")
	db, err := pawgraph.NewDatabase(dir)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.UserRepository().AddUsers(ctx,
		&core.User{Id: 1, Name: "Alice", Username: "alice"},
		&core.User{Id: 2, Name: "Bob", Username: "bob"},
	)
	require.NoError(t, err)
	_, err = db.PostRepository().AddPosts(ctx, &core.Post{
		Id: 102, AuthorId: 2, Content: "Thor is a playful pup ready for adventure!", LikesCount: 8, CommentsCount: 1,
	})
	require.NoError(t, err)
	return dir
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp(cfg)
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"pawgraph"}, args...))
	return out.String(), err
}

func findFlag[F cli.Flag](flags []cli.Flag, name string) F {
	var zero F
	for _, flag := range flags {
		if f, ok := flag.(F); ok && flag.Names()[0] == name {
			return f
		}
	}
	return zero
}

func command(app *cli.App, name string) *cli.Command {
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func TestFlagsDefaultFromConfig(t *testing.T) {
	app := newApp(&config.Config{DB: "/var/pets", LogLevel: "warn", FeedWorkers: 3, ReconcileBatch: 25})

	db := findFlag[*cli.StringFlag](app.Flags, "db")
	require.NotNil(t, db)
	assert.Equal(t, "/var/pets", db.Value)

	level := findFlag[*cli.StringFlag](app.Flags, "log-level")
	require.NotNil(t, level)
	assert.Equal(t, "warn", level.Value)

	batch := findFlag[*cli.IntFlag](command(app, "reconcile").Flags, "batch-size")
	require.NotNil(t, batch)
	assert.Equal(t, 25, batch.Value)

	workers := findFlag[*cli.IntFlag](command(app, "feed").Flags, "workers")
	require.NotNil(t, workers)
	assert.Equal(t, 3, workers.Value)
}

func TestRequiredFlags(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "db"))

	_, err := run(t, cfg, "save", "--post", "102")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "as")

	_, err = run(t, cfg, "follow", "--as", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")

	_, err = run(t, cfg, "like", "--as", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of --post or --comment")
}

func TestInvalidLogLevel(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "db"))

	_, err := run(t, cfg, "--log-level", "loud", "feed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLikeToggleScenario(t *testing.T) {
	cfg := testConfig(seedDB(t))

	out, err := run(t, cfg, "like", "--as", "5", "--post", "102")
	require.NoError(t, err)
	assert.Contains(t, out, "liked post 102 (9 likes)")

	out, err = run(t, cfg, "like", "--as", "5", "--post", "102")
	require.NoError(t, err)
	assert.Contains(t, out, "unliked post 102 (8 likes)")

	out, err = run(t, cfg, "like", "--as", "5", "--post", "999")
	require.NoError(t, err)
	assert.Contains(t, out, "post 999 does not exist")
}

func TestFeedAndSocialCommands(t *testing.T) {
	cfg := testConfig(seedDB(t))

	out, err := run(t, cfg, "save", "--as", "1", "--post", "102")
	require.NoError(t, err)
	assert.Contains(t, out, "saved post 102 (1 saves)")

	out, err = run(t, cfg, "follow", "--as", "1", "--user", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "following user 2 (1 followers)")

	out, err = run(t, cfg, "feed", "--as", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "#102 bob: Thor is a playful pup")
	assert.Contains(t, out, "[saved]")

	out, err = run(t, cfg, "comment", "--as", "1", "--post", "102", "--text", "  Good boy!  ")
	require.NoError(t, err)
	assert.Contains(t, out, "added comment 1 to post 102")

	out, err = run(t, cfg, "like", "--as", "2", "--comment", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "liked comment 1 (1 likes)")

	out, err = run(t, cfg, "comments", "--post", "102", "--as", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "alice: Good boy! (1 likes) [liked]")

	out, err = run(t, cfg, "profile", "--user", "2", "--as", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Bob (@bob) [following]")
	assert.Contains(t, out, "1 followers, 0 following, 1 posts")

	_, err = run(t, cfg, "comment", "--as", "1", "--post", "102", "--text", "   ")
	assert.Error(t, err)
}

func TestReconcileCommand(t *testing.T) {
	dir := seedDB(t)
	cfg := testConfig(dir)

	_, err := run(t, cfg, "reconcile", "--batch-size", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch-size must be greater than 0")

	_, err = run(t, cfg, "reconcile")
	require.NoError(t, err)

	db, err := pawgraph.NewDatabase(dir)
	require.NoError(t, err)
	defer db.Close()
	post, err := db.PostRepository().GetPost(context.Background(), 102)
	require.NoError(t, err)
	assert.Zero(t, post.LikesCount)
	assert.Zero(t, post.CommentsCount)
}
