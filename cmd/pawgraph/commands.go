package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/pawgraph"
	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/feed"
	"github.com/poiesic/pawgraph/reconcile"
	"github.com/urfave/cli/v2"
)

func openDatabase(c *cli.Context) (*pawgraph.Database, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	db, err := pawgraph.NewDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// session resolves --as into a feed session. Unknown users keep their ID
// so interactions still attach to it.
func session(ctx context.Context, c *cli.Context, db *pawgraph.Database) (feed.Session, error) {
	id := core.ID(c.Uint64("as"))
	if id == 0 {
		return feed.Anonymous, nil
	}
	user, err := db.Interactions().User(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return feed.AsUser(core.SessionUser{Id: id}), nil
	}
	return feed.AsUser(user.Summary()), nil
}

func displayName(user *core.User, id core.ID) string {
	if user == nil {
		return fmt.Sprintf("user %d", id)
	}
	return user.DisplayName()
}

func mark(on bool, yes string) string {
	if on {
		return yes
	}
	return ""
}

func feedCommand(c *cli.Context) error {
	ctx := context.Background()
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var opts []feed.Option
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, feed.WithPoolSize(workers))
	}
	builder, err := db.NewFeedBuilder(opts...)
	if err != nil {
		return err
	}
	defer builder.Release()

	viewer, err := session(ctx, c, db)
	if err != nil {
		return err
	}
	items, err := builder.Feed(ctx, viewer, c.Int("limit"))
	if err != nil {
		return err
	}

	out := c.App.Writer
	if len(items) == 0 {
		fmt.Fprintln(out, "No posts yet")
		return nil
	}
	for _, item := range items {
		p := item.Post
		fmt.Fprintf(out, "#%d %s: %s\n", p.Id, displayName(item.Author, p.AuthorId), p.Content)
		fmt.Fprintf(out, "    %d likes, %d comments %s%s\n", p.LikesCount, p.CommentsCount,
			mark(item.IsLiked, "[liked]"), mark(item.IsSaved, "[saved]"))
	}
	return nil
}

func likeCommand(c *cli.Context) error {
	ctx := context.Background()
	postID, commentID := core.ID(c.Uint64("post")), core.ID(c.Uint64("comment"))
	if (postID == 0) == (commentID == 0) {
		return fmt.Errorf("exactly one of --post or --comment is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	userID := core.ID(c.Uint64("as"))
	if commentID != 0 {
		res, err := db.Interactions().ToggleCommentLike(ctx, userID, commentID)
		if err != nil {
			return err
		}
		return report(c, res, "liked", "unliked", fmt.Sprintf("comment %d", commentID), "likes")
	}

	res, err := db.Interactions().TogglePostLike(ctx, userID, postID)
	if err != nil {
		return err
	}
	return report(c, res, "liked", "unliked", fmt.Sprintf("post %d", postID), "likes")
}

func saveCommand(c *cli.Context) error {
	ctx := context.Background()
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	postID := core.ID(c.Uint64("post"))
	res, err := db.Interactions().TogglePostSave(ctx, core.ID(c.Uint64("as")), postID)
	if err != nil {
		return err
	}
	return report(c, res, "saved", "unsaved", fmt.Sprintf("post %d", postID), "saves")
}

func followCommand(c *cli.Context) error {
	ctx := context.Background()
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	followee := core.ID(c.Uint64("user"))
	res, err := db.Interactions().ToggleFollow(ctx, core.ID(c.Uint64("as")), followee)
	if err != nil {
		return err
	}
	return report(c, res, "following", "not following", fmt.Sprintf("user %d", followee), "followers")
}

func report(c *cli.Context, res core.ToggleResult, on, off, target, unit string) error {
	state := off
	if res.Active {
		state = on
	}
	fmt.Fprintf(c.App.Writer, "%s %s (%d %s)\n", state, target, res.Count, unit)
	if !res.TargetFound {
		fmt.Fprintf(c.App.Writer, "note: %s does not exist\n", target)
	}
	return nil
}

func commentCommand(c *cli.Context) error {
	ctx := context.Background()
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	postID := core.ID(c.Uint64("post"))
	comment, err := db.Interactions().AddComment(ctx, core.ID(c.Uint64("as")), postID, c.String("text"))
	if err != nil {
		return err
	}
	if comment == nil {
		return fmt.Errorf("comment text is empty")
	}
	fmt.Fprintf(c.App.Writer, "added comment %d to post %d\n", comment.Id, postID)
	return nil
}

func commentsCommand(c *cli.Context) error {
	ctx := context.Background()
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	builder, err := db.NewFeedBuilder()
	if err != nil {
		return err
	}
	defer builder.Release()

	viewer, err := session(ctx, c, db)
	if err != nil {
		return err
	}
	thread, err := builder.Thread(ctx, viewer, core.ID(c.Uint64("post")))
	if err != nil {
		return err
	}

	out := c.App.Writer
	if len(thread) == 0 {
		fmt.Fprintln(out, "No comments yet")
		return nil
	}
	for _, item := range thread {
		cm := item.Comment
		fmt.Fprintf(out, "#%d %s: %s (%d likes) %s\n", cm.Id, displayName(item.Author, cm.AuthorId),
			cm.Content, cm.LikesCount, mark(item.IsLiked, "[liked]"))
	}
	return nil
}

func profileCommand(c *cli.Context) error {
	ctx := context.Background()
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	builder, err := db.NewFeedBuilder()
	if err != nil {
		return err
	}
	defer builder.Release()

	viewer, err := session(ctx, c, db)
	if err != nil {
		return err
	}
	profile, err := builder.Profile(ctx, viewer, core.ID(c.Uint64("user")))
	if err != nil {
		return err
	}

	out := c.App.Writer
	u := profile.User
	fmt.Fprintf(out, "%s (@%s) %s\n", u.Name, u.Username, mark(profile.IsFollowing, "[following]"))
	if u.Bio != "" {
		fmt.Fprintln(out, u.Bio)
	}
	fmt.Fprintf(out, "%d followers, %d following, %d posts\n", profile.FollowerCount, profile.FollowingCount, len(profile.Posts))

	if len(profile.Pets) > 0 {
		names := make([]string, len(profile.Pets))
		for i, pet := range profile.Pets {
			names[i] = pet.Name
		}
		fmt.Fprintf(out, "Pets: %s\n", strings.Join(names, ", "))
	}
	for _, p := range profile.Posts {
		fmt.Fprintf(out, "  #%d %s\n", p.Id, p.Content)
	}
	if profile.IsOwn {
		fmt.Fprintf(out, "Saved: %d posts\n", len(profile.SavedPosts))
	}
	return nil
}

func reconcileCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg := &reconcile.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	reconciler, err := db.NewReconciler(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n\n", c.String("db"))
	if _, err := reconciler.Run(ctx); err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}
	return nil
}
