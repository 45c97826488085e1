package feed

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/interaction"
	"github.com/poiesic/pawgraph/storage"
)

// Item is a post as shown to one viewer.
type Item struct {
	Post    *core.Post
	Author  *core.User // nil when the author is unknown
	IsLiked bool
	IsSaved bool
}

// CommentItem is a comment as shown to one viewer.
type CommentItem struct {
	Comment *core.Comment
	Author  *core.User
	IsLiked bool
}

// Profile is a user's page as shown to one viewer.
type Profile struct {
	User           *core.User
	Pets           []*core.Pet
	Posts          []*core.Post
	FollowerCount  int
	FollowingCount int
	IsFollowing    bool // Viewer follows User
	IsOwn          bool // Viewer is User
	SavedPosts     []*core.Post // Only populated on the viewer's own profile
}

// Builder composes feed, thread and profile views.
// Per-item lookups run concurrently on a worker pool; results keep their input order.
type Builder struct {
	store  *interaction.Store
	pets   storage.PetRepository
	posts  storage.PostRepository
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithPoolSize sets the worker pool size used to hydrate items.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if b.pool != nil {
			b.pool.Release()
		}
		b.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a new view builder.
func NewBuilder(store *interaction.Store, pets storage.PetRepository, posts storage.PostRepository, opts ...Option) (*Builder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if pets == nil {
		return nil, ErrPetRepositoryRequired
	}
	if posts == nil {
		return nil, ErrPostRepositoryRequired
	}

	pool, err := ants.NewPool(max(1, runtime.NumCPU()))
	if err != nil {
		return nil, err
	}

	b := &Builder{
		store:  store,
		pets:   pets,
		posts:  posts,
		pool:   pool,
		logger: slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}

	return b, nil
}

// Release releases the worker pool.
// The builder should not be used after calling Release.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

// Feed returns up to limit posts, newest first, with the viewer's like and
// save flags. Anonymous viewers get false flags.
func (b *Builder) Feed(ctx context.Context, session Session, limit int) ([]*Item, error) {
	posts, err := b.posts.GetRecentPosts(ctx, limit)
	if err != nil {
		b.logger.Error("error loading recent posts", "limit", limit, "err", err)
		return nil, err
	}
	return b.items(ctx, viewerID(session), posts)
}

func (b *Builder) items(ctx context.Context, viewer core.ID, posts []*core.Post) ([]*Item, error) {
	return hydrate(ctx, b.pool, posts, func(ctx context.Context, post *core.Post) (*Item, error) {
		item := &Item{Post: post}
		var err error
		if item.Author, err = b.store.User(ctx, post.AuthorId); err != nil {
			return nil, err
		}
		if item.IsLiked, err = b.store.IsPostLiked(ctx, viewer, post.Id); err != nil {
			return nil, err
		}
		if item.IsSaved, err = b.store.IsPostSaved(ctx, viewer, post.Id); err != nil {
			return nil, err
		}
		return item, nil
	})
}

// Thread returns the comments of postID, newest first, with the viewer's like flags.
func (b *Builder) Thread(ctx context.Context, session Session, postID core.ID) ([]*CommentItem, error) {
	comments, err := b.store.PostComments(ctx, postID)
	if err != nil {
		b.logger.Error("error loading comments", "post", postID, "err", err)
		return nil, err
	}

	viewer := viewerID(session)
	return hydrate(ctx, b.pool, comments, func(ctx context.Context, comment *core.Comment) (*CommentItem, error) {
		item := &CommentItem{Comment: comment}
		var err error
		if item.Author, err = b.store.User(ctx, comment.AuthorId); err != nil {
			return nil, err
		}
		if item.IsLiked, err = b.store.IsCommentLiked(ctx, viewer, comment.Id); err != nil {
			return nil, err
		}
		return item, nil
	})
}

// Profile returns the profile of userID as seen by the viewer.
// Returns ErrUserNotFound if the user doesn't exist.
func (b *Builder) Profile(ctx context.Context, session Session, userID core.ID) (*Profile, error) {
	user, err := b.store.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	viewer := viewerID(session)
	profile := &Profile{User: user, IsOwn: viewer != 0 && viewer == userID}

	if profile.Pets, err = b.pets.GetUserPets(ctx, userID); err != nil {
		return nil, err
	}
	if profile.Posts, err = b.posts.GetPostsByAuthor(ctx, userID); err != nil {
		return nil, err
	}
	if profile.FollowerCount, err = b.store.FollowerCount(ctx, userID); err != nil {
		return nil, err
	}
	if profile.FollowingCount, err = b.store.FollowingCount(ctx, userID); err != nil {
		return nil, err
	}

	if profile.IsOwn {
		if profile.SavedPosts, err = b.store.SavedPosts(ctx, userID); err != nil {
			return nil, err
		}
	} else if profile.IsFollowing, err = b.store.IsFollowing(ctx, viewer, userID); err != nil {
		return nil, err
	}

	return profile, nil
}

// hydrate runs fn for every input on pool and returns the outputs in input order.
func hydrate[In, Out any](ctx context.Context, pool *ants.Pool, in []In, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(in))
	errs := make([]error, len(in))

	var wg sync.WaitGroup
	for i, v := range in {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			out[i], errs[i] = fn(ctx, v)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}
