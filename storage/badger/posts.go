package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/storage"
)

// PostRepository implements storage.PostRepository for BadgerDB.
type PostRepository struct {
	backend *Backend
	posts   *Collection[core.Post]
}

var _ storage.PostRepository = (*PostRepository)(nil)

func newPostCollection(backend *Backend) *Collection[core.Post] {
	return NewCollection(postsCollection, storage.PostCodec, func(p *core.Post) core.ID { return p.Id }, backend.Logger()).
		WithIndexes(func(p *core.Post) [][]byte {
			return [][]byte{
				makePostDateKey(p.CreatedAt, p.Id),
				makePostAuthorKey(p.AuthorId, p.CreatedAt, p.Id),
			}
		})
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(backend *Backend) *PostRepository {
	return &PostRepository{
		backend: backend,
		posts:   newPostCollection(backend),
	}
}

// Close releases resources. PostRepository has no resources to release.
func (r *PostRepository) Close() error {
	return nil
}

// AddPosts adds one or more posts to storage and returns the stored copies.
// Posts without an ID get the next free one. The caller's posts are not modified.
// Counters supplied by the caller are stored as given; imports use this to
// carry existing counts, and the reconcile job repairs any drift.
func (r *PostRepository) AddPosts(ctx context.Context, posts ...*core.Post) ([]*core.Post, error) {
	for _, post := range posts {
		if err := core.ValidatePost(post); err != nil {
			return nil, err
		}
	}

	added := make([]*core.Post, len(posts))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for i, post := range posts {
			stored := *post
			if stored.Id == 0 {
				id, err := r.posts.NextID(tx)
				if err != nil {
					return err
				}
				stored.Id = id
			}
			stored.CreatedAt = stamp(stored.CreatedAt)
			stored.UpdatedAt = stored.CreatedAt

			if err := r.posts.Insert(tx, &stored); err != nil {
				return err
			}
			added[i] = &stored
		}
		return commit(tx)
	}, true)
	if err != nil {
		return nil, err
	}
	return added, nil
}

// UpdatePost replaces the content and media of an existing post.
// Author, creation time and counters always come from the stored record.
func (r *PostRepository) UpdatePost(ctx context.Context, post *core.Post) (*core.Post, error) {
	var result *core.Post
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		old, err := r.posts.Get(tx, post.Id)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		updated := *old
		updated.Content = post.Content
		updated.MediaUrls = post.MediaUrls
		updated.UpdatedAt = now()
		if err := core.ValidatePost(&updated); err != nil {
			return err
		}

		if err := r.posts.Upsert(tx, &updated); err != nil {
			return err
		}
		result = &updated
		return commit(tx)
	}, true)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetPost retrieves a single post by ID.
func (r *PostRepository) GetPost(ctx context.Context, id core.ID) (*core.Post, error) {
	var result *core.Post
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.posts.Get(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetPosts retrieves multiple posts by their IDs.
func (r *PostRepository) GetPosts(ctx context.Context, ids ...core.ID) ([]*core.Post, error) {
	var result []*core.Post
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			post, err := r.posts.Get(tx, id)
			if err != nil {
				return err
			}
			if post != nil {
				result = append(result, post)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetAllPosts returns every post, newest first.
func (r *PostRepository) GetAllPosts(ctx context.Context) ([]*core.Post, error) {
	return r.recent(0)
}

// GetRecentPosts retrieves the N most recent posts, ordered by creation time descending.
func (r *PostRepository) GetRecentPosts(ctx context.Context, limit int) ([]*core.Post, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	return r.recent(limit)
}

func (r *PostRepository) recent(limit int) ([]*core.Post, error) {
	var result []*core.Post
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readIndexed(tx, r.posts, []byte(postDatePrefix+":"), true, limit)
		return err
	}, false)
	return result, err
}

// GetPostsByAuthor returns the posts of one author, newest first.
func (r *PostRepository) GetPostsByAuthor(ctx context.Context, authorID core.ID) ([]*core.Post, error) {
	var result []*core.Post
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readIndexed(tx, r.posts, makeKey(postAuthorPrefix, uint64(authorID)), true, 0)
		return err
	}, false)
	return result, err
}

// GetPostsAfterID returns up to limit posts with ID > afterID, ordered by ID.
func (r *PostRepository) GetPostsAfterID(ctx context.Context, afterID core.ID, limit int) ([]*core.Post, error) {
	var result []*core.Post
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.posts.Scan(tx, afterID, limit)
		return err
	}, false)
	return result, err
}
