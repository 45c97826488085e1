package badger

import (
	"context"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/storage"
)

// CommentRepository implements storage.CommentRepository for BadgerDB.
type CommentRepository struct {
	backend  *Backend
	comments *Collection[core.Comment]
	posts    *Collection[core.Post]
}

var _ storage.CommentRepository = (*CommentRepository)(nil)

func newCommentCollection(backend *Backend) *Collection[core.Comment] {
	return NewCollection(commentsCollection, storage.CommentCodec, func(c *core.Comment) core.ID { return c.Id }, backend.Logger()).
		WithIndexes(func(c *core.Comment) [][]byte {
			return [][]byte{makeCommentPostKey(c.PostId, c.CreatedAt, c.Id)}
		})
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(backend *Backend) *CommentRepository {
	return &CommentRepository{
		backend:  backend,
		comments: newCommentCollection(backend),
		posts:    newPostCollection(backend),
	}
}

// Close releases resources. CommentRepository has no resources to release.
func (r *CommentRepository) Close() error {
	return nil
}

// AddComment stores a new comment and bumps the post's CommentsCount.
// A comment on a post that is not stored is kept; only the counter update is skipped.
func (r *CommentRepository) AddComment(ctx context.Context, comment *core.Comment) (*core.Comment, error) {
	comment.Content = strings.TrimSpace(comment.Content)
	if err := core.ValidateComment(comment); err != nil {
		return nil, err
	}

	created := *comment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := r.comments.NextID(tx)
		if err != nil {
			return err
		}
		created.Id = id
		created.LikesCount = 0
		created.CreatedAt = stamp(created.CreatedAt)

		if err := r.comments.Insert(tx, &created); err != nil {
			return err
		}

		post, err := r.posts.Get(tx, created.PostId)
		if err != nil {
			return err
		}
		if post != nil {
			post.CommentsCount++
			if err := r.posts.Upsert(tx, post); err != nil {
				return err
			}
		}
		return commit(tx)
	}, true)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetComment retrieves a single comment by ID.
func (r *CommentRepository) GetComment(ctx context.Context, id core.ID) (*core.Comment, error) {
	var result *core.Comment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.comments.Get(tx, id)
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

// GetPostComments returns the comments of a post, newest first.
func (r *CommentRepository) GetPostComments(ctx context.Context, postID core.ID) ([]*core.Comment, error) {
	var result []*core.Comment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readIndexed(tx, r.comments, makeKey(commentPostPrefix, uint64(postID)), true, 0)
		return err
	}, false)
	return result, err
}

// GetCommentsAfterID returns up to limit comments with ID > afterID, ordered by ID.
func (r *CommentRepository) GetCommentsAfterID(ctx context.Context, afterID core.ID, limit int) ([]*core.Comment, error) {
	var result []*core.Comment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.comments.Scan(tx, afterID, limit)
		return err
	}, false)
	return result, err
}
