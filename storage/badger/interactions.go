package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/storage"
)

// InteractionRepository implements storage.InteractionRepository for BadgerDB.
//
// Every mutation reads membership, changes the pair and adjusts the dependent
// counter inside one read-write transaction. Badger detects a concurrent
// commit on any key read by the transaction, so two writers toggling the same
// pair cannot both succeed; the loser gets storage.ErrTransactionFailed.
type InteractionRepository struct {
	backend   *Backend
	users     *Collection[core.User]
	posts     *Collection[core.Post]
	comments  *Collection[core.Comment]
	relations map[core.Relation]*RelationIndex
}

var _ storage.InteractionRepository = (*InteractionRepository)(nil)

// NewInteractionRepository creates a new InteractionRepository.
func NewInteractionRepository(backend *Backend) *InteractionRepository {
	relations := make(map[core.Relation]*RelationIndex, len(core.Relations))
	for _, rel := range core.Relations {
		relations[rel] = NewRelationIndex(rel)
	}
	return &InteractionRepository{
		backend:   backend,
		users:     newUserCollection(backend),
		posts:     newPostCollection(backend),
		comments:  newCommentCollection(backend),
		relations: relations,
	}
}

// Close releases resources. InteractionRepository has no resources to release.
func (r *InteractionRepository) Close() error {
	return nil
}

func (r *InteractionRepository) index(rel core.Relation) (*RelationIndex, error) {
	if err := core.ValidateRelation(rel); err != nil {
		return nil, err
	}
	return r.relations[rel], nil
}

// Toggle flips membership of (a, b) in rel based on its current state.
func (r *InteractionRepository) Toggle(ctx context.Context, rel core.Relation, a, b core.ID) (core.ToggleResult, error) {
	return r.mutate(rel, a, b, func(current bool) bool { return !current })
}

// Set makes membership of (a, b) in rel equal to active.
func (r *InteractionRepository) Set(ctx context.Context, rel core.Relation, a, b core.ID, active bool) (core.ToggleResult, error) {
	return r.mutate(rel, a, b, func(bool) bool { return active })
}

// mutate runs the toggle protocol: read membership, decide the target state,
// change the pair and the counter from that same read, commit once.
func (r *InteractionRepository) mutate(rel core.Relation, a, b core.ID, target func(current bool) bool) (core.ToggleResult, error) {
	idx, err := r.index(rel)
	if err != nil {
		return core.ToggleResult{}, err
	}

	var result core.ToggleResult
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		current, err := idx.Has(tx, a, b)
		if err != nil {
			return err
		}
		want := target(current)

		if want == current {
			// Nothing changes; report the present state without writing
			result, err = r.observe(tx, idx, b, current)
			return err
		}

		if want {
			_, err = idx.Add(tx, a, b)
		} else {
			_, err = idx.Remove(tx, a, b)
		}
		if err != nil {
			return err
		}

		result, err = r.adjust(tx, idx, b, want)
		if err != nil {
			return err
		}
		return commit(tx)
	}, true)
	if err != nil {
		return core.ToggleResult{}, err
	}
	return result, nil
}

// delta applies +1 when active, otherwise the floored decrement.
func delta(n int, active bool) int {
	if active {
		return n + 1
	}
	return max(0, n-1)
}

// adjust updates the counter that depends on idx for target b.
func (r *InteractionRepository) adjust(tx *badger.Txn, idx *RelationIndex, b core.ID, active bool) (core.ToggleResult, error) {
	result := core.ToggleResult{Active: active}
	switch idx.Relation() {
	case core.LikesPost:
		post, err := r.posts.Get(tx, b)
		if err != nil || post == nil {
			return result, err
		}
		post.LikesCount = delta(post.LikesCount, active)
		if err := r.posts.Upsert(tx, post); err != nil {
			return result, err
		}
		result.Count, result.TargetFound = post.LikesCount, true
	case core.LikesComment:
		comment, err := r.comments.Get(tx, b)
		if err != nil || comment == nil {
			return result, err
		}
		comment.LikesCount = delta(comment.LikesCount, active)
		if err := r.comments.Upsert(tx, comment); err != nil {
			return result, err
		}
		result.Count, result.TargetFound = comment.LikesCount, true
	default:
		return r.observe(tx, idx, b, active)
	}
	return result, nil
}

// observe reports the current state of target b without changing it.
// Saves and follows have no stored counter; their count is the relation
// cardinality restricted to b.
func (r *InteractionRepository) observe(tx *badger.Txn, idx *RelationIndex, b core.ID, active bool) (core.ToggleResult, error) {
	result := core.ToggleResult{Active: active}
	switch idx.Relation() {
	case core.LikesPost:
		post, err := r.posts.Get(tx, b)
		if err != nil || post == nil {
			return result, err
		}
		result.Count, result.TargetFound = post.LikesCount, true
	case core.LikesComment:
		comment, err := r.comments.Get(tx, b)
		if err != nil || comment == nil {
			return result, err
		}
		result.Count, result.TargetFound = comment.LikesCount, true
	case core.SavesPost:
		found, err := r.posts.Exists(tx, b)
		if err != nil {
			return result, err
		}
		result.Count, result.TargetFound = idx.CountBySecond(tx, b), found
	case core.Follows:
		found, err := r.users.Exists(tx, b)
		if err != nil {
			return result, err
		}
		result.Count, result.TargetFound = idx.CountBySecond(tx, b), found
	}
	return result, nil
}

// Has reports whether (a, b) is in rel.
func (r *InteractionRepository) Has(ctx context.Context, rel core.Relation, a, b core.ID) (bool, error) {
	idx, err := r.index(rel)
	if err != nil {
		return false, err
	}
	var present bool
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		present, err = idx.Has(tx, a, b)
		return err
	}, false)
	return present, err
}

// ListByFirst returns every b such that (a, b) is in rel.
func (r *InteractionRepository) ListByFirst(ctx context.Context, rel core.Relation, a core.ID) ([]core.ID, error) {
	idx, err := r.index(rel)
	if err != nil {
		return nil, err
	}
	var ids []core.ID
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		ids = idx.ListByFirst(tx, a)
		return nil
	}, false)
	return ids, err
}

// ListBySecond returns every a such that (a, b) is in rel.
func (r *InteractionRepository) ListBySecond(ctx context.Context, rel core.Relation, b core.ID) ([]core.ID, error) {
	idx, err := r.index(rel)
	if err != nil {
		return nil, err
	}
	var ids []core.ID
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		ids = idx.ListBySecond(tx, b)
		return nil
	}, false)
	return ids, err
}

// CountByFirst returns the number of pairs with first element a.
func (r *InteractionRepository) CountByFirst(ctx context.Context, rel core.Relation, a core.ID) (int, error) {
	idx, err := r.index(rel)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		n = idx.CountByFirst(tx, a)
		return nil
	}, false)
	return n, err
}

// CountBySecond returns the number of pairs with second element b.
func (r *InteractionRepository) CountBySecond(ctx context.Context, rel core.Relation, b core.ID) (int, error) {
	idx, err := r.index(rel)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		n = idx.CountBySecond(tx, b)
		return nil
	}, false)
	return n, err
}

// RecountPost rewrites the post counters from likes_post and the comment index.
func (r *InteractionRepository) RecountPost(ctx context.Context, postID core.ID) (*core.Post, error) {
	var result *core.Post
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		post, err := r.posts.Get(tx, postID)
		if err != nil {
			return err
		}
		if post == nil {
			return storage.ErrNotFound
		}

		likes := r.relations[core.LikesPost].CountBySecond(tx, postID)
		comments := countPrefix(tx, makeKey(commentPostPrefix, uint64(postID)))
		result = post
		if post.LikesCount == likes && post.CommentsCount == comments {
			return nil
		}

		post.LikesCount, post.CommentsCount = likes, comments
		if err := r.posts.Upsert(tx, post); err != nil {
			return err
		}
		return commit(tx)
	}, true)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecountComment rewrites the comment's LikesCount from likes_comment.
func (r *InteractionRepository) RecountComment(ctx context.Context, commentID core.ID) (*core.Comment, error) {
	var result *core.Comment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		comment, err := r.comments.Get(tx, commentID)
		if err != nil {
			return err
		}
		if comment == nil {
			return storage.ErrNotFound
		}

		likes := r.relations[core.LikesComment].CountBySecond(tx, commentID)
		result = comment
		if comment.LikesCount == likes {
			return nil
		}

		comment.LikesCount = likes
		if err := r.comments.Upsert(tx, comment); err != nil {
			return err
		}
		return commit(tx)
	}, true)
	if err != nil {
		return nil, err
	}
	return result, nil
}
