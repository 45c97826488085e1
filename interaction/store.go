package interaction

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/metrics"
	"github.com/poiesic/pawgraph/storage"
)

// Rejection reasons reported to metrics.
const (
	rejectNoUser       = "no_user"
	rejectEmptyContent = "empty_content"
	rejectSelfFollow   = "self_follow"
)

// Store is the interaction façade over the social graph.
type Store struct {
	users        storage.UserRepository
	posts        storage.PostRepository
	comments     storage.CommentRepository
	interactions storage.InteractionRepository
	metrics      *metrics.Interactions
	logger       *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMetrics records operations on m. A nil m disables metrics.
func WithMetrics(m *metrics.Interactions) Option {
	return func(s *Store) error {
		s.metrics = m
		return nil
	}
}

// NewStore creates a new interaction store.
func NewStore(
	users storage.UserRepository,
	posts storage.PostRepository,
	comments storage.CommentRepository,
	interactions storage.InteractionRepository,
	opts ...Option,
) (*Store, error) {
	if users == nil {
		return nil, ErrUserRepositoryRequired
	}
	if posts == nil {
		return nil, ErrPostRepositoryRequired
	}
	if comments == nil {
		return nil, ErrCommentRepositoryRequired
	}
	if interactions == nil {
		return nil, ErrInteractionRepositoryRequired
	}

	s := &Store{
		users:        users,
		posts:        posts,
		comments:     comments,
		interactions: interactions,
		logger:       slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// TogglePostLike flips whether userID likes postID.
// The result carries the post's LikesCount after the change.
func (s *Store) TogglePostLike(ctx context.Context, userID, postID core.ID) (core.ToggleResult, error) {
	return s.toggle(ctx, core.LikesPost, userID, postID)
}

// ToggleCommentLike flips whether userID likes commentID.
func (s *Store) ToggleCommentLike(ctx context.Context, userID, commentID core.ID) (core.ToggleResult, error) {
	return s.toggle(ctx, core.LikesComment, userID, commentID)
}

// TogglePostSave flips whether userID saved postID.
// The result count is the number of users who saved the post.
func (s *Store) TogglePostSave(ctx context.Context, userID, postID core.ID) (core.ToggleResult, error) {
	return s.toggle(ctx, core.SavesPost, userID, postID)
}

// ToggleFollow flips whether followerID follows followeeID.
// The result count is the followee's follower count. Following yourself is ignored.
func (s *Store) ToggleFollow(ctx context.Context, followerID, followeeID core.ID) (core.ToggleResult, error) {
	if followerID != 0 && followerID == followeeID {
		s.reject(rejectSelfFollow, "op", "toggle_follow", "user", followerID)
		return core.ToggleResult{}, nil
	}
	return s.toggle(ctx, core.Follows, followerID, followeeID)
}

// SetPostLike makes userID like or unlike postID.
func (s *Store) SetPostLike(ctx context.Context, userID, postID core.ID, liked bool) (core.ToggleResult, error) {
	return s.set(ctx, core.LikesPost, userID, postID, liked)
}

// SetCommentLike makes userID like or unlike commentID.
func (s *Store) SetCommentLike(ctx context.Context, userID, commentID core.ID, liked bool) (core.ToggleResult, error) {
	return s.set(ctx, core.LikesComment, userID, commentID, liked)
}

// SetPostSave makes userID save or unsave postID.
func (s *Store) SetPostSave(ctx context.Context, userID, postID core.ID, saved bool) (core.ToggleResult, error) {
	return s.set(ctx, core.SavesPost, userID, postID, saved)
}

// SetFollow makes followerID follow or unfollow followeeID.
func (s *Store) SetFollow(ctx context.Context, followerID, followeeID core.ID, following bool) (core.ToggleResult, error) {
	if followerID != 0 && followerID == followeeID {
		s.reject(rejectSelfFollow, "op", "set_follow", "user", followerID)
		return core.ToggleResult{}, nil
	}
	return s.set(ctx, core.Follows, followerID, followeeID, following)
}

func (s *Store) toggle(ctx context.Context, rel core.Relation, a, b core.ID) (core.ToggleResult, error) {
	if a == 0 {
		s.reject(rejectNoUser, "op", "toggle", "relation", rel)
		return core.ToggleResult{}, nil
	}
	defer s.metrics.Observe("toggle", time.Now())

	res, err := s.interactions.Toggle(ctx, rel, a, b)
	if err != nil {
		s.metrics.Failed("toggle")
		s.logger.Error("error toggling relation", "relation", rel, "a", a, "b", b, "err", err)
		return core.ToggleResult{}, err
	}
	s.changed(rel, a, b, res)
	return res, nil
}

func (s *Store) set(ctx context.Context, rel core.Relation, a, b core.ID, active bool) (core.ToggleResult, error) {
	if a == 0 {
		s.reject(rejectNoUser, "op", "set", "relation", rel)
		return core.ToggleResult{}, nil
	}
	defer s.metrics.Observe("set", time.Now())

	res, err := s.interactions.Set(ctx, rel, a, b, active)
	if err != nil {
		s.metrics.Failed("set")
		s.logger.Error("error setting relation", "relation", rel, "a", a, "b", b, "err", err)
		return core.ToggleResult{}, err
	}
	s.changed(rel, a, b, res)
	return res, nil
}

func (s *Store) changed(rel core.Relation, a, b core.ID, res core.ToggleResult) {
	s.metrics.Toggled(rel.Name(), res.Active)
	if !res.TargetFound {
		s.logger.Debug("relation changed on missing target", "relation", rel, "a", a, "b", b)
	}
}

func (s *Store) reject(reason string, args ...any) {
	s.metrics.Rejected(reason)
	s.logger.Debug("ignoring interaction", append([]any{"reason", reason}, args...)...)
}

// IsPostLiked reports whether userID likes postID. An absent user never does.
func (s *Store) IsPostLiked(ctx context.Context, userID, postID core.ID) (bool, error) {
	return s.has(ctx, core.LikesPost, userID, postID)
}

// IsCommentLiked reports whether userID likes commentID.
func (s *Store) IsCommentLiked(ctx context.Context, userID, commentID core.ID) (bool, error) {
	return s.has(ctx, core.LikesComment, userID, commentID)
}

// IsPostSaved reports whether userID saved postID.
func (s *Store) IsPostSaved(ctx context.Context, userID, postID core.ID) (bool, error) {
	return s.has(ctx, core.SavesPost, userID, postID)
}

// IsFollowing reports whether a follows b. The relation is directional.
func (s *Store) IsFollowing(ctx context.Context, a, b core.ID) (bool, error) {
	return s.has(ctx, core.Follows, a, b)
}

func (s *Store) has(ctx context.Context, rel core.Relation, a, b core.ID) (bool, error) {
	if a == 0 {
		return false, nil
	}
	return s.interactions.Has(ctx, rel, a, b)
}

// AddComment creates a comment by userID on postID and bumps the post's
// CommentsCount in the same transaction.
// Returns nil and no error when userID is zero or content is blank.
func (s *Store) AddComment(ctx context.Context, userID, postID core.ID, content string) (*core.Comment, error) {
	if userID == 0 {
		s.reject(rejectNoUser, "op", "add_comment", "post", postID)
		return nil, nil
	}
	content = strings.TrimSpace(content)
	if content == "" {
		s.reject(rejectEmptyContent, "op", "add_comment", "post", postID)
		return nil, nil
	}
	defer s.metrics.Observe("add_comment", time.Now())

	comment, err := s.comments.AddComment(ctx, &core.Comment{
		PostId:   postID,
		AuthorId: userID,
		Content:  content,
	})
	if err != nil {
		s.metrics.Failed("add_comment")
		s.logger.Error("error adding comment", "post", postID, "user", userID, "err", err)
		return nil, err
	}
	s.metrics.Commented()
	return comment, nil
}

// PostComments returns the comments of postID, newest first.
func (s *Store) PostComments(ctx context.Context, postID core.ID) ([]*core.Comment, error) {
	return s.comments.GetPostComments(ctx, postID)
}

// Followers returns the IDs of users following userID.
func (s *Store) Followers(ctx context.Context, userID core.ID) ([]core.ID, error) {
	return s.interactions.ListBySecond(ctx, core.Follows, userID)
}

// Following returns the IDs of users userID follows.
func (s *Store) Following(ctx context.Context, userID core.ID) ([]core.ID, error) {
	return s.interactions.ListByFirst(ctx, core.Follows, userID)
}

// FollowerCount returns how many users follow userID.
func (s *Store) FollowerCount(ctx context.Context, userID core.ID) (int, error) {
	return s.interactions.CountBySecond(ctx, core.Follows, userID)
}

// FollowingCount returns how many users userID follows.
func (s *Store) FollowingCount(ctx context.Context, userID core.ID) (int, error) {
	return s.interactions.CountByFirst(ctx, core.Follows, userID)
}

// SavedPosts returns the posts userID saved that still exist, ordered by post ID.
func (s *Store) SavedPosts(ctx context.Context, userID core.ID) ([]*core.Post, error) {
	if userID == 0 {
		return nil, nil
	}
	ids, err := s.interactions.ListByFirst(ctx, core.SavesPost, userID)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return s.posts.GetPosts(ctx, ids...)
}

// Post returns the post with the given ID, or nil if there is none.
func (s *Store) Post(ctx context.Context, postID core.ID) (*core.Post, error) {
	return absentAsNil(s.posts.GetPost(ctx, postID))
}

// Comment returns the comment with the given ID, or nil if there is none.
func (s *Store) Comment(ctx context.Context, commentID core.ID) (*core.Comment, error) {
	return absentAsNil(s.comments.GetComment(ctx, commentID))
}

// User returns the user with the given ID, or nil if there is none.
func (s *Store) User(ctx context.Context, userID core.ID) (*core.User, error) {
	return absentAsNil(s.users.GetUser(ctx, userID))
}

func absentAsNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return v, err
}
