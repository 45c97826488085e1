package storage

import (
	"context"

	"github.com/poiesic/pawgraph/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	// The shared backend is closed separately.
	Close() error
}

// UserRepository provides operations for managing users.
type UserRepository interface {
	Repository
	// AddUsers adds one or more users to storage.
	// For users with ID=0, generates new IDs from sequence.
	// Sets CreatedAt if not already set.
	// Returns ErrDuplicateKey if a username is already taken.
	AddUsers(ctx context.Context, users ...*core.User) ([]*core.User, error)

	// UpdateUser replaces the profile fields of an existing user.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if the user doesn't exist.
	UpdateUser(ctx context.Context, user *core.User) (*core.User, error)

	// GetUser retrieves a single user by ID.
	// Returns ErrNotFound if the user doesn't exist.
	GetUser(ctx context.Context, id core.ID) (*core.User, error)

	// GetUsers retrieves multiple users by their IDs.
	// Returns only the users that exist (no error for missing users).
	GetUsers(ctx context.Context, ids ...core.ID) ([]*core.User, error)

	// FindUserByUsername finds a user by username.
	// Returns ErrNotFound if no matching user exists.
	FindUserByUsername(ctx context.Context, username string) (*core.User, error)

	// ListUsers returns every user ordered by ID.
	ListUsers(ctx context.Context) ([]*core.User, error)
}

// PetRepository provides operations for managing pets.
type PetRepository interface {
	Repository
	// AddPets adds one or more pets to storage.
	// Uses content-based IDs (IDFromContent of the pet tuple).
	AddPets(ctx context.Context, pets ...*core.Pet) ([]*core.Pet, error)

	// UpdatePet replaces the fields of an existing pet. The owner cannot change.
	// Returns ErrNotFound if the pet doesn't exist.
	UpdatePet(ctx context.Context, pet *core.Pet) (*core.Pet, error)

	// GetPet retrieves a single pet by ID.
	// Returns ErrNotFound if the pet doesn't exist.
	GetPet(ctx context.Context, id core.ID) (*core.Pet, error)

	// GetUserPets returns the pets owned by a user.
	GetUserPets(ctx context.Context, ownerID core.ID) ([]*core.Pet, error)

	// GetOrCreatePet finds a pet by owner and name or creates it.
	// Thread-safe: handles concurrent creation attempts.
	GetOrCreatePet(ctx context.Context, ownerID core.ID, name, breed string) (*core.Pet, error)
}

// PostRepository provides operations for managing posts.
type PostRepository interface {
	Repository
	// AddPosts adds one or more posts to storage.
	// IDs are assigned as highest existing ID + 1 when zero.
	// Sets CreatedAt if not already set.
	AddPosts(ctx context.Context, posts ...*core.Post) ([]*core.Post, error)

	// UpdatePost replaces the content and media of an existing post.
	// Denormalized counters are kept from storage, never taken from the argument.
	// Returns ErrNotFound if the post doesn't exist.
	UpdatePost(ctx context.Context, post *core.Post) (*core.Post, error)

	// GetPost retrieves a single post by ID.
	// Returns ErrNotFound if the post doesn't exist.
	GetPost(ctx context.Context, id core.ID) (*core.Post, error)

	// GetPosts retrieves multiple posts by their IDs, in argument order.
	// Returns only the posts that exist (no error for missing posts).
	GetPosts(ctx context.Context, ids ...core.ID) ([]*core.Post, error)

	// GetAllPosts returns every post, newest first.
	GetAllPosts(ctx context.Context) ([]*core.Post, error)

	// GetRecentPosts returns up to limit posts, newest first.
	GetRecentPosts(ctx context.Context, limit int) ([]*core.Post, error)

	// GetPostsByAuthor returns the posts of one author, newest first.
	GetPostsByAuthor(ctx context.Context, authorID core.ID) ([]*core.Post, error)

	// GetPostsAfterID returns up to limit posts with ID > afterID, ordered by ID.
	GetPostsAfterID(ctx context.Context, afterID core.ID, limit int) ([]*core.Post, error)
}

// CommentRepository provides operations for managing comments.
type CommentRepository interface {
	Repository
	// AddComment stores a new comment and increments the owning post's
	// CommentsCount in the same transaction. The ID is always assigned as
	// highest existing comment ID + 1 and LikesCount starts at 0.
	AddComment(ctx context.Context, comment *core.Comment) (*core.Comment, error)

	// GetComment retrieves a single comment by ID.
	// Returns ErrNotFound if the comment doesn't exist.
	GetComment(ctx context.Context, id core.ID) (*core.Comment, error)

	// GetPostComments returns the comments of a post, newest first.
	GetPostComments(ctx context.Context, postID core.ID) ([]*core.Comment, error)

	// GetCommentsAfterID returns up to limit comments with ID > afterID, ordered by ID.
	GetCommentsAfterID(ctx context.Context, afterID core.ID, limit int) ([]*core.Comment, error)
}

// InteractionRepository maintains relations and the counters derived from them.
//
// Toggle reads the current membership and flips it. The read and the write
// happen in one transaction, so a concurrent writer touching the same pair
// makes the commit fail with ErrTransactionFailed instead of losing an update.
type InteractionRepository interface {
	Repository
	// Toggle flips membership of (a, b) in rel and adjusts the dependent
	// counter: +1 when the pair is added, max(0, n-1) when removed.
	Toggle(ctx context.Context, rel core.Relation, a, b core.ID) (core.ToggleResult, error)

	// Set makes membership of (a, b) equal to active. The counter only moves
	// when membership changes.
	Set(ctx context.Context, rel core.Relation, a, b core.ID, active bool) (core.ToggleResult, error)

	// Has reports whether (a, b) is in rel.
	Has(ctx context.Context, rel core.Relation, a, b core.ID) (bool, error)

	// ListByFirst returns every b such that (a, b) is in rel, ordered by ID.
	ListByFirst(ctx context.Context, rel core.Relation, a core.ID) ([]core.ID, error)

	// ListBySecond returns every a such that (a, b) is in rel, ordered by ID.
	ListBySecond(ctx context.Context, rel core.Relation, b core.ID) ([]core.ID, error)

	// CountByFirst returns |{b : (a, b) in rel}|.
	CountByFirst(ctx context.Context, rel core.Relation, a core.ID) (int, error)

	// CountBySecond returns |{a : (a, b) in rel}|.
	CountBySecond(ctx context.Context, rel core.Relation, b core.ID) (int, error)

	// RecountPost rewrites LikesCount and CommentsCount of a post from the
	// likes_post relation and the post's comments.
	// Returns ErrNotFound if the post doesn't exist.
	RecountPost(ctx context.Context, postID core.ID) (*core.Post, error)

	// RecountComment rewrites LikesCount of a comment from likes_comment.
	// Returns ErrNotFound if the comment doesn't exist.
	RecountComment(ctx context.Context, commentID core.ID) (*core.Comment, error)
}

// CheckpointRepository persists progress of maintenance processors.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint, replacing any previous one for
	// the same processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// ClearCheckpoint removes the checkpoint for a processor type.
	ClearCheckpoint(ctx context.Context, processorType string) error
}
