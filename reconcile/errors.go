package reconcile

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrPostRepositoryRequired is returned when a post repository is not provided.
	ErrPostRepositoryRequired = errors.New("post repository required")

	// ErrCommentRepositoryRequired is returned when a comment repository is not provided.
	ErrCommentRepositoryRequired = errors.New("comment repository required")

	// ErrInteractionRepositoryRequired is returned when an interaction repository is not provided.
	ErrInteractionRepositoryRequired = errors.New("interaction repository required")

	// ErrCheckpointRepositoryRequired is returned when a checkpoint repository is not provided.
	ErrCheckpointRepositoryRequired = errors.New("checkpoint repository required")
)
