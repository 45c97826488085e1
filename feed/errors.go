package feed

import "errors"

var (
	// ErrStoreRequired is returned when an interaction store is not provided.
	ErrStoreRequired = errors.New("interaction store required")

	// ErrPetRepositoryRequired is returned when a pet repository is not provided.
	ErrPetRepositoryRequired = errors.New("pet repository required")

	// ErrPostRepositoryRequired is returned when a post repository is not provided.
	ErrPostRepositoryRequired = errors.New("post repository required")

	// ErrUserNotFound is returned when a profile is requested for an unknown user.
	ErrUserNotFound = errors.New("user not found")
)
