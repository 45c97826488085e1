package badger

import "errors"

// Repositories bundles every repository over one backend.
type Repositories struct {
	Backend      *Backend
	Users        *UserRepository
	Pets         *PetRepository
	Posts        *PostRepository
	Comments     *CommentRepository
	Interactions *InteractionRepository
	Checkpoints  *CheckpointRepository
}

// NewRepositories creates all repositories over backend.
// The backend stays owned by the caller until Close is called on the bundle.
func NewRepositories(backend *Backend) (*Repositories, error) {
	users, err := NewUserRepository(backend)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Backend:      backend,
		Users:        users,
		Pets:         NewPetRepository(backend),
		Posts:        NewPostRepository(backend),
		Comments:     NewCommentRepository(backend),
		Interactions: NewInteractionRepository(backend),
		Checkpoints:  NewCheckpointRepository(backend),
	}, nil
}

// Close closes every repository and then the backend.
func (r *Repositories) Close() error {
	var errs []error
	for _, repo := range []interface{ Close() error }{r.Users, r.Pets, r.Posts, r.Comments, r.Interactions} {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if !r.Backend.IsClosed() {
		if err := r.Backend.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
