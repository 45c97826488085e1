package badger

import (
	"bytes"
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/storage"
)

// UserRepository implements storage.UserRepository for BadgerDB.
type UserRepository struct {
	backend *Backend
	users   *Collection[core.User]
	idSeq   *badger.Sequence
}

var _ storage.UserRepository = (*UserRepository)(nil)

func newUserCollection(backend *Backend) *Collection[core.User] {
	return NewCollection(usersCollection, storage.UserCodec, func(u *core.User) core.ID { return u.Id }, backend.Logger()).
		WithIndexes(func(u *core.User) [][]byte {
			return [][]byte{makeUserNameKey(u.Username)}
		})
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(backend *Backend) (*UserRepository, error) {
	idSeq, err := backend.GetSequence(userIDSeq)
	if err != nil {
		return nil, err
	}

	return &UserRepository{
		backend: backend,
		users:   newUserCollection(backend),
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *UserRepository) Close() error {
	return r.idSeq.Release()
}

// AddUsers adds one or more users to storage and returns the stored copies.
// Users without an ID get one from the sequence. The caller's users are not
// modified, so a failed call leaves no unsaved IDs behind.
func (r *UserRepository) AddUsers(ctx context.Context, users ...*core.User) ([]*core.User, error) {
	for _, user := range users {
		if err := core.ValidateUser(user); err != nil {
			return nil, err
		}
	}

	added := make([]*core.User, len(users))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for i, user := range users {
			if err := r.claimUsername(tx, user.Username); err != nil {
				return err
			}

			stored := *user
			if stored.Id == 0 {
				id, err := r.nextID(tx)
				if err != nil {
					return err
				}
				stored.Id = id
			}
			stored.CreatedAt = stamp(stored.CreatedAt)
			stored.UpdatedAt = stored.CreatedAt

			if err := r.users.Insert(tx, &stored); err != nil {
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

// claimUsername fails with storage.ErrDuplicateKey if the username is taken.
// Usernames are unique regardless of case.
func (r *UserRepository) claimUsername(tx *badger.Txn, username string) error {
	_, err := tx.Get(makeUserNameKey(username))
	if err == nil {
		return storage.ErrDuplicateKey
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// nextID draws IDs from the sequence until it finds one that is neither zero
// nor already taken by a user added with an explicit ID.
func (r *UserRepository) nextID(tx *badger.Txn) (core.ID, error) {
	for {
		next, err := r.idSeq.Next()
		if err != nil {
			return 0, err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if next == 0 {
			continue
		}
		exists, err := r.users.Exists(tx, core.ID(next))
		if err != nil {
			return 0, err
		}
		if !exists {
			return core.ID(next), nil
		}
	}
}

// UpdateUser replaces the profile fields of an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user *core.User) (*core.User, error) {
	if err := core.ValidateUser(user); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		old, err := r.users.Get(tx, user.Id)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		if !bytes.Equal(makeUserNameKey(old.Username), makeUserNameKey(user.Username)) {
			if err := r.claimUsername(tx, user.Username); err != nil {
				return err
			}
		}

		user.CreatedAt = old.CreatedAt
		user.UpdatedAt = now()
		if err := r.users.Upsert(tx, user); err != nil {
			return err
		}
		return commit(tx)
	}, true)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser retrieves a single user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id core.ID) (*core.User, error) {
	var result *core.User
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.users.Get(tx, id)
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

// GetUsers retrieves multiple users by their IDs.
func (r *UserRepository) GetUsers(ctx context.Context, ids ...core.ID) ([]*core.User, error) {
	var result []*core.User
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			user, err := r.users.Get(tx, id)
			if err != nil {
				return err
			}
			if user != nil {
				result = append(result, user)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindUserByUsername finds a user by username, ignoring case.
func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*core.User, error) {
	var result *core.User
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Look up ID from username index
		item, err := tx.Get(makeUserNameKey(username))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var userID core.ID
		err = item.Value(func(val []byte) error {
			userID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = r.users.Get(tx, userID)
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

// ListUsers returns every user ordered by ID.
func (r *UserRepository) ListUsers(ctx context.Context) ([]*core.User, error) {
	var result []*core.User
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.users.Load(tx)
		return err
	}, false)
	return result, err
}
