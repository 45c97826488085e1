package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pawgraph/core"
	"github.com/poiesic/pawgraph/storage"
)

// PetRepository implements storage.PetRepository for BadgerDB.
type PetRepository struct {
	backend *Backend
	pets    *Collection[core.Pet]
}

var _ storage.PetRepository = (*PetRepository)(nil)

// NewPetRepository creates a new PetRepository.
func NewPetRepository(backend *Backend) *PetRepository {
	return &PetRepository{
		backend: backend,
		pets:    newPetCollection(backend),
	}
}

func newPetCollection(backend *Backend) *Collection[core.Pet] {
	return NewCollection(petsCollection, storage.PetCodec, func(p *core.Pet) core.ID { return p.Id }, backend.Logger()).
		WithIndexes(func(p *core.Pet) [][]byte {
			return [][]byte{makePetOwnerKey(p.OwnerId, p.Id)}
		})
}

// Close releases resources. PetRepository has no resources to release.
func (r *PetRepository) Close() error {
	return nil
}

// AddPets adds or replaces one or more pets and returns the stored copies.
// The caller's pets are not modified.
func (r *PetRepository) AddPets(ctx context.Context, pets ...*core.Pet) ([]*core.Pet, error) {
	for _, pet := range pets {
		if err := core.ValidatePet(pet); err != nil {
			return nil, err
		}
	}

	added := make([]*core.Pet, len(pets))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for i, pet := range pets {
			stored := *pet
			if err := r.insert(tx, &stored); err != nil {
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

func (r *PetRepository) insert(tx *badger.Txn, pet *core.Pet) error {
	// Use content-based ID if not set
	if pet.Id == 0 {
		pet.Id = core.IDFromContent(pet.Tuple())
	}
	pet.CreatedAt = stamp(pet.CreatedAt)
	pet.UpdatedAt = pet.CreatedAt
	return r.pets.Upsert(tx, pet)
}

// UpdatePet replaces the fields of an existing pet.
func (r *PetRepository) UpdatePet(ctx context.Context, pet *core.Pet) (*core.Pet, error) {
	if err := core.ValidatePet(pet); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		old, err := r.pets.Get(tx, pet.Id)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}
		if old.OwnerId != pet.OwnerId {
			return core.ErrInvalidPet
		}

		pet.CreatedAt = old.CreatedAt
		pet.UpdatedAt = now()
		if err := r.pets.Upsert(tx, pet); err != nil {
			return err
		}
		return commit(tx)
	}, true)
	if err != nil {
		return nil, err
	}
	return pet, nil
}

// GetPet retrieves a single pet by ID.
func (r *PetRepository) GetPet(ctx context.Context, id core.ID) (*core.Pet, error) {
	var result *core.Pet
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.pets.Get(tx, id)
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

// GetUserPets returns the pets owned by a user, ordered by pet ID.
func (r *PetRepository) GetUserPets(ctx context.Context, ownerID core.ID) ([]*core.Pet, error) {
	var result []*core.Pet
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readIndexed(tx, r.pets, makeKey(petOwnerPrefix, uint64(ownerID)), false, 0)
		return err
	}, false)
	return result, err
}

// GetOrCreatePet finds a pet by owner and name or creates it.
func (r *PetRepository) GetOrCreatePet(ctx context.Context, ownerID core.ID, name, breed string) (*core.Pet, error) {
	candidate := &core.Pet{OwnerId: ownerID, Name: name, Breed: breed}
	if err := core.ValidatePet(candidate); err != nil {
		return nil, err
	}
	id := core.IDFromContent(candidate.Tuple())

	var result *core.Pet
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := r.pets.Get(tx, id)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}
		if err := r.insert(tx, candidate); err != nil {
			return err
		}
		result = candidate
		return commit(tx)
	}, true)
	if errors.Is(err, storage.ErrTransactionFailed) {
		// Someone else created it concurrently
		return r.GetPet(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
