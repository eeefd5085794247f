// Package identities stores local credentials keyed by normalized email at
// IDENTITY#<email>/CREDENTIALS.
package identities

import (
	"context"

	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/entities"
)

type Repository interface {
	// Create fails with common.ErrorAlreadyExists for a taken email.
	Create(ctx context.Context, id *models.Identity) error
	Get(ctx context.Context, email string) (*models.Identity, error)
	Update(ctx context.Context, email string, changes map[string]any) error
	Delete(ctx context.Context, email string) error
}

type StoreRepository struct {
	store entities.Store
}

func NewRepository(store entities.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) Create(ctx context.Context, id *models.Identity) error {
	data, err := entities.Encode(id)
	if err != nil {
		return err
	}
	return r.store.PutIfAbsent(ctx, &entities.Entity{
		PK:         entities.IdentityPK(id.Email),
		SK:         entities.SKCredentials,
		EntityType: entities.TypeIdentity,
		OwnerID:    id.UserID,
		Data:       data,
	})
}

func (r *StoreRepository) Get(ctx context.Context, email string) (*models.Identity, error) {
	e, err := r.store.Get(ctx, entities.IdentityPK(email), entities.SKCredentials)
	if err != nil {
		return nil, err
	}
	id := &models.Identity{}
	if err := e.Decode(id); err != nil {
		return nil, err
	}
	return id, nil
}

func (r *StoreRepository) Update(ctx context.Context, email string, changes map[string]any) error {
	return r.store.Update(ctx, entities.IdentityPK(email), entities.SKCredentials, changes, nil)
}

func (r *StoreRepository) Delete(ctx context.Context, email string) error {
	return r.store.Delete(ctx, entities.IdentityPK(email), entities.SKCredentials)
}
