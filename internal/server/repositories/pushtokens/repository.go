// Package pushtokens keeps one push channel address per user at
// USER#<id>/PUSH_TOKEN.
package pushtokens

import (
	"context"

	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/entities"
)

type Repository interface {
	Put(ctx context.Context, t *models.PushToken) error
	Get(ctx context.Context, userID string) (*models.PushToken, error)
	Delete(ctx context.Context, userID string) error
}

type StoreRepository struct {
	store entities.Store
}

func NewRepository(store entities.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) Put(ctx context.Context, t *models.PushToken) error {
	data, err := entities.Encode(t)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, &entities.Entity{
		PK:         entities.UserPK(t.UserID),
		SK:         entities.SKPushToken,
		EntityType: entities.TypePushToken,
		OwnerID:    t.UserID,
		Data:       data,
	})
}

func (r *StoreRepository) Get(ctx context.Context, userID string) (*models.PushToken, error) {
	e, err := r.store.Get(ctx, entities.UserPK(userID), entities.SKPushToken)
	if err != nil {
		return nil, err
	}
	t := &models.PushToken{}
	if err := e.Decode(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *StoreRepository) Delete(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, entities.UserPK(userID), entities.SKPushToken)
}
