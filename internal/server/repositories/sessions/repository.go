// Package sessions records revoked session ids at SESSION#<jti>/REVOKED.
package sessions

import (
	"context"
	"errors"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/entities"
)

type Repository interface {
	Revoke(ctx context.Context, s *models.RevokedSession) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type StoreRepository struct {
	store entities.Store
}

func NewRepository(store entities.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) Revoke(ctx context.Context, s *models.RevokedSession) error {
	data, err := entities.Encode(s)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, &entities.Entity{
		PK:         entities.SessionPK(s.ID),
		SK:         entities.SKRevoked,
		EntityType: entities.TypeSession,
		OwnerID:    s.UserID,
		Data:       data,
	})
}

func (r *StoreRepository) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	_, err := r.store.Get(ctx, entities.SessionPK(sessionID), entities.SKRevoked)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
