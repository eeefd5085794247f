// Package outbox persists notification intents written alongside lifecycle
// transitions. Pending intents sit in the OUTBOX#PENDING index partition in
// creation order until the relay deletes them.
package outbox

import (
	"context"

	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/entities"
)

const attrAttempts = "attempts"

type Repository interface {
	Enqueue(ctx context.Context, intent *models.NotificationIntent) error
	// Pending returns up to limit intents, oldest first.
	Pending(ctx context.Context, limit int) ([]*models.NotificationIntent, error)
	MarkAttempt(ctx context.Context, intentID string, attempts int) error
	Delete(ctx context.Context, intentID string) error
}

type StoreRepository struct {
	store entities.Store
}

func NewRepository(store entities.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) Enqueue(ctx context.Context, intent *models.NotificationIntent) error {
	data, err := entities.Encode(intent)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, &entities.Entity{
		PK:         entities.OutboxPK(intent.ID),
		SK:         entities.SKIntent,
		EntityType: entities.TypeOutbox,
		GSI1PK:     entities.OutboxPendingPK,
		GSI1SK:     entities.OutboxSK(intent.CreatedAt, intent.ID),
		Data:       data,
	})
}

func (r *StoreRepository) Pending(ctx context.Context, limit int) ([]*models.NotificationIntent, error) {
	es, err := r.store.Query(ctx, entities.Query{
		Index: entities.IndexGSI1,
		PK:    entities.OutboxPendingPK,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return entities.DecodeAll[models.NotificationIntent](es)
}

func (r *StoreRepository) MarkAttempt(ctx context.Context, intentID string, attempts int) error {
	return r.store.Update(ctx, entities.OutboxPK(intentID), entities.SKIntent,
		map[string]any{attrAttempts: attempts}, nil)
}

func (r *StoreRepository) Delete(ctx context.Context, intentID string) error {
	return r.store.Delete(ctx, entities.OutboxPK(intentID), entities.SKIntent)
}
