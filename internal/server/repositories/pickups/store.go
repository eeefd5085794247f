// Package pickups stores pickups inside their post's partition
// (POST#<postId>/PICKUP#<id>) so a post and its pickups load together.
package pickups

import (
	"context"

	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/entities"
)

type StoreRepository struct {
	store entities.Store
}

func NewRepository(store entities.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) Create(ctx context.Context, p *models.Pickup) error {
	data, err := entities.Encode(p)
	if err != nil {
		return err
	}
	return r.store.PutIfAbsent(ctx, &entities.Entity{
		PK:         entities.PostPK(p.PostID),
		SK:         entities.PickupSK(p.ID),
		EntityType: entities.TypePickup,
		OwnerID:    p.VolunteerID,
		Data:       data,
	})
}

func (r *StoreRepository) Get(ctx context.Context, postID, pickupID string) (*models.Pickup, error) {
	e, err := r.store.Get(ctx, entities.PostPK(postID), entities.PickupSK(pickupID))
	if err != nil {
		return nil, err
	}
	p := &models.Pickup{}
	if err := e.Decode(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *StoreRepository) ListByPost(ctx context.Context, postID string) ([]*models.Pickup, error) {
	es, err := r.store.Query(ctx, entities.Query{
		Index:    entities.IndexPrimary,
		PK:       entities.PostPK(postID),
		SKPrefix: entities.PickupSKPrefix,
	})
	if err != nil {
		return nil, err
	}
	return entities.DecodeAll[models.Pickup](es)
}

func (r *StoreRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]*models.Pickup, error) {
	es, err := r.store.ScanByOwner(ctx, volunteerID, entities.TypePickup)
	if err != nil {
		return nil, err
	}
	return entities.DecodeAll[models.Pickup](es)
}

func (r *StoreRepository) ListAll(ctx context.Context) ([]*models.Pickup, error) {
	es, err := r.store.Scan(ctx, entities.TypePickup)
	if err != nil {
		return nil, err
	}
	return entities.DecodeAll[models.Pickup](es)
}

func (r *StoreRepository) UpdateIfStatus(ctx context.Context, postID, pickupID string, status models.PickupStatus, changes map[string]any) error {
	return r.store.Update(ctx, entities.PostPK(postID), entities.PickupSK(pickupID), changes,
		&entities.Condition{Attr: models.AttrStatus, Equals: string(status)})
}
