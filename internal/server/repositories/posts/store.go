// Package posts maps food posts onto the entity store: the post lives at
// POST#<id>/METADATA, indexed by city (GSI1) and host (GSI2).
package posts

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

func toEntity(p *models.FoodPost) (*entities.Entity, error) {
	data, err := entities.Encode(p)
	if err != nil {
		return nil, err
	}
	sk := entities.PostSK(p.CreatedAt, p.ID)
	return &entities.Entity{
		PK:         entities.PostPK(p.ID),
		SK:         entities.SKMetadata,
		EntityType: entities.TypePost,
		GSI1PK:     entities.CityPK(p.Location.City),
		GSI1SK:     sk,
		GSI2PK:     entities.HostPK(p.HostID),
		GSI2SK:     sk,
		OwnerID:    p.HostID,
		Data:       data,
	}, nil
}

func (r *StoreRepository) Create(ctx context.Context, p *models.FoodPost) error {
	e, err := toEntity(p)
	if err != nil {
		return err
	}
	return r.store.PutIfAbsent(ctx, e)
}

func (r *StoreRepository) Get(ctx context.Context, postID string) (*models.FoodPost, error) {
	e, err := r.store.Get(ctx, entities.PostPK(postID), entities.SKMetadata)
	if err != nil {
		return nil, err
	}
	p := &models.FoodPost{}
	if err := e.Decode(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *StoreRepository) ListByCity(ctx context.Context, city string, status models.PostStatus, limit int) ([]*models.FoodPost, error) {
	q := entities.Query{
		Index:      entities.IndexGSI1,
		PK:         entities.CityPK(city),
		SKPrefix:   entities.PostSKPrefix,
		Descending: true,
		Limit:      limit,
	}
	if status != "" {
		q.Filter = &entities.Condition{Attr: models.AttrStatus, Equals: string(status)}
	}
	es, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return entities.DecodeAll[models.FoodPost](es)
}

func (r *StoreRepository) ListByHost(ctx context.Context, hostID string, limit int) ([]*models.FoodPost, error) {
	es, err := r.store.Query(ctx, entities.Query{
		Index:      entities.IndexGSI2,
		PK:         entities.HostPK(hostID),
		SKPrefix:   entities.PostSKPrefix,
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return entities.DecodeAll[models.FoodPost](es)
}

func (r *StoreRepository) ListAll(ctx context.Context) ([]*models.FoodPost, error) {
	es, err := r.store.Scan(ctx, entities.TypePost)
	if err != nil {
		return nil, err
	}
	return entities.DecodeAll[models.FoodPost](es)
}

func (r *StoreRepository) Update(ctx context.Context, postID string, changes map[string]any) error {
	return r.store.Update(ctx, entities.PostPK(postID), entities.SKMetadata, changes, nil)
}

func (r *StoreRepository) UpdateIfStatus(ctx context.Context, postID string, status models.PostStatus, changes map[string]any) error {
	return r.store.Update(ctx, entities.PostPK(postID), entities.SKMetadata, changes,
		&entities.Condition{Attr: models.AttrStatus, Equals: string(status)})
}
