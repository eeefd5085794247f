// Package users stores profiles at USER#<id>/PROFILE, indexed by city so
// notification fan-out can find a city's volunteers.
package users

import (
	"context"
	"strconv"

	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/entities"
)

type StoreRepository struct {
	store entities.Store
}

func NewRepository(store entities.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) Create(ctx context.Context, user *models.User) error {
	data, err := entities.Encode(user)
	if err != nil {
		return err
	}
	return r.store.PutIfAbsent(ctx, &entities.Entity{
		PK:         entities.UserPK(user.ID),
		SK:         entities.SKProfile,
		EntityType: entities.TypeUser,
		GSI1PK:     entities.CityPK(user.City),
		GSI1SK:     entities.UserCitySK(user.ID),
		OwnerID:    user.ID,
		Data:       data,
	})
}

func (r *StoreRepository) Get(ctx context.Context, userID string) (*models.User, error) {
	e, err := r.store.Get(ctx, entities.UserPK(userID), entities.SKProfile)
	if err != nil {
		return nil, err
	}
	u := &models.User{}
	if err := e.Decode(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *StoreRepository) ListByCity(ctx context.Context, city string) ([]*models.User, error) {
	es, err := r.store.Query(ctx, entities.Query{
		Index:    entities.IndexGSI1,
		PK:       entities.CityPK(city),
		SKPrefix: entities.UserSKPrefix,
	})
	if err != nil {
		return nil, err
	}
	return entities.DecodeAll[models.User](es)
}

func (r *StoreRepository) ListAll(ctx context.Context) ([]*models.User, error) {
	es, err := r.store.Scan(ctx, entities.TypeUser)
	if err != nil {
		return nil, err
	}
	return entities.DecodeAll[models.User](es)
}

func (r *StoreRepository) Update(ctx context.Context, userID string, changes map[string]any) error {
	return r.store.Update(ctx, entities.UserPK(userID), entities.SKProfile, changes, nil)
}

func (r *StoreRepository) SaveAggregates(ctx context.Context, u *models.User) error {
	changes := map[string]any{
		"totalPosts":       u.TotalPosts,
		"totalPickups":     u.TotalPickups,
		models.AttrRating:  u.Rating,
		"ratingCount":      u.RatingCount,
		"ratingTotal":      u.RatingTotal,
		models.AttrVersion: u.Version + 1,
	}
	cond := &entities.Condition{Attr: models.AttrVersion, Equals: strconv.Itoa(u.Version)}
	if err := r.store.Update(ctx, entities.UserPK(u.ID), entities.SKProfile, changes, cond); err != nil {
		return err
	}
	u.Version++
	return nil
}
