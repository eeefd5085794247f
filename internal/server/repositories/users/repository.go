package users

import (
	"context"

	"github.com/fudbi/fudbi/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, userID string) (*models.User, error)
	ListByCity(ctx context.Context, city string) ([]*models.User, error)
	ListAll(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, userID string, changes map[string]any) error
	// SaveAggregates writes the counters and rating of u if the stored
	// version still equals u.Version, then bumps u.Version.
	SaveAggregates(ctx context.Context, u *models.User) error
}
