package pickups

import (
	"context"

	"github.com/fudbi/fudbi/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Pickup) error
	Get(ctx context.Context, postID, pickupID string) (*models.Pickup, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Pickup, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]*models.Pickup, error)
	ListAll(ctx context.Context) ([]*models.Pickup, error)
	// UpdateIfStatus fails with common.ErrConditionFailed when the stored
	// pickup status no longer equals status.
	UpdateIfStatus(ctx context.Context, postID, pickupID string, status models.PickupStatus, changes map[string]any) error
}
