package posts

import (
	"context"

	"github.com/fudbi/fudbi/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.FoodPost) error
	Get(ctx context.Context, postID string) (*models.FoodPost, error)
	// ListByCity returns the city's posts with the given status, newest first.
	ListByCity(ctx context.Context, city string, status models.PostStatus, limit int) ([]*models.FoodPost, error)
	ListByHost(ctx context.Context, hostID string, limit int) ([]*models.FoodPost, error)
	ListAll(ctx context.Context) ([]*models.FoodPost, error)
	Update(ctx context.Context, postID string, changes map[string]any) error
	// UpdateIfStatus applies changes only while the stored status equals
	// status, failing with common.ErrConditionFailed otherwise.
	UpdateIfStatus(ctx context.Context, postID string, status models.PostStatus, changes map[string]any) error
}
