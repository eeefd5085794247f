package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/users"
)

const maxAggregateRetries = 5

// updateAggregates applies mutate to a fresh copy of the user and saves it
// under the version guard, reloading and retrying on a lost race.
func updateAggregates(ctx context.Context, repo users.Repository, userID string, mutate func(u *models.User)) error {
	for attempt := 0; attempt < maxAggregateRetries; attempt++ {
		u, err := repo.Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("error loading user %s: %w", userID, err)
		}
		mutate(u)
		err = repo.SaveAggregates(ctx, u)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrConditionFailed) {
			return fmt.Errorf("error saving user %s: %w", userID, err)
		}
	}
	return fmt.Errorf("user %s aggregates kept changing: %w", userID, common.ErrConditionFailed)
}
