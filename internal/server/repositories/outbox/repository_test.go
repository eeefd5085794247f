package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/entities"
)

func TestStoreRepository_PendingInCreationOrder(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(entities.NewMemoryStore())
	t0 := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	require.NoError(t, r.Enqueue(ctx, &models.NotificationIntent{ID: "b", Type: models.NotifyPickupAccepted, CreatedAt: t0.Add(time.Second)}))
	require.NoError(t, r.Enqueue(ctx, &models.NotificationIntent{ID: "a", Type: models.NotifyNewPost, CreatedAt: t0}))
	require.NoError(t, r.Enqueue(ctx, &models.NotificationIntent{ID: "c", Type: models.NotifyPickupCompleted, CreatedAt: t0.Add(2 * time.Second)}))

	got, err := r.Pending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	require.NoError(t, r.MarkAttempt(ctx, "a", 1))
	require.NoError(t, r.Delete(ctx, "b"))

	got, err = r.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Attempts)
	assert.Equal(t, "c", got[1].ID)
}
