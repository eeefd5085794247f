package pickups

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/entities"
)

func TestStoreRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := entities.NewMemoryStore()
	r := NewRepository(store)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, &models.Pickup{ID: "k1", PostID: "p1", VolunteerID: "v1", Status: models.PickupCancelled, AcceptedAt: now}))
	require.NoError(t, r.Create(ctx, &models.Pickup{ID: "k2", PostID: "p1", VolunteerID: "v2", Status: models.PickupAccepted, AcceptedAt: now}))
	require.NoError(t, r.Create(ctx, &models.Pickup{ID: "k3", PostID: "p2", VolunteerID: "v1", Status: models.PickupAccepted, AcceptedAt: now}))

	e, err := store.Get(ctx, "POST#p1", "PICKUP#k2")
	require.NoError(t, err)
	assert.Equal(t, "v2", e.OwnerID)
	assert.Equal(t, entities.TypePickup, e.EntityType)

	byPost, err := r.ListByPost(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, byPost, 2)
	assert.Equal(t, "k1", byPost[0].ID)

	mine, err := r.ListByVolunteer(ctx, "v1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	picked := now.Add(time.Hour)
	require.NoError(t, r.UpdateIfStatus(ctx, "p1", "k2", models.PickupAccepted,
		map[string]any{models.AttrStatus: models.PickupPicked, models.AttrPickedAt: picked}))
	assert.ErrorIs(t, r.UpdateIfStatus(ctx, "p1", "k2", models.PickupAccepted,
		map[string]any{models.AttrStatus: models.PickupCancelled}), common.ErrConditionFailed)

	got, err := r.Get(ctx, "p1", "k2")
	require.NoError(t, err)
	assert.Equal(t, models.PickupPicked, got.Status)
	require.NotNil(t, got.PickedAt)
	assert.True(t, got.PickedAt.Equal(picked))

	_, err = r.Get(ctx, "p1", "zzz")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
