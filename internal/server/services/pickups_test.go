package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/models"
)

func intPtr(v int) *int { return &v }

func TestPickupService_Accept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.user(t, "h1", models.RoleHost)
	vol := f.user(t, "v1", models.RoleVolunteer)
	postID := f.createPost(t, host)
	f.clock.Advance(time.Minute)

	pickupID, err := f.pickups.Accept(ctx, vol, postID)
	require.NoError(t, err)

	repos := f.rm.Repositories()
	post, err := repos.Posts.Get(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, models.PostAccepted, post.Status)
	assert.Equal(t, pickupID, post.PickupID)

	pickup, err := repos.Pickups.Get(ctx, postID, pickupID)
	require.NoError(t, err)
	assert.Equal(t, models.PickupAccepted, pickup.Status)
	assert.Equal(t, "v1", pickup.VolunteerID)
	assert.Equal(t, "Name v1", pickup.VolunteerName)

	pending, err := repos.Outbox.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	accepted := pending[1]
	assert.Equal(t, models.NotifyPickupAccepted, accepted.Type)
	assert.Equal(t, "h1", accepted.HostID)
	assert.Equal(t, "Name v1", accepted.VolunteerName)

	_, err = f.pickups.Accept(ctx, vol, postID)
	assert.ErrorIs(t, err, common.ErrPostNotAvailable)
}

func TestPickupService_AcceptGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.user(t, "h1", models.RoleHost)
	vol := f.user(t, "v1", models.RoleVolunteer)
	postID := f.createPost(t, host)

	_, err := f.pickups.Accept(ctx, host, postID)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = f.pickups.Accept(ctx, nil, postID)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = f.pickups.Accept(ctx, vol, "")
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = f.pickups.Accept(ctx, vol, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	f.clock.Advance(5 * time.Hour)
	_, err = f.pickups.Accept(ctx, vol, postID)
	assert.ErrorIs(t, err, common.ErrPostExpired)
}

func TestPickupService_ConcurrentAcceptExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.user(t, "h1", models.RoleHost)
	postID := f.createPost(t, host)

	const n = 8
	vols := make([]*models.UserContext, n)
	for i := range vols {
		vols[i] = f.user(t, "v"+string(rune('a'+i)), models.RoleVolunteer)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range vols {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.pickups.Accept(ctx, vols[i], postID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, common.ErrPostNotAvailable)
	}
	assert.Equal(t, 1, wins)

	pickups, err := f.rm.Repositories().Pickups.ListByPost(ctx, postID)
	require.NoError(t, err)
	assert.Len(t, pickups, 1)
}

func TestPickupService_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.user(t, "h1", models.RoleHost)
	vol := f.user(t, "v1", models.RoleVolunteer)
	postID := f.createPost(t, host)
	f.clock.Advance(time.Minute)
	pickupID, err := f.pickups.Accept(ctx, vol, postID)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	step := func(status models.PickupStatus, rating *int) error {
		return f.pickups.Update(ctx, vol, &models.PickupUpdate{
			PostID: postID, PickupID: pickupID, Status: status, Rating: rating, Feedback: "on time",
		})
	}

	require.NoError(t, step(models.PickupEnRoute, nil))
	repos := f.rm.Repositories()
	post, _ := repos.Posts.Get(ctx, postID)
	assert.Equal(t, models.PostAccepted, post.Status)

	assert.ErrorIs(t, step(models.PickupCompleted, nil), common.ErrInvalidTransition)

	require.NoError(t, step(models.PickupPicked, nil))
	post, _ = repos.Posts.Get(ctx, postID)
	assert.Equal(t, models.PostPicked, post.Status)

	assert.ErrorIs(t, step(models.PickupCompleted, intPtr(6)), common.ErrInvalidRating)
	assert.ErrorIs(t, step(models.PickupCompleted, intPtr(0)), common.ErrInvalidRating)

	require.NoError(t, step(models.PickupCompleted, intPtr(4)))
	post, _ = repos.Posts.Get(ctx, postID)
	assert.Equal(t, models.PostCompleted, post.Status)

	pickup, err := repos.Pickups.Get(ctx, postID, pickupID)
	require.NoError(t, err)
	require.NotNil(t, pickup.Rating)
	assert.Equal(t, models.Rating{Score: 4, Feedback: "on time"}, *pickup.Rating)
	assert.NotNil(t, pickup.EnRouteAt)
	assert.NotNil(t, pickup.PickedAt)
	assert.NotNil(t, pickup.CompletedAt)

	u, err := repos.Users.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.TotalPickups)
	assert.Equal(t, 4.0, u.Rating)

	pending, err := repos.Outbox.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, models.NotifyPickupCompleted, pending[2].Type)
}

func TestPickupService_UpdateGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.user(t, "h1", models.RoleHost)
	vol := f.user(t, "v1", models.RoleVolunteer)
	intruder := f.user(t, "v2", models.RoleVolunteer)
	postID := f.createPost(t, host)
	otherPost := f.createPost(t, host)
	pickupID, err := f.pickups.Accept(ctx, vol, postID)
	require.NoError(t, err)

	err = f.pickups.Update(ctx, vol, &models.PickupUpdate{PostID: postID})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Contains(t, err.Error(), "missing pickupId, status")

	err = f.pickups.Update(ctx, vol, &models.PickupUpdate{PostID: postID, PickupID: pickupID, Status: "LOST"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	err = f.pickups.Update(ctx, vol, &models.PickupUpdate{PostID: otherPost, PickupID: pickupID, Status: models.PickupPicked})
	assert.ErrorIs(t, err, common.ErrPickupMismatch)

	err = f.pickups.Update(ctx, intruder, &models.PickupUpdate{PostID: postID, PickupID: pickupID, Status: models.PickupPicked})
	assert.ErrorIs(t, err, common.ErrorForbidden)

	err = f.pickups.Update(ctx, vol, &models.PickupUpdate{PostID: postID, PickupID: pickupID, Status: models.PickupPicked, Rating: intPtr(5)})
	assert.ErrorIs(t, err, common.ErrorValidation)

	err = f.pickups.Update(ctx, vol, &models.PickupUpdate{PostID: postID, PickupID: pickupID, Status: models.PickupCompleted})
	assert.True(t, errors.Is(err, common.ErrInvalidTransition))
}

func TestPickupService_CancelReturnsPostToPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.user(t, "h1", models.RoleHost)
	vol := f.user(t, "v1", models.RoleVolunteer)
	next := f.user(t, "v2", models.RoleVolunteer)
	postID := f.createPost(t, host)
	pickupID, err := f.pickups.Accept(ctx, vol, postID)
	require.NoError(t, err)

	require.NoError(t, f.pickups.Update(ctx, vol, &models.PickupUpdate{
		PostID: postID, PickupID: pickupID, Status: models.PickupCancelled,
	}))

	repos := f.rm.Repositories()
	post, _ := repos.Posts.Get(ctx, postID)
	assert.Equal(t, models.PostPosted, post.Status)
	assert.Empty(t, post.PickupID)

	secondID, err := f.pickups.Accept(ctx, next, postID)
	require.NoError(t, err)

	// the cancelled pickup no longer controls the post
	err = f.pickups.Update(ctx, vol, &models.PickupUpdate{PostID: postID, PickupID: pickupID, Status: models.PickupPicked})
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	all, err := repos.Pickups.ListByPost(ctx, postID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.pickups.Mine(ctx, next)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, secondID, mine[0].PickupID)
	assert.Equal(t, models.PickupAccepted, mine[0].PickupStatus)

	mine, err = f.pickups.Mine(ctx, vol)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, pickupID, mine[0].PickupID)
	assert.Equal(t, models.PickupCancelled, mine[0].PickupStatus)
}
