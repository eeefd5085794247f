package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/notify"
	"github.com/fudbi/fudbi/internal/server/repositories/repomanager"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type captureMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *captureMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	rm      *repomanager.MemoryRepositoryManager
	clock   *fakeClock
	posts   *PostService
	pickups *PickupService
	stats   *StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rm:    repomanager.NewMemoryRepositoryManager(),
		clock: &fakeClock{now: t0},
	}
	f.posts = NewPostService(f.rm, 50, logging.Nop{})
	f.posts.now = f.clock.Now
	f.pickups = NewPickupService(f.rm, logging.Nop{})
	f.pickups.now = f.clock.Now
	f.stats = NewStatsService(f.rm)
	return f
}

func (f *fixture) user(t *testing.T, id string, role models.Role) *models.UserContext {
	t.Helper()
	require.NoError(t, f.rm.Repositories().Users.Create(context.Background(), &models.User{
		ID: id, Email: id + "@x.io", Name: "Name " + id, City: "Pune", Role: role, Verified: true,
	}))
	return &models.UserContext{UserID: id, Email: id + "@x.io", Name: "Name " + id, City: "Pune", Role: role}
}

func newPost(city string) *models.NewPost {
	return &models.NewPost{
		FoodType:    "Rice",
		Quantity:    "5 kg",
		Servings:    20,
		Address:     "12 MG Road",
		City:        city,
		PreparedAt:  t0,
		ExpiryHours: 4,
		SafetyChecklist: models.SafetyChecklist{
			FreshlyPrepared: true, ProperStorage: true, NoAllergensWarning: true, LabeledCorrectly: true,
		},
	}
}

func (f *fixture) createPost(t *testing.T, host *models.UserContext) string {
	t.Helper()
	id, err := f.posts.Create(context.Background(), host, newPost("Pune"))
	require.NoError(t, err)
	return id
}
