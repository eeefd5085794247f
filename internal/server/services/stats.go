package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/repomanager"
)

type StatsService struct {
	repomanager repomanager.RepositoryManager
}

func NewStatsService(m repomanager.RepositoryManager) *StatsService {
	return &StatsService{repomanager: m}
}

// User reports the caller's host-side counters (from their posts) and
// volunteer-side counters (from their pickups).
func (s *StatsService) User(ctx context.Context, uc *models.UserContext) (*models.UserStats, error) {
	if err := requireRole(uc, models.RoleHost, models.RoleVolunteer, models.RoleAdmin); err != nil {
		return nil, err
	}
	repos := s.repomanager.Repositories()

	posts, err := repos.Posts.ListByHost(ctx, uc.UserID, 0)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	stats := &models.UserStats{TotalPosts: len(posts)}
	for _, p := range posts {
		switch p.Status {
		case models.PostAccepted, models.PostPicked:
			stats.ActivePickups++
		case models.PostCompleted:
			stats.CompletedPickups++
			stats.MealsSaved += p.Servings
		}
	}

	pickups, err := repos.Pickups.ListByVolunteer(ctx, uc.UserID)
	if err != nil {
		return nil, fmt.Errorf("error listing pickups: %w", err)
	}
	for _, p := range pickups {
		if p.Status == models.PickupCancelled {
			continue
		}
		stats.PickupsAccepted++
		if p.Status == models.PickupCompleted {
			stats.PickupsCompleted++
		}
	}

	user, err := repos.Users.Get(ctx, uc.UserID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	stats.Rating = user.Rating
	return stats, nil
}

// Admin aggregates over every post and user.
func (s *StatsService) Admin(ctx context.Context, uc *models.UserContext) (*models.AdminStats, error) {
	if err := requireRole(uc, models.RoleAdmin); err != nil {
		return nil, err
	}
	repos := s.repomanager.Repositories()

	posts, err := repos.Posts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	users, err := repos.Users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	stats := &models.AdminStats{TotalPosts: len(posts), CitiesActive: []string{}}
	cities := map[string]struct{}{}
	for _, p := range posts {
		switch p.Status {
		case models.PostPosted, models.PostAccepted:
			stats.ActivePosts++
		case models.PostCompleted:
			stats.CompletedPickups++
			stats.MealsSaved += p.Servings
		case models.PostFlagged:
			stats.FlaggedPosts++
		}
		if p.Location.City != "" {
			cities[p.Location.City] = struct{}{}
		}
	}
	for c := range cities {
		stats.CitiesActive = append(stats.CitiesActive, c)
	}
	sort.Strings(stats.CitiesActive)

	for _, u := range users {
		switch u.Role {
		case models.RoleVolunteer:
			stats.TotalVolunteers++
		case models.RoleHost:
			stats.TotalHosts++
		}
	}
	return stats, nil
}
