package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/lifecycle"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/repomanager"
)

type PickupService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

func NewPickupService(m repomanager.RepositoryManager, logger logging.Logger) *PickupService {
	return &PickupService{
		repomanager: m,
		logger:      logger.With("module", "pickups"),
		now:         time.Now,
	}
}

// Accept claims a POSTED post for the calling volunteer. The post update is
// conditional on its status still being POSTED, so of two concurrent
// accepts exactly one wins and the other gets ErrPostNotAvailable.
func (s *PickupService) Accept(ctx context.Context, uc *models.UserContext, postID string) (string, error) {
	if err := requireRole(uc, models.RoleVolunteer, models.RoleAdmin); err != nil {
		return "", err
	}
	if strings.TrimSpace(postID) == "" {
		return "", fmt.Errorf("%w: postId is required", common.ErrorValidation)
	}

	now := s.now().UTC()
	post, err := s.repomanager.Repositories().Posts.Get(ctx, postID)
	if err != nil {
		return "", err
	}
	if err := lifecycle.CheckAcceptable(post, now); err != nil {
		return "", err
	}

	pickup := &models.Pickup{
		ID:             uuid.NewString(),
		PostID:         post.ID,
		VolunteerID:    uc.UserID,
		VolunteerName:  uc.Name,
		VolunteerPhone: uc.Phone,
		Status:         models.PickupAccepted,
		AcceptedAt:     now,
		UpdatedAt:      now,
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		err := r.Posts.UpdateIfStatus(ctx, post.ID, models.PostPosted, map[string]any{
			models.AttrStatus:    models.PostAccepted,
			models.AttrPickupID:  pickup.ID,
			models.AttrUpdatedAt: now,
		})
		if errors.Is(err, common.ErrConditionFailed) {
			return common.ErrPostNotAvailable
		}
		if err != nil {
			return fmt.Errorf("error updating post: %w", err)
		}
		if err := r.Pickups.Create(ctx, pickup); err != nil {
			return fmt.Errorf("error creating pickup: %w", err)
		}
		return r.Outbox.Enqueue(ctx, &models.NotificationIntent{
			ID:            uuid.NewString(),
			Type:          models.NotifyPickupAccepted,
			PostID:        post.ID,
			PickupID:      pickup.ID,
			City:          post.Location.City,
			HostID:        post.HostID,
			VolunteerID:   uc.UserID,
			VolunteerName: uc.Name,
			FoodType:      post.FoodType,
			Quantity:      post.Quantity,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return "", err
	}
	s.logger.Info(ctx, "pickup accepted", "post_id", post.ID, "pickup_id", pickup.ID, "volunteer_id", uc.UserID)
	return pickup.ID, nil
}

func validateUpdate(upd *models.PickupUpdate) error {
	var missing []string
	if strings.TrimSpace(upd.PostID) == "" {
		missing = append(missing, "postId")
	}
	if strings.TrimSpace(upd.PickupID) == "" {
		missing = append(missing, "pickupId")
	}
	if upd.Status == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", common.ErrorValidation, strings.Join(missing, ", "))
	}
	if !lifecycle.ValidPickupStatus(upd.Status) {
		return fmt.Errorf("%w: unknown status %q", common.ErrorValidation, upd.Status)
	}
	if upd.Rating != nil {
		if upd.Status != models.PickupCompleted {
			return fmt.Errorf("%w: rating is only accepted on completion", common.ErrorValidation)
		}
		if err := lifecycle.ValidateRating(*upd.Rating); err != nil {
			return err
		}
	}
	return nil
}

// Update moves a pickup along its lifecycle and projects the new status onto
// the post in the same transaction. Cancelling returns the post to POSTED.
func (s *PickupService) Update(ctx context.Context, uc *models.UserContext, upd *models.PickupUpdate) error {
	if err := requireRole(uc, models.RoleVolunteer, models.RoleAdmin); err != nil {
		return err
	}
	if err := validateUpdate(upd); err != nil {
		return err
	}

	repos := s.repomanager.Repositories()
	pickup, err := repos.Pickups.Get(ctx, upd.PostID, upd.PickupID)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrPickupMismatch
	}
	if err != nil {
		return fmt.Errorf("error loading pickup: %w", err)
	}
	if pickup.VolunteerID != uc.UserID && uc.Role != models.RoleAdmin {
		return common.ErrorForbidden
	}
	if !lifecycle.CanAdvancePickup(pickup.Status, upd.Status) {
		return fmt.Errorf("%w: %s to %s", common.ErrInvalidTransition, pickup.Status, upd.Status)
	}
	post, err := repos.Posts.Get(ctx, upd.PostID)
	if err != nil {
		return fmt.Errorf("error loading post: %w", err)
	}
	if post.PickupID != pickup.ID {
		return common.ErrPickupMismatch
	}

	now := s.now().UTC()
	pickupChanges := map[string]any{
		models.AttrStatus:    upd.Status,
		models.AttrUpdatedAt: now,
	}
	switch upd.Status {
	case models.PickupEnRoute:
		pickupChanges[models.AttrEnRouteAt] = now
	case models.PickupPicked:
		pickupChanges[models.AttrPickedAt] = now
	case models.PickupCompleted:
		pickupChanges[models.AttrCompletedAt] = now
	case models.PickupCancelled:
		pickupChanges[models.AttrCancelledAt] = now
	}
	if upd.Notes != "" {
		pickupChanges["notes"] = upd.Notes
	}
	var rating *models.Rating
	if upd.Rating != nil {
		rating = &models.Rating{Score: *upd.Rating, Feedback: upd.Feedback}
		pickupChanges[models.AttrRating] = rating
	}

	postChanges := map[string]any{
		models.AttrStatus:    lifecycle.PostStatusFor(upd.Status),
		models.AttrUpdatedAt: now,
	}
	if upd.Status == models.PickupCancelled {
		postChanges[models.AttrPickupID] = ""
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		err := r.Pickups.UpdateIfStatus(ctx, pickup.PostID, pickup.ID, pickup.Status, pickupChanges)
		if errors.Is(err, common.ErrConditionFailed) {
			return fmt.Errorf("%w: pickup changed concurrently", common.ErrInvalidTransition)
		}
		if err != nil {
			return fmt.Errorf("error updating pickup: %w", err)
		}
		err = r.Posts.UpdateIfStatus(ctx, post.ID, post.Status, postChanges)
		if errors.Is(err, common.ErrConditionFailed) {
			return fmt.Errorf("%w: post changed concurrently", common.ErrInvalidTransition)
		}
		if err != nil {
			return fmt.Errorf("error updating post: %w", err)
		}
		if upd.Status != models.PickupCompleted {
			return nil
		}

		err = updateAggregates(ctx, r.Users, pickup.VolunteerID, func(u *models.User) {
			u.TotalPickups++
			if rating != nil {
				u.AddRating(rating.Score)
			}
		})
		if err != nil {
			return err
		}
		return r.Outbox.Enqueue(ctx, &models.NotificationIntent{
			ID:            uuid.NewString(),
			Type:          models.NotifyPickupCompleted,
			PostID:        post.ID,
			PickupID:      pickup.ID,
			City:          post.Location.City,
			HostID:        post.HostID,
			VolunteerID:   pickup.VolunteerID,
			VolunteerName: pickup.VolunteerName,
			FoodType:      post.FoodType,
			Quantity:      post.Quantity,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "pickup updated", "post_id", post.ID, "pickup_id", pickup.ID, "status", upd.Status)
	return nil
}

// Mine lists the posts the volunteer has picked up, each carrying the
// volunteer's own pickup id and status, most recent first.
func (s *PickupService) Mine(ctx context.Context, uc *models.UserContext) ([]models.PostView, error) {
	if err := requireRole(uc, models.RoleVolunteer, models.RoleAdmin); err != nil {
		return nil, err
	}
	repos := s.repomanager.Repositories()
	list, err := repos.Pickups.ListByVolunteer(ctx, uc.UserID)
	if err != nil {
		return nil, fmt.Errorf("error listing pickups: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].AcceptedAt.After(list[j].AcceptedAt) })

	now := s.now()
	out := make([]models.PostView, 0, len(list))
	for _, p := range list {
		post, err := repos.Posts.Get(ctx, p.PostID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			return nil, fmt.Errorf("error loading post %s: %w", p.PostID, err)
		}
		v := lifecycle.View(post, now)
		v.PickupID = p.ID
		v.PickupStatus = p.Status
		out = append(out, v)
	}
	return out, nil
}
