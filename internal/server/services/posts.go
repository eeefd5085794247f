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

// PostDetail is a post with its current pickup, if any.
type PostDetail struct {
	Post   models.PostView `json:"post"`
	Pickup *models.Pickup  `json:"pickup,omitempty"`
}

type PostService struct {
	repomanager repomanager.RepositoryManager
	pageSize    int
	logger      logging.Logger
	now         func() time.Time
}

func NewPostService(m repomanager.RepositoryManager, pageSize int, logger logging.Logger) *PostService {
	return &PostService{
		repomanager: m,
		pageSize:    pageSize,
		logger:      logger.With("module", "posts"),
		now:         time.Now,
	}
}

func requireRole(uc *models.UserContext, roles ...models.Role) error {
	if uc == nil {
		return common.ErrorUnauthorized
	}
	if !uc.HasRole(roles...) {
		return common.ErrorForbidden
	}
	return nil
}

// Create stores a new POSTED post, bumps the host's post counter and queues
// the NEW_POST notification in one transaction.
func (s *PostService) Create(ctx context.Context, uc *models.UserContext, np *models.NewPost) (string, error) {
	if err := requireRole(uc, models.RoleHost, models.RoleAdmin); err != nil {
		return "", err
	}
	if err := lifecycle.ValidateNewPost(np); err != nil {
		return "", err
	}

	now := s.now().UTC()
	post := &models.FoodPost{
		ID:           uuid.NewString(),
		HostID:       uc.UserID,
		HostName:     uc.Name,
		ContactName:  firstNonEmpty(np.ContactName, uc.Name),
		ContactPhone: firstNonEmpty(np.ContactPhone, uc.Phone),
		FoodType:     strings.TrimSpace(np.FoodType),
		Quantity:     strings.TrimSpace(np.Quantity),
		Servings:     np.Servings,
		Description:  np.Description,
		ImageURL:     np.ImageURL,
		Location: models.Location{
			Address:  strings.TrimSpace(np.Address),
			City:     strings.TrimSpace(np.City),
			Landmark: np.Landmark,
		},
		PreparedAt:      np.PreparedAt.UTC(),
		ExpiresAt:       lifecycle.ExpiresAt(np.PreparedAt.UTC(), np.ExpiryHours),
		SafetyChecklist: np.SafetyChecklist,
		Status:          models.PostPosted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if np.Latitude != nil && np.Longitude != nil {
		post.Location.Coordinates = &models.Coordinates{Lat: *np.Latitude, Lng: *np.Longitude}
	}

	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		if err := r.Posts.Create(ctx, post); err != nil {
			return fmt.Errorf("error creating post: %w", err)
		}
		if err := updateAggregates(ctx, r.Users, uc.UserID, func(u *models.User) { u.TotalPosts++ }); err != nil {
			return err
		}
		return r.Outbox.Enqueue(ctx, &models.NotificationIntent{
			ID:        uuid.NewString(),
			Type:      models.NotifyNewPost,
			PostID:    post.ID,
			City:      post.Location.City,
			HostID:    post.HostID,
			FoodType:  post.FoodType,
			Quantity:  post.Quantity,
			CreatedAt: now,
		})
	})
	if err != nil {
		return "", err
	}
	s.logger.Info(ctx, "post created", "post_id", post.ID, "city", post.Location.City, "host_id", post.HostID)
	return post.ID, nil
}

func firstNonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (s *PostService) clampLimit(limit int) int {
	if limit <= 0 || limit > s.pageSize {
		return s.pageSize
	}
	return limit
}

func (s *PostService) views(posts []*models.FoodPost) []models.PostView {
	now := s.now()
	out := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, lifecycle.View(p, now))
	}
	return out
}

// List returns a city's posts newest first. The status defaults to POSTED;
// EXPIRED selects posted posts whose expiry has passed.
func (s *PostService) List(ctx context.Context, city string, status models.PostStatus, limit int) ([]models.PostView, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("%w: city is required", common.ErrorValidation)
	}
	if status == "" {
		status = models.PostPosted
	}
	if !lifecycle.ValidPostStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrorValidation, status)
	}
	limit = s.clampLimit(limit)

	posts := s.repomanager.Repositories().Posts
	if status != models.PostExpired {
		list, err := posts.ListByCity(ctx, city, status, limit)
		if err != nil {
			return nil, fmt.Errorf("error listing posts: %w", err)
		}
		return s.views(list), nil
	}

	list, err := posts.ListByCity(ctx, city, models.PostPosted, 0)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	now := s.now()
	expired := make([]models.PostView, 0)
	for _, p := range list {
		if lifecycle.IsExpired(p, now) {
			expired = append(expired, lifecycle.View(p, now))
			if len(expired) == limit {
				break
			}
		}
	}
	return expired, nil
}

func (s *PostService) Get(ctx context.Context, postID string) (*PostDetail, error) {
	repos := s.repomanager.Repositories()
	post, err := repos.Posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	d := &PostDetail{Post: lifecycle.View(post, s.now())}
	if post.PickupID != "" {
		pickup, err := repos.Pickups.Get(ctx, post.ID, post.PickupID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error loading pickup: %w", err)
		}
		if pickup != nil {
			d.Pickup = pickup
			d.Post.PickupStatus = pickup.Status
		}
	}
	return d, nil
}

// Mine lists the caller's own posts, newest first.
func (s *PostService) Mine(ctx context.Context, uc *models.UserContext) ([]models.PostView, error) {
	if err := requireRole(uc, models.RoleHost, models.RoleAdmin); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Repositories().Posts.ListByHost(ctx, uc.UserID, 0)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return s.views(list), nil
}

// Cancel withdraws a post that nobody has accepted yet.
func (s *PostService) Cancel(ctx context.Context, uc *models.UserContext, postID string) error {
	if err := requireRole(uc, models.RoleHost, models.RoleAdmin); err != nil {
		return err
	}
	post, err := s.repomanager.Repositories().Posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.HostID != uc.UserID && uc.Role != models.RoleAdmin {
		return common.ErrorForbidden
	}
	return s.closePost(ctx, post, models.PostCancelled, map[string]any{})
}

// Flag takes a POSTED post out of circulation.
func (s *PostService) Flag(ctx context.Context, uc *models.UserContext, postID string) error {
	if err := requireRole(uc, models.RoleAdmin); err != nil {
		return err
	}
	post, err := s.repomanager.Repositories().Posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	return s.closePost(ctx, post, models.PostFlagged, map[string]any{models.AttrFlagged: true})
}

func (s *PostService) closePost(ctx context.Context, post *models.FoodPost, to models.PostStatus, changes map[string]any) error {
	if !lifecycle.CanTransitionPost(post.Status, to) {
		return fmt.Errorf("%w: %s to %s", common.ErrInvalidTransition, post.Status, to)
	}
	changes[models.AttrStatus] = to
	changes[models.AttrUpdatedAt] = s.now().UTC()

	err := s.repomanager.Repositories().Posts.UpdateIfStatus(ctx, post.ID, post.Status, changes)
	if errors.Is(err, common.ErrConditionFailed) {
		return common.ErrPostNotAvailable
	}
	if err != nil {
		return fmt.Errorf("error updating post: %w", err)
	}
	s.logger.Info(ctx, "post closed", "post_id", post.ID, "status", to)
	return nil
}

// ListAll is the admin view over every post, newest first.
func (s *PostService) ListAll(ctx context.Context, uc *models.UserContext) ([]models.PostView, error) {
	if err := requireRole(uc, models.RoleAdmin); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Repositories().Posts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return s.views(list), nil
}
