// Package lifecycle holds the food-post / pickup state machine: the allowed
// transitions, their guards and the fields derived from them. It performs no
// I/O; services load state, ask this package, then persist.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/models"
)

const (
	MinExpiryHours = 1
	MaxExpiryHours = 24

	MinRating = 1
	MaxRating = 5
)

// postTransitions is the combined post view. ACCEPTED → POSTED happens when
// the volunteer cancels the pickup.
var postTransitions = map[models.PostStatus][]models.PostStatus{
	models.PostPosted:   {models.PostAccepted, models.PostFlagged, models.PostCancelled},
	models.PostAccepted: {models.PostPicked, models.PostPosted},
	models.PostPicked:   {models.PostCompleted},
}

var pickupTransitions = map[models.PickupStatus][]models.PickupStatus{
	models.PickupAccepted: {models.PickupEnRoute, models.PickupPicked, models.PickupCancelled},
	models.PickupEnRoute:  {models.PickupPicked, models.PickupCancelled},
	models.PickupPicked:   {models.PickupCompleted},
}

func CanTransitionPost(from, to models.PostStatus) bool {
	for _, s := range postTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func CanAdvancePickup(from, to models.PickupStatus) bool {
	for _, s := range pickupTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PostStatusFor projects a pickup status onto its post.
func PostStatusFor(s models.PickupStatus) models.PostStatus {
	switch s {
	case models.PickupAccepted, models.PickupEnRoute:
		return models.PostAccepted
	case models.PickupPicked:
		return models.PostPicked
	case models.PickupCompleted:
		return models.PostCompleted
	default:
		return models.PostPosted
	}
}

func ValidPickupStatus(s models.PickupStatus) bool {
	switch s {
	case models.PickupAccepted, models.PickupEnRoute, models.PickupPicked,
		models.PickupCompleted, models.PickupCancelled:
		return true
	}
	return false
}

func ValidPostStatus(s models.PostStatus) bool {
	switch s {
	case models.PostPosted, models.PostAccepted, models.PostPicked, models.PostCompleted,
		models.PostExpired, models.PostCancelled, models.PostFlagged:
		return true
	}
	return false
}

// ExpiresAt returns preparedAt + hours, exactly.
func ExpiresAt(preparedAt time.Time, hours int) time.Time {
	return preparedAt.Add(time.Duration(hours) * time.Hour)
}

func IsExpired(p *models.FoodPost, now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// DisplayStatus is the status shown to readers: EXPIRED replaces POSTED or
// ACCEPTED once expiresAt has passed. The stored status is never changed.
func DisplayStatus(p *models.FoodPost, now time.Time) models.PostStatus {
	if (p.Status == models.PostPosted || p.Status == models.PostAccepted) && IsExpired(p, now) {
		return models.PostExpired
	}
	return p.Status
}

func View(p *models.FoodPost, now time.Time) models.PostView {
	return models.PostView{
		FoodPost:      *p,
		Expired:       IsExpired(p, now),
		DisplayStatus: DisplayStatus(p, now),
	}
}

// CheckAcceptable reports why p cannot be accepted at now, if it cannot.
func CheckAcceptable(p *models.FoodPost, now time.Time) error {
	if p.Status != models.PostPosted {
		return common.ErrPostNotAvailable
	}
	if IsExpired(p, now) {
		return common.ErrPostExpired
	}
	return nil
}

func ValidateRating(score int) error {
	if score < MinRating || score > MaxRating {
		return common.ErrInvalidRating
	}
	return nil
}

// ValidateNewPost checks the creation guard: required fields, a fully
// attested checklist and an expiry window within bounds.
func ValidateNewPost(np *models.NewPost) error {
	var missing []string
	if strings.TrimSpace(np.FoodType) == "" {
		missing = append(missing, "foodType")
	}
	if strings.TrimSpace(np.Quantity) == "" {
		missing = append(missing, "quantity")
	}
	if strings.TrimSpace(np.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(np.City) == "" {
		missing = append(missing, "city")
	}
	if np.PreparedAt.IsZero() {
		missing = append(missing, "preparedAt")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", common.ErrorValidation, strings.Join(missing, ", "))
	}
	if np.Servings <= 0 {
		return fmt.Errorf("%w: servings must be positive", common.ErrorValidation)
	}
	if np.ExpiryHours < MinExpiryHours || np.ExpiryHours > MaxExpiryHours {
		return fmt.Errorf("%w: expiryHours must be between %d and %d", common.ErrorValidation, MinExpiryHours, MaxExpiryHours)
	}
	if !np.SafetyChecklist.Complete() {
		return fmt.Errorf("%w: all safety checklist items must be confirmed", common.ErrorValidation)
	}
	if (np.Latitude == nil) != (np.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude go together", common.ErrorValidation)
	}
	return nil
}
