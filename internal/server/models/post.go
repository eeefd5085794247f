package models

import "time"

type PostStatus string

const (
	PostPosted    PostStatus = "POSTED"
	PostAccepted  PostStatus = "ACCEPTED"
	PostPicked    PostStatus = "PICKED"
	PostCompleted PostStatus = "COMPLETED"
	PostExpired   PostStatus = "EXPIRED"
	PostCancelled PostStatus = "CANCELLED"
	PostFlagged   PostStatus = "FLAGGED"
)

// Attribute names used for partial updates and filters. They must match
// the JSON tags below.
const (
	AttrStatus      = "status"
	AttrPickupID    = "pickupId"
	AttrUpdatedAt   = "updatedAt"
	AttrFlagged     = "flagged"
	AttrRole        = "role"
	AttrVersion     = "version"
	AttrPickedAt    = "pickedAt"
	AttrEnRouteAt   = "enRouteAt"
	AttrCompletedAt = "completedAt"
	AttrCancelledAt = "cancelledAt"
	AttrRating      = "rating"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	Address     string       `json:"address"`
	City        string       `json:"city"`
	Landmark    string       `json:"landmark,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// SafetyChecklist holds the host's four attestations.
type SafetyChecklist struct {
	FreshlyPrepared    bool `json:"freshlyPrepared"`
	ProperStorage      bool `json:"properStorage"`
	NoAllergensWarning bool `json:"noAllergensWarning"`
	LabeledCorrectly   bool `json:"labeledCorrectly"`
}

func (c SafetyChecklist) Complete() bool {
	return c.FreshlyPrepared && c.ProperStorage && c.NoAllergensWarning && c.LabeledCorrectly
}

// FoodPost is stored under POST#<id>/METADATA.
type FoodPost struct {
	ID              string          `json:"id"`
	HostID          string          `json:"hostId"`
	HostName        string          `json:"hostName"`
	ContactName     string          `json:"contactName,omitempty"`
	ContactPhone    string          `json:"contactPhone,omitempty"`
	FoodType        string          `json:"foodType"`
	Quantity        string          `json:"quantity"`
	Servings        int             `json:"servings"`
	Description     string          `json:"description,omitempty"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	Location        Location        `json:"location"`
	PreparedAt      time.Time       `json:"preparedAt"`
	ExpiresAt       time.Time       `json:"expiresAt"`
	SafetyChecklist SafetyChecklist `json:"safetyChecklist"`
	Status          PostStatus      `json:"status"`
	PickupID        string          `json:"pickupId,omitempty"`
	Flagged         bool            `json:"flagged,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// PostView decorates a post with read-time derived fields.
type PostView struct {
	FoodPost
	Expired       bool         `json:"expired"`
	DisplayStatus PostStatus   `json:"displayStatus"`
	PickupStatus  PickupStatus `json:"pickupStatus,omitempty"`
}

// NewPost carries the host-supplied fields of a post being created.
type NewPost struct {
	FoodType        string          `json:"foodType"`
	Quantity        string          `json:"quantity"`
	Servings        int             `json:"servings"`
	Description     string          `json:"description"`
	ContactName     string          `json:"contactName"`
	ContactPhone    string          `json:"contactPhone"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	Landmark        string          `json:"landmark"`
	Latitude        *float64        `json:"latitude"`
	Longitude       *float64        `json:"longitude"`
	PreparedAt      time.Time       `json:"preparedAt"`
	ExpiryHours     int             `json:"expiryHours"`
	SafetyChecklist SafetyChecklist `json:"safetyChecklist"`
	ImageURL        string          `json:"imageUrl"`
}
