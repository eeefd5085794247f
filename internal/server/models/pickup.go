package models

import "time"

type PickupStatus string

const (
	PickupAccepted  PickupStatus = "ACCEPTED"
	PickupEnRoute   PickupStatus = "EN_ROUTE"
	PickupPicked    PickupStatus = "PICKED"
	PickupCompleted PickupStatus = "COMPLETED"
	PickupCancelled PickupStatus = "CANCELLED"
)

type Rating struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback,omitempty"`
}

// Pickup is stored under POST#<postId>/PICKUP#<id>, next to its post.
type Pickup struct {
	ID             string       `json:"id"`
	PostID         string       `json:"postId"`
	VolunteerID    string       `json:"volunteerId"`
	VolunteerName  string       `json:"volunteerName"`
	VolunteerPhone string       `json:"volunteerPhone,omitempty"`
	Status         PickupStatus `json:"status"`
	AcceptedAt     time.Time    `json:"acceptedAt"`
	EnRouteAt      *time.Time   `json:"enRouteAt,omitempty"`
	PickedAt       *time.Time   `json:"pickedAt,omitempty"`
	CompletedAt    *time.Time   `json:"completedAt,omitempty"`
	CancelledAt    *time.Time   `json:"cancelledAt,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	Rating         *Rating      `json:"rating,omitempty"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// PickupUpdate is a volunteer's request to move a pickup forward.
type PickupUpdate struct {
	PostID   string       `json:"postId"`
	PickupID string       `json:"pickupId"`
	Status   PickupStatus `json:"status"`
	Rating   *int         `json:"rating,omitempty"`
	Feedback string       `json:"feedback,omitempty"`
	Notes    string       `json:"notes,omitempty"`
}
