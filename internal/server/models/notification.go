package models

import "time"

type NotificationType string

const (
	NotifyNewPost         NotificationType = "NEW_POST"
	NotifyPickupAccepted  NotificationType = "PICKUP_ACCEPTED"
	NotifyPickupCompleted NotificationType = "PICKUP_COMPLETED"
)

// NotificationIntent is an outbox record written in the same transaction as
// the transition that produced it.
type NotificationIntent struct {
	ID            string           `json:"id"`
	Type          NotificationType `json:"type"`
	PostID        string           `json:"postId"`
	PickupID      string           `json:"pickupId,omitempty"`
	City          string           `json:"city,omitempty"`
	HostID        string           `json:"hostId,omitempty"`
	VolunteerID   string           `json:"volunteerId,omitempty"`
	VolunteerName string           `json:"volunteerName,omitempty"`
	FoodType      string           `json:"foodType,omitempty"`
	Quantity      string           `json:"quantity,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	Attempts      int              `json:"attempts"`
}
