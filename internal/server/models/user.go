// Package models defines the records persisted in the entity store and the
// DTOs the services hand back to the HTTP layer.
package models

import "time"

type Role string

const (
	RoleHost      Role = "host"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHost, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// User is the profile record stored under USER#<id>/PROFILE.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Name         string    `json:"name"`
	City         string    `json:"city"`
	Role         Role      `json:"role"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
	TotalPosts   int       `json:"totalPosts"`
	TotalPickups int       `json:"totalPickups"`
	Rating       float64   `json:"rating"`
	RatingCount  int       `json:"ratingCount"`
	RatingTotal  int       `json:"ratingTotal"`
	// Version is bumped on every aggregate update and used as the
	// compare-and-set guard for those updates.
	Version int `json:"version"`
}

// AddRating folds one score into the running average.
func (u *User) AddRating(score int) {
	u.RatingCount++
	u.RatingTotal += score
	u.Rating = float64(u.RatingTotal) / float64(u.RatingCount)
}

// UserContext is what a session resolves to.
type UserContext struct {
	SessionID string    `json:"-"`
	UserID    string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	City      string    `json:"city"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"-"`
}

func (u *UserContext) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Identity is the local identity provider's credential record.
type Identity struct {
	Email         string    `json:"email"`
	UserID        string    `json:"userId"`
	PasswordHash  []byte    `json:"passwordHash"`
	Confirmed     bool      `json:"confirmed"`
	CodeHash      []byte    `json:"codeHash,omitempty"`
	CodeExpiresAt time.Time `json:"codeExpiresAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RevokedSession marks a signed-out session id until its natural expiry.
type RevokedSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PushToken binds a user to a push channel address (a Telegram chat id).
type PushToken struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updatedAt"`
}
