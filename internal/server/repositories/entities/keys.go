package entities

import (
	"time"

	"github.com/fudbi/fudbi/internal/timex"
)

const (
	TypePost      = "POST"
	TypePickup    = "PICKUP"
	TypeUser      = "USER"
	TypePushToken = "PUSH_TOKEN"
	TypeIdentity  = "IDENTITY"
	TypeSession   = "SESSION"
	TypeOutbox    = "OUTBOX"
)

const (
	SKMetadata    = "METADATA"
	SKProfile     = "PROFILE"
	SKPushToken   = "PUSH_TOKEN"
	SKCredentials = "CREDENTIALS"
	SKRevoked     = "REVOKED"
	SKIntent      = "INTENT"

	PickupSKPrefix = "PICKUP#"
	PostSKPrefix   = "POST#"
	UserSKPrefix   = "USER#"

	OutboxPendingPK = "OUTBOX#PENDING"
)

func PostPK(postID string) string     { return "POST#" + postID }
func PickupSK(pickupID string) string { return PickupSKPrefix + pickupID }
func UserPK(userID string) string     { return "USER#" + userID }
func CityPK(city string) string       { return "CITY#" + city }
func HostPK(hostID string) string     { return "HOST#" + hostID }
func IdentityPK(email string) string  { return "IDENTITY#" + email }
func SessionPK(jti string) string     { return "SESSION#" + jti }
func OutboxPK(id string) string       { return "OUTBOX#" + id }

// PostSK orders posts by creation time within a city or host partition.
func PostSK(createdAt time.Time, postID string) string {
	return PostSKPrefix + timex.Sortable(createdAt) + "#" + postID
}

func UserCitySK(userID string) string { return UserSKPrefix + userID }

func OutboxSK(createdAt time.Time, id string) string {
	return timex.Sortable(createdAt) + "#" + id
}
