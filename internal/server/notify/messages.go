package notify

import (
	"fmt"
	"strings"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/models"
)

const (
	subjectNewPost         = "New Food Available in Your Area"
	subjectPickupAccepted  = "Your Food Post Has Been Accepted!"
	subjectPickupCompleted = "Your Food Has Been Delivered"

	pushTitleNewPost        = "New Food Available!"
	pushTitlePickupAccepted = "Pickup Accepted"
)

func newPostEmail(volunteerName string, in *models.NotificationIntent) string {
	return fmt.Sprintf("Hello %s,\n\nNew food is available for pickup:\n\nType: %s\nQuantity: %s\nCity: %s\n\nVisit the app to accept this pickup.",
		volunteerName, in.FoodType, in.Quantity, in.City)
}

func newPostPush(in *models.NotificationIntent) string {
	return fmt.Sprintf("%s (%s) is available for pickup in %s", in.FoodType, in.Quantity, in.City)
}

func pickupAcceptedMessage(in *models.NotificationIntent) string {
	return fmt.Sprintf("Good news! %s has accepted your food post and will be picking it up soon. Please keep the food ready for pickup.",
		in.VolunteerName)
}

func pickupCompletedMessage(in *models.NotificationIntent) string {
	return fmt.Sprintf("%s has delivered your %s. Thank you for sharing food with your community!",
		in.VolunteerName, in.FoodType)
}

// withFooter appends the app signature and a link to the post.
func withFooter(body, appURL, postID string) string {
	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(common.AppName)
	if appURL != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(appURL, "/"))
		if postID != "" {
			b.WriteString("/posts/" + postID)
		}
	}
	return b.String()
}
