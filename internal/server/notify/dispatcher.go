package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/pushtokens"
	"github.com/fudbi/fudbi/internal/server/repositories/users"
)

// NewPostEvent is the websocket payload announcing a fresh post to a city.
type NewPostEvent struct {
	PostID   string `json:"postId"`
	FoodType string `json:"foodType"`
	Quantity string `json:"quantity"`
	City     string `json:"city"`
}

// Dispatcher resolves the recipients of an intent and delivers it over
// every configured channel. Delivery failures are logged, never returned.
// A negative fan-out cap leaves new-post email uncapped.
type Dispatcher struct {
	users     users.Repository
	tokens    pushtokens.Repository
	mailer    Mailer
	pusher    Pusher
	hub       Broadcaster
	fanoutCap int
	appURL    string
	logger    logging.Logger
}

func NewDispatcher(
	usersRepo users.Repository,
	tokens pushtokens.Repository,
	mailer Mailer,
	pusher Pusher,
	hub Broadcaster,
	fanoutCap int,
	appURL string,
	logger logging.Logger,
) *Dispatcher {
	return &Dispatcher{
		users:     usersRepo,
		tokens:    tokens,
		mailer:    mailer,
		pusher:    pusher,
		hub:       hub,
		fanoutCap: fanoutCap,
		appURL:    appURL,
		logger:    logger.With("module", "dispatcher"),
	}
}

// Dispatch is a Handler. The returned error only reports an intent the
// dispatcher cannot route.
func (d *Dispatcher) Dispatch(ctx context.Context, in *models.NotificationIntent) error {
	d.logger.Debug(ctx, "dispatching", "intent_id", in.ID, "type", in.Type, "post_id", in.PostID)

	switch in.Type {
	case models.NotifyNewPost:
		d.newPost(ctx, in)
	case models.NotifyPickupAccepted:
		d.pickupAccepted(ctx, in)
	case models.NotifyPickupCompleted:
		d.pickupCompleted(ctx, in)
	default:
		return fmt.Errorf("unknown notification type %q", in.Type)
	}
	return nil
}

func (d *Dispatcher) newPost(ctx context.Context, in *models.NotificationIntent) {
	if d.hub != nil {
		d.hub.Broadcast(in.City, string(in.Type), NewPostEvent{
			PostID:   in.PostID,
			FoodType: in.FoodType,
			Quantity: in.Quantity,
			City:     in.City,
		})
	}

	people, err := d.users.ListByCity(ctx, in.City)
	if err != nil {
		d.logger.Error(ctx, "failed to list city users", "city", in.City, "error", err)
		return
	}

	var emailTo []*models.User
	pushed := 0
	for _, u := range people {
		if u.Role != models.RoleVolunteer {
			continue
		}
		token, ok := d.pushToken(ctx, u.ID)
		if !ok {
			emailTo = append(emailTo, u)
			continue
		}
		if err := d.pusher.Push(ctx, token, pushTitleNewPost, newPostPush(in)); err != nil {
			d.logger.Warn(ctx, "push failed", "user_id", u.ID, "error", err)
			continue
		}
		pushed++
	}

	if d.fanoutCap >= 0 && len(emailTo) > d.fanoutCap {
		emailTo = emailTo[:d.fanoutCap]
	}
	for _, u := range emailTo {
		d.send(ctx, Message{
			To:      u.Email,
			ToName:  u.Name,
			Subject: subjectNewPost,
			Body:    withFooter(newPostEmail(u.Name, in), d.appURL, in.PostID),
		})
	}
	d.logger.Info(ctx, "new post fan-out", "post_id", in.PostID, "city", in.City, "pushed", pushed, "emailed", len(emailTo))
}

func (d *Dispatcher) pickupAccepted(ctx context.Context, in *models.NotificationIntent) {
	host, err := d.users.Get(ctx, in.HostID)
	if err != nil {
		d.logger.Error(ctx, "failed to load host", "host_id", in.HostID, "error", err)
		return
	}
	msg := pickupAcceptedMessage(in)
	d.send(ctx, Message{
		To:      host.Email,
		ToName:  host.Name,
		Subject: subjectPickupAccepted,
		Body:    withFooter(msg, d.appURL, in.PostID),
	})
	if token, ok := d.pushToken(ctx, host.ID); ok {
		if err := d.pusher.Push(ctx, token, pushTitlePickupAccepted, msg); err != nil {
			d.logger.Warn(ctx, "push failed", "user_id", host.ID, "error", err)
		}
	}
}

func (d *Dispatcher) pickupCompleted(ctx context.Context, in *models.NotificationIntent) {
	host, err := d.users.Get(ctx, in.HostID)
	if err != nil {
		d.logger.Error(ctx, "failed to load host", "host_id", in.HostID, "error", err)
		return
	}
	d.send(ctx, Message{
		To:      host.Email,
		ToName:  host.Name,
		Subject: subjectPickupCompleted,
		Body:    withFooter(pickupCompletedMessage(in), d.appURL, in.PostID),
	})
}

func (d *Dispatcher) pushToken(ctx context.Context, userID string) (string, bool) {
	t, err := d.tokens.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			d.logger.Warn(ctx, "push token lookup failed", "user_id", userID, "error", err)
		}
		return "", false
	}
	return t.Token, t.Token != ""
}

func (d *Dispatcher) send(ctx context.Context, m Message) {
	if m.To == "" {
		return
	}
	if err := d.mailer.Send(ctx, m); err != nil {
		d.logger.Warn(ctx, "email failed", "to", m.To, "subject", m.Subject, "error", err)
	}
}
