package notify

import (
	"context"
	"errors"

	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/models"
)

var ErrBrokerFull = errors.New("broker queue is full")

// Handler processes one delivered intent. Its error is logged by the
// broker; the delivery is acknowledged either way.
type Handler func(ctx context.Context, intent *models.NotificationIntent) error

type Broker interface {
	Publish(ctx context.Context, intent *models.NotificationIntent) error
	// Consume blocks delivering intents to h until ctx is done.
	Consume(ctx context.Context, h Handler) error
	Close() error
}

// ChannelBroker is the in-process broker used when no AMQP server is
// configured. Intents live only as long as the process.
type ChannelBroker struct {
	ch     chan *models.NotificationIntent
	logger logging.Logger
}

func NewChannelBroker(size int, logger logging.Logger) *ChannelBroker {
	return &ChannelBroker{
		ch:     make(chan *models.NotificationIntent, size),
		logger: logger.With("module", "broker"),
	}
}

func (b *ChannelBroker) Publish(ctx context.Context, intent *models.NotificationIntent) error {
	select {
	case b.ch <- intent:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBrokerFull
	}
}

func (b *ChannelBroker) Consume(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case intent := <-b.ch:
			if err := h(ctx, intent); err != nil {
				b.logger.Error(ctx, "notification handler failed", "intent_id", intent.ID, "type", intent.Type, "error", err)
			}
		}
	}
}

func (b *ChannelBroker) Close() error { return nil }
