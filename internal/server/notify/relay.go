package notify

import (
	"context"
	"time"

	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/repositories/outbox"
)

// Relay moves pending outbox intents to the broker. An intent is deleted
// once published; failed publishes are retried on later ticks until
// maxAttempts is reached.
type Relay struct {
	outbox      outbox.Repository
	broker      Broker
	interval    time.Duration
	batchSize   int
	maxAttempts int
	logger      logging.Logger
}

func NewRelay(repo outbox.Repository, broker Broker, interval time.Duration, batchSize, maxAttempts int, logger logging.Logger) *Relay {
	return &Relay{
		outbox:      repo,
		broker:      broker,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		logger:      logger.With("module", "relay"),
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.Drain(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error(ctx, "outbox drain failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Drain makes one pass over the pending intents and returns how many were
// published.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	pending, err := r.outbox.Pending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, intent := range pending {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}
		if err := r.broker.Publish(ctx, intent); err != nil {
			r.failed(ctx, intent.ID, intent.Attempts+1, err)
			continue
		}
		published++
		if err := r.outbox.Delete(ctx, intent.ID); err != nil {
			r.logger.Warn(ctx, "published intent not removed, it will be sent again", "intent_id", intent.ID, "error", err)
		}
	}
	return published, nil
}

func (r *Relay) failed(ctx context.Context, id string, attempts int, cause error) {
	if attempts >= r.maxAttempts {
		r.logger.Error(ctx, "dropping intent after max attempts", "intent_id", id, "attempts", attempts, "error", cause)
		if err := r.outbox.Delete(ctx, id); err != nil {
			r.logger.Warn(ctx, "failed to drop intent", "intent_id", id, "error", err)
		}
		return
	}
	r.logger.Warn(ctx, "publish failed, will retry", "intent_id", id, "attempts", attempts, "error", cause)
	if err := r.outbox.MarkAttempt(ctx, id, attempts); err != nil {
		r.logger.Warn(ctx, "failed to record attempt", "intent_id", id, "error", err)
	}
}
