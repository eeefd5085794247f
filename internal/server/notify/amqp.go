package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/models"
)

const (
	ExchangeName  = "notifications"
	QueueName     = "notifications.dispatch"
	routingPrefix = "notify."
	prefetchCount = 10
)

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

type amqpConnection interface {
	Channel() (amqpChannel, error)
	Close() error
}

type connAdapter struct {
	conn *amqp091.Connection
}

func (a connAdapter) Channel() (amqpChannel, error) {
	ch, err := a.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (a connAdapter) Close() error { return a.conn.Close() }

var amqpDial = func(url string) (amqpConnection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	return connAdapter{conn: conn}, nil
}

// RoutingKey is the topic an intent is published under, e.g. notify.new_post.
func RoutingKey(t models.NotificationType) string {
	return routingPrefix + strings.ToLower(string(t))
}

// AMQPBroker publishes intents to a durable topic exchange and consumes them
// from one durable queue bound to every notify.* key.
type AMQPBroker struct {
	conn   amqpConnection
	mu     sync.Mutex
	pub    amqpChannel
	logger logging.Logger
}

func NewAMQPBroker(ctx context.Context, url string, logger logging.Logger) (*AMQPBroker, error) {
	conn, err := amqpDial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	logger = logger.With("module", "amqp")
	logger.Info(ctx, "connected to RabbitMQ", "exchange", ExchangeName, "queue", QueueName)
	return &AMQPBroker{conn: conn, pub: ch, logger: logger}, nil
}

func declareTopology(ch amqpChannel) error {
	err := ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", ExchangeName, err)
	}
	q, err := ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", QueueName, err)
	}
	if err := ch.QueueBind(q.Name, routingPrefix+"*", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", q.Name, err)
	}
	return nil
}

func (b *AMQPBroker) Publish(ctx context.Context, intent *models.NotificationIntent) error {
	body, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.pub.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey(intent.Type),
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			MessageId:    intent.ID,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish intent %s: %w", intent.ID, err)
	}
	return nil
}

func (b *AMQPBroker) Consume(ctx context.Context, h Handler) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}
	deliveries, err := ch.Consume(
		QueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			b.handle(ctx, d, h)
		}
	}
}

func (b *AMQPBroker) handle(ctx context.Context, d amqp091.Delivery, h Handler) {
	var intent models.NotificationIntent
	if err := json.Unmarshal(d.Body, &intent); err != nil {
		b.logger.Error(ctx, "dropping undecodable message", "routing_key", d.RoutingKey, "error", err)
		_ = d.Nack(false, false)
		return
	}
	if err := h(ctx, &intent); err != nil {
		b.logger.Error(ctx, "notification handler failed", "intent_id", intent.ID, "type", intent.Type, "error", err)
	}
	if err := d.Ack(false); err != nil {
		b.logger.Warn(ctx, "ack failed", "intent_id", intent.ID, "error", err)
	}
}

func (b *AMQPBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.pub.Close(); err != nil {
		b.logger.Warn(context.Background(), "closing publish channel", "error", err)
	}
	return b.conn.Close()
}
