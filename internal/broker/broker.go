package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"estate/server/internal/models"
)

const publishTimeout = 5 * time.Second

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher forwards property events to a RabbitMQ topic exchange
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	logger   *logrus.Logger
	mu       sync.Mutex
	closed   bool
}

// NewPublisher dials the broker and declares a durable topic exchange
func NewPublisher(url, exchange string, logger *logrus.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	logger.WithField("exchange", exchange).Info("Connected to RabbitMQ")
	return newPublisher(ch, exchange, logger, conn), nil
}

func newPublisher(ch channel, exchange string, logger *logrus.Logger, conn *amqp.Connection) *Publisher {
	return &Publisher{conn: conn, ch: ch, exchange: exchange, logger: logger}
}

// RoutingKey is the topic an event is published under, e.g. property.offer_accepted
func RoutingKey(event models.PropertyEvent) string {
	return "property." + string(event.Type)
}

// Publish sends one event as a persistent JSON message
func (p *Publisher) Publish(ctx context.Context, event models.PropertyEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		RoutingKey(event),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    event.OccurredAt,
			Type:         string(event.Type),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	p.logger.WithFields(logrus.Fields{
		"event":       event.Type,
		"property_id": event.PropertyID,
	}).Debug("Event published to broker")
	return nil
}

// HandleEvent is the event queue subscriber
func (p *Publisher) HandleEvent(event models.PropertyEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return p.Publish(ctx, event)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.ch.Close(); err != nil {
		p.logger.WithError(err).Warn("Failed to close RabbitMQ channel")
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
