package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"vankino/internal/domain"
)

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

const (
	ActionListingRefreshed = "listing.refreshed"
	ActionHypeChanged      = "hype.changed"
)

// ListingMessage announces a freshly aggregated day.
type ListingMessage struct {
	Action     string                 `json:"action"`
	DateKey    string                 `json:"dateKey"`
	EventCount int                    `json:"eventCount"`
	Events     []domain.CalendarEvent `json:"events"`
	Timestamp  time.Time              `json:"timestamp"`
}

// HypeMessage announces a hype counter change.
type HypeMessage struct {
	Action    string    `json:"action"`
	EventID   string    `json:"eventId"`
	HypeCount int       `json:"hypeCount"`
	Delta     int       `json:"delta"`
	Title     string    `json:"title,omitempty"`
	Theatre   string    `json:"theatre,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (r *RabbitMQ) PublishListing(ctx context.Context, listing *domain.DayListing) error {
	msg := ListingMessage{
		Action:     ActionListingRefreshed,
		DateKey:    listing.DateKey,
		EventCount: len(listing.Events),
		Events:     listing.Events,
		Timestamp:  time.Now().UTC(),
	}

	if err := r.publish(ctx, msg); err != nil {
		return err
	}

	r.logger.Debug("published listing",
		"date_key", listing.DateKey,
		"events", len(listing.Events),
	)
	return nil
}

// PublishHype announces a counter change; delta is +1 or -1.
func (r *RabbitMQ) PublishHype(ctx context.Context, req domain.HypeRequest, result domain.HypeResult, delta int) error {
	msg := HypeMessage{
		Action:    ActionHypeChanged,
		EventID:   result.EventID,
		HypeCount: result.HypeCount,
		Delta:     delta,
		Title:     req.Title,
		Theatre:   req.Theatre,
		Timestamp: time.Now().UTC(),
	}

	if err := r.publish(ctx, msg); err != nil {
		return err
	}

	r.logger.Debug("published hype change",
		"event_id", result.EventID,
		"delta", delta,
	)
	return nil
}

func (r *RabbitMQ) publish(ctx context.Context, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
