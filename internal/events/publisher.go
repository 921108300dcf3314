// Package events publishes order lifecycle events to an AMQP exchange.
// Publishing is best-effort: failures are logged and never surface to the
// request that triggered them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Routing keys for order events
const (
	OrderConfirmedKey = "order.confirmed"
	OrderCancelledKey = "order.cancelled"
)

// OrderEvent is the wire format for order notifications
type OrderEvent struct {
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	TotalPrice float64   `json:"total_price"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends order events to a direct AMQP exchange. A Publisher built
// without an AMQP URL is a no-op, so the rest of the application never has
// to care whether a broker is configured.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher connects to the broker and declares the exchange. An empty
// URL returns a disabled publisher and no error.
func NewPublisher(cfg config.AMQPConfig, logger *zap.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		logger.Info("AMQP URL not configured, order events disabled")
		return &Publisher{logger: logger}, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

// OrderConfirmed publishes an order.confirmed event
func (p *Publisher) OrderConfirmed(ctx context.Context, order *domain.Order) {
	p.publish(ctx, OrderConfirmedKey, order)
}

// OrderCancelled publishes an order.cancelled event
func (p *Publisher) OrderCancelled(ctx context.Context, order *domain.Order) {
	p.publish(ctx, OrderCancelledKey, order)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, order *domain.Order) {
	if p.channel == nil {
		return
	}

	event := OrderEvent{
		OrderID:    order.ID.String(),
		UserID:     order.UserID.String(),
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		OccurredAt: time.Now().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal order event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish order event",
			zap.String("routing_key", routingKey),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("Published order event",
		zap.String("routing_key", routingKey),
		zap.String("order_id", event.OrderID),
	)
}

// Close releases the channel and connection
func (p *Publisher) Close() error {
	if p.channel == nil {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
