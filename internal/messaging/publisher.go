package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"tableside/internal/logger"
	"tableside/internal/models"
)

// Publisher delivers lifecycle events to RabbitMQ. Delivery is
// at-least-once; downstream consumers must tolerate duplicates.
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishOrderCreated publishes an order creation event.
func (p *Publisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	key := models.EventRoutingKey(event.TenantID, event.Event)
	return p.publishMessage(ctx, OrderEventsExchange, key, event, true)
}

// PublishOrderTransitioned publishes an order status transition event.
func (p *Publisher) PublishOrderTransitioned(ctx context.Context, event *models.OrderTransitionedEvent) error {
	key := models.EventRoutingKey(event.TenantID, event.Event)
	if err := p.publishMessage(ctx, OrderEventsExchange, key, event, true); err != nil {
		return err
	}
	// Status changes also fan out to notification subscribers.
	return p.publishMessage(ctx, NotificationsExchange, "", event, false)
}

// PublishItemTransitioned publishes an item status transition event.
func (p *Publisher) PublishItemTransitioned(ctx context.Context, event *models.ItemTransitionedEvent) error {
	key := models.EventRoutingKey(event.TenantID, event.Event)
	return p.publishMessage(ctx, OrderEventsExchange, key, event, true)
}

// publishMessage is the generic message publishing function
func (p *Publisher) publishMessage(ctx context.Context, exchange, routingKey string, message interface{}, persistent bool) error {
	// Check if connection is alive
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	// Serialize message to JSON
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	deliveryMode := uint8(1) // Non-persistent by default
	if persistent {
		deliveryMode = 2 // Persistent
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: deliveryMode,
		Timestamp:    time.Now(),
	}

	// Publish with timeout
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		publishing,
	)

	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", exchange),
			"", err, map[string]interface{}{
				"exchange":    exchange,
				"routing_key": routingKey,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", exchange),
		"", map[string]interface{}{
			"exchange":     exchange,
			"routing_key":  routingKey,
			"message_size": len(body),
		})

	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.conn.Close()
}
