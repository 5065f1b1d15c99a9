package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"tableside/internal/logger"
	"tableside/internal/messaging"
	"tableside/internal/models"
)

// Subscriber consumes order status change events for downstream delivery
// (guest notifications, live dashboards). Events arrive at-least-once, so
// handling is idempotent: a duplicate just logs again.
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger
}

// NewSubscriber creates a new notification subscriber
func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
	}
}

// Start begins consuming status change events until the context is done.
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	return s.consumer.StartConsuming(ctx, s.handleNotification)
}

// handleNotification processes a single status change event.
func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var event models.OrderTransitionedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	s.logger.Info("notification_received",
		fmt.Sprintf("Order %s changed from %s to %s", event.OrderID, event.PreviousStatus, event.NewStatus),
		requestID,
		map[string]interface{}{
			"order_id":        event.OrderID,
			"tenant_id":       event.TenantID,
			"previous_status": event.PreviousStatus,
			"new_status":      event.NewStatus,
			"changed_by":      event.ChangedBy,
		})

	return nil
}

// Close stops the subscriber
func (s *Subscriber) Close() error {
	return s.consumer.Close()
}
