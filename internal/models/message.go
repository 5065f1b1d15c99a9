package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event names used in routing keys and payloads.
const (
	EventOrderCreated    = "created"
	EventOrderTransition = "transitioned"
	EventItemTransition  = "item_transitioned"
)

// OrderCreatedEvent announces a newly persisted order.
type OrderCreatedEvent struct {
	Event       string    `json:"event"`
	OrderID     uuid.UUID `json:"order_id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	OrderNumber string    `json:"order_number"`
	TotalAmount float64   `json:"total_amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// OrderTransitionedEvent announces an applied order status edge.
type OrderTransitionedEvent struct {
	Event          string      `json:"event"`
	OrderID        uuid.UUID   `json:"order_id"`
	TenantID       uuid.UUID   `json:"tenant_id"`
	PreviousStatus OrderStatus `json:"previous_status"`
	NewStatus      OrderStatus `json:"new_status"`
	ChangedBy      string      `json:"changed_by"`
	Timestamp      time.Time   `json:"timestamp"`
}

// ItemTransitionedEvent announces an applied item status edge.
type ItemTransitionedEvent struct {
	Event          string     `json:"event"`
	OrderID        uuid.UUID  `json:"order_id"`
	TenantID       uuid.UUID  `json:"tenant_id"`
	ItemID         uuid.UUID  `json:"item_id"`
	PreviousStatus ItemStatus `json:"previous_status"`
	NewStatus      ItemStatus `json:"new_status"`
	Timestamp      time.Time  `json:"timestamp"`
}

// NewOrderCreatedEvent builds the creation event for an order.
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		Event:       EventOrderCreated,
		OrderID:     order.ID,
		TenantID:    order.TenantID,
		OrderNumber: order.DisplayNumber(),
		TotalAmount: order.TotalAmount,
		Timestamp:   time.Now().UTC(),
	}
}

// NewOrderTransitionedEvent builds the transition event for an order edge.
func NewOrderTransitionedEvent(order *Order, previous OrderStatus, actor Actor, at time.Time) *OrderTransitionedEvent {
	return &OrderTransitionedEvent{
		Event:          EventOrderTransition,
		OrderID:        order.ID,
		TenantID:       order.TenantID,
		PreviousStatus: previous,
		NewStatus:      order.Status,
		ChangedBy:      actor.ID,
		Timestamp:      at,
	}
}

// NewItemTransitionedEvent builds the transition event for an item edge.
func NewItemTransitionedEvent(order *Order, item *OrderItem, previous ItemStatus, at time.Time) *ItemTransitionedEvent {
	return &ItemTransitionedEvent{
		Event:          EventItemTransition,
		OrderID:        order.ID,
		TenantID:       order.TenantID,
		ItemID:         item.ID,
		PreviousStatus: previous,
		NewStatus:      item.Status,
		Timestamp:      at,
	}
}

// EventRoutingKey generates the topic routing key for an order event, scoped
// by tenant so downstream consumers can bind per restaurant.
func EventRoutingKey(tenantID uuid.UUID, event string) string {
	return fmt.Sprintf("order.%s.%s", tenantID, event)
}
