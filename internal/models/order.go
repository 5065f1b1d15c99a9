package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the aggregate status of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// ItemStatus represents the status of a single order item. Items progress
// through preparation independently of the order's aggregate status.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemConfirmed ItemStatus = "confirmed"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemDelivered ItemStatus = "delivered"
	ItemCancelled ItemStatus = "cancelled"
)

// orderEdges is the allowed-edge table for order transitions. Terminal
// states have no outgoing edges.
var orderEdges = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// itemEdges is the allowed-edge table for item transitions.
var itemEdges = map[ItemStatus][]ItemStatus{
	ItemPending:   {ItemConfirmed, ItemCancelled},
	ItemConfirmed: {ItemPreparing, ItemCancelled},
	ItemPreparing: {ItemReady, ItemCancelled},
	ItemReady:     {ItemDelivered},
	ItemDelivered: {},
	ItemCancelled: {},
}

// CanTransition reports whether from -> to is a legal order edge.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionItem reports whether from -> to is a legal item edge.
func CanTransitionItem(from, to ItemStatus) bool {
	for _, next := range itemEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsTerminal reports whether the item status admits no further transitions.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemDelivered || s == ItemCancelled
}

// ParseOrderStatus validates a status string from a request.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("unknown order status: %s", s)
	}
}

// ParseItemStatus validates an item status string from a request.
func ParseItemStatus(s string) (ItemStatus, error) {
	switch ItemStatus(s) {
	case ItemPending, ItemConfirmed, ItemPreparing, ItemReady, ItemDelivered, ItemCancelled:
		return ItemStatus(s), nil
	default:
		return "", fmt.Errorf("unknown item status: %s", s)
	}
}

// TimingMetrics holds the cached elapsed-time KPIs, each a minute-floor
// difference between two adjacent transition timestamps. A nil field means
// one of its endpoints has not been recorded.
type TimingMetrics struct {
	ConfirmationTimeMinutes *int `json:"confirmation_time_minutes"`
	PreparationTimeMinutes  *int `json:"preparation_time_minutes"`
	DeliveryTimeMinutes     *int `json:"delivery_time_minutes"`
	TotalTimeMinutes        *int `json:"total_time_minutes"`
}

// IsZero reports whether no metric has been computed.
func (m TimingMetrics) IsZero() bool {
	return m.ConfirmationTimeMinutes == nil && m.PreparationTimeMinutes == nil &&
		m.DeliveryTimeMinutes == nil && m.TotalTimeMinutes == nil
}

// OrderItem represents a line item in an order
type OrderItem struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"order_id"`
	MenuItemID  uuid.UUID  `json:"menu_item_id"`
	Name        string     `json:"name"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	Status      ItemStatus `json:"status"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	PreparingAt *time.Time `json:"preparing_at,omitempty"`
	ReadyAt     *time.Time `json:"ready_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// Order represents a customer order. Number is scoped to (tenant, business
// day), not globally unique. Version backs optimistic concurrency on status
// updates; only the lifecycle service may write status or timestamp fields.
type Order struct {
	ID           uuid.UUID     `json:"id"`
	TenantID     uuid.UUID     `json:"tenant_id"`
	Number       int           `json:"order_number"`
	BusinessDay  time.Time     `json:"business_day"`
	TableID      *uuid.UUID    `json:"table_id,omitempty"`
	Status       OrderStatus   `json:"status"`
	TotalAmount  float64       `json:"total_amount"`
	SpecialNotes *string       `json:"special_notes,omitempty"`
	Version      int           `json:"-"`
	Items        []OrderItem   `json:"items"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	ConfirmedAt  *time.Time    `json:"confirmed_at,omitempty"`
	PreparingAt  *time.Time    `json:"preparing_at,omitempty"`
	DeliveredAt  *time.Time    `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time    `json:"cancelled_at,omitempty"`
	Metrics      TimingMetrics `json:"timing_metrics"`
}

// DisplayNumber renders the guest-facing order number, e.g. ORD_20240131_007.
func (o *Order) DisplayNumber() string {
	return FormatOrderNumber(o.BusinessDay, o.Number)
}

// FormatOrderNumber formats a per-day sequence number for display.
func FormatOrderNumber(businessDay time.Time, number int) string {
	return fmt.Sprintf("ORD_%s_%03d", businessDay.Format("20060102"), number)
}

// ItemReadiness is the read-only "N of M items ready" aggregate for UI
// consumption. It never drives an order-level transition.
type ItemReadiness struct {
	ReadyItems int `json:"ready_items"`
	TotalItems int `json:"total_items"`
}

// Readiness counts items that have at least reached ready. Cancelled items
// are excluded from the total.
func (o *Order) Readiness() ItemReadiness {
	var r ItemReadiness
	for _, item := range o.Items {
		if item.Status == ItemCancelled {
			continue
		}
		r.TotalItems++
		if item.Status == ItemReady || item.Status == ItemDelivered {
			r.ReadyItems++
		}
	}
	return r
}

// Actor identifies who drives a transition. Authorization is decided by the
// caller before invoking the lifecycle; the actor is recorded in events and
// the status log.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

const (
	RoleGuest  = "guest"
	RoleStaff  = "staff"
	RoleSystem = "system"
)

// StatusLogEntry is one row of an order's transition audit log.
type StatusLogEntry struct {
	PreviousStatus OrderStatus `json:"previous_status"`
	Status         OrderStatus `json:"status"`
	ChangedBy      string      `json:"changed_by"`
	ChangedAt      time.Time   `json:"changed_at"`
	Notes          *string     `json:"notes,omitempty"`
}

// CreateOrderItemRequest is one requested line item.
type CreateOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// CreateOrderRequest represents the request to create a new order.
type CreateOrderRequest struct {
	QRIdentifier string                   `json:"qr_identifier,omitempty"`
	Items        []CreateOrderItemRequest `json:"items"`
	SpecialNotes *string                  `json:"special_notes,omitempty"`
}

// CreateOrderResponse represents the response after creating an order.
type CreateOrderResponse struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
}

// OrderTrackingResponse represents the read-side view of an order.
type OrderTrackingResponse struct {
	OrderNumber   string        `json:"order_number"`
	CurrentStatus string        `json:"current_status"`
	Readiness     ItemReadiness `json:"readiness"`
	Metrics       TimingMetrics `json:"timing_metrics"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
