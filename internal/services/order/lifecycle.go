package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tableside/internal/errs"
	"tableside/internal/logger"
	"tableside/internal/models"
)

// maxTransitionRetries bounds the automatic retry of lost optimistic
// concurrency races. Any other error surfaces immediately.
const maxTransitionRetries = 3

// OrderStore is the persistence port for orders. Updates must be
// conditional on the version (orders) or current status (items) so the
// store linearizes transitions per order.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order, entry *models.StatusLogEntry) error
	UpdateItem(ctx context.Context, item *models.OrderItem, expected models.ItemStatus) error
	MenuItemsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.MenuItem, error)
	Ping(ctx context.Context) error
}

// EventPublisher is the event sink port. Delivery is at-least-once;
// consumers tolerate duplicates.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderTransitioned(ctx context.Context, event *models.OrderTransitionedEvent) error
	PublishItemTransitioned(ctx context.Context, event *models.ItemTransitionedEvent) error
}

// Lifecycle owns every write to an order's status and timestamp fields.
// All shared state lives in the store; the service itself holds nothing
// mutable, so any number of parallel workers can run it.
type Lifecycle struct {
	store     OrderStore
	sequences *SequenceAllocator
	publisher EventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewLifecycle creates the order lifecycle service.
func NewLifecycle(store OrderStore, sequences *SequenceAllocator, publisher EventPublisher, log *logger.Logger) *Lifecycle {
	return &Lifecycle{
		store:     store,
		sequences: sequences,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Create validates the request, mints an order number and persists the
// order in pending with all item statuses pending. A number reserved for a
// creation that subsequently fails is permanently skipped, never reused.
func (l *Lifecycle) Create(ctx context.Context, tenantCtx *models.TenantContext, req *models.CreateOrderRequest, requestID string) (*models.Order, error) {
	if err := ValidateCreateOrder(req); err != nil {
		return nil, err
	}

	menuItemIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		id, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, errs.ValidationError{Field: "items", Message: "menu item id must be a valid uuid"}
		}
		menuItemIDs = append(menuItemIDs, id)
	}

	// Ownership check: items of other tenants are absent from the result,
	// indistinguishable from unknown ids.
	menuItems, err := l.store.MenuItemsByIDs(ctx, tenantCtx.TenantID, menuItemIDs)
	if err != nil {
		return nil, err
	}

	var total float64
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, reqItem := range req.Items {
		menuItemID := uuid.MustParse(reqItem.MenuItemID)
		menuItem, ok := menuItems[menuItemID]
		if !ok {
			return nil, errs.NotFoundError{Resource: "menu_item", Key: reqItem.MenuItemID}
		}

		total += menuItem.Price * float64(reqItem.Quantity)
		items = append(items, models.OrderItem{
			ID:         uuid.New(),
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   reqItem.Quantity,
			UnitPrice:  menuItem.Price,
			Status:     models.ItemPending,
		})
	}

	businessDay := l.sequences.BusinessDay(l.now(), tenantCtx.Timezone)
	number, err := l.sequences.NextOrderNumber(ctx, tenantCtx.TenantID, businessDay)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:           uuid.New(),
		TenantID:     tenantCtx.TenantID,
		Number:       number,
		BusinessDay:  businessDay,
		TableID:      tenantCtx.TableID,
		Status:       models.StatusPending,
		TotalAmount:  total,
		SpecialNotes: req.SpecialNotes,
		Items:        items,
	}

	if err := l.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	l.logger.Info("order_created", "Order created", requestID, map[string]interface{}{
		"order_id":     order.ID,
		"tenant_id":    order.TenantID,
		"order_number": order.DisplayNumber(),
		"total_amount": order.TotalAmount,
	})

	if err := l.publisher.PublishOrderCreated(ctx, models.NewOrderCreatedEvent(order)); err != nil {
		// The order is committed; a lost event must not fail the request.
		l.logger.Error("event_publish_failed", "Failed to publish created event", requestID, err, map[string]interface{}{
			"order_id": order.ID,
		})
	}

	return order, nil
}

// Transition advances an order along the allowed-edge table, setting the
// matching timestamp exactly once. Requesting the status the order is
// already in (or whose timestamp is already set) is a no-op success, so
// retried requests are harmless. A lost version race is retried a bounded
// number of times against re-read state.
func (l *Lifecycle) Transition(ctx context.Context, orderID uuid.UUID, target models.OrderStatus, actor models.Actor, requestID string) (*models.Order, error) {
	var lastErr error

	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		order, err := l.store.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}

		if order.Status == target {
			return order, nil
		}

		// Terminal states admit nothing, whatever timestamps history left
		// behind; the timestamp no-op check below only covers retries of
		// edges the order has already moved past.
		if order.Status.IsTerminal() {
			return nil, invalidOrderEdge(order.Status, target)
		}

		if l.timestampFor(order, target) != nil {
			return order, nil
		}

		if !models.CanTransition(order.Status, target) {
			return nil, invalidOrderEdge(order.Status, target)
		}

		previous := order.Status
		at := l.now().UTC()
		l.apply(order, target, at)

		entry := &models.StatusLogEntry{
			PreviousStatus: previous,
			Status:         target,
			ChangedBy:      actor.ID,
			ChangedAt:      at,
		}

		if err := l.store.UpdateOrder(ctx, order, entry); err != nil {
			if errs.IsConcurrencyConflict(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		l.logger.Info("order_transitioned", "Order status changed", requestID, map[string]interface{}{
			"order_id":        order.ID,
			"previous_status": previous,
			"new_status":      order.Status,
			"changed_by":      actor.ID,
		})

		event := models.NewOrderTransitionedEvent(order, previous, actor, at)
		if err := l.publisher.PublishOrderTransitioned(ctx, event); err != nil {
			l.logger.Error("event_publish_failed", "Failed to publish transition event", requestID, err, map[string]interface{}{
				"order_id": order.ID,
			})
		}

		return order, nil
	}

	return nil, lastErr
}

// Cancel is guest-facing sugar over Transition to cancelled. The stage
// check lives inside Transition's retry loop, so a concurrent transition
// cannot slip in between a pre-check and the update; orders past confirmed
// get the specific cancellation message rather than a generic failure.
func (l *Lifecycle) Cancel(ctx context.Context, orderID uuid.UUID, actor models.Actor, requestID string) (*models.Order, error) {
	return l.Transition(ctx, orderID, models.StatusCancelled, actor, requestID)
}

// UpdateItemStatus advances a single line item. Item edges mirror the order
// edges plus ready; an item can never reach a terminal state past the
// order's own, and no item moves on a cancelled order. Item transitions
// never imply an order-level transition.
func (l *Lifecycle) UpdateItemStatus(ctx context.Context, orderID, itemID uuid.UUID, target models.ItemStatus, requestID string) (*models.OrderItem, error) {
	var lastErr error

	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		order, err := l.store.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}

		item := findItem(order, itemID)
		if item == nil {
			return nil, errs.NotFoundError{Resource: "order_item", Key: itemID.String()}
		}

		if order.Status == models.StatusCancelled {
			return nil, errs.InvalidTransitionError{
				Entity:        "order_item",
				CurrentStatus: string(item.Status),
				TargetStatus:  string(target),
				Reason:        "order is cancelled",
			}
		}

		if item.Status == target {
			return item, nil
		}

		if item.Status.IsTerminal() {
			return nil, errs.InvalidTransitionError{
				Entity:        "order_item",
				CurrentStatus: string(item.Status),
				TargetStatus:  string(target),
			}
		}

		if l.itemTimestampFor(item, target) != nil {
			return item, nil
		}

		if !models.CanTransitionItem(item.Status, target) {
			return nil, errs.InvalidTransitionError{
				Entity:        "order_item",
				CurrentStatus: string(item.Status),
				TargetStatus:  string(target),
			}
		}

		if target == models.ItemDelivered && order.Status != models.StatusDelivered {
			return nil, errs.InvalidTransitionError{
				Entity:        "order_item",
				CurrentStatus: string(item.Status),
				TargetStatus:  string(target),
				Reason:        "item cannot be delivered before the order is delivered",
			}
		}

		previous := item.Status
		at := l.now().UTC()
		l.applyItem(item, target, at)

		if err := l.store.UpdateItem(ctx, item, previous); err != nil {
			if errs.IsConcurrencyConflict(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		l.logger.Info("item_transitioned", "Order item status changed", requestID, map[string]interface{}{
			"order_id":        order.ID,
			"item_id":         item.ID,
			"previous_status": previous,
			"new_status":      item.Status,
		})

		event := models.NewItemTransitionedEvent(order, item, previous, at)
		if err := l.publisher.PublishItemTransitioned(ctx, event); err != nil {
			l.logger.Error("event_publish_failed", "Failed to publish item event", requestID, err, map[string]interface{}{
				"order_id": order.ID,
				"item_id":  item.ID,
			})
		}

		return item, nil
	}

	return nil, lastErr
}

// HealthCheck reports whether the persistence port is reachable.
func (l *Lifecycle) HealthCheck(ctx context.Context) bool {
	return l.store.Ping(ctx) == nil
}

// apply mutates the order for a legal, non-noop edge. Cancellation is a
// full rollback of timing state: forward-progress timestamps are reset and
// cached metrics cleared, not merely a status flag flip.
func (l *Lifecycle) apply(order *models.Order, target models.OrderStatus, at time.Time) {
	order.Status = target

	switch target {
	case models.StatusConfirmed:
		order.ConfirmedAt = &at
	case models.StatusPreparing:
		order.PreparingAt = &at
	case models.StatusDelivered:
		order.DeliveredAt = &at
		order.Metrics = DeriveMetrics(order)
	case models.StatusCancelled:
		order.CancelledAt = &at
		order.ConfirmedAt = nil
		order.PreparingAt = nil
		order.Metrics = models.TimingMetrics{}
	}
}

// applyItem mutates an item for a legal, non-noop edge.
func (l *Lifecycle) applyItem(item *models.OrderItem, target models.ItemStatus, at time.Time) {
	item.Status = target

	switch target {
	case models.ItemConfirmed:
		item.ConfirmedAt = &at
	case models.ItemPreparing:
		item.PreparingAt = &at
	case models.ItemReady:
		item.ReadyAt = &at
	case models.ItemDelivered:
		item.DeliveredAt = &at
	case models.ItemCancelled:
		item.CancelledAt = &at
		item.ConfirmedAt = nil
		item.PreparingAt = nil
		item.ReadyAt = nil
	}
}

// invalidOrderEdge builds the rejection for an order edge outside the
// allowed table. Cancellation carries the guest-facing reason.
func invalidOrderEdge(current, target models.OrderStatus) errs.InvalidTransitionError {
	err := errs.InvalidTransitionError{
		Entity:        "order",
		CurrentStatus: string(current),
		TargetStatus:  string(target),
	}
	if target == models.StatusCancelled {
		err.Reason = "cannot cancel at this stage"
	}
	return err
}

// timestampFor returns the transition timestamp recorded for a target
// status, used for idempotent retry detection.
func (l *Lifecycle) timestampFor(order *models.Order, target models.OrderStatus) *time.Time {
	switch target {
	case models.StatusConfirmed:
		return order.ConfirmedAt
	case models.StatusPreparing:
		return order.PreparingAt
	case models.StatusDelivered:
		return order.DeliveredAt
	case models.StatusCancelled:
		return order.CancelledAt
	default:
		return nil
	}
}

func (l *Lifecycle) itemTimestampFor(item *models.OrderItem, target models.ItemStatus) *time.Time {
	switch target {
	case models.ItemConfirmed:
		return item.ConfirmedAt
	case models.ItemPreparing:
		return item.PreparingAt
	case models.ItemReady:
		return item.ReadyAt
	case models.ItemDelivered:
		return item.DeliveredAt
	case models.ItemCancelled:
		return item.CancelledAt
	default:
		return nil
	}
}

func findItem(order *models.Order, itemID uuid.UUID) *models.OrderItem {
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			return &order.Items[i]
		}
	}
	return nil
}
