package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tableside/internal/errs"
	"tableside/internal/models"
)

// OrderStore is the persistence adapter for orders, items, the status log
// and the menu item ownership lookup.
type OrderStore struct {
	db *DB
}

// NewOrderStore creates an order store backed by PostgreSQL.
func NewOrderStore(db *DB) *OrderStore {
	return &OrderStore{db: db}
}

// CreateOrder persists a new order, its items and the initial status log
// entry in one transaction. An abandoned call either fully applied or not
// at all; a reserved order number whose transaction rolls back is skipped,
// never reused.
func (s *OrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errs.StoreUnavailableError{Op: "create_order", Err: err}
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, InsertOrderSQL,
		order.ID, order.TenantID, order.Number, order.BusinessDay, order.TableID,
		order.Status, order.TotalAmount, order.SpecialNotes,
	).Scan(&order.CreatedAt, &order.UpdatedAt, &order.Version)
	if err != nil {
		return errs.StoreUnavailableError{Op: "create_order", Err: err}
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		_, err = tx.Exec(ctx, InsertOrderItemSQL,
			item.ID, item.OrderID, item.MenuItemID, item.Name, item.Quantity, item.UnitPrice, item.Status)
		if err != nil {
			return errs.StoreUnavailableError{Op: "create_order_item", Err: err}
		}
	}

	notes := "order created"
	_, err = tx.Exec(ctx, InsertOrderStatusLogSQL,
		order.ID, "", order.Status, "order-service", &notes)
	if err != nil {
		return errs.StoreUnavailableError{Op: "create_order_status_log", Err: err}
	}

	if err = tx.Commit(ctx); err != nil {
		return errs.StoreUnavailableError{Op: "create_order", Err: err}
	}
	return nil
}

// GetOrder loads an order with its items.
func (s *OrderStore) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order

	err := s.db.QueryRow(ctx, GetOrderSQL, orderID).Scan(
		&order.ID,
		&order.TenantID,
		&order.Number,
		&order.BusinessDay,
		&order.TableID,
		&order.Status,
		&order.TotalAmount,
		&order.SpecialNotes,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.ConfirmedAt,
		&order.PreparingAt,
		&order.DeliveredAt,
		&order.CancelledAt,
		&order.Metrics.ConfirmationTimeMinutes,
		&order.Metrics.PreparationTimeMinutes,
		&order.Metrics.DeliveryTimeMinutes,
		&order.Metrics.TotalTimeMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFoundError{Resource: "order", Key: orderID.String()}
		}
		return nil, errs.StoreUnavailableError{Op: "get_order", Err: err}
	}

	items, err := s.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

// loadItems loads the line items of an order.
func (s *OrderStore) loadItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := s.db.Query(ctx, GetOrderItemsSQL, orderID)
	if err != nil {
		return nil, errs.StoreUnavailableError{Op: "get_order_items", Err: err}
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.MenuItemID,
			&item.Name,
			&item.Quantity,
			&item.UnitPrice,
			&item.Status,
			&item.ConfirmedAt,
			&item.PreparingAt,
			&item.ReadyAt,
			&item.DeliveredAt,
			&item.CancelledAt,
		)
		if err != nil {
			return nil, errs.StoreUnavailableError{Op: "get_order_items", Err: err}
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, errs.StoreUnavailableError{Op: "get_order_items", Err: err}
	}

	return items, nil
}

// UpdateOrder writes the lifecycle-owned fields of an order guarded by its
// version, and appends the status log entry in the same transaction. A lost
// version race returns ConcurrencyConflictError so the caller can re-read
// and retry.
func (s *OrderStore) UpdateOrder(ctx context.Context, order *models.Order, entry *models.StatusLogEntry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errs.StoreUnavailableError{Op: "update_order", Err: err}
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, UpdateOrderSQL,
		order.Status,
		order.ConfirmedAt,
		order.PreparingAt,
		order.DeliveredAt,
		order.CancelledAt,
		order.Metrics.ConfirmationTimeMinutes,
		order.Metrics.PreparationTimeMinutes,
		order.Metrics.DeliveryTimeMinutes,
		order.Metrics.TotalTimeMinutes,
		order.ID,
		order.Version,
	)
	if err != nil {
		return errs.StoreUnavailableError{Op: "update_order", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return errs.ConcurrencyConflictError{Entity: "order", ID: order.ID.String()}
	}

	if entry != nil {
		_, err = tx.Exec(ctx, InsertOrderStatusLogSQL,
			order.ID, entry.PreviousStatus, entry.Status, entry.ChangedBy, entry.Notes)
		if err != nil {
			return errs.StoreUnavailableError{Op: "update_order_status_log", Err: err}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return errs.StoreUnavailableError{Op: "update_order", Err: err}
	}

	order.Version++
	return nil
}

// UpdateItem writes an item's status and timestamps as a compare-and-swap on
// the status it was read at.
func (s *OrderStore) UpdateItem(ctx context.Context, item *models.OrderItem, expected models.ItemStatus) error {
	tag, err := s.db.Pool.Exec(ctx, UpdateOrderItemSQL,
		item.Status,
		item.ConfirmedAt,
		item.PreparingAt,
		item.ReadyAt,
		item.DeliveredAt,
		item.CancelledAt,
		item.ID,
		expected,
	)
	if err != nil {
		return errs.StoreUnavailableError{Op: "update_order_item", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return errs.ConcurrencyConflictError{Entity: "order_item", ID: item.ID.String()}
	}
	return nil
}

// MenuItemsByIDs loads the tenant's menu items among the given ids. Items
// belonging to other tenants are simply absent from the result.
func (s *OrderStore) MenuItemsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.MenuItem, error) {
	rows, err := s.db.Query(ctx, GetMenuItemsByIDsSQL, tenantID, ids)
	if err != nil {
		return nil, errs.StoreUnavailableError{Op: "get_menu_items", Err: err}
	}
	defer rows.Close()

	found := make(map[uuid.UUID]models.MenuItem, len(ids))
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.TenantID, &item.Name, &item.Price); err != nil {
			return nil, errs.StoreUnavailableError{Op: "get_menu_items", Err: err}
		}
		found[item.ID] = item
	}
	if err = rows.Err(); err != nil {
		return nil, errs.StoreUnavailableError{Op: "get_menu_items", Err: err}
	}

	return found, nil
}

// StatusHistory returns the transition audit log of an order, oldest first.
func (s *OrderStore) StatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.StatusLogEntry, error) {
	rows, err := s.db.Query(ctx, GetOrderStatusHistorySQL, orderID)
	if err != nil {
		return nil, errs.StoreUnavailableError{Op: "get_status_history", Err: err}
	}
	defer rows.Close()

	var history []models.StatusLogEntry
	for rows.Next() {
		var entry models.StatusLogEntry
		err := rows.Scan(&entry.PreviousStatus, &entry.Status, &entry.ChangedBy, &entry.ChangedAt, &entry.Notes)
		if err != nil {
			return nil, errs.StoreUnavailableError{Op: "get_status_history", Err: err}
		}
		history = append(history, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, errs.StoreUnavailableError{Op: "get_status_history", Err: err}
	}

	if len(history) == 0 {
		// Distinguish an unknown order from one with no transitions yet.
		var exists bool
		err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)", orderID).Scan(&exists)
		if err != nil {
			return nil, errs.StoreUnavailableError{Op: "get_status_history", Err: err}
		}
		if !exists {
			return nil, errs.NotFoundError{Resource: "order", Key: orderID.String()}
		}
	}

	return history, nil
}

// Ping reports store health for the health endpoints.
func (s *OrderStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
