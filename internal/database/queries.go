package database

// Sequence queries
const (
	// AllocateOrderNumberSQL initializes-or-increments the per-tenant per-day
	// counter as a single atomic statement. Concurrent callers each get a
	// distinct value; rows are never reset, a new day gets a new row.
	AllocateOrderNumberSQL = `
		INSERT INTO daily_sequences (tenant_id, business_day, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, business_day)
		DO UPDATE SET last_number = daily_sequences.last_number + 1, updated_at = NOW()
		RETURNING last_number`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (id, tenant_id, number, business_day, table_id, status, total_amount, special_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at, version`

	InsertOrderItemSQL = `
		INSERT INTO order_items (id, order_id, menu_item_id, name, quantity, unit_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, previous_status, status, changed_by, notes)
		VALUES ($1, $2, $3, $4, $5)`

	GetOrderSQL = `
		SELECT id, tenant_id, number, business_day, table_id, status, total_amount, special_notes,
			   version, created_at, updated_at, confirmed_at, preparing_at, delivered_at, cancelled_at,
			   confirmation_time_minutes, preparation_time_minutes, delivery_time_minutes, total_time_minutes
		FROM orders WHERE id = $1`

	GetOrderItemsSQL = `
		SELECT id, order_id, menu_item_id, name, quantity, unit_price, status,
			   confirmed_at, preparing_at, ready_at, delivered_at, cancelled_at
		FROM order_items WHERE order_id = $1
		ORDER BY created_at ASC`

	// UpdateOrderSQL writes all lifecycle-owned fields guarded by the version
	// column; zero rows affected means a lost optimistic-concurrency race.
	UpdateOrderSQL = `
		UPDATE orders
		SET status = $1, confirmed_at = $2, preparing_at = $3, delivered_at = $4, cancelled_at = $5,
			confirmation_time_minutes = $6, preparation_time_minutes = $7,
			delivery_time_minutes = $8, total_time_minutes = $9,
			version = version + 1, updated_at = NOW()
		WHERE id = $10 AND version = $11`

	// UpdateOrderItemSQL is a compare-and-swap on the item's current status.
	UpdateOrderItemSQL = `
		UPDATE order_items
		SET status = $1, confirmed_at = $2, preparing_at = $3, ready_at = $4,
			delivered_at = $5, cancelled_at = $6
		WHERE id = $7 AND status = $8`

	GetOrderStatusHistorySQL = `
		SELECT previous_status, status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC`
)

// Catalog and tenant directory queries
const (
	GetMenuItemsByIDsSQL = `
		SELECT id, tenant_id, name, price
		FROM menu_items
		WHERE tenant_id = $1 AND id = ANY($2)`

	GetTenantBySubdomainSQL = `
		SELECT id, subdomain, name, timezone, created_at
		FROM tenants WHERE subdomain = $1`

	GetQRCodeByIdentifierSQL = `
		SELECT identifier, tenant_id, table_id, service_point_id
		FROM qr_codes WHERE identifier = $1`
)
