package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a restaurant account, the unit of data isolation.
// Timezone is an IANA name; empty means the platform default applies.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Subdomain string    `json:"subdomain"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// QRCode maps an opaque printed token to a tenant and, optionally, a table
// or a service point.
type QRCode struct {
	Identifier     string     `json:"identifier"`
	TenantID       uuid.UUID  `json:"tenant_id"`
	TableID        *uuid.UUID `json:"table_id,omitempty"`
	ServicePointID *uuid.UUID `json:"service_point_id,omitempty"`
}

// TenantContext identifies the tenant a request operates on. Immutable once
// resolved; never persisted by the core. Platform marks the sentinel
// no-tenant result for the root domain and its aliases, which callers use
// to redirect to the marketing surface.
type TenantContext struct {
	TenantID       uuid.UUID  `json:"tenant_id"`
	Subdomain      string     `json:"subdomain"`
	Timezone       string     `json:"timezone,omitempty"`
	TableID        *uuid.UUID `json:"table_id,omitempty"`
	ServicePointID *uuid.UUID `json:"service_point_id,omitempty"`
	Platform       bool       `json:"-"`
}

// MenuItem is the subset of the catalog the lifecycle needs: ownership and
// pricing. Catalog editing workflows live outside this core.
type MenuItem struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
}
