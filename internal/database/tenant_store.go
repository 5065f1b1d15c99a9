package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tableside/internal/errs"
	"tableside/internal/models"
)

// TenantStore is the read-through adapter for the tenant and QR directories.
type TenantStore struct {
	db *DB
}

// NewTenantStore creates a tenant directory store backed by PostgreSQL.
func NewTenantStore(db *DB) *TenantStore {
	return &TenantStore{db: db}
}

// TenantBySubdomain looks up a tenant by its unique subdomain.
func (s *TenantStore) TenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.QueryRow(ctx, GetTenantBySubdomainSQL, subdomain).Scan(
		&tenant.ID,
		&tenant.Subdomain,
		&tenant.Name,
		&tenant.Timezone,
		&tenant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFoundError{Resource: "tenant", Key: subdomain}
		}
		return nil, errs.StoreUnavailableError{Op: "get_tenant", Err: err}
	}
	return &tenant, nil
}

// QRByIdentifier looks up a QR code by its unique opaque token.
func (s *TenantStore) QRByIdentifier(ctx context.Context, identifier string) (*models.QRCode, error) {
	var qr models.QRCode
	err := s.db.QueryRow(ctx, GetQRCodeByIdentifierSQL, identifier).Scan(
		&qr.Identifier,
		&qr.TenantID,
		&qr.TableID,
		&qr.ServicePointID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFoundError{Resource: "qr_code", Key: identifier}
		}
		return nil, errs.StoreUnavailableError{Op: "get_qr_code", Err: err}
	}
	return &qr, nil
}
