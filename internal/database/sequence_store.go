package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tableside/internal/errs"
)

// SequenceStore is the persistence adapter for per-tenant per-day order
// number counters.
type SequenceStore struct {
	db *DB
}

// NewSequenceStore creates a sequence store backed by PostgreSQL.
func NewSequenceStore(db *DB) *SequenceStore {
	return &SequenceStore{db: db}
}

// NextNumber reserves and returns the next order number for the tenant's
// business day. The upsert initializes the counter row on first use and
// increments it atomically, so interleaved transactions cannot observe the
// same value.
func (s *SequenceStore) NextNumber(ctx context.Context, tenantID uuid.UUID, businessDay time.Time) (int, error) {
	var number int
	err := s.db.QueryRow(ctx, AllocateOrderNumberSQL, tenantID, businessDay).Scan(&number)
	if err != nil {
		return 0, errs.StoreUnavailableError{Op: "allocate_order_number", Err: err}
	}
	return number, nil
}
