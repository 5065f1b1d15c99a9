package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tableside/internal/errs"
)

// SequenceStore is the transactional counter port. NextNumber must be a
// single atomic initialize-or-increment against the (tenant, business day)
// row; concurrent callers never receive the same value.
type SequenceStore interface {
	NextNumber(ctx context.Context, tenantID uuid.UUID, businessDay time.Time) (int, error)
}

// SequenceAllocator mints per-tenant per-day order numbers. Numbers are
// unique and monotonically increasing in allocation order; gaps only occur
// when an enclosing order-creation transaction rolls back after the number
// was reserved, which is accepted rather than risking reuse races.
type SequenceAllocator struct {
	store           SequenceStore
	defaultTimezone string
}

// NewSequenceAllocator creates an allocator. defaultTimezone scopes the
// business day for tenants with no timezone of their own.
func NewSequenceAllocator(store SequenceStore, defaultTimezone string) *SequenceAllocator {
	return &SequenceAllocator{
		store:           store,
		defaultTimezone: defaultTimezone,
	}
}

// BusinessDay normalizes a wall-clock instant to midnight of the tenant's
// calendar day. Using the tenant's timezone, not UTC, keeps numbers from
// rolling over mid-service for tenants in other offsets.
func (a *SequenceAllocator) BusinessDay(now time.Time, tenantTimezone string) time.Time {
	tz := tenantTimezone
	if tz == "" {
		tz = a.defaultTimezone
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	local := now.In(loc)
	year, month, day := local.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NextOrderNumber reserves the next number for the tenant's business day.
// If the store cannot perform the atomic increment the allocator fails
// closed; the caller aborts order creation rather than fabricating a number.
func (a *SequenceAllocator) NextOrderNumber(ctx context.Context, tenantID uuid.UUID, businessDay time.Time) (int, error) {
	number, err := a.store.NextNumber(ctx, tenantID, businessDay)
	if err != nil {
		return 0, err
	}
	if number < 1 {
		return 0, errs.StoreUnavailableError{Op: "allocate_order_number", Err: errInvalidSequence}
	}
	return number, nil
}

var errInvalidSequence = errors.New("counter returned a non-positive number")
