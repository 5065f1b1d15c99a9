package errs

import (
	"errors"
	"fmt"
)

// NotFoundError indicates that a referenced tenant, QR code, order, item or
// menu item does not exist.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// TenantMismatchError indicates that a QR identifier resolves to a different
// tenant than the request's subdomain. Callers present it as not-found so
// cross-tenant existence is never leaked.
type TenantMismatchError struct {
	Subdomain    string
	QRIdentifier string
}

func (e TenantMismatchError) Error() string {
	return fmt.Sprintf("qr code %q does not belong to tenant %q", e.QRIdentifier, e.Subdomain)
}

// ValidationError indicates malformed creation input.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidTransitionError indicates a status edge outside the allowed-edge
// table. CurrentStatus lets staff reconcile against the actual state.
type InvalidTransitionError struct {
	Entity        string
	CurrentStatus string
	TargetStatus  string
	Reason        string
}

func (e InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("%s cannot transition from %s to %s", e.Entity, e.CurrentStatus, e.TargetStatus)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ConcurrencyConflictError indicates a lost optimistic-concurrency race.
// The only error worth an automatic bounded retry.
type ConcurrencyConflictError struct {
	Entity string
	ID     string
}

func (e ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrent update conflict on %s %s", e.Entity, e.ID)
}

// StoreUnavailableError indicates that the persistence port failed. The
// caller fails closed: no order number is fabricated, no transition applied.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e StoreUnavailableError) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	var e NotFoundError
	return errors.As(err, &e)
}

func IsTenantMismatch(err error) bool {
	var e TenantMismatchError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e ValidationError
	return errors.As(err, &e)
}

func IsInvalidTransition(err error) bool {
	var e InvalidTransitionError
	return errors.As(err, &e)
}

func IsConcurrencyConflict(err error) bool {
	var e ConcurrencyConflictError
	return errors.As(err, &e)
}

func IsStoreUnavailable(err error) bool {
	var e StoreUnavailableError
	return errors.As(err, &e)
}
