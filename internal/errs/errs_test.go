package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"not found", NotFoundError{Resource: "order", Key: "x"}, IsNotFound},
		{"tenant mismatch", TenantMismatchError{Subdomain: "a", QRIdentifier: "b"}, IsTenantMismatch},
		{"validation", ValidationError{Field: "items", Message: "empty"}, IsValidation},
		{"invalid transition", InvalidTransitionError{Entity: "order"}, IsInvalidTransition},
		{"concurrency conflict", ConcurrencyConflictError{Entity: "order", ID: "x"}, IsConcurrencyConflict},
		{"store unavailable", StoreUnavailableError{Op: "get", Err: errors.New("down")}, IsStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.pred(tt.err) {
				t.Errorf("predicate did not match its own error type")
			}
			if tt.pred(errors.New("unrelated")) {
				t.Errorf("predicate matched an unrelated error")
			}
		})
	}
}

func TestPredicatesMatchWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("create order: %w", NotFoundError{Resource: "menu_item", Key: "x"})
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through wrapping")
	}
}

func TestStoreUnavailableUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := StoreUnavailableError{Op: "allocate_order_number", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("StoreUnavailableError should unwrap to its cause")
	}
}

func TestInvalidTransitionErrorMessage(t *testing.T) {
	plain := InvalidTransitionError{Entity: "order", CurrentStatus: "pending", TargetStatus: "delivered"}
	if plain.Error() != "order cannot transition from pending to delivered" {
		t.Errorf("unexpected message: %q", plain.Error())
	}

	// A reason supplements the from/to detail, it never replaces it; staff
	// reconcile against the statuses in the message.
	withReason := InvalidTransitionError{
		Entity:        "order",
		CurrentStatus: "preparing",
		TargetStatus:  "cancelled",
		Reason:        "cannot cancel at this stage",
	}
	want := "order cannot transition from preparing to cancelled: cannot cancel at this stage"
	if withReason.Error() != want {
		t.Errorf("unexpected message: %q, want %q", withReason.Error(), want)
	}
}
