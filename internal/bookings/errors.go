package bookings

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the booking ledger. Handlers translate these
// into HTTP status codes; anything else coming out of the ledger is an
// unexpected transaction failure and maps to a 500.
var (
	// ErrForbidden means the acting user lacks the capability or the
	// ownership required for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the referenced booking or ticket does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientInventory means the requested quantity exceeds the
	// ticket's available stock. It is checked when a booking is created
	// and re-checked under a row lock when it is paid.
	ErrInsufficientInventory = errors.New("insufficient ticket inventory")

	// ErrAlreadyConfirmed guards payment idempotency: a confirmed booking
	// can never be paid again, and never leaves the confirmed state.
	ErrAlreadyConfirmed = errors.New("booking already confirmed")

	// ErrCancelled means the booking was cancelled and can no longer be
	// paid or cancelled again.
	ErrCancelled = errors.New("booking has been cancelled")
)

// ValidationError reports a malformed input field with field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
