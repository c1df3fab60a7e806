// Package notifications is the boundary to the confirmation-mail pipeline.
// The booking ledger enqueues exactly one message per confirmed booking,
// after its transaction has committed; delivery itself happens elsewhere
// and failures are never surfaced to the paying customer.
package notifications

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// BookingConfirmation is the snapshot handed to the dispatcher when a
// booking is confirmed. It carries everything the mail worker needs so the
// consumer never has to read our database.
type BookingConfirmation struct {
	BookingID  uuid.UUID `json:"booking_id"`
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	EventTitle string    `json:"event_title"`
	TicketName string    `json:"ticket_name"`
	Quantity   int       `json:"quantity"`
	TotalPrice string    `json:"total_price"`
}

type Dispatcher interface {
	DispatchBookingConfirmed(ctx context.Context, confirmation BookingConfirmation) error
}

// LogDispatcher is used when no broker is configured. It keeps the
// fire-and-forget contract by only writing to the process log.
type LogDispatcher struct{}

func (LogDispatcher) DispatchBookingConfirmed(_ context.Context, confirmation BookingConfirmation) error {
	log.Printf("booking confirmed: booking=%s user=%s event=%q total=%s",
		confirmation.BookingID, confirmation.UserID, confirmation.EventTitle, confirmation.TotalPrice)
	return nil
}
