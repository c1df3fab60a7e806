// Package bookings owns the lifecycle of a booking from creation through
// payment: availability checks, price freezing, the atomic
// payment/confirmation/stock-decrement transaction and the post-commit
// confirmation notification.
package bookings

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kmuchira/tiketi/internal/models"
	"github.com/kmuchira/tiketi/internal/notifications"
)

// Actor is the already-authenticated identity performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

type Service struct {
	db       *gorm.DB
	notifier notifications.Dispatcher
}

func NewService(db *gorm.DB, notifier notifications.Dispatcher) *Service {
	return &Service{db: db, notifier: notifier}
}

type CreateInput struct {
	TicketID uuid.UUID
	Quantity int
}

// Create books Quantity units of a ticket type for the acting customer.
// The booking starts out pending and does not reserve stock; availability
// is only enforced for real inside Pay, under a row lock. The total price
// is computed here and frozen, so later price changes on the ticket never
// affect an existing booking.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*models.Booking, error) {
	if !actor.Role.CanBook() {
		return nil, ErrForbidden
	}
	if in.Quantity < 1 {
		return nil, &ValidationError{Field: "quantity", Message: "must be a positive integer"}
	}

	var ticket models.Ticket
	if err := s.db.WithContext(ctx).Preload("Event").First(&ticket, "id = ?", in.TicketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if ticket.QuantityAvailable < in.Quantity {
		return nil, ErrInsufficientInventory
	}

	booking := models.Booking{
		UserID:     actor.ID,
		TicketID:   ticket.ID,
		Quantity:   in.Quantity,
		TotalPrice: ticket.Price.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2),
		Status:     models.BookingPending,
	}
	if err := s.db.WithContext(ctx).Create(&booking).Error; err != nil {
		return nil, err
	}

	booking.Ticket = &ticket
	return &booking, nil
}

// Pay settles a pending booking. All three writes (payment insert, status
// update, stock decrement) happen in one transaction: the ticket row is
// locked, availability is re-validated, and any failure rolls everything
// back. Payment processing itself is simulated and always succeeds; a
// gateway integration would slot in where the payment row is built. The
// confirmation notification is dispatched only after the commit.
func (s *Service) Pay(ctx context.Context, actor Actor, bookingID uuid.UUID, method string) (*models.Booking, error) {
	if method == "" {
		return nil, &ValidationError{Field: "method", Message: "payment method is required"}
	}

	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !actor.Role.CanBook() || booking.UserID != actor.ID {
		return nil, ErrForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-read under lock: two concurrent payments for the same booking
		// must serialize here so only the first one settles.
		var b models.Booking
		if err := lockForUpdate(tx).First(&b, "id = ?", bookingID).Error; err != nil {
			return err
		}
		switch b.Status {
		case models.BookingConfirmed:
			return ErrAlreadyConfirmed
		case models.BookingCancelled:
			return ErrCancelled
		}

		var ticket models.Ticket
		if err := lockForUpdate(tx).First(&ticket, "id = ?", b.TicketID).Error; err != nil {
			return err
		}
		// No stock was reserved at booking time, so this is the decisive
		// check: without it concurrent payments could drive availability
		// negative.
		if ticket.QuantityAvailable < b.Quantity {
			return ErrInsufficientInventory
		}

		payment := models.Payment{
			BookingID:     b.ID,
			Amount:        b.TotalPrice,
			Method:        method,
			Status:        models.PaymentCompleted,
			TransactionID: "txn_" + uuid.NewString(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		if err := tx.Model(&b).Update("status", models.BookingConfirmed).Error; err != nil {
			return err
		}

		return tx.Model(&ticket).
			Update("quantity_available", gorm.Expr("quantity_available - ?", b.Quantity)).Error
	})
	if err != nil {
		return nil, err
	}

	confirmed, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Fire-and-forget: the booking is already durable, a dispatch failure
	// must not surface to the paying customer.
	if err := s.notifier.DispatchBookingConfirmed(ctx, confirmationFor(confirmed)); err != nil {
		log.Printf("bookings: confirmation dispatch failed for booking %s: %v", confirmed.ID, err)
	}

	return confirmed, nil
}

// List returns bookings visible to the actor: admins see every booking,
// organizers see bookings made against their events, customers see their
// own.
func (s *Service) List(ctx context.Context, actor Actor) ([]models.Booking, error) {
	q := s.db.WithContext(ctx).
		Preload("Ticket.Event").
		Preload("Payment").
		Order("bookings.created_at DESC")

	switch {
	case actor.Role.SeesAllBookings():
		q = q.Preload("User")
	case actor.Role.SeesEventBookings():
		q = q.Preload("User").
			Joins("JOIN tickets ON tickets.id = bookings.ticket_id").
			Joins("JOIN events ON events.id = tickets.event_id").
			Where("events.user_id = ?", actor.ID)
	default:
		q = q.Where("bookings.user_id = ?", actor.ID)
	}

	var list []models.Booking
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Get returns a single booking. Admins can read any booking; everyone else
// only their own.
func (s *Service) Get(ctx context.Context, actor Actor, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.SeesAllBookings() && booking.UserID != actor.ID {
		return nil, ErrForbidden
	}
	return booking, nil
}

// Cancel moves a pending booking to cancelled. Confirmed bookings are
// terminal, and no stock needs releasing because pending bookings never
// held any.
func (s *Service) Cancel(ctx context.Context, actor Actor, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !actor.Role.SeesAllBookings() && booking.UserID != actor.ID {
		return nil, ErrForbidden
	}
	switch booking.Status {
	case models.BookingConfirmed:
		return nil, ErrAlreadyConfirmed
	case models.BookingCancelled:
		return nil, ErrCancelled
	}

	if err := s.db.WithContext(ctx).Model(&booking).
		Update("status", models.BookingCancelled).Error; err != nil {
		return nil, err
	}

	return s.load(ctx, bookingID)
}

func (s *Service) load(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).
		Preload("Ticket.Event").
		Preload("Payment").
		Preload("User").
		First(&booking, "id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func confirmationFor(booking *models.Booking) notifications.BookingConfirmation {
	c := notifications.BookingConfirmation{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		Quantity:   booking.Quantity,
		TotalPrice: booking.TotalPrice.StringFixed(2),
	}
	if booking.User != nil {
		c.Name = booking.User.Name
		c.Email = booking.User.Email
	}
	if booking.Ticket != nil {
		c.TicketName = booking.Ticket.Name
		if booking.Ticket.Event != nil {
			c.EventTitle = booking.Ticket.Event.Title
		}
	}
	return c
}

// lockForUpdate applies a SELECT ... FOR UPDATE row lock. SQLite, used by
// the tests, has no FOR UPDATE syntax; its transactions take a single
// writer lock, which gives the same serialization.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
