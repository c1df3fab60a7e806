package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a customer's claim on some quantity of a ticket type.
// TotalPrice is computed from the ticket's unit price when the booking is
// created and never recomputed afterwards, so later price changes on the
// ticket do not affect existing bookings.
type Booking struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TicketID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"ticket_id"`
	Ticket      *Ticket         `gorm:"foreignKey:TicketID" json:"ticket,omitempty"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"total_price"`
	Status      BookingStatus   `gorm:"not null;default:'pending'" json:"status"`
	Payment     *Payment        `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE" json:"payment,omitempty"`
	CheckedInAt *time.Time      `json:"checked_in_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (booking *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return
}
