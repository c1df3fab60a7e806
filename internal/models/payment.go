package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment records funds settlement against exactly one booking. The unique
// index on BookingID enforces at most one payment row per booking.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BookingID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"booking_id"`
	Booking       *Booking        `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	Amount        decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"amount"`
	Method        string          `gorm:"not null" json:"method"`
	Status        PaymentStatus   `gorm:"not null;default:'pending'" json:"status"`
	TransactionID string          `gorm:"not null;uniqueIndex" json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (payment *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return
}
