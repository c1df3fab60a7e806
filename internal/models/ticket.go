package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ticket is a priced, finite-inventory category of admission within an
// event. QuantityAvailable is only ever reduced by a confirmed payment,
// inside the payment transaction, and must stay within [0, QuantityTotal].
type Ticket struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	EventID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"event_id"`
	Event             *Event          `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Name              string          `gorm:"not null" json:"name"`
	Price             decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"price"`
	QuantityTotal     int             `gorm:"not null" json:"quantity_total"`
	QuantityAvailable int             `gorm:"not null" json:"quantity_available"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
