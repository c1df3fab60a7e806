package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Event struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User           `gorm:"foreignKey:UserID" json:"organizer,omitempty"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null" json:"date"`
	Location    string          `json:"location"`
	Price       decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0" json:"price"`
	Capacity    int             `gorm:"not null;default:0" json:"capacity"`
	Tickets     []Ticket        `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"tickets,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
