package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/kmuchira/tiketi/internal/helpers"
	"github.com/kmuchira/tiketi/internal/models"
)

func bookingPassData(booking *models.Booking) string {
	secretKey := os.Getenv("JWT_SECRET")
	signature := helpers.SignBookingPass(booking.ID, booking.Payment.ID, booking.UserID, secretKey)
	return fmt.Sprintf("booking:%s;ticket:%s;event:%s;signature:%s",
		booking.ID.String(),
		booking.TicketID.String(),
		booking.Ticket.EventID.String(),
		signature,
	)
}

func extractBookingIDFromPass(qrData string) (uuid.UUID, error) {
	parts := strings.Split(qrData, ";")
	if len(parts) != 4 || !strings.HasPrefix(parts[0], "booking:") || !strings.HasPrefix(parts[3], "signature:") {
		return uuid.Nil, fmt.Errorf("invalid QR data format")
	}
	return uuid.Parse(strings.TrimPrefix(parts[0], "booking:"))
}

func validatePassSignature(booking *models.Booking, qrData string) bool {
	parts := strings.Split(qrData, ";")
	if len(parts) != 4 || !strings.HasPrefix(parts[3], "signature:") {
		return false
	}

	secretKey := os.Getenv("JWT_SECRET")
	signature := strings.TrimPrefix(parts[3], "signature:")
	return helpers.VerifyBookingPass(booking.ID, booking.Payment.ID, booking.UserID, secretKey, signature)
}

// GenerateBookingPass renders a signed QR entry pass for a confirmed
// booking. Only the booking's owner can fetch it.
func GenerateBookingPass(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var booking models.Booking
	if err := gormDB.Preload("Ticket.Event").Preload("Payment").First(&booking, "id = ?", bookingID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Booking not found.")
		return
	}

	if booking.UserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to generate a pass for this booking.")
		return
	}

	if booking.Status != models.BookingConfirmed || booking.Payment == nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Booking is not confirmed yet.")
		return
	}

	qrImage, err := qrcode.Encode(bookingPassData(&booking), qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

// CheckIn validates a scanned entry pass. Only the organizer of the
// booking's event may check a booking in, and each booking checks in at
// most once.
func CheckIn(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var checkInRequest struct {
		QRData string `json:"qr_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&checkInRequest); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	bookingID, err := extractBookingIDFromPass(checkInRequest.QRData)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid QR code format.")
		return
	}

	var booking models.Booking
	if err := gormDB.Preload("Ticket.Event").Preload("Payment").First(&booking, "id = ?", bookingID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Booking not found.")
		return
	}

	if booking.Status != models.BookingConfirmed || booking.Payment == nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Booking is not confirmed.")
		return
	}

	if !validatePassSignature(&booking, checkInRequest.QRData) {
		helpers.RespondWithError(c, http.StatusForbidden, "Invalid QR code signature.")
		return
	}

	if booking.Ticket.Event.UserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to check in this booking.")
		return
	}

	if booking.CheckedInAt != nil {
		helpers.RespondWithError(c, http.StatusForbidden, "Booking already checked in.")
		return
	}

	now := time.Now().UTC()
	if err := gormDB.Model(&booking).Update("checked_in_at", now).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to check in booking.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking checked in successfully.",
		"booking": gin.H{
			"id":          booking.ID,
			"event_title": booking.Ticket.Event.Title,
			"ticket_name": booking.Ticket.Name,
			"quantity":    booking.Quantity,
		},
	})
}
