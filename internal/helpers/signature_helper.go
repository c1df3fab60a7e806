package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// SignBookingPass produces the HMAC-SHA256 signature embedded in a booking
// pass QR code. The signature binds the booking, its payment and the owning
// user together so a scanned pass cannot be replayed against another booking.
func SignBookingPass(bookingID, paymentID, userID uuid.UUID, secretKey string) string {
	data := fmt.Sprintf("%s:%s:%s", bookingID.String(), paymentID.String(), userID.String())
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyBookingPass checks a pass signature in constant time.
func VerifyBookingPass(bookingID, paymentID, userID uuid.UUID, secretKey, signature string) bool {
	expected := SignBookingPass(bookingID, paymentID, userID, secretKey)
	return hmac.Equal([]byte(expected), []byte(signature))
}
