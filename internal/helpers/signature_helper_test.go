package helpers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBookingPassSignature(t *testing.T) {
	bookingID := uuid.New()
	paymentID := uuid.New()
	userID := uuid.New()

	sig := SignBookingPass(bookingID, paymentID, userID, "secret")
	assert.True(t, VerifyBookingPass(bookingID, paymentID, userID, "secret", sig))

	assert.False(t, VerifyBookingPass(bookingID, paymentID, userID, "other-secret", sig))
	assert.False(t, VerifyBookingPass(uuid.New(), paymentID, userID, "secret", sig))
	assert.False(t, VerifyBookingPass(bookingID, paymentID, userID, "secret", sig+"00"))
}
