package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kmuchira/tiketi/internal/bookings"
	"github.com/kmuchira/tiketi/internal/middleware"
	"github.com/kmuchira/tiketi/internal/models"
	"github.com/kmuchira/tiketi/internal/notifications"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "handler-test-secret")
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Event{}, &models.Ticket{}, &models.Booking{}, &models.Payment{},
	))

	bookingHandler := NewBookingHandler(bookings.NewService(db, notifications.LogDispatcher{}))

	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))

	public := r.Group("/v1")
	public.POST("/register", Register)
	public.POST("/login", Login)

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	protected.GET("/user", GetCurrentUser)
	protected.POST("/events", CreateEvent)
	protected.POST("/events/:id/tickets", CreateTicket)
	protected.POST("/bookings", bookingHandler.Create)
	protected.GET("/bookings", bookingHandler.List)
	protected.GET("/bookings/:id", bookingHandler.Get)
	protected.POST("/bookings/:id/pay", bookingHandler.Pay)
	protected.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	protected.GET("/bookings/:id/pass", GenerateBookingPass)
	protected.POST("/checkin", CheckIn)

	return r, db
}

func doRequest(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func assertMoney(t *testing.T, got any, want string) {
	t.Helper()
	s, ok := got.(string)
	require.True(t, ok, "expected a decimal string, got %T (%v)", got, got)
	assert.True(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(s)),
		"expected %s, got %s", want, s)
}

func registerUser(t *testing.T, r *gin.Engine, name, email, role string) string {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/v1/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "secret-password",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	token, _ := decodeBody(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// setupEvent creates an organizer-owned event with one 50.00 ticket type
// and returns the organizer token and the ticket id.
func setupEvent(t *testing.T, r *gin.Engine, available int) (string, string) {
	t.Helper()
	organizerToken := registerUser(t, r, "Achieng", fmt.Sprintf("achieng-%d@example.com", available), "organizer")

	w := doRequest(r, http.MethodPost, "/v1/events", organizerToken, gin.H{
		"title":    "Nairobi Jazz Night",
		"date":     "2026-12-31T20:00:00Z",
		"location": "Nairobi",
		"capacity": available,
		"tickets": []gin.H{
			{"name": "Regular", "price": "50.00", "quantity": available},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	event := decodeBody(t, w)["event"].(map[string]any)
	tickets := event["tickets"].([]any)
	require.Len(t, tickets, 1)
	ticketID := tickets[0].(map[string]any)["id"].(string)
	return organizerToken, ticketID
}

func TestRegisterAndLogin(t *testing.T) {
	r, _ := newTestRouter(t)

	token := registerUser(t, r, "Wanjiku", "wanjiku@example.com", "customer")

	w := doRequest(r, http.MethodPost, "/v1/register", "", gin.H{
		"name":     "Wanjiku",
		"email":    "wanjiku@example.com",
		"password": "secret-password",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(r, http.MethodPost, "/v1/login", "", gin.H{
		"email":    "wanjiku@example.com",
		"password": "secret-password",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, "/v1/login", "", gin.H{
		"email":    "wanjiku@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, http.MethodGet, "/v1/user", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "wanjiku@example.com", decodeBody(t, w)["email"])

	w = doRequest(r, http.MethodGet, "/v1/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, http.MethodPost, "/v1/register", "", gin.H{
		"name":     "Mallory",
		"email":    "mallory@example.com",
		"password": "secret-password",
		"role":     "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingPaymentFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	_, ticketID := setupEvent(t, r, 1)
	customerToken := registerUser(t, r, "Njeri", "njeri@example.com", "customer")

	w := doRequest(r, http.MethodPost, "/v1/bookings", customerToken, gin.H{
		"ticket_id": ticketID,
		"quantity":  1,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	booking := decodeBody(t, w)["booking"].(map[string]any)
	bookingID := booking["id"].(string)
	assert.Equal(t, "pending", booking["status"])
	assertMoney(t, booking["total_price"], "50.00")

	w = doRequest(r, http.MethodPost, "/v1/bookings/"+bookingID+"/pay", customerToken, gin.H{
		"method": "card",
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	paid := decodeBody(t, w)["booking"].(map[string]any)
	assert.Equal(t, "confirmed", paid["status"])
	payment := paid["payment"].(map[string]any)
	assert.Equal(t, "completed", payment["status"])
	assertMoney(t, payment["amount"], "50.00")

	// Idempotency guard surfaces as 400, not as a second payment.
	w = doRequest(r, http.MethodPost, "/v1/bookings/"+bookingID+"/pay", customerToken, gin.H{
		"method": "card",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/v1/bookings/"+bookingID, customerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	otherToken := registerUser(t, r, "Otieno", "otieno@example.com", "customer")
	w = doRequest(r, http.MethodGet, "/v1/bookings/"+bookingID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodGet, "/v1/bookings", customerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	list := decodeBody(t, w)["bookings"].([]any)
	assert.Len(t, list, 1)
}

func TestBookingRejections(t *testing.T) {
	r, _ := newTestRouter(t)
	organizerToken, ticketID := setupEvent(t, r, 0)
	customerToken := registerUser(t, r, "Njeri", "njeri2@example.com", "customer")

	// Sold out.
	w := doRequest(r, http.MethodPost, "/v1/bookings", customerToken, gin.H{
		"ticket_id": ticketID,
		"quantity":  1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Malformed quantity.
	w = doRequest(r, http.MethodPost, "/v1/bookings", customerToken, gin.H{
		"ticket_id": ticketID,
		"quantity":  0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Organizers cannot book.
	w = doRequest(r, http.MethodPost, "/v1/bookings", organizerToken, gin.H{
		"ticket_id": ticketID,
		"quantity":  1,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// No token at all.
	w = doRequest(r, http.MethodPost, "/v1/bookings", "", gin.H{
		"ticket_id": ticketID,
		"quantity":  1,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCancelBookingFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	_, ticketID := setupEvent(t, r, 3)
	customerToken := registerUser(t, r, "Njeri", "njeri3@example.com", "customer")

	w := doRequest(r, http.MethodPost, "/v1/bookings", customerToken, gin.H{
		"ticket_id": ticketID,
		"quantity":  1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	bookingID := decodeBody(t, w)["booking"].(map[string]any)["id"].(string)

	w = doRequest(r, http.MethodPost, "/v1/bookings/"+bookingID+"/cancel", customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decodeBody(t, w)["booking"].(map[string]any)["status"])

	// A cancelled booking can be neither paid nor cancelled again.
	w = doRequest(r, http.MethodPost, "/v1/bookings/"+bookingID+"/pay", customerToken, gin.H{"method": "card"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(r, http.MethodPost, "/v1/bookings/"+bookingID+"/cancel", customerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckInFlow(t *testing.T) {
	r, db := newTestRouter(t)
	organizerToken, ticketID := setupEvent(t, r, 2)
	customerToken := registerUser(t, r, "Njeri", "njeri4@example.com", "customer")

	w := doRequest(r, http.MethodPost, "/v1/bookings", customerToken, gin.H{
		"ticket_id": ticketID,
		"quantity":  1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	bookingID := decodeBody(t, w)["booking"].(map[string]any)["id"].(string)

	// A pending booking has no pass yet.
	w = doRequest(r, http.MethodGet, "/v1/bookings/"+bookingID+"/pass", customerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/v1/bookings/"+bookingID+"/pay", customerToken, gin.H{"method": "card"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/v1/bookings/"+bookingID+"/pass", customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	// Rebuild the pass payload the QR encodes and scan it as the organizer.
	var booking models.Booking
	require.NoError(t, db.Preload("Ticket.Event").Preload("Payment").First(&booking, "id = ?", bookingID).Error)
	qrData := bookingPassData(&booking)

	w = doRequest(r, http.MethodPost, "/v1/checkin", customerToken, gin.H{"qr_data": qrData})
	assert.Equal(t, http.StatusForbidden, w.Code, "only the event organizer may check in a booking")

	w = doRequest(r, http.MethodPost, "/v1/checkin", organizerToken, gin.H{"qr_data": qrData})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	w = doRequest(r, http.MethodPost, "/v1/checkin", organizerToken, gin.H{"qr_data": qrData})
	assert.Equal(t, http.StatusForbidden, w.Code, "a booking checks in at most once")

	w = doRequest(r, http.MethodPost, "/v1/checkin", organizerToken, gin.H{"qr_data": "booking:nonsense"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
