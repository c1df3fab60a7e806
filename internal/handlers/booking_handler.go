package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kmuchira/tiketi/internal/bookings"
	"github.com/kmuchira/tiketi/internal/helpers"
	"github.com/kmuchira/tiketi/internal/models"
)

type BookingHandler struct {
	svc *bookings.Service
}

func NewBookingHandler(svc *bookings.Service) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type BookingRequest struct {
	TicketID uuid.UUID `json:"ticket_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

type PayRequest struct {
	Method string `json:"method" binding:"required,max=255"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Invalid input. Please check your fields.")
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	booking, err := h.svc.Create(c.Request.Context(), actor, bookings.CreateInput{
		TicketID: req.TicketID,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking created. Proceed to payment.",
		"booking": booking,
	})
}

func (h *BookingHandler) Pay(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID.")
		return
	}

	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Invalid input. Please check your fields.")
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	booking, err := h.svc.Pay(c.Request.Context(), actor, bookingID, req.Method)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment successful. Booking confirmed.",
		"booking": booking,
	})
}

func (h *BookingHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	list, err := h.svc.List(c.Request.Context(), actor)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

func (h *BookingHandler) Get(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID.")
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	booking, err := h.svc.Get(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID.")
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	booking, err := h.svc.Cancel(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled.",
		"booking": booking,
	})
}

func actorFromContext(c *gin.Context) (bookings.Actor, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return bookings.Actor{}, false
	}
	role, exists := c.Get("role")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Role not found in token.")
		return bookings.Actor{}, false
	}
	return bookings.Actor{
		ID:   userID.(uuid.UUID),
		Role: role.(models.Role),
	}, true
}

func respondBookingError(c *gin.Context, err error) {
	var verr *bookings.ValidationError
	switch {
	case errors.As(err, &verr):
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, verr.Error())
	case errors.Is(err, bookings.ErrInsufficientInventory):
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "The requested quantity exceeds the available tickets.")
	case errors.Is(err, bookings.ErrAlreadyConfirmed):
		helpers.RespondWithError(c, http.StatusBadRequest, "Payment already confirmed for this booking.")
	case errors.Is(err, bookings.ErrCancelled):
		helpers.RespondWithError(c, http.StatusBadRequest, "This booking has been cancelled.")
	case errors.Is(err, bookings.ErrForbidden):
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to perform this action.")
	case errors.Is(err, bookings.ErrNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Booking or ticket not found.")
	default:
		log.Printf("bookings: %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
