package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleet-rental-backend/internal/booking"
)

type createBookingRequest struct {
	CustomerID string   `json:"customer_id" binding:"required"`
	CarID      int64    `json:"car_id" binding:"required"`
	StartDate  string   `json:"start_date" binding:"required"`
	EndDate    string   `json:"end_date" binding:"required"`
	AddOns     []string `json:"add_ons"`
	QuotedRate int64    `json:"quoted_rate"`
}

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	b, err := h.engine.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		CustomerID: req.CustomerID,
		CarID:      req.CarID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		AddOns:     req.AddOns,
		QuotedRate: req.QuotedRate,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GetBooking handles GET /api/bookings/:id.
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.engine.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetCustomerBookings handles GET /api/customers/:customer_id/bookings.
func (h *Handler) GetCustomerBookings(c *gin.Context) {
	bookings, err := h.engine.BookingsByCustomer(c.Request.Context(), c.Param("customer_id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// ConfirmBooking handles POST /api/bookings/:id/confirm. Payment/approval
// happens in an external collaborator; this only accepts the signal.
func (h *Handler) ConfirmBooking(c *gin.Context) {
	b, err := h.engine.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, b)
}

// Pointer so an explicit zero reading (fresh vehicle) passes "required".
type handoverRequest struct {
	OdometerOut *int64 `json:"odometer_out" binding:"required"`
	FuelOut     int    `json:"fuel_out"`
	Notes       string `json:"notes"`
}

// HandoverBooking handles POST /api/bookings/:id/handover.
func (h *Handler) HandoverBooking(c *gin.Context) {
	var req handoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	b, err := h.engine.Handover(c.Request.Context(), c.Param("id"), booking.HandoverInput{
		OdometerOut: *req.OdometerOut,
		FuelOut:     req.FuelOut,
		Notes:       req.Notes,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, b)
}

type returnRequest struct {
	OdometerIn *int64 `json:"odometer_in" binding:"required"`
	FuelIn     int    `json:"fuel_in"`
	Notes      string `json:"notes"`
	Damage     bool   `json:"damage"`
}

// ReturnBooking handles POST /api/bookings/:id/return.
func (h *Handler) ReturnBooking(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	b, err := h.engine.Return(c.Request.Context(), c.Param("id"), booking.ReturnInput{
		OdometerIn: *req.OdometerIn,
		FuelIn:     req.FuelIn,
		Notes:      req.Notes,
		Damage:     req.Damage,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBooking handles POST /api/bookings/:id/cancel.
func (h *Handler) CancelBooking(c *gin.Context) {
	b, err := h.engine.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, b)
}

type maintenanceRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

// ScheduleMaintenance handles POST /api/cars/:car_id/maintenance.
func (h *Handler) ScheduleMaintenance(c *gin.Context) {
	carID, err := strconv.ParseInt(c.Param("car_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid car ID"})
		return
	}

	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	slot, err := h.engine.ScheduleMaintenance(c.Request.Context(), carID, req.StartDate, req.EndDate)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// CompleteMaintenance handles DELETE /api/cars/:car_id/maintenance/:slot_id.
func (h *Handler) CompleteMaintenance(c *gin.Context) {
	carID, err := strconv.ParseInt(c.Param("car_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid car ID"})
		return
	}

	if err := h.engine.CompleteMaintenance(c.Request.Context(), carID, c.Param("slot_id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
