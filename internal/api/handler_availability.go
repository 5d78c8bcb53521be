package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// availableCarResponse is the flattened structure for an availability hit.
type availableCarResponse struct {
	ID          int64  `json:"id"`
	HubID       int64  `json:"hubId"`
	CarTypeID   int64  `json:"carTypeId"`
	Name        string `json:"name"`
	PlateNumber string `json:"plateNumber"`
}

// GetAvailableCars handles
// GET /api/cars/available?hubId=&startDate=&endDate=&carTypeId=.
// The engine parses and validates the raw date strings; this handler only
// adapts query parameters.
func (h *Handler) GetAvailableCars(c *gin.Context) {
	hubID, err := strconv.ParseInt(c.Query("hubId"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid hub ID"})
		return
	}

	var carTypeID *int64
	if raw := c.Query("carTypeId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid car type ID"})
			return
		}
		carTypeID = &id
	}

	cars, err := h.engine.FindAvailableCars(c.Request.Context(), hubID, carTypeID,
		c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	response := make([]availableCarResponse, 0, len(cars))
	for _, car := range cars {
		response = append(response, availableCarResponse{
			ID:          car.ID,
			HubID:       car.HubID,
			CarTypeID:   car.CarTypeID,
			Name:        car.Name,
			PlateNumber: car.PlateNumber,
		})
	}
	c.Header("X-Queried-At", time.Now().UTC().Format(time.RFC3339))
	c.JSON(http.StatusOK, response)
}
