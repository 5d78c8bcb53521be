package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleet-rental-backend/internal/model"
)

// HubResponse represents the API response for a single hub.
type HubResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	FleetSize int64  `json:"fleetSize"`
}

// GetHubs handles the GET /api/hubs request.
func GetHubs(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db
		if city := c.Query("city"); city != "" {
			q = q.Where("city = ?", city)
		}
		if state := c.Query("state"); state != "" {
			q = q.Where("state = ?", state)
		}

		var hubs []model.Hub
		if err := q.Find(&hubs).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve hubs"})
			return
		}

		// One aggregate pass for fleet sizes instead of a count per hub.
		type AggRow struct {
			HubID     int64
			FleetSize int64
		}
		var aggs []AggRow
		if err := db.
			Model(&model.Car{}).
			Select("hub_id as hub_id, COUNT(*) as fleet_size").
			Group("hub_id").
			Scan(&aggs).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate fleet sizes"})
			return
		}

		aggMap := make(map[int64]int64, len(aggs))
		for _, a := range aggs {
			aggMap[a.HubID] = a.FleetSize
		}

		responses := make([]HubResponse, 0, len(hubs))
		for _, h := range hubs {
			responses = append(responses, HubResponse{
				ID: h.ID, Name: h.Name,
				Address: h.Address, City: h.City, State: h.State,
				FleetSize: aggMap[h.ID],
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}

// GetCarTypes handles the GET /api/car-types request.
func GetCarTypes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var types []model.CarType
		if err := db.Order("id").Find(&types).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve car types"})
			return
		}
		c.JSON(http.StatusOK, types)
	}
}
