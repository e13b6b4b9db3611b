package handlers

import (
	"net/http"

	"studyhub/internal/services"

	"github.com/gin-gonic/gin"
)

// ValidateLocation resolves a Google Place ID into standardized venue
// data for the group-creation form
func ValidateLocation(c *gin.Context) {
	placeID := c.Query("place_id")
	if placeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "place_id parameter is required"})
		return
	}

	location, err := services.ValidateLocation(placeID)
	if err != nil {
		if err == services.ErrNoAPIKey {
			handleError(c, http.StatusServiceUnavailable, "Venue validation is not configured", err)
			return
		}
		handleError(c, http.StatusBadGateway, "Failed to validate location", err)
		return
	}

	c.JSON(http.StatusOK, location)
}
