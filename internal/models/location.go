package models

// Location represents a validated place returned by the Maps lookup
type Location struct {
	PlaceID          string  `json:"place_id" binding:"required"`
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address" binding:"required"`
	Latitude         float64 `json:"latitude" binding:"required"`
	Longitude        float64 `json:"longitude" binding:"required"`
}

// ToVenue converts a validated location into the venue shape stored on groups
func (l Location) ToVenue() Venue {
	return Venue{
		FormattedAddress: l.FormattedAddress,
		PlaceID:          l.PlaceID,
		Latitude:         l.Latitude,
		Longitude:        l.Longitude,
	}
}
