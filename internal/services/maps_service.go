package services

import (
	"context"
	"errors"
	"os"
	"time"

	"studyhub/internal/models"

	"googlemaps.github.io/maps"
)

var (
	mapsClient  *maps.Client
	ErrNoAPIKey = errors.New("GOOGLE_MAPS_API_KEY environment variable not set")
)

// InitMapsClient initializes the Google Maps client
func InitMapsClient() error {
	apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	if apiKey == "" {
		return ErrNoAPIKey
	}

	var err error
	mapsClient, err = maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return err
	}

	return nil
}

// MapsConfigured reports whether venue validation is available
func MapsConfigured() bool {
	return mapsClient != nil || os.Getenv("GOOGLE_MAPS_API_KEY") != ""
}

// ValidateLocation resolves a Place ID into standardized venue data.
// Study groups meeting in person store this on creation.
func ValidateLocation(placeID string) (*models.Location, error) {
	if mapsClient == nil {
		if err := InitMapsClient(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	request := &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskGeometry,
			maps.PlaceDetailsFieldMaskFormattedAddress,
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskPlaceID,
		},
	}

	response, err := mapsClient.PlaceDetails(ctx, request)
	if err != nil {
		return nil, err
	}

	return &models.Location{
		PlaceID:          response.PlaceID,
		Name:             response.Name,
		FormattedAddress: response.FormattedAddress,
		Latitude:         response.Geometry.Location.Lat,
		Longitude:        response.Geometry.Location.Lng,
	}, nil
}
