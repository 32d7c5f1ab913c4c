package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/UnknownOlympus/geocsv/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NewGoogleProvider initializes a new GoogleProvider with the given client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode sends the street as free-form address and the other parts as component filters.
// Zero results are reported as empty coordinates; API errors are transport failures.
func (gp *GoogleProvider) Geocode(ctx context.Context, query models.SearchQuery) (models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "query", query)

	req := googleRequest(query)
	if req.Address == "" && len(req.Components) == 0 {
		gp.log.WarnContext(ctx, "No result for empty query", "query", query)
		return models.Coordinates{}, nil
	}

	geocodeResponse, err := gp.client.Geocode(ctx, req)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if len(geocodeResponse) == 0 {
		gp.log.WarnContext(ctx, "No result for query", "query", query)
		return models.Coordinates{}, nil
	}
	location := geocodeResponse[0].Geometry.Location

	return models.Coordinates{
		Latitude:  strconv.FormatFloat(location.Lat, 'f', -1, 64),
		Longitude: strconv.FormatFloat(location.Lng, 'f', -1, 64),
	}, nil
}

func googleRequest(query models.SearchQuery) *maps.GeocodingRequest {
	components := make(map[maps.Component]string)
	if query.City != "" {
		components[maps.ComponentLocality] = query.City
	}
	if query.PostalCode != "" {
		components[maps.ComponentPostalCode] = query.PostalCode
	}
	if query.Country != "" {
		components[maps.ComponentCountry] = query.Country
	}

	req := &maps.GeocodingRequest{Address: query.Street}
	if len(components) > 0 {
		req.Components = components
	}

	return req
}
