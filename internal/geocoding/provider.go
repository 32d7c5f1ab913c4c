package geocoding

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/geocsv/internal/models"
)

// Provider is an interface that defines a method for geocoding a structured address.
// Geocode returns empty coordinates, not an error, when the service found nothing
// or answered with something that could not be understood. Errors are reserved
// for failures to talk to the service at all.
type Provider interface {
	Geocode(ctx context.Context, query models.SearchQuery) (models.Coordinates, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Common errors for geocoding providers.
var (
	ErrTransport         = errors.New("geocoding request failed")
	ErrMalformedResponse = errors.New("unexpected geocoding response")
)
