package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/UnknownOlympus/geocsv/internal/models"
)

// Search endpoints speaking the Nominatim structured search protocol.
const (
	LocationIQBaseURL = "https://eu1.locationiq.com/v1/search.php"
	NominatimBaseURL  = "https://nominatim.openstreetmap.org/search"
)

// NominatimUserAgent identifies geocsv as required by the Nominatim usage policy:
// https://operations.osmfoundation.org/policies/nominatim/
const NominatimUserAgent = "geocsv/1.0 (https://github.com/UnknownOlympus/geocsv)"

// SearchProvider implements the Provider interface for services exposing a Nominatim-style
// structured search endpoint, such as LocationIQ or OpenStreetMap Nominatim itself.
type SearchProvider struct {
	client    HTTPClient   // HTTP client for making requests
	baseURL   string       // Search endpoint
	apiKey    string       // API key, sent as the "key" parameter when set
	userAgent string       // Optional User-Agent header
	log       *slog.Logger // Logger for logging operations
}

// NewSearchProvider creates a search provider for the given endpoint.
func NewSearchProvider(client HTTPClient, baseURL, apiKey, userAgent string, log *slog.Logger) *SearchProvider {
	return &SearchProvider{
		client:    client,
		baseURL:   baseURL,
		apiKey:    apiKey,
		userAgent: userAgent,
		log:       log,
	}
}

// Geocode sends one GET request with the query as URL parameters and returns the
// latitude and longitude of the first result.
//
// The response body is parsed leniently: invalid JSON, an empty array or missing fields
// all lead to empty coordinates. In that case the query and the raw body are logged
// so the row can be investigated later.
func (sp *SearchProvider) Geocode(ctx context.Context, query models.SearchQuery) (models.Coordinates, error) {
	reqURL, err := url.Parse(sp.baseURL)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to parse base URL: %w", err)
	}

	params := reqURL.Query()
	if sp.apiKey != "" {
		params.Set("key", sp.apiKey)
	}
	params.Set("street", query.Street)
	params.Set("postalcode", query.PostalCode)
	params.Set("city", query.City)
	params.Set("country", query.Country)
	params.Set("format", "json")
	reqURL.RawQuery = params.Encode()

	sp.log.DebugContext(ctx, "Search request", "endpoint", sp.baseURL, "query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if sp.userAgent != "" {
		req.Header.Set("User-Agent", sp.userAgent)
	}

	resp, err := sp.client.Do(req)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: failed to read response body: %w", ErrTransport, err)
	}

	sp.log.DebugContext(ctx, "Search raw response", "status", resp.StatusCode, "body", string(body))

	coords, err := parseSearchResponse(body)
	if err != nil {
		sp.log.WarnContext(ctx, "Could not interpret search response", "status", resp.StatusCode, "error", err)
	}

	if !coords.Found() {
		sp.log.WarnContext(ctx, "No result for query", "query", query, "status", resp.StatusCode, "body", string(body))
	}

	return coords, nil
}

// parseSearchResponse reads [0].lat and [0].lon as strings. Anything else yields empty values.
// An error is returned only for bodies that are not a JSON array of objects.
func parseSearchResponse(body []byte) (models.Coordinates, error) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	results, ok := decoded.([]any)
	if !ok {
		return models.Coordinates{}, fmt.Errorf("%w: expected a JSON array, got %T", ErrMalformedResponse, decoded)
	}
	if len(results) == 0 {
		return models.Coordinates{}, nil
	}

	first, ok := results[0].(map[string]any)
	if !ok {
		return models.Coordinates{}, fmt.Errorf("%w: expected an object, got %T", ErrMalformedResponse, results[0])
	}

	lat, _ := first["lat"].(string)
	lon, _ := first["lon"].(string)

	return models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
