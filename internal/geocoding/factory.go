package geocoding

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeLocationIQ represents the LocationIQ search API.
	ProviderTypeLocationIQ ProviderType = "locationiq"
	// ProviderTypeNominatim represents OpenStreetMap Nominatim geocoding provider.
	ProviderTypeNominatim ProviderType = "nominatim"
	// ProviderTypeGoogle represents Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type     ProviderType  // Type of provider to create
	APIKey   string        // API key (LocationIQ and Google)
	Endpoint string        // Optional endpoint override
	Timeout  time.Duration // HTTP timeout of a single request
	Logger   *slog.Logger  // Logger for the provider
}

// NewProvider creates a geocoding provider based on the provided configuration.
//
// Supported provider types:
// - "locationiq": LocationIQ structured search (requires API key)
// - "nominatim": OpenStreetMap Nominatim structured search (no API key)
// - "google": Google Maps Geocoding API (requires API key)
//
// Returns an error if the provider type is unsupported or if provider creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeLocationIQ:
		return newLocationIQProvider(config)
	case ProviderTypeNominatim:
		return newNominatimProvider(config), nil
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

func newLocationIQProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for LocationIQ provider")
	}

	return NewSearchProvider(
		&http.Client{Timeout: config.Timeout},
		endpointOr(config.Endpoint, LocationIQBaseURL),
		config.APIKey,
		"",
		config.Logger,
	), nil
}

func newNominatimProvider(config ProviderConfig) Provider {
	// Nominatim is free and doesn't require an API key
	return NewSearchProvider(
		&http.Client{Timeout: config.Timeout},
		endpointOr(config.Endpoint, NominatimBaseURL),
		"",
		NominatimUserAgent,
		config.Logger,
	)
}

func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
		maps.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
	}
	if config.Endpoint != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(config.Endpoint))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}

func endpointOr(endpoint, fallback string) string {
	if endpoint != "" {
		return endpoint
	}
	return fallback
}
