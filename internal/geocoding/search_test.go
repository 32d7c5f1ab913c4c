package geocoding_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/UnknownOlympus/geocsv/internal/geocoding"
	"github.com/UnknownOlympus/geocsv/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(_ *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
		}, nil
	}
}

type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, assert.AnError }
func (failingBody) Close() error             { return nil }

var rivoli = models.SearchQuery{
	Street:     "1 Rue de Rivoli",
	PostalCode: "75001",
	City:       "Paris",
	Country:    "France",
}

func TestSearchProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				// Verify request parameters
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Equal(t, "eu1.locationiq.com", req.URL.Host)
				assert.Equal(t, "/v1/search.php", req.URL.Path)
				query := req.URL.Query()
				assert.Equal(t, "test-key", query.Get("key"))
				assert.Equal(t, "1 Rue de Rivoli", query.Get("street"))
				assert.Equal(t, "75001", query.Get("postalcode"))
				assert.Equal(t, "Paris", query.Get("city"))
				assert.Equal(t, "France", query.Get("country"))
				assert.Equal(t, "json", query.Get("format"))
				assert.Empty(t, req.Header.Get("User-Agent"))

				return respond(http.StatusOK, `[{"lat":"48.85","lon":"2.35"}]`)(req)
			},
		}

		provider := geocoding.NewSearchProvider(mockClient, geocoding.LocationIQBaseURL, "test-key", "", logger)
		coords, err := provider.Geocode(ctx, rivoli)

		require.NoError(t, err)
		assert.Equal(t, models.Coordinates{Latitude: "48.85", Longitude: "2.35"}, coords)
	})

	t.Run("only the first result is used", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: respond(http.StatusOK, `[{"lat":"1.5","lon":"2.5"},{"lat":"9","lon":"9"}]`),
		}

		provider := geocoding.NewSearchProvider(mockClient, geocoding.LocationIQBaseURL, "k", "", logger)
		coords, err := provider.Geocode(ctx, rivoli)

		require.NoError(t, err)
		assert.Equal(t, models.Coordinates{Latitude: "1.5", Longitude: "2.5"}, coords)
	})

	t.Run("nominatim sends user agent and no key", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, geocoding.NominatimUserAgent, req.Header.Get("User-Agent"))
				assert.False(t, req.URL.Query().Has("key"))
				return respond(http.StatusOK, `[{"lat":"48.8","lon":"2.3"}]`)(req)
			},
		}

		provider := geocoding.NewSearchProvider(
			mockClient, geocoding.NominatimBaseURL, "", geocoding.NominatimUserAgent, logger,
		)
		coords, err := provider.Geocode(ctx, rivoli)

		require.NoError(t, err)
		assert.True(t, coords.Found())
	})

	lenientCases := []struct {
		name   string
		status int
		body   string
		want   models.Coordinates
	}{
		{"empty array", http.StatusOK, `[]`, models.Coordinates{}},
		{"invalid json", http.StatusOK, `invalid json`, models.Coordinates{}},
		{"error object", http.StatusNotFound, `{"error":"Unable to geocode"}`, models.Coordinates{}},
		{"first element not an object", http.StatusOK, `["x"]`, models.Coordinates{}},
		{"numeric coordinates", http.StatusOK, `[{"lat":48.85,"lon":2.35}]`, models.Coordinates{}},
		{"missing lon", http.StatusOK, `[{"lat":"48.85"}]`, models.Coordinates{Latitude: "48.85"}},
		{"rate limited", http.StatusTooManyRequests, `{"error":"Rate Limited Second"}`, models.Coordinates{}},
	}

	for _, tc := range lenientCases {
		t.Run(tc.name, func(t *testing.T) {
			mockClient := &mockHTTPClient{doFunc: respond(tc.status, tc.body)}

			provider := geocoding.NewSearchProvider(mockClient, geocoding.LocationIQBaseURL, "k", "", logger)
			coords, err := provider.Geocode(ctx, rivoli)

			require.NoError(t, err)
			assert.Equal(t, tc.want, coords)
		})
	}

	t.Run("HTTP client returns error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewSearchProvider(mockClient, geocoding.LocationIQBaseURL, "k", "", logger)
		_, err := provider.Geocode(ctx, rivoli)

		require.ErrorIs(t, err, geocoding.ErrTransport)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("body cannot be read", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusOK, Body: failingBody{}}, nil
			},
		}

		provider := geocoding.NewSearchProvider(mockClient, geocoding.LocationIQBaseURL, "k", "", logger)
		_, err := provider.Geocode(ctx, rivoli)

		require.ErrorIs(t, err, geocoding.ErrTransport)
		assert.Contains(t, err.Error(), "failed to read response body")
	})

	t.Run("invalid base URL", func(t *testing.T) {
		provider := geocoding.NewSearchProvider(&mockHTTPClient{}, "://bad", "k", "", logger)
		_, err := provider.Geocode(ctx, rivoli)

		require.ErrorContains(t, err, "failed to parse base URL")
	})

	t.Run("context cancellation", func(t *testing.T) {
		newCtx, cancel := context.WithCancel(context.Background())
		cancel()

		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, req.Context().Err()
			},
		}

		provider := geocoding.NewSearchProvider(mockClient, geocoding.LocationIQBaseURL, "k", "", logger)
		_, err := provider.Geocode(newCtx, rivoli)

		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestSearchProvider_AgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search.php", r.URL.Path)
		assert.Equal(t, "Paris", r.URL.Query().Get("city"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"place_id":"1","lat":"48.8606","lon":"2.3376","display_name":"Louvre"}]`))
	}))
	defer server.Close()

	provider := geocoding.NewSearchProvider(server.Client(), server.URL+"/v1/search.php", "k", "", slog.Default())
	coords, err := provider.Geocode(t.Context(), rivoli)

	require.NoError(t, err)
	assert.Equal(t, models.Coordinates{Latitude: "48.8606", Longitude: "2.3376"}, coords)
}
