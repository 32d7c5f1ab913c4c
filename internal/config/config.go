package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override flags, e.g. GEOCSV_KEY.
const EnvPrefix = "GEOCSV"

// Flag names shared by the command line, the environment and config files.
const (
	KeyInput       = "input"
	KeyOutput      = "output"
	KeyAPIKey      = "key"
	KeyStreet      = "street"
	KeyPostalCode  = "postalcode"
	KeyCity        = "city"
	KeyCountry     = "country"
	KeyLat         = "lat"
	KeyLng         = "lng"
	KeyEnv         = "env"
	KeyProvider    = "provider"
	KeyEndpoint    = "endpoint"
	KeyDelay       = "delay"
	KeyTimeout     = "timeout"
	KeyMetricsFile = "metrics-file"
	KeyMetricsPort = "metrics-port"
	KeyJournalDSN  = "journal-dsn"
	KeyConfigFile  = "config"
)

// Defaults for the optional settings.
const (
	DefaultEnv      = "local"
	DefaultProvider = "locationiq"
	DefaultDelay    = 2 * time.Second
	DefaultTimeout  = 60 * time.Second
)

// ErrMissingOption is returned when a required option was given neither as a flag,
// an environment variable nor a config file entry.
var ErrMissingOption = errors.New("missing required option")

// Config holds the settings of a single geocsv run.
//
// Fields:
// - Input, Output: paths of the source table and the CSV to produce.
// - APIKey: the key for the geocoding provider.
// - Street, PostalCode, City, Country: column selectors, a zero-based index or a header name.
// - Lat, Lng: header names of the columns receiving the coordinates.
// - Env: logging profile (local, development, production).
// - Provider, Endpoint: geocoding backend and optional URL override.
// - Delay: minimum pause between two provider requests.
// - Timeout: HTTP timeout of a single provider request.
// - MetricsFile: optional Prometheus textfile written at exit.
// - MetricsPort: port of the /metrics and /healthz server, 0 disables it.
// - JournalDSN: optional PostgreSQL connection string for the run journal.
type Config struct {
	Input       string
	Output      string
	APIKey      string
	Street      string
	PostalCode  string
	City        string
	Country     string
	Lat         string
	Lng         string
	Env         string
	Provider    string
	Endpoint    string
	Delay       time.Duration
	Timeout     time.Duration
	MetricsFile string
	MetricsPort int
	JournalDSN  string
}

// RegisterFlags declares every option on the given flag set.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP(KeyInput, "i", "", "input table path (.csv or .xlsx)")
	flags.StringP(KeyOutput, "o", "", "output CSV path")
	flags.StringP(KeyAPIKey, "k", "", "geocoding service API key")
	flags.StringP(KeyStreet, "s", "", "street column (index or header name)")
	flags.StringP(KeyPostalCode, "p", "", "postal code column (index or header name)")
	flags.StringP(KeyCity, "c", "", "city column (index or header name)")
	flags.StringP(KeyCountry, "y", "", "country column (index or header name)")
	flags.StringP(KeyLat, "t", "", "latitude output column (header name)")
	flags.StringP(KeyLng, "g", "", "longitude output column (header name)")
	flags.String(KeyEnv, DefaultEnv, "logging profile: local, development, production")
	flags.String(KeyProvider, DefaultProvider, "geocoding provider: locationiq, nominatim, google")
	flags.String(KeyEndpoint, "", "override the provider endpoint URL")
	flags.Duration(KeyDelay, DefaultDelay, "pause before every provider request")
	flags.Duration(KeyTimeout, DefaultTimeout, "HTTP timeout of a provider request")
	flags.String(KeyMetricsFile, "", "write Prometheus metrics to this textfile at exit")
	flags.Int(KeyMetricsPort, 0, "serve /metrics and /healthz on this port during the run (0 disables)")
	flags.String(KeyJournalDSN, "", "PostgreSQL DSN of the run journal")
	flags.String(KeyConfigFile, "", "optional config file (yaml, json, toml)")
}

// Load builds a Config from the parsed flags, GEOCSV_* environment variables
// (a .env file in the working directory is loaded first) and an optional config file.
// Flags take precedence over the environment, which takes precedence over the file.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	vpr := viper.New()
	vpr.SetEnvPrefix(EnvPrefix)
	vpr.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vpr.AutomaticEnv()

	if err := vpr.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if file := vpr.GetString(KeyConfigFile); file != "" {
		vpr.SetConfigFile(file)
		if err := vpr.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Input:       vpr.GetString(KeyInput),
		Output:      vpr.GetString(KeyOutput),
		APIKey:      vpr.GetString(KeyAPIKey),
		Street:      vpr.GetString(KeyStreet),
		PostalCode:  vpr.GetString(KeyPostalCode),
		City:        vpr.GetString(KeyCity),
		Country:     vpr.GetString(KeyCountry),
		Lat:         vpr.GetString(KeyLat),
		Lng:         vpr.GetString(KeyLng),
		Env:         vpr.GetString(KeyEnv),
		Provider:    vpr.GetString(KeyProvider),
		Endpoint:    vpr.GetString(KeyEndpoint),
		Delay:       vpr.GetDuration(KeyDelay),
		Timeout:     vpr.GetDuration(KeyTimeout),
		MetricsFile: vpr.GetString(KeyMetricsFile),
		MetricsPort: vpr.GetInt(KeyMetricsPort),
		JournalDSN:  vpr.GetString(KeyJournalDSN),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every required option is set and that durations are usable.
// The API key is only required by providers that authenticate.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{KeyInput, c.Input},
		{KeyOutput, c.Output},
		{KeyStreet, c.Street},
		{KeyPostalCode, c.PostalCode},
		{KeyCity, c.City},
		{KeyCountry, c.Country},
		{KeyLat, c.Lat},
		{KeyLng, c.Lng},
	}
	if c.Provider != "nominatim" {
		required = append(required, struct {
			name  string
			value string
		}{KeyAPIKey, c.APIKey})
	}

	var missing []string
	for _, opt := range required {
		if opt.value == "" {
			missing = append(missing, "--"+opt.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingOption, strings.Join(missing, ", "))
	}

	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %s", c.Delay)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("metrics port out of range: %d", c.MetricsPort)
	}

	return nil
}
