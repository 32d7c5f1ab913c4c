package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/UnknownOlympus/geocsv/internal/columns"
	"github.com/UnknownOlympus/geocsv/internal/config"
	"github.com/UnknownOlympus/geocsv/internal/geocoding"
	"github.com/UnknownOlympus/geocsv/internal/metrics"
	"github.com/UnknownOlympus/geocsv/internal/repository"
	"github.com/UnknownOlympus/geocsv/internal/service"
	"github.com/UnknownOlympus/geocsv/internal/table"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// Version is the application version, set at build time with
// -ldflags "-X main.Version=1.2.3".
var Version = "dev"

// main is the entry point of the application.
func main() {
	// Interrupts cancel the run; rows written so far stay in the output.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		_, _ = color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the geocsv command with its flags and the version subcommand.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "geocsv",
		Short: "Fill latitude and longitude columns of a table from a geocoding service",
		Long: `geocsv reads a CSV or XLSX table, sends the street, postal code, city and
country of every row to a geocoding service and writes a CSV copy of the table
where the latitude and longitude columns hold the first result.

Requests are paced (2s apart by default) to stay within the service quota.

Example:
  geocsv -i customers.csv -o geocoded.csv -k $LOCATIONIQ_KEY \
    -s Street -p Zip -c City -y 4 -t Latitude -g Longitude`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			logger := setupLogger(cfg.Env)

			return run(cmd.Context(), cfg, logger)
		},
	}
	config.RegisterFlags(rootCmd.Flags())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Display the application version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "geocsv %s (%s)\n", Version, runtime.Version())
		},
	})

	return rootCmd
}

// run wires the components for one invocation and processes the whole input table.
// The output file is only created once every column has been resolved.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)
	if cfg.MetricsFile != "" {
		defer func() {
			if werr := metrics.WriteTextfile(cfg.MetricsFile, reg); werr != nil {
				logger.ErrorContext(ctx, "Failed to write metrics", "error", werr)
			}
		}()
	}

	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:     geocoding.ProviderType(cfg.Provider),
		APIKey:   cfg.APIKey,
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create geocoding provider: %w", err)
	}

	reader, err := table.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer reader.Close()

	cols, err := columns.Resolve(columns.Selectors{
		Street:     cfg.Street,
		PostalCode: cfg.PostalCode,
		City:       cfg.City,
		Country:    cfg.Country,
		Lat:        cfg.Lat,
		Lng:        cfg.Lng,
	}, reader.Header())
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "Columns resolved", "columns", cols)

	journal, dtb, err := openJournal(ctx, cfg.JournalDSN, logger)
	if err != nil {
		return err
	}
	var ping func(context.Context) error
	if dtb != nil {
		defer dtb.Close()
		ping = dtb.Ping
	}

	if cfg.MetricsPort > 0 {
		stopMonitoring := startMonitoringServer(ctx, logger, newMonitoringHandler(ctx, logger, reg, ping), cfg.MetricsPort)
		defer stopMonitoring()
	}

	writer, err := table.Create(cfg.Output, reader.Header())
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	runID := uuid.NewString()
	logger.InfoContext(ctx, "Geocoding started",
		"run", runID, "input", cfg.Input, "output", cfg.Output, "provider", cfg.Provider, "delay", cfg.Delay)

	geoService := service.NewGeocodingService(
		logger,
		reader,
		writer,
		cols,
		provider,
		geocoding.NewPacer(cfg.Delay),
		cfg.Provider,
		appMetrics,
		journal,
		runID,
	)

	summary, err := geoService.Run(ctx)
	logger.InfoContext(ctx, "Geocoding finished",
		"run", runID, "rows", summary.Rows, "found", summary.Found, "not_found", summary.NotFound)

	return err
}

// openJournal connects to the journal database when a DSN is configured,
// and falls back to a journal that records nothing (and a nil pool) otherwise.
func openJournal(ctx context.Context, dsn string, logger *slog.Logger) (repository.Interface, *pgxpool.Pool, error) {
	if dsn == "" {
		return repository.Nop{}, nil, nil
	}

	dtb, err := repository.NewDatabase(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to journal database: %w", err)
	}

	repo := repository.NewRepository(dtb, logger)
	if err = repo.EnsureSchema(ctx); err != nil {
		dtb.Close()
		return nil, nil, err
	}

	return repo, dtb, nil
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
