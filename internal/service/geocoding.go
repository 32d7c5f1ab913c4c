package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/geocsv/internal/geocoding"
	"github.com/UnknownOlympus/geocsv/internal/metrics"
	"github.com/UnknownOlympus/geocsv/internal/models"
	"github.com/UnknownOlympus/geocsv/internal/repository"
	"github.com/UnknownOlympus/geocsv/internal/table"
)

// RowWriter receives the output rows. *table.Writer implements it.
type RowWriter interface {
	Write(fields []string) error
}

// RequestPacer spaces the provider requests. *geocoding.Pacer implements it.
type RequestPacer interface {
	Wait(ctx context.Context) error
	Done()
}

// Summary counts the rows handled by a run.
type Summary struct {
	Rows     int
	Found    int
	NotFound int
}

// GeocodingService geocodes every row of an input table and writes the enriched rows.
// Rows are handled strictly one after another.
type GeocodingService struct {
	log          *slog.Logger         // Logger for logging service activities
	reader       table.Reader         // Source rows
	writer       RowWriter            // Destination rows
	columns      models.Columns       // Resolved column positions
	provider     geocoding.Provider   // Geocoding provider for external geocoding services
	pacer        RequestPacer         // Spacing between provider requests
	providerName string               // Name of the provider for metrics labeling
	metrics      *metrics.Metrics     // Metrics for tracking service performance
	journal      repository.Interface // Audit trail of geocoded rows
	runID        string               // Identifier of this run in the journal
}

// NewGeocodingService creates a new instance of GeocodingService.
func NewGeocodingService(
	log *slog.Logger,
	reader table.Reader,
	writer RowWriter,
	columns models.Columns,
	provider geocoding.Provider,
	pacer RequestPacer,
	providerName string,
	metrics *metrics.Metrics,
	journal repository.Interface,
	runID string,
) *GeocodingService {
	return &GeocodingService{
		log:          log,
		reader:       reader,
		writer:       writer,
		columns:      columns,
		provider:     provider,
		pacer:        pacer,
		providerName: providerName,
		metrics:      metrics,
		journal:      journal,
		runID:        runID,
	}
}

// Run processes every remaining row of the reader in file order. The first table,
// transport or write error stops the run; rows written before it stay in the output.
func (gs *GeocodingService) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	for {
		record, err := gs.reader.Next()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			return summary, fmt.Errorf("failed to read row %d: %w", summary.Rows+1, err)
		}

		coords, err := gs.processRow(ctx, record)
		if err != nil {
			return summary, err
		}

		summary.Rows++
		if coords.Found() {
			summary.Found++
		} else {
			summary.NotFound++
		}
	}
}

// processRow geocodes a single record and writes its output row.
func (gs *GeocodingService) processRow(ctx context.Context, record table.Record) (models.Coordinates, error) {
	query := BuildQuery(record, gs.columns)

	if err := gs.pacer.Wait(ctx); err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to geocode line %d: %w", record.Line, err)
	}
	gs.log.InfoContext(ctx, "Processing line", "line", record.Line)

	startTime := time.Now()
	coords, err := gs.provider.Geocode(ctx, query)
	gs.pacer.Done()
	gs.metrics.RequestSeconds.WithLabelValues(gs.providerName).Observe(time.Since(startTime).Seconds())
	if err != nil {
		gs.metrics.ProviderErrors.Inc()
		return models.Coordinates{}, fmt.Errorf("failed to geocode line %d: %w", record.Line, err)
	}

	if err = gs.writer.Write(OutputRow(record, gs.columns, coords)); err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to write line %d: %w", record.Line, err)
	}

	status := metrics.StatusFound
	if !coords.Found() {
		status = metrics.StatusNotFound
	}
	gs.metrics.RowsProcessed.WithLabelValues(status).Inc()

	entry := models.JournalEntry{RunID: gs.runID, Line: record.Line, Query: query, Coords: coords}
	if err = gs.journal.Record(ctx, entry); err != nil {
		gs.log.ErrorContext(ctx, "Could not record journal entry", "line", record.Line, "error", err)
	}

	return coords, nil
}

// BuildQuery takes the address parts from the record; columns past its end read as empty.
func BuildQuery(record table.Record, cols models.Columns) models.SearchQuery {
	return models.SearchQuery{
		Street:     record.Field(cols.Street),
		PostalCode: record.Field(cols.PostalCode),
		City:       record.Field(cols.City),
		Country:    record.Field(cols.Country),
	}
}

// OutputRow copies the record and puts the coordinates into the lat and lng columns.
// When both columns are the same, the longitude is the value that remains.
func OutputRow(record table.Record, cols models.Columns, coords models.Coordinates) []string {
	out := make([]string, len(record.Fields))
	for i, field := range record.Fields {
		value := field
		if i == cols.Lat {
			value = coords.Latitude
		}
		if i == cols.Lng {
			value = coords.Longitude
		}
		out[i] = value
	}
	return out
}
