package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aqueduct-geo/geocoder/internal/geocoding"
	"github.com/aqueduct-geo/geocoder/internal/metrics"
	"github.com/aqueduct-geo/geocoder/internal/models"
)

// ErrNoWorkers is returned when the service is configured with a worker pool
// that cannot be created. This is the only batch-fatal condition; per-row
// failures never abort a batch.
var ErrNoWorkers = errors.New("worker pool size must be positive")

// BatchService coordinates bounded-concurrency dispatch of geocode lookups
// and order-preserving collection of their results.
type BatchService struct {
	log          *slog.Logger       // Logger for logging service activities
	provider     geocoding.Provider // Geocoding provider for external geocoding services
	providerName string             // Name of the provider for metrics labeling
	metrics      *metrics.Metrics   // Metrics for tracking service performance
	numWorkers   int                // Number of concurrent workers per batch
}

// job pairs a record with its slot in the output so that workers can write
// completions directly into place regardless of completion order.
type job struct {
	idx    int
	record models.AddressRecord
}

// NewBatchService creates a new instance of BatchService.
// It takes a logger, a geocoding provider, the provider name for metrics,
// metrics for monitoring, and the number of workers to use per batch.
func NewBatchService(
	log *slog.Logger,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
	numWorkers int,
) *BatchService {
	return &BatchService{
		log:          log,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
		numWorkers:   numWorkers,
	}
}

// Process resolves every record against the geocoding provider and returns
// one result per record, in the original input order. Records without a
// usable address are short-circuited without a network call. The call blocks
// until every record has a result; a slow or failing row never blocks or
// corrupts the others.
func (bs *BatchService) Process(ctx context.Context, records []models.AddressRecord) ([]models.GeocodeResult, error) {
	if bs.numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if len(records) == 0 {
		return []models.GeocodeResult{}, nil
	}

	bs.log.InfoContext(ctx, "Starting worker pool for batch", "rows", len(records), "num_workers", bs.numWorkers)
	bs.metrics.BatchRows.Observe(float64(len(records)))

	// Slot-indexed output: each worker writes only its own index, so the
	// collection needs no locking and completion order cannot reorder rows.
	results := make([]models.GeocodeResult, len(records))
	jobs := make(chan job, len(records))
	var wgr sync.WaitGroup

	for i := 1; i <= bs.numWorkers; i++ {
		wgr.Add(1)
		go bs.worker(ctx, i, &wgr, jobs, results)
	}

	for idx, record := range records {
		jobs <- job{idx: idx, record: record}
	}
	close(jobs)

	wgr.Wait()
	bs.log.InfoContext(ctx, "Processing batch finished", "rows", len(records))

	return results, nil
}

// worker consumes jobs and writes each completion into its slot. Rows with a
// blank address are materialized as unmatched results without touching the
// provider; everything else is dispatched and its outcome recorded whether it
// matched, missed, or failed.
func (bs *BatchService) worker(
	ctx context.Context,
	idx int,
	wg *sync.WaitGroup,
	jobs <-chan job,
	results []models.GeocodeResult,
) {
	defer wg.Done()
	for jb := range jobs {
		bs.metrics.ActiveWorkers.Inc()
		bs.log.DebugContext(ctx, "Processing row", "worker", idx, "row", jb.record.RowID)

		if !jb.record.HasAddress {
			results[jb.idx] = skippedResult(jb.record)
			bs.metrics.RowsProcessed.WithLabelValues("skipped").Inc()
			bs.metrics.ActiveWorkers.Dec()
			continue
		}

		startTime := time.Now()
		outcome := bs.provider.Resolve(ctx, jb.record.Address)
		duration := time.Since(startTime).Seconds()
		bs.metrics.RequestSeconds.WithLabelValues(bs.providerName).Observe(duration)

		if outcome.Failure != geocoding.FailureNone {
			bs.log.ErrorContext(
				ctx,
				"Failed to geocode row",
				"worker", idx,
				"row", jb.record.RowID,
				"status", outcome.Status,
			)
			bs.metrics.APIErrors.Inc()
		}

		if outcome.Matched {
			bs.metrics.RowsProcessed.WithLabelValues("matched").Inc()
			bs.log.DebugContext(ctx, "Worker successfully resolved the row", "worker", idx, "row", jb.record.RowID)
		} else {
			bs.metrics.RowsProcessed.WithLabelValues("unmatched").Inc()
		}

		results[jb.idx] = resolvedResult(jb.record, outcome)
		bs.metrics.ActiveWorkers.Dec()
	}
}

// skippedResult materializes the unmatched result for a row whose address
// value is not available.
func skippedResult(record models.AddressRecord) models.GeocodeResult {
	status := geocoding.StatusNoAddress
	return models.GeocodeResult{
		RowID:          record.RowID,
		ProviderStatus: &status,
	}
}

// resolvedResult converts a provider outcome into the row result, keeping
// the matched/unmatched field invariants of the data model.
func resolvedResult(record models.AddressRecord, outcome geocoding.Outcome) models.GeocodeResult {
	address := record.Address
	result := models.GeocodeResult{
		RowID:          record.RowID,
		InputAddress:   &address,
		Matched:        outcome.Matched,
		CandidateCount: outcome.CandidateCount,
	}

	if outcome.Status != "" {
		status := outcome.Status
		result.ProviderStatus = &status
	}

	if outcome.Matched {
		formatted := outcome.FormattedAddress
		lat := outcome.Latitude
		lng := outcome.Longitude
		result.FormattedAddress = &formatted
		result.Latitude = &lat
		result.Longitude = &lng
	}

	return result
}
