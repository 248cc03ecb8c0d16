package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/agedist/internal/config"
	"github.com/JonMunkholm/agedist/internal/logging"
	"github.com/JonMunkholm/agedist/internal/storage"
	"github.com/google/uuid"
)

// Report summarizes one pipeline run.
type Report struct {
	RunID        string          `json:"runId"`
	File         string          `json:"file"`
	Rows         int             `json:"rows"`
	Distribution AgeDistribution `json:"distribution"`
	DurationMS   int64           `json:"durationMs"`
}

// Service runs the import pipeline: parse, reshape, load, aggregate.
type Service struct {
	store      storage.Store
	loader     *Loader
	aggregator *Aggregator
	reshaper   Reshaper
	parseOpts  ParseOptions
	csvPath    string
	timeout    time.Duration
}

// NewService creates a Service over store. The store stays owned by the
// caller.
func NewService(store storage.Store, cfg config.ImportConfig) (*Service, error) {
	policy, err := ParseConflictPolicy(cfg.AddressConflict)
	if err != nil {
		return nil, fmt.Errorf("address conflict policy: %w", err)
	}

	return &Service{
		store:      store,
		loader:     NewLoader(store),
		aggregator: NewAggregator(store),
		reshaper:   Reshaper{Conflict: policy},
		parseOpts:  ParseOptions{RequiredHeaders: cfg.RequiredHeaders},
		csvPath:    cfg.CSVFilePath,
		timeout:    cfg.Timeout,
	}, nil
}

// CSVPath returns the configured source file.
func (s *Service) CSVPath() string {
	return s.csvPath
}

// Run imports the configured CSV file.
func (s *Service) Run(ctx context.Context) (Report, error) {
	return s.RunFile(ctx, s.csvPath)
}

// RunFile imports path and returns the resulting distribution over all
// persisted rows. Stage errors are returned unchanged: *FileReadError,
// *ParseError, *LoadError or *AggregateError.
func (s *Service) RunFile(ctx context.Context, path string) (Report, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	runID := uuid.New().String()
	logger := logging.WithFields(ctx, "run_id", runID, "file", path)
	start := time.Now()

	flats, err := ParseFile(path, s.parseOpts)
	if err != nil {
		logger.Warn("parse failed", "error", err)
		return Report{}, err
	}

	nested, err := s.reshaper.ReshapeAll(flats)
	if err != nil {
		logger.Warn("reshape failed", "error", err)
		return Report{}, err
	}
	logger.Debug("records reshaped", "records", len(nested))

	rows, err := s.loader.Load(ctx, nested)
	if err != nil {
		logger.Warn("load failed, transaction rolled back", "error", err)
		return Report{}, err
	}

	dist, err := s.aggregator.Aggregate(ctx)
	if err != nil {
		logger.Warn("aggregate failed", "error", err)
		return Report{}, err
	}

	elapsed := time.Since(start)
	logger.Info("import finished", "rows", rows, "duration_ms", elapsed.Milliseconds())

	return Report{
		RunID:        runID,
		File:         path,
		Rows:         rows,
		Distribution: dist,
		DurationMS:   elapsed.Milliseconds(),
	}, nil
}

// Distribution aggregates the persisted rows without importing anything.
func (s *Service) Distribution(ctx context.Context) (AgeDistribution, error) {
	return s.aggregator.Aggregate(ctx)
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
