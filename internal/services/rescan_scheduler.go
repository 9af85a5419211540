package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"epw-insights/pkg/logging"
)

// RescanScheduler re-ingests a data directory on a cron schedule.
type RescanScheduler struct {
	cron      *cron.Cron
	ingestion *IngestionService
	logger    *logging.StructuredLogger
	dataDir   string
	runs      atomic.Int64
}

// NewRescanScheduler parses a standard five-field schedule. Overlapping runs
// are skipped rather than queued.
func NewRescanScheduler(schedule, dataDir string, ingestion *IngestionService, logger *logging.StructuredLogger) (*RescanScheduler, error) {
	s := &RescanScheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ingestion: ingestion,
		logger:    logger,
		dataDir:   dataDir,
	}
	if _, err := s.cron.AddFunc(schedule, s.Rescan); err != nil {
		return nil, fmt.Errorf("invalid rescan schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Rescan runs one directory ingestion. Failures are logged, never returned,
// since nothing waits on a scheduled run.
func (s *RescanScheduler) Rescan() {
	ctx := logging.WithRequestID(context.Background(), fmt.Sprintf("rescan-%d", s.runs.Add(1)))

	result, err := s.ingestion.IngestDirectory(ctx, s.dataDir)
	if err != nil {
		if errors.Is(err, ErrNoDataFiles) {
			s.logger.Warn(ctx, "[RESCAN_EMPTY] No data files found", logging.Fields{
				"data_dir": s.dataDir,
			})
			return
		}
		s.logger.Error(ctx, "[RESCAN_ERROR] Scheduled rescan failed", logging.Fields{
			"data_dir": s.dataDir,
		}, err)
		return
	}

	s.logger.Info(ctx, "[RESCAN_COMPLETE] Scheduled rescan finished", logging.Fields{
		"loaded_files": result.LoadedFiles,
		"failed_files": result.FailedFiles,
	})
}

// Runs reports how many rescans have started.
func (s *RescanScheduler) Runs() int64 {
	return s.runs.Load()
}

// Start begins running the schedule in its own goroutine.
func (s *RescanScheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and returns a context that is done once any
// in-flight rescan has finished.
func (s *RescanScheduler) Stop() context.Context {
	return s.cron.Stop()
}
