package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/remote-account-ledger/internal/domain/ledger"
)

// WorkerPoolArchiveService implements the ArchiveService interface
type WorkerPoolArchiveService struct {
	baseService ArchiveService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolArchiveService(
	baseService ArchiveService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolArchiveService, error) {
	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolArchiveService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ArchiveRecord submits a record to the worker pool for archival.
func (s *WorkerPoolArchiveService) ArchiveRecord(ctx context.Context, record *ledger.Record) error {
	logger := s.logger
	if record.CorrelationID != "" {
		logger = s.logger.With("correlation_id", record.CorrelationID)
	}

	logger.Info("Submitting record to worker pool",
		"record_id", record.RecordID.String(),
		"account_number", record.AccountNumber,
	)

	// Create a channel to receive the result of the archival
	resultChan := make(chan error, 1)

	// Store the result channel in the result map
	recordID := record.RecordID.String()
	s.mu.Lock()
	s.results[recordID] = resultChan
	s.mu.Unlock()

	// Create a copy of the record to avoid data races
	recordCopy := *record

	// Submit the task to the worker pool
	err := s.pool.Submit(func() {
		// Archive the record using the base service
		err := s.baseService.ArchiveRecord(ctx, &recordCopy)

		// Send the result to the channel
		resultChan <- err

		// Remove the result channel from the map
		s.mu.Lock()
		delete(s.results, recordID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		s.mu.Lock()
		delete(s.results, recordID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit record to worker pool",
			"record_id", record.RecordID.String(),
			"error", err,
		)
		return err
	}

	// Wait for the result from the worker
	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolArchiveService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolArchiveService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolArchiveService) Capacity() int {
	return s.pool.Cap()
}
