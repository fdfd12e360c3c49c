package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sales_report/internal/domain"
)

// IngestService replaces the stored dataset with a fresh snapshot of the source.
type IngestService struct {
	source    Source
	sales     SaleStore
	state     DatasetStateStore
	txManager TransactionManager
	publisher Publisher
	logger    *zap.Logger

	// mu serializes Initialize calls.
	mu sync.Mutex
}

func NewIngestService(
	source Source,
	sales SaleStore,
	state DatasetStateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		source:    source,
		sales:     sales,
		state:     state,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With(zap.String("source", source.ID())),
	}
}

// Initialize fetches the source and swaps the stored dataset for it in one transaction.
// Fetch failures wrap domain.ErrSourceUnavailable and store failures wrap
// domain.ErrPersistence; in both cases the previous dataset is left as it was.
func (s *IngestService) Initialize(ctx context.Context) (*domain.IngestStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startTime := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))

	logger.Info("starting dataset load", zap.String("source_name", s.source.Name()))

	snapshot, err := s.source.FetchSales(ctx)
	if err != nil {
		logger.Error("fetch sales failed", zap.Error(err))
		return nil, fmt.Errorf("fetch sales: %w", err)
	}

	if len(snapshot.Sales) == 0 {
		logger.Warn("source returned no usable sales", zap.Int("received", snapshot.Received))
	}

	stats := &domain.IngestStats{
		RunID:    runID,
		SourceID: s.source.ID(),
		Fetched:  snapshot.Received,
		Stored:   len(snapshot.Sales),
		Skipped:  snapshot.Received - len(snapshot.Sales),
	}

	loadedAt := time.Now().UTC()
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.sales.ReplaceAll(txCtx, snapshot.Sales); err != nil {
			return fmt.Errorf("replace sales: %w", err)
		}
		return s.updateDatasetState(txCtx, loadedAt, len(snapshot.Sales))
	})
	if err != nil {
		logger.Error("store sales failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	if s.publisher != nil {
		event := domain.DatasetReplaced{
			RunID:     runID,
			SourceID:  s.source.ID(),
			Records:   stats.Stored,
			Timestamp: loadedAt,
		}
		if err := s.publisher.PublishDatasetReplaced(ctx, event); err != nil {
			logger.Error("publish dataset event failed", zap.Error(err))
		}
	}

	stats.Duration = time.Since(startTime)

	logger.Info("dataset load completed",
		zap.Int("fetched", stats.Fetched),
		zap.Int("stored", stats.Stored),
		zap.Int("skipped", stats.Skipped),
		zap.Duration("duration", stats.Duration),
	)

	return stats, nil
}

// Status reports the last successful load of the configured source.
func (s *IngestService) Status(ctx context.Context) (*domain.DatasetState, error) {
	state, err := s.state.Get(ctx, s.source.ID())
	if err != nil {
		return nil, fmt.Errorf("get dataset state: %w", err)
	}
	return state, nil
}

func (s *IngestService) updateDatasetState(ctx context.Context, loadedAt time.Time, records int) error {
	state, err := s.state.Get(ctx, s.source.ID())
	if err != nil {
		return fmt.Errorf("get dataset state: %w", err)
	}

	state.SourceID = s.source.ID()
	state.LastLoadedAt = loadedAt
	state.RecordCount = int64(records)
	state.TotalLoads++

	if err := s.state.Update(ctx, state); err != nil {
		return fmt.Errorf("update dataset state: %w", err)
	}
	return nil
}
