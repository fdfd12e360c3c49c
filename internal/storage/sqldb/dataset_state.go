package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"sales_report/internal/domain"
)

type DatasetStateStore struct {
	db *sqlx.DB
}

func NewDatasetStateStore(db *sqlx.DB) *DatasetStateStore {
	return &DatasetStateStore{db: db}
}

func (s *DatasetStateStore) Get(ctx context.Context, sourceID string) (*domain.DatasetState, error) {
	exec := GetExecutor(ctx, s.db)

	var state domain.DatasetState
	query := `
		SELECT source_id, last_loaded_at, record_count, total_loads
		FROM dataset_state
		WHERE source_id = ?`

	err := sqlx.GetContext(ctx, exec, &state, exec.Rebind(query), sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		// Return empty state for sources never loaded
		return &domain.DatasetState{SourceID: sourceID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *DatasetStateStore) Update(ctx context.Context, state *domain.DatasetState) error {
	exec := GetExecutor(ctx, s.db)

	query := `
		INSERT INTO dataset_state (source_id, last_loaded_at, record_count, total_loads)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source_id) DO UPDATE SET
			last_loaded_at = EXCLUDED.last_loaded_at,
			record_count = EXCLUDED.record_count,
			total_loads = EXCLUDED.total_loads`

	_, err := exec.ExecContext(ctx, exec.Rebind(query),
		state.SourceID,
		state.LastLoadedAt,
		state.RecordCount,
		state.TotalLoads,
	)
	if err != nil {
		return wrapDriverError("upsert dataset state", err)
	}
	return nil
}
