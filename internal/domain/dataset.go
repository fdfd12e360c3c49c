package domain

import "time"

// DatasetState tracks the last successful load of a source.
type DatasetState struct {
	SourceID     string    `json:"source_id" db:"source_id"`
	LastLoadedAt time.Time `json:"last_loaded_at" db:"last_loaded_at"`
	RecordCount  int64     `json:"record_count" db:"record_count"`
	TotalLoads   int64     `json:"total_loads" db:"total_loads"`
}

// IngestStats holds statistics about one dataset replacement.
type IngestStats struct {
	RunID    string
	SourceID string
	Fetched  int
	Stored   int
	Skipped  int
	Duration time.Duration
}

// DatasetReplaced is announced after a replacement commits.
type DatasetReplaced struct {
	RunID     string    `json:"run_id"`
	SourceID  string    `json:"source_id"`
	Records   int       `json:"records"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the decoded remote document. Received counts every item in the document,
// including the ones that could not be mapped to a Sale.
type Snapshot struct {
	Sales    []Sale
	Received int
}
