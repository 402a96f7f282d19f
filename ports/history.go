package ports

import (
	"context"

	"statlens/domain/analysis"
	"statlens/domain/core"
)

// HistoryPage is one page of an analysis listing, newest records first.
type HistoryPage struct {
	Records      []analysis.Record `json:"records"`
	Page         int               `json:"page"`
	PageSize     int               `json:"page_size"`
	TotalRecords int               `json:"total_records"`
	TotalPages   int               `json:"total_pages"`
}

// HistoryStore persists executed analyses independently of the live
// dataset. Implementations must assign unique, monotonically increasing
// record ids that survive deletions, and treat deletion of missing ids as
// a no-op.
type HistoryStore interface {
	// Append persists a record and returns its assigned id.
	Append(ctx context.Context, record analysis.Record) (core.RecordID, error)

	// List returns records newest-first. Pages are 1-based.
	List(ctx context.Context, page, pageSize int) (*HistoryPage, error)

	// Get retrieves one full record, including the parameter and result
	// payloads. Returns core.ErrRecordNotFound when absent.
	Get(ctx context.Context, id core.RecordID) (*analysis.Record, error)

	// Delete removes the given records. Idempotent: missing ids are
	// skipped silently.
	Delete(ctx context.Context, ids ...core.RecordID) error
}
