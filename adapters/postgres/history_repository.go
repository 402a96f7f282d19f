package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"statlens/domain/analysis"
	"statlens/domain/core"
	apperrors "statlens/internal/errors"
	"statlens/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// HistoryRepositoryImpl implements HistoryStore for PostgreSQL. BIGSERIAL
// ids give the monotonic, never-reused sequence the port requires.
type HistoryRepositoryImpl struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a PostgreSQL history store and ensures its
// schema exists.
func NewHistoryRepository(db *sqlx.DB) (ports.HistoryStore, error) {
	repo := &HistoryRepositoryImpl{db: db}
	if err := repo.initSchema(context.Background()); err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError,
			fmt.Errorf("initializing analysis_history schema: %w", err))
	}
	return repo, nil
}

func (r *HistoryRepositoryImpl) initSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_history (
			id BIGSERIAL PRIMARY KEY,
			executed_at TIMESTAMPTZ NOT NULL,
			test_id TEXT NOT NULL,
			test_name TEXT NOT NULL,
			input_columns JSONB NOT NULL,
			modifications JSONB,
			parameters JSONB NOT NULL,
			result JSONB NOT NULL
		)
	`)
	return err
}

// historyRow is the flat scan target for analysis_history.
type historyRow struct {
	ID            int64           `db:"id"`
	ExecutedAt    time.Time       `db:"executed_at"`
	TestID        string          `db:"test_id"`
	TestName      string          `db:"test_name"`
	InputColumns  json.RawMessage `db:"input_columns"`
	Modifications json.RawMessage `db:"modifications"`
	Parameters    json.RawMessage `db:"parameters"`
	Result        json.RawMessage `db:"result"`
}

func (row *historyRow) toRecord() (*analysis.Record, error) {
	record := &analysis.Record{
		ID:        core.RecordID(row.ID),
		Timestamp: core.NewTimestamp(row.ExecutedAt),
		TestID:    row.TestID,
		TestName:  row.TestName,
	}
	if err := json.Unmarshal(row.InputColumns, &record.InputColumns); err != nil {
		return nil, fmt.Errorf("decoding input columns of record %d: %w", row.ID, err)
	}
	if len(row.Modifications) > 0 {
		if err := json.Unmarshal(row.Modifications, &record.Modifications); err != nil {
			return nil, fmt.Errorf("decoding modifications of record %d: %w", row.ID, err)
		}
	}
	if err := json.Unmarshal(row.Parameters, &record.Parameters); err != nil {
		return nil, fmt.Errorf("decoding parameters of record %d: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Result, &record.Result); err != nil {
		return nil, fmt.Errorf("decoding result of record %d: %w", row.ID, err)
	}
	return record, nil
}

func (r *HistoryRepositoryImpl) Append(ctx context.Context, record analysis.Record) (core.RecordID, error) {
	inputColumns, err := json.Marshal(record.InputColumns)
	if err != nil {
		return 0, err
	}
	modifications, err := json.Marshal(record.Modifications)
	if err != nil {
		return 0, err
	}
	parameters, err := json.Marshal(record.Parameters)
	if err != nil {
		return 0, err
	}
	result, err := json.Marshal(record.Result)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO analysis_history (executed_at, test_id, test_name, input_columns, modifications, parameters, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, record.Timestamp.Time(), record.TestID, record.TestName, inputColumns, modifications, parameters, result).Scan(&id)
	if err != nil {
		return 0, err
	}
	return core.RecordID(id), nil
}

func (r *HistoryRepositoryImpl) List(ctx context.Context, page, pageSize int) (*ports.HistoryPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1, got %d", page)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("page size must be >= 1, got %d", pageSize)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM analysis_history`); err != nil {
		return nil, err
	}

	var rows []historyRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, executed_at, test_id, test_name, input_columns, modifications, parameters, result
		FROM analysis_history
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	records := make([]analysis.Record, 0, len(rows))
	for i := range rows {
		record, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	return &ports.HistoryPage{
		Records:      records,
		Page:         page,
		PageSize:     pageSize,
		TotalRecords: total,
		TotalPages:   (total + pageSize - 1) / pageSize,
	}, nil
}

func (r *HistoryRepositoryImpl) Get(ctx context.Context, id core.RecordID) (*analysis.Record, error) {
	var row historyRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, executed_at, test_id, test_name, input_columns, modifications, parameters, result
		FROM analysis_history
		WHERE id = $1
	`, int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", core.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return row.toRecord()
}

func (r *HistoryRepositoryImpl) Delete(ctx context.Context, ids ...core.RecordID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	// Missing ids simply match nothing; delete stays idempotent.
	_, err := r.db.ExecContext(ctx, `DELETE FROM analysis_history WHERE id = ANY($1)`, pq.Array(raw))
	return err
}

var _ ports.HistoryStore = (*HistoryRepositoryImpl)(nil)
