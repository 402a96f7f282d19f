package stattest

import (
	"context"
	"errors"
	"testing"

	"statlens/domain/analysis"
	"statlens/domain/core"
	"statlens/domain/profile"
	"statlens/domain/table"
	"statlens/internal/history"
	"statlens/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executorFixture(t *testing.T) (*Executor, *history.MemoryStore, *table.Table, []profile.ColumnProfile) {
	t.Helper()
	rows := [][]string{
		{"1.5", "a", "note one"},
		{"2.5", "b", "note two"},
		{"3.5", "a", "note three"},
		{"4.5", "b", "note four"},
		{"5.5", "a", "note five"},
	}
	tbl, err := table.NewTable([]string{"score", "grp", "notes"}, rows)
	require.NoError(t, err)

	profiles := []profile.ColumnProfile{
		{Name: "score", SemanticType: table.TypeNumeric, RowCount: 5},
		{Name: "grp", SemanticType: table.TypeCategorical, RowCount: 5},
		{Name: "notes", SemanticType: table.TypeText, RowCount: 5, Unusable: true},
	}

	store := history.NewMemoryStore()
	return NewExecutor(store, nil), store, tbl, profiles
}

func TestExecutor_CompletedRunIsPersistedOnce(t *testing.T) {
	exec, store, tbl, profiles := executorFixture(t)
	ctx := context.Background()

	params := analysis.Params{
		Columns:         map[analysis.Role]core.ColumnName{analysis.RoleTarget: "score"},
		HypothesisValue: 3,
		ConfidenceLevel: 0.95,
	}
	record, err := exec.Run(ctx, tbl, profiles, TestOneSampleT, params, []string{"deleted columns: id"})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, core.RecordID(1), record.ID)
	assert.Equal(t, "One-sample t-test", record.TestName)
	assert.Equal(t, []core.ColumnName{"score"}, record.InputColumns)
	assert.Equal(t, []string{"deleted columns: id"}, record.Modifications)

	page, err := store.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalRecords)

	stored, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Result, stored.Result)
	assert.Equal(t, record.Parameters, stored.Parameters)
}

func TestExecutor_RejectionNeverRunsOrPersists(t *testing.T) {
	exec, store, tbl, profiles := executorFixture(t)
	ctx := context.Background()

	params := analysis.Params{
		Columns:         map[analysis.Role]core.ColumnName{analysis.RoleTarget: "notes"},
		ConfidenceLevel: 0.95,
	}
	record, err := exec.Run(ctx, tbl, profiles, TestOneSampleT, params, nil)
	assert.Nil(t, record)

	var rejection *analysis.Rejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, TestOneSampleT, rejection.TestID)
	assert.NotEmpty(t, rejection.Reasons)
	assert.True(t, core.IsRequirementsError(err))

	page, err := store.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalRecords)
}

func TestExecutor_RejectionCollectsAllReasons(t *testing.T) {
	exec, _, tbl, profiles := executorFixture(t)

	params := analysis.Params{
		Columns: map[analysis.Role]core.ColumnName{
			analysis.RoleTarget: "missing_col",
		},
		ConfidenceLevel: 1.5,
	}
	_, err := exec.Run(context.Background(), tbl, profiles, TestTwoSampleT, params, nil)

	var rejection *analysis.Rejection
	require.ErrorAs(t, err, &rejection)
	// Bad confidence, unknown column and an unassigned group role.
	assert.GreaterOrEqual(t, len(rejection.Reasons), 3)
}

// A column whose profiling fell back to the skeleton has no statistics to
// validate against, so it cannot be bound to a role.
func TestExecutor_ProfileErrorColumnIsRejected(t *testing.T) {
	exec, store, tbl, profiles := executorFixture(t)
	profiles[0].ProfileError = "profiling failed: stats backend exploded"

	params := analysis.Params{
		Columns:         map[analysis.Role]core.ColumnName{analysis.RoleTarget: "score"},
		HypothesisValue: 3,
		ConfidenceLevel: 0.95,
	}
	record, err := exec.Run(context.Background(), tbl, profiles, TestOneSampleT, params, nil)
	assert.Nil(t, record)

	var rejection *analysis.Rejection
	require.ErrorAs(t, err, &rejection)
	assert.Contains(t, rejection.Reasons[0], "statistic undefined")

	page, err := store.List(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalRecords)
}

func TestExecutor_SameColumnTwiceIsRejected(t *testing.T) {
	exec, _, tbl, profiles := executorFixture(t)

	params := analysis.Params{
		Columns: map[analysis.Role]core.ColumnName{
			analysis.RoleTarget: "score",
			analysis.RoleSecond: "score",
		},
		ConfidenceLevel: 0.95,
	}
	_, err := exec.Run(context.Background(), tbl, profiles, TestPearson, params, nil)
	assert.True(t, core.IsRequirementsError(err))
}

func TestExecutor_UnknownTest(t *testing.T) {
	exec, _, tbl, profiles := executorFixture(t)
	_, err := exec.Run(context.Background(), tbl, profiles, "mann_whitney", analysis.Params{ConfidenceLevel: 0.95}, nil)
	assert.ErrorIs(t, err, core.ErrTestNotFound)
}

// failingStore simulates a broken persistence layer.
type failingStore struct {
	ports.HistoryStore
}

func (f *failingStore) Append(ctx context.Context, record analysis.Record) (core.RecordID, error) {
	return 0, errors.New("disk full")
}

func TestExecutor_PersistenceFailureDiscardsResult(t *testing.T) {
	_, _, tbl, profiles := executorFixture(t)
	exec := NewExecutor(&failingStore{}, nil)

	params := analysis.Params{
		Columns:         map[analysis.Role]core.ColumnName{analysis.RoleTarget: "score"},
		HypothesisValue: 3,
		ConfidenceLevel: 0.95,
	}
	record, err := exec.Run(context.Background(), tbl, profiles, TestOneSampleT, params, nil)
	assert.Nil(t, record)
	assert.True(t, core.IsPersistenceError(err))
}
