package history

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"statlens/domain/analysis"
	"statlens/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(testID string) analysis.Record {
	return analysis.Record{
		Timestamp:    core.Now(),
		TestID:       testID,
		TestName:     "Test " + testID,
		InputColumns: []core.ColumnName{"x"},
		Parameters: analysis.Params{
			Columns:         map[analysis.Role]core.ColumnName{analysis.RoleTarget: "x"},
			ConfidenceLevel: 0.95,
		},
		Result: analysis.TestResult{
			Statistic:       2.5,
			PValue:          0.0197,
			ConfidenceLevel: 0.95,
			Significant:     true,
			Conclusion:      "differs",
		},
	}
}

func TestMemoryStore_AppendAssignsMonotonicIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		id, err := store.Append(ctx, testRecord("one_sample_t"))
		require.NoError(t, err)
		assert.Equal(t, core.RecordID(i), id)
	}
}

// Deleting records 3 and 7 of 10 leaves 8, and a fresh append gets an id
// greater than every id ever issued.
func TestMemoryStore_IDsSurviveDeletion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := store.Append(ctx, testRecord("one_sample_t"))
		require.NoError(t, err)
	}
	require.NoError(t, store.Delete(ctx, 3, 7))

	page, err := store.List(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 8, page.TotalRecords)

	id, err := store.Append(ctx, testRecord("two_sample_t"))
	require.NoError(t, err)
	assert.Equal(t, core.RecordID(11), id)

	_, err = store.Get(ctx, 3)
	assert.ErrorIs(t, err, core.ErrRecordNotFound)
}

func TestMemoryStore_DeleteIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Append(ctx, testRecord("paired_t"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))
	require.NoError(t, store.Delete(ctx, id, 999))

	page, err := store.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalRecords)
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Append(ctx, testRecord(fmt.Sprintf("test_%d", i)))
		require.NoError(t, err)
	}

	page, err := store.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 5)
	for i := 1; i < len(page.Records); i++ {
		assert.Greater(t, page.Records[i-1].ID, page.Records[i].ID)
	}
	assert.Equal(t, "test_4", page.Records[0].TestID)
}

func TestMemoryStore_Pagination(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := store.Append(ctx, testRecord("one_sample_t"))
		require.NoError(t, err)
	}

	page1, err := store.List(ctx, 1, 3)
	require.NoError(t, err)
	assert.Len(t, page1.Records, 3)
	assert.Equal(t, 7, page1.TotalRecords)
	assert.Equal(t, 3, page1.TotalPages)
	assert.Equal(t, core.RecordID(7), page1.Records[0].ID)

	page3, err := store.List(ctx, 3, 3)
	require.NoError(t, err)
	assert.Len(t, page3.Records, 1)
	assert.Equal(t, core.RecordID(1), page3.Records[0].ID)

	// A page past the end is empty but not nil, so the API serializes
	// "records": [] rather than null.
	beyond, err := store.List(ctx, 4, 3)
	require.NoError(t, err)
	require.NotNil(t, beyond.Records)
	assert.Empty(t, beyond.Records)
	raw, err := json.Marshal(beyond)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"records":[]`)

	_, err = store.List(ctx, 0, 3)
	assert.Error(t, err)
}

func TestMemoryStore_GetRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record := testRecord("pearson_correlation")
	id, err := store.Append(ctx, record)
	require.NoError(t, err)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, record.TestID, got.TestID)
	assert.Equal(t, record.Result, got.Result)
	assert.Equal(t, record.Parameters, got.Parameters)
}
