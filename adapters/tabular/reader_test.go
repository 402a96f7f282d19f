package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"statlens/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDataReader_ReadCSV(t *testing.T) {
	path := writeTempCSV(t, "age,city\n34,Berlin\n28,Oslo\n")

	tbl, err := NewDataReader(path).Read()
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, 2, tbl.ColumnCount())
	assert.Equal(t, []core.ColumnName{"age", "city"}, tbl.ColumnNames())
}

func TestDataReader_HeaderOnlyIsInsufficientData(t *testing.T) {
	path := writeTempCSV(t, "age,city\n")

	_, err := NewDataReader(path).Read()
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestDataReader_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.csv")).Read()
	assert.Error(t, err)
}
