package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"statlens/domain/table"
	"statlens/internal/config"
	"statlens/internal/history"
	"statlens/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tbl, err := table.NewTable(
		[]string{"score", "grp"},
		[][]string{
			{"1.5", "a"}, {"2.5", "b"}, {"3.5", "a"},
			{"4.5", "b"}, {"5.5", "a"}, {"6.5", "b"},
		},
	)
	require.NoError(t, err)

	cfg := &config.Config{
		Classifier: config.DefaultClassifierConfig(),
		Profiler:   config.DefaultProfilerConfig(),
		Recommend:  config.DefaultRecommendConfig(),
	}
	sess := session.New(cfg, history.NewMemoryStore(), nil)
	sess.Load(tbl)
	return NewServer(sess, nil)
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestServer_ProfileEndpoint(t *testing.T) {
	server := testServer(t)
	w := doJSON(t, server, http.MethodGet, "/api/dataset/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		SnapshotID string `json:"snapshot_id"`
		Columns    []struct {
			Name         string `json:"name"`
			SemanticType string `json:"semantic_type"`
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.SnapshotID)
	require.Len(t, body.Columns, 2)
	assert.Equal(t, "numeric", body.Columns[0].SemanticType)
	assert.Equal(t, "categorical", body.Columns[1].SemanticType)
}

func TestServer_RunTestAndHistory(t *testing.T) {
	server := testServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/tests/two_sample_t/run", map[string]interface{}{
		"columns":          map[string]string{"target": "score", "group": "grp"},
		"confidence_level": 0.95,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var runBody struct {
		Record struct {
			ID     int64 `json:"id"`
			Result struct {
				PValue float64 `json:"p_value"`
			} `json:"result"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runBody))
	assert.Equal(t, int64(1), runBody.Record.ID)

	w = doJSON(t, server, http.MethodGet, "/api/history?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listBody struct {
		TotalRecords int `json:"total_records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listBody))
	assert.Equal(t, 1, listBody.TotalRecords)

	w = doJSON(t, server, http.MethodPost, "/api/history/delete", map[string]interface{}{
		"ids": []int64{1},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/history/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_RejectionReturns422WithReasons(t *testing.T) {
	server := testServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/tests/one_sample_t/run", map[string]interface{}{
		"columns":          map[string]string{"target": "grp"},
		"confidence_level": 0.95,
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error   string   `json:"error"`
		Reasons []string `json:"reasons"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "REQUIREMENTS_NOT_MET", body.Error)
	assert.NotEmpty(t, body.Reasons)
}

// Pinning a run to a snapshot id protects clients from racing a dataset
// replacement: a stale id gets 409, the current one runs.
func TestServer_SnapshotPinning(t *testing.T) {
	server := testServer(t)

	body := map[string]interface{}{
		"columns":          map[string]string{"target": "score", "group": "grp"},
		"confidence_level": 0.95,
		"snapshot_id":      "stale-snapshot",
	}
	w := doJSON(t, server, http.MethodPost, "/api/tests/two_sample_t/run", body)
	require.Equal(t, http.StatusConflict, w.Code)

	var conflict struct {
		Error           string `json:"error"`
		CurrentSnapshot string `json:"current_snapshot"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conflict))
	assert.Equal(t, "SNAPSHOT_CONFLICT", conflict.Error)
	require.NotEmpty(t, conflict.CurrentSnapshot)

	body["snapshot_id"] = conflict.CurrentSnapshot
	w = doJSON(t, server, http.MethodPost, "/api/tests/two_sample_t/run", body)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestServer_BlankColumnNameIs400(t *testing.T) {
	server := testServer(t)
	w := doJSON(t, server, http.MethodPost, "/api/tests/one_sample_t/run", map[string]interface{}{
		"columns":          map[string]string{"target": "   "},
		"confidence_level": 0.95,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_UnknownTestIs404(t *testing.T) {
	server := testServer(t)
	w := doJSON(t, server, http.MethodPost, "/api/tests/mann_whitney/run", map[string]interface{}{
		"columns":          map[string]string{"target": "score"},
		"confidence_level": 0.95,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_DeleteColumns(t *testing.T) {
	server := testServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/dataset/columns/delete", map[string]interface{}{
		"columns": "grp",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/dataset/profile", nil)
	var body struct {
		Columns []json.RawMessage `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Columns, 1)
}
