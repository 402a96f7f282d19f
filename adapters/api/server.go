package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"statlens/adapters/tabular"
	"statlens/domain/analysis"
	"statlens/domain/core"
	"statlens/internal"
	apperrors "statlens/internal/errors"
	"statlens/internal/session"
	"statlens/internal/stattest"

	"github.com/gin-gonic/gin"
)

// Server is the JSON API over one dataset session.
type Server struct {
	router  *gin.Engine
	session *session.Session
	logger  *internal.Logger
}

// NewServer creates the API server and registers its routes.
func NewServer(sess *session.Session, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:  gin.Default(),
		session: sess,
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	api.POST("/dataset", s.handleUpload)
	api.GET("/dataset/summary", s.handleSummary)
	api.GET("/dataset/profile", s.handleProfile)
	api.POST("/dataset/columns/delete", s.handleDeleteColumns)

	api.GET("/tests", s.handleListTests)
	api.POST("/tests/select", s.handleSelectTest)
	api.POST("/tests/:id/run", s.handleRunTest)

	api.GET("/recommendations", s.handleRecommendations)

	api.GET("/history", s.handleHistoryList)
	api.GET("/history/:id", s.handleHistoryGet)
	api.POST("/history/delete", s.handleHistoryDelete)
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start(addr string) error {
	s.logger.Info("API listening on %s", addr)
	return s.router.Run(addr)
}

// handleUpload ingests an uploaded CSV/Excel file as the new active
// dataset, replacing the previous one wholesale.
func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, apperrors.InvalidInput("multipart field 'file' is required"))
		return
	}

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		s.respondError(c, apperrors.InternalError("creating temp file failed"))
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		s.respondError(c, apperrors.ReadFailure(fileHeader.Filename, err))
		return
	}

	tbl, err := tabular.NewDataReader(tmpPath).Read()
	if err != nil {
		s.respondError(c, apperrors.ReadFailure(fileHeader.Filename, err))
		return
	}

	snapshotID := s.session.Load(tbl)
	c.JSON(http.StatusOK, gin.H{
		"snapshot_id":  snapshotID,
		"row_count":    tbl.RowCount(),
		"column_count": tbl.ColumnCount(),
		"columns":      tbl.ColumnNames(),
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	summary, err := s.session.Summary()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot_id": s.session.SnapshotID(),
		"summary":     summary,
	})
}

func (s *Server) handleProfile(c *gin.Context) {
	profiles, err := s.session.Profiles()
	if err != nil {
		s.respondError(c, err)
		return
	}
	summary, err := s.session.Summary()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot_id": s.session.SnapshotID(),
		"summary":     summary,
		"columns":     profiles,
	})
}

type deleteColumnsRequest struct {
	// Columns is a selection spec: names, 1-based indices or ranges,
	// comma-separated ("Age, 3, 5-7").
	Columns string `json:"columns" binding:"required"`
}

func (s *Server) handleDeleteColumns(c *gin.Context) {
	var req deleteColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput("body requires 'columns' selection"))
		return
	}
	snapshotID, err := s.session.DeleteColumns(req.Columns)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot_id": snapshotID})
}

func (s *Server) handleListTests(c *gin.Context) {
	listed, err := s.session.ListTests()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tests": listed})
}

type selectTestRequest struct {
	TestID string `json:"test_id"`
}

func (s *Server) handleSelectTest(c *gin.Context) {
	var req selectTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput("body requires 'test_id'"))
		return
	}
	if err := s.session.SelectTest(req.TestID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": req.TestID})
}

type runTestRequest struct {
	Columns         map[string]string `json:"columns" binding:"required"`
	HypothesisValue float64           `json:"hypothesis_value"`
	ConfidenceLevel float64           `json:"confidence_level" binding:"required"`
	// SnapshotID, when set, pins the run to a dataset version: a mismatch
	// means the dataset changed after the client last looked at it.
	SnapshotID string `json:"snapshot_id"`
}

func (s *Server) handleRunTest(c *gin.Context) {
	testID := c.Param("id")
	if _, ok := stattest.Lookup(testID); !ok {
		s.respondError(c, apperrors.NotFound("test "+testID))
		return
	}

	var req runTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput("body requires 'columns' and 'confidence_level'"))
		return
	}

	if req.SnapshotID != "" {
		snap, err := core.ParseSnapshotID(req.SnapshotID)
		if err != nil {
			s.respondError(c, apperrors.InvalidInput(err.Error()))
			return
		}
		if current := s.session.SnapshotID(); snap != current {
			c.JSON(http.StatusConflict, gin.H{
				"error":            apperrors.CodeSnapshotConflict,
				"message":          "dataset changed since the given snapshot",
				"current_snapshot": current,
			})
			return
		}
	}

	params := analysis.Params{
		Columns:         make(map[analysis.Role]core.ColumnName, len(req.Columns)),
		HypothesisValue: req.HypothesisValue,
		ConfidenceLevel: req.ConfidenceLevel,
	}
	for role, column := range req.Columns {
		name, err := core.ParseColumnName(column)
		if err != nil {
			s.respondError(c, apperrors.InvalidInput(fmt.Sprintf("role %q: %v", role, err)))
			return
		}
		params.Columns[analysis.Role(role)] = name
	}

	record, err := s.session.RunTest(c.Request.Context(), testID, params)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": record})
}

func (s *Server) handleRecommendations(c *gin.Context) {
	items, err := s.session.Recommendations()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot_id":     s.session.SnapshotID(),
		"recommendations": items,
	})
}

func (s *Server) handleHistoryList(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	result, err := s.session.History().List(c.Request.Context(), page, pageSize)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHistoryGet(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.respondError(c, apperrors.InvalidInput("record id must be an integer"))
		return
	}
	record, err := s.session.History().Get(c.Request.Context(), core.RecordID(id))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": record})
}

type historyDeleteRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

func (s *Server) handleHistoryDelete(c *gin.Context) {
	var req historyDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput("body requires 'ids'"))
		return
	}
	ids := make([]core.RecordID, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = core.RecordID(id)
	}
	if err := s.session.History().Delete(c.Request.Context(), ids...); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": len(ids)})
}

// respondError maps domain errors onto HTTP statuses and a uniform error
// body. Rejections carry their full reason list.
func (s *Server) respondError(c *gin.Context, err error) {
	var rejection *analysis.Rejection
	if errors.As(err, &rejection) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   apperrors.CodeRequirementsNotMet,
			"test_id": rejection.TestID,
			"reasons": rejection.Reasons,
		})
		return
	}

	status := http.StatusInternalServerError
	code := apperrors.GetCode(err)
	switch {
	case core.IsNotFoundError(err), code == apperrors.CodeNotFound:
		status = http.StatusNotFound
		code = apperrors.CodeNotFound
	case core.IsRequirementsError(err):
		status = http.StatusUnprocessableEntity
		code = apperrors.CodeRequirementsNotMet
	case core.IsExecutionError(err):
		status = http.StatusUnprocessableEntity
		code = apperrors.CodeExecutionFailure
	case core.IsPersistenceError(err):
		status = http.StatusInternalServerError
		code = apperrors.CodePersistenceFailure
	case code == apperrors.CodeInvalidInput, code == apperrors.CodeReadFailure:
		status = http.StatusBadRequest
	}

	// Untyped errors falling through to 500 log at error level.
	if status >= http.StatusInternalServerError && !apperrors.IsAppError(err) {
		s.logger.Error("request failed: %v", err)
	} else {
		s.logger.Warn("request failed: %v", err)
	}
	c.JSON(status, gin.H{
		"error":   code,
		"message": err.Error(),
	})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
