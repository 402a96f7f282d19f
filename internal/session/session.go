package session

import (
	"context"
	"fmt"
	"sync"

	"statlens/adapters/tabular"
	"statlens/domain/analysis"
	"statlens/domain/core"
	"statlens/domain/profile"
	domainrecommend "statlens/domain/recommend"
	"statlens/domain/table"
	"statlens/internal"
	"statlens/internal/config"
	"statlens/internal/profiling"
	"statlens/internal/recommend"
	"statlens/internal/stattest"
	"statlens/ports"
)

// Session owns one active dataset and every engine that works on it. The
// table is versioned: any mutation swaps in a new snapshot id and
// recomputes classifications, profiles and the summary wholesale, so
// readers never observe a half-updated view.
type Session struct {
	mu sync.RWMutex

	id          core.SessionID
	logger      *internal.Logger
	classifier  *tabular.Classifier
	profiler    *profiling.Profiler
	recommender *recommend.Engine
	executor    *stattest.Executor
	history     ports.HistoryStore

	snapshotID    core.SnapshotID
	tbl           *table.Table
	classes       map[core.ColumnName]tabular.Classification
	profiles      []profile.ColumnProfile
	summary       profile.DatasetSummary
	modifications []string
	selectedTest  string
	lastCompleted *domainrecommend.CompletedAnalysis
}

// New wires a session from configuration and a history store.
func New(cfg *config.Config, history ports.HistoryStore, logger *internal.Logger) *Session {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Session{
		id:          core.SessionID(core.NewID()),
		logger:      logger,
		classifier:  tabular.NewClassifier(cfg.Classifier),
		profiler:    profiling.NewProfiler(cfg.Profiler),
		recommender: recommend.NewEngine(cfg.Recommend),
		executor:    stattest.NewExecutor(history, logger),
		history:     history,
	}
}

// Load replaces the active dataset wholesale and reprofiles it. The
// previous snapshot and its modification log are discarded.
func (s *Session) Load(t *table.Table) core.SnapshotID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tbl = t
	s.modifications = nil
	s.selectedTest = ""
	s.refreshLocked()
	s.logger.Info("session %s loaded dataset: %d rows, %d columns (snapshot %s)",
		s.id, t.RowCount(), t.ColumnCount(), s.snapshotID)
	return s.snapshotID
}

// ID returns the stable identifier assigned when the session was created.
// It survives dataset replacement; snapshot ids do not.
func (s *Session) ID() core.SessionID {
	return s.id
}

// refreshLocked recomputes the derived state for the current table.
// Callers hold the write lock.
func (s *Session) refreshLocked() {
	s.snapshotID = core.SnapshotID(core.NewID())
	s.classes = s.classifier.ClassifyTable(s.tbl)
	s.profiles = s.profiler.ProfileTable(s.tbl, s.classes)
	s.summary = profiling.Summarize(s.tbl, s.profiles)
}

// SnapshotID returns the id of the current dataset version.
func (s *Session) SnapshotID() core.SnapshotID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotID
}

// HasDataset reports whether a table has been loaded.
func (s *Session) HasDataset() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tbl != nil
}

// Table returns the current snapshot. The table is immutable; callers may
// hold it across mutations and keep a consistent view.
func (s *Session) Table() (*table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tbl == nil {
		return nil, fmt.Errorf("%w: no dataset loaded", core.ErrSnapshotNotFound)
	}
	return s.tbl, nil
}

// Profiles returns the cached per-column profiles of the current snapshot.
func (s *Session) Profiles() ([]profile.ColumnProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tbl == nil {
		return nil, fmt.Errorf("%w: no dataset loaded", core.ErrSnapshotNotFound)
	}
	out := make([]profile.ColumnProfile, len(s.profiles))
	copy(out, s.profiles)
	return out, nil
}

// Summary returns the cached dataset-level summary.
func (s *Session) Summary() (profile.DatasetSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tbl == nil {
		return profile.DatasetSummary{}, fmt.Errorf("%w: no dataset loaded", core.ErrSnapshotNotFound)
	}
	return s.summary, nil
}

// DeleteColumns removes columns by selection spec (names, 1-based indices
// or ranges) and issues a new snapshot. The removal is appended to the
// modification log carried into later analysis records.
func (s *Session) DeleteColumns(spec string) (core.SnapshotID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tbl == nil {
		return "", fmt.Errorf("%w: no dataset loaded", core.ErrSnapshotNotFound)
	}

	names, err := ResolveColumnSpec(s.tbl, spec)
	if err != nil {
		return "", err
	}
	next, err := s.tbl.WithoutColumns(names...)
	if err != nil {
		return "", err
	}

	s.tbl = next
	s.modifications = append(s.modifications, fmt.Sprintf("deleted columns: %s", joinNames(names)))
	s.refreshLocked()
	s.logger.Info("deleted %d columns (snapshot %s)", len(names), s.snapshotID)
	return s.snapshotID, nil
}

// ListTests returns the catalog with per-test eligibility against the
// current profiles.
func (s *Session) ListTests() ([]analysis.ListedTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tbl == nil {
		return nil, fmt.Errorf("%w: no dataset loaded", core.ErrSnapshotNotFound)
	}
	return stattest.ListForProfiles(s.profiles), nil
}

// SelectTest marks a catalog test as in progress; the recommendation
// engine surfaces it as a next-steps card. Empty id clears the selection.
func (s *Session) SelectTest(testID string) error {
	if testID != "" {
		if _, ok := stattest.Lookup(testID); !ok {
			return fmt.Errorf("%w: %s", core.ErrTestNotFound, testID)
		}
	}
	s.mu.Lock()
	s.selectedTest = testID
	s.mu.Unlock()
	return nil
}

// Recommendations regenerates the recommendation list for the current
// snapshot and history context. Ephemeral: nothing is persisted.
func (s *Session) Recommendations() ([]domainrecommend.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tbl == nil {
		return nil, fmt.Errorf("%w: no dataset loaded", core.ErrSnapshotNotFound)
	}
	history := domainrecommend.HistoryContext{
		LastCompleted: s.lastCompleted,
		SelectedTest:  s.selectedTest,
	}
	return s.recommender.Recommend(s.summary, s.profiles, history), nil
}

// RunTest executes one catalog test against the current snapshot and
// records the outcome. Executions are serialized: the write lock holds for
// the whole run, so concurrent calls queue rather than interleave.
func (s *Session) RunTest(ctx context.Context, testID string, params analysis.Params) (*analysis.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tbl == nil {
		return nil, fmt.Errorf("%w: no dataset loaded", core.ErrSnapshotNotFound)
	}

	modifications := make([]string, len(s.modifications))
	copy(modifications, s.modifications)

	record, err := s.executor.Run(ctx, s.tbl, s.profiles, testID, params, modifications)
	if err != nil {
		return nil, err
	}

	s.lastCompleted = &domainrecommend.CompletedAnalysis{
		TestID:      record.TestID,
		TestName:    record.TestName,
		CompletedAt: record.Timestamp,
	}
	if s.selectedTest == testID {
		s.selectedTest = ""
	}
	return record, nil
}

// History exposes the backing store for listing and deletion endpoints.
func (s *Session) History() ports.HistoryStore {
	return s.history
}

func joinNames(names []core.ColumnName) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += string(n)
	}
	return out
}
