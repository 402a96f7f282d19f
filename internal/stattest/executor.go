package stattest

import (
	"context"
	"fmt"

	"statlens/domain/analysis"
	"statlens/domain/core"
	"statlens/domain/profile"
	"statlens/domain/table"
	"statlens/internal"
	"statlens/ports"
)

// computeFunc runs one catalog test against the dataset.
type computeFunc func(tbl *table.Table, params analysis.Params) (analysis.TestResult, error)

var computations = map[string]computeFunc{
	TestOneSampleT:  computeOneSampleT,
	TestTwoSampleT:  computeTwoSampleT,
	TestPairedT:     computePairedT,
	TestOneWayANOVA: computeOneWayANOVA,
	TestChiSquare:   computeChiSquare,
	TestPearson:     computePearson,
}

// Executor drives one test invocation through its lifecycle:
// selected -> validated -> running -> completed, or selected -> rejected.
// A rejected invocation never runs; a completed one is persisted exactly
// once. Persistence failure discards the result and surfaces an error, so
// the history never disagrees with what the caller saw.
type Executor struct {
	history ports.HistoryStore
	logger  *internal.Logger
}

// NewExecutor wires an executor to its history store.
func NewExecutor(history ports.HistoryStore, logger *internal.Logger) *Executor {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Executor{history: history, logger: logger}
}

// Invocation is the in-flight record of one execution attempt. State only
// moves forward.
type Invocation struct {
	TestID string
	Params analysis.Params
	State  analysis.InvocationState
}

// Run validates, executes and persists one test. On success the returned
// record carries the id assigned by the history store. Validation failures
// return *analysis.Rejection; computation failures wrap
// core.ErrExecutionFailure; persistence failures wrap
// core.ErrPersistenceFailure and no record is kept.
func (e *Executor) Run(ctx context.Context, tbl *table.Table, profiles []profile.ColumnProfile, testID string, params analysis.Params, modifications []string) (*analysis.Record, error) {
	inv := &Invocation{TestID: testID, Params: params, State: analysis.StateSelected}

	def, ok := Lookup(testID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTestNotFound, testID)
	}

	if reasons := e.validate(def, tbl, profiles, params); len(reasons) > 0 {
		inv.State = analysis.StateRejected
		e.logger.Info("test %s rejected: %v", testID, reasons)
		return nil, &analysis.Rejection{TestID: testID, Reasons: reasons}
	}
	inv.State = analysis.StateValidated

	compute := computations[testID]
	inv.State = analysis.StateRunning
	e.logger.Debug("running %s with columns %v", testID, params.Columns)
	result, err := compute(tbl, params)
	if err != nil {
		if core.IsExecutionError(err) {
			return nil, err
		}
		return nil, core.NewExecutionError(testID, err)
	}

	record := analysis.Record{
		Timestamp:     core.Now(),
		TestID:        def.ID,
		TestName:      def.Name,
		InputColumns:  inputColumns(def, params),
		Modifications: modifications,
		Parameters:    params,
		Result:        result,
	}

	id, err := e.history.Append(ctx, record)
	if err != nil {
		e.logger.Error("persisting %s result failed: %v", testID, err)
		return nil, core.NewPersistenceError(err)
	}
	record.ID = id
	inv.State = analysis.StateCompleted
	e.logger.Info("completed %s (record %d, p=%.4f)", testID, id, result.PValue)
	return &record, nil
}

// validate collects every requirements violation rather than stopping at
// the first, so a rejection names all problems at once.
func (e *Executor) validate(def analysis.TestDefinition, tbl *table.Table, profiles []profile.ColumnProfile, params analysis.Params) []string {
	var reasons []string

	if params.ConfidenceLevel <= 0 || params.ConfidenceLevel >= 1 {
		reasons = append(reasons, fmt.Sprintf("confidence level %g is outside (0, 1)", params.ConfidenceLevel))
	}

	byName := make(map[core.ColumnName]*profile.ColumnProfile, len(profiles))
	for i := range profiles {
		byName[profiles[i].Name] = &profiles[i]
	}

	seen := make(map[core.ColumnName]analysis.Role)
	for _, role := range def.Roles {
		name, ok := params.Column(role.Role)
		if !ok {
			reasons = append(reasons, fmt.Sprintf("role %q has no column assigned", role.Role))
			continue
		}
		if prev, dup := seen[name]; dup {
			reasons = append(reasons, fmt.Sprintf("column %q assigned to both %q and %q", name, prev, role.Role))
			continue
		}
		seen[name] = role.Role

		p, exists := byName[name]
		if !exists {
			reasons = append(reasons, fmt.Sprintf("column %q not found in dataset", name))
			continue
		}
		if p.Unusable {
			reasons = append(reasons, fmt.Sprintf("column %q is unusable for testing", name))
			continue
		}
		if p.ProfileError != "" {
			reasons = append(reasons, fmt.Sprintf("column %q: %v (%s)", name, core.ErrProfilingUndefined, p.ProfileError))
			continue
		}
		if !role.Accepts(p.SemanticType) {
			reasons = append(reasons, fmt.Sprintf("column %q is %s, role %q needs one of %v",
				name, p.SemanticType, role.Role, role.Allowed))
			continue
		}
		if nonMissing := p.RowCount - p.MissingCount; nonMissing < def.MinSampleSize {
			reasons = append(reasons, fmt.Sprintf("column %q has %d non-missing values, %s needs at least %d",
				name, nonMissing, def.ID, def.MinSampleSize))
		}
	}

	for role := range params.Columns {
		if !hasRole(def, role) {
			reasons = append(reasons, fmt.Sprintf("role %q is not part of %s", role, def.ID))
		}
	}

	return reasons
}

func hasRole(def analysis.TestDefinition, role analysis.Role) bool {
	for _, r := range def.Roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

// inputColumns lists the bound columns in the definition's role order.
func inputColumns(def analysis.TestDefinition, params analysis.Params) []core.ColumnName {
	cols := make([]core.ColumnName, 0, len(def.Roles))
	for _, role := range def.Roles {
		if name, ok := params.Column(role.Role); ok {
			cols = append(cols, name)
		}
	}
	return cols
}
