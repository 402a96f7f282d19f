package analysis

import (
	"fmt"
	"strings"

	"statlens/domain/core"
	"statlens/domain/table"
)

// Role names the slot a column fills in a test invocation.
type Role string

const (
	RoleTarget Role = "target" // measured variable
	RoleGroup  Role = "group"  // grouping factor
	RoleSecond Role = "second" // second measured variable (paired / correlation)
)

// RoleRequirement constrains one column slot of a test.
type RoleRequirement struct {
	Role        Role                 `json:"role"`
	Allowed     []table.SemanticType `json:"allowed_types"`
	Description string               `json:"description"`
}

// Accepts reports whether the requirement allows the given semantic type.
func (r RoleRequirement) Accepts(t table.SemanticType) bool {
	for _, a := range r.Allowed {
		if a == t {
			return true
		}
	}
	return false
}

// TestDefinition is a static catalog entry. The catalog is fixed library
// content, read-only at runtime.
type TestDefinition struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Roles         []RoleRequirement `json:"roles"`
	MinSampleSize int               `json:"min_sample_size"`
}

// ListedTest pairs a definition with its eligibility against the current
// dataset, for test listings.
type ListedTest struct {
	TestDefinition
	RequirementsMet bool     `json:"requirements_met"`
	MissingReasons  []string `json:"missing_reasons,omitempty"`
}

// Params are the caller-supplied inputs of one test invocation.
type Params struct {
	// Columns maps each role of the test to a column of the dataset.
	Columns map[Role]core.ColumnName `json:"columns"`
	// HypothesisValue is the null-hypothesis mean for one-sample tests.
	HypothesisValue float64 `json:"hypothesis_value,omitempty"`
	// ConfidenceLevel in (0,1); the significance threshold is computed as
	// 1 - ConfidenceLevel, never hardcoded.
	ConfidenceLevel float64 `json:"confidence_level"`
}

// Column returns the column bound to a role.
func (p Params) Column(role Role) (core.ColumnName, bool) {
	c, ok := p.Columns[role]
	return c, ok
}

// Interval is a two-sided confidence interval.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// TestResult is the structured outcome of a completed test.
type TestResult struct {
	Statistic        float64            `json:"statistic"`
	PValue           float64            `json:"p_value"`
	DegreesOfFreedom float64            `json:"degrees_of_freedom"`
	ConfidenceLevel  float64            `json:"confidence_level"`
	Interval         *Interval          `json:"confidence_interval,omitempty"`
	Significant      bool               `json:"significant"`
	Conclusion       string             `json:"conclusion"`
	Metadata         map[string]float64 `json:"metadata,omitempty"`
}

// Record is one persisted analysis. Append-only; deleted only by explicit
// id-based request. IDs are unique and monotonically increasing per store.
type Record struct {
	ID            core.RecordID     `json:"id"`
	Timestamp     core.Timestamp    `json:"timestamp"`
	TestID        string            `json:"test_id"`
	TestName      string            `json:"test_name"`
	InputColumns  []core.ColumnName `json:"input_columns"`
	Modifications []string          `json:"modifications,omitempty"`
	Parameters    Params            `json:"parameters"`
	Result        TestResult        `json:"result"`
}

// InvocationState tracks one test invocation through the executor.
type InvocationState string

const (
	StateSelected  InvocationState = "selected"
	StateValidated InvocationState = "validated"
	StateRunning   InvocationState = "running"
	StateCompleted InvocationState = "completed"
	StateRejected  InvocationState = "rejected"
)

// Rejection is the structured requirements-not-met outcome. A rejected
// invocation never runs.
type Rejection struct {
	TestID  string   `json:"test_id"`
	Reasons []string `json:"reasons"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%v: %s: %s", core.ErrRequirementsNotMet, r.TestID, strings.Join(r.Reasons, "; "))
}

func (r *Rejection) Unwrap() error { return core.ErrRequirementsNotMet }
