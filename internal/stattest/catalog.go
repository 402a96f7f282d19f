package stattest

import (
	"fmt"

	"statlens/domain/analysis"
	"statlens/domain/profile"
	"statlens/domain/table"
)

// Test ids. The catalog is fixed library content; tests are not
// user-pluggable.
const (
	TestOneSampleT  = "one_sample_t"
	TestTwoSampleT  = "two_sample_t"
	TestPairedT     = "paired_t"
	TestOneWayANOVA = "one_way_anova"
	TestChiSquare   = "chi_square_independence"
	TestPearson     = "pearson_correlation"
)

var semanticTypes = []table.SemanticType{
	table.TypeNumeric, table.TypeDiscrete, table.TypeCategorical,
	table.TypeBoolean, table.TypeDatetime, table.TypeText,
}

// typesWhere filters the semantic types by a predicate, so the role sets
// below stay in lockstep with the type predicates in domain/table.
func typesWhere(accept func(table.SemanticType) bool) []table.SemanticType {
	out := make([]table.SemanticType, 0, len(semanticTypes))
	for _, st := range semanticTypes {
		if accept(st) {
			out = append(out, st)
		}
	}
	return out
}

var numericRoles = typesWhere(table.SemanticType.IsNumericLike)
var groupRoles = typesWhere(table.SemanticType.IsGroupable)

// catalog is the static test registry, in display order.
var catalog = []analysis.TestDefinition{
	{
		ID:          TestOneSampleT,
		Name:        "One-sample t-test",
		Description: "Tests whether the mean of one numeric column differs from a hypothesized value.",
		Roles: []analysis.RoleRequirement{
			{Role: analysis.RoleTarget, Allowed: numericRoles, Description: "numeric column to test"},
		},
		MinSampleSize: 2,
	},
	{
		ID:          TestTwoSampleT,
		Name:        "Two-sample t-test (Welch)",
		Description: "Tests whether two group means differ, without assuming equal variances.",
		Roles: []analysis.RoleRequirement{
			{Role: analysis.RoleTarget, Allowed: numericRoles, Description: "numeric column to compare"},
			{Role: analysis.RoleGroup, Allowed: groupRoles, Description: "two-level grouping column"},
		},
		MinSampleSize: 4,
	},
	{
		ID:          TestPairedT,
		Name:        "Paired t-test",
		Description: "Tests whether the mean difference between two paired numeric columns is zero.",
		Roles: []analysis.RoleRequirement{
			{Role: analysis.RoleTarget, Allowed: numericRoles, Description: "first measurement"},
			{Role: analysis.RoleSecond, Allowed: numericRoles, Description: "second measurement"},
		},
		MinSampleSize: 2,
	},
	{
		ID:          TestOneWayANOVA,
		Name:        "One-way ANOVA",
		Description: "Tests whether the means of three or more groups differ.",
		Roles: []analysis.RoleRequirement{
			{Role: analysis.RoleTarget, Allowed: numericRoles, Description: "numeric response column"},
			{Role: analysis.RoleGroup, Allowed: groupRoles, Description: "grouping factor"},
		},
		MinSampleSize: 6,
	},
	{
		ID:          TestChiSquare,
		Name:        "Chi-square test of independence",
		Description: "Tests association between two categorical columns via a contingency table.",
		Roles: []analysis.RoleRequirement{
			{Role: analysis.RoleTarget, Allowed: groupRoles, Description: "first categorical column"},
			{Role: analysis.RoleSecond, Allowed: groupRoles, Description: "second categorical column"},
		},
		MinSampleSize: 10,
	},
	{
		ID:          TestPearson,
		Name:        "Pearson correlation",
		Description: "Tests the linear association between two numeric columns.",
		Roles: []analysis.RoleRequirement{
			{Role: analysis.RoleTarget, Allowed: numericRoles, Description: "first numeric column"},
			{Role: analysis.RoleSecond, Allowed: numericRoles, Description: "second numeric column"},
		},
		MinSampleSize: 4,
	},
}

// Catalog returns the test definitions in display order.
func Catalog() []analysis.TestDefinition {
	out := make([]analysis.TestDefinition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a test definition by id.
func Lookup(id string) (analysis.TestDefinition, bool) {
	for _, def := range catalog {
		if def.ID == id {
			return def, true
		}
	}
	return analysis.TestDefinition{}, false
}

// ListForProfiles evaluates every catalog entry against the current
// profiles and reports whether its requirements can be met by some
// assignment of distinct columns.
func ListForProfiles(profiles []profile.ColumnProfile) []analysis.ListedTest {
	listed := make([]analysis.ListedTest, 0, len(catalog))
	for _, def := range catalog {
		met, reasons := requirementsMet(def, profiles)
		listed = append(listed, analysis.ListedTest{
			TestDefinition:  def,
			RequirementsMet: met,
			MissingReasons:  reasons,
		})
	}
	return listed
}

// requirementsMet checks whether distinct usable columns can fill every
// role of the definition, with enough non-missing values.
func requirementsMet(def analysis.TestDefinition, profiles []profile.ColumnProfile) (bool, []string) {
	var reasons []string

	candidates := make([][]int, len(def.Roles))
	for r, role := range def.Roles {
		for i := range profiles {
			p := &profiles[i]
			if p.Unusable || !role.Accepts(p.SemanticType) {
				continue
			}
			if p.RowCount-p.MissingCount < def.MinSampleSize {
				continue
			}
			candidates[r] = append(candidates[r], i)
		}
		if len(candidates[r]) == 0 {
			reasons = append(reasons, fmt.Sprintf("no eligible column for role %q (%s)", role.Role, role.Description))
		}
	}
	if len(reasons) > 0 {
		return false, reasons
	}

	if !assignable(candidates, make(map[int]bool), 0) {
		return false, []string{"roles require more distinct columns than the dataset provides"}
	}
	return true, nil
}

// assignable backtracks over the (tiny) role/candidate sets looking for an
// assignment of distinct columns.
func assignable(candidates [][]int, used map[int]bool, role int) bool {
	if role == len(candidates) {
		return true
	}
	for _, col := range candidates[role] {
		if used[col] {
			continue
		}
		used[col] = true
		if assignable(candidates, used, role+1) {
			return true
		}
		delete(used, col)
	}
	return false
}
