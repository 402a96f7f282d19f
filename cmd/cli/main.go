package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"statlens/adapters/tabular"
	"statlens/domain/analysis"
	"statlens/domain/core"
	"statlens/internal"
	"statlens/internal/config"
	"statlens/internal/history"
	"statlens/internal/session"
	"statlens/internal/stattest"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "statlens",
		Short: "Profile tabular datasets and run statistical tests on them",
	}

	rootCmd.AddCommand(
		newProfileCmd(),
		newRecommendCmd(),
		newTestsCmd(),
		newRunCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newSession loads the given data file into a fresh session with an
// in-memory history. The CLI is one-shot; persistent history belongs to
// the API server.
func newSession(file string) (*session.Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	tbl, err := tabular.NewDataReader(file).Read()
	if err != nil {
		return nil, err
	}
	sess := session.New(cfg, history.NewMemoryStore(), internal.NewDefaultLogger())
	sess.Load(tbl)
	return sess, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newProfileCmd() *cobra.Command {
	var dropColumns string

	cmd := &cobra.Command{
		Use:   "profile [file]",
		Short: "Classify and profile every column of a CSV/Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(args[0])
			if err != nil {
				return err
			}
			if dropColumns != "" {
				if _, err := sess.DeleteColumns(dropColumns); err != nil {
					return err
				}
			}
			summary, err := sess.Summary()
			if err != nil {
				return err
			}
			profiles, err := sess.Profiles()
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"summary": summary,
				"columns": profiles,
			})
		},
	}

	cmd.Flags().StringVar(&dropColumns, "drop", "", "Columns to drop before profiling (names, 1-based indices or ranges, e.g. \"Age,3,5-7\")")
	return cmd
}

func newRecommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend [file]",
		Short: "Generate prioritized analysis recommendations for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(args[0])
			if err != nil {
				return err
			}
			items, err := sess.Recommendations()
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{"recommendations": items})
		},
	}
}

func newTestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tests [file]",
		Short: "List catalog tests with eligibility against a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(args[0])
			if err != nil {
				return err
			}
			listed, err := sess.ListTests()
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{"tests": listed})
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		target     string
		group      string
		second     string
		hypothesis float64
		confidence float64
	)

	cmd := &cobra.Command{
		Use:   "run [file] [test-id]",
		Short: "Run one statistical test against a dataset",
		Long: `Run one catalog test and print its result record.

Example: statlens run data.csv two_sample_t --target Height --group Sex --confidence 0.95`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, testID := args[0], args[1]
			if _, ok := stattest.Lookup(testID); !ok {
				return fmt.Errorf("unknown test %q (known: %s)", testID, knownTestIDs())
			}

			sess, err := newSession(file)
			if err != nil {
				return err
			}

			params := analysis.Params{
				Columns:         make(map[analysis.Role]core.ColumnName),
				HypothesisValue: hypothesis,
				ConfidenceLevel: confidence,
			}
			if target != "" {
				params.Columns[analysis.RoleTarget] = core.ColumnName(target)
			}
			if group != "" {
				params.Columns[analysis.RoleGroup] = core.ColumnName(group)
			}
			if second != "" {
				params.Columns[analysis.RoleSecond] = core.ColumnName(second)
			}

			record, err := sess.RunTest(context.Background(), testID, params)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{"record": record})
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Column for the target role")
	cmd.Flags().StringVar(&group, "group", "", "Column for the group role")
	cmd.Flags().StringVar(&second, "second", "", "Column for the second role")
	cmd.Flags().Float64Var(&hypothesis, "hypothesis", 0, "Hypothesized mean (one-sample tests)")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "Confidence level in (0,1)")
	return cmd
}

func knownTestIDs() string {
	ids := make([]string, 0)
	for _, def := range stattest.Catalog() {
		ids = append(ids, def.ID)
	}
	return strings.Join(ids, ", ")
}
