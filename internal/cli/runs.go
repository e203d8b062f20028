package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rundb/internal/cond"
	"github.com/roach88/rundb/internal/dberr"
	"github.com/roach88/rundb/internal/runquery"
	"github.com/roach88/rundb/internal/value"
)

// RunConditions is the JSON payload for one run's condition values.
type RunConditions struct {
	Run        int64             `json:"run"`
	Conditions map[string]string `json:"conditions"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		runRange string
		alias    string
		schema   bool
	)

	cmd := &cobra.Command{
		Use:   "runs <conditions-db> [condition...]",
		Short: "Query per-run conditions",
		Long: `Print the runs a selection matches, with the named condition values.
With no condition names only the run numbers are printed. The selection
narrows with --run-range and a named filter alias such as is_production.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(rootOpts, args[0], args[1:], runRange, alias, schema, cmd)
		},
	}

	cmd.Flags().StringVar(&runRange, "run-range", "", "inclusive run range min:max")
	cmd.Flags().StringVar(&alias, "alias", "", "named filter alias (e.g. is_production)")
	cmd.Flags().BoolVar(&schema, "schema", false, "list known condition types and exit")

	return cmd
}

func runRuns(opts *RootOptions, dbPath string, names []string, runRange, alias string, schema bool, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	db, err := runquery.Open(dbPath)
	if err != nil {
		return formatter.Fail(err)
	}
	defer db.Close()
	formatter.VerboseLog("opened %s (session %s)", dbPath, db.Session())

	if schema {
		return outputSchema(formatter, db)
	}

	ctx := runquery.NewContext()
	if runRange != "" {
		min, max, err := parseRunRange(runRange)
		if err != nil {
			return formatter.Fail(err)
		}
		ctx = ctx.WithRunRange(min, max)
	}
	if alias != "" {
		expr, err := cond.AliasExpression(alias)
		if err != nil {
			return formatter.Fail(err)
		}
		ctx = ctx.Filter(expr)
	}

	if len(names) == 0 {
		runs, err := db.FetchRuns(ctx)
		if err != nil {
			return formatter.Fail(err)
		}
		if formatter.Format == "json" {
			return formatter.Success(runs)
		}
		for _, run := range runs {
			fmt.Fprintln(formatter.Writer, run)
		}
		return nil
	}

	byRun, err := db.Fetch(names, ctx)
	if err != nil {
		return formatter.Fail(err)
	}
	results := make([]RunConditions, 0, len(byRun))
	for run, record := range byRun {
		rendered := make(map[string]string, len(record))
		for name, v := range record {
			rendered[name] = value.String(v)
		}
		results = append(results, RunConditions{Run: run, Conditions: rendered})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Run < results[j].Run })

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, result := range results {
		fmt.Fprintf(formatter.Writer, "run %d", result.Run)
		for _, name := range names {
			if v, ok := result.Conditions[name]; ok {
				fmt.Fprintf(formatter.Writer, "  %s=%s", name, v)
			}
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}

func outputSchema(formatter *OutputFormatter, db *runquery.DB) error {
	types := db.ConditionTypes()
	if formatter.Format == "json" {
		return formatter.Success(types)
	}
	for _, ct := range types {
		fmt.Fprintf(formatter.Writer, "%-32s %s\n", ct.Name, ct.Type)
	}
	return nil
}

func parseRunRange(s string) (int64, int64, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, dberr.New(dberr.CodeConfiguration, "run range %q is not min:max", s)
	}
	min, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, dberr.New(dberr.CodeConfiguration, "bad run range minimum %q", parts[0])
	}
	max, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, dberr.New(dberr.CodeConfiguration, "bad run range maximum %q", parts[1])
	}
	return min, max, nil
}
