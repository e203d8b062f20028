package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/rundb/internal/calib"
	"github.com/roach88/rundb/internal/value"
)

// FetchResult is the JSON payload for one run's resolved table data.
type FetchResult struct {
	Run     int64      `json:"run"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <calibration-db> <request>",
		Short: "Fetch resolved calibration constants",
		Long: `Resolve and print the constants a request selects. A request is a table
path with optional run, variation and timestamp segments:

    /dir/table:run:variation:2013-02-22 19:40:35

Omitted segments fall back to run 0, the default variation and the
current time.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runFetch(opts *RootOptions, dbPath, request string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	db, err := calib.Open(dbPath)
	if err != nil {
		return formatter.Fail(err)
	}
	defer db.Close()
	formatter.VerboseLog("opened %s (session %s)", dbPath, db.Session())

	byRun, err := db.FetchRequest(request)
	if err != nil {
		return formatter.Fail(err)
	}

	results := make([]FetchResult, 0, len(byRun))
	for run, data := range byRun {
		result := FetchResult{Run: run, Columns: data.ColumnNames(), Rows: [][]string{}}
		for r := 0; r < data.NRows(); r++ {
			row := make([]string, data.NColumns())
			for c := 0; c < data.NColumns(); c++ {
				v, err := data.ValueAt(c, r)
				if err != nil {
					return formatter.Fail(err)
				}
				row[c] = value.String(v)
			}
			result.Rows = append(result.Rows, row)
		}
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Run < results[j].Run })

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, result := range results {
		fmt.Fprintf(formatter.Writer, "run %d\n", result.Run)
		for _, row := range result.Rows {
			for i, cell := range row {
				fmt.Fprintf(formatter.Writer, "  %s=%s", result.Columns[i], cell)
			}
			fmt.Fprintln(formatter.Writer)
		}
	}
	return nil
}
