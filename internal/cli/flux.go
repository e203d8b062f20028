package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/rundb/internal/flux"
)

// FluxPlan is the JSON payload a validated flux request expands to: the
// resolved run periods and the empty histogram set downstream aggregators
// fill in.
type FluxPlan struct {
	Periods    []FluxPeriod      `json:"periods"`
	Bins       int               `json:"bins"`
	Histograms flux.HistogramSet `json:"histograms"`
}

// FluxPeriod is one resolved run period in a plan.
type FluxPeriod struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	MinRun    int64  `json:"min_run"`
	MaxRun    int64  `json:"max_run"`
	Version   int    `json:"version"`
}

// NewFluxCommand creates the flux command.
func NewFluxCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flux <request.yaml>",
		Short: "Validate a flux request and print its plan",
		Long: `Validate a YAML flux-histogram request against the request schema and
print the resolved plan: the run periods it selects and the empty
histogram set the aggregator will fill.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlux(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runFlux(opts *RootOptions, requestPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	req, err := LoadFluxRequest(requestPath)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("request %s: %d period(s), %d edge(s)", requestPath, len(req.RunPeriods), len(req.Edges))

	plan := FluxPlan{Bins: len(req.Edges) - 1}
	for name, version := range req.RunPeriods {
		rp, err := flux.ParseRunPeriod(name)
		if err != nil {
			return formatter.Fail(err)
		}
		plan.Periods = append(plan.Periods, FluxPeriod{
			Name:      rp.Name,
			ShortName: rp.ShortName,
			MinRun:    rp.MinRun,
			MaxRun:    rp.MaxRun,
			Version:   version,
		})
	}
	sort.Slice(plan.Periods, func(i, j int) bool { return plan.Periods[i].MinRun < plan.Periods[j].MinRun })

	set, err := flux.NewHistogramSet(req.Edges)
	if err != nil {
		return formatter.Fail(err)
	}
	plan.Histograms = set

	if formatter.Format == "json" {
		return formatter.Success(plan)
	}
	for _, period := range plan.Periods {
		fmt.Fprintf(formatter.Writer, "%-8s %s  runs %d-%d  version %d\n",
			period.ShortName, period.Name, period.MinRun, period.MaxRun, period.Version)
	}
	fmt.Fprintf(formatter.Writer, "%d bins over [%g, %g]\n", plan.Bins, req.Edges[0], req.Edges[len(req.Edges)-1])
	return nil
}
