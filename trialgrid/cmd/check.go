package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/trialgrid/phasegrid"
)

func (a *app) newCheckCommand() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a trial sequence against the protocol.",
		Long: `Check lays out the trials without drawing and prints the ` +
			`number of trials of each category in every phase.`,
		Args: cobra.NoArgs,
		RunE: a.check,
	}

	addInputFlags(checkCmd)

	return checkCmd
}

func (a *app) check(cmd *cobra.Command, _ []string) error {
	p, err := a.pipeline(nil)
	if err != nil {
		return err
	}

	grid, err := p.Compute()
	if err != nil {
		return err
	}

	return printSummary(cmd.OutOrStdout(), phasegrid.Summarize(grid),
		p.Legend())
}

func printSummary(
	w io.Writer,
	summaries []phasegrid.PhaseSummary,
	legend []phasegrid.Category,
) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprint(tw, "PHASE\tTRIALS\tCOLUMNS")
	for _, c := range legend {
		fmt.Fprintf(tw, "\t%d", c.Code)
	}
	fmt.Fprintln(tw)

	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d", s.Label, s.Trials, s.Columns)
		for _, c := range legend {
			fmt.Fprintf(tw, "\t%d", s.Counts[c.Code])
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}
