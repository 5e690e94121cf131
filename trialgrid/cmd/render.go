package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarchlab/trialgrid/datarecording"
	"github.com/sarchlab/trialgrid/figure"
)

func (a *app) newRenderCommand() *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the phase grid of a trial sequence into an image file.",
		Long: `Render loads the trial codes, splits them into the phases of ` +
			`the protocol and writes the figure as PNG or SVG. Nothing is ` +
			`written when the trials do not fit the protocol.`,
		Args: cobra.NoArgs,
		RunE: a.render,
	}

	addInputFlags(renderCmd)

	renderCmd.Flags().StringP("output", "o", "", "output image file")
	renderCmd.Flags().String("format", "",
		"image format, png or svg (default from the output extension)")
	renderCmd.Flags().Float64("dpi", 0, "image resolution")
	renderCmd.Flags().Float64("width", 0, "figure width in inches")
	renderCmd.Flags().Float64("height", 0, "figure height in inches")
	renderCmd.Flags().Bool("record", false,
		"record the layout into a SQLite database")
	renderCmd.Flags().String("record-path", "",
		"SQLite database for --record (default is a new unique file)")

	return renderCmd
}

func addInputFlags(c *cobra.Command) {
	c.Flags().StringP("input", "i", "", "trial data file")
	c.Flags().String("variable", "",
		"array, column or table holding the trial codes")
	c.Flags().StringP("protocol", "p", "",
		"protocol YAML file (default is the built-in protocol)")
}

func (a *app) render(cmd *cobra.Command, _ []string) error {
	opts, err := a.options()
	if err != nil {
		return err
	}

	var (
		writer *datarecording.SQLiteWriter
		exec   *datarecording.ExecRecorder
	)

	if a.cfg.Record.Enabled {
		writer, err = datarecording.New(a.cfg.Record.Path)
		if err != nil {
			return fmt.Errorf("open recording: %w", err)
		}
		defer writer.Close()

		exec = datarecording.NewExecRecorder(writer)
		exec.Start()
	}

	var recorder figure.Recorder
	if writer != nil {
		recorder = writer
	}

	p, err := a.pipeline(recorder)
	if err != nil {
		return err
	}

	res, err := p.Save(a.cfg.Output.Path, opts)
	if err != nil {
		return err
	}

	if exec != nil {
		exec.Set("Run", res.RunID)
		exec.Set("Output", a.cfg.Output.Path)
		exec.End()

		a.logger.Info("layout recorded",
			zap.String("run", res.RunID),
			zap.String("database", writer.Path()))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d trials in %d phases (%s)\n",
		a.cfg.Output.Path, res.Grid.CellCount(), len(res.Grid.Phases),
		res.Format)

	return nil
}
