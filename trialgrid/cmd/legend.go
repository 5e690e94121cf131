package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/trialgrid/phasegrid"
)

func (a *app) newLegendCommand() *cobra.Command {
	legendCmd := &cobra.Command{
		Use:   "legend",
		Short: "List the trial categories of the protocol.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			protocol, err := a.protocol()
			if err != nil {
				return err
			}

			palette, err := protocol.Palette()
			if err != nil {
				return err
			}

			for _, c := range palette.Legend() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n",
					c.Code, phasegrid.HexColor(c.Color), c.Name)
			}

			return nil
		},
	}

	legendCmd.Flags().StringP("protocol", "p", "",
		"protocol YAML file (default is the built-in protocol)")

	return legendCmd
}
