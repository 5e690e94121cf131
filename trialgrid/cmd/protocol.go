package cmd

import (
	"github.com/spf13/cobra"
)

func (a *app) newProtocolCommand() *cobra.Command {
	protocolCmd := &cobra.Command{
		Use:   "protocol",
		Short: "Print the protocol as YAML.",
		Long: `Protocol prints the protocol in effect. Without --protocol ` +
			`it prints the built-in protocol, which is a starting point for ` +
			`a custom protocol file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			protocol, err := a.protocol()
			if err != nil {
				return err
			}

			return protocol.Marshal(cmd.OutOrStdout())
		},
	}

	protocolCmd.Flags().StringP("protocol", "p", "",
		"protocol YAML file (default is the built-in protocol)")

	return protocolCmd
}
