package cli

import (
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <file>",
		Short: "Print column names and types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, lf, err := rootOpts.open(args[0])
			if err != nil {
				return err
			}
			defer ns.Close()
			return rootOpts.writeSchema(cmd.OutOrStdout(), lf)
		},
	}
}
