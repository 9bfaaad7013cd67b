package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// HeadOptions holds flags for the head command.
type HeadOptions struct {
	Rows int
	Tail bool
}

// NewHeadCommand creates the head command.
func NewHeadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HeadOptions{}

	cmd := &cobra.Command{
		Use:   "head <file>",
		Short: "Print the first (or last) rows of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Rows < 0 {
				return fmt.Errorf("--rows must not be negative")
			}
			ns, lf, err := rootOpts.open(args[0])
			if err != nil {
				return err
			}
			defer ns.Close()

			if opts.Tail {
				lf, err = lf.Tail(opts.Rows)
			} else {
				lf, err = lf.Head(opts.Rows)
			}
			if err != nil {
				return err
			}
			return rootOpts.writeFrame(cmd.OutOrStdout(), lf)
		},
	}

	cmd.Flags().IntVarP(&opts.Rows, "rows", "n", 5, "number of rows")
	cmd.Flags().BoolVar(&opts.Tail, "tail", false, "take rows from the end")

	return cmd
}
