package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	galleonsql "github.com/NerdMeNot/galleon-sql"
	"github.com/NerdMeNot/galleon-sql/compliant"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	Renames []string
	Drop    []string
	Strict  bool
	Limit   int
	Output  string
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{}

	cmd := &cobra.Command{
		Use:   "select <file> [column | name=literal]...",
		Short: "Project, rename and drop columns",
		Long: `Project a file onto columns and literal values.

Each projection is either a column name or name=literal, where literal is
an integer, a float, true, false or a string. Without projections every
column is kept. --drop and --rename apply after the projection, in that
order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renames, err := parseRenames(opts.Renames)
			if err != nil {
				return err
			}
			ns, lf, err := rootOpts.open(args[0])
			if err != nil {
				return err
			}
			defer ns.Close()

			lf, err = applySelect(ns, lf, args[1:], opts, renames)
			if err != nil {
				return err
			}

			if opts.Output != "" {
				if err := lf.SinkParquetFile(opts.Output); err != nil {
					return err
				}
				level.Info(rootOpts.logger).Log("msg", "wrote parquet file", "path", opts.Output)
				return nil
			}
			return rootOpts.writeFrame(cmd.OutOrStdout(), lf)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Renames, "rename", nil, "rename a column, as old:new (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Drop, "drop", nil, "columns to drop")
	cmd.Flags().BoolVar(&opts.Strict, "strict", true, "fail when --drop names a missing column")
	cmd.Flags().IntVar(&opts.Limit, "limit", -1, "keep at most this many rows")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the result to a Parquet file instead of printing it")

	return cmd
}

func applySelect(ns *galleonsql.Namespace, lf *galleonsql.LazyFrame, projections []string, opts *SelectOptions, renames map[string]string) (*galleonsql.LazyFrame, error) {
	var err error
	if len(projections) > 0 {
		exprs := make([]*galleonsql.Expr, len(projections))
		for i, p := range projections {
			exprs[i] = parseProjection(ns, p)
		}
		if lf, err = lf.Select(exprs...); err != nil {
			return nil, err
		}
	}
	if len(opts.Drop) > 0 {
		if lf, err = lf.Drop(opts.Drop, opts.Strict); err != nil {
			return nil, err
		}
	}
	if len(renames) > 0 {
		if lf, err = lf.Rename(renames); err != nil {
			return nil, err
		}
	}
	if opts.Limit >= 0 {
		if lf, err = lf.Head(opts.Limit); err != nil {
			return nil, err
		}
	}
	return lf, nil
}

func parseRenames(specs []string) (map[string]string, error) {
	out := make(map[string]string, len(specs))
	for _, s := range specs {
		from, to, ok := strings.Cut(s, ":")
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid --rename %q: expected old:new", s)
		}
		out[from] = to
	}
	return out, nil
}

// parseProjection turns "col" into a column reference and "name=value"
// into a literal named name.
func parseProjection(ns *galleonsql.Namespace, p string) *galleonsql.Expr {
	name, raw, ok := strings.Cut(p, "=")
	if !ok {
		return ns.Col(p)
	}
	return ns.Lit(parseLiteral(raw), compliant.Unknown).Alias(name)
}

func parseLiteral(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}
	return s
}
