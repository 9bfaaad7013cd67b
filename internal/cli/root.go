// Package cli implements the galleon-sql command line tool.
package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	galleonsql "github.com/NerdMeNot/galleon-sql"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Format     string // "table" | "json"

	config galleonsql.Config
	logger log.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"table", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "galleon-sql",
		Short: "Inspect Parquet and CSV files through the SQLite dataframe backend",
		Long: `galleon-sql loads Parquet or CSV files into an in-memory SQLite session
and runs lazy frame operations on them: schema inspection, head/tail and
projections with renames and literal columns.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.load(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override the configured log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "table", "output format (table|json)")

	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewHeadCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))

	return cmd
}

// load reads the configuration and builds the logger.
func (o *RootOptions) load(stderr io.Writer) error {
	cfg := galleonsql.DefaultConfig()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = galleonsql.LoadConfig(o.ConfigPath); err != nil {
			return err
		}
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.Apply(); err != nil {
		return err
	}
	o.config = cfg
	o.logger = cfg.NewLogger(stderr)
	return nil
}

// open starts a session and loads path into it.
func (o *RootOptions) open(path string) (*galleonsql.Namespace, *galleonsql.LazyFrame, error) {
	ns, err := galleonsql.Open(o.config, o.logger, nil)
	if err != nil {
		return nil, nil, err
	}

	var lf *galleonsql.LazyFrame
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		lf, err = ns.ReadParquet(path)
	case ".csv":
		lf, err = ns.ReadCSV(path)
	default:
		err = fmt.Errorf("unsupported file type %q: expected .parquet or .csv", filepath.Ext(path))
	}
	if err != nil {
		ns.Close()
		return nil, nil, err
	}
	return ns, lf, nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
