package galleonsql

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/galleon"
	"github.com/NerdMeNot/galleon-sql/sqlframe"
)

// Config is the top level configuration block, usually read from YAML.
type Config struct {
	// Version is the protocol version frames are tagged with.
	Version compliant.Version `yaml:"version"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Engine configures the SQLite session.
	Engine sqlframe.Config `yaml:"engine"`

	// Display controls how collected frames are printed.
	Display galleon.DisplayConfig `yaml:"display"`

	// MinBackendVersions overrides the oldest accepted library version per
	// backend, keyed by backend name ("arrow", "sqlite").
	MinBackendVersions map[string]string `yaml:"min_backend_versions,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Version:  compliant.Main,
		LogLevel: "info",
		Engine:   sqlframe.DefaultConfig(),
		Display:  galleon.DefaultDisplayConfig(),
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := ParseConfig(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML from r on top of DefaultConfig and validates
// the result. Unknown keys are rejected.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs *multierror.Error

	switch c.Version {
	case compliant.V1, compliant.V2, compliant.Main:
	default:
		errs = multierror.Append(errs, fmt.Errorf("invalid version: %s", c.Version))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, err)
	}
	if c.Engine.InsertBatchSize < 0 {
		errs = multierror.Append(errs, fmt.Errorf("engine.insert_batch_size must not be negative"))
	}
	if c.Engine.ExportBatchSize < 0 {
		errs = multierror.Append(errs, fmt.Errorf("engine.export_batch_size must not be negative"))
	}
	if !galleon.ValidTableStyle(c.Display.TableStyle) {
		errs = multierror.Append(errs, fmt.Errorf("invalid display.table_style: %q", c.Display.TableStyle))
	}
	for name, v := range c.MinBackendVersions {
		if _, err := compliant.ParseImplementation(name); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("min_backend_versions: %w", err))
			continue
		}
		if !semver.IsValid(canonicalSemver(v)) {
			errs = multierror.Append(errs, fmt.Errorf("min_backend_versions.%s: invalid version %q", name, v))
		}
	}

	return errs.ErrorOrNil()
}

// Apply installs the process-wide parts of c: the display settings and the
// minimum backend versions.
func (c *Config) Apply() error {
	for name, v := range c.MinBackendVersions {
		impl, err := compliant.ParseImplementation(name)
		if err != nil {
			return err
		}
		if _, err := compliant.SetMinBackendVersion(impl, canonicalSemver(v)); err != nil {
			return err
		}
	}
	galleon.SetDisplayConfig(c.Display)
	return nil
}

// NewLogger returns a logfmt logger writing to w, filtered at c.LogLevel.
func (c *Config) NewLogger(w io.Writer) log.Logger {
	opt, err := parseLevel(c.LogLevel)
	if err != nil {
		opt = level.AllowInfo()
	}
	logger := level.NewFilter(log.NewLogfmtLogger(log.NewSyncWriter(w)), opt)
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func parseLevel(s string) (level.Option, error) {
	switch strings.ToLower(s) {
	case "debug":
		return level.AllowDebug(), nil
	case "info", "":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	default:
		return nil, fmt.Errorf("invalid log_level: %q", s)
	}
}

func canonicalSemver(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
