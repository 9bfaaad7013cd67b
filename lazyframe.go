package galleonsql

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/eager"
	"github.com/NerdMeNot/galleon-sql/eager/arrowdf"
	"github.com/NerdMeNot/galleon-sql/eager/galleondf"
	"github.com/NerdMeNot/galleon-sql/eager/rowdf"
	"github.com/NerdMeNot/galleon-sql/sqlframe"
)

// LazyFrame adapts a native *sqlframe.DataFrame to the compliant lazy frame
// protocol. Frames are immutable: every structural operation returns a new
// LazyFrame over a new native frame.
type LazyFrame struct {
	native  *sqlframe.DataFrame
	version compliant.Version
	logger  log.Logger

	mu      sync.Mutex
	schema  *compliant.Schema
	columns []string
}

var (
	_ compliant.LazyFrame[*LazyFrame, *Expr]    = (*LazyFrame)(nil)
	_ compliant.Expr[*LazyFrame, sqlframe.Expr] = (*Expr)(nil)
)

// FrameOptions configures NewLazyFrame.
type FrameOptions struct {
	// ValidateBackendVersion checks the linked SQLite library against
	// compliant.MinBackendVersion before wrapping.
	ValidateBackendVersion bool
	// Logger receives debug logs. Defaults to a no-op logger.
	Logger log.Logger
}

// ============================================================================
// Construction
// ============================================================================

// NewLazyFrame wraps native for protocol version v.
func NewLazyFrame(native *sqlframe.DataFrame, v compliant.Version, opts ...FrameOptions) (*LazyFrame, error) {
	if native == nil {
		return nil, fmt.Errorf("native frame is nil")
	}
	var opt FrameOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Logger == nil {
		opt.Logger = log.NewNopLogger()
	}
	lf := &LazyFrame{native: native, version: v, logger: opt.Logger}
	if opt.ValidateBackendVersion {
		if err := lf.ValidateBackendVersion(); err != nil {
			return nil, err
		}
	}
	return lf, nil
}

// FromNative wraps native using the version carried by ctx.
func FromNative(native *sqlframe.DataFrame, ctx compliant.Context) (*LazyFrame, error) {
	return NewLazyFrame(native, ctx.Version())
}

// withNative returns a frame over df that keeps the version and logger of lf.
func (lf *LazyFrame) withNative(df *sqlframe.DataFrame) *LazyFrame {
	return &LazyFrame{native: df, version: lf.version, logger: lf.logger}
}

// ============================================================================
// Protocol
// ============================================================================

func (lf *LazyFrame) Version() compliant.Version { return lf.version }

func (lf *LazyFrame) Implementation() compliant.Implementation { return Implementation }

// Capabilities lists the frame operations this backend supports.
func (lf *LazyFrame) Capabilities() compliant.CapabilitySet { return frameCapabilities }

// ToFrontend wraps lf in the frontend's public lazy frame handle.
func (lf *LazyFrame) ToFrontend() *compliant.PublicLazyFrame {
	return lf.version.LazyFrame(lf, compliant.LevelLazy)
}

// WithVersion returns the same native frame tagged with v.
func (lf *LazyFrame) WithVersion(v compliant.Version) *LazyFrame {
	return &LazyFrame{native: lf.native, version: v, logger: lf.logger}
}

// ValidateBackendVersion checks the linked SQLite library version.
func (lf *LazyFrame) ValidateBackendVersion() error {
	return compliant.ValidateBackendVersion(Implementation, sqlframe.EngineVersion())
}

// Native returns the wrapped frame.
func (lf *LazyFrame) Native() *sqlframe.DataFrame { return lf.native }

// NativeNamespace returns the session the native frame belongs to.
func (lf *LazyFrame) NativeNamespace() *sqlframe.SessionContext { return lf.native.Session() }

// Namespace returns the namespace adapter for lf's version and session.
func (lf *LazyFrame) Namespace() *Namespace {
	return &Namespace{version: lf.version, session: lf.native.Session(), logger: lf.logger}
}

// ============================================================================
// Schema
// ============================================================================

// Columns returns the column names. The result is cached.
func (lf *LazyFrame) Columns() ([]string, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if lf.columns == nil {
		lf.columns = lf.native.ColumnNames()
	}
	return append([]string{}, lf.columns...), nil
}

// Schema returns the abstract schema. The result is cached once computed.
func (lf *LazyFrame) Schema() (*compliant.Schema, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if lf.schema == nil {
		schema, err := compliant.SchemaFromNative(lf.native.Schema(), lf.version)
		if err != nil {
			return nil, err
		}
		lf.schema = schema
	}
	return lf.schema, nil
}

// CollectSchema computes the abstract schema without consulting the cache.
func (lf *LazyFrame) CollectSchema() (*compliant.Schema, error) {
	return compliant.SchemaFromNative(lf.native.Schema(), lf.version)
}

// ============================================================================
// Structural operations
// ============================================================================

// Drop removes columns. With strict set, naming a column that does not
// exist fails with a *compliant.ColumnNotFoundError; otherwise unknown
// names are ignored.
func (lf *LazyFrame) Drop(columns []string, strict bool) (*LazyFrame, error) {
	existing, err := lf.Columns()
	if err != nil {
		return nil, err
	}
	toDrop, err := compliant.ParseColumnsToDrop(existing, columns, strict)
	if err != nil {
		return nil, err
	}
	if len(toDrop) == 0 {
		return lf.withNative(lf.native), nil
	}
	df, err := lf.native.Drop(toDrop...)
	if err != nil {
		return nil, fmt.Errorf("drop: %w", err)
	}
	return lf.withNative(df), nil
}

// Rename relabels the columns named in mapping. It re-selects every column
// so the column order is unchanged.
func (lf *LazyFrame) Rename(mapping map[string]string) (*LazyFrame, error) {
	columns, err := lf.Columns()
	if err != nil {
		return nil, err
	}
	exprs := make([]sqlframe.Expr, len(columns))
	for i, c := range columns {
		if to, ok := mapping[c]; ok {
			exprs[i] = sqlframe.Col(c).Alias(to)
		} else {
			exprs[i] = sqlframe.Col(c)
		}
	}
	df, err := lf.native.Select(exprs...)
	if err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	return lf.withNative(df), nil
}

// Head keeps the first n rows.
func (lf *LazyFrame) Head(n int) (*LazyFrame, error) {
	return lf.withNative(lf.native.Head(n)), nil
}

// Tail keeps the last n rows.
func (lf *LazyFrame) Tail(n int) (*LazyFrame, error) {
	return lf.withNative(lf.native.Tail(n)), nil
}

// Select projects lf onto the outputs of exprs. At least one output is
// required.
func (lf *LazyFrame) Select(exprs ...*Expr) (*LazyFrame, error) {
	pairs, err := EvaluateExprs(lf, exprs...)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, compliant.ErrEmptySelection
	}
	natives := make([]sqlframe.Expr, len(pairs))
	for i, p := range pairs {
		natives[i] = p.Expr.Alias(p.Name)
	}
	df, err := lf.native.Select(natives...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return lf.withNative(df), nil
}

// SimpleSelect projects lf onto plain column references.
func (lf *LazyFrame) SimpleSelect(names ...string) (*LazyFrame, error) {
	df, err := lf.native.SelectColumns(names...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return lf.withNative(df), nil
}

// WithColumns adds or replaces columns. When two outputs share a name the
// last one wins, in the position of the first.
func (lf *LazyFrame) WithColumns(exprs ...*Expr) (*LazyFrame, error) {
	pairs, err := EvaluateExprs(lf, exprs...)
	if err != nil {
		return nil, err
	}
	natives := make([]sqlframe.Expr, len(pairs))
	for i, p := range pairs {
		natives[i] = p.Expr.Alias(p.Name)
	}
	df, err := lf.native.WithColumns(natives...)
	if err != nil {
		return nil, fmt.Errorf("with_columns: %w", err)
	}
	return lf.withNative(df), nil
}

// ============================================================================
// Materialization
// ============================================================================

// Collect executes the frame and wraps the result in the eager adapter for
// backend. Unknown and Arrow produce an *arrowdf.DataFrame, Rows an
// *rowdf.DataFrame and Galleon a *galleondf.DataFrame. Any other backend is
// a configuration error.
func (lf *LazyFrame) Collect(backend compliant.Implementation) (compliant.EagerFrame, error) {
	validated := eager.Options{
		Version:                lf.version,
		ValidateBackendVersion: true,
		ValidateColumnNames:    true,
	}

	switch backend {
	case compliant.ImplementationUnknown, compliant.ImplementationArrow:
		tbl, err := lf.native.ToArrowTable()
		if err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}
		defer tbl.Release()
		lf.logCollect(compliant.ImplementationArrow, tbl.NumRows())
		out, err := arrowdf.New(tbl, validated)
		if err != nil {
			return nil, err
		}
		return out, nil

	case compliant.ImplementationRows:
		rows, err := lf.native.ToRows()
		if err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}
		lf.logCollect(backend, int64(rows.Len()))
		out, err := rowdf.New(rows, validated)
		if err != nil {
			return nil, err
		}
		return out, nil

	case compliant.ImplementationGalleon:
		df, err := lf.native.ToGalleon()
		if err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}
		lf.logCollect(backend, int64(df.Height()))
		out, err := galleondf.New(df, eager.Options{Version: lf.version, ValidateBackendVersion: true})
		if err != nil {
			return nil, err
		}
		return out, nil

	default:
		return nil, &compliant.UnsupportedBackendError{Backend: backend}
	}
}

func (lf *LazyFrame) logCollect(backend compliant.Implementation, rows int64) {
	level.Debug(lf.logger).Log("msg", "collected frame", "backend", backend, "rows", rows)
}

// SinkParquet executes the frame and writes it to w as Parquet.
func (lf *LazyFrame) SinkParquet(w io.Writer, opts ...sqlframe.ParquetWriteOptions) error {
	if err := lf.native.WriteParquet(w, opts...); err != nil {
		return fmt.Errorf("sink_parquet: %w", err)
	}
	return nil
}

// SinkParquetFile executes the frame and writes it to a Parquet file.
func (lf *LazyFrame) SinkParquetFile(path string, opts ...sqlframe.ParquetWriteOptions) error {
	if err := lf.native.WriteParquetFile(path, opts...); err != nil {
		return fmt.Errorf("sink_parquet: %w", err)
	}
	return nil
}

func (lf *LazyFrame) String() string {
	return fmt.Sprintf("LazyFrame(%s, %s)", lf.version, lf.native)
}
