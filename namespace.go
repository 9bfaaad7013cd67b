package galleonsql

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/galleon"
	"github.com/NerdMeNot/galleon-sql/sqlframe"
)

// Namespace is the factory the frontend builds frames and expressions
// through. It is bound to a protocol version and, optionally, to the
// session new frames are registered in.
type Namespace struct {
	version compliant.Version
	session *sqlframe.SessionContext
	logger  log.Logger
}

// NewNamespace returns a namespace for v. session may be nil, in which case
// only expression factories and FromNative are usable.
func NewNamespace(v compliant.Version, session *sqlframe.SessionContext, logger log.Logger) *Namespace {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Namespace{version: v, session: session, logger: logger}
}

// Open creates a session from cfg and returns a namespace bound to it. The
// caller owns the session and must Close the namespace.
func Open(cfg Config, logger log.Logger, reg prometheus.Registerer) (*Namespace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	engine := cfg.Engine
	engine.Logger = logger
	engine.Registerer = reg
	session, err := sqlframe.NewSessionContext(engine)
	if err != nil {
		return nil, err
	}
	level.Debug(logger).Log("msg", "opened session", "version", cfg.Version, "dsn", engine.DSN)
	return NewNamespace(cfg.Version, session, logger), nil
}

// Version returns the protocol version of the namespace.
func (ns *Namespace) Version() compliant.Version { return ns.version }

// Session returns the bound session, or nil.
func (ns *Namespace) Session() *sqlframe.SessionContext { return ns.session }

// Capabilities lists the namespace operations this backend supports.
func (ns *Namespace) Capabilities() compliant.CapabilitySet { return namespaceCapabilities }

// Close closes the bound session, if any.
func (ns *Namespace) Close() error {
	if ns.session == nil {
		return nil
	}
	return ns.session.Close()
}

// ============================================================================
// Frames
// ============================================================================

// FromNative wraps a native frame.
func (ns *Namespace) FromNative(native *sqlframe.DataFrame) (*LazyFrame, error) {
	return NewLazyFrame(native, ns.version, FrameOptions{Logger: ns.logger})
}

// IsNative reports whether v is a native frame of this backend.
func (ns *Namespace) IsNative(v any) bool { return IsNative(v) }

// IsNative reports whether v is a *sqlframe.DataFrame.
func IsNative(v any) bool {
	df, ok := v.(*sqlframe.DataFrame)
	return ok && df != nil
}

func (ns *Namespace) requireSession() error {
	if ns.session == nil {
		return fmt.Errorf("namespace has no session")
	}
	return nil
}

// FromArrow registers tbl in the bound session and wraps it.
func (ns *Namespace) FromArrow(tbl arrow.Table) (*LazyFrame, error) {
	if err := ns.requireSession(); err != nil {
		return nil, err
	}
	df, err := ns.session.FromArrow(tbl)
	if err != nil {
		return nil, err
	}
	return ns.FromNative(df)
}

// FromGalleon registers an eager galleon frame in the bound session.
func (ns *Namespace) FromGalleon(gdf *galleon.DataFrame) (*LazyFrame, error) {
	if err := ns.requireSession(); err != nil {
		return nil, err
	}
	df, err := ns.session.FromGalleon(gdf)
	if err != nil {
		return nil, err
	}
	return ns.FromNative(df)
}

// FromColumns registers Go slices in the bound session and wraps them.
func (ns *Namespace) FromColumns(cols ...sqlframe.Column) (*LazyFrame, error) {
	if err := ns.requireSession(); err != nil {
		return nil, err
	}
	df, err := ns.session.FromColumns(cols...)
	if err != nil {
		return nil, err
	}
	return ns.FromNative(df)
}

// ReadParquet loads a Parquet file into the bound session.
func (ns *Namespace) ReadParquet(path string) (*LazyFrame, error) {
	if err := ns.requireSession(); err != nil {
		return nil, err
	}
	df, err := ns.session.ReadParquet(path)
	if err != nil {
		return nil, err
	}
	return ns.FromNative(df)
}

// ReadCSV loads a CSV file into the bound session.
func (ns *Namespace) ReadCSV(path string, opts ...sqlframe.CSVReadOptions) (*LazyFrame, error) {
	if err := ns.requireSession(); err != nil {
		return nil, err
	}
	df, err := ns.session.ReadCSV(path, opts...)
	if err != nil {
		return nil, err
	}
	return ns.FromNative(df)
}

// ============================================================================
// Expressions
// ============================================================================

// Lit builds a single-output expression named "literal". With dtype other
// than compliant.Unknown the value is cast to the matching native type.
func (ns *Namespace) Lit(value any, dtype compliant.DType) *Expr {
	return newExpr(&literal{value: value, dtype: dtype}, nil, ns.version)
}

// Col references columns by name.
func (ns *Namespace) Col(names ...string) *Expr { return Col(ns.version, names...) }

// NthCol references columns by position.
func (ns *Namespace) NthCol(indices ...int) *Expr { return FromColumnIndices(ns.version, indices...) }

// Call invokes the namespace operation op. lit takes a value and an
// optional compliant.DType, col takes strings and nth takes ints.
// from_native and is_native have their own methods. Every other operation
// fails with a *compliant.NotImplementedError.
func (ns *Namespace) Call(op compliant.Operation, args ...any) (*Expr, error) {
	switch op {
	case compliant.OpLit:
		switch len(args) {
		case 1:
			return ns.Lit(args[0], compliant.Unknown), nil
		case 2:
			dtype, ok := args[1].(compliant.DType)
			if !ok {
				return nil, usageError(op, "dtype must be a compliant.DType")
			}
			return ns.Lit(args[0], dtype), nil
		}
		return nil, usageError(op, "expects a value and an optional dtype")
	case compliant.OpCol:
		names, err := argsOf[string](op, args)
		if err != nil {
			return nil, err
		}
		return ns.Col(names...), nil
	case compliant.OpNthCol:
		indices, err := argsOf[int](op, args)
		if err != nil {
			return nil, err
		}
		return ns.NthCol(indices...), nil
	default:
		return nil, notByName(namespaceCapabilities, op)
	}
}

func (ns *Namespace) Len() (*Expr, error) { return ns.Call(compliant.OpLen) }

func (ns *Namespace) AllHorizontal(exprs ...*Expr) (*Expr, error) {
	return ns.Call(compliant.OpAllHorizontal)
}

func (ns *Namespace) AnyHorizontal(exprs ...*Expr) (*Expr, error) {
	return ns.Call(compliant.OpAnyHorizontal)
}

func (ns *Namespace) SumHorizontal(exprs ...*Expr) (*Expr, error) {
	return ns.Call(compliant.OpSumHorizontal)
}

func (ns *Namespace) MeanHorizontal(exprs ...*Expr) (*Expr, error) {
	return ns.Call(compliant.OpMeanHorizontal)
}

func (ns *Namespace) MinHorizontal(exprs ...*Expr) (*Expr, error) {
	return ns.Call(compliant.OpMinHorizontal)
}

func (ns *Namespace) MaxHorizontal(exprs ...*Expr) (*Expr, error) {
	return ns.Call(compliant.OpMaxHorizontal)
}

func (ns *Namespace) When(predicate *Expr) (*Expr, error) { return ns.Call(compliant.OpWhen) }

func (ns *Namespace) ConcatStr(exprs []*Expr, separator string, ignoreNulls bool) (*Expr, error) {
	return ns.Call(compliant.OpConcatStr)
}

func (ns *Namespace) Coalesce(exprs ...*Expr) (*Expr, error) { return ns.Call(compliant.OpCoalesce) }

// Concat would stack frames. It is not supported.
func (ns *Namespace) Concat(frames []*LazyFrame, how string) (*LazyFrame, error) {
	return nil, namespaceCapabilities.Unsupported(compliant.OpConcat)
}

// Selectors would return the column selector namespace. It is not supported.
func (ns *Namespace) Selectors() error {
	return namespaceCapabilities.Unsupported(compliant.OpSelectors)
}

// ============================================================================
// Helpers
// ============================================================================

// usageError reports bad arguments to a supported operation.
func usageError(op compliant.Operation, msg string) error {
	return fmt.Errorf("%s: %s", op, msg)
}

func argsOf[T any](op compliant.Operation, args []any) ([]T, error) {
	out := make([]T, len(args))
	for i, a := range args {
		v, ok := a.(T)
		if !ok {
			return nil, usageError(op, fmt.Sprintf("argument %d has type %T, want %T", i, a, out[i]))
		}
		out[i] = v
	}
	return out, nil
}
