package galleonsql

import (
	"fmt"
	"sync"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/sqlframe"
)

// Expr is a deferred expression. It has no meaning on its own: Call binds
// it to a LazyFrame and yields native expressions, OutputNames yields the
// names those expressions produce. Exprs are immutable and safe to reuse
// across frames.
type Expr struct {
	eval    evaluator
	alias   compliant.AliasFunc
	version compliant.Version

	metaOnce sync.Once
	meta     compliant.ExprMetadata
}

// evaluator is one variant of the deferred part of an Expr.
type evaluator interface {
	// call evaluates the expression against df.
	call(df *LazyFrame) ([]sqlframe.Expr, error)
	// outputNames returns the names produced by call, before aliasing.
	outputNames(df *LazyFrame) ([]string, error)
	// width is the number of outputs, or -1 when it depends on the frame.
	width() int
	kind() compliant.ExprKind
}

func newExpr(eval evaluator, alias compliant.AliasFunc, version compliant.Version) *Expr {
	return &Expr{eval: eval, alias: alias, version: version}
}

// ============================================================================
// Constructors
// ============================================================================

// NewExpr builds an expression from raw evaluation and name functions. All
// other constructors and combinators are specialisations of this one.
func NewExpr(
	call func(df *LazyFrame) ([]sqlframe.Expr, error),
	names func(df *LazyFrame) ([]string, error),
	alias compliant.AliasFunc,
	version compliant.Version,
) *Expr {
	return newExpr(&funcEval{callFn: call, namesFn: names}, alias, version)
}

// FromColumnNames builds an expression that references the columns named
// by resolver, evaluated against each frame it is applied to.
func FromColumnNames(version compliant.Version, resolver func(df *LazyFrame) ([]string, error)) *Expr {
	return newExpr(&resolvedColumns{resolve: resolver}, nil, version)
}

// Col references columns by name.
func Col(version compliant.Version, names ...string) *Expr {
	return newExpr(&namedColumns{names: append([]string{}, names...)}, nil, version)
}

// FromColumnIndices references columns by position. Positions are looked
// up in the column list of the frame the expression is applied to, so the
// same expression follows reordered frames.
func FromColumnIndices(version compliant.Version, indices ...int) *Expr {
	return newExpr(&indexedColumns{indices: append([]int{}, indices...)}, nil, version)
}

// ============================================================================
// Protocol
// ============================================================================

// Version returns the protocol version the expression was built for.
func (e *Expr) Version() compliant.Version { return e.version }

// Call evaluates the expression against df.
func (e *Expr) Call(df *LazyFrame) ([]sqlframe.Expr, error) {
	return e.eval.call(df)
}

// OutputNames returns the names Call produces for df, before the alias
// function is applied.
func (e *Expr) OutputNames(df *LazyFrame) ([]string, error) {
	return e.eval.outputNames(df)
}

// AliasOutputNames returns the alias function, or nil.
func (e *Expr) AliasOutputNames() compliant.AliasFunc { return e.alias }

// Metadata describes the expression. It is computed on first use.
func (e *Expr) Metadata() compliant.ExprMetadata {
	e.metaOnce.Do(func() {
		width := e.eval.width()
		if width >= 0 && e.alias != nil {
			if names := e.alias(make([]string, width)); len(names) != width {
				width = -1
			}
		}
		e.meta = compliant.ExprMetadata{Kind: e.eval.kind(), Width: width}
	})
	return e.meta
}

// WithAliasOutputNames returns a copy of e whose output names are passed
// through fn.
func (e *Expr) WithAliasOutputNames(fn compliant.AliasFunc) *Expr {
	return newExpr(e.eval, fn, e.version)
}

// Alias renames every output of e to name.
func (e *Expr) Alias(name string) *Expr {
	return e.WithAliasOutputNames(func(names []string) []string {
		out := make([]string, len(names))
		for i := range out {
			out[i] = name
		}
		return out
	})
}

// Broadcast returns e unchanged. SQLite repeats scalar results across rows
// by itself, so aggregations and literals need no expansion.
func (e *Expr) Broadcast(kind compliant.ExprKind) *Expr {
	return e
}

func (e *Expr) String() string {
	return fmt.Sprintf("Expr(%s, width=%d)", e.Metadata().Kind, e.Metadata().Width)
}

// ============================================================================
// Evaluators
// ============================================================================

// funcEval wraps the raw functions given to NewExpr.
type funcEval struct {
	callFn  func(df *LazyFrame) ([]sqlframe.Expr, error)
	namesFn func(df *LazyFrame) ([]string, error)
}

func (f *funcEval) call(df *LazyFrame) ([]sqlframe.Expr, error)   { return f.callFn(df) }
func (f *funcEval) outputNames(df *LazyFrame) ([]string, error) { return f.namesFn(df) }
func (f *funcEval) width() int                                  { return -1 }
func (f *funcEval) kind() compliant.ExprKind                    { return compliant.KindElementwise }

// namedColumns references a fixed list of columns.
type namedColumns struct {
	names []string
}

func (c *namedColumns) call(*LazyFrame) ([]sqlframe.Expr, error) {
	return columnRefs(c.names), nil
}

func (c *namedColumns) outputNames(*LazyFrame) ([]string, error) {
	return append([]string{}, c.names...), nil
}

func (c *namedColumns) width() int               { return len(c.names) }
func (c *namedColumns) kind() compliant.ExprKind { return compliant.KindElementwise }

// resolvedColumns references the columns returned by a resolver.
type resolvedColumns struct {
	resolve func(df *LazyFrame) ([]string, error)
}

func (c *resolvedColumns) call(df *LazyFrame) ([]sqlframe.Expr, error) {
	names, err := c.resolve(df)
	if err != nil {
		return nil, err
	}
	return columnRefs(names), nil
}

func (c *resolvedColumns) outputNames(df *LazyFrame) ([]string, error) {
	return c.resolve(df)
}

func (c *resolvedColumns) width() int               { return -1 }
func (c *resolvedColumns) kind() compliant.ExprKind { return compliant.KindElementwise }

// indexedColumns references columns by position.
type indexedColumns struct {
	indices []int
}

func (c *indexedColumns) call(df *LazyFrame) ([]sqlframe.Expr, error) {
	names, err := c.outputNames(df)
	if err != nil {
		return nil, err
	}
	return columnRefs(names), nil
}

func (c *indexedColumns) outputNames(df *LazyFrame) ([]string, error) {
	columns, err := df.Columns()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(c.indices))
	for i, idx := range c.indices {
		if idx < 0 || idx >= len(columns) {
			return nil, fmt.Errorf("%w: index %d, frame has %d columns", compliant.ErrIndexOutOfRange, idx, len(columns))
		}
		names[i] = columns[idx]
	}
	return names, nil
}

func (c *indexedColumns) width() int               { return len(c.indices) }
func (c *indexedColumns) kind() compliant.ExprKind { return compliant.KindElementwise }

// literal is a single scalar value, optionally cast.
type literal struct {
	value any
	dtype compliant.DType
}

func (l *literal) call(*LazyFrame) ([]sqlframe.Expr, error) {
	e := sqlframe.Lit(l.value)
	if l.dtype != compliant.Unknown {
		dt, err := compliant.DTypeToNative(l.dtype)
		if err != nil {
			return nil, err
		}
		e = e.Cast(dt)
	}
	return []sqlframe.Expr{e}, nil
}

func (l *literal) outputNames(*LazyFrame) ([]string, error) { return []string{"literal"}, nil }
func (l *literal) width() int                               { return 1 }
func (l *literal) kind() compliant.ExprKind                 { return compliant.KindLiteral }

func columnRefs(names []string) []sqlframe.Expr {
	out := make([]sqlframe.Expr, len(names))
	for i, n := range names {
		out[i] = sqlframe.Col(n)
	}
	return out
}
