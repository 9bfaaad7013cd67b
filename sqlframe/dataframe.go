package sqlframe

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// DataFrame is a lazy query with a statically known schema. DataFrames are
// immutable; every operation returns a new frame and nothing executes until
// the frame is exported.
type DataFrame struct {
	ctx    *SessionContext
	query  string
	args   []any
	schema *arrow.Schema
}

// Schema returns the Arrow schema of the frame's result.
func (df *DataFrame) Schema() *arrow.Schema { return df.schema }

// Session returns the session the frame belongs to.
func (df *DataFrame) Session() *SessionContext { return df.ctx }

// SQL returns the statement the frame executes and its bound parameters.
func (df *DataFrame) SQL() (string, []any) {
	return df.query, append([]any(nil), df.args...)
}

// ColumnNames returns the names of the frame's columns in order.
func (df *DataFrame) ColumnNames() []string { return fieldNames(df.schema) }

func (df *DataFrame) String() string {
	return fmt.Sprintf("DataFrame(%s)", df.schema)
}

// derive wraps the frame's query as a subquery of a new projection.
func (df *DataFrame) derive(query string, args []any, schema *arrow.Schema) *DataFrame {
	return &DataFrame{ctx: df.ctx, query: query, args: args, schema: schema}
}

// ============================================================================
// Projection
// ============================================================================

// Select projects the frame onto exprs. Output columns are named after
// Expr.Name and must be unique.
func (df *DataFrame) Select(exprs ...Expr) (*DataFrame, error) {
	if len(exprs) == 0 {
		return nil, ErrEmptyProjection
	}

	seen := make(map[string]bool, len(exprs))
	items := make([]string, len(exprs))
	fields := make([]arrow.Field, len(exprs))
	var args []any

	for i, e := range exprs {
		name := e.Name()
		if seen[name] {
			return nil, fmt.Errorf("%w: %q appears more than once", ErrDuplicateField, name)
		}
		seen[name] = true

		r, err := e.resolve(df.schema)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", e, err)
		}
		items[i] = r.sql + " AS " + quoteIdent(name)
		fields[i] = arrow.Field{Name: name, Type: r.typ, Nullable: true}
		args = append(args, r.args...)
	}

	query := fmt.Sprintf("SELECT %s FROM (%s) AS _t", joinComma(items), df.query)
	args = append(args, df.args...)
	return df.derive(query, args, arrow.NewSchema(fields, nil)), nil
}

// SelectColumns projects the frame onto the named columns.
func (df *DataFrame) SelectColumns(names ...string) (*DataFrame, error) {
	exprs := make([]Expr, len(names))
	for i, n := range names {
		exprs[i] = Col(n)
	}
	return df.Select(exprs...)
}

// Drop removes the named columns. Names that are not in the frame are
// ignored.
func (df *DataFrame) Drop(names ...string) (*DataFrame, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	var keep []Expr
	for _, f := range df.schema.Fields() {
		if !drop[f.Name] {
			keep = append(keep, Col(f.Name))
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("cannot drop every column: %w", ErrEmptyProjection)
	}
	return df.Select(keep...)
}

// WithColumns adds or replaces columns. A column whose name already exists
// is replaced in place, new columns are appended in argument order. When
// several exprs share a name the last one wins.
func (df *DataFrame) WithColumns(exprs ...Expr) (*DataFrame, error) {
	if len(exprs) == 0 {
		return df, nil
	}

	byName := make(map[string]Expr, len(exprs))
	var added []string
	for _, e := range exprs {
		name := e.Name()
		if _, ok := byName[name]; !ok && len(df.schema.FieldIndices(name)) == 0 {
			added = append(added, name)
		}
		byName[name] = e
	}

	out := make([]Expr, 0, df.schema.NumFields()+len(added))
	for _, f := range df.schema.Fields() {
		if e, ok := byName[f.Name]; ok {
			out = append(out, e.Alias(f.Name))
		} else {
			out = append(out, Col(f.Name))
		}
	}
	for _, name := range added {
		out = append(out, byName[name].Alias(name))
	}
	return df.Select(out...)
}

// WithColumn adds or replaces a single column.
func (df *DataFrame) WithColumn(name string, e Expr) (*DataFrame, error) {
	return df.WithColumns(e.Alias(name))
}

// Filter keeps the rows for which predicate is true.
func (df *DataFrame) Filter(predicate Expr) (*DataFrame, error) {
	r, err := predicate.resolve(df.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", predicate, err)
	}
	if !isBoolOrNull(r.typ) {
		return nil, fmt.Errorf("%w: filter predicate must be boolean, got %s", ErrTypeMismatch, r.typ)
	}
	query := fmt.Sprintf("SELECT * FROM (%s) AS _t WHERE %s", df.query, r.sql)
	args := append(append([]any(nil), df.args...), r.args...)
	return df.derive(query, args, df.schema), nil
}

// ============================================================================
// Slicing
// ============================================================================

// Head keeps the first n rows. Negative n is treated as zero.
func (df *DataFrame) Head(n int) *DataFrame {
	if n < 0 {
		n = 0
	}
	query := fmt.Sprintf("SELECT * FROM (%s) AS _t LIMIT ?", df.query)
	args := append(append([]any(nil), df.args...), int64(n))
	return df.derive(query, args, df.schema)
}

// Tail keeps the last n rows. Negative n is treated as zero.
func (df *DataFrame) Tail(n int) *DataFrame {
	if n < 0 {
		n = 0
	}
	query := fmt.Sprintf(
		"SELECT * FROM (%s) AS _t LIMIT ? OFFSET (SELECT max(count(*) - ?, 0) FROM (%s) AS _c)",
		df.query, df.query)
	args := make([]any, 0, 2*len(df.args)+2)
	args = append(args, df.args...)
	args = append(args, int64(n), int64(n))
	args = append(args, df.args...)
	return df.derive(query, args, df.schema)
}

// ============================================================================
// Execution
// ============================================================================

// Count executes the frame and returns its row count.
func (df *DataFrame) Count() (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT count(*) FROM (%s) AS _t", df.query)
	if err := df.ctx.queryRow(query, df.args, &n); err != nil {
		return 0, err
	}
	return n, nil
}
