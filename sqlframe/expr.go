package sqlframe

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// Expr is a native column expression. Exprs are immutable values; every
// operator returns a new Expr.
type Expr struct {
	n node
}

// node is one variant of the expression tree.
type node interface {
	// resolve renders the node to SQL against schema and infers its type.
	resolve(schema *arrow.Schema) (resolved, error)
	// name is the output column name when the node is projected as is.
	name() string
	String() string
}

// resolved is an expression bound to a schema.
type resolved struct {
	sql  string
	args []any
	typ  arrow.DataType
}

// ============================================================================
// Constructors
// ============================================================================

// Col creates a column reference expression
func Col(name string) Expr {
	return Expr{n: &colNode{column: name}}
}

// Lit creates a literal value expression. Supported values are nil, bool,
// Go integer and float types, string, []byte, time.Time and time.Duration.
func Lit(value any) Expr {
	return Expr{n: &litNode{value: value}}
}

// Name returns the column name the expression produces when selected.
func (e Expr) Name() string {
	if e.n == nil {
		return ""
	}
	return e.n.name()
}

func (e Expr) String() string {
	if e.n == nil {
		return "<nil>"
	}
	return e.n.String()
}

// Resolve binds the expression to schema and returns the field it would
// produce.
func (e Expr) Resolve(schema *arrow.Schema) (arrow.Field, error) {
	r, err := e.resolve(schema)
	if err != nil {
		return arrow.Field{}, err
	}
	return arrow.Field{Name: e.Name(), Type: r.typ, Nullable: true}, nil
}

func (e Expr) resolve(schema *arrow.Schema) (resolved, error) {
	if e.n == nil {
		return resolved{}, fmt.Errorf("empty expression")
	}
	return e.n.resolve(schema)
}

// Alias renames the expression's output column
func (e Expr) Alias(name string) Expr {
	return Expr{n: &aliasNode{inner: e.n, alias: name}}
}

// Cast converts to a different type
func (e Expr) Cast(to arrow.DataType) Expr {
	return Expr{n: &castNode{inner: e.n, to: to}}
}

// Floor rounds towards negative infinity. The result is always Float64.
func (e Expr) Floor() Expr {
	return Expr{n: &unaryNode{op: opFloor, inner: e.n}}
}

// Not is logical negation of a boolean expression.
func (e Expr) Not() Expr {
	return Expr{n: &unaryNode{op: opNot, inner: e.n}}
}

// Arithmetic operations
func (e Expr) Add(other Expr) Expr { return e.binary(opAdd, other) }
func (e Expr) Sub(other Expr) Expr { return e.binary(opSub, other) }
func (e Expr) Mul(other Expr) Expr { return e.binary(opMul, other) }
func (e Expr) Div(other Expr) Expr { return e.binary(opDiv, other) }
func (e Expr) Mod(other Expr) Expr { return e.binary(opMod, other) }
func (e Expr) Pow(other Expr) Expr { return e.binary(opPow, other) }

// Comparison operations
func (e Expr) Eq(other Expr) Expr { return e.binary(opEq, other) }
func (e Expr) Ne(other Expr) Expr { return e.binary(opNe, other) }
func (e Expr) Lt(other Expr) Expr { return e.binary(opLt, other) }
func (e Expr) Le(other Expr) Expr { return e.binary(opLe, other) }
func (e Expr) Gt(other Expr) Expr { return e.binary(opGt, other) }
func (e Expr) Ge(other Expr) Expr { return e.binary(opGe, other) }

// Logical operations
func (e Expr) And(other Expr) Expr { return e.binary(opAnd, other) }
func (e Expr) Or(other Expr) Expr  { return e.binary(opOr, other) }

func (e Expr) binary(op binaryOp, other Expr) Expr {
	return Expr{n: &binaryNode{op: op, left: e.n, right: other.n}}
}

// ============================================================================
// Column Node
// ============================================================================

type colNode struct {
	column string
}

func (c *colNode) name() string   { return c.column }
func (c *colNode) String() string { return fmt.Sprintf("col(%q)", c.column) }

func (c *colNode) resolve(schema *arrow.Schema) (resolved, error) {
	idx := schema.FieldIndices(c.column)
	if len(idx) == 0 {
		return resolved{}, &FieldNotFoundError{Name: c.column, Available: fieldNames(schema)}
	}
	return resolved{sql: quoteIdent(c.column), typ: schema.Field(idx[0]).Type}, nil
}

// ============================================================================
// Literal Node
// ============================================================================

type litNode struct {
	value any
}

func (l *litNode) name() string   { return "literal" }
func (l *litNode) String() string { return fmt.Sprintf("lit(%v)", l.value) }

func (l *litNode) resolve(*arrow.Schema) (resolved, error) {
	v, typ, err := normalizeLiteral(l.value)
	if err != nil {
		return resolved{}, err
	}
	if v == nil {
		return resolved{sql: "NULL", typ: typ}, nil
	}
	return resolved{sql: "?", args: []any{v}, typ: typ}, nil
}

// normalizeLiteral maps a Go value onto the value bound to SQLite and its
// Arrow type.
func normalizeLiteral(value any) (any, arrow.DataType, error) {
	switch v := value.(type) {
	case nil:
		return nil, arrow.Null, nil
	case bool:
		return v, arrow.FixedWidthTypes.Boolean, nil
	case int:
		return int64(v), arrow.PrimitiveTypes.Int64, nil
	case int8:
		return int64(v), arrow.PrimitiveTypes.Int64, nil
	case int16:
		return int64(v), arrow.PrimitiveTypes.Int64, nil
	case int32:
		return int64(v), arrow.PrimitiveTypes.Int64, nil
	case int64:
		return v, arrow.PrimitiveTypes.Int64, nil
	case uint8:
		return int64(v), arrow.PrimitiveTypes.Int64, nil
	case uint16:
		return int64(v), arrow.PrimitiveTypes.Int64, nil
	case uint32:
		return int64(v), arrow.PrimitiveTypes.Int64, nil
	case uint:
		return uintLiteral(uint64(v))
	case uint64:
		return uintLiteral(v)
	case float32:
		return float64(v), arrow.PrimitiveTypes.Float64, nil
	case float64:
		return v, arrow.PrimitiveTypes.Float64, nil
	case string:
		return v, arrow.BinaryTypes.String, nil
	case []byte:
		return v, arrow.BinaryTypes.Binary, nil
	case time.Time:
		return v.UnixMicro(), arrow.FixedWidthTypes.Timestamp_us, nil
	case time.Duration:
		return v.Microseconds(), arrow.FixedWidthTypes.Duration_us, nil
	default:
		return nil, nil, fmt.Errorf("%w: literal of type %T", ErrUnsupportedType, value)
	}
}

// uintLiteral binds unsigned values as SQLite integers, which are signed
// 64-bit.
func uintLiteral(v uint64) (any, arrow.DataType, error) {
	if v > math.MaxInt64 {
		return nil, nil, fmt.Errorf("%w: literal %d overflows int64", ErrUnsupportedType, v)
	}
	return int64(v), arrow.PrimitiveTypes.Int64, nil
}

// ============================================================================
// Alias Node
// ============================================================================

type aliasNode struct {
	inner node
	alias string
}

func (a *aliasNode) name() string   { return a.alias }
func (a *aliasNode) String() string { return fmt.Sprintf("%s.alias(%q)", a.inner, a.alias) }

func (a *aliasNode) resolve(schema *arrow.Schema) (resolved, error) {
	return a.inner.resolve(schema)
}

// ============================================================================
// Binary Operation Node
// ============================================================================

type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
	opMod
	opPow
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opAnd
	opOr
)

var binaryOpSymbols = map[binaryOp]string{
	opAdd: "+", opSub: "-", opMul: "*", opDiv: "/", opMod: "%", opPow: "^",
	opEq: "=", opNe: "<>", opLt: "<", opLe: "<=", opGt: ">", opGe: ">=",
	opAnd: "AND", opOr: "OR",
}

func (op binaryOp) String() string { return binaryOpSymbols[op] }

func (op binaryOp) isComparison() bool { return op >= opEq && op <= opGe }

type binaryNode struct {
	op          binaryOp
	left, right node
}

func (b *binaryNode) name() string {
	return fmt.Sprintf("%s %s %s", b.left.name(), b.op, b.right.name())
}

func (b *binaryNode) String() string {
	return fmt.Sprintf("(%s %s %s)", b.left, b.op, b.right)
}

func (b *binaryNode) resolve(schema *arrow.Schema) (resolved, error) {
	l, err := b.left.resolve(schema)
	if err != nil {
		return resolved{}, err
	}
	r, err := b.right.resolve(schema)
	if err != nil {
		return resolved{}, err
	}

	typ, err := binaryResultType(b.op, l.typ, r.typ)
	if err != nil {
		return resolved{}, err
	}

	var sql string
	switch b.op {
	case opDiv:
		sql = fmt.Sprintf("(CAST(%s AS REAL) / %s)", l.sql, r.sql)
	case opMod:
		sql = fmt.Sprintf("%s(%s, %s)", fnMod, l.sql, r.sql)
	case opPow:
		sql = fmt.Sprintf("%s(%s, %s)", fnPow, l.sql, r.sql)
	default:
		sql = fmt.Sprintf("(%s %s %s)", l.sql, b.op, r.sql)
	}

	args := make([]any, 0, len(l.args)+len(r.args))
	args = append(args, l.args...)
	args = append(args, r.args...)
	return resolved{sql: sql, args: args, typ: typ}, nil
}

func binaryResultType(op binaryOp, l, r arrow.DataType) (arrow.DataType, error) {
	mismatch := func() error {
		return fmt.Errorf("%w: cannot apply %s to %s and %s", ErrTypeMismatch, op, l, r)
	}

	switch {
	case op.isComparison():
		if !orderable(l, r) {
			return nil, mismatch()
		}
		return arrow.FixedWidthTypes.Boolean, nil

	case op == opAnd || op == opOr:
		if !isBoolOrNull(l) || !isBoolOrNull(r) {
			return nil, mismatch()
		}
		return arrow.FixedWidthTypes.Boolean, nil
	}

	if !isNumericOrNull(l) || !isNumericOrNull(r) {
		return nil, mismatch()
	}
	switch op {
	case opDiv, opPow:
		return arrow.PrimitiveTypes.Float64, nil
	}
	if l.ID() == arrow.NULL && r.ID() == arrow.NULL {
		return arrow.Null, nil
	}
	if isFloat(l) || isFloat(r) {
		return arrow.PrimitiveTypes.Float64, nil
	}
	return arrow.PrimitiveTypes.Int64, nil
}

// ============================================================================
// Unary Operation Node
// ============================================================================

type unaryOp int

const (
	opNot unaryOp = iota
	opFloor
)

type unaryNode struct {
	op    unaryOp
	inner node
}

func (u *unaryNode) name() string { return u.inner.name() }

func (u *unaryNode) String() string {
	if u.op == opNot {
		return fmt.Sprintf("NOT %s", u.inner)
	}
	return fmt.Sprintf("floor(%s)", u.inner)
}

func (u *unaryNode) resolve(schema *arrow.Schema) (resolved, error) {
	in, err := u.inner.resolve(schema)
	if err != nil {
		return resolved{}, err
	}
	switch u.op {
	case opNot:
		if !isBoolOrNull(in.typ) {
			return resolved{}, fmt.Errorf("%w: cannot negate %s", ErrTypeMismatch, in.typ)
		}
		return resolved{sql: fmt.Sprintf("(NOT %s)", in.sql), args: in.args, typ: arrow.FixedWidthTypes.Boolean}, nil
	default:
		if !isNumericOrNull(in.typ) {
			return resolved{}, fmt.Errorf("%w: cannot floor %s", ErrTypeMismatch, in.typ)
		}
		return resolved{sql: fmt.Sprintf("%s(%s)", fnFloor, in.sql), args: in.args, typ: arrow.PrimitiveTypes.Float64}, nil
	}
}

// ============================================================================
// Cast Node
// ============================================================================

type castNode struct {
	inner node
	to    arrow.DataType
}

func (c *castNode) name() string   { return c.inner.name() }
func (c *castNode) String() string { return fmt.Sprintf("CAST(%s AS %s)", c.inner, c.to) }

func (c *castNode) resolve(schema *arrow.Schema) (resolved, error) {
	in, err := c.inner.resolve(schema)
	if err != nil {
		return resolved{}, err
	}

	var sql string
	switch {
	case c.to.ID() == arrow.NULL:
		return resolved{sql: "NULL", typ: arrow.Null}, nil
	case c.to.ID() == arrow.BOOL:
		sql = fmt.Sprintf("(CAST(%s AS INTEGER) <> 0)", in.sql)
	case arrow.IsInteger(c.to.ID()):
		sql = fmt.Sprintf("CAST(%s AS INTEGER)", in.sql)
	case arrow.IsFloating(c.to.ID()):
		sql = fmt.Sprintf("CAST(%s AS REAL)", in.sql)
	case c.to.ID() == arrow.STRING:
		sql = fmt.Sprintf("CAST(%s AS TEXT)", in.sql)
	case c.to.ID() == arrow.BINARY:
		sql = fmt.Sprintf("CAST(%s AS BLOB)", in.sql)
	case c.to.ID() == arrow.DATE32 && in.typ.ID() == arrow.TIMESTAMP:
		perDay := unitsPerDay(in.typ.(*arrow.TimestampType).Unit)
		sql = fmt.Sprintf("CAST(%s(%s / %d.0) AS INTEGER)", fnFloor, in.sql, perDay)
	case c.to.ID() == arrow.TIMESTAMP && in.typ.ID() == arrow.DATE32:
		perDay := unitsPerDay(c.to.(*arrow.TimestampType).Unit)
		sql = fmt.Sprintf("(%s * %d)", in.sql, perDay)
	case c.to.ID() == arrow.TIMESTAMP && in.typ.ID() == arrow.TIMESTAMP:
		sql = rescale(in.sql, in.typ.(*arrow.TimestampType).Unit, c.to.(*arrow.TimestampType).Unit)
	case c.to.ID() == arrow.DURATION && in.typ.ID() == arrow.DURATION:
		sql = rescale(in.sql, in.typ.(*arrow.DurationType).Unit, c.to.(*arrow.DurationType).Unit)
	case c.to.ID() == arrow.DATE32 || c.to.ID() == arrow.TIMESTAMP || c.to.ID() == arrow.DURATION:
		if !isIntegerOrNull(in.typ) && in.typ.ID() != c.to.ID() {
			return resolved{}, fmt.Errorf("%w: cannot cast %s to %s", ErrTypeMismatch, in.typ, c.to)
		}
		sql = fmt.Sprintf("CAST(%s AS INTEGER)", in.sql)
	default:
		return resolved{}, fmt.Errorf("%w: cast to %s", ErrUnsupportedType, c.to)
	}
	return resolved{sql: sql, args: in.args, typ: c.to}, nil
}

func unitsPerDay(u arrow.TimeUnit) int64 {
	return int64(24*time.Hour) / int64(u.Multiplier())
}

// rescale converts an integer count of from units into to units, flooring
// when the target unit is coarser.
func rescale(sql string, from, to arrow.TimeUnit) string {
	f, t := int64(from.Multiplier()), int64(to.Multiplier())
	switch {
	case f == t:
		return sql
	case f > t:
		return fmt.Sprintf("(%s * %d)", sql, f/t)
	default:
		return fmt.Sprintf("CAST(%s(%s / %d.0) AS INTEGER)", fnFloor, sql, t/f)
	}
}

// ============================================================================
// Type helpers
// ============================================================================

func isFloat(dt arrow.DataType) bool { return arrow.IsFloating(dt.ID()) }

func isNumericOrNull(dt arrow.DataType) bool {
	id := dt.ID()
	return id == arrow.NULL || arrow.IsInteger(id) || arrow.IsFloating(id)
}

func isIntegerOrNull(dt arrow.DataType) bool {
	return dt.ID() == arrow.NULL || arrow.IsInteger(dt.ID())
}

func isBoolOrNull(dt arrow.DataType) bool {
	return dt.ID() == arrow.NULL || dt.ID() == arrow.BOOL
}

// orderable reports whether values of l and r can be ordered against
// each other.
func orderable(l, r arrow.DataType) bool {
	if l.ID() == arrow.NULL || r.ID() == arrow.NULL {
		return true
	}
	if isNumericOrNull(l) && isNumericOrNull(r) {
		return true
	}
	return l.ID() == r.ID()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func fieldNames(schema *arrow.Schema) []string {
	names := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		names[i] = f.Name
	}
	return names
}
