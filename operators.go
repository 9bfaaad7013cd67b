package galleonsql

import (
	"fmt"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/sqlframe"
)

// Operand is the right-hand side of an operator: either another
// expression or a literal value.
type Operand struct {
	expr  *Expr
	value any
}

// ExprOperand wraps an expression operand.
func ExprOperand(e *Expr) Operand { return Operand{expr: e} }

// LitOperand wraps a literal operand.
func LitOperand(v any) Operand { return Operand{value: v} }

// AsOperand classifies v once: *Expr and Operand values keep their kind,
// anything else is a literal.
func AsOperand(v any) Operand {
	switch x := v.(type) {
	case Operand:
		return x
	case *Expr:
		if x == nil {
			return LitOperand(nil)
		}
		return ExprOperand(x)
	default:
		return LitOperand(v)
	}
}

// IsExpr reports whether the operand is an expression.
func (o Operand) IsExpr() bool { return o.expr != nil }

// Expr returns the expression operand, or nil for literals.
func (o Operand) Expr() *Expr { return o.expr }

// Value returns the literal value. It is nil for expression operands.
func (o Operand) Value() any { return o.value }

func (o Operand) kind() compliant.ExprKind {
	if o.expr != nil {
		return o.expr.Metadata().Kind
	}
	return compliant.KindLiteral
}

// resolve evaluates the operand against df into exactly one native
// expression.
func (o Operand) resolve(df *LazyFrame) (sqlframe.Expr, error) {
	if o.expr == nil {
		return sqlframe.Lit(o.value), nil
	}
	return df.evaluateSingle(o.expr)
}

// ============================================================================
// Elementwise combinator
// ============================================================================

// nativeOp combines one native output of the receiver with the resolved
// operands.
type nativeOp func(self sqlframe.Expr, operands []sqlframe.Expr) sqlframe.Expr

// elementwise applies op to every output of base. Output names come from
// base unchanged.
type elementwise struct {
	base     *Expr
	op       nativeOp
	operands []Operand
	// err records an operand found invalid when the expression was built.
	err error
}

func (e *elementwise) call(df *LazyFrame) ([]sqlframe.Expr, error) {
	if e.err != nil {
		return nil, e.err
	}
	natives, err := e.base.Call(df)
	if err != nil {
		return nil, err
	}
	resolved := make([]sqlframe.Expr, len(e.operands))
	for i, o := range e.operands {
		if resolved[i], err = o.resolve(df); err != nil {
			return nil, err
		}
	}
	out := make([]sqlframe.Expr, len(natives))
	for i, n := range natives {
		out[i] = e.op(n, resolved)
	}
	return out, nil
}

func (e *elementwise) outputNames(df *LazyFrame) ([]string, error) {
	return e.base.OutputNames(df)
}

func (e *elementwise) width() int { return e.base.eval.width() }

func (e *elementwise) kind() compliant.ExprKind {
	k := e.base.Metadata().Kind
	for _, o := range e.operands {
		k = k.Combine(o.kind())
	}
	return k
}

// withElementwise builds the expression applying op to e and operands. The
// alias function of e is carried over.
func (e *Expr) withElementwise(op nativeOp, operands ...any) *Expr {
	node := &elementwise{base: e, op: op, operands: make([]Operand, len(operands))}
	for i, v := range operands {
		o := AsOperand(v)
		if o.IsExpr() {
			if w := o.expr.Metadata().Width; w >= 0 && w != 1 {
				node.err = fmt.Errorf("%w: operand %d has %d outputs", compliant.ErrMultiOutputOperand, i, w)
			}
		}
		node.operands[i] = o
	}
	return newExpr(node, e.alias, e.version)
}

// withBinary is withElementwise for a single operand.
func (e *Expr) withBinary(op func(self, other sqlframe.Expr) sqlframe.Expr, other any) *Expr {
	return e.withElementwise(func(self sqlframe.Expr, operands []sqlframe.Expr) sqlframe.Expr {
		return op(self, operands[0])
	}, other)
}

// reflected swaps the operands of a native binary operator.
func reflected(op func(a, b sqlframe.Expr) sqlframe.Expr) func(self, other sqlframe.Expr) sqlframe.Expr {
	return func(self, other sqlframe.Expr) sqlframe.Expr { return op(other, self) }
}

// ============================================================================
// Operators
// ============================================================================

func nativeFloorDiv(a, b sqlframe.Expr) sqlframe.Expr { return a.Div(b).Floor() }

// And is logical conjunction.
func (e *Expr) And(other any) *Expr { return e.withBinary(sqlframe.Expr.And, other) }

// Or is logical disjunction.
func (e *Expr) Or(other any) *Expr { return e.withBinary(sqlframe.Expr.Or, other) }

// Invert is logical negation.
func (e *Expr) Invert() *Expr {
	return e.withElementwise(func(self sqlframe.Expr, _ []sqlframe.Expr) sqlframe.Expr {
		return self.Not()
	})
}

func (e *Expr) Add(other any) *Expr  { return e.withBinary(sqlframe.Expr.Add, other) }
func (e *Expr) Sub(other any) *Expr  { return e.withBinary(sqlframe.Expr.Sub, other) }
func (e *Expr) RSub(other any) *Expr { return e.withBinary(reflected(sqlframe.Expr.Sub), other) }
func (e *Expr) Mul(other any) *Expr  { return e.withBinary(sqlframe.Expr.Mul, other) }

// TrueDiv always produces floating point results.
func (e *Expr) TrueDiv(other any) *Expr  { return e.withBinary(sqlframe.Expr.Div, other) }
func (e *Expr) RTrueDiv(other any) *Expr { return e.withBinary(reflected(sqlframe.Expr.Div), other) }

// FloorDiv divides then floors. The result is named "literal" whatever the
// operands are called.
func (e *Expr) FloorDiv(other any) *Expr {
	return e.withBinary(nativeFloorDiv, other).Alias("literal")
}

// RFloorDiv is FloorDiv with the operands swapped, also named "literal".
func (e *Expr) RFloorDiv(other any) *Expr {
	return e.withBinary(reflected(nativeFloorDiv), other).Alias("literal")
}

// Mod takes the sign of the divisor.
func (e *Expr) Mod(other any) *Expr  { return e.withBinary(sqlframe.Expr.Mod, other) }
func (e *Expr) RMod(other any) *Expr { return e.withBinary(reflected(sqlframe.Expr.Mod), other) }
func (e *Expr) Pow(other any) *Expr  { return e.withBinary(sqlframe.Expr.Pow, other) }
func (e *Expr) RPow(other any) *Expr { return e.withBinary(reflected(sqlframe.Expr.Pow), other) }

// Comparisons
func (e *Expr) Lt(other any) *Expr { return e.withBinary(sqlframe.Expr.Lt, other) }
func (e *Expr) Le(other any) *Expr { return e.withBinary(sqlframe.Expr.Le, other) }
func (e *Expr) Gt(other any) *Expr { return e.withBinary(sqlframe.Expr.Gt, other) }
func (e *Expr) Ge(other any) *Expr { return e.withBinary(sqlframe.Expr.Ge, other) }
func (e *Expr) Eq(other any) *Expr { return e.withBinary(sqlframe.Expr.Eq, other) }
func (e *Expr) Ne(other any) *Expr { return e.withBinary(sqlframe.Expr.Ne, other) }
