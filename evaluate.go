package galleonsql

import (
	"fmt"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/sqlframe"
)

// NamedExpr is one evaluated output: a native expression and the name it
// is projected as.
type NamedExpr struct {
	Name string
	Expr sqlframe.Expr
}

// EvaluateExprs binds exprs to df. The outputs of every expression are
// concatenated in order; each is named by the expression's output names,
// passed through its alias function when it has one.
//
// An expression whose name count differs from its output count is an
// adapter bug and panics with a *compliant.InternalError.
func EvaluateExprs(df *LazyFrame, exprs ...*Expr) ([]NamedExpr, error) {
	var out []NamedExpr
	for _, e := range exprs {
		natives, err := e.Call(df)
		if err != nil {
			return nil, err
		}
		names, err := e.OutputNames(df)
		if err != nil {
			return nil, err
		}
		if alias := e.AliasOutputNames(); alias != nil {
			names = alias(names)
		}
		if len(names) != len(natives) {
			panic(&compliant.InternalError{
				Msg: fmt.Sprintf("got output names %q, but only got %d results", names, len(natives)),
			})
		}
		for i, n := range natives {
			out = append(out, NamedExpr{Name: names[i], Expr: n})
		}
	}
	return out, nil
}

// evaluateSingle evaluates e against df and requires exactly one output.
func (lf *LazyFrame) evaluateSingle(e *Expr) (sqlframe.Expr, error) {
	out, err := e.Call(lf)
	if err != nil {
		return sqlframe.Expr{}, err
	}
	if len(out) != 1 {
		return sqlframe.Expr{}, fmt.Errorf("%w: got %d", compliant.ErrMultiOutputOperand, len(out))
	}
	return out[0], nil
}
