package galleonsql

import (
	"iter"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/sqlframe"
)

// Implementation is the backend identifier reported by every adapter in
// this package.
const Implementation = compliant.ImplementationSQLite

var (
	frameCapabilities = compliant.NewCapabilitySet(Implementation,
		compliant.OpColumns,
		compliant.OpSchema,
		compliant.OpCollectSchema,
		compliant.OpDrop,
		compliant.OpRename,
		compliant.OpHead,
		compliant.OpTail,
		compliant.OpSelect,
		compliant.OpSimpleSelect,
		compliant.OpWithColumns,
		compliant.OpCollect,
		compliant.OpSinkParquet,
	)

	exprCapabilities = compliant.NewCapabilitySet(Implementation,
		compliant.OpAlias,
		compliant.OpArithmetic,
		compliant.OpComparison,
		compliant.OpLogical,
		compliant.OpBroadcast,
	)

	namespaceCapabilities = compliant.NewCapabilitySet(Implementation,
		compliant.OpFromNative,
		compliant.OpLit,
		compliant.OpCol,
		compliant.OpNthCol,
		compliant.OpIsNative,
	)
)

// methodFor names the entry points of supported operations that cannot be
// invoked by name.
var methodFor = map[compliant.Operation]string{
	compliant.OpFromNative: "Namespace.FromNative",
	compliant.OpIsNative:   "Namespace.IsNative",
	compliant.OpArithmetic: "the Expr arithmetic methods (Add, Sub, Mul, TrueDiv, FloorDiv, Mod, Pow)",
	compliant.OpComparison: "the Expr comparison methods (Lt, Le, Gt, Ge, Eq, Ne)",
	compliant.OpLogical:    "the Expr logical methods (And, Or, Invert)",
}

// notByName reports a supported op without a by-name form as a usage error
// and anything outside set as a capability gap.
func notByName(set compliant.CapabilitySet, op compliant.Operation) error {
	if !set.Supports(op) {
		return set.Unsupported(op)
	}
	return usageError(op, "cannot be called by name, use "+methodFor[op])
}

// ============================================================================
// Unsupported frame operations
// ============================================================================

func (lf *LazyFrame) unsupported(op compliant.Operation) (*LazyFrame, error) {
	return nil, frameCapabilities.Unsupported(op)
}

func (lf *LazyFrame) DropNulls(subset []string) (*LazyFrame, error) {
	return lf.unsupported(compliant.OpDropNulls)
}

func (lf *LazyFrame) Explode(columns []string) (*LazyFrame, error) {
	return lf.unsupported(compliant.OpExplode)
}

func (lf *LazyFrame) Filter(predicate *Expr) (*LazyFrame, error) {
	return lf.unsupported(compliant.OpFilter)
}

func (lf *LazyFrame) GroupBy(keys []*Expr, dropNullKeys bool) (compliant.GroupBy[*Expr], error) {
	return nil, frameCapabilities.Unsupported(compliant.OpGroupBy)
}

func (lf *LazyFrame) Join(other *LazyFrame, how string, leftOn, rightOn []string, suffix string) (*LazyFrame, error) {
	return lf.unsupported(compliant.OpJoin)
}

func (lf *LazyFrame) JoinAsof(other *LazyFrame, leftOn, rightOn string, strategy string) (*LazyFrame, error) {
	return lf.unsupported(compliant.OpJoinAsof)
}

func (lf *LazyFrame) Sort(by []string, descending []bool, nullsLast bool) (*LazyFrame, error) {
	return lf.unsupported(compliant.OpSort)
}

func (lf *LazyFrame) Unique(subset []string, keep string) (*LazyFrame, error) {
	return lf.unsupported(compliant.OpUnique)
}

func (lf *LazyFrame) Unpivot(on, index []string, variableName, valueName string) (*LazyFrame, error) {
	return lf.unsupported(compliant.OpUnpivot)
}

func (lf *LazyFrame) WithRowIndex(name string) (*LazyFrame, error) {
	return lf.unsupported(compliant.OpWithRowIndex)
}

func (lf *LazyFrame) Aggregate(exprs ...*Expr) (*LazyFrame, error) {
	return lf.unsupported(compliant.OpAggregate)
}

// IterColumns would yield every column as a native expression.
func (lf *LazyFrame) IterColumns() (iter.Seq2[string, sqlframe.Expr], error) {
	return nil, frameCapabilities.Unsupported(compliant.OpIterColumns)
}

// ============================================================================
// Expression operations by name
// ============================================================================

// Apply invokes the per-expression operation op. Operators have their own
// methods; Apply accepts alias (one string argument) and broadcast (one
// compliant.ExprKind argument). Operator families are supported but only
// through their methods. Every other operation, such as cum_sum, over or
// the str namespace, fails with a *compliant.NotImplementedError without
// evaluating anything.
func (e *Expr) Apply(op compliant.Operation, args ...any) (*Expr, error) {
	switch op {
	case compliant.OpAlias:
		if len(args) == 1 {
			if name, ok := args[0].(string); ok {
				return e.Alias(name), nil
			}
		}
		return nil, usageError(op, "expects one string argument")
	case compliant.OpBroadcast:
		if len(args) == 1 {
			if kind, ok := args[0].(compliant.ExprKind); ok {
				return e.Broadcast(kind), nil
			}
		}
		return nil, usageError(op, "expects one ExprKind argument")
	default:
		return nil, notByName(exprCapabilities, op)
	}
}

// Capabilities lists the operations expressions support.
func (e *Expr) Capabilities() compliant.CapabilitySet { return exprCapabilities }
