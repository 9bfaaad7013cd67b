package compliant

// ExprKind classifies an expression for broadcasting decisions.
type ExprKind uint8

const (
	// KindElementwise produces one value per input row.
	KindElementwise ExprKind = iota
	// KindAggregation reduces its input to a single value.
	KindAggregation
	// KindLiteral is a scalar that does not depend on any column.
	KindLiteral
)

func (k ExprKind) String() string {
	switch k {
	case KindAggregation:
		return "aggregation"
	case KindLiteral:
		return "literal"
	default:
		return "elementwise"
	}
}

// IsScalarLike reports whether expressions of this kind yield one value
// that the engine must broadcast against full-length columns.
func (k ExprKind) IsScalarLike() bool {
	return k == KindAggregation || k == KindLiteral
}

// Combine returns the kind of an elementwise operation over operands of
// kinds k and other. A result is only scalar-like when every input is.
func (k ExprKind) Combine(other ExprKind) ExprKind {
	switch {
	case k == KindLiteral && other == KindLiteral:
		return KindLiteral
	case k.IsScalarLike() && other.IsScalarLike():
		return KindAggregation
	default:
		return KindElementwise
	}
}

// ExprMetadata is derived information about an expression.
type ExprMetadata struct {
	Kind ExprKind
	// Width is the number of output columns when it can be known without
	// a frame, or -1 when it depends on the frame.
	Width int
}
