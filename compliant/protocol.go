package compliant

// AliasFunc rewrites the output names of an expression.
type AliasFunc func(names []string) []string

// LazyFrame is the protocol every lazy backend frame satisfies. F is the
// backend's own frame type and E its expression type.
type LazyFrame[F any, E any] interface {
	Version() Version
	Implementation() Implementation
	Capabilities() CapabilitySet
	ToFrontend() *PublicLazyFrame
	WithVersion(v Version) F
	ValidateBackendVersion() error

	Columns() ([]string, error)
	Schema() (*Schema, error)
	CollectSchema() (*Schema, error)

	Drop(columns []string, strict bool) (F, error)
	Rename(mapping map[string]string) (F, error)
	Head(n int) (F, error)
	Tail(n int) (F, error)
	Select(exprs ...E) (F, error)
	SimpleSelect(names ...string) (F, error)
	WithColumns(exprs ...E) (F, error)
	Collect(backend Implementation) (EagerFrame, error)

	DropNulls(subset []string) (F, error)
	Explode(columns []string) (F, error)
	Filter(predicate E) (F, error)
	GroupBy(keys []E, dropNullKeys bool) (GroupBy[E], error)
	Join(other F, how string, leftOn, rightOn []string, suffix string) (F, error)
	JoinAsof(other F, leftOn, rightOn string, strategy string) (F, error)
	Sort(by []string, descending []bool, nullsLast bool) (F, error)
	Unique(subset []string, keep string) (F, error)
	Unpivot(on, index []string, variableName, valueName string) (F, error)
	WithRowIndex(name string) (F, error)
	Aggregate(exprs ...E) (F, error)
}

// GroupBy is returned by LazyFrame.GroupBy on backends that support it.
type GroupBy[E any] interface {
	Agg(exprs ...E) (any, error)
}

// Expr is the protocol every backend expression satisfies. F is the
// backend frame type the expression binds to and N the native expression
// type it evaluates into.
type Expr[F any, N any] interface {
	Version() Version
	Call(df F) ([]N, error)
	OutputNames(df F) ([]string, error)
	AliasOutputNames() AliasFunc
	Metadata() ExprMetadata
}

// EagerFrame is an in-memory table produced by collecting a lazy frame.
type EagerFrame interface {
	Implementation() Implementation
	Version() Version
	Columns() []string
	Schema() (*Schema, error)
	Len() int
	Column(name string) ([]any, error)
	ToColumns() (map[string][]any, error)
}
