package compliant

import "sort"

// Operation names one entry of the protocol surface a backend may support.
type Operation string

// Frame operations
const (
	OpColumns       Operation = "columns"
	OpSchema        Operation = "schema"
	OpDrop          Operation = "drop"
	OpDropNulls     Operation = "drop_nulls"
	OpExplode       Operation = "explode"
	OpFilter        Operation = "filter"
	OpGroupBy       Operation = "group_by"
	OpHead          Operation = "head"
	OpJoin          Operation = "join"
	OpJoinAsof      Operation = "join_asof"
	OpRename        Operation = "rename"
	OpSelect        Operation = "select"
	OpSimpleSelect  Operation = "simple_select"
	OpSort          Operation = "sort"
	OpTail          Operation = "tail"
	OpUnique        Operation = "unique"
	OpUnpivot       Operation = "unpivot"
	OpWithColumns   Operation = "with_columns"
	OpWithRowIndex  Operation = "with_row_index"
	OpIterColumns   Operation = "_iter_columns"
	OpAggregate     Operation = "aggregate"
	OpCollect       Operation = "collect"
	OpSinkParquet   Operation = "sink_parquet"
	OpCollectSchema Operation = "collect_schema"
)

// Expression operations
const (
	OpAlias           Operation = "alias"
	OpArithmetic      Operation = "arithmetic"
	OpComparison      Operation = "comparison"
	OpLogical         Operation = "logical"
	OpBroadcast       Operation = "broadcast"
	OpCumSum          Operation = "cum_sum"
	OpCumCount        Operation = "cum_count"
	OpCumMin          Operation = "cum_min"
	OpCumMax          Operation = "cum_max"
	OpCumProd         Operation = "cum_prod"
	OpDiff            Operation = "diff"
	OpEwmMean         Operation = "ewm_mean"
	OpRollingSum      Operation = "rolling_sum"
	OpRollingMean     Operation = "rolling_mean"
	OpRollingVar      Operation = "rolling_var"
	OpRollingStd      Operation = "rolling_std"
	OpRank            Operation = "rank"
	OpQuantile        Operation = "quantile"
	OpMedian          Operation = "median"
	OpMode            Operation = "mode"
	OpShift           Operation = "shift"
	OpSqrt            Operation = "sqrt"
	OpFloor           Operation = "floor"
	OpCeil            Operation = "ceil"
	OpIsUnique        Operation = "is_unique"
	OpIsFirstDistinct Operation = "is_first_distinct"
	OpIsLastDistinct  Operation = "is_last_distinct"
	OpOver            Operation = "over"
	OpMapBatches      Operation = "map_batches"
	OpReplaceStrict   Operation = "replace_strict"
	OpStr             Operation = "str"
	OpDt              Operation = "dt"
	OpCat             Operation = "cat"
	OpList            Operation = "list"
	OpStruct          Operation = "struct"
)

// Namespace operations
const (
	OpFromNative     Operation = "from_native"
	OpLit            Operation = "lit"
	OpCol            Operation = "col"
	OpNthCol         Operation = "nth"
	OpLen            Operation = "len"
	OpAllHorizontal  Operation = "all_horizontal"
	OpAnyHorizontal  Operation = "any_horizontal"
	OpSumHorizontal  Operation = "sum_horizontal"
	OpMeanHorizontal Operation = "mean_horizontal"
	OpMinHorizontal  Operation = "min_horizontal"
	OpMaxHorizontal  Operation = "max_horizontal"
	OpConcat         Operation = "concat"
	OpWhen           Operation = "when"
	OpConcatStr      Operation = "concat_str"
	OpSelectors      Operation = "selectors"
	OpCoalesce       Operation = "coalesce"
	OpIsNative       Operation = "is_native"
)

// AllOperations returns every operation of the protocol surface, supported
// by this module or not.
func AllOperations() []Operation {
	return []Operation{
		OpColumns, OpSchema, OpDrop, OpDropNulls, OpExplode, OpFilter, OpGroupBy,
		OpHead, OpJoin, OpJoinAsof, OpRename, OpSelect, OpSimpleSelect, OpSort,
		OpTail, OpUnique, OpUnpivot, OpWithColumns, OpWithRowIndex, OpIterColumns,
		OpAggregate, OpCollect, OpSinkParquet, OpCollectSchema, OpAlias,
		OpArithmetic, OpComparison, OpLogical, OpBroadcast, OpCumSum, OpCumCount,
		OpCumMin, OpCumMax, OpCumProd, OpDiff, OpEwmMean, OpRollingSum,
		OpRollingMean, OpRollingVar, OpRollingStd, OpRank, OpQuantile, OpMedian,
		OpMode, OpShift, OpSqrt, OpFloor, OpCeil, OpIsUnique, OpIsFirstDistinct,
		OpIsLastDistinct, OpOver, OpMapBatches, OpReplaceStrict, OpStr, OpDt, OpCat,
		OpList, OpStruct, OpFromNative, OpLit, OpCol, OpNthCol, OpLen,
		OpAllHorizontal, OpAnyHorizontal, OpSumHorizontal, OpMeanHorizontal,
		OpMinHorizontal, OpMaxHorizontal, OpConcat, OpWhen, OpConcatStr, OpSelectors,
		OpCoalesce, OpIsNative,
	}
}

// CapabilitySet is the explicit list of operations an adapter supports.
// Anything outside the set fails with a NotImplementedError.
type CapabilitySet struct {
	backend Implementation
	ops     map[Operation]struct{}
}

// NewCapabilitySet builds the set of supported ops for backend.
func NewCapabilitySet(backend Implementation, ops ...Operation) CapabilitySet {
	set := CapabilitySet{backend: backend, ops: make(map[Operation]struct{}, len(ops))}
	for _, op := range ops {
		set.ops[op] = struct{}{}
	}
	return set
}

// Supports reports whether op is in the set.
func (c CapabilitySet) Supports(op Operation) bool {
	_, ok := c.ops[op]
	return ok
}

// Operations returns the supported ops in sorted order.
func (c CapabilitySet) Operations() []Operation {
	out := make([]Operation, 0, len(c.ops))
	for op := range c.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Unsupported returns the capability-gap error for op.
func (c CapabilitySet) Unsupported(op Operation) error {
	return &NotImplementedError{Backend: c.backend, Operation: op}
}
