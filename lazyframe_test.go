package galleonsql

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/eager"
	"github.com/NerdMeNot/galleon-sql/eager/arrowdf"
	"github.com/NerdMeNot/galleon-sql/eager/galleondf"
	"github.com/NerdMeNot/galleon-sql/eager/rowdf"
	"github.com/NerdMeNot/galleon-sql/sqlframe"
)

// ============================================================================
// Helpers
// ============================================================================

func newTestNamespace(t *testing.T) *Namespace {
	t.Helper()
	ns, err := Open(DefaultConfig(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ns.Close() })
	return ns
}

// newTestFrame returns a frame with columns a (int64), b (float64) and
// c (string) over five rows.
func newTestFrame(t *testing.T, ns *Namespace) *LazyFrame {
	t.Helper()
	lf, err := ns.FromColumns(
		sqlframe.Column{Name: "a", Values: []int64{1, 2, 3, 4, 5}},
		sqlframe.Column{Name: "b", Values: []float64{0.5, 1.5, 2.5, 3.5, 4.5}},
		sqlframe.Column{Name: "c", Values: []string{"v", "w", "x", "y", "z"}},
	)
	require.NoError(t, err)
	return lf
}

func collectColumns(t *testing.T, lf *LazyFrame) map[string][]any {
	t.Helper()
	df, err := lf.Collect(compliant.ImplementationRows)
	require.NoError(t, err)
	cols, err := df.ToColumns()
	require.NoError(t, err)
	return cols
}

func mustColumns(t *testing.T, lf *LazyFrame) []string {
	t.Helper()
	cols, err := lf.Columns()
	require.NoError(t, err)
	return cols
}

// ============================================================================
// Construction and protocol
// ============================================================================

func TestLazyFrame_Protocol(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	assert.Equal(t, compliant.Main, lf.Version())
	assert.Equal(t, compliant.ImplementationSQLite, lf.Implementation())
	assert.Same(t, ns.Session(), lf.NativeNamespace())
	assert.NoError(t, lf.ValidateBackendVersion())

	public := lf.ToFrontend()
	assert.Same(t, lf, public.Compliant)
	assert.Equal(t, compliant.LevelLazy, public.Level)
	assert.Equal(t, compliant.Main, public.Version)

	v1 := lf.WithVersion(compliant.V1)
	assert.Equal(t, compliant.V1, v1.Version())
	assert.Same(t, lf.Native(), v1.Native())
	assert.Equal(t, compliant.V1, v1.Namespace().Version())
}

func TestLazyFrame_FromNative(t *testing.T) {
	ns := newTestNamespace(t)
	native := newTestFrame(t, ns).Native()

	lf, err := FromNative(native, compliant.WithVersion(compliant.V2))
	require.NoError(t, err)
	assert.Equal(t, compliant.V2, lf.Version())
	assert.Same(t, native, lf.Native())

	lf, err = NewLazyFrame(native, compliant.Main, FrameOptions{ValidateBackendVersion: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, mustColumns(t, lf))

	_, err = NewLazyFrame(nil, compliant.Main)
	assert.Error(t, err)
}

func TestLazyFrame_ValidateBackendVersionTooOld(t *testing.T) {
	saved, err := compliant.SetMinBackendVersion(compliant.ImplementationSQLite, "v99.0.0")
	require.NoError(t, err)
	t.Cleanup(func() { compliant.SetMinBackendVersion(compliant.ImplementationSQLite, saved) })

	ns := newTestNamespace(t)
	native := newTestFrame(t, ns).Native()
	_, err = NewLazyFrame(native, compliant.Main, FrameOptions{ValidateBackendVersion: true})
	assert.ErrorIs(t, err, compliant.ErrBackendVersion)
}

// ============================================================================
// Schema
// ============================================================================

func TestLazyFrame_Schema(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	schema, err := lf.Schema()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, schema.Names())
	assert.Equal(t, []compliant.DType{compliant.Int64, compliant.Float64, compliant.String}, schema.DTypes())

	again, err := lf.Schema()
	require.NoError(t, err)
	assert.Same(t, schema, again, "schema is cached")

	collected, err := lf.CollectSchema()
	require.NoError(t, err)
	assert.NotSame(t, schema, collected)
	assert.Equal(t, schema.Names(), collected.Names())

	cols := mustColumns(t, lf)
	cols[0] = "mutated"
	assert.Equal(t, []string{"a", "b", "c"}, mustColumns(t, lf), "callers get a copy")
}

// ============================================================================
// Drop
// ============================================================================

func TestLazyFrame_Drop(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	tests := []struct {
		name      string
		drop      []string
		strict    bool
		want      []string
		wantError bool
	}{
		{name: "existing", drop: []string{"b"}, strict: true, want: []string{"a", "c"}},
		{name: "several", drop: []string{"c", "a"}, strict: true, want: []string{"b"}},
		{name: "missing strict", drop: []string{"b", "zz"}, strict: true, wantError: true},
		{name: "missing lax", drop: []string{"b", "zz"}, strict: false, want: []string{"a", "c"}},
		{name: "only missing lax", drop: []string{"zz"}, strict: false, want: []string{"a", "b", "c"}},
		{name: "nothing", drop: nil, strict: true, want: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := lf.Drop(tt.drop, tt.strict)
			if tt.wantError {
				require.ErrorIs(t, err, compliant.ErrColumnNotFound)
				var notFound *compliant.ColumnNotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, []string{"zz"}, notFound.Missing)
				assert.Equal(t, []string{"a", "b", "c"}, notFound.Available)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, mustColumns(t, out))
		})
	}

	assert.Equal(t, []string{"a", "b", "c"}, mustColumns(t, lf), "source frame is unchanged")
}

func TestLazyFrame_DropEveryColumn(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	_, err := lf.Drop([]string{"a", "b", "c"}, true)
	assert.ErrorIs(t, err, sqlframe.ErrEmptyProjection)
}

// ============================================================================
// Rename
// ============================================================================

func TestLazyFrame_Rename(t *testing.T) {
	ns := newTestNamespace(t)
	lf, err := ns.FromColumns(
		sqlframe.Column{Name: "a", Values: []int64{1, 2, 3}},
		sqlframe.Column{Name: "c", Values: []string{"x", "y", "z"}},
	)
	require.NoError(t, err)

	renamed, err := lf.Rename(map[string]string{"a": "b", "unknown": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, mustColumns(t, renamed))

	before := collectColumns(t, lf)
	after := collectColumns(t, renamed)
	assert.Equal(t, before["a"], after["b"])
	assert.Equal(t, before["c"], after["c"])
}

func TestLazyFrame_RenameCollision(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	_, err := lf.Rename(map[string]string{"a": "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlframe.ErrDuplicateField)
}

// ============================================================================
// Slicing
// ============================================================================

func TestLazyFrame_HeadTail(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	head, err := lf.Head(2)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, collectColumns(t, head)["a"])

	tail, err := lf.Tail(2)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(4), int64(5)}, collectColumns(t, tail)["a"])

	all, err := lf.Tail(50)
	require.NoError(t, err)
	assert.Len(t, collectColumns(t, all)["a"], 5)
}

// ============================================================================
// Select
// ============================================================================

func TestLazyFrame_Select(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	out, err := lf.Select(ns.Col("c", "a"), ns.Col("b").Mul(2).Alias("double_b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "double_b"}, mustColumns(t, out))

	cols := collectColumns(t, out)
	assert.Equal(t, []any{1.0, 3.0, 5.0, 7.0, 9.0}, cols["double_b"])
	assert.Equal(t, []any{"v", "w", "x", "y", "z"}, cols["c"])
}

func TestLazyFrame_SelectEmpty(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	_, err := lf.Select()
	assert.ErrorIs(t, err, compliant.ErrEmptySelection)

	// An expression resolving to no columns is just as empty.
	none := FromColumnNames(compliant.Main, func(*LazyFrame) ([]string, error) { return nil, nil })
	_, err = lf.Select(none)
	assert.ErrorIs(t, err, compliant.ErrEmptySelection)
}

func TestLazyFrame_SelectWrapsNativeErrors(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	_, err := lf.Select(ns.Col("missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlframe.ErrFieldNotFound)
	var fieldErr *sqlframe.FieldNotFoundError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "missing", fieldErr.Name)

	_, err = lf.Select(ns.Col("a").Add(ns.Col("c")))
	assert.ErrorIs(t, err, sqlframe.ErrTypeMismatch)
}

func TestLazyFrame_SimpleSelect(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	out, err := lf.SimpleSelect("b", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, mustColumns(t, out))

	_, err = lf.SimpleSelect("nope")
	assert.ErrorIs(t, err, sqlframe.ErrFieldNotFound)
}

// ============================================================================
// WithColumns
// ============================================================================

func TestLazyFrame_WithColumns(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	out, err := lf.WithColumns(
		ns.Col("a").Add(1).Alias("d"),
		ns.Col("a").Mul(10),
		ns.Lit("first", compliant.Unknown).Alias("d"),
		ns.Lit("second", compliant.Unknown).Alias("d"),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, mustColumns(t, out))

	cols := collectColumns(t, out)
	assert.Equal(t, []any{int64(10), int64(20), int64(30), int64(40), int64(50)}, cols["a"])
	assert.Equal(t, []any{"second", "second", "second", "second", "second"}, cols["d"])

	same, err := lf.WithColumns()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, mustColumns(t, same))
}

// ============================================================================
// Collect
// ============================================================================

func TestLazyFrame_Collect(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	want := map[string][]any{
		"a": {int64(1), int64(2), int64(3), int64(4), int64(5)},
		"b": {0.5, 1.5, 2.5, 3.5, 4.5},
		"c": {"v", "w", "x", "y", "z"},
	}

	tests := []struct {
		backend compliant.Implementation
		check   func(t *testing.T, df compliant.EagerFrame)
	}{
		{compliant.ImplementationUnknown, func(t *testing.T, df compliant.EagerFrame) {
			adf, ok := df.(*arrowdf.DataFrame)
			require.True(t, ok)
			t.Cleanup(adf.Release)
		}},
		{compliant.ImplementationArrow, func(t *testing.T, df compliant.EagerFrame) {
			adf, ok := df.(*arrowdf.DataFrame)
			require.True(t, ok)
			t.Cleanup(adf.Release)
			assert.Equal(t, arrow.INT64, adf.Native().Schema().Field(0).Type.ID())
		}},
		{compliant.ImplementationRows, func(t *testing.T, df compliant.EagerFrame) {
			_, ok := df.(*rowdf.DataFrame)
			assert.True(t, ok)
		}},
		{compliant.ImplementationGalleon, func(t *testing.T, df compliant.EagerFrame) {
			_, ok := df.(*galleondf.DataFrame)
			assert.True(t, ok)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.backend.String(), func(t *testing.T) {
			df, err := lf.Collect(tt.backend)
			require.NoError(t, err)
			tt.check(t, df)

			assert.Equal(t, compliant.Main, df.Version())
			assert.Equal(t, []string{"a", "b", "c"}, df.Columns())
			assert.Equal(t, 5, df.Len())
			cols, err := df.ToColumns()
			require.NoError(t, err)
			assert.Equal(t, want, cols)
		})
	}
}

func TestLazyFrame_CollectMatchesNativeExport(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)
	lf, err := lf.WithColumns(ns.Col("a").TrueDiv(ns.Col("b")).Alias("ratio"))
	require.NoError(t, err)

	tbl, err := lf.Native().ToArrowTable()
	require.NoError(t, err)
	defer tbl.Release()
	direct, err := arrowdf.New(tbl, eager.Options{})
	require.NoError(t, err)
	defer direct.Release()
	want, err := direct.ToColumns()
	require.NoError(t, err)

	df, err := lf.Collect(compliant.ImplementationArrow)
	require.NoError(t, err)
	defer df.(*arrowdf.DataFrame).Release()
	got, err := df.ToColumns()
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestLazyFrame_CollectUnsupportedBackend(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	df, err := lf.Collect(compliant.ImplementationSQLite)
	assert.Nil(t, df)
	assert.ErrorIs(t, err, compliant.ErrUnsupportedBackend)
	var unsupported *compliant.UnsupportedBackendError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, compliant.ImplementationSQLite, unsupported.Backend)
}

func TestLazyFrame_CollectDuplicateNames(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	// The native layer refuses duplicate projections before collect runs.
	_, err := lf.Select(ns.Col("a"), ns.Col("b").Alias("a"))
	assert.ErrorIs(t, err, sqlframe.ErrDuplicateField)
}

// ============================================================================
// Sink
// ============================================================================

func TestLazyFrame_SinkParquet(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	var buf bytes.Buffer
	require.NoError(t, lf.SinkParquet(&buf))
	assert.Equal(t, "PAR1", buf.String()[:4])

	path := filepath.Join(t.TempDir(), "out.parquet")
	require.NoError(t, lf.SinkParquetFile(path, sqlframe.ParquetWriteOptions{Compression: "zstd"}))

	back, err := ns.ReadParquet(path)
	require.NoError(t, err)
	assert.Equal(t, collectColumns(t, lf), collectColumns(t, back))

	err = lf.SinkParquet(&buf, sqlframe.ParquetWriteOptions{Compression: "lz77"})
	assert.Error(t, err)
}

func TestLazyFrame_SinkParquetKeepsColumnOrder(t *testing.T) {
	ns := newTestNamespace(t)
	lf, err := ns.FromColumns(
		sqlframe.Column{Name: "z", Values: []int64{1, 2}},
		sqlframe.Column{Name: "a", Values: []string{"p", "q"}},
		sqlframe.Column{Name: "m", Values: []float64{0.5, 1.5}},
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ordered.parquet")
	require.NoError(t, lf.SinkParquetFile(path))

	back, err := ns.ReadParquet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, mustColumns(t, back))
	assert.Equal(t, collectColumns(t, lf), collectColumns(t, back))
}

// ============================================================================
// Capability gaps
// ============================================================================

func TestLazyFrame_Unsupported(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)
	a := ns.Col("a")

	calls := map[compliant.Operation]func() error{
		compliant.OpDropNulls: func() error { _, err := lf.DropNulls(nil); return err },
		compliant.OpExplode:   func() error { _, err := lf.Explode([]string{"a"}); return err },
		compliant.OpFilter:    func() error { _, err := lf.Filter(a.Gt(1)); return err },
		compliant.OpGroupBy:   func() error { _, err := lf.GroupBy([]*Expr{a}, true); return err },
		compliant.OpJoin: func() error {
			_, err := lf.Join(lf, "inner", []string{"a"}, []string{"a"}, "_right")
			return err
		},
		compliant.OpJoinAsof:     func() error { _, err := lf.JoinAsof(lf, "a", "a", "backward"); return err },
		compliant.OpSort:         func() error { _, err := lf.Sort([]string{"a"}, []bool{false}, true); return err },
		compliant.OpUnique:       func() error { _, err := lf.Unique(nil, "any"); return err },
		compliant.OpUnpivot:      func() error { _, err := lf.Unpivot(nil, nil, "variable", "value"); return err },
		compliant.OpWithRowIndex: func() error { _, err := lf.WithRowIndex("index"); return err },
		compliant.OpAggregate:    func() error { _, err := lf.Aggregate(a); return err },
		compliant.OpIterColumns:  func() error { _, err := lf.IterColumns(); return err },
	}

	for op, call := range calls {
		t.Run(string(op), func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.True(t, compliant.IsNotImplemented(err))

			var gap *compliant.NotImplementedError
			require.True(t, errors.As(err, &gap))
			assert.Equal(t, op, gap.Operation)
			assert.Equal(t, compliant.ImplementationSQLite, gap.Backend)
			assert.False(t, lf.Capabilities().Supports(op))
		})
	}
}

func TestLazyFrame_Capabilities(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	assert.Equal(t, []compliant.Operation{
		compliant.OpCollect,
		compliant.OpCollectSchema,
		compliant.OpColumns,
		compliant.OpDrop,
		compliant.OpHead,
		compliant.OpRename,
		compliant.OpSchema,
		compliant.OpSelect,
		compliant.OpSimpleSelect,
		compliant.OpSinkParquet,
		compliant.OpTail,
		compliant.OpWithColumns,
	}, lf.Capabilities().Operations())
}
