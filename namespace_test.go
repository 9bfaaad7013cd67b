package galleonsql

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/eager/galleondf"
	"github.com/NerdMeNot/galleon-sql/galleon"
	"github.com/NerdMeNot/galleon-sql/sqlframe"
)

func TestNamespace_Call(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	lit, err := ns.Call(compliant.OpLit, 3)
	require.NoError(t, err)
	assert.Equal(t, compliant.KindLiteral, lit.Metadata().Kind)

	cast, err := ns.Call(compliant.OpLit, 3, compliant.Float64)
	require.NoError(t, err)

	col, err := ns.Call(compliant.OpCol, "b", "a")
	require.NoError(t, err)

	nth, err := ns.Call(compliant.OpNthCol, 2)
	require.NoError(t, err)

	out, err := lf.Select(col, nth, cast.Alias("three"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c", "three"}, mustColumns(t, out))
	assert.Equal(t, 3.0, collectColumns(t, out)["three"][0])

	badArgs := []struct {
		op   compliant.Operation
		args []any
	}{
		{compliant.OpLit, nil},
		{compliant.OpLit, []any{1, "Float64"}},
		{compliant.OpCol, []any{"a", 1}},
		{compliant.OpNthCol, []any{"a"}},
	}
	for _, tt := range badArgs {
		_, err := ns.Call(tt.op, tt.args...)
		require.Error(t, err, tt.op)
		assert.False(t, compliant.IsNotImplemented(err), tt.op)
	}
}

func TestNamespace_CallMatchesCapabilities(t *testing.T) {
	ns := NewNamespace(compliant.Main, nil, nil)
	caps := ns.Capabilities()

	for _, op := range compliant.AllOperations() {
		_, err := ns.Call(op, struct{}{})
		assert.Equal(t, !caps.Supports(op), compliant.IsNotImplemented(err), op)
	}

	_, err := ns.Call(compliant.OpIsNative)
	require.Error(t, err)
	assert.False(t, compliant.IsNotImplemented(err))
	assert.ErrorContains(t, err, "Namespace.IsNative")
}

func TestNamespace_Unsupported(t *testing.T) {
	ns := NewNamespace(compliant.V1, nil, nil)
	e := ns.Col("a")

	calls := map[compliant.Operation]func() error{
		compliant.OpLen:            func() error { _, err := ns.Len(); return err },
		compliant.OpAllHorizontal:  func() error { _, err := ns.AllHorizontal(e); return err },
		compliant.OpAnyHorizontal:  func() error { _, err := ns.AnyHorizontal(e); return err },
		compliant.OpSumHorizontal:  func() error { _, err := ns.SumHorizontal(e); return err },
		compliant.OpMeanHorizontal: func() error { _, err := ns.MeanHorizontal(e); return err },
		compliant.OpMinHorizontal:  func() error { _, err := ns.MinHorizontal(e); return err },
		compliant.OpMaxHorizontal:  func() error { _, err := ns.MaxHorizontal(e); return err },
		compliant.OpWhen:           func() error { _, err := ns.When(e); return err },
		compliant.OpConcatStr:      func() error { _, err := ns.ConcatStr([]*Expr{e}, "-", true); return err },
		compliant.OpCoalesce:       func() error { _, err := ns.Coalesce(e); return err },
		compliant.OpConcat:         func() error { _, err := ns.Concat(nil, "vertical"); return err },
		compliant.OpSelectors:      ns.Selectors,
	}
	for op, call := range calls {
		err := call()
		assert.True(t, compliant.IsNotImplemented(err), op)
		assert.False(t, ns.Capabilities().Supports(op), op)
	}

	assert.Equal(t, []compliant.Operation{
		compliant.OpCol,
		compliant.OpFromNative,
		compliant.OpIsNative,
		compliant.OpLit,
		compliant.OpNthCol,
	}, ns.Capabilities().Operations())
}

func TestNamespace_IsNative(t *testing.T) {
	ns := newTestNamespace(t)
	lf := newTestFrame(t, ns)

	assert.True(t, IsNative(lf.Native()))
	assert.True(t, ns.IsNative(lf.Native()))
	assert.False(t, IsNative(lf))
	assert.False(t, IsNative((*sqlframe.DataFrame)(nil)))
	assert.False(t, IsNative(nil))
}

func TestNamespace_WithoutSession(t *testing.T) {
	ns := NewNamespace(compliant.V2, nil, nil)

	assert.NoError(t, ns.Close())
	assert.Nil(t, ns.Session())
	assert.Equal(t, compliant.V2, ns.Lit(1, compliant.Unknown).Version())

	_, err := ns.ReadParquet("x.parquet")
	assert.Error(t, err)
	_, err = ns.FromColumns(sqlframe.Column{Name: "a", Values: []int64{1}})
	assert.Error(t, err)
	_, err = ns.FromNative(nil)
	assert.Error(t, err)
	_, err = ns.FromGalleon(nil)
	assert.Error(t, err)
}

func TestNamespace_FromArrow(t *testing.T) {
	ns := newTestNamespace(t)
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)

	schema := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int32}}, nil)
	b := array.NewRecordBuilder(mem, schema)
	b.Field(0).(*array.Int32Builder).AppendValues([]int32{4, 5}, nil)
	rec := b.NewRecord()
	b.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	rec.Release()

	lf, err := ns.FromArrow(tbl)
	tbl.Release()
	require.NoError(t, err)

	out, err := lf.Select(ns.Col("id").Add(1))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(5), int64(6)}, collectColumns(t, out)["id"])
}

func TestNamespace_FromGalleon(t *testing.T) {
	ns := newTestNamespace(t)

	g, err := galleon.NewDataFrame(
		galleon.NewSeriesFloat64("score", []float64{1.5, 2.5}),
		galleon.NewSeriesBool("ok", []bool{true, false}),
	)
	require.NoError(t, err)

	lf, err := ns.FromGalleon(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"score", "ok"}, mustColumns(t, lf))

	df, err := lf.Collect(compliant.ImplementationGalleon)
	require.NoError(t, err)
	assert.Equal(t, g.ToMap(), df.(*galleondf.DataFrame).Native().ToMap())
}

func TestNamespace_ReadCSV(t *testing.T) {
	ns := newTestNamespace(t)
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,score\nx,1.5\ny,2\n"), 0o644))

	lf, err := ns.ReadCSV(path)
	require.NoError(t, err)

	schema, err := lf.Schema()
	require.NoError(t, err)
	assert.Equal(t, []compliant.DType{compliant.String, compliant.Float64}, schema.DTypes())

	renamed, err := lf.Rename(map[string]string{"score": "points"})
	require.NoError(t, err)
	assert.Equal(t, []any{1.5, 2.0}, collectColumns(t, renamed)["points"])
}

func TestOpen_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := DefaultConfig()
	cfg.Version = compliant.V1

	ns, err := Open(cfg, nil, reg)
	require.NoError(t, err)
	defer ns.Close()
	assert.Equal(t, compliant.V1, ns.Version())

	lf := newTestFrame(t, ns)
	_ = collectColumns(t, lf)

	count, err := testutil.GatherAndCount(reg, "galleon_sql_queries_total")
	require.NoError(t, err)
	assert.Positive(t, count)

	cfg.Display.TableStyle = "fancy"
	_, err = Open(cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "table_style"))
}
