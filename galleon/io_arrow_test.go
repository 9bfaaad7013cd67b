package galleon

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrowRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	when := time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC)
	withNull, err := NewSeriesFloat64("f", []float64{1.5, 0, -2}).WithValidity([]bool{true, false, true})
	require.NoError(t, err)

	df, err := NewDataFrame(
		NewSeriesInt64("i", []int64{1, 2, 3}),
		withNull,
		NewSeriesString("s", []string{"a", "b", "c"}),
		NewSeriesBool("b", []bool{true, false, true}),
		NewSeriesDate("d", []time.Time{when, when, when}),
		NewSeriesDateTime("ts", []time.Time{when, when, when}),
		NewSeriesBinary("bin", [][]byte{{1}, {2}, {3}}),
		NewSeriesNull("n", 3),
	)
	require.NoError(t, err)

	tbl, err := df.ToArrowTable(mem)
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, int64(3), tbl.NumRows())
	assert.Equal(t, arrow.DATE32, tbl.Schema().Field(4).Type.ID())
	assert.Equal(t, arrow.TIMESTAMP, tbl.Schema().Field(5).Type.ID())

	back, err := NewDataFrameFromArrowTable(tbl)
	require.NoError(t, err)

	assert.Equal(t, df.ColumnNames(), back.ColumnNames())
	assert.Equal(t, df.DTypes(), back.DTypes())
	assert.Equal(t, []any{1.5, nil, -2.0}, back.Column("f").ToSlice())
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), back.Column("d").Get(0))
	assert.True(t, when.Equal(back.Column("ts").Get(1).(time.Time)))
	assert.Equal(t, []byte{2}, back.Column("bin").Get(1))
	assert.Equal(t, 3, back.Column("n").NullCount())
}

func TestNewDataFrameFromArrowChunked(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "x", Type: arrow.PrimitiveTypes.Int16, Nullable: true},
		{Name: "u", Type: arrow.PrimitiveTypes.Uint8, Nullable: true},
	}, nil)

	build := func(xs []int16, us []uint8) arrow.Record {
		b := array.NewRecordBuilder(mem, schema)
		defer b.Release()
		b.Field(0).(*array.Int16Builder).AppendValues(xs, nil)
		b.Field(1).(*array.Uint8Builder).AppendValues(us, nil)
		return b.NewRecord()
	}
	r1 := build([]int16{1, 2}, []uint8{7, 8})
	defer r1.Release()
	r2 := build([]int16{3}, []uint8{9})
	defer r2.Release()

	tbl := array.NewTableFromRecords(schema, []arrow.Record{r1, r2})
	defer tbl.Release()

	df, err := NewDataFrameFromArrowTable(tbl)
	require.NoError(t, err)
	assert.Equal(t, 3, df.Height())
	assert.Equal(t, Int32, df.Column("x").DType())
	assert.Equal(t, []any{int32(1), int32(2), int32(3)}, df.Column("x").ToSlice())
	assert.Equal(t, UInt32, df.Column("u").DType())

	single, err := NewDataFrameFromArrow(r2)
	require.NoError(t, err)
	assert.Equal(t, 1, single.Height())
}

func TestNewDataFrameFromArrowDictionary(t *testing.T) {
	mem := memory.NewGoAllocator()
	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	b := array.NewDictionaryBuilder(mem, dt).(*array.BinaryDictionaryBuilder)
	defer b.Release()
	require.NoError(t, b.AppendString("red"))
	require.NoError(t, b.AppendString("blue"))
	require.NoError(t, b.AppendString("red"))
	arr := b.NewArray()
	defer arr.Release()

	schema := arrow.NewSchema([]arrow.Field{{Name: "c", Type: dt, Nullable: true}}, nil)
	rec := array.NewRecord(schema, []arrow.Array{arr}, 3)
	defer rec.Release()

	df, err := NewDataFrameFromArrow(rec)
	require.NoError(t, err)
	assert.Equal(t, String, df.Column("c").DType())
	assert.Equal(t, []string{"red", "blue", "red"}, df.Column("c").Strings())
}

func TestNewDataFrameFromArrowNil(t *testing.T) {
	_, err := NewDataFrameFromArrow(nil)
	require.Error(t, err)
	_, err = NewDataFrameFromArrowTable(nil)
	require.Error(t, err)
}
