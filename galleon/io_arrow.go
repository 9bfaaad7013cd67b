package galleon

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ============================================================================
// Arrow Export
// ============================================================================

// ToArrow exports a DataFrame to an Arrow Record.
// The caller is responsible for calling Release() on the returned Record.
func (df *DataFrame) ToArrow(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	fields := make([]arrow.Field, df.Width())
	for i, col := range df.columns {
		arrowType, err := dtypeToArrowType(col.DType())
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name(), err)
		}
		fields[i] = arrow.Field{Name: col.Name(), Type: arrowType, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	arrays := make([]arrow.Array, df.Width())
	for i, col := range df.columns {
		arr, err := seriesToArrowArray(col, mem)
		if err != nil {
			for j := 0; j < i; j++ {
				arrays[j].Release()
			}
			return nil, fmt.Errorf("column %s: %w", col.Name(), err)
		}
		arrays[i] = arr
	}

	record := array.NewRecord(schema, arrays, int64(df.Height()))

	// Record retains the arrays
	for _, arr := range arrays {
		arr.Release()
	}

	return record, nil
}

// ToArrowTable exports a DataFrame to an Arrow Table.
// The caller is responsible for calling Release() on the returned Table.
func (df *DataFrame) ToArrowTable(mem memory.Allocator) (arrow.Table, error) {
	record, err := df.ToArrow(mem)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	return array.NewTableFromRecords(record.Schema(), []arrow.Record{record}), nil
}

// dtypeToArrowType converts Galleon DType to Arrow DataType
func dtypeToArrowType(dtype DType) (arrow.DataType, error) {
	switch dtype {
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case UInt64:
		return arrow.PrimitiveTypes.Uint64, nil
	case UInt32:
		return arrow.PrimitiveTypes.Uint32, nil
	case Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case String:
		return arrow.BinaryTypes.String, nil
	case Binary:
		return arrow.BinaryTypes.Binary, nil
	case Date:
		return arrow.FixedWidthTypes.Date32, nil
	case DateTime:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case Null:
		return arrow.Null, nil
	default:
		return nil, fmt.Errorf("unsupported dtype: %s", dtype)
	}
}

// seriesToArrowArray converts a Series to an Arrow Array
func seriesToArrowArray(s *Series, mem memory.Allocator) (arrow.Array, error) {
	valid := s.valid

	switch d := s.data.(type) {
	case []float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.AppendValues(d, valid)
		return b.NewArray(), nil

	case []float32:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		b.AppendValues(d, valid)
		return b.NewArray(), nil

	case []int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(d, valid)
		return b.NewArray(), nil

	case []int32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.AppendValues(d, valid)
		return b.NewArray(), nil

	case []uint64:
		b := array.NewUint64Builder(mem)
		defer b.Release()
		b.AppendValues(d, valid)
		return b.NewArray(), nil

	case []uint32:
		b := array.NewUint32Builder(mem)
		defer b.Release()
		b.AppendValues(d, valid)
		return b.NewArray(), nil

	case []bool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.AppendValues(d, valid)
		return b.NewArray(), nil

	case []string:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.AppendValues(d, valid)
		return b.NewArray(), nil

	case [][]byte:
		b := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
		defer b.Release()
		b.AppendValues(d, valid)
		return b.NewArray(), nil

	case []time.Time:
		if s.dtype == Date {
			b := array.NewDate32Builder(mem)
			defer b.Release()
			for i, t := range d {
				if s.IsValid(i) {
					b.Append(arrow.Date32FromTime(t))
				} else {
					b.AppendNull()
				}
			}
			return b.NewArray(), nil
		}
		b := array.NewTimestampBuilder(mem, arrow.FixedWidthTypes.Timestamp_us.(*arrow.TimestampType))
		defer b.Release()
		for i, t := range d {
			if s.IsValid(i) {
				b.Append(arrow.Timestamp(t.UnixMicro()))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil

	case nil:
		b := array.NewNullBuilder(mem)
		defer b.Release()
		b.AppendEmptyValues(s.Len())
		return b.NewArray(), nil

	default:
		return nil, fmt.Errorf("unsupported dtype for Arrow export: %s", s.DType())
	}
}

// ============================================================================
// Arrow Import
// ============================================================================

// NewDataFrameFromArrow creates a DataFrame from an Arrow Record.
func NewDataFrameFromArrow(record arrow.Record) (*DataFrame, error) {
	if record == nil {
		return nil, fmt.Errorf("record is nil")
	}

	schema := record.Schema()
	series := make([]*Series, int(record.NumCols()))
	for i := range series {
		field := schema.Field(i)
		s, err := arrowChunksToSeries(field.Name, field.Type, []arrow.Array{record.Column(i)})
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		series[i] = s
	}

	return NewDataFrame(series...)
}

// NewDataFrameFromArrowTable creates a DataFrame from an Arrow Table.
// Chunked columns are concatenated.
func NewDataFrameFromArrowTable(table arrow.Table) (*DataFrame, error) {
	if table == nil {
		return nil, fmt.Errorf("table is nil")
	}

	schema := table.Schema()
	series := make([]*Series, int(table.NumCols()))
	for i := range series {
		field := schema.Field(i)
		chunks := table.Column(i).Data().Chunks()
		s, err := arrowChunksToSeries(field.Name, field.Type, chunks)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		series[i] = s
	}

	return NewDataFrame(series...)
}

// collect gathers the values of every chunk, recording nulls.
func collect[T any](chunks []arrow.Array, value func(arr arrow.Array, i int) T) ([]T, []bool) {
	n := 0
	for _, c := range chunks {
		n += c.Len()
	}
	data := make([]T, 0, n)
	valid := make([]bool, 0, n)
	hasNulls := false
	for _, c := range chunks {
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				var zero T
				data = append(data, zero)
				valid = append(valid, false)
				hasNulls = true
				continue
			}
			data = append(data, value(c, i))
			valid = append(valid, true)
		}
	}
	if !hasNulls {
		valid = nil
	}
	return data, valid
}

func withNulls(s *Series, valid []bool) *Series {
	s.valid = valid
	return s
}

// arrowChunksToSeries converts the chunks of one column to a Series
func arrowChunksToSeries(name string, dt arrow.DataType, chunks []arrow.Array) (*Series, error) {
	switch dt.ID() {
	case arrow.FLOAT64:
		d, v := collect(chunks, func(a arrow.Array, i int) float64 { return a.(*array.Float64).Value(i) })
		return withNulls(NewSeriesFloat64(name, d), v), nil
	case arrow.FLOAT32:
		d, v := collect(chunks, func(a arrow.Array, i int) float32 { return a.(*array.Float32).Value(i) })
		return withNulls(NewSeriesFloat32(name, d), v), nil
	case arrow.INT64:
		d, v := collect(chunks, func(a arrow.Array, i int) int64 { return a.(*array.Int64).Value(i) })
		return withNulls(NewSeriesInt64(name, d), v), nil
	case arrow.INT32:
		d, v := collect(chunks, func(a arrow.Array, i int) int32 { return a.(*array.Int32).Value(i) })
		return withNulls(NewSeriesInt32(name, d), v), nil
	case arrow.INT16:
		d, v := collect(chunks, func(a arrow.Array, i int) int32 { return int32(a.(*array.Int16).Value(i)) })
		return withNulls(NewSeriesInt32(name, d), v), nil
	case arrow.INT8:
		d, v := collect(chunks, func(a arrow.Array, i int) int32 { return int32(a.(*array.Int8).Value(i)) })
		return withNulls(NewSeriesInt32(name, d), v), nil
	case arrow.UINT64:
		d, v := collect(chunks, func(a arrow.Array, i int) uint64 { return a.(*array.Uint64).Value(i) })
		return withNulls(NewSeriesUInt64(name, d), v), nil
	case arrow.UINT32:
		d, v := collect(chunks, func(a arrow.Array, i int) uint32 { return a.(*array.Uint32).Value(i) })
		return withNulls(NewSeriesUInt32(name, d), v), nil
	case arrow.UINT16:
		d, v := collect(chunks, func(a arrow.Array, i int) uint32 { return uint32(a.(*array.Uint16).Value(i)) })
		return withNulls(NewSeriesUInt32(name, d), v), nil
	case arrow.UINT8:
		d, v := collect(chunks, func(a arrow.Array, i int) uint32 { return uint32(a.(*array.Uint8).Value(i)) })
		return withNulls(NewSeriesUInt32(name, d), v), nil
	case arrow.BOOL:
		d, v := collect(chunks, func(a arrow.Array, i int) bool { return a.(*array.Boolean).Value(i) })
		return withNulls(NewSeriesBool(name, d), v), nil
	case arrow.STRING:
		d, v := collect(chunks, func(a arrow.Array, i int) string { return a.(*array.String).Value(i) })
		return withNulls(NewSeriesString(name, d), v), nil
	case arrow.LARGE_STRING:
		d, v := collect(chunks, func(a arrow.Array, i int) string { return a.(*array.LargeString).Value(i) })
		return withNulls(NewSeriesString(name, d), v), nil
	case arrow.BINARY:
		d, v := collect(chunks, func(a arrow.Array, i int) []byte {
			return append([]byte(nil), a.(*array.Binary).Value(i)...)
		})
		return withNulls(NewSeriesBinary(name, d), v), nil
	case arrow.DATE32:
		d, v := collect(chunks, func(a arrow.Array, i int) time.Time { return a.(*array.Date32).Value(i).ToTime() })
		return withNulls(&Series{name: name, dtype: Date, data: d, length: len(d)}, v), nil
	case arrow.TIMESTAMP:
		unit := dt.(*arrow.TimestampType).Unit
		d, v := collect(chunks, func(a arrow.Array, i int) time.Time { return a.(*array.Timestamp).Value(i).ToTime(unit) })
		return withNulls(NewSeriesDateTime(name, d), v), nil
	case arrow.NULL:
		n := 0
		for _, c := range chunks {
			n += c.Len()
		}
		return NewSeriesNull(name, n), nil
	case arrow.DICTIONARY:
		if vt := dt.(*arrow.DictionaryType).ValueType.ID(); vt != arrow.STRING && vt != arrow.LARGE_STRING {
			return nil, fmt.Errorf("unsupported dictionary value type: %s", dt)
		}
		// Dictionary encoded strings are decoded
		d, v := collect(chunks, func(a arrow.Array, i int) string {
			dict := a.(*array.Dictionary)
			return dictionaryString(dict.Dictionary(), dict.GetValueIndex(i))
		})
		return withNulls(NewSeriesString(name, d), v), nil
	default:
		return nil, fmt.Errorf("unsupported Arrow type: %s", dt)
	}
}

func dictionaryString(dict arrow.Array, i int) string {
	switch d := dict.(type) {
	case *array.String:
		return d.Value(i)
	case *array.LargeString:
		return d.Value(i)
	default:
		return ""
	}
}
