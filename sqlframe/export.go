package sqlframe

import (
	"fmt"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/go-kit/log/level"

	"github.com/NerdMeNot/galleon-sql/galleon"
)

// RowSet is a materialized, row-oriented result. Values are Go values
// matching the schema: int8..uint64, float32/64, bool, string, []byte,
// time.Time for dates and timestamps, and nil for nulls.
type RowSet struct {
	Schema *arrow.Schema
	Rows   [][]any
}

// Columns returns the column names.
func (r *RowSet) Columns() []string { return fieldNames(r.Schema) }

// Len returns the number of rows.
func (r *RowSet) Len() int { return len(r.Rows) }

// Column returns the values of one column.
func (r *RowSet) Column(name string) ([]any, error) {
	idx := r.Schema.FieldIndices(name)
	if len(idx) == 0 {
		return nil, &FieldNotFoundError{Name: name, Available: r.Columns()}
	}
	out := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row[idx[0]]
	}
	return out, nil
}

// ============================================================================
// Execution
// ============================================================================

// scanRows executes the frame and calls fn with each row converted to Go
// values.
func (df *DataFrame) scanRows(fn func(row []any) error) error {
	rows, err := df.ctx.query(df.query, df.args)
	if err != nil {
		return err
	}
	defer rows.Close()

	n := df.schema.NumFields()
	raw := make([]any, n)
	ptrs := make([]any, n)
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]any, n)
		for i, f := range df.schema.Fields() {
			v, err := fromStorage(f.Type, raw[i])
			if err != nil {
				return fmt.Errorf("column %q: %w", f.Name, err)
			}
			row[i] = v
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ToRows executes the frame and returns its rows.
func (df *DataFrame) ToRows() (*RowSet, error) {
	out := &RowSet{Schema: df.schema}
	err := df.scanRows(func(row []any) error {
		out.Rows = append(out.Rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	level.Debug(df.ctx.logger).Log("msg", "collected rows", "rows", len(out.Rows))
	return out, nil
}

// ToArrowTable executes the frame and returns an Arrow table. The caller
// must Release it.
func (df *DataFrame) ToArrowTable() (arrow.Table, error) {
	b := array.NewRecordBuilder(df.ctx.cfg.Allocator, df.schema)
	defer b.Release()

	var records []arrow.Record
	defer func() {
		for _, r := range records {
			r.Release()
		}
	}()

	pending := 0
	err := df.scanRows(func(row []any) error {
		for i, v := range row {
			if err := appendValue(b.Field(i), v); err != nil {
				return fmt.Errorf("column %q: %w", df.schema.Field(i).Name, err)
			}
		}
		pending++
		if pending == df.ctx.cfg.ExportBatchSize {
			records = append(records, b.NewRecord())
			pending = 0
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pending > 0 || len(records) == 0 {
		records = append(records, b.NewRecord())
	}

	return array.NewTableFromRecords(df.schema, records), nil
}

// ToGalleon executes the frame and returns a galleon DataFrame.
func (df *DataFrame) ToGalleon() (*galleon.DataFrame, error) {
	tbl, err := df.ToArrowTable()
	if err != nil {
		return nil, err
	}
	defer tbl.Release()
	return galleon.NewDataFrameFromArrowTable(tbl)
}

// ============================================================================
// Value conversion
// ============================================================================

// fromStorage converts a value read from SQLite to the Go value for dt.
func fromStorage(dt arrow.DataType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch dt.ID() {
	case arrow.NULL:
		return nil, nil
	case arrow.BOOL:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return n != 0, nil
	case arrow.INT8:
		n, err := toInt64(v)
		return int8(n), err
	case arrow.INT16:
		n, err := toInt64(v)
		return int16(n), err
	case arrow.INT32:
		n, err := toInt64(v)
		return int32(n), err
	case arrow.INT64:
		return toInt64(v)
	case arrow.UINT8:
		n, err := toInt64(v)
		return uint8(n), err
	case arrow.UINT16:
		n, err := toInt64(v)
		return uint16(n), err
	case arrow.UINT32:
		n, err := toInt64(v)
		return uint32(n), err
	case arrow.UINT64:
		n, err := toInt64(v)
		return uint64(n), err
	case arrow.FLOAT32:
		f, err := toFloat64(v)
		return float32(f), err
	case arrow.FLOAT64:
		return toFloat64(v)
	case arrow.STRING:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		default:
			return fmt.Sprint(s), nil
		}
	case arrow.BINARY:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		default:
			return nil, fmt.Errorf("%w: %T stored in binary column", ErrTypeMismatch, v)
		}
	case arrow.DATE32:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return arrow.Date32(n).ToTime(), nil
	case arrow.TIMESTAMP:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return arrow.Timestamp(n).ToTime(dt.(*arrow.TimestampType).Unit), nil
	case arrow.DURATION:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return time.Duration(n) * dt.(*arrow.DurationType).Unit.Multiplier(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, dt)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, n)
		}
		return i, nil
	case time.Time:
		return n.UnixMicro(), nil
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", ErrTypeMismatch, v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrTypeMismatch, v)
	}
}

// appendValue appends a Go value produced by fromStorage to b.
func appendValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch bb := b.(type) {
	case *array.BooleanBuilder:
		bb.Append(v.(bool))
	case *array.Int8Builder:
		bb.Append(v.(int8))
	case *array.Int16Builder:
		bb.Append(v.(int16))
	case *array.Int32Builder:
		bb.Append(v.(int32))
	case *array.Int64Builder:
		bb.Append(v.(int64))
	case *array.Uint8Builder:
		bb.Append(v.(uint8))
	case *array.Uint16Builder:
		bb.Append(v.(uint16))
	case *array.Uint32Builder:
		bb.Append(v.(uint32))
	case *array.Uint64Builder:
		bb.Append(v.(uint64))
	case *array.Float32Builder:
		bb.Append(v.(float32))
	case *array.Float64Builder:
		bb.Append(v.(float64))
	case *array.StringBuilder:
		bb.Append(v.(string))
	case *array.BinaryBuilder:
		bb.Append(v.([]byte))
	case *array.Date32Builder:
		bb.Append(arrow.Date32FromTime(v.(time.Time)))
	case *array.TimestampBuilder:
		unit := bb.Type().(*arrow.TimestampType).Unit
		ts, err := arrow.TimestampFromTime(v.(time.Time), unit)
		if err != nil {
			return err
		}
		bb.Append(ts)
	case *array.DurationBuilder:
		unit := bb.Type().(*arrow.DurationType).Unit
		bb.Append(arrow.Duration(v.(time.Duration) / unit.Multiplier()))
	default:
		return fmt.Errorf("%w: builder %T", ErrUnsupportedType, b)
	}
	return nil
}
