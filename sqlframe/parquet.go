package sqlframe

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	pqparquet "github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
)

// ParquetWriteOptions configures Parquet writing behavior
type ParquetWriteOptions struct {
	// Compression is one of "snappy" (default), "gzip", "zstd" or "none".
	Compression string
	// RowGroupBatch is the maximum number of rows per row group.
	RowGroupBatch int
}

// DefaultParquetWriteOptions returns default Parquet writing options
func DefaultParquetWriteOptions() ParquetWriteOptions {
	return ParquetWriteOptions{Compression: "snappy", RowGroupBatch: 1000}
}

// ============================================================================
// Writing
// ============================================================================

// WriteParquetFile executes the frame and writes the result to path.
func (df *DataFrame) WriteParquetFile(path string, opts ...ParquetWriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := df.WriteParquet(f, opts...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteParquet executes the frame and writes the result to w. Columns are
// written in frame order. w is not closed.
func (df *DataFrame) WriteParquet(w io.Writer, opts ...ParquetWriteOptions) error {
	opt := DefaultParquetWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.RowGroupBatch <= 0 {
		opt.RowGroupBatch = DefaultParquetWriteOptions().RowGroupBatch
	}

	codec, err := parquetCodec(opt.Compression)
	if err != nil {
		return err
	}
	for _, f := range df.schema.Fields() {
		if err := checkParquetType(f.Type); err != nil {
			return fmt.Errorf("column %q: %w", f.Name, err)
		}
	}

	start := time.Now()
	tbl, err := df.ToArrowTable()
	if err != nil {
		df.ctx.metrics.observe("parquet", start, err)
		return err
	}
	defer tbl.Release()

	props := pqparquet.NewWriterProperties(
		pqparquet.WithCompression(codec),
		pqparquet.WithAllocator(df.ctx.cfg.Allocator),
	)
	// The file writer closes its sink; the caller owns w.
	sink := struct{ io.Writer }{w}
	err = pqarrow.WriteTable(tbl, sink, int64(opt.RowGroupBatch), props, pqarrow.DefaultWriterProps())
	df.ctx.metrics.observe("parquet", start, err)
	if err != nil {
		return fmt.Errorf("failed to write parquet: %w", err)
	}
	return nil
}

func parquetCodec(name string) (compress.Compression, error) {
	switch name {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "none":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unsupported parquet compression: %q", name)
	}
}

// checkParquetType rejects column types the reader cannot load back.
func checkParquetType(dt arrow.DataType) error {
	switch dt.ID() {
	case arrow.BOOL, arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64, arrow.STRING, arrow.BINARY,
		arrow.DATE32, arrow.TIMESTAMP, arrow.NULL:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, dt)
	}
}

// ============================================================================
// Reading
// ============================================================================

// ReadParquet registers the contents of a Parquet file as a new table.
func (c *SessionContext) ReadParquet(path string) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return c.ReadParquetFromReader(f, stat.Size())
}

// ReadParquetFromReader registers Parquet data read from r as a new table.
// Only flat schemas are supported.
func (c *SessionContext) ReadParquetFromReader(r io.ReaderAt, size int64) (*DataFrame, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	pschema := pf.Schema()
	fields := make([]arrow.Field, 0, len(pschema.Fields()))
	for _, field := range pschema.Fields() {
		if !field.Leaf() {
			return nil, fmt.Errorf("column %q: %w: nested parquet columns", field.Name(), ErrUnsupportedType)
		}
		if field.Repeated() {
			return nil, fmt.Errorf("column %q: %w: repeated parquet columns", field.Name(), ErrUnsupportedType)
		}
		dt, err := arrowTypeOf(field.Type())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", field.Name(), err)
		}
		fields = append(fields, arrow.Field{Name: field.Name(), Type: dt, Nullable: true})
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(c.cfg.Allocator, schema)
	defer b.Release()

	buf := make([]parquet.Row, 256)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				for _, v := range row {
					col := v.Column()
					if col < 0 || col >= len(fields) {
						continue
					}
					if err := appendParquetValue(b.Field(col), fields[col].Type, v); err != nil {
						rows.Close()
						return nil, fmt.Errorf("column %q: %w", fields[col].Name, err)
					}
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to read rows: %w", err)
			}
			if n == 0 {
				break
			}
		}
		rows.Close()
	}

	rec := b.NewRecord()
	defer rec.Release()
	return c.FromRecord(rec)
}

func arrowTypeOf(t parquet.Type) (arrow.DataType, error) {
	lt := t.LogicalType()
	if lt == nil {
		lt = &format.LogicalType{}
	}

	switch t.Kind() {
	case parquet.Boolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case parquet.Int32:
		switch {
		case lt.Date != nil:
			return arrow.FixedWidthTypes.Date32, nil
		case lt.Integer != nil && !lt.Integer.IsSigned:
			switch lt.Integer.BitWidth {
			case 8:
				return arrow.PrimitiveTypes.Uint8, nil
			case 16:
				return arrow.PrimitiveTypes.Uint16, nil
			default:
				return arrow.PrimitiveTypes.Uint32, nil
			}
		case lt.Integer != nil && lt.Integer.BitWidth == 8:
			return arrow.PrimitiveTypes.Int8, nil
		case lt.Integer != nil && lt.Integer.BitWidth == 16:
			return arrow.PrimitiveTypes.Int16, nil
		}
		return arrow.PrimitiveTypes.Int32, nil
	case parquet.Int64:
		switch {
		case lt.Timestamp != nil:
			unit := arrow.Millisecond
			switch {
			case lt.Timestamp.Unit.Micros != nil:
				unit = arrow.Microsecond
			case lt.Timestamp.Unit.Nanos != nil:
				unit = arrow.Nanosecond
			}
			tz := ""
			if lt.Timestamp.IsAdjustedToUTC {
				tz = "UTC"
			}
			return &arrow.TimestampType{Unit: unit, TimeZone: tz}, nil
		case lt.Integer != nil && !lt.Integer.IsSigned:
			return arrow.PrimitiveTypes.Uint64, nil
		}
		return arrow.PrimitiveTypes.Int64, nil
	case parquet.Float:
		return arrow.PrimitiveTypes.Float32, nil
	case parquet.Double:
		return arrow.PrimitiveTypes.Float64, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		if lt.UTF8 != nil || lt.Enum != nil || lt.Json != nil {
			return arrow.BinaryTypes.String, nil
		}
		return arrow.BinaryTypes.Binary, nil
	default:
		return nil, fmt.Errorf("%w: parquet %s", ErrUnsupportedType, t)
	}
}

func appendParquetValue(b array.Builder, dt arrow.DataType, v parquet.Value) error {
	if v.IsNull() {
		b.AppendNull()
		return nil
	}
	switch bb := b.(type) {
	case *array.BooleanBuilder:
		bb.Append(v.Boolean())
	case *array.Int8Builder:
		bb.Append(int8(v.Int32()))
	case *array.Int16Builder:
		bb.Append(int16(v.Int32()))
	case *array.Int32Builder:
		bb.Append(v.Int32())
	case *array.Int64Builder:
		bb.Append(v.Int64())
	case *array.Uint8Builder:
		bb.Append(uint8(v.Int32()))
	case *array.Uint16Builder:
		bb.Append(uint16(v.Int32()))
	case *array.Uint32Builder:
		bb.Append(uint32(v.Int32()))
	case *array.Uint64Builder:
		bb.Append(uint64(v.Int64()))
	case *array.Float32Builder:
		bb.Append(v.Float())
	case *array.Float64Builder:
		bb.Append(v.Double())
	case *array.StringBuilder:
		bb.Append(string(v.ByteArray()))
	case *array.BinaryBuilder:
		bb.Append(append([]byte(nil), v.ByteArray()...))
	case *array.Date32Builder:
		bb.Append(arrow.Date32(v.Int32()))
	case *array.TimestampBuilder:
		bb.Append(arrow.Timestamp(v.Int64()))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, dt)
	}
	return nil
}
