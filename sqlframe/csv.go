package sqlframe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// CSVReadOptions configures CSV reading behavior
type CSVReadOptions struct {
	Delimiter   rune                      // Field delimiter (default ',')
	HasHeader   bool                      // First row is header (default true)
	ColumnNames []string                  // Override column names
	ColumnTypes map[string]arrow.DataType // Force column types
	NullValues  []string                  // Strings to treat as null
	MaxRows     int                       // Max rows to read (0 = unlimited)
	Comment     rune                      // Skip lines starting with this
}

// DefaultCSVReadOptions returns default CSV reading options
func DefaultCSVReadOptions() CSVReadOptions {
	return CSVReadOptions{
		Delimiter:  ',',
		HasHeader:  true,
		NullValues: []string{"", "null", "NULL", "NA", "N/A"},
	}
}

// ReadCSV registers the contents of a CSV file as a new table.
func (c *SessionContext) ReadCSV(path string, opts ...CSVReadOptions) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return c.ReadCSVFromReader(f, opts...)
}

// ReadCSVFromReader registers CSV data read from r as a new table. Column
// types are inferred as Int64, Float64, Boolean or String unless forced
// through ColumnTypes.
func (c *SessionContext) ReadCSVFromReader(r io.Reader, opts ...CSVReadOptions) (*DataFrame, error) {
	opt := DefaultCSVReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(r)
	if opt.Delimiter != 0 {
		reader.Comma = opt.Delimiter
	}
	reader.Comment = opt.Comment
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var headers []string
	if opt.HasHeader {
		var err error
		if headers, err = reader.Read(); err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
	}
	if len(opt.ColumnNames) > 0 {
		headers = opt.ColumnNames
	}

	var records [][]string
	for opt.MaxRows <= 0 || len(records) < opt.MaxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records), err)
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i := range record {
				headers[i] = fmt.Sprintf("column_%d", i)
			}
		}
		records = append(records, record)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("csv input has no columns")
	}

	nulls := make(map[string]bool, len(opt.NullValues))
	for _, nv := range opt.NullValues {
		nulls[nv] = true
	}
	cell := func(record []string, col int) (string, bool) {
		if col >= len(record) {
			return "", false
		}
		v := strings.TrimSpace(record[col])
		return v, !nulls[v]
	}

	fields := make([]arrow.Field, len(headers))
	for i, name := range headers {
		dt, ok := opt.ColumnTypes[name]
		if !ok {
			dt = inferColumnType(records, i, cell)
		}
		fields[i] = arrow.Field{Name: name, Type: dt, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(c.cfg.Allocator, schema)
	defer b.Release()

	for row, record := range records {
		for i, f := range fields {
			val, ok := cell(record, i)
			if !ok {
				b.Field(i).AppendNull()
				continue
			}
			if err := appendCSVValue(b.Field(i), f.Type, val); err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", row, f.Name, err)
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return c.FromRecord(rec)
}

func inferColumnType(records [][]string, col int, cell func([]string, int) (string, bool)) arrow.DataType {
	hasInt, hasFloat, hasBool, hasString := false, false, false, false

	for _, record := range records {
		val, ok := cell(record, col)
		if !ok {
			continue
		}
		lower := strings.ToLower(val)
		switch {
		case lower == "true" || lower == "false":
			hasBool = true
		case isInt(val):
			hasInt = true
		case isFloat64(val):
			hasFloat = true
		default:
			hasString = true
		}
	}

	// Priority: string > float > int > bool
	switch {
	case hasString || (hasBool && (hasInt || hasFloat)):
		return arrow.BinaryTypes.String
	case hasFloat:
		return arrow.PrimitiveTypes.Float64
	case hasInt:
		return arrow.PrimitiveTypes.Int64
	case hasBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat64(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func appendCSVValue(b array.Builder, dt arrow.DataType, val string) error {
	switch bb := b.(type) {
	case *array.Int64Builder:
		v, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as int64", val)
		}
		bb.Append(v)
	case *array.Int32Builder:
		v, err := strconv.ParseInt(val, 10, 32)
		if err != nil {
			return fmt.Errorf("cannot parse %q as int32", val)
		}
		bb.Append(int32(v))
	case *array.Float64Builder:
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as float64", val)
		}
		bb.Append(v)
	case *array.Float32Builder:
		v, err := strconv.ParseFloat(val, 32)
		if err != nil {
			return fmt.Errorf("cannot parse %q as float32", val)
		}
		bb.Append(float32(v))
	case *array.BooleanBuilder:
		v, err := strconv.ParseBool(strings.ToLower(val))
		if err != nil {
			return fmt.Errorf("cannot parse %q as bool", val)
		}
		bb.Append(v)
	case *array.StringBuilder:
		bb.Append(val)
	case *array.Date32Builder:
		t, err := parseDate(val)
		if err != nil {
			return err
		}
		bb.Append(arrow.Date32FromTime(t))
	default:
		return fmt.Errorf("%w: csv column of type %s", ErrUnsupportedType, dt)
	}
	return nil
}

func parseDate(val string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse %q as date", val)
	}
	return t, nil
}
