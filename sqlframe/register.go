package sqlframe

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/go-kit/log/level"

	"github.com/NerdMeNot/galleon-sql/galleon"
)

// ============================================================================
// Arrow registration
// ============================================================================

// FromArrow registers tbl under a generated name and returns a frame over it.
func (c *SessionContext) FromArrow(tbl arrow.Table) (*DataFrame, error) {
	name := generatedTableName()
	if err := c.RegisterArrow(name, tbl); err != nil {
		return nil, err
	}
	return c.Table(name)
}

// FromRecord registers a single record batch under a generated name.
func (c *SessionContext) FromRecord(rec arrow.Record) (*DataFrame, error) {
	tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer tbl.Release()
	return c.FromArrow(tbl)
}

// FromGalleon registers an in-memory galleon frame and returns a frame over
// it.
func (c *SessionContext) FromGalleon(gdf *galleon.DataFrame) (*DataFrame, error) {
	if gdf == nil {
		return nil, fmt.Errorf("galleon frame is nil")
	}
	tbl, err := gdf.ToArrowTable(c.cfg.Allocator)
	if err != nil {
		return nil, fmt.Errorf("failed to export galleon frame: %w", err)
	}
	defer tbl.Release()
	return c.FromArrow(tbl)
}

// RegisterArrow copies tbl into a new table called name.
func (c *SessionContext) RegisterArrow(name string, tbl arrow.Table) error {
	schema, err := storageSchema(tbl.Schema())
	if err != nil {
		return err
	}

	c.mu.Lock()
	_, exists := c.tables[name]
	c.mu.Unlock()
	if exists {
		return fmt.Errorf("table %q is already registered", name)
	}

	if err := c.exec(createTableSQL(name, schema)); err != nil {
		return err
	}
	if err := c.insertTable(name, schema, tbl); err != nil {
		if dropErr := c.exec("DROP TABLE IF EXISTS " + quoteIdent(name)); dropErr != nil {
			level.Warn(c.logger).Log("msg", "failed to drop partially registered table", "table", name, "err", dropErr)
		}
		return err
	}

	c.mu.Lock()
	c.tables[name] = schema
	c.mu.Unlock()

	level.Debug(c.logger).Log("msg", "registered table", "table", name, "rows", tbl.NumRows(), "columns", schema.NumFields())
	return nil
}

// DeregisterTable drops a registered table. Frames over it fail on export.
func (c *SessionContext) DeregisterTable(name string) error {
	c.mu.Lock()
	_, ok := c.tables[name]
	delete(c.tables, name)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("table %q is not registered", name)
	}
	return c.exec("DROP TABLE " + quoteIdent(name))
}

func createTableSQL(name string, schema *arrow.Schema) string {
	defs := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		if decl := declaredType(f.Type); decl != "" {
			defs[i] = quoteIdent(f.Name) + " " + decl
		} else {
			defs[i] = quoteIdent(f.Name)
		}
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), joinComma(defs))
}

// declaredType is the SQLite column type for dt. Only the four plain
// affinities are used so the driver never reinterprets stored values.
func declaredType(dt arrow.DataType) string {
	switch id := dt.ID(); {
	case id == arrow.NULL:
		return ""
	case id == arrow.BOOL, arrow.IsInteger(id), id == arrow.DATE32, id == arrow.TIMESTAMP:
		return "INTEGER"
	case arrow.IsFloating(id):
		return "REAL"
	case id == arrow.STRING:
		return "TEXT"
	default:
		return "BLOB"
	}
}

// storageSchema normalizes an input schema onto the types a stored table
// can round-trip.
func storageSchema(in *arrow.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, in.NumFields())
	seen := make(map[string]bool, in.NumFields())
	for i, f := range in.Fields() {
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f.Name)
		}
		seen[f.Name] = true

		dt, err := storageType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		fields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: true}
	}
	md := in.Metadata()
	return arrow.NewSchema(fields, &md), nil
}

func storageType(dt arrow.DataType) (arrow.DataType, error) {
	switch dt.ID() {
	case arrow.NULL, arrow.BOOL,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64,
		arrow.STRING, arrow.BINARY, arrow.DATE32, arrow.TIMESTAMP, arrow.DURATION:
		return dt, nil
	case arrow.LARGE_STRING, arrow.STRING_VIEW:
		return arrow.BinaryTypes.String, nil
	case arrow.LARGE_BINARY, arrow.BINARY_VIEW:
		return arrow.BinaryTypes.Binary, nil
	case arrow.DATE64:
		return arrow.FixedWidthTypes.Date32, nil
	case arrow.DICTIONARY:
		return storageType(dt.(*arrow.DictionaryType).ValueType)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, dt)
	}
}

func (c *SessionContext) insertTable(name string, schema *arrow.Schema, tbl arrow.Table) error {
	if tbl.NumRows() == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", schema.NumFields()), ", ")
	stmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), placeholders)

	tr := array.NewTableReader(tbl, int64(c.cfg.InsertBatchSize))
	defer tr.Release()

	start := time.Now()
	row := make([]any, schema.NumFields())
	for tr.Next() {
		rec := tr.Record()
		if err := c.insertRecord(stmt, rec, row); err != nil {
			c.metrics.observe("insert", start, err)
			return err
		}
	}
	if err := tr.Err(); err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}
	c.metrics.observe("insert", start, nil)
	return nil
}

// insertRecord writes one batch inside a single transaction.
func (c *SessionContext) insertRecord(stmt string, rec arrow.Record, row []any) (err error) {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	prepared, err := tx.Prepare(stmt)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer prepared.Close()

	cols := rec.Columns()
	for i := 0; i < int(rec.NumRows()); i++ {
		for j, col := range cols {
			if row[j], err = valueAt(col, i); err != nil {
				return fmt.Errorf("column %q: %w", rec.ColumnName(j), err)
			}
		}
		if _, err = prepared.Exec(row...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}
	return tx.Commit()
}

// valueAt returns the value bound to SQLite for row i of arr.
func valueAt(arr arrow.Array, i int) (any, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Null:
		return nil, nil
	case *array.Boolean:
		if a.Value(i) {
			return int64(1), nil
		}
		return int64(0), nil
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Uint8:
		return int64(a.Value(i)), nil
	case *array.Uint16:
		return int64(a.Value(i)), nil
	case *array.Uint32:
		return int64(a.Value(i)), nil
	case *array.Uint64:
		v := a.Value(i)
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedType, v)
		}
		return int64(v), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.StringView:
		return a.Value(i), nil
	case *array.Binary:
		return a.Value(i), nil
	case *array.LargeBinary:
		return a.Value(i), nil
	case *array.BinaryView:
		return a.Value(i), nil
	case *array.Date32:
		return int64(a.Value(i)), nil
	case *array.Date64:
		return int64(arrow.Date32FromTime(a.Value(i).ToTime())), nil
	case *array.Timestamp:
		return int64(a.Value(i)), nil
	case *array.Duration:
		return int64(a.Value(i)), nil
	case *array.Dictionary:
		return valueAt(a.Dictionary(), a.GetValueIndex(i))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, arr.DataType())
	}
}

// ============================================================================
// Go slice registration
// ============================================================================

// Column is a named Go slice used to build a table. Values may be []int,
// []int32, []int64, []float32, []float64, []bool, []string, [][]byte,
// []time.Time or []any. A []any column takes the type of its first non-nil
// element and treats nil elements as nulls.
type Column struct {
	Name   string
	Values any
}

// FromColumns registers the given columns as a new table.
func (c *SessionContext) FromColumns(cols ...Column) (*DataFrame, error) {
	rec, err := buildRecord(c.cfg, cols)
	if err != nil {
		return nil, err
	}
	defer rec.Release()
	return c.FromRecord(rec)
}

func buildRecord(cfg Config, cols []Column) (arrow.Record, error) {
	fields := make([]arrow.Field, len(cols))
	length := -1
	for i, col := range cols {
		dt, n, err := sliceType(col.Values)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		if length >= 0 && n != length {
			return nil, fmt.Errorf("column %q has length %d, expected %d", col.Name, n, length)
		}
		length = n
		fields[i] = arrow.Field{Name: col.Name, Type: dt, Nullable: true}
	}

	schema := arrow.NewSchema(fields, nil)
	b := array.NewRecordBuilder(cfg.Allocator, schema)
	defer b.Release()

	for i, col := range cols {
		if err := appendSlice(b.Field(i), col.Values); err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
	}
	return b.NewRecord(), nil
}

func sliceType(values any) (arrow.DataType, int, error) {
	switch v := values.(type) {
	case []int:
		return arrow.PrimitiveTypes.Int64, len(v), nil
	case []int32:
		return arrow.PrimitiveTypes.Int32, len(v), nil
	case []int64:
		return arrow.PrimitiveTypes.Int64, len(v), nil
	case []float32:
		return arrow.PrimitiveTypes.Float32, len(v), nil
	case []float64:
		return arrow.PrimitiveTypes.Float64, len(v), nil
	case []bool:
		return arrow.FixedWidthTypes.Boolean, len(v), nil
	case []string:
		return arrow.BinaryTypes.String, len(v), nil
	case [][]byte:
		return arrow.BinaryTypes.Binary, len(v), nil
	case []time.Time:
		return arrow.FixedWidthTypes.Timestamp_us, len(v), nil
	case []any:
		for _, x := range v {
			if x == nil {
				continue
			}
			_, dt, err := normalizeLiteral(x)
			return dt, len(v), err
		}
		return arrow.Null, len(v), nil
	default:
		return nil, 0, fmt.Errorf("%w: column of type %T", ErrUnsupportedType, values)
	}
}

func appendSlice(b array.Builder, values any) error {
	switch v := values.(type) {
	case []int:
		ib := b.(*array.Int64Builder)
		for _, x := range v {
			ib.Append(int64(x))
		}
	case []int32:
		b.(*array.Int32Builder).AppendValues(v, nil)
	case []int64:
		b.(*array.Int64Builder).AppendValues(v, nil)
	case []float32:
		b.(*array.Float32Builder).AppendValues(v, nil)
	case []float64:
		b.(*array.Float64Builder).AppendValues(v, nil)
	case []bool:
		b.(*array.BooleanBuilder).AppendValues(v, nil)
	case []string:
		b.(*array.StringBuilder).AppendValues(v, nil)
	case [][]byte:
		b.(*array.BinaryBuilder).AppendValues(v, nil)
	case []time.Time:
		tb := b.(*array.TimestampBuilder)
		for _, x := range v {
			tb.Append(arrow.Timestamp(x.UnixMicro()))
		}
	case []any:
		for _, x := range v {
			if x == nil {
				b.AppendNull()
				continue
			}
			if err := appendAny(b, x); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: column of type %T", ErrUnsupportedType, values)
	}
	return nil
}

// appendAny appends one element of a []any column, converting it through
// the same rules as literals.
func appendAny(b array.Builder, x any) error {
	v, _, err := normalizeLiteral(x)
	if err != nil {
		return err
	}
	mismatch := fmt.Errorf("%w: mixed element types in column (%T)", ErrTypeMismatch, x)
	switch bb := b.(type) {
	case *array.Int64Builder:
		n, ok := v.(int64)
		if !ok {
			return mismatch
		}
		bb.Append(n)
	case *array.Float64Builder:
		f, ok := v.(float64)
		if !ok {
			return mismatch
		}
		bb.Append(f)
	case *array.BooleanBuilder:
		t, ok := v.(bool)
		if !ok {
			return mismatch
		}
		bb.Append(t)
	case *array.StringBuilder:
		s, ok := v.(string)
		if !ok {
			return mismatch
		}
		bb.Append(s)
	case *array.BinaryBuilder:
		p, ok := v.([]byte)
		if !ok {
			return mismatch
		}
		bb.Append(p)
	case *array.TimestampBuilder:
		if _, ok := x.(time.Time); !ok {
			return mismatch
		}
		bb.Append(arrow.Timestamp(v.(int64)))
	default:
		return mismatch
	}
	return nil
}

func joinComma(parts []string) string {
	return strings.Join(parts, ", ")
}
