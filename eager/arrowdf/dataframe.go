// Package arrowdf adapts an in-memory Arrow table to the compliant
// eager-frame protocol. It is the default target of LazyFrame.Collect.
package arrowdf

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/eager"
)

// DataFrame is a compliant eager frame over an arrow.Table.
type DataFrame struct {
	native  arrow.Table
	version compliant.Version
}

var _ compliant.EagerFrame = (*DataFrame)(nil)

// New wraps tbl. The frame takes its own reference to tbl; callers keep
// theirs and release it as usual.
func New(tbl arrow.Table, opts eager.Options) (*DataFrame, error) {
	if tbl == nil {
		return nil, fmt.Errorf("arrowdf: nil table")
	}
	if err := opts.Check(compliant.ImplementationArrow, fieldNames(tbl.Schema())); err != nil {
		return nil, err
	}
	tbl.Retain()
	return &DataFrame{native: tbl, version: opts.ResolvedVersion()}, nil
}

// Release drops the frame's reference to the underlying table.
func (df *DataFrame) Release() {
	if df.native != nil {
		df.native.Release()
		df.native = nil
	}
}

// Native returns the wrapped table.
func (df *DataFrame) Native() arrow.Table { return df.native }

func (df *DataFrame) Implementation() compliant.Implementation {
	return compliant.ImplementationArrow
}

func (df *DataFrame) Version() compliant.Version { return df.version }

// Columns returns the column names in order.
func (df *DataFrame) Columns() []string { return fieldNames(df.native.Schema()) }

// Schema converts the table's Arrow schema into abstract dtypes.
func (df *DataFrame) Schema() (*compliant.Schema, error) {
	return compliant.SchemaFromNative(df.native.Schema(), df.version)
}

// Len returns the number of rows.
func (df *DataFrame) Len() int { return int(df.native.NumRows()) }

// Column returns the values of the first column called name.
func (df *DataFrame) Column(name string) ([]any, error) {
	idx := df.native.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return nil, eager.ColumnNotFound(name, df.Columns())
	}
	return columnValues(df.native.Column(idx[0]))
}

// ToColumns returns every column keyed by name.
func (df *DataFrame) ToColumns() (map[string][]any, error) {
	out := make(map[string][]any, df.native.NumCols())
	for i := 0; i < int(df.native.NumCols()); i++ {
		col := df.native.Column(i)
		values, err := columnValues(col)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name(), err)
		}
		out[col.Name()] = values
	}
	return out, nil
}

func columnValues(col *arrow.Column) ([]any, error) {
	out := make([]any, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			v, err := ValueAt(chunk, i)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func fieldNames(schema *arrow.Schema) []string {
	names := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		names[i] = f.Name
	}
	return names
}
