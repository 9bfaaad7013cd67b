// Package rowdf adapts a materialized row set to the compliant eager-frame
// protocol.
package rowdf

import (
	"fmt"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/eager"
	"github.com/NerdMeNot/galleon-sql/sqlframe"
)

// DataFrame is a compliant eager frame over row-oriented data.
type DataFrame struct {
	native  *sqlframe.RowSet
	version compliant.Version
}

var _ compliant.EagerFrame = (*DataFrame)(nil)

// New wraps rows.
func New(rows *sqlframe.RowSet, opts eager.Options) (*DataFrame, error) {
	if rows == nil || rows.Schema == nil {
		return nil, fmt.Errorf("rowdf: nil row set")
	}
	width := rows.Schema.NumFields()
	for i, row := range rows.Rows {
		if len(row) != width {
			return nil, fmt.Errorf("rowdf: row %d has %d values, schema has %d columns", i, len(row), width)
		}
	}
	if err := opts.Check(compliant.ImplementationRows, rows.Columns()); err != nil {
		return nil, err
	}
	return &DataFrame{native: rows, version: opts.ResolvedVersion()}, nil
}

// Native returns the wrapped row set.
func (df *DataFrame) Native() *sqlframe.RowSet { return df.native }

func (df *DataFrame) Implementation() compliant.Implementation {
	return compliant.ImplementationRows
}

func (df *DataFrame) Version() compliant.Version { return df.version }

func (df *DataFrame) Columns() []string { return df.native.Columns() }

func (df *DataFrame) Schema() (*compliant.Schema, error) {
	return compliant.SchemaFromNative(df.native.Schema, df.version)
}

func (df *DataFrame) Len() int { return df.native.Len() }

// Row returns row i. The slice is shared with the frame.
func (df *DataFrame) Row(i int) ([]any, error) {
	if i < 0 || i >= df.native.Len() {
		return nil, fmt.Errorf("%w: row %d of %d", compliant.ErrIndexOutOfRange, i, df.native.Len())
	}
	return df.native.Rows[i], nil
}

func (df *DataFrame) Column(name string) ([]any, error) {
	values, err := df.native.Column(name)
	if err != nil {
		return nil, eager.ColumnNotFound(name, df.Columns())
	}
	return values, nil
}

func (df *DataFrame) ToColumns() (map[string][]any, error) {
	names := df.Columns()
	out := make(map[string][]any, len(names))
	for j, name := range names {
		values := make([]any, len(df.native.Rows))
		for i, row := range df.native.Rows {
			values[i] = row[j]
		}
		out[name] = values
	}
	return out, nil
}

// Records returns the rows as maps keyed by column name.
func (df *DataFrame) Records() []map[string]any {
	names := df.Columns()
	out := make([]map[string]any, len(df.native.Rows))
	for i, row := range df.native.Rows {
		rec := make(map[string]any, len(names))
		for j, name := range names {
			rec[name] = row[j]
		}
		out[i] = rec
	}
	return out
}
