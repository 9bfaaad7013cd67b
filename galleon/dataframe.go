package galleon

import "fmt"

// DataFrame is an ordered collection of equally long Series.
type DataFrame struct {
	columns []*Series
	index   map[string]int
	height  int
}

// ============================================================================
// Creation
// ============================================================================

// NewDataFrame creates a DataFrame from Series. All series must have the
// same length and distinct names.
func NewDataFrame(series ...*Series) (*DataFrame, error) {
	df := &DataFrame{
		columns: make([]*Series, 0, len(series)),
		index:   make(map[string]int, len(series)),
	}
	for i, s := range series {
		if s == nil {
			return nil, fmt.Errorf("series %d is nil", i)
		}
		if i == 0 {
			df.height = s.Len()
		} else if s.Len() != df.height {
			return nil, fmt.Errorf("column %s has length %d, expected %d", s.Name(), s.Len(), df.height)
		}
		if _, dup := df.index[s.Name()]; dup {
			return nil, fmt.Errorf("duplicate column name: %s", s.Name())
		}
		df.index[s.Name()] = len(df.columns)
		df.columns = append(df.columns, s)
	}
	return df, nil
}

// ============================================================================
// Access
// ============================================================================

// Column returns the Series with the given name, or nil.
func (df *DataFrame) Column(name string) *Series {
	if i, ok := df.index[name]; ok {
		return df.columns[i]
	}
	return nil
}

// ColumnAt returns the Series at position i.
func (df *DataFrame) ColumnAt(i int) *Series {
	return df.columns[i]
}

// Columns returns all Series in order.
func (df *DataFrame) Columns() []*Series {
	return append([]*Series(nil), df.columns...)
}

// ColumnNames returns the column names in order.
func (df *DataFrame) ColumnNames() []string {
	names := make([]string, len(df.columns))
	for i, s := range df.columns {
		names[i] = s.Name()
	}
	return names
}

// DTypes returns the column data types in order.
func (df *DataFrame) DTypes() []DType {
	dtypes := make([]DType, len(df.columns))
	for i, s := range df.columns {
		dtypes[i] = s.DType()
	}
	return dtypes
}

// Height returns the number of rows
func (df *DataFrame) Height() int {
	return df.height
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Shape returns (rows, columns)
func (df *DataFrame) Shape() (int, int) {
	return df.height, len(df.columns)
}

// ============================================================================
// Operations
// ============================================================================

// Select returns a new DataFrame with only the named columns.
func (df *DataFrame) Select(names ...string) (*DataFrame, error) {
	series := make([]*Series, len(names))
	for i, n := range names {
		s := df.Column(n)
		if s == nil {
			return nil, fmt.Errorf("column not found: %s", n)
		}
		series[i] = s
	}
	return NewDataFrame(series...)
}

// Head returns the first n rows
func (df *DataFrame) Head(n int) *DataFrame {
	return df.slice(func(s *Series) *Series { return s.Head(n) })
}

// Tail returns the last n rows
func (df *DataFrame) Tail(n int) *DataFrame {
	return df.slice(func(s *Series) *Series { return s.Tail(n) })
}

func (df *DataFrame) slice(f func(*Series) *Series) *DataFrame {
	out := &DataFrame{
		columns: make([]*Series, len(df.columns)),
		index:   df.index,
	}
	for i, s := range df.columns {
		out.columns[i] = f(s)
		out.height = out.columns[i].Len()
	}
	return out
}

// ToMap returns every column as a []any keyed by name.
func (df *DataFrame) ToMap() map[string][]any {
	out := make(map[string][]any, len(df.columns))
	for _, s := range df.columns {
		out[s.Name()] = s.ToSlice()
	}
	return out
}

func (df *DataFrame) String() string {
	return df.StringWithConfig(GetDisplayConfig())
}
