package galleon

import (
	"fmt"
	"time"
)

// Series is a named, typed column. Values are held in a Go slice whose
// element type follows the DType; a nil validity slice means no nulls.
type Series struct {
	name   string
	dtype  DType
	data   any
	valid  []bool
	length int
}

// ============================================================================
// Creation
// ============================================================================

// NewSeriesFloat64 creates a Float64 Series from a Go slice.
func NewSeriesFloat64(name string, data []float64) *Series {
	return &Series{name: name, dtype: Float64, data: data, length: len(data)}
}

// NewSeriesFloat32 creates a Float32 Series from a Go slice.
func NewSeriesFloat32(name string, data []float32) *Series {
	return &Series{name: name, dtype: Float32, data: data, length: len(data)}
}

// NewSeriesInt64 creates an Int64 Series from a Go slice.
func NewSeriesInt64(name string, data []int64) *Series {
	return &Series{name: name, dtype: Int64, data: data, length: len(data)}
}

// NewSeriesInt32 creates an Int32 Series from a Go slice.
func NewSeriesInt32(name string, data []int32) *Series {
	return &Series{name: name, dtype: Int32, data: data, length: len(data)}
}

// NewSeriesUInt64 creates a UInt64 Series from a Go slice.
func NewSeriesUInt64(name string, data []uint64) *Series {
	return &Series{name: name, dtype: UInt64, data: data, length: len(data)}
}

// NewSeriesUInt32 creates a UInt32 Series from a Go slice.
func NewSeriesUInt32(name string, data []uint32) *Series {
	return &Series{name: name, dtype: UInt32, data: data, length: len(data)}
}

// NewSeriesBool creates a Bool Series from a Go slice.
func NewSeriesBool(name string, data []bool) *Series {
	return &Series{name: name, dtype: Bool, data: data, length: len(data)}
}

// NewSeriesString creates a String Series from a Go slice.
func NewSeriesString(name string, data []string) *Series {
	return &Series{name: name, dtype: String, data: data, length: len(data)}
}

// NewSeriesBinary creates a Binary Series from a Go slice.
func NewSeriesBinary(name string, data [][]byte) *Series {
	return &Series{name: name, dtype: Binary, data: data, length: len(data)}
}

// NewSeriesDate creates a Date Series. Only the calendar date of each
// value is kept.
func NewSeriesDate(name string, data []time.Time) *Series {
	days := make([]time.Time, len(data))
	for i, t := range data {
		y, m, d := t.Date()
		days[i] = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return &Series{name: name, dtype: Date, data: days, length: len(data)}
}

// NewSeriesDateTime creates a DateTime Series from a Go slice.
func NewSeriesDateTime(name string, data []time.Time) *Series {
	return &Series{name: name, dtype: DateTime, data: data, length: len(data)}
}

// NewSeriesNull creates a Series of n nulls.
func NewSeriesNull(name string, n int) *Series {
	return &Series{name: name, dtype: Null, valid: make([]bool, n), length: n}
}

// WithValidity returns a copy of the Series whose nulls are the false
// entries of valid. The validity slice must match the Series length.
func (s *Series) WithValidity(valid []bool) (*Series, error) {
	if len(valid) != s.length {
		return nil, fmt.Errorf("validity length %d does not match series length %d", len(valid), s.length)
	}
	out := *s
	out.valid = append([]bool(nil), valid...)
	return &out, nil
}

// ============================================================================
// Properties
// ============================================================================

// Name returns the series name
func (s *Series) Name() string {
	return s.name
}

// DType returns the series data type
func (s *Series) DType() DType {
	return s.dtype
}

// Len returns the number of elements
func (s *Series) Len() int {
	return s.length
}

// NullCount returns the number of null values
func (s *Series) NullCount() int {
	n := 0
	for _, v := range s.valid {
		if !v {
			n++
		}
	}
	return n
}

// HasNulls returns true if the series contains any null values
func (s *Series) HasNulls() bool {
	return s.NullCount() > 0
}

// IsValid returns true if the value at index is not null
func (s *Series) IsValid(index int) bool {
	if index < 0 || index >= s.length {
		return false
	}
	return s.valid == nil || s.valid[index]
}

// Rename returns a copy of the Series with a new name.
func (s *Series) Rename(name string) *Series {
	out := *s
	out.name = name
	return &out
}

// ============================================================================
// Access
// ============================================================================

// Get returns the value at index as an interface, or nil for nulls and
// out-of-range indices.
func (s *Series) Get(index int) any {
	if !s.IsValid(index) {
		return nil
	}
	switch d := s.data.(type) {
	case []float64:
		return d[index]
	case []float32:
		return d[index]
	case []int64:
		return d[index]
	case []int32:
		return d[index]
	case []uint64:
		return d[index]
	case []uint32:
		return d[index]
	case []bool:
		return d[index]
	case []string:
		return d[index]
	case [][]byte:
		return d[index]
	case []time.Time:
		return d[index]
	default:
		return nil
	}
}

// Values returns the underlying data slice. Null slots hold zero values.
func (s *Series) Values() any {
	return s.data
}

// ToSlice returns the values as a []any with nil for nulls.
func (s *Series) ToSlice() []any {
	out := make([]any, s.length)
	for i := range out {
		out[i] = s.Get(i)
	}
	return out
}

// Float64 returns the data as []float64, or nil for other dtypes.
func (s *Series) Float64() []float64 {
	d, _ := s.data.([]float64)
	return d
}

// Int64 returns the data as []int64, or nil for other dtypes.
func (s *Series) Int64() []int64 {
	d, _ := s.data.([]int64)
	return d
}

// Strings returns the data as []string, or nil for other dtypes.
func (s *Series) Strings() []string {
	d, _ := s.data.([]string)
	return d
}

// Bool returns the data as []bool, or nil for other dtypes.
func (s *Series) Bool() []bool {
	d, _ := s.data.([]bool)
	return d
}

// ============================================================================
// Slicing
// ============================================================================

// Slice returns elements [start, end). Bounds are clamped to the series.
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > s.length {
		end = s.length
	}
	if start > end {
		start = end
	}

	out := &Series{name: s.name, dtype: s.dtype, length: end - start}
	if s.valid != nil {
		out.valid = s.valid[start:end]
	}
	switch d := s.data.(type) {
	case []float64:
		out.data = d[start:end]
	case []float32:
		out.data = d[start:end]
	case []int64:
		out.data = d[start:end]
	case []int32:
		out.data = d[start:end]
	case []uint64:
		out.data = d[start:end]
	case []uint32:
		out.data = d[start:end]
	case []bool:
		out.data = d[start:end]
	case []string:
		out.data = d[start:end]
	case [][]byte:
		out.data = d[start:end]
	case []time.Time:
		out.data = d[start:end]
	}
	return out
}

// Head returns the first n elements
func (s *Series) Head(n int) *Series {
	return s.Slice(0, n)
}

// Tail returns the last n elements
func (s *Series) Tail(n int) *Series {
	return s.Slice(s.length-n, s.length)
}

func (s *Series) String() string {
	return SeriesStringWithConfig(s, GetDisplayConfig())
}
