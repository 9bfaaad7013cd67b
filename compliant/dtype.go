package compliant

import (
	"fmt"
	"strings"
)

// DType is the frontend's abstract data type. Backends convert their native
// types into a DType when reporting schemas.
type DType uint8

const (
	// Unknown covers native types the frontend has no name for.
	Unknown DType = iota

	// Numeric types
	Float64
	Float32
	Int64
	Int32
	Int16
	Int8
	UInt64
	UInt32
	UInt16
	UInt8

	// Other types
	Boolean
	String
	Binary
	Date
	Datetime
	Duration

	// Null type
	Null

	// Nested types
	Struct
	List
	Array

	// Categorical type (dictionary-encoded strings)
	Categorical
)

var dtypeNames = map[DType]string{
	Unknown:     "Unknown",
	Float64:     "Float64",
	Float32:     "Float32",
	Int64:       "Int64",
	Int32:       "Int32",
	Int16:       "Int16",
	Int8:        "Int8",
	UInt64:      "UInt64",
	UInt32:      "UInt32",
	UInt16:      "UInt16",
	UInt8:       "UInt8",
	Boolean:     "Boolean",
	String:      "String",
	Binary:      "Binary",
	Date:        "Date",
	Datetime:    "Datetime",
	Duration:    "Duration",
	Null:        "Null",
	Struct:      "Struct",
	List:        "List",
	Array:       "Array",
	Categorical: "Categorical",
}

// String returns the string representation of the DType
func (d DType) String() string {
	if name, ok := dtypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", d)
}

// ParseDType resolves a dtype name as produced by String. Matching is case
// insensitive.
func ParseDType(name string) (DType, error) {
	for d, n := range dtypeNames {
		if strings.EqualFold(n, name) {
			return d, nil
		}
	}
	return Unknown, fmt.Errorf("unknown dtype %q", name)
}

// IsNumeric returns true if the dtype is a numeric type
func (d DType) IsNumeric() bool {
	return d.IsFloat() || d.IsInteger()
}

// IsFloat returns true if the dtype is a floating point type
func (d DType) IsFloat() bool {
	return d == Float64 || d == Float32
}

// IsInteger returns true if the dtype is an integer type
func (d DType) IsInteger() bool {
	switch d {
	case Int64, Int32, Int16, Int8, UInt64, UInt32, UInt16, UInt8:
		return true
	default:
		return false
	}
}

// IsSigned returns true if the dtype is a signed numeric type
func (d DType) IsSigned() bool {
	switch d {
	case Float64, Float32, Int64, Int32, Int16, Int8:
		return true
	default:
		return false
	}
}

// IsNested returns true if the dtype is a nested type (Struct, List, or Array)
func (d DType) IsNested() bool {
	switch d {
	case Struct, List, Array:
		return true
	default:
		return false
	}
}

// IsTemporal returns true for Date, Datetime and Duration.
func (d DType) IsTemporal() bool {
	return d == Date || d == Datetime || d == Duration
}

// ============================================================================
// Schema
// ============================================================================

// Schema is an ordered mapping of column name to DType.
type Schema struct {
	names  []string
	dtypes []DType
}

// NewSchema creates a new schema from column names and types
func NewSchema(names []string, dtypes []DType) (*Schema, error) {
	if len(names) != len(dtypes) {
		return nil, fmt.Errorf("names and dtypes must have same length: %d != %d", len(names), len(dtypes))
	}

	if err := ValidateColumnNames(names); err != nil {
		return nil, err
	}

	return &Schema{
		names:  append([]string{}, names...),
		dtypes: append([]DType{}, dtypes...),
	}, nil
}

// Len returns the number of columns in the schema
func (s *Schema) Len() int {
	return len(s.names)
}

// Names returns the column names in schema order
func (s *Schema) Names() []string {
	return append([]string{}, s.names...)
}

// DTypes returns the column data types in schema order
func (s *Schema) DTypes() []DType {
	return append([]DType{}, s.dtypes...)
}

// Get returns the dtype for a column name
func (s *Schema) Get(name string) (DType, bool) {
	if i, ok := s.Index(name); ok {
		return s.dtypes[i], true
	}
	return Unknown, false
}

// Index returns the position of a column name
func (s *Schema) Index(name string) (int, bool) {
	for i, n := range s.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Contains reports whether the schema has a column called name.
func (s *Schema) Contains(name string) bool {
	_, ok := s.Index(name)
	return ok
}

// String returns a string representation of the schema
func (s *Schema) String() string {
	var sb strings.Builder
	sb.WriteString("Schema{\n")
	for i, name := range s.names {
		fmt.Fprintf(&sb, "  %s: %s\n", name, s.dtypes[i])
	}
	sb.WriteString("}")
	return sb.String()
}
