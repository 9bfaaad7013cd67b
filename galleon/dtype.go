package galleon

import "fmt"

// DType is the element type of a Series.
type DType uint8

const (
	Float64 DType = iota
	Float32
	Int64
	Int32
	UInt64
	UInt32
	Bool
	String
	Binary
	Date
	DateTime
	Null
)

type dtypeInfo struct {
	name    string
	size    int // bytes per element, -1 for variable width
	numeric bool
}

var dtypeTable = [...]dtypeInfo{
	Float64:  {"Float64", 8, true},
	Float32:  {"Float32", 4, true},
	Int64:    {"Int64", 8, true},
	Int32:    {"Int32", 4, true},
	UInt64:   {"UInt64", 8, true},
	UInt32:   {"UInt32", 4, true},
	Bool:     {"Bool", 1, false},
	String:   {"String", -1, false},
	Binary:   {"Binary", -1, false},
	Date:     {"Date", 4, false},
	DateTime: {"DateTime", 8, false},
	Null:     {"Null", 0, false},
}

func (d DType) info() (dtypeInfo, bool) {
	if int(d) < len(dtypeTable) {
		return dtypeTable[d], true
	}
	return dtypeInfo{}, false
}

func (d DType) String() string {
	if info, ok := d.info(); ok {
		return info.name
	}
	return fmt.Sprintf("Unknown(%d)", d)
}

// IsNumeric reports whether values of d are right-aligned numbers in
// display output.
func (d DType) IsNumeric() bool {
	info, _ := d.info()
	return info.numeric
}

// Size returns the in-memory width of one element, -1 for variable width
// types and 0 for Null or unknown types.
func (d DType) Size() int {
	info, _ := d.info()
	return info.size
}
