package compliant

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// NativeToDType converts an Arrow data type into the frontend's abstract
// DType. Types the frontend has no name for map to Unknown. Protocol v1 has
// no Binary or Duration types and reports them as Unknown.
func NativeToDType(dt arrow.DataType, version Version) DType {
	if dt == nil {
		return Unknown
	}

	var out DType
	switch dt.ID() {
	case arrow.FLOAT64:
		out = Float64
	case arrow.FLOAT32:
		out = Float32
	case arrow.INT64:
		out = Int64
	case arrow.INT32:
		out = Int32
	case arrow.INT16:
		out = Int16
	case arrow.INT8:
		out = Int8
	case arrow.UINT64:
		out = UInt64
	case arrow.UINT32:
		out = UInt32
	case arrow.UINT16:
		out = UInt16
	case arrow.UINT8:
		out = UInt8
	case arrow.BOOL:
		out = Boolean
	case arrow.STRING, arrow.LARGE_STRING, arrow.STRING_VIEW:
		out = String
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.BINARY_VIEW, arrow.FIXED_SIZE_BINARY:
		out = Binary
	case arrow.DATE32, arrow.DATE64:
		out = Date
	case arrow.TIMESTAMP:
		out = Datetime
	case arrow.DURATION:
		out = Duration
	case arrow.NULL:
		out = Null
	case arrow.STRUCT:
		out = Struct
	case arrow.LIST, arrow.LARGE_LIST, arrow.LIST_VIEW:
		out = List
	case arrow.FIXED_SIZE_LIST:
		out = Array
	case arrow.DICTIONARY:
		out = Categorical
	default:
		out = Unknown
	}

	if version == V1 && (out == Binary || out == Duration) {
		return Unknown
	}
	return out
}

// DTypeToNative converts an abstract DType into the Arrow type a backend
// should cast to. Nested and unknown types have no single Arrow
// counterpart and are rejected.
func DTypeToNative(d DType) (arrow.DataType, error) {
	switch d {
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case Int16:
		return arrow.PrimitiveTypes.Int16, nil
	case Int8:
		return arrow.PrimitiveTypes.Int8, nil
	case UInt64:
		return arrow.PrimitiveTypes.Uint64, nil
	case UInt32:
		return arrow.PrimitiveTypes.Uint32, nil
	case UInt16:
		return arrow.PrimitiveTypes.Uint16, nil
	case UInt8:
		return arrow.PrimitiveTypes.Uint8, nil
	case Boolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case String:
		return arrow.BinaryTypes.String, nil
	case Binary:
		return arrow.BinaryTypes.Binary, nil
	case Date:
		return arrow.FixedWidthTypes.Date32, nil
	case Datetime:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case Duration:
		return arrow.FixedWidthTypes.Duration_us, nil
	case Null:
		return arrow.Null, nil
	default:
		return nil, fmt.Errorf("dtype %s has no native counterpart", d)
	}
}

// SchemaFromNative converts an Arrow schema into an abstract Schema.
func SchemaFromNative(schema *arrow.Schema, version Version) (*Schema, error) {
	fields := schema.Fields()
	names := make([]string, len(fields))
	dtypes := make([]DType, len(fields))
	for i, f := range fields {
		names[i] = f.Name
		dtypes[i] = NativeToDType(f.Type, version)
	}
	return NewSchema(names, dtypes)
}
