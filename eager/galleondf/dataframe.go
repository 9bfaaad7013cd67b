// Package galleondf adapts a galleon DataFrame to the compliant eager-frame
// protocol.
package galleondf

import (
	"fmt"

	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/eager"
	"github.com/NerdMeNot/galleon-sql/galleon"
)

// DataFrame is a compliant eager frame over a *galleon.DataFrame.
type DataFrame struct {
	native  *galleon.DataFrame
	version compliant.Version
}

var _ compliant.EagerFrame = (*DataFrame)(nil)

// New wraps df. galleon frames already reject duplicate names, so only the
// backend version check applies.
func New(df *galleon.DataFrame, opts eager.Options) (*DataFrame, error) {
	if df == nil {
		return nil, fmt.Errorf("galleondf: nil frame")
	}
	if err := opts.Check(compliant.ImplementationGalleon, df.ColumnNames()); err != nil {
		return nil, err
	}
	return &DataFrame{native: df, version: opts.ResolvedVersion()}, nil
}

// Native returns the wrapped frame.
func (df *DataFrame) Native() *galleon.DataFrame { return df.native }

func (df *DataFrame) Implementation() compliant.Implementation {
	return compliant.ImplementationGalleon
}

func (df *DataFrame) Version() compliant.Version { return df.version }

func (df *DataFrame) Columns() []string { return df.native.ColumnNames() }

// Schema maps galleon dtypes onto abstract dtypes.
func (df *DataFrame) Schema() (*compliant.Schema, error) {
	dtypes := df.native.DTypes()
	out := make([]compliant.DType, len(dtypes))
	for i, d := range dtypes {
		out[i] = ToDType(d, df.version)
	}
	return compliant.NewSchema(df.native.ColumnNames(), out)
}

func (df *DataFrame) Len() int { return df.native.Height() }

func (df *DataFrame) Column(name string) ([]any, error) {
	s := df.native.Column(name)
	if s == nil {
		return nil, eager.ColumnNotFound(name, df.Columns())
	}
	return s.ToSlice(), nil
}

func (df *DataFrame) ToColumns() (map[string][]any, error) {
	return df.native.ToMap(), nil
}

// ToDType converts a galleon dtype. Protocol v1 has no Binary type.
func ToDType(d galleon.DType, version compliant.Version) compliant.DType {
	switch d {
	case galleon.Float64:
		return compliant.Float64
	case galleon.Float32:
		return compliant.Float32
	case galleon.Int64:
		return compliant.Int64
	case galleon.Int32:
		return compliant.Int32
	case galleon.UInt64:
		return compliant.UInt64
	case galleon.UInt32:
		return compliant.UInt32
	case galleon.Bool:
		return compliant.Boolean
	case galleon.String:
		return compliant.String
	case galleon.Binary:
		if version == compliant.V1 {
			return compliant.Unknown
		}
		return compliant.Binary
	case galleon.Date:
		return compliant.Date
	case galleon.DateTime:
		return compliant.Datetime
	case galleon.Null:
		return compliant.Null
	default:
		return compliant.Unknown
	}
}
