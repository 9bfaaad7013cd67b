package compliant

import (
	"fmt"
	"strings"
)

// Implementation identifies a concrete backend. Collect uses it to pick the
// eager table format a lazy frame is materialized into.
type Implementation uint8

const (
	// ImplementationUnknown is the zero value; Collect treats it as Arrow.
	ImplementationUnknown Implementation = iota
	// ImplementationArrow is the columnar in-memory table backend.
	ImplementationArrow
	// ImplementationRows is the row-oriented in-memory backend.
	ImplementationRows
	// ImplementationGalleon is the series-based dataframe backend.
	ImplementationGalleon
	// ImplementationSQLite is the lazy SQL backend implemented by this module.
	ImplementationSQLite
)

var implementationNames = []string{"unknown", "arrow", "rows", "galleon", "sqlite"}

func (i Implementation) String() string {
	if int(i) < len(implementationNames) {
		return implementationNames[i]
	}
	return fmt.Sprintf("Implementation(%d)", uint8(i))
}

// ParseImplementation resolves a backend name. The empty string maps to
// ImplementationUnknown.
func ParseImplementation(name string) (Implementation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "unknown":
		return ImplementationUnknown, nil
	case "pyarrow":
		return ImplementationArrow, nil
	case "pandas":
		return ImplementationRows, nil
	}
	for i, n := range implementationNames {
		if n == name {
			return Implementation(i), nil
		}
	}
	return ImplementationUnknown, &UnsupportedBackendError{Backend: name}
}
