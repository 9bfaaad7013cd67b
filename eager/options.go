// Package eager holds what the in-memory frame adapters returned by
// LazyFrame.Collect have in common. The adapters themselves live in the
// arrowdf, rowdf and galleondf subpackages.
package eager

import (
	"fmt"

	"github.com/NerdMeNot/galleon-sql/compliant"
)

// Options configures the construction of an eager frame adapter.
type Options struct {
	// Version is the protocol version the frame speaks (default Main).
	Version compliant.Version
	// ValidateBackendVersion checks the linked backend library against
	// compliant.MinBackendVersion.
	ValidateBackendVersion bool
	// ValidateColumnNames rejects frames with repeated column names.
	ValidateColumnNames bool
}

// Check runs the validations requested by o for a frame of backend impl
// with the given columns.
func (o Options) Check(impl compliant.Implementation, columns []string) error {
	if o.ValidateBackendVersion {
		if err := compliant.ValidateLinkedBackend(impl); err != nil {
			return err
		}
	}
	if o.ValidateColumnNames {
		if err := compliant.ValidateColumnNames(columns); err != nil {
			return fmt.Errorf("invalid %s frame: %w", impl, err)
		}
	}
	return nil
}

// ResolvedVersion returns o.Version, or Main when it is unset.
func (o Options) ResolvedVersion() compliant.Version {
	if o.Version == 0 {
		return compliant.Main
	}
	return o.Version
}

// ColumnNotFound builds the error returned by Column for an unknown name.
func ColumnNotFound(name string, available []string) error {
	return &compliant.ColumnNotFoundError{
		Missing:   []string{name},
		Available: append([]string{}, available...),
	}
}
