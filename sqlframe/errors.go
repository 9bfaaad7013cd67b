package sqlframe

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFieldNotFound is matched by *FieldNotFoundError.
	ErrFieldNotFound = errors.New("field not found")

	// ErrTypeMismatch is returned when an operator is applied to
	// operands it cannot combine.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrDuplicateField is returned when a projection would produce two
	// columns with the same name.
	ErrDuplicateField = errors.New("projections require unique expression names")

	// ErrEmptyProjection is returned when a projection has no columns.
	ErrEmptyProjection = errors.New("projection must contain at least one column")

	// ErrUnsupportedType is returned for Arrow types the engine cannot store.
	ErrUnsupportedType = errors.New("unsupported data type")
)

// FieldNotFoundError reports a column reference that does not resolve
// against the input schema.
type FieldNotFoundError struct {
	Name      string
	Available []string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("no field named %q, valid fields are: %s", e.Name, strings.Join(e.Available, ", "))
}

// Is matches ErrFieldNotFound.
func (e *FieldNotFoundError) Is(target error) bool {
	return target == ErrFieldNotFound
}
