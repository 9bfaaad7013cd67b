package compliant

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below match them through errors.Is, so
// callers can branch on the kind of failure without string matching.
var (
	// ErrNotImplemented marks a capability gap: the backend does not
	// support the requested operation at all.
	ErrNotImplemented = errors.New("not implemented")

	// ErrColumnNotFound is returned when a strict operation names a
	// column that is not in the frame.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when column names are not unique.
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrEmptySelection is returned by Select when no expression was given.
	ErrEmptySelection = errors.New("at least one expression must be passed to LazyFrame.select")

	// ErrUnsupportedBackend is returned by Collect for an unknown backend.
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrMultiOutputOperand is returned when an expression used as an
	// operand of a binary operation expands to more than one column.
	ErrMultiOutputOperand = errors.New("operand expression must produce exactly one column")

	// ErrIndexOutOfRange is returned when a positional column reference
	// does not exist in the frame.
	ErrIndexOutOfRange = errors.New("column index out of range")

	// ErrBackendVersion is returned when backend version validation fails.
	ErrBackendVersion = errors.New("unsupported backend version")
)

// NotImplementedError reports an operation the backend does not support.
type NotImplementedError struct {
	Backend   Implementation
	Operation Operation
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s is not implemented for the %s backend", e.Operation, e.Backend)
}

// Is matches ErrNotImplemented.
func (e *NotImplementedError) Is(target error) bool {
	return target == ErrNotImplemented
}

// IsNotImplemented reports whether err is a capability gap.
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}

// ColumnNotFoundError lists the requested columns that do not exist.
type ColumnNotFoundError struct {
	Missing   []string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("the following columns were not found: %s\n\nHint: Did you mean one of these columns: %s?",
		quoteAll(e.Missing), quoteAll(e.Available))
}

// Is matches ErrColumnNotFound.
func (e *ColumnNotFoundError) Is(target error) bool {
	return target == ErrColumnNotFound
}

// DuplicateError reports one repeated column name.
type DuplicateError struct {
	Name  string
	Count int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("column %q appears %d times", e.Name, e.Count)
}

// Is matches ErrDuplicateColumn.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateColumn
}

// UnsupportedBackendError is the configuration error returned when a
// collect target is not recognized.
type UnsupportedBackendError struct {
	Backend any
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unsupported `backend` value: %v", e.Backend)
}

// Is matches ErrUnsupportedBackend.
func (e *UnsupportedBackendError) Is(target error) bool {
	return target == ErrUnsupportedBackend
}

// InternalError signals a broken adapter invariant. It is raised with panic
// and must never be recovered into an ordinary error.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Msg
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
