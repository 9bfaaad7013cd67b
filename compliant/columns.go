package compliant

import (
	"sort"

	"github.com/hashicorp/go-multierror"
)

// ParseColumnsToDrop resolves which of requested can be dropped from a frame
// with the given columns. With strict set, any requested name missing from
// columns yields a *ColumnNotFoundError listing all of them. Without strict,
// unknown names are ignored. The result keeps the order of requested.
func ParseColumnsToDrop(columns, requested []string, strict bool) ([]string, error) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var (
		drop    = make([]string, 0, len(requested))
		missing []string
	)
	for _, name := range requested {
		if _, ok := present[name]; ok {
			drop = append(drop, name)
			continue
		}
		missing = append(missing, name)
	}

	if strict && len(missing) > 0 {
		return nil, &ColumnNotFoundError{
			Missing:   missing,
			Available: append([]string{}, columns...),
		}
	}
	return drop, nil
}

// ValidateColumnNames checks that names are unique. Every repeated name is
// reported; the returned error matches ErrDuplicateColumn.
func ValidateColumnNames(names []string) error {
	counts := make(map[string]int, len(names))
	for _, n := range names {
		counts[n]++
	}

	var dups []string
	for n, c := range counts {
		if c > 1 {
			dups = append(dups, n)
		}
	}
	if len(dups) == 0 {
		return nil
	}
	sort.Strings(dups)

	var result *multierror.Error
	for _, n := range dups {
		result = multierror.Append(result, &DuplicateError{Name: n, Count: counts[n]})
	}
	return result.ErrorOrNil()
}
