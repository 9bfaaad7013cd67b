package compliant

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
)

// minBackendVersions lists the oldest supported version of the library
// behind each backend. Guarded by minMu.
var (
	minMu              sync.RWMutex
	minBackendVersions = map[Implementation]string{
		ImplementationArrow:  "v18.0.0",
		ImplementationRows:   "v0.0.0",
		ImplementationSQLite: "v3.35.0",
	}
)

// MinBackendVersion returns the oldest accepted version for impl.
func MinBackendVersion(impl Implementation) (string, bool) {
	minMu.RLock()
	defer minMu.RUnlock()
	v, ok := minBackendVersions[impl]
	return v, ok
}

// SetMinBackendVersion replaces the oldest accepted version for impl and
// returns the previous one. An empty version removes the minimum.
func SetMinBackendVersion(impl Implementation, version string) (string, error) {
	if version != "" {
		version = canonicalVersion(version)
		if !semver.IsValid(version) {
			return "", fmt.Errorf("invalid minimum version %q for %s", version, impl)
		}
	}
	minMu.Lock()
	defer minMu.Unlock()
	prev := minBackendVersions[impl]
	if version == "" {
		delete(minBackendVersions, impl)
	} else {
		minBackendVersions[impl] = version
	}
	return prev, nil
}

// BackendModules maps a backend to the Go module providing it, for lookups
// in the binary's build info. SQLite is checked against the linked C
// library version instead, see sqlframe.EngineVersion.
var BackendModules = map[Implementation]string{
	ImplementationArrow: "github.com/apache/arrow-go/v18",
}

// ValidateBackendVersion checks that version is at least the minimum listed
// for impl. Backends without a listed minimum, and unknown versions, pass.
func ValidateBackendVersion(impl Implementation, version string) error {
	minimum, ok := MinBackendVersion(impl)
	if !ok || version == "" {
		return nil
	}
	v := canonicalVersion(version)
	if !semver.IsValid(v) {
		return nil
	}
	if semver.Compare(v, minimum) < 0 {
		return fmt.Errorf("%w: %s %s, minimum is %s", ErrBackendVersion, impl, version, minimum)
	}
	return nil
}

// ModuleVersion returns the version of module path linked into the running
// binary, or "" when build info is not available.
func ModuleVersion(path string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return ""
}

// ValidateLinkedBackend validates the version of the module backing impl
// as recorded in build info.
func ValidateLinkedBackend(impl Implementation) error {
	path, ok := BackendModules[impl]
	if !ok {
		return nil
	}
	return ValidateBackendVersion(impl, ModuleVersion(path))
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
