package compliant

import (
	"fmt"
	"strings"
)

// Version is the protocol dialect negotiated between the frontend and a
// backend. It travels with every adapter so that derived adapters speak the
// same dialect as their parent.
type Version uint8

const (
	V1 Version = iota + 1
	V2
	Main
)

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	case Main:
		return "main"
	default:
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
}

// ParseVersion parses "v1", "v2" or "main".
func ParseVersion(s string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v1", "1":
		return V1, nil
	case "v2", "2":
		return V2, nil
	case "main", "":
		return Main, nil
	default:
		return 0, fmt.Errorf("unknown protocol version %q", s)
	}
}

// UnmarshalText lets versions appear in config files.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Level tells the frontend how much of its public API a wrapped frame
// supports.
type Level string

const (
	LevelFull        Level = "full"
	LevelLazy        Level = "lazy"
	LevelInterchange Level = "interchange"
)

// PublicLazyFrame is the frontend-facing handle around a compliant lazy frame.
type PublicLazyFrame struct {
	Compliant any
	Level     Level
	Version   Version
}

// LazyFrame wraps a compliant lazy frame into the public handle for v.
func (v Version) LazyFrame(frame any, level Level) *PublicLazyFrame {
	return &PublicLazyFrame{Compliant: frame, Level: level, Version: v}
}

// Context carries the version tag adapters are constructed with.
type Context interface {
	Version() Version
}

type versionContext Version

func (c versionContext) Version() Version { return Version(c) }

// WithVersion returns a Context for v.
func WithVersion(v Version) Context {
	return versionContext(v)
}
