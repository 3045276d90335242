package feature

import (
	"fmt"
	"strings"
)

// Target names the kind of runtime a resolution is done for.
type Target string

const (
	Browser   Target = "browser"
	Extension Target = "extension"
	Native    Target = "native"
	Any       Target = "any"
)

// Targets returns all supported targets.
func Targets() []Target {
	return []Target{Browser, Extension, Native, Any}
}

// ParseTarget converts a target name.
func ParseTarget(name string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(name)))
	switch t {
	case Browser, Extension, Native, Any:
		return t, nil
	default:
		return "", fmt.Errorf("unknown target %q", name)
	}
}

// ForTarget returns the feature set of a runtime target.
// A browser plays from the user's IP while a proxy fetched the stream, so IP locked streams are out.
func ForTarget(t Target) Features {
	switch t {
	case Browser:
		return Features{Allowed: NewSet(CORSAllowed)}
	default:
		return Features{Allowed: NewSet(CORSAllowed, IPLocked)}
	}
}
