// Package feature models capability flags and decides whether a provider or stream fits a runtime.
package feature

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Flag is a capability tag declared by a provider or a stream.
type Flag string

const (
	// CORSAllowed marks a resource that can be fetched cross-origin without restrictions.
	CORSAllowed Flag = "cors-allowed"

	// IPLocked marks a resource that only plays from the IP address that resolved it.
	IPLocked Flag = "ip-locked"
)

// Known returns every flag the runtime understands.
func Known() []Flag {
	return []Flag{CORSAllowed, IPLocked}
}

// Set is a sorted, duplicate-free collection of flags.
type Set []Flag

// NewSet builds a Set from arbitrary flags.
func NewSet(flags ...Flag) Set {
	set := lo.Uniq(lo.Filter(flags, func(f Flag, _ int) bool { return f != "" }))
	slices.Sort(set)
	return set
}

// ParseSet converts raw flag names, rejecting unknown ones.
func ParseSet(names ...string) (Set, error) {
	flags := make([]Flag, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}

		f := Flag(name)
		if !slices.Contains(Known(), f) {
			return nil, fmt.Errorf("unknown flag %q", name)
		}
		flags = append(flags, f)
	}
	return NewSet(flags...), nil
}

// Has reports whether the set contains f.
func (s Set) Has(f Flag) bool {
	return slices.Contains(s, f)
}

// Strings returns the flag names.
func (s Set) Strings() []string {
	return lo.Map(s, func(f Flag, _ int) string { return string(f) })
}

func (s Set) String() string {
	return strings.Join(s.Strings(), ",")
}

// Features is the resolved feature set of the current runtime.
type Features struct {
	// Allowed lists the flags a provider or stream may declare and still be usable.
	Allowed Set `json:"allowed"`
}

// IsCompatible reports whether every flag in required is allowed by the runtime.
func IsCompatible(required Set, features Features) bool {
	for _, f := range required {
		if !features.Allowed.Has(f) {
			return false
		}
	}
	return true
}
