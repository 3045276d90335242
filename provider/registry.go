package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidhunt/vidhunt/feature"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// ConfigError lists every uniqueness violation found while building a registry.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid provider registry:\n  " + strings.Join(e.Problems, "\n  ")
}

// Registry is a validated, read-only set of providers. It is safe for concurrent use.
type Registry struct {
	sources []*Source
	embeds  []*Embed
	byID    map[string]Meta
}

// Selection is the subset of a registry usable by one run, in rank order.
type Selection struct {
	Sources []*Source
	Embeds  []*Embed
}

// Build validates the providers and returns a registry.
// It fails if an id is used twice across sources and embeds, or if two enabled sources
// (or two enabled embeds) share a rank. The error names every offending group.
func Build(sources []*Source, embeds []*Embed) (*Registry, error) {
	var problems []string

	metas := make([]Meta, 0, len(sources)+len(embeds))
	for i, s := range sources {
		if s == nil {
			problems = append(problems, fmt.Sprintf("source #%d is nil", i))
			continue
		}
		metas = append(metas, s.Meta)
	}
	for i, e := range embeds {
		if e == nil {
			problems = append(problems, fmt.Sprintf("embed #%d is nil", i))
			continue
		}
		metas = append(metas, e.Meta)
	}

	for _, group := range duplicates(metas, func(m Meta) string { return m.ID }) {
		problems = append(problems, fmt.Sprintf("duplicate id %q: %s", group[0].ID, describeGroup(group)))
	}

	for _, kind := range []Kind{KindSource, KindEmbed} {
		enabled := lo.Filter(metas, func(m Meta, _ int) bool { return m.Kind == kind && !m.Disabled })
		for _, group := range duplicates(enabled, func(m Meta) int { return m.Rank }) {
			problems = append(problems, fmt.Sprintf("duplicate %s rank %d: %s", kind, group[0].Rank, describeGroup(group)))
		}
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	r := &Registry{
		sources: append([]*Source(nil), sources...),
		embeds:  append([]*Embed(nil), embeds...),
		byID:    make(map[string]Meta, len(metas)),
	}
	sort.SliceStable(r.sources, func(i, j int) bool { return less(r.sources[i].Meta, r.sources[j].Meta) })
	sort.SliceStable(r.embeds, func(i, j int) bool { return less(r.embeds[i].Meta, r.embeds[j].Meta) })
	for _, m := range metas {
		r.byID[m.ID] = m
	}

	return r, nil
}

// MustBuild is like Build but panics on error.
func MustBuild(sources []*Source, embeds []*Embed) *Registry {
	return lo.Must(Build(sources, embeds))
}

// Select returns the enabled providers compatible with features, in rank order.
func (r *Registry) Select(features feature.Features) Selection {
	return Selection{
		Sources: lo.Filter(r.sources, func(s *Source, _ int) bool {
			return !s.Disabled && feature.IsCompatible(s.Flags, features)
		}),
		Embeds: lo.Filter(r.embeds, func(e *Embed, _ int) bool {
			return !e.Disabled && feature.IsCompatible(e.Flags, features)
		}),
	}
}

// Describe returns the metadata of the provider with the given id.
func (r *Registry) Describe(id string) mo.Option[Meta] {
	if m, ok := r.byID[id]; ok {
		return mo.Some(m)
	}
	return mo.None[Meta]()
}

// ListSorted returns every provider, highest rank first.
func (r *Registry) ListSorted() []Meta {
	metas := lo.Values(r.byID)
	sort.Slice(metas, func(i, j int) bool { return less(metas[i], metas[j]) })
	return metas
}

// IDs returns every provider id.
func (r *Registry) IDs() []string {
	ids := lo.Keys(r.byID)
	sort.Strings(ids)
	return ids
}

// Sources returns every source, disabled ones included, in rank order.
func (r *Registry) Sources() []*Source {
	return append([]*Source(nil), r.sources...)
}

// Embeds returns every embed, disabled ones included, in rank order.
func (r *Registry) Embeds() []*Embed {
	return append([]*Embed(nil), r.embeds...)
}

// Source looks a source up by id.
func (r *Registry) Source(id string) (*Source, bool) {
	return lo.Find(r.sources, func(s *Source) bool { return s.ID == id })
}

// Embed looks an embed up by id.
func (r *Registry) Embed(id string) (*Embed, bool) {
	return lo.Find(r.embeds, func(e *Embed) bool { return e.ID == id })
}

// less orders enabled providers before disabled ones, then by rank descending.
// Sources go before embeds and ids break the remaining ties, so the order is total.
func less(a, b Meta) bool {
	if a.Disabled != b.Disabled {
		return !a.Disabled
	}
	if a.Rank != b.Rank {
		return a.Rank > b.Rank
	}
	if a.Kind != b.Kind {
		return a.Kind == KindSource
	}
	return a.ID < b.ID
}

// duplicates groups metas by key and returns the groups with more than one member, sorted by key.
func duplicates[K constraints.Ordered](metas []Meta, key func(Meta) K) [][]Meta {
	groups := lo.GroupBy(metas, key)
	keys := lo.Keys(groups)
	slices.Sort(keys)

	var out [][]Meta
	for _, k := range keys {
		if len(groups[k]) > 1 {
			out = append(out, groups[k])
		}
	}
	return out
}

func describeGroup(group []Meta) string {
	return strings.Join(lo.Map(group, func(m Meta, _ int) string {
		return fmt.Sprintf("%s %s (%s)", m.Kind, m.ID, m.Name)
	}), ", ")
}
