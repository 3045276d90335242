// Package provider holds the typed source and embed providers and the registry a resolution walks.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/source"
)

// Kind tells sources from embeds.
type Kind string

const (
	KindSource Kind = "source"
	KindEmbed  Kind = "embed"
)

// Meta is the introspectable description of a provider.
type Meta struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Rank         int          `json:"rank"`
	Disabled     bool         `json:"disabled"`
	Flags        feature.Set  `json:"flags"`
	Kind         Kind         `json:"kind"`
	External     bool         `json:"external,omitempty"`
	Custom       bool         `json:"custom,omitempty"`
	Capabilities []media.Type `json:"capabilities,omitempty"`
}

func (m Meta) String() string {
	return m.Name
}

// SourceDef is the raw definition of a source. Its media capabilities follow from which scrapers are set.
type SourceDef struct {
	ID          string
	Name        string
	Rank        int
	Disabled    bool
	Flags       feature.Set
	External    bool
	Custom      bool
	ScrapeMovie source.MovieScraper
	ScrapeShow  source.ShowScraper
}

// EmbedDef is the raw definition of an embed.
type EmbedDef struct {
	ID       string
	Name     string
	Rank     int
	Disabled bool
	Flags    feature.Set
	Custom   bool
	Scrape   source.EmbedScraper
}

// ErrUnsupported is returned when a source is asked for a media type it cannot scrape.
var ErrUnsupported = errors.New("media type not supported")

// Source is a typed source provider.
type Source struct {
	Meta
	scrapeMovie source.MovieScraper
	scrapeShow  source.ShowScraper
}

// NewSource derives a typed source from its definition. Missing scrapers reduce capability and never fail.
func NewSource(def SourceDef) *Source {
	var caps []media.Type
	if def.ScrapeMovie != nil {
		caps = append(caps, media.Movie)
	}
	if def.ScrapeShow != nil {
		caps = append(caps, media.Show)
	}

	return &Source{
		Meta: Meta{
			ID:           def.ID,
			Name:         def.Name,
			Rank:         def.Rank,
			Disabled:     def.Disabled,
			Flags:        feature.NewSet(def.Flags...),
			Kind:         KindSource,
			External:     def.External,
			Custom:       def.Custom,
			Capabilities: caps,
		},
		scrapeMovie: def.ScrapeMovie,
		scrapeShow:  def.ScrapeShow,
	}
}

// Supports reports whether the source can scrape media of type t.
func (s *Source) Supports(t media.Type) bool {
	for _, c := range s.Capabilities {
		if c == t {
			return true
		}
	}
	return false
}

// Scrape runs the scraper matching the request type.
func (s *Source) Scrape(ctx context.Context, sc *source.Context, req media.Request) (*source.Bundle, error) {
	switch {
	case req.Type == media.Movie && s.Supports(media.Movie):
		return s.scrapeMovie(ctx, sc, req)
	case req.Type == media.Show && s.Supports(media.Show):
		return s.scrapeShow(ctx, sc, req)
	default:
		return nil, fmt.Errorf("%s: %w: %s", s.ID, ErrUnsupported, req.Type)
	}
}

// Embed is a typed embed provider. Embeds have no media capabilities; they work on opaque URLs.
type Embed struct {
	Meta
	scrape source.EmbedScraper
}

// NewEmbed derives a typed embed from its definition.
func NewEmbed(def EmbedDef) *Embed {
	return &Embed{
		Meta: Meta{
			ID:       def.ID,
			Name:     def.Name,
			Rank:     def.Rank,
			Disabled: def.Disabled,
			Flags:    feature.NewSet(def.Flags...),
			Kind:     KindEmbed,
			Custom:   def.Custom,
		},
		scrape: def.Scrape,
	}
}

// Scrape resolves url into streams.
func (e *Embed) Scrape(ctx context.Context, sc *source.Context, url string) (*source.Bundle, error) {
	if e.scrape == nil {
		return nil, fmt.Errorf("%s: embed has no scraper", e.ID)
	}
	return e.scrape(ctx, &source.EmbedContext{Context: sc, URL: url})
}
