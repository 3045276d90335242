// Package source defines the contract between the resolution runner and the providers it drives.
package source

import (
	"context"

	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/network"
)

// Context is handed to every scrape call.
type Context struct {
	// Fetcher makes direct requests.
	Fetcher network.Fetcher
	// ProxiedFetcher makes requests through a proxy, for endpoints that reject the runtime's origin.
	ProxiedFetcher network.Fetcher
	// Features is the feature set of the current runtime.
	Features feature.Features

	progress func(percentage float64)
}

// NewContext builds a scrape context reporting progress to fn, which may be nil.
func NewContext(fetcher, proxied network.Fetcher, features feature.Features, fn func(float64)) *Context {
	return &Context{Fetcher: fetcher, ProxiedFetcher: proxied, Features: features, progress: fn}
}

// Progress reports scrape progress in percent, clamped to 0-100.
func (c *Context) Progress(percentage float64) {
	if c == nil || c.progress == nil {
		return
	}
	c.progress(min(max(percentage, 0), 100))
}

// EmbedContext is handed to embed scrapers together with the URL a source discovered.
type EmbedContext struct {
	*Context
	URL string
}

// MovieScraper resolves a movie request.
type MovieScraper func(ctx context.Context, sc *Context, req media.Request) (*Bundle, error)

// ShowScraper resolves a show episode request.
type ShowScraper func(ctx context.Context, sc *Context, req media.Request) (*Bundle, error)

// EmbedScraper turns an opaque embed URL into streams.
type EmbedScraper func(ctx context.Context, ec *EmbedContext) (*Bundle, error)
