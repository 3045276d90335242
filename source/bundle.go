package source

import "github.com/vidhunt/vidhunt/stream"

// EmbedRef hands a URL over to the embed with the given id.
type EmbedRef struct {
	EmbedID string `json:"embedId"`
	URL     string `json:"url"`
}

// Bundle is what a scrape call produces: direct streams, embed references, or both.
// Direct streams take priority; embeds are consulted only if none of them validates.
type Bundle struct {
	Streams []stream.Stream `json:"streams,omitempty"`
	Embeds  []EmbedRef      `json:"embeds,omitempty"`
}

// Empty reports whether the bundle carries nothing to try.
func (b *Bundle) Empty() bool {
	return b == nil || (len(b.Streams) == 0 && len(b.Embeds) == 0)
}
