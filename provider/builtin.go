package provider

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/vidhunt/vidhunt/source"
	"github.com/vidhunt/vidhunt/stream"
	"github.com/vidhunt/vidhunt/util"
)

// Builtin embed ids.
const (
	DirectHLSID  = "direct-hls"
	DirectFileID = "direct-file"
)

var qualityPattern = regexp.MustCompile(`(?i)(?P<height>2160|1080|720|480|360)p`)

// Builtins returns the providers compiled into the binary.
func Builtins() ([]*Source, []*Embed) {
	return nil, []*Embed{
		NewEmbed(EmbedDef{
			ID:     DirectHLSID,
			Name:   "Direct HLS",
			Rank:   2,
			Scrape: scrapeDirectHLS,
		}),
		NewEmbed(EmbedDef{
			ID:     DirectFileID,
			Name:   "Direct file",
			Rank:   1,
			Scrape: scrapeDirectFile,
		}),
	}
}

func scrapeDirectHLS(_ context.Context, ec *source.EmbedContext) (*source.Bundle, error) {
	u, err := parseMediaURL(ec.URL)
	if err != nil {
		return nil, err
	}

	if path.Ext(u.Path) != ".m3u8" {
		return nil, source.NotFound("not an hls playlist")
	}

	ec.Progress(100)
	return &source.Bundle{Streams: []stream.Stream{{
		ID:       "primary",
		Type:     stream.HLS,
		Playlist: u.String(),
		Captions: []stream.Caption{},
	}}}, nil
}

func scrapeDirectFile(_ context.Context, ec *source.EmbedContext) (*source.Bundle, error) {
	u, err := parseMediaURL(ec.URL)
	if err != nil {
		return nil, err
	}

	ext := strings.TrimPrefix(path.Ext(u.Path), ".")
	if ext != "mp4" && ext != "webm" && ext != "mkv" {
		return nil, source.NotFound("not a video file")
	}

	quality := stream.QualityUnknown
	switch height := util.ReGroups(qualityPattern, u.Path)["height"]; height {
	case "":
	case "2160":
		quality = stream.Quality4K
	default:
		quality = stream.Quality(height)
	}

	ec.Progress(100)
	return &source.Bundle{Streams: []stream.Stream{{
		ID:        "primary",
		Type:      stream.File,
		Qualities: map[stream.Quality]stream.Source{quality: {Type: ext, URL: u.String()}},
		Captions:  []stream.Caption{},
	}}}, nil
}

func parseMediaURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse embed url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported embed url scheme %q", u.Scheme)
	}
	return u, nil
}
