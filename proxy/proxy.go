// Package proxy rewrites streams so that players fetch them through a header-rewriting CORS proxy.
package proxy

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/samber/lo"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/stream"
)

// Proxy endpoint paths, relative to the base URL.
const (
	PlaylistPath = "m3u8-proxy"
	FilePath     = "proxy"
)

// Config is the proxy configuration of one resolution.
type Config struct {
	// BaseURL is the proxy root. Empty disables wrapping.
	BaseURL string `json:"baseUrl"`
}

// Enabled reports whether a proxy is configured.
func (c Config) Enabled() bool {
	return c.BaseURL != ""
}

// Validate checks the base URL is an absolute http(s) URL.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("parse proxy url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("proxy url must be absolute http(s), got %q", c.BaseURL)
	}
	return nil
}

// Payload is what a wrapped URL carries for the proxy.
type Payload struct {
	URL     string            `json:"u"`
	Headers map[string]string `json:"h,omitempty"`
	// Depth counts how many playlist levels the proxy has already rewritten.
	Depth int `json:"depth"`
}

// Encode returns the opaque query value for p.
func (p Payload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode extracts the payload of a wrapped URL. It reports false for URLs that are not wrapped.
func Decode(rawURL string) (Payload, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Payload{}, false
	}

	if base := path.Base(u.Path); base != PlaylistPath && base != FilePath {
		return Payload{}, false
	}

	data, err := base64.RawURLEncoding.DecodeString(u.Query().Get("d"))
	if err != nil {
		return Payload{}, false
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil || p.URL == "" {
		return Payload{}, false
	}
	return p, true
}

// NeedsProxy reports whether a player could not fetch s directly:
// it is not marked cors-allowed, or it requires headers players cannot attach.
func NeedsProxy(s stream.Stream) bool {
	return !s.Flags.Has(feature.CORSAllowed) || len(s.Headers) > 0
}

// Wrap rewrites every media URL of s to go through the proxy at baseURL.
// The result needs no headers and is cors-allowed. URLs that are already wrapped
// are moved onto baseURL instead of being wrapped twice.
func Wrap(s stream.Stream, baseURL string) (stream.Stream, error) {
	if baseURL == "" {
		return stream.Stream{}, errors.New("no proxy url")
	}

	out := s.Clone()
	headers := lo.Assign(s.PreferredHeaders, s.Headers)

	switch s.Type {
	case stream.HLS:
		wrapped, err := wrapURL(s.Playlist, baseURL, PlaylistPath, headers)
		if err != nil {
			return stream.Stream{}, err
		}
		out.Playlist = wrapped
	case stream.File:
		for q, src := range s.Qualities {
			wrapped, err := wrapURL(src.URL, baseURL, FilePath, headers)
			if err != nil {
				return stream.Stream{}, err
			}
			out.Qualities[q] = stream.Source{Type: src.Type, URL: wrapped}
		}
	default:
		return stream.Stream{}, fmt.Errorf("unknown stream type %q", s.Type)
	}

	out.Headers = nil
	out.PreferredHeaders = nil
	out.Flags = feature.NewSet(feature.CORSAllowed)

	return out, nil
}

// IsWrapped reports whether every media URL of s points at a proxy.
func IsWrapped(s stream.Stream) bool {
	if s.Type == stream.HLS {
		_, ok := Decode(s.Playlist)
		return ok
	}

	return len(s.Qualities) > 0 && lo.EveryBy(lo.Values(s.Qualities), func(src stream.Source) bool {
		_, ok := Decode(src.URL)
		return ok
	})
}

func wrapURL(target, baseURL, endpoint string, headers map[string]string) (string, error) {
	payload := Payload{URL: target, Headers: headers}
	if existing, ok := Decode(target); ok {
		payload = existing
		if len(headers) > 0 {
			payload.Headers = lo.Assign(existing.Headers, headers)
		}
	}

	encoded, err := payload.Encode()
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(baseURL, "/") + "/" + endpoint + "?d=" + encoded, nil
}

// Planner decides per stream whether to wrap it.
type Planner struct {
	Config Config
}

// NewPlanner returns a planner for cfg.
func NewPlanner(cfg Config) *Planner {
	return &Planner{Config: cfg}
}

// Plan wraps s if it needs a proxy and one is configured. Otherwise s is returned unchanged,
// and feature filtering decides whether it is usable as is.
func (p *Planner) Plan(s stream.Stream) (stream.Stream, error) {
	if !p.Config.Enabled() || !NeedsProxy(s) {
		return s, nil
	}
	return Wrap(s, p.Config.BaseURL)
}
