package network

import (
	"context"
	"errors"
	"strings"
)

// ErrNoProxy is returned by a proxied fetcher that has no proxy configured.
var ErrNoProxy = errors.New("no proxy configured")

// headerMap lists request headers a browser cannot set itself, and the names the proxy expects them under.
var headerMap = map[string]string{
	"cookie":     "X-Cookie",
	"referer":    "X-Referer",
	"origin":     "X-Origin",
	"user-agent": "X-User-Agent",
}

// Proxied routes every call through a simple forwarding proxy: GET <base>/?destination=<url>.
type Proxied struct {
	base  string
	inner Fetcher
}

// NewProxied returns a fetcher that sends requests through the proxy at base using inner.
// An empty base yields a fetcher that always fails with ErrNoProxy.
func NewProxied(base string, inner Fetcher) *Proxied {
	if inner == nil {
		inner = NewStandard(nil)
	}
	return &Proxied{base: strings.TrimRight(base, "/"), inner: inner}
}

// Fetch forwards req through the proxy.
func (p *Proxied) Fetch(ctx context.Context, req Request) (*Response, error) {
	if p.base == "" {
		return nil, ErrNoProxy
	}

	destination, err := BuildURL(req.URL, req.Query)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		if mapped, ok := headerMap[strings.ToLower(k)]; ok {
			headers[mapped] = v
			continue
		}
		headers[k] = v
	}

	resp, err := p.inner.Fetch(ctx, Request{
		Method:  req.Method,
		URL:     p.base + "/",
		Query:   map[string]string{"destination": destination},
		Headers: headers,
		Body:    req.Body,
	})
	if err != nil {
		return nil, err
	}

	if final := resp.Headers.Get("X-Final-Destination"); final != "" {
		resp.FinalURL = final
	} else {
		resp.FinalURL = destination
	}

	if cookie := resp.Headers.Get("X-Set-Cookie"); cookie != "" {
		resp.Headers = resp.Headers.Clone()
		resp.Headers.Set("Set-Cookie", cookie)
	}

	return resp, nil
}
