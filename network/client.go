// Package network provides the HTTP fetchers handed to providers and the stream validator.
package network

import (
	"net/http"
	"time"
)

// Client backs the Standard fetcher when none is given.
// Deadlines come from the request context; Timeout only caps stalled transfers.
var Client = &http.Client{
	Timeout:   2 * time.Minute,
	Transport: pooledTransport(),
}

// pooledTransport keeps connections to the same host alive across
// sources and probes of one resolution.
func pooledTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 90 * time.Second
	t.ResponseHeaderTimeout = 20 * time.Second
	t.TLSHandshakeTimeout = 10 * time.Second
	return t
}
