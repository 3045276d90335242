package network

// The TLS fetcher mimics Chrome's Client Hello through refraction-networking/utls.
// Some CDNs in front of provider sites reject the Go TLS fingerprint outright.
//
// Protocol negotiation: the fetcher first dials with ALPN advertising h2 and http/1.1.
// If the h2 round trip fails it retries once over a transport that forces http/1.1.

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 30 * time.Second

var (
	h2Transport     *http2.Transport
	h2TransportOnce sync.Once
)

func getH2Transport() *http2.Transport {
	h2TransportOnce.Do(func() {
		h2Transport = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialTLS(ctx, network, addr, nil)
			},
		}
	})
	return h2Transport
}

var h1Transport = &http.Transport{
	DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialTLS(ctx, network, addr, []string{"http/1.1"})
	},
}

// TLS fetches with a browser TLS fingerprint.
type TLS struct{}

// NewTLS returns a fingerprinting fetcher.
func NewTLS() *TLS {
	return &TLS{}
}

// Fetch performs req over h2, falling back to http/1.1.
func (TLS) Fetch(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := do(&http.Client{Transport: getH2Transport()}, httpReq)
	if err == nil {
		return resp, nil
	}

	if ctx.Err() != nil {
		return nil, err
	}

	retry, rerr := newHTTPRequest(ctx, req)
	if rerr != nil {
		return nil, rerr
	}
	return do(&http.Client{Transport: h1Transport}, retry)
}

// dialTLS creates a TLS connection mimicking Chrome 120's fingerprint.
// A nil protos advertises both h2 and http/1.1, which is what Chrome does.
func dialTLS(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
