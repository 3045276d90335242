// Package validate probes resolved streams to confirm they are playable before a run accepts them.
package validate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/log"
	"github.com/vidhunt/vidhunt/network"
	"github.com/vidhunt/vidhunt/proxy"
	"github.com/vidhunt/vidhunt/source"
	"github.com/vidhunt/vidhunt/stream"
)

// Validator decides whether a stream is playable.
// It returns the stream to play, possibly adjusted, or None when the stream is rejected.
// An error means the probe itself could not be performed.
type Validator interface {
	Validate(ctx context.Context, s stream.Stream, sc *source.Context) (mo.Option[stream.Stream], error)
}

// Func adapts a function to the Validator interface.
type Func func(ctx context.Context, s stream.Stream, sc *source.Context) (mo.Option[stream.Stream], error)

// Validate calls f.
func (f Func) Validate(ctx context.Context, s stream.Stream, sc *source.Context) (mo.Option[stream.Stream], error) {
	return f(ctx, s, sc)
}

// Noop accepts every stream unchanged.
type Noop struct{}

// Validate returns s.
func (Noop) Validate(_ context.Context, s stream.Stream, _ *source.Context) (mo.Option[stream.Stream], error) {
	return mo.Some(s), nil
}

var errRejected = errors.New("stream rejected")

// errTransient marks failures worth another attempt.
type errTransient struct{ err error }

func (e errTransient) Error() string { return e.err.Error() }
func (e errTransient) Unwrap() error { return e.err }

// HTTP probes the stream's first URL.
// HLS playlists must answer 2xx with an #EXTM3U body; files must answer a one-byte range request.
type HTTP struct {
	// Attempts is how many times a transient failure is tried. Zero means 2.
	Attempts uint
	// Timeout bounds each probe. Zero leaves only the context deadline.
	Timeout time.Duration
	// Delay is the pause between attempts.
	Delay time.Duration
}

// NewHTTP returns an HTTP validator.
func NewHTTP(attempts uint, timeout time.Duration) *HTTP {
	return &HTTP{Attempts: attempts, Timeout: timeout, Delay: 200 * time.Millisecond}
}

// Validate probes s with the fetchers of sc.
func (h *HTTP) Validate(ctx context.Context, s stream.Stream, sc *source.Context) (mo.Option[stream.Stream], error) {
	if err := s.Validate(); err != nil {
		log.Debugf("stream %s is malformed: %s", s.ID, err)
		return mo.None[stream.Stream](), nil
	}

	fetcher := h.fetcher(s, sc)
	if fetcher == nil {
		return mo.None[stream.Stream](), errors.New("no fetcher available")
	}

	attempts := lo.Ternary(h.Attempts == 0, uint(2), h.Attempts)

	err := retry.Do(
		func() error { return h.probe(ctx, fetcher, s) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(h.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var t errTransient
			return errors.As(err, &t)
		}),
	)

	switch {
	case err == nil:
		return mo.Some(s), nil
	case errors.Is(err, errRejected):
		log.Debugf("stream %s rejected: %s", s.ID, err)
		return mo.None[stream.Stream](), nil
	case ctx.Err() != nil:
		return mo.None[stream.Stream](), ctx.Err()
	default:
		log.Debugf("stream %s unreachable: %s", s.ID, err)
		return mo.None[stream.Stream](), nil
	}
}

// fetcher picks the proxied fetcher for streams that were not wrapped and are not cors-allowed,
// since a direct probe would not reflect what a restricted runtime can play.
func (h *HTTP) fetcher(s stream.Stream, sc *source.Context) network.Fetcher {
	if sc == nil {
		return network.NewStandard(nil)
	}

	if !proxy.IsWrapped(s) && !s.Flags.Has(feature.CORSAllowed) && sc.ProxiedFetcher != nil {
		return sc.ProxiedFetcher
	}

	if sc.Fetcher != nil {
		return sc.Fetcher
	}
	return sc.ProxiedFetcher
}

func (h *HTTP) probe(ctx context.Context, fetcher network.Fetcher, s stream.Stream) error {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	req := network.Request{Method: http.MethodGet, URL: s.URL(), Headers: lo.Assign(s.PreferredHeaders, s.Headers)}
	if s.Type == stream.File {
		req.Headers["Range"] = "bytes=0-0"
	}

	resp, err := fetcher.Fetch(ctx, req)
	if err != nil {
		return errTransient{err}
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return errTransient{fmt.Errorf("status %d", resp.StatusCode)}
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d", errRejected, resp.StatusCode)
	}

	if s.Type == stream.HLS && !bytes.HasPrefix(bytes.TrimLeft(resp.Body, "\ufeff \t\r\n"), []byte("#EXTM3U")) {
		return fmt.Errorf("%w: not an hls playlist", errRejected)
	}

	return nil
}
