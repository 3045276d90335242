// Package server exposes resolution over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/log"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/metrics"
	"github.com/vidhunt/vidhunt/runner"
)

const shutdownTimeout = 10 * time.Second

// Server serves resolutions from a shared registry. Every request resolves with its own options.
type Server struct {
	base     runner.Runner
	defaults runner.Options
	metrics  *metrics.Metrics
	router   chi.Router
}

// New returns a server resolving with copies of base. m may be nil to disable metrics.
func New(base runner.Runner, m *metrics.Metrics) *Server {
	s := &Server{base: base, metrics: m}

	r := chi.NewRouter()
	r.Use(requestLogger)
	if m != nil {
		r.Use(metrics.RequestMiddleware(m))
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/healthz", s.healthz)
	r.Get("/resolve", s.resolve)
	r.Route("/providers", func(r chi.Router) {
		r.Get("/", s.providers)
		r.Get("/{id}", s.provider)
	})

	s.router = r
	return s
}

// WithDefaults sets the options used where a request leaves them out.
func (s *Server) WithDefaults(opts runner.Options) *Server {
	s.defaults = opts
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then drains connections.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Infof("server listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info("server stopped")
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"providers": len(s.base.Registry.IDs()),
	})
}

func (s *Server) providers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.base.Registry.ListSorted())
}

func (s *Server) provider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta, ok := s.base.Registry.Describe(id).Get()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown provider %q", id))
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	req, opts, features, err := parseResolve(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if len(opts.SourceOrder) == 0 {
		opts.SourceOrder = s.defaults.SourceOrder
	}
	if len(opts.EmbedOrder) == 0 {
		opts.EmbedOrder = s.defaults.EmbedOrder
	}
	if opts.Timeout == 0 {
		opts.Timeout = s.defaults.Timeout
	}
	opts.IncludeExternal = opts.IncludeExternal || s.defaults.IncludeExternal

	run := s.base
	run.Features = features.OrElse(s.base.Features)
	sinks := runner.MultiSink{runner.LogSink{}}
	if s.metrics != nil {
		sinks = append(sinks, s.metrics)
	}
	run.Sink = sinks

	outcome, err := run.Resolve(r.Context(), req, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if s.metrics != nil {
		s.metrics.ObserveResolution(outcome.IsPresent())
	}

	found, ok := outcome.Get()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no playable stream found"))
		return
	}

	writeJSON(w, http.StatusOK, found)
}

func parseResolve(r *http.Request) (media.Request, runner.Options, mo.Option[feature.Features], error) {
	q := r.URL.Query()

	t, err := media.ParseType(q.Get("type"))
	if err != nil {
		return media.Request{}, runner.Options{}, mo.None[feature.Features](), err
	}

	req := media.Request{Type: t, ID: q.Get("id"), Title: q.Get("title")}
	if year := q.Get("year"); year != "" {
		if req.ReleaseYear, err = strconv.Atoi(year); err != nil {
			return media.Request{}, runner.Options{}, mo.None[feature.Features](), fmt.Errorf("invalid year %q", year)
		}
	}

	if t == media.Show {
		season, serr := strconv.Atoi(q.Get("season"))
		episode, eerr := strconv.Atoi(q.Get("episode"))
		if serr != nil || eerr != nil {
			return media.Request{}, runner.Options{}, mo.None[feature.Features](), errors.New("show requests need numeric season and episode")
		}
		req.Season = &media.Numbered{Number: season}
		req.Episode = &media.Numbered{Number: episode}
	}

	opts := runner.Options{
		SourceOrder:     splitList(q.Get("sources")),
		EmbedOrder:      splitList(q.Get("embeds")),
		IncludeExternal: q.Get("include_external") == "true",
	}

	if raw := q.Get("timeout"); raw != "" {
		if opts.Timeout, err = parseTimeout(raw); err != nil {
			return media.Request{}, runner.Options{}, mo.None[feature.Features](), err
		}
	}

	features := mo.None[feature.Features]()
	if raw := q.Get("target"); raw != "" {
		target, err := feature.ParseTarget(raw)
		if err != nil {
			return media.Request{}, runner.Options{}, mo.None[feature.Features](), err
		}
		features = mo.Some(feature.ForTarget(target))
	}

	return req, opts, features, nil
}

// parseTimeout accepts a Go duration or a number of seconds.
func parseTimeout(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	return lo.Compact(lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("encode response: %s", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
