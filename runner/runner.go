// Package runner walks a provider registry in priority order and returns the first playable stream.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/log"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/network"
	"github.com/vidhunt/vidhunt/provider"
	"github.com/vidhunt/vidhunt/proxy"
	"github.com/vidhunt/vidhunt/source"
	"github.com/vidhunt/vidhunt/stream"
	"github.com/vidhunt/vidhunt/validate"
)

// ErrNoRegistry is returned when a runner has no registry to walk.
var ErrNoRegistry = errors.New("runner has no provider registry")

// Runner resolves media requests against a registry.
// A Runner holds no per-resolution state and may be shared by concurrent resolutions.
type Runner struct {
	Registry *provider.Registry
	// Validator probes candidate streams. Nil accepts every stream.
	Validator validate.Validator
	// Proxy is where streams that players cannot fetch directly are routed.
	Proxy proxy.Config
	// Fetcher is handed to providers for direct requests. Nil uses a standard fetcher.
	Fetcher network.Fetcher
	// ProxiedFetcher is handed to providers for proxied requests. Nil routes through Proxy.
	ProxiedFetcher network.Fetcher
	// Features is what the target runtime can do.
	Features feature.Features
	// Sink receives events. Nil drops them.
	Sink Sink
}

// Options tune a single resolution.
type Options struct {
	// SourceOrder lists source ids to try first, in order.
	SourceOrder []string
	// EmbedOrder lists embed ids to try first, in order.
	EmbedOrder []string
	// Timeout bounds the whole resolution. Zero leaves only the context deadline.
	Timeout time.Duration
	// IncludeExternal also tries sources marked external.
	IncludeExternal bool
}

// Outcome is a validated stream and the providers that produced it.
type Outcome struct {
	SourceID string            `json:"sourceId"`
	EmbedID  mo.Option[string] `json:"embedId"`
	Stream   stream.Stream     `json:"stream"`
}

// Resolve tries sources, and the embeds they hand off to, until a stream validates.
// It returns None when every provider is exhausted or the deadline passes.
// Provider errors never surface here; they are reported to the sink.
func (r *Runner) Resolve(ctx context.Context, req media.Request, opts Options) (mo.Option[Outcome], error) {
	if r.Registry == nil {
		return mo.None[Outcome](), ErrNoRegistry
	}

	if err := req.Validate(); err != nil {
		return mo.None[Outcome](), fmt.Errorf("invalid request: %w", err)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	return r.newRun(req, opts).resolve(ctx), nil
}

// Sources returns the sources a resolution of req would try, in order.
func (r *Runner) Sources(req media.Request, opts Options) []*provider.Source {
	selection := r.Registry.Select(r.Features)
	sources := lo.Filter(selection.Sources, func(s *provider.Source, _ int) bool {
		return s.Supports(req.Type) && (opts.IncludeExternal || !s.External)
	})
	return orderBy(sources, func(s *provider.Source) string { return s.ID }, opts.SourceOrder)
}

// Embeds returns the embeds a resolution would consult, in order.
func (r *Runner) Embeds(opts Options) []*provider.Embed {
	return orderBy(r.Registry.Select(r.Features).Embeds, func(e *provider.Embed) string { return e.ID }, opts.EmbedOrder)
}

// run is the state of one resolution.
type run struct {
	*Runner
	id      string
	req     media.Request
	sources []*provider.Source
	embeds  []*provider.Embed
	planner *proxy.Planner
	state   State
	log     *logrus.Entry
}

func (r *Runner) newRun(req media.Request, opts Options) *run {
	id := uuid.NewString()
	return &run{
		Runner:  r,
		id:      id,
		req:     req,
		sources: r.Sources(req, opts),
		embeds:  r.Embeds(opts),
		planner: proxy.NewPlanner(r.Proxy),
		log:     log.WithFields(log.Fields{"run": id, "request": req.String()}),
	}
}

func (r *run) resolve(ctx context.Context) mo.Option[Outcome] {
	r.emit(InitEvent{RunID: r.id, SourceIDs: lo.Map(r.sources, func(s *provider.Source, _ int) string { return s.ID })})

	for i, src := range r.sources {
		if ctx.Err() != nil {
			break
		}

		if !r.to(State{Phase: TryingSource, Source: i}) {
			break
		}
		if outcome, ok := r.trySource(ctx, i, src); ok {
			r.to(State{Phase: Resolved})
			r.log.Infof("resolved by %s", outcome.SourceID)
			return mo.Some(outcome)
		}
	}

	if r.state.Phase != Exhausted {
		r.to(State{Phase: Exhausted})
	}
	if ctx.Err() != nil {
		r.log.Warnf("deadline reached: %s", ctx.Err())
	} else {
		r.log.Info("no provider produced a playable stream")
	}
	return mo.None[Outcome]()
}

// trySource runs source i and, if needed, the embeds it discovered.
func (r *run) trySource(ctx context.Context, i int, src *provider.Source) (Outcome, bool) {
	r.emit(StartEvent{RunID: r.id, ID: src.ID})

	res := r.attempt(ctx, src.ID, len(r.sources)-i, func(ctx context.Context, sc *source.Context) (*source.Bundle, error) {
		return src.Scrape(ctx, sc, r.req)
	})

	if res.verdict == found {
		return Outcome{SourceID: src.ID, EmbedID: mo.None[string](), Stream: res.stream}, true
	}

	refs := r.usableEmbeds(res.embeds)
	if len(refs) == 0 {
		r.report(src.ID, res)
		return Outcome{}, false
	}

	discovered := lo.Map(refs, func(ref source.EmbedRef, j int) DiscoveredEmbed {
		return DiscoveredEmbed{ID: embedAttemptID(src.ID, j), EmbedScraperID: ref.EmbedID}
	})
	r.emit(DiscoverEmbedsEvent{RunID: r.id, SourceID: src.ID, Embeds: discovered})

	for j, ref := range refs {
		if ctx.Err() != nil {
			return Outcome{}, false
		}

		if !r.to(State{Phase: TryingEmbed, Source: i, Embed: j}) {
			return Outcome{}, false
		}

		id := embedAttemptID(src.ID, j)
		r.emit(StartEvent{RunID: r.id, ID: id})

		embed, _ := r.Registry.Embed(ref.EmbedID)
		share := len(refs) - j + len(r.sources) - i - 1
		res := r.attempt(ctx, id, share, func(ctx context.Context, sc *source.Context) (*source.Bundle, error) {
			return embed.Scrape(ctx, sc, ref.URL)
		})

		if res.verdict == found {
			return Outcome{SourceID: src.ID, EmbedID: mo.Some(embed.ID), Stream: res.stream}, true
		}
		r.report(id, res)
	}

	return Outcome{}, false
}

// usableEmbeds keeps the references to embeds selected for this run and sorts them in embed order.
func (r *run) usableEmbeds(refs []source.EmbedRef) []source.EmbedRef {
	position := make(map[string]int, len(r.embeds))
	for i, e := range r.embeds {
		position[e.ID] = i
	}

	usable := lo.Filter(refs, func(ref source.EmbedRef, _ int) bool {
		_, ok := position[ref.EmbedID]
		return ok
	})

	sort.SliceStable(usable, func(a, b int) bool { return position[usable[a].EmbedID] < position[usable[b].EmbedID] })
	return usable
}

func (r *run) report(id string, res result) {
	status := StatusFailure
	if res.verdict == notFound {
		status = StatusNotFound
	}
	r.emit(UpdateEvent{RunID: r.id, ID: id, Percentage: 100, Status: status, Reason: res.reason, Error: res.err})
}

// to moves the run to next. A transition CanTransition rejects is a runner bug:
// it is logged and the run is forced to Exhausted, so the caller gets None instead of a crash.
func (r *run) to(next State) bool {
	if !CanTransition(r.state, next) {
		r.log.Errorf("invalid transition %s -> %s", r.state, next)
		r.state = State{Phase: Exhausted}
		return false
	}
	r.log.Tracef("%s -> %s", r.state, next)
	r.state = next
	return true
}

func (r *run) emit(e Event) {
	if r.Sink != nil {
		r.Sink.Emit(e)
	}
}

func (r *Runner) context(progress func(float64)) *source.Context {
	fetcher := r.Fetcher
	if fetcher == nil {
		fetcher = network.NewStandard(nil)
	}

	proxied := r.ProxiedFetcher
	if proxied == nil {
		proxied = network.NewProxied(r.Proxy.BaseURL, fetcher)
	}

	return source.NewContext(fetcher, proxied, r.Features, progress)
}

func embedAttemptID(sourceID string, index int) string {
	return fmt.Sprintf("%s-%d", sourceID, index)
}
