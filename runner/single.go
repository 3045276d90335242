package runner

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/source"
)

// RunSource runs a single source and returns what it produced, after feature filtering and proxy planning.
// Embed references are kept only for embeds usable in this runtime. Streams are not validated
// and nothing falls back: errors from the source are returned as is.
func (r *Runner) RunSource(ctx context.Context, id string, req media.Request) (*source.Bundle, error) {
	if r.Registry == nil {
		return nil, ErrNoRegistry
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	src, ok := r.Registry.Source(id)
	if !ok {
		return nil, fmt.Errorf("unknown source %q", id)
	}

	run := r.newRun(req, Options{IncludeExternal: true})
	run.emit(StartEvent{RunID: run.id, ID: id})

	bundle, err := src.Scrape(ctx, run.progressContext(ctx, id), req)
	if err != nil {
		run.report(id, classify(err))
		return nil, err
	}
	if bundle == nil {
		bundle = &source.Bundle{}
	}

	return &source.Bundle{
		Streams: run.prepare(id, bundle.Streams),
		Embeds:  run.usableEmbeds(bundle.Embeds),
	}, nil
}

// RunEmbed runs a single embed on url, with the same filtering as RunSource.
func (r *Runner) RunEmbed(ctx context.Context, id, url string) (*source.Bundle, error) {
	if r.Registry == nil {
		return nil, ErrNoRegistry
	}

	embed, ok := r.Registry.Embed(id)
	if !ok {
		return nil, fmt.Errorf("unknown embed %q", id)
	}

	run := r.newRun(media.Request{}, Options{})
	run.emit(StartEvent{RunID: run.id, ID: id})

	bundle, err := embed.Scrape(ctx, run.progressContext(ctx, id), url)
	if err != nil {
		run.report(id, classify(err))
		return nil, err
	}
	if bundle == nil {
		bundle = &source.Bundle{}
	}

	return &source.Bundle{Streams: run.prepare(id, bundle.Streams)}, nil
}

// progressContext forwards progress as pending updates until ctx is done,
// so a provider abandoned after its deadline cannot emit out of order.
func (r *run) progressContext(ctx context.Context, id string) *source.Context {
	return r.context(func(percentage float64) {
		if ctx.Err() != nil {
			return
		}
		r.emit(UpdateEvent{RunID: r.id, ID: id, Percentage: percentage, Status: StatusPending})
	})
}

func classify(err error) result {
	return lo.Ternary(source.IsNotFound(err), notFoundResult(source.NotFoundReason(err)), failedResult(err.Error(), err))
}
