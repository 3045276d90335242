package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/source"
	"github.com/vidhunt/vidhunt/stream"
	"github.com/vidhunt/vidhunt/validate"
)

// verdict is the outcome of trying one provider.
type verdict int

const (
	found verdict = iota
	notFound
	failed
)

type result struct {
	verdict verdict
	stream  stream.Stream
	embeds  []source.EmbedRef
	reason  string
	err     error
}

func notFoundResult(reason string) result {
	return result{verdict: notFound, reason: reason}
}

func failedResult(reason string, err error) result {
	return result{verdict: failed, reason: reason, err: err}
}

type scrapeFunc func(ctx context.Context, sc *source.Context) (*source.Bundle, error)

// panicError is a provider panic turned into an attempt failure.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("provider panicked: %v", e.value)
}

type reply[T any] struct {
	value T
	err   error
}

// guard runs fn in its own goroutine and stops waiting for it once ctx is done.
// A panic in fn is returned as a *panicError. An abandoned fn keeps running until it
// returns on its own, so providers should still honour ctx.
func guard[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	done := make(chan reply[T], 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- reply[T]{err: &panicError{value: p, stack: debug.Stack()}}
			}
		}()

		value, err := fn()
		done <- reply[T]{value: value, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// interrupted classifies an error caused by a panic or by the attempt running out of time.
func (r *run) interrupted(ctx context.Context, id string, err error) (result, bool) {
	var panicked *panicError
	if errors.As(err, &panicked) {
		r.log.Errorf("%s: %s", id, panicked)
		r.log.Debugf("%s: %s", id, panicked.stack)
		return failedResult(panicked.Error(), err), true
	}

	if ctx.Err() != nil {
		if err != nil && !errors.Is(err, ctx.Err()) {
			err = errors.Join(ctx.Err(), err)
		} else {
			err = ctx.Err()
		}
		return failedResult("deadline exceeded", err), true
	}

	return result{}, false
}

// attempt scrapes one provider and validates the first usable stream it returns.
// share is the number of attempts, this one included, left to divide the remaining budget between.
// Embed references are passed back for the caller to follow.
// Panics and expired deadlines are failures, whatever the provider returned.
func (r *run) attempt(ctx context.Context, id string, share int, scrape scrapeFunc) result {
	ctx, cancel := budget(ctx, share)
	defer cancel()

	sc := r.progressContext(ctx, id)

	bundle, err := guard(ctx, func() (*source.Bundle, error) { return scrape(ctx, sc) })
	if res, ok := r.interrupted(ctx, id, err); ok {
		return res
	}

	switch {
	case source.IsNotFound(err):
		return notFoundResult(source.NotFoundReason(err))
	case err != nil:
		return failedResult(err.Error(), err)
	case bundle == nil || bundle.Empty():
		return notFoundResult("no streams or embeds found")
	}

	res := notFoundResult("no compatible streams found")
	res.embeds = bundle.Embeds

	streams := r.prepare(id, bundle.Streams)
	if len(streams) == 0 {
		return res
	}

	validated, err := guard(ctx, func() (mo.Option[stream.Stream], error) {
		return r.validator().Validate(ctx, streams[0], sc)
	})
	if stopped, ok := r.interrupted(ctx, id, err); ok {
		stopped.embeds = res.embeds
		return stopped
	}

	switch {
	case err != nil:
		res.verdict, res.reason, res.err = failed, "validation error", err
	case validated.IsAbsent():
		res.verdict, res.reason = failed, "stream failed validation"
	default:
		res.verdict, res.stream = found, validated.MustGet()
	}

	return res
}

// prepare drops streams the runtime cannot use and routes the rest through the proxy where needed.
func (r *run) prepare(id string, streams []stream.Stream) []stream.Stream {
	return lo.FilterMap(streams, func(s stream.Stream, _ int) (stream.Stream, bool) {
		if !feature.IsCompatible(s.Flags, r.Features) {
			r.log.Debugf("%s: dropping stream %s with flags %s", id, s.ID, s.Flags)
			return s, false
		}

		planned, err := r.planner.Plan(s)
		if err != nil {
			r.log.Warnf("%s: cannot proxy stream %s: %s", id, s.ID, err)
			return s, false
		}
		return planned, true
	})
}

func (r *Runner) validator() validate.Validator {
	if r.Validator == nil {
		return validate.Noop{}
	}
	return r.Validator
}

// budget derives the context of one attempt: an even share of whatever time is left,
// so that a slow provider cannot use up the budget of the ones after it.
func budget(ctx context.Context, share int) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok || share <= 1 {
		return context.WithCancel(ctx)
	}

	remaining := time.Until(deadline)
	return context.WithTimeout(ctx, remaining/time.Duration(share))
}
