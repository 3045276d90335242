package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/provider"
	"github.com/vidhunt/vidhunt/proxy"
	"github.com/vidhunt/vidhunt/source"
	"github.com/vidhunt/vidhunt/stream"
	"github.com/vidhunt/vidhunt/validate"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// trace renders events without run ids or progress updates.
func (r *recorder) trace() []string {
	var out []string
	for _, e := range r.events {
		switch e := e.(type) {
		case InitEvent:
			out = append(out, "init "+strings.Join(e.SourceIDs, ","))
		case StartEvent:
			out = append(out, "start "+e.ID)
		case UpdateEvent:
			if e.Status != StatusPending {
				out = append(out, "update "+e.ID+" "+string(e.Status))
			}
		case DiscoverEmbedsEvent:
			ids := make([]string, len(e.Embeds))
			for i, d := range e.Embeds {
				ids[i] = d.ID + "=" + d.EmbedScraperID
			}
			out = append(out, "discover "+e.SourceID+" "+strings.Join(ids, ","))
		}
	}
	return out
}

func hlsStream(url string, flags ...feature.Flag) stream.Stream {
	return stream.Stream{ID: "primary", Type: stream.HLS, Playlist: url, Flags: feature.NewSet(flags...), Captions: []stream.Caption{}}
}

func streams(s ...stream.Stream) *source.Bundle {
	return &source.Bundle{Streams: s}
}

func embeds(refs ...source.EmbedRef) *source.Bundle {
	return &source.Bundle{Embeds: refs}
}

type scraper func(ctx context.Context) (*source.Bundle, error)

func src(id string, rank int, scrape scraper) *provider.Source {
	fn := func(ctx context.Context, _ *source.Context, _ media.Request) (*source.Bundle, error) {
		return scrape(ctx)
	}
	return provider.NewSource(provider.SourceDef{ID: id, Name: id, Rank: rank, ScrapeMovie: fn, ScrapeShow: fn})
}

func emb(id string, rank int, scrape scraper) *provider.Embed {
	return provider.NewEmbed(provider.EmbedDef{ID: id, Name: id, Rank: rank, Scrape: func(ctx context.Context, _ *source.EmbedContext) (*source.Bundle, error) {
		return scrape(ctx)
	}})
}

func returns(b *source.Bundle) scraper {
	return func(context.Context) (*source.Bundle, error) { return b, nil }
}

func fails(err error) scraper {
	return func(context.Context) (*source.Bundle, error) { return nil, err }
}

// rejecting fails validation for streams whose url contains any of the given markers.
func rejecting(markers ...string) validate.Validator {
	return validate.Func(func(_ context.Context, s stream.Stream, _ *source.Context) (mo.Option[stream.Stream], error) {
		for _, m := range markers {
			if strings.Contains(s.URL(), m) {
				return mo.None[stream.Stream](), nil
			}
		}
		return mo.Some(s), nil
	})
}

func newRunner(sources []*provider.Source, embedList []*provider.Embed, sink Sink) *Runner {
	return &Runner{
		Registry: provider.MustBuild(sources, embedList),
		Features: feature.ForTarget(feature.Native),
		Sink:     sink,
	}
}

func TestResolve(t *testing.T) {
	Convey("Given a runner", t, func() {
		rec := &recorder{}
		ctx := context.Background()
		movie := media.NewMovie("42")

		Convey("A not-found source falls through to the next, whose stream is proxied", func() {
			r := newRunner([]*provider.Source{
				src("s1", 10, fails(source.NotFound("missing"))),
				src("s2", 5, returns(streams(hlsStream("https://cdn.example/master.m3u8")))),
			}, nil, rec)
			r.Features = feature.ForTarget(feature.Browser)
			r.Proxy = proxy.Config{BaseURL: "https://proxy.example"}

			outcome, err := r.Resolve(ctx, movie, Options{})
			So(err, ShouldBeNil)
			So(rec.trace(), ShouldResemble, []string{"init s1,s2", "start s1", "update s1 notfound", "start s2"})

			out := outcome.MustGet()
			So(out.SourceID, ShouldEqual, "s2")
			So(out.EmbedID.IsAbsent(), ShouldBeTrue)
			So(out.Stream.Playlist, ShouldStartWith, "https://proxy.example/m3u8-proxy?d=")
			So(proxy.IsWrapped(out.Stream), ShouldBeTrue)

			update := rec.events[2].(UpdateEvent)
			So(update.Reason, ShouldEqual, "missing")
		})

		Convey("Embeds are tried in embed order and the first success wins", func() {
			r := newRunner(
				[]*provider.Source{src("s", 1, returns(embeds(
					source.EmbedRef{EmbedID: "e1", URL: "https://e1.example"},
					source.EmbedRef{EmbedID: "e2", URL: "https://e2.example"},
				)))},
				[]*provider.Embed{
					emb("e1", 2, returns(streams(hlsStream("https://cdn.example/e1.m3u8", feature.CORSAllowed)))),
					emb("e2", 1, fails(errors.New("boom"))),
				},
				rec,
			)

			outcome, err := r.Resolve(ctx, media.NewShow("7", 1, 2), Options{EmbedOrder: []string{"e2", "e1"}})
			So(err, ShouldBeNil)
			So(outcome.MustGet().EmbedID.MustGet(), ShouldEqual, "e1")
			So(outcome.MustGet().SourceID, ShouldEqual, "s")
			So(rec.trace(), ShouldResemble, []string{
				"init s",
				"start s",
				"discover s s-0=e2,s-1=e1",
				"start s-0",
				"update s-0 failure",
				"start s-1",
			})
		})

		Convey("The first source to produce a valid stream wins and later ones never run", func() {
			called := false
			r := newRunner([]*provider.Source{
				src("a", 100, returns(streams(hlsStream("https://a.example/x.m3u8", feature.CORSAllowed)))),
				src("b", 50, func(context.Context) (*source.Bundle, error) {
					called = true
					return streams(hlsStream("https://b.example/x.m3u8", feature.CORSAllowed)), nil
				}),
			}, nil, rec)

			outcome, _ := r.Resolve(ctx, movie, Options{})
			So(outcome.MustGet().SourceID, ShouldEqual, "a")
			So(called, ShouldBeFalse)
		})

		Convey("When the first embed fails validation the second is tried before the next source", func() {
			r := newRunner(
				[]*provider.Source{
					src("s1", 2, returns(embeds(
						source.EmbedRef{EmbedID: "e1", URL: "u1"},
						source.EmbedRef{EmbedID: "e2", URL: "u2"},
					))),
					src("s2", 1, returns(streams(hlsStream("https://s2.example/x.m3u8", feature.CORSAllowed)))),
				},
				[]*provider.Embed{
					emb("e1", 2, returns(streams(hlsStream("https://bad.example/x.m3u8", feature.CORSAllowed)))),
					emb("e2", 1, returns(streams(hlsStream("https://good.example/x.m3u8", feature.CORSAllowed)))),
				},
				rec,
			)
			r.Validator = rejecting("bad.example")

			outcome, _ := r.Resolve(ctx, movie, Options{})
			So(outcome.MustGet().SourceID, ShouldEqual, "s1")
			So(outcome.MustGet().EmbedID.MustGet(), ShouldEqual, "e2")
			So(rec.trace(), ShouldContain, "update s1-0 failure")
			So(rec.trace(), ShouldNotContain, "start s2")
		})

		Convey("A direct stream that fails validation falls through to the source's embeds", func() {
			r := newRunner(
				[]*provider.Source{src("s", 1, returns(&source.Bundle{
					Streams: []stream.Stream{hlsStream("https://bad.example/x.m3u8", feature.CORSAllowed)},
					Embeds:  []source.EmbedRef{{EmbedID: "e", URL: "u"}},
				}))},
				[]*provider.Embed{emb("e", 1, returns(streams(hlsStream("https://good.example/x.m3u8", feature.CORSAllowed))))},
				rec,
			)
			r.Validator = rejecting("bad.example")

			outcome, _ := r.Resolve(ctx, movie, Options{})
			So(outcome.MustGet().EmbedID.MustGet(), ShouldEqual, "e")
		})

		Convey("A direct stream that fails validation with no embeds is a failure", func() {
			r := newRunner([]*provider.Source{src("s", 1, returns(streams(hlsStream("https://bad.example/x.m3u8"))))}, nil, rec)
			r.Validator = rejecting("bad.example")

			outcome, err := r.Resolve(ctx, movie, Options{})
			So(err, ShouldBeNil)
			So(outcome.IsAbsent(), ShouldBeTrue)
			So(rec.trace(), ShouldContain, "update s failure")
		})

		Convey("Exhaustion returns none without an error", func() {
			r := newRunner(
				[]*provider.Source{
					src("s1", 2, fails(source.NotFound(""))),
					src("s2", 1, returns(embeds(source.EmbedRef{EmbedID: "e", URL: "u"}))),
				},
				[]*provider.Embed{emb("e", 1, fails(source.NotFound("gone")))},
				rec,
			)

			outcome, err := r.Resolve(ctx, movie, Options{})
			So(err, ShouldBeNil)
			So(outcome.IsAbsent(), ShouldBeTrue)
			So(rec.trace(), ShouldResemble, []string{
				"init s1,s2",
				"start s1",
				"update s1 notfound",
				"start s2",
				"discover s2 s2-0=e",
				"start s2-0",
				"update s2-0 notfound",
			})
		})

		Convey("Empty bundles count as not found", func() {
			r := newRunner([]*provider.Source{src("s", 1, returns(&source.Bundle{}))}, nil, rec)
			outcome, _ := r.Resolve(ctx, movie, Options{})
			So(outcome.IsAbsent(), ShouldBeTrue)
			So(rec.trace(), ShouldContain, "update s notfound")
		})

		Convey("Source order overrides come first and repeat identically", func() {
			r := newRunner([]*provider.Source{
				src("a", 3, fails(source.NotFound(""))),
				src("b", 2, fails(source.NotFound(""))),
				src("c", 1, fails(source.NotFound(""))),
			}, nil, rec)

			opts := Options{SourceOrder: []string{"c", "unknown"}}
			_, _ = r.Resolve(ctx, movie, opts)
			first := rec.trace()
			rec.events = nil
			_, _ = r.Resolve(ctx, movie, opts)

			So(first[0], ShouldEqual, "init c,a,b")
			So(rec.trace(), ShouldResemble, first)
		})

		Convey("Streams the runtime cannot use are dropped", func() {
			r := newRunner([]*provider.Source{
				src("s", 1, returns(streams(hlsStream("https://locked.example/x.m3u8", feature.IPLocked)))),
			}, nil, rec)
			r.Features = feature.ForTarget(feature.Browser)

			outcome, _ := r.Resolve(ctx, movie, Options{})
			So(outcome.IsAbsent(), ShouldBeTrue)
			So(rec.trace(), ShouldContain, "update s notfound")
		})

		Convey("Embed references to unknown or incompatible embeds are ignored", func() {
			locked := provider.NewEmbed(provider.EmbedDef{ID: "locked", Rank: 1, Flags: feature.NewSet(feature.IPLocked)})
			r := newRunner(
				[]*provider.Source{src("s", 1, returns(embeds(
					source.EmbedRef{EmbedID: "nope", URL: "u"},
					source.EmbedRef{EmbedID: "locked", URL: "u"},
				)))},
				[]*provider.Embed{locked},
				rec,
			)
			r.Features = feature.ForTarget(feature.Browser)

			outcome, _ := r.Resolve(ctx, movie, Options{})
			So(outcome.IsAbsent(), ShouldBeTrue)
			So(rec.trace(), ShouldResemble, []string{"init s", "start s", "update s notfound"})
		})

		Convey("Sources without the requested capability are skipped", func() {
			movieOnly := provider.NewSource(provider.SourceDef{ID: "m", Rank: 2, ScrapeMovie: func(context.Context, *source.Context, media.Request) (*source.Bundle, error) {
				return nil, source.NotFound("")
			}})
			r := newRunner([]*provider.Source{movieOnly, src("both", 1, fails(source.NotFound("")))}, nil, rec)

			_, _ = r.Resolve(ctx, media.NewShow("1", 1, 1), Options{})
			So(rec.trace()[0], ShouldEqual, "init both")
		})

		Convey("External sources only run when included", func() {
			external := provider.NewSource(provider.SourceDef{ID: "ext", Rank: 9, External: true, ScrapeMovie: func(context.Context, *source.Context, media.Request) (*source.Bundle, error) {
				return streams(hlsStream("https://ext.example/x.m3u8", feature.CORSAllowed)), nil
			}})
			r := newRunner([]*provider.Source{external, src("s", 1, fails(source.NotFound("")))}, nil, rec)

			outcome, _ := r.Resolve(ctx, movie, Options{})
			So(outcome.IsAbsent(), ShouldBeTrue)

			outcome, _ = r.Resolve(ctx, movie, Options{IncludeExternal: true})
			So(outcome.MustGet().SourceID, ShouldEqual, "ext")
		})

		Convey("Progress reported by providers is forwarded as pending updates", func() {
			progressing := provider.NewSource(provider.SourceDef{ID: "p", Rank: 1, ScrapeMovie: func(_ context.Context, sc *source.Context, _ media.Request) (*source.Bundle, error) {
				sc.Progress(50)
				sc.Progress(150)
				return nil, source.NotFound("")
			}})
			r := newRunner([]*provider.Source{progressing}, nil, rec)
			_, _ = r.Resolve(ctx, movie, Options{})

			var pending []float64
			for _, e := range rec.events {
				if u, ok := e.(UpdateEvent); ok && u.Status == StatusPending {
					pending = append(pending, u.Percentage)
				}
			}
			So(pending, ShouldResemble, []float64{50, 100})
		})

		Convey("A slow provider only uses its share of the budget", func() {
			r := newRunner([]*provider.Source{
				src("slow", 2, func(ctx context.Context) (*source.Bundle, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				}),
				src("fast", 1, returns(streams(hlsStream("https://fast.example/x.m3u8", feature.CORSAllowed)))),
			}, nil, rec)

			outcome, err := r.Resolve(ctx, movie, Options{Timeout: 400 * time.Millisecond})
			So(err, ShouldBeNil)
			So(outcome.MustGet().SourceID, ShouldEqual, "fast")
			So(rec.trace(), ShouldContain, "update slow failure")
		})

		Convey("A panicking source falls through to the next", func() {
			r := newRunner([]*provider.Source{
				src("bad", 10, func(context.Context) (*source.Bundle, error) { panic("boom") }),
				src("good", 5, returns(streams(hlsStream("https://good.example/x.m3u8", feature.CORSAllowed)))),
			}, nil, rec)

			outcome, err := r.Resolve(ctx, movie, Options{})
			So(err, ShouldBeNil)
			So(outcome.MustGet().SourceID, ShouldEqual, "good")
			So(rec.trace(), ShouldResemble, []string{"init bad,good", "start bad", "update bad failure", "start good"})

			var update UpdateEvent
			for _, e := range rec.events {
				if u, ok := e.(UpdateEvent); ok && u.ID == "bad" {
					update = u
				}
			}
			So(update.Reason, ShouldContainSubstring, "boom")
		})

		Convey("A panicking validator is a failure of that attempt", func() {
			r := newRunner([]*provider.Source{
				src("s", 1, returns(streams(hlsStream("https://s.example/x.m3u8", feature.CORSAllowed)))),
			}, nil, rec)
			r.Validator = validate.Func(func(context.Context, stream.Stream, *source.Context) (mo.Option[stream.Stream], error) {
				panic("validator bug")
			})

			outcome, err := r.Resolve(ctx, movie, Options{})
			So(err, ShouldBeNil)
			So(outcome.IsAbsent(), ShouldBeTrue)
			So(rec.trace(), ShouldContain, "update s failure")
		})

		Convey("A provider ignoring its deadline is abandoned as a failure", func() {
			r := newRunner([]*provider.Source{
				src("slow", 1, func(context.Context) (*source.Bundle, error) {
					time.Sleep(time.Second)
					return nil, source.NotFound("too late")
				}),
			}, nil, rec)

			start := time.Now()
			outcome, err := r.Resolve(ctx, movie, Options{Timeout: 100 * time.Millisecond})
			So(err, ShouldBeNil)
			So(outcome.IsAbsent(), ShouldBeTrue)
			So(time.Since(start), ShouldBeLessThan, 500*time.Millisecond)
			So(rec.trace(), ShouldResemble, []string{"init slow", "start slow", "update slow failure"})
		})

		Convey("An expired deadline exhausts immediately", func() {
			called := false
			r := newRunner([]*provider.Source{src("s", 1, func(context.Context) (*source.Bundle, error) {
				called = true
				return nil, nil
			})}, nil, rec)

			expired, cancel := context.WithCancel(ctx)
			cancel()

			outcome, err := r.Resolve(expired, movie, Options{})
			So(err, ShouldBeNil)
			So(outcome.IsAbsent(), ShouldBeTrue)
			So(called, ShouldBeFalse)
			So(rec.trace(), ShouldResemble, []string{"init s"})
		})

		Convey("Events carry one run id per resolution", func() {
			r := newRunner([]*provider.Source{src("s", 1, fails(source.NotFound("")))}, nil, rec)
			_, _ = r.Resolve(ctx, movie, Options{})
			id := rec.events[0].Run()
			So(id, ShouldNotBeEmpty)
			for _, e := range rec.events {
				So(e.Run(), ShouldEqual, id)
			}
		})

		Convey("A missing sink changes nothing", func() {
			r := newRunner([]*provider.Source{src("s", 1, returns(streams(hlsStream("https://x.example/x.m3u8", feature.CORSAllowed))))}, nil, nil)
			outcome, err := r.Resolve(ctx, movie, Options{})
			So(err, ShouldBeNil)
			So(outcome.IsPresent(), ShouldBeTrue)
		})

		Convey("Invalid requests and missing registries are errors", func() {
			_, err := (&Runner{}).Resolve(ctx, movie, Options{})
			So(errors.Is(err, ErrNoRegistry), ShouldBeTrue)

			r := newRunner(nil, nil, nil)
			_, err = r.Resolve(ctx, media.Request{Type: media.Show, ID: "1"}, Options{})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRunSingle(t *testing.T) {
	Convey("Given a runner with one source and one embed", t, func() {
		rec := &recorder{}
		r := newRunner(
			[]*provider.Source{src("s", 1, returns(&source.Bundle{
				Streams: []stream.Stream{hlsStream("https://x.example/a.m3u8"), hlsStream("https://x.example/b.m3u8", feature.IPLocked)},
				Embeds:  []source.EmbedRef{{EmbedID: "e", URL: "u"}, {EmbedID: "missing", URL: "u"}},
			}))},
			[]*provider.Embed{emb("e", 1, fails(source.NotFound("gone")))},
			rec,
		)
		r.Features = feature.ForTarget(feature.Browser)
		r.Proxy = proxy.Config{BaseURL: "https://proxy.example"}

		Convey("RunSource returns the filtered, proxied bundle", func() {
			b, err := r.RunSource(context.Background(), "s", media.NewMovie("1"))
			So(err, ShouldBeNil)
			So(b.Streams, ShouldHaveLength, 1)
			So(proxy.IsWrapped(b.Streams[0]), ShouldBeTrue)
			So(b.Embeds, ShouldResemble, []source.EmbedRef{{EmbedID: "e", URL: "u"}})
		})

		Convey("RunEmbed returns provider errors as is", func() {
			_, err := r.RunEmbed(context.Background(), "e", "u")
			So(source.IsNotFound(err), ShouldBeTrue)
			So(rec.trace(), ShouldResemble, []string{"start e", "update e notfound"})
		})

		Convey("Providers returning nothing give an empty bundle", func() {
			empty := newRunner(
				[]*provider.Source{src("s", 1, returns(nil))},
				[]*provider.Embed{emb("e", 1, returns(nil))},
				nil,
			)

			b, err := empty.RunSource(context.Background(), "s", media.NewMovie("1"))
			So(err, ShouldBeNil)
			So(b.Empty(), ShouldBeTrue)

			b, err = empty.RunEmbed(context.Background(), "e", "u")
			So(err, ShouldBeNil)
			So(b.Empty(), ShouldBeTrue)
		})

		Convey("Unknown ids are errors", func() {
			_, err := r.RunSource(context.Background(), "e", media.NewMovie("1"))
			So(err, ShouldNotBeNil)
			_, err = r.RunEmbed(context.Background(), "s", "u")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestTransition(t *testing.T) {
	Convey("Given a run that already resolved", t, func() {
		run := newRunner(nil, nil, nil).newRun(media.NewMovie("1"), Options{})
		run.state = State{Phase: Resolved}

		Convey("An invalid transition exhausts the run instead of crashing", func() {
			So(run.to(State{Phase: TryingSource}), ShouldBeFalse)
			So(run.state.Phase, ShouldEqual, Exhausted)
		})
	})
}
