package provider

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/source"
)

func scrapeNothing(context.Context, *source.Context, media.Request) (*source.Bundle, error) {
	return &source.Bundle{}, nil
}

func embedNothing(context.Context, *source.EmbedContext) (*source.Bundle, error) {
	return &source.Bundle{}, nil
}

func testSource(id string, rank int, flags ...feature.Flag) *Source {
	return NewSource(SourceDef{ID: id, Name: id, Rank: rank, Flags: flags, ScrapeMovie: scrapeNothing, ScrapeShow: scrapeNothing})
}

func testEmbed(id string, rank int, flags ...feature.Flag) *Embed {
	return NewEmbed(EmbedDef{ID: id, Name: id, Rank: rank, Flags: flags, Scrape: embedNothing})
}

func TestNewSource(t *testing.T) {
	Convey("Given source definitions", t, func() {
		Convey("Capabilities follow the scrapers that are present", func() {
			movie := NewSource(SourceDef{ID: "m", ScrapeMovie: scrapeNothing})
			So(movie.Capabilities, ShouldResemble, []media.Type{media.Movie})
			So(movie.Supports(media.Show), ShouldBeFalse)

			both := testSource("b", 1)
			So(both.Supports(media.Movie), ShouldBeTrue)
			So(both.Supports(media.Show), ShouldBeTrue)

			none := NewSource(SourceDef{ID: "n"})
			So(none.Capabilities, ShouldBeEmpty)
		})

		Convey("Scraping an unsupported type fails with ErrUnsupported", func() {
			movie := NewSource(SourceDef{ID: "m", ScrapeMovie: scrapeNothing})
			_, err := movie.Scrape(context.Background(), nil, media.NewShow("1", 1, 1))
			So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
		})

		Convey("Embeds carry no capabilities", func() {
			So(testEmbed("e", 1).Capabilities, ShouldBeEmpty)
			So(testEmbed("e", 1).Kind, ShouldEqual, KindEmbed)
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given providers to register", t, func() {
		Convey("Unique ids and ranks build", func() {
			r, err := Build([]*Source{testSource("s1", 2), testSource("s2", 1)}, []*Embed{testEmbed("e1", 2)})
			So(err, ShouldBeNil)
			So(r.IDs(), ShouldResemble, []string{"e1", "s1", "s2"})
		})

		Convey("A source and an embed may share a rank", func() {
			_, err := Build([]*Source{testSource("s1", 5)}, []*Embed{testEmbed("e1", 5)})
			So(err, ShouldBeNil)
		})

		Convey("Disabled providers may share a rank", func() {
			disabled := testSource("s2", 5)
			disabled.Disabled = true
			_, err := Build([]*Source{testSource("s1", 5), disabled}, nil)
			So(err, ShouldBeNil)
		})

		Convey("Every duplicate group is reported", func() {
			_, err := Build(
				[]*Source{testSource("a", 1), testSource("b", 1), testSource("c", 3)},
				[]*Embed{testEmbed("c", 7), testEmbed("x", 4), testEmbed("y", 4)},
			)

			var cfgErr *ConfigError
			So(errors.As(err, &cfgErr), ShouldBeTrue)
			So(cfgErr.Problems, ShouldHaveLength, 3)
			So(cfgErr.Problems[0], ShouldContainSubstring, `duplicate id "c"`)
			So(cfgErr.Problems[1], ShouldContainSubstring, "duplicate source rank 1")
			So(cfgErr.Problems[2], ShouldContainSubstring, "duplicate embed rank 4")
			So(err.Error(), ShouldContainSubstring, "embed y (y)")
		})

		Convey("Nil providers are reported instead of dereferenced", func() {
			_, err := Build([]*Source{testSource("a", 1), nil}, []*Embed{nil})

			var cfgErr *ConfigError
			So(errors.As(err, &cfgErr), ShouldBeTrue)
			So(cfgErr.Problems, ShouldResemble, []string{"source #1 is nil", "embed #0 is nil"})
		})

		Convey("MustBuild panics on invalid input", func() {
			So(func() { MustBuild([]*Source{testSource("a", 1), testSource("a", 2)}, nil) }, ShouldPanic)
		})
	})
}

func TestSelect(t *testing.T) {
	Convey("Given a registry with mixed flags", t, func() {
		disabled := testSource("off", 9)
		disabled.Disabled = true

		r := MustBuild(
			[]*Source{testSource("plain", 1), testSource("locked", 3, feature.IPLocked), disabled},
			[]*Embed{testEmbed("cors", 1, feature.CORSAllowed), testEmbed("lockedembed", 2, feature.IPLocked)},
		)

		Convey("Browsers only get providers without ip-locked flags", func() {
			sel := r.Select(feature.ForTarget(feature.Browser))
			So(len(sel.Sources), ShouldEqual, 1)
			So(sel.Sources[0].ID, ShouldEqual, "plain")
			So(len(sel.Embeds), ShouldEqual, 1)
			So(sel.Embeds[0].ID, ShouldEqual, "cors")
		})

		Convey("Native targets get everything enabled, highest rank first", func() {
			sel := r.Select(feature.ForTarget(feature.Native))
			So(sel.Sources[0].ID, ShouldEqual, "locked")
			So(sel.Sources[1].ID, ShouldEqual, "plain")
			So(sel.Embeds[0].ID, ShouldEqual, "lockedembed")
		})

		Convey("Selected providers are exactly the enabled compatible ones", func() {
			features := feature.ForTarget(feature.Browser)
			sel := r.Select(features)
			for _, s := range r.Sources() {
				selected := false
				for _, got := range sel.Sources {
					selected = selected || got.ID == s.ID
				}
				So(selected, ShouldEqual, !s.Disabled && feature.IsCompatible(s.Flags, features))
			}
		})

		Convey("Describe finds providers of both kinds", func() {
			So(r.Describe("cors").MustGet().Kind, ShouldEqual, KindEmbed)
			So(r.Describe("off").MustGet().Disabled, ShouldBeTrue)
			So(r.Describe("nope").IsAbsent(), ShouldBeTrue)
		})

		Convey("ListSorted puts disabled providers last", func() {
			list := r.ListSorted()
			So(list, ShouldHaveLength, 5)
			So(list[0].ID, ShouldEqual, "locked")
			So(list[len(list)-1].ID, ShouldEqual, "off")
		})

		Convey("Lookups by id respect the kind", func() {
			_, ok := r.Source("cors")
			So(ok, ShouldBeFalse)
			e, ok := r.Embed("cors")
			So(ok, ShouldBeTrue)
			So(e.Rank, ShouldEqual, 1)
		})
	})
}
