package provider

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/source"
	"github.com/vidhunt/vidhunt/stream"
)

func TestBuiltins(t *testing.T) {
	Convey("Given the builtin embeds", t, func() {
		sources, embeds := Builtins()
		So(sources, ShouldBeEmpty)
		So(embeds, ShouldHaveLength, 2)

		r, err := Build(sources, embeds)
		So(err, ShouldBeNil)

		hls, _ := r.Embed(DirectHLSID)
		file, _ := r.Embed(DirectFileID)
		sc := source.NewContext(nil, nil, feature.Features{}, nil)

		Convey("direct-hls turns a playlist url into an hls stream", func() {
			b, err := hls.Scrape(context.Background(), sc, "https://cdn.example/v/index.m3u8")
			So(err, ShouldBeNil)
			So(b.Streams, ShouldHaveLength, 1)
			So(b.Streams[0].Type, ShouldEqual, stream.HLS)
			So(b.Streams[0].Playlist, ShouldEqual, "https://cdn.example/v/index.m3u8")
		})

		Convey("direct-hls reports not found for other urls", func() {
			_, err := hls.Scrape(context.Background(), sc, "https://cdn.example/v/movie.mp4")
			So(source.IsNotFound(err), ShouldBeTrue)
		})

		Convey("direct-file reads the quality from the path", func() {
			b, err := file.Scrape(context.Background(), sc, "https://cdn.example/movie.1080p.mp4")
			So(err, ShouldBeNil)
			So(b.Streams[0].Type, ShouldEqual, stream.File)
			So(b.Streams[0].Qualities, ShouldContainKey, stream.Quality1080)

			b, err = file.Scrape(context.Background(), sc, "https://cdn.example/movie.2160p.mkv")
			So(err, ShouldBeNil)
			So(b.Streams[0].Qualities, ShouldContainKey, stream.Quality4K)
		})

		Convey("direct-file rejects unsupported schemes", func() {
			_, err := file.Scrape(context.Background(), sc, "ftp://cdn.example/movie.mp4")
			So(err, ShouldNotBeNil)
			So(source.IsNotFound(err), ShouldBeFalse)
		})
	})
}
