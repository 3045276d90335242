package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/metrics"
	"github.com/vidhunt/vidhunt/provider"
	"github.com/vidhunt/vidhunt/runner"
	"github.com/vidhunt/vidhunt/source"
	"github.com/vidhunt/vidhunt/stream"
)

func testServer() *Server {
	found := func(_ context.Context, _ *source.Context, req media.Request) (*source.Bundle, error) {
		if req.ID != "42" {
			return nil, source.NotFound("unknown id")
		}
		return &source.Bundle{Streams: []stream.Stream{{
			ID:       "primary",
			Type:     stream.HLS,
			Playlist: "https://cdn.example/42.m3u8",
			Flags:    feature.NewSet(feature.CORSAllowed),
		}}}, nil
	}

	registry := provider.MustBuild(
		[]*provider.Source{provider.NewSource(provider.SourceDef{ID: "catalog", Name: "Catalog", Rank: 10, ScrapeMovie: found, ScrapeShow: found})},
		nil,
	)

	return New(runner.Runner{Registry: registry, Features: feature.ForTarget(feature.Native)}, metrics.New())
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer(t *testing.T) {
	Convey("Given a server", t, func() {
		s := testServer()

		Convey("Resolving a known movie returns the outcome", func() {
			rec := get(s, "/resolve?type=movie&id=42")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var body struct {
				SourceID string  `json:"sourceId"`
				EmbedID  *string `json:"embedId"`
				Stream   struct {
					Playlist string `json:"playlist"`
				} `json:"stream"`
			}
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body.SourceID, ShouldEqual, "catalog")
			So(body.EmbedID, ShouldBeNil)
			So(body.Stream.Playlist, ShouldEqual, "https://cdn.example/42.m3u8")
		})

		Convey("Exhaustion is a 404", func() {
			rec := get(s, "/resolve?type=show&id=1&season=1&episode=2")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Malformed requests are a 400", func() {
			So(get(s, "/resolve?type=book&id=1").Code, ShouldEqual, http.StatusBadRequest)
			So(get(s, "/resolve?type=show&id=1").Code, ShouldEqual, http.StatusBadRequest)
			So(get(s, "/resolve?type=movie&id=1&timeout=soon").Code, ShouldEqual, http.StatusBadRequest)
			So(get(s, "/resolve?type=movie&id=1&target=toaster").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Providers can be listed and described", func() {
			rec := get(s, "/providers")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var metas []provider.Meta
			So(json.Unmarshal(rec.Body.Bytes(), &metas), ShouldBeNil)
			So(metas, ShouldHaveLength, 1)
			So(metas[0].ID, ShouldEqual, "catalog")

			So(get(s, "/providers/catalog").Code, ShouldEqual, http.StatusOK)
			So(get(s, "/providers/nope").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Health and metrics are served", func() {
			So(get(s, "/healthz").Code, ShouldEqual, http.StatusOK)

			_ = get(s, "/resolve?type=movie&id=7")
			rec := get(s, "/metrics")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `vidhunt_attempts_total{provider="catalog",status="notfound"} 1`)
			So(rec.Body.String(), ShouldContainSubstring, `vidhunt_resolutions_total{result="exhausted"} 1`)
		})
	})
}

func TestDefaults(t *testing.T) {
	Convey("Given a server whose only source is external", t, func() {
		found := func(_ context.Context, _ *source.Context, _ media.Request) (*source.Bundle, error) {
			return &source.Bundle{Streams: []stream.Stream{{
				ID:       "primary",
				Type:     stream.HLS,
				Playlist: "https://cdn.example/ext.m3u8",
				Flags:    feature.NewSet(feature.CORSAllowed),
			}}}, nil
		}

		registry := provider.MustBuild(
			[]*provider.Source{provider.NewSource(provider.SourceDef{ID: "ext", Name: "Ext", Rank: 1, External: true, ScrapeMovie: found})},
			nil,
		)
		s := New(runner.Runner{Registry: registry, Features: feature.ForTarget(feature.Native)}, nil)

		Convey("It is skipped by default", func() {
			So(get(s, "/resolve?type=movie&id=1").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Server defaults fill in what the request leaves out", func() {
			s.WithDefaults(runner.Options{IncludeExternal: true})
			So(get(s, "/resolve?type=movie&id=1").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Metrics are not routed without a collector", func() {
			So(get(s, "/metrics").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestParseTimeout(t *testing.T) {
	Convey("Timeouts accept seconds or durations", t, func() {
		d, err := parseTimeout("30")
		So(err, ShouldBeNil)
		So(d.Seconds(), ShouldEqual, 30)

		d, err = parseTimeout("1500ms")
		So(err, ShouldBeNil)
		So(d.Milliseconds(), ShouldEqual, 1500)
	})
}
