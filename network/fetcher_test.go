package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestStandard(t *testing.T) {
	Convey("Given a test server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/slow":
				time.Sleep(200 * time.Millisecond)
			case "/echo":
				w.Header().Set("X-Query", r.URL.Query().Get("q"))
				_, _ = w.Write([]byte(r.Header.Get("Referer")))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		f := NewStandard(srv.Client())

		Convey("Query and headers are sent", func() {
			resp, err := f.Fetch(context.Background(), Request{
				URL:     srv.URL + "/echo",
				Query:   map[string]string{"q": "dune"},
				Headers: map[string]string{"Referer": "https://ref.example"},
			})
			So(err, ShouldBeNil)
			So(resp.OK(), ShouldBeTrue)
			So(string(resp.Body), ShouldEqual, "https://ref.example")
			So(resp.Headers.Get("X-Query"), ShouldEqual, "dune")
		})

		Convey("Non-2xx responses are returned, not errors", func() {
			resp, err := f.Fetch(context.Background(), Request{URL: srv.URL + "/missing"})
			So(err, ShouldBeNil)
			So(resp.OK(), ShouldBeFalse)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("The context deadline bounds the call", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			_, err := f.Fetch(ctx, Request{URL: srv.URL + "/slow"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestProxied(t *testing.T) {
	Convey("Given a forwarding proxy", t, func() {
		var seen *http.Request
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r
			w.Header().Set("X-Final-Destination", "https://origin.example/final")
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		p := NewProxied(srv.URL, NewStandard(srv.Client()))

		Convey("The destination and restricted headers are forwarded", func() {
			resp, err := p.Fetch(context.Background(), Request{
				URL:     "https://origin.example/api",
				Query:   map[string]string{"id": "42"},
				Headers: map[string]string{"Referer": "https://ref.example", "Accept": "*/*"},
			})
			So(err, ShouldBeNil)
			So(seen.URL.Query().Get("destination"), ShouldEqual, "https://origin.example/api?id=42")
			So(seen.Header.Get("X-Referer"), ShouldEqual, "https://ref.example")
			So(seen.Header.Get("Accept"), ShouldEqual, "*/*")
			So(resp.FinalURL, ShouldEqual, "https://origin.example/final")
		})

		Convey("Without a base URL every call fails", func() {
			_, err := NewProxied("", nil).Fetch(context.Background(), Request{URL: "https://origin.example"})
			So(err, ShouldEqual, ErrNoProxy)
		})
	})
}
