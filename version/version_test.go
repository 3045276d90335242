package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidhunt/vidhunt/network"
)

func TestCompare(t *testing.T) {
	Convey("Versions compare component by component", t, func() {
		for _, c := range []struct {
			a, b string
			want int
		}{
			{"1.2.3", "1.2.3", 0},
			{"v1.10.0", "1.9.9", 1},
			{"0.3.0", "0.3.1", -1},
			{"2.0.0", "v10.0.0", -1},
		} {
			got, err := Compare(c.a, c.b)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, c.want)
		}

		_, err := Compare("latest", "1.0.0")
		So(err, ShouldNotBeNil)
	})
}

func TestFetchLatest(t *testing.T) {
	Convey("Given a release endpoint", t, func() {
		var body string
		var status = http.StatusOK
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		defer srv.Close()

		fetch := func() (string, error) {
			return fetchLatest(context.Background(), network.NewStandard(srv.Client()), srv.URL)
		}

		Convey("The tag is returned without its v prefix", func() {
			body = `{"tag_name":"v1.4.2"}`
			ver, err := fetch()
			So(err, ShouldBeNil)
			So(ver, ShouldEqual, "1.4.2")
		})

		Convey("An empty tag is an error", func() {
			body = `{}`
			_, err := fetch()
			So(err, ShouldNotBeNil)
		})

		Convey("A non 2xx answer is an error", func() {
			status = http.StatusForbidden
			body = `{"message":"rate limited"}`
			_, err := fetch()
			So(err, ShouldNotBeNil)
		})
	})
}
