package cmd

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/key"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/provider"
	"github.com/vidhunt/vidhunt/where"
)

func TestParseConfigValue(t *testing.T) {
	Convey("Given configuration keys of every type", t, func() {
		Convey("Lists accept separate and comma separated values", func() {
			v, err := parseConfigValue(key.SourcesOrder, []string{"a,b", " c ", ""})
			So(err, ShouldBeNil)
			So(v, ShouldResemble, []string{"a", "b", "c"})
		})

		Convey("Scalars are converted", func() {
			v, err := parseConfigValue(key.RunnerTimeout, []string{"30"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 30)

			v, err = parseConfigValue(key.RunnerValidate, []string{"false"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, false)

			_, err = parseConfigValue(key.RunnerTimeout, []string{"soon"})
			So(err, ShouldNotBeNil)
		})

		Convey("Domain values are validated", func() {
			_, err := parseConfigValue(key.RunnerTarget, []string{"toaster"})
			So(err, ShouldNotBeNil)

			v, err := parseConfigValue(key.RunnerTarget, []string{"browser"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "browser")

			_, err = parseConfigValue(key.ProxyURL, []string{"ftp://proxy"})
			So(err, ShouldNotBeNil)

			_, err = parseConfigValue(key.IconsVariant, []string{"sparkles"})
			So(err, ShouldNotBeNil)

			_, err = parseConfigValue(key.LogsLevel, []string{"loud"})
			So(err, ShouldNotBeNil)
		})

		Convey("Unknown keys suggest the closest one", func() {
			_, err := parseConfigValue("runner.timeot", []string{"1"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, key.RunnerTimeout)
		})

		Convey("A value is required", func() {
			_, err := parseConfigValue(key.ProxyURL, nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestClosestIDs(t *testing.T) {
	Convey("Unknown provider ids get fuzzy suggestions", t, func() {
		ids := []string{"vidsrc", "vidcloud", "catalog"}
		So(closestIDs("vsrc", ids), ShouldResemble, []string{"vidsrc"})
		So(closestIDs("zzz", ids), ShouldBeEmpty)
	})
}

func TestRenderProviders(t *testing.T) {
	Convey("The providers table lists every provider with its status", t, func() {
		out := renderProviders([]provider.Meta{
			{ID: "catalog", Name: "Catalog", Kind: provider.KindSource, Rank: 10, Capabilities: []media.Type{media.Movie, media.Show}},
			{ID: "mirror", Name: "Mirror", Kind: provider.KindEmbed, Rank: 5, Flags: feature.NewSet(feature.CORSAllowed), Disabled: true, Custom: true},
		})

		So(out, ShouldContainSubstring, "catalog")
		So(out, ShouldContainSubstring, "movie,show")
		So(out, ShouldContainSubstring, "cors-allowed")
		So(out, ShouldContainSubstring, "custom")
		So(out, ShouldContainSubstring, "disabled")
	})
}

func TestEnvNames(t *testing.T) {
	Convey("Environment variables are prefixed and include the config path override", t, func() {
		names := envNames()
		So(names, ShouldContain, "VIDHUNT_RUNNER_TIMEOUT")
		So(names, ShouldContain, "VIDHUNT_SOURCES_ORDER")
		So(names, ShouldContain, where.EnvConfigPath)
	})
}
