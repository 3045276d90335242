package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/vidhunt/vidhunt/filesystem"
	"github.com/vidhunt/vidhunt/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			So(Setup(), ShouldBeNil)
			for name := range Default {
				So(viper.IsSet(name), ShouldBeTrue)
			}
			So(viper.GetString(key.RunnerTarget), ShouldEqual, "native")
			So(viper.GetInt(key.RunnerTimeout), ShouldEqual, 60)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("runner.timeout")
			So(result, ShouldEqual, "runner_timeout")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		field := Default[key.ProxyURL]

		Convey("Env is prefixed with the application name", func() {
			So(field.Env(), ShouldEqual, "VIDHUNT_PROXY_URL")
		})

		Convey("typeName reflects the default value", func() {
			So(field.typeName(), ShouldEqual, "string")
			So(Default[key.SourcesOrder].typeName(), ShouldEqual, "[]string")
			So(Default[key.RunnerValidate].typeName(), ShouldEqual, "bool")
		})
	})
}
