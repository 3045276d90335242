package cmd

import (
	"time"

	"github.com/spf13/viper"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/key"
	"github.com/vidhunt/vidhunt/network"
	"github.com/vidhunt/vidhunt/provider"
	"github.com/vidhunt/vidhunt/proxy"
	"github.com/vidhunt/vidhunt/runner"
	"github.com/vidhunt/vidhunt/validate"
)

// newRunner assembles a runner from the configuration.
func newRunner(registry *provider.Registry, sink runner.Sink) runner.Runner {
	target, err := feature.ParseTarget(viper.GetString(key.RunnerTarget))
	handleErr(err)

	cfg := proxy.Config{BaseURL: viper.GetString(key.ProxyURL)}
	handleErr(cfg.Validate())

	var fetcher network.Fetcher = network.NewStandard(nil)
	if viper.GetBool(key.NetworkTLSFingerprint) {
		fetcher = network.NewTLS()
	}

	var validator validate.Validator = validate.Noop{}
	if viper.GetBool(key.RunnerValidate) {
		validator = validate.NewHTTP(
			viper.GetUint(key.ValidatorAttempts),
			time.Duration(viper.GetInt(key.ValidatorTimeout))*time.Second,
		)
	}

	return runner.Runner{
		Registry:  registry,
		Validator: validator,
		Proxy:     cfg,
		Fetcher:   fetcher,
		Features:  feature.ForTarget(target),
		Sink:      sink,
	}
}

// runnerOptions reads the per resolution options from the configuration.
func runnerOptions() runner.Options {
	return runner.Options{
		SourceOrder:     viper.GetStringSlice(key.SourcesOrder),
		EmbedOrder:      viper.GetStringSlice(key.EmbedsOrder),
		Timeout:         time.Duration(viper.GetInt(key.RunnerTimeout)) * time.Second,
		IncludeExternal: viper.GetBool(key.SourcesIncludeExternal),
	}
}
