package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidhunt/vidhunt/key"
	"github.com/vidhunt/vidhunt/metrics"
	"github.com/vidhunt/vidhunt/server"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "address to listen on")
	lo.Must0(viper.BindPFlag(key.ServerAddress, serveCmd.Flags().Lookup("address")))

	serveCmd.Flags().Bool("metrics", true, "expose prometheus metrics on /metrics")
	lo.Must0(viper.BindPFlag(key.ServerMetrics, serveCmd.Flags().Lookup("metrics")))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve resolutions over HTTP",
	Long: `Start an HTTP API over the provider registry.

  GET /resolve?type=show&id=1399&season=1&episode=2
  GET /providers
  GET /providers/{id}
  GET /metrics
  GET /healthz`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var m *metrics.Metrics
		if viper.GetBool(key.ServerMetrics) {
			m = metrics.New()
		}

		srv := server.New(newRunner(loadRegistry(), nil), m).WithDefaults(runnerOptions())
		handleErr(srv.ListenAndServe(ctx, viper.GetString(key.ServerAddress)))
	},
}
