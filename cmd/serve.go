package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/prunact/internal/observability"
	"github.com/xkilldash9x/prunact/internal/server"
	"github.com/xkilldash9x/prunact/internal/service"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve plan generation, validation, run history and burn data over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger := observability.GetLogger()

			comps, err := service.Create(cmd.Context(), cfg, service.Options{History: true}, logger)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			deps := server.Deps{
				Registry:  comps.Registry,
				Generator: comps,
				Recorder:  comps,
				Sites:     comps.Snapshot,
				Burn:      cfg.Burn,
				Gatherer:  prometheus.DefaultGatherer,
			}
			if comps.Store != nil {
				deps.History = comps.Store
			}
			return server.New(cfg.Server, deps, logger).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
