package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Traubert/nlp-tools/internal/server"
	"github.com/Traubert/nlp-tools/pkg/observability/prom"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout pipeline over HTTP",
		Long: `Serve the layout pipeline over HTTP.

Endpoints:
  POST /v1/layout   lay out a whole graph
  POST /v1/ego      ego graphs of every node
  GET  /healthz     liveness probe
  GET  /metrics     Prometheus metrics

Request limits come from the [server] section of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = addr
			}
			if !cmd.Flags().Changed("workers") {
				workers = c.cfg.Layout.Workers
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			prom.New(reg).Install()

			srv := server.New(runner, server.Config{
				MaxBodyBytes: c.cfg.Server.MaxBodyBytes,
				MaxRounds:    c.cfg.Server.MaxRounds,
				Workers:      workers,
			}, loggerFromContext(ctx), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

			printInfo("Serving %s API", appName)
			printKeyValue("Address", c.cfg.Server.Addr)
			printKeyValue("Metrics", c.cfg.Server.Addr+"/metrics")
			return srv.ListenAndServe(ctx, c.cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", c.cfg.Server.Addr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().IntVarP(&workers, "workers", "w", c.cfg.Layout.Workers, "ego workers per request")
	return cmd
}
