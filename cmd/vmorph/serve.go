package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vmorph/internal/config"
	"github.com/vango-dev/vmorph/pkg/plugins/hookmetrics"
	"github.com/vango-dev/vmorph/pkg/server"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reconciliation over HTTP and WebSocket",
		Long: `Start the reconciliation server.

Routes:
  POST /v1/reconcile   one pass per request
  GET  /v1/stream      WebSocket session with deferred patches
  GET  /v1/plugins     registered plugins
  GET  /metrics        Prometheus metrics (metrics.enabled)
  GET  /healthz        liveness

Examples:
  vmorph serve
  vmorph serve --port=8080
  vmorph serve --config=./deploy/vmorph.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg)
			srv := newServer(cfg, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "  vmorph listening on http://%s\n", net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)))
			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from vmorph.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from vmorph.json)")

	return cmd
}

// newServer builds a server from vmorph.json. With metrics enabled the
// hookmetrics collectors and the Go runtime collectors share one registry.
func newServer(cfg *config.Config, logger *slog.Logger) *server.Server {
	opts := []server.Option{server.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := hookmetrics.New(
			hookmetrics.WithRegistry(reg),
			hookmetrics.WithNamespace(cfg.Metrics.Namespace),
		)
		opts = append(opts, server.WithMetrics(m, reg))
	}
	return server.New(server.FromConfig(cfg), opts...)
}
