// Package server serves composed reconciliation over HTTP.
//
// Routes:
//
//	GET  /healthz        liveness and open stream count
//	GET  /metrics        Prometheus exposition, when WithMetrics is set
//	GET  /v1/plugins     registered plugins and the default stack
//	POST /v1/reconcile   one stateless pass (protocol.ReconcileRequest)
//	GET  /v1/stream      WebSocket session (protocol.Message frames)
//
// A reconcile request is self-contained. Work a plugin would do after the
// pass, such as transition classes, is laid out on a virtual clock and
// returned as a timeline of deferred patches.
//
// A stream keeps the client's tree between passes. Each stream composes
// its own plugins, so transition state and focus belong to one client.
// Deferred patches are pushed as they fall due. One goroutine per stream
// handles messages, runs due steps and writes; a second one reads.
//
// Usage:
//
//	cfg := server.FromConfig(fileConfig)
//	srv := server.New(cfg, server.WithLogger(logger))
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
