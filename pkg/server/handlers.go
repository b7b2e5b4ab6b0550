package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vmorph/internal/errors"
	"github.com/vango-dev/vmorph/pkg/morph"
	"github.com/vango-dev/vmorph/pkg/plugins"
	"github.com/vango-dev/vmorph/pkg/plugins/inputpersist"
	"github.com/vango-dev/vmorph/pkg/plugins/transition"
	"github.com/vango-dev/vmorph/pkg/protocol"
	"github.com/vango-dev/vmorph/pkg/vdom"
)

// traceRequests starts a server span per request.
func (s *Server) traceRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.request_id", middleware.GetReqID(r.Context())),
			),
		)
		defer span.End()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"streams": s.StreamCount(),
	})
}

func (s *Server) handlePlugins(w http.ResponseWriter, _ *http.Request) {
	list := s.registry.List()
	resp := protocol.PluginsResponse{
		Plugins: make([]protocol.PluginInfo, 0, len(list)),
		Default: s.config.Plugins,
	}
	for _, info := range list {
		resp.Plugins = append(resp.Plugins, protocol.PluginInfo{
			Name:        info.Name,
			Description: info.Description,
			Hooks:       info.HookNames(),
			Needs:       info.Needs,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req protocol.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.New("M011").Wrap(err))
		return
	}

	resp, err := s.Reconcile(r.Context(), &req)
	if err != nil {
		s.logger.Debug("reconcile failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reconcile decodes req and runs one stateless pass, as
// POST /v1/reconcile does.
func (s *Server) Reconcile(ctx context.Context, req *protocol.ReconcileRequest) (*protocol.ReconcileResponse, error) {
	if req.Prev == nil || req.Next == nil {
		return nil, errors.New("M011").WithDetail("Both prev and next are required.")
	}
	prev, err := req.Prev.ToVNode()
	if err != nil {
		return nil, errors.New("M011").Wrap(err)
	}
	next, err := req.Next.ToVNode()
	if err != nil {
		return nil, errors.New("M011").Wrap(err)
	}
	return s.reconcile(ctx, prev, next, req.Plugins, req.Base)
}

// reconcile runs one pass. Deferred plugin work runs on a virtual clock
// straight after the pass and is returned as a timeline; Tree is next once
// that timeline has played out.
func (s *Server) reconcile(ctx context.Context, prev, next *vdom.VNode, names []string, base *protocol.BaseOptions) (*protocol.ReconcileResponse, error) {
	gen := vdom.NewHIDGenerator()
	gen.Observe(prev)
	vdom.AssignHIDs(prev, gen)

	clock := transition.NewVirtualClock(time.Now())
	var timeline []protocol.DeferredStep
	var deferred []vdom.Patch
	sink := transition.SinkFunc(func(patches ...vdom.Patch) {
		at := clock.Elapsed().Milliseconds()
		if n := len(timeline); n > 0 && timeline[n-1].AfterMs == at {
			timeline[n-1].Patches = append(timeline[n-1].Patches, protocol.FromPatches(patches)...)
		} else {
			timeline = append(timeline, protocol.DeferredStep{AfterMs: at, Patches: protocol.FromPatches(patches)})
		}
		deferred = append(deferred, patches...)
	})

	hooks, err := s.compose(ctx, names, base, plugins.Deps{
		Focus:     &inputpersist.FocusTracker{},
		Sink:      sink,
		Scheduler: clock,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	patches, err := vdom.Reconcile(prev, next, hooks)
	if s.metrics != nil {
		s.metrics.ObservePass(time.Since(start), patches, err)
	}
	if err != nil {
		return nil, err
	}
	vdom.AssignHIDs(next, gen)

	// Encode now: deferred steps mutate the nodes inserted by the pass.
	resp := &protocol.ReconcileResponse{Patches: protocol.FromPatches(patches)}

	clock.RunAll()
	for _, p := range deferred {
		if p.Op == vdom.PatchRemoveNode {
			vdom.Detach(next, p.HID)
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveDeferred(deferred)
	}
	resp.Tree = protocol.FromVNode(next)
	resp.Deferred = timeline

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("vmorph.patches", len(resp.Patches)),
		attribute.Int("vmorph.deferred_patches", len(deferred)),
	)
	return resp, nil
}

// compose builds the plugin stack for one pass or stream. Nil names and
// base fall back to the server configuration.
func (s *Server) compose(ctx context.Context, names []string, base *protocol.BaseOptions, deps plugins.Deps) (vdom.Hooks, error) {
	if names == nil {
		names = s.config.Plugins
	}
	opts := s.config.Base
	if base != nil {
		opts = *base
	}
	b := morph.Base(opts.ChildrenOnly, opts.KeyAttribute)

	deps.Ctx = ctx
	deps.Logger = s.logger
	deps.Metrics = s.metrics
	deps.TransitionDelay = s.config.TransitionDelay
	return s.registry.Compose(names, deps, &b)
}

// statusFor maps an error code to an HTTP status. Bad trees and plugin
// lists are client errors; a failed pass is 422.
func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case "M001", "M002", "M003", "M011", "M030", "M032":
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]*protocol.Error{
		"error": protocol.NewError(err, "M020"),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
