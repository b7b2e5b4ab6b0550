package protocol

// BaseOptions are the reserved reconciliation options a request may set.
type BaseOptions struct {
	ChildrenOnly bool   `json:"childrenOnly,omitempty"`
	KeyAttribute string `json:"keyAttribute,omitempty"`
}

// ReconcileRequest is the body of POST /v1/reconcile. Plugins and Base
// default to the server configuration when omitted.
type ReconcileRequest struct {
	Prev    *Node        `json:"prev"`
	Next    *Node        `json:"next"`
	Plugins []string     `json:"plugins,omitempty"`
	Base    *BaseOptions `json:"base,omitempty"`
}

// ReconcileResponse is the answer to a ReconcileRequest.
type ReconcileResponse struct {
	// Patches transform prev into next.
	Patches []Patch `json:"patches"`

	// Tree is next as reconciled, with HIDs assigned. Send it as prev on the
	// following request.
	Tree *Node `json:"tree"`

	// Deferred lists the patches plugins would send later, by offset.
	Deferred []DeferredStep `json:"deferred,omitempty"`
}

// DeferredStep is a group of patches due AfterMs milliseconds after the
// pass.
type DeferredStep struct {
	AfterMs int64   `json:"afterMs"`
	Patches []Patch `json:"patches"`
}

// PluginInfo describes a registered plugin.
type PluginInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Hooks       []string `json:"hooks"`
	Needs       []string `json:"needs,omitempty"`
}

// PluginsResponse is the body of GET /v1/plugins.
type PluginsResponse struct {
	Plugins []PluginInfo `json:"plugins"`
	Default []string     `json:"default"`
}
