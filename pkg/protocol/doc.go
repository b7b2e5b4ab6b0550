// Package protocol defines the JSON forms exchanged with vmorph clients.
//
// Trees travel as Node values and patches as Patch values. Both convert to
// and from their vdom counterparts. Decoding a client tree enforces
// MaxNodeDepth and MaxNodes.
//
// The HTTP API uses ReconcileRequest and ReconcileResponse:
//
//	POST /v1/reconcile
//	{"prev": {"tag": "ul", "hid": "h1"},
//	 "next": {"tag": "ul", "children": [{"tag": "li", "children": [{"text": "a"}]}]}}
//
// The stream endpoint exchanges Message values, one per WebSocket text
// frame. A client mounts its tree once, then sends reconcile messages and
// focus reports:
//
//	-> {"type": "mount", "tree": {...}}
//	<- {"type": "mounted", "tree": {...}}
//	-> {"type": "reconcile", "id": "7", "tree": {...}}
//	<- {"type": "patches", "id": "7", "phase": "pass", "patches": [...]}
//	<- {"type": "patches", "phase": "deferred", "patches": [...]}
package protocol
