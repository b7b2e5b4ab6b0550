package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Composition Errors (M001-M009)
	// ============================================

	"M001": {
		Category:   CategoryCompose,
		Message:    "Reserved hook declared by a plugin",
		Detail:     "getNodeKey and childrenOnly configure the reconciliation pass itself. Only the base configuration may set them.",
		Suggestion: "Move the option into the base configuration.",
	},
	"M002": {
		Category:   CategoryCompose,
		Message:    "Unsupported hook",
		Detail:     "The hook name is not one of the lifecycle hooks the engine invokes.",
		Suggestion: "Run `vmorph plugins --hooks` to list the supported names.",
	},
	"M003": {
		Category: CategoryCompose,
		Message:  "Malformed hook configuration",
		Detail:   "A configuration value does not have the callback type its hook requires.",
	},

	// ============================================
	// Protocol Errors (M010-M019)
	// ============================================

	"M010": {
		Category: CategoryProtocol,
		Message:  "Hook returned no decision",
		Detail:   "beforeNodeAdded and beforeElementUpdated callbacks must return keep, veto or a replacement node.",
	},
	"M011": {
		Category: CategoryProtocol,
		Message:  "Invalid wire node",
		Detail:   "A node in the request could not be decoded.",
	},
	"M012": {
		Category: CategoryProtocol,
		Message:  "Invalid stream message",
		Detail:   "A stream message had an unknown type or a malformed payload.",
	},

	// ============================================
	// Engine Errors (M020-M029)
	// ============================================

	"M020": {
		Category: CategoryEngine,
		Message:  "Reconciliation aborted",
		Detail:   "A hook failed during the reconciliation pass. No patches were applied.",
	},

	// ============================================
	// Plugin Errors (M030-M039)
	// ============================================

	"M030": {
		Category:   CategoryPlugin,
		Message:    "Unknown plugin",
		Suggestion: "Run `vmorph plugins` to list the registered plugins.",
	},
	"M031": {
		Category: CategoryPlugin,
		Message:  "Invalid transition attribute",
		Detail:   "Transition delays and durations must be integer milliseconds.",
	},
	"M032": {
		Category: CategoryPlugin,
		Message:  "Plugin dependency missing",
		Detail:   "The plugin needs a collaborator (sink, focus tracker, registry) that was not provided.",
	},

	// ============================================
	// Config Errors (M040-M059)
	// ============================================

	"M040": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Suggestion: "Create vmorph.json or pass --config.",
	},
	"M041": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "vmorph.json is not valid JSON.",
	},
	"M042": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
	},

	// ============================================
	// CLI Errors (M060-M069)
	// ============================================

	"M060": {
		Category: CategoryCLI,
		Message:  "Cannot read input tree",
		Detail:   "The file does not exist or is not a JSON encoded node.",
	},
	"M061": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},

	// ============================================
	// Server Errors (M080-M089)
	// ============================================

	"M080": {
		Category: CategoryServer,
		Message:  "Server failed to start",
		Detail:   "The listen address may be in use.",
	},
	"M081": {
		Category: CategoryServer,
		Message:  "WebSocket upgrade failed",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
