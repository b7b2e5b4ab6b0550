// Package errors provides structured, actionable error messages for vmorph.
//
// Every failure the CLI or server reports carries a registry code (e.g.
// "M001") that maps to a category, a short message, a longer explanation and
// an optional hint.
//
// # Error Categories
//
//   - compose: plugin composition input is invalid (reserved or unknown hooks)
//   - protocol: a hook broke its return contract, or wire input is invalid
//   - engine: a reconciliation pass was aborted
//   - plugin: plugin lookup or plugin attribute errors
//   - config: vmorph.json could not be loaded or validated
//   - cli, server: command line and HTTP failures
//
// Errors from other packages join the registry by implementing Coder.
// FromError picks up their code:
//
//	hooks, err := morph.Compose(plugins, base)
//	if err != nil {
//	    errors.PrintError(os.Stderr, errors.FromError(err, "M003"))
//	}
//	// Output:
//	// ERROR M001: Reserved hook declared by a plugin
//	//
//	//   getNodeKey and childrenOnly configure the reconciliation pass
//	//   itself. Only the base configuration may set them.
//	//
//	//   Cause: morph: plugin 1: getNodeKey: hook is reserved for the base configuration
//	//
//	//   Hint: Move the option into the base configuration.
package errors
