// Package artifact resolves a declarative model description to its
// engine-loadable translation.
//
// The translation is keyed by the description's identity and cached on disk:
// if the expected location exists it is used directly, otherwise the
// external model compiler is invoked in generation-only mode and the result
// verified. After resolution the description's component list is classified
// to predict the engine-internal stimulus and cell identifiers, since the
// translation step does not expose stable, generic names for them.
package artifact
