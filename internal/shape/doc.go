// Package shape coerces a node handler's loosely-typed return value into the
// Go type its consumers actually declared (spec §7's output type-enforcement
// error class). Handlers are free to return any value a dynamic source
// (a parsed config, a deserialized event, another handler's untyped result)
// produced; Coerce narrows it into the requested shape, repairing malformed
// JSON text along the way, before falling back to a clear error.
package shape
