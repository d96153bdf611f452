// Package runtime executes a compiled Plan: the activation-counter driven
// scheduler, the per-run results store, the Getter wrapper for soft-failed
// arguments, and the wrapped error type that carries a node's full
// upstream failure chain (spec §4.5-§4.6, §5, §7).
//
// internal/compiler has no knowledge of this package; a Plan is immutable
// and may be executed concurrently by many Run calls.
package runtime
