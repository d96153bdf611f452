package dagrun

import (
	"github.com/dagrun/dagrun/providers/observability"
)

// Option configures a Builder at construction time.
type Option func(*Builder)

// WithMaxConcurrency caps the number of node handlers a Run executes at
// once. Zero (the default) means unbounded, the teacher's own default.
func WithMaxConcurrency(n int) Option {
	return func(b *Builder) { b.runtimeOpts.MaxConcurrency = n }
}

// WithDeepCopyOutputs toggles the best-effort recursive copy applied to
// every node's resolved value before a downstream consumer reads it.
func WithDeepCopyOutputs(enabled bool) Option {
	return func(b *Builder) { b.runtimeOpts.DeepCopyOutputs = enabled }
}

// WithProvider wires an observability.Provider into every Run; nil (the
// default) disables instrumentation entirely.
func WithProvider(p observability.Provider) Option {
	return func(b *Builder) { b.runtimeOpts.Provider = p }
}

// WithEnforceParamNames turns on the handler parameter-name check at
// Compile time (see DESIGN.md's Open Question log).
func WithEnforceParamNames(enabled bool) Option {
	return func(b *Builder) { b.enforceParamNames = enabled }
}

// WithConfig supplies the static config map passed to every ChildSpec's
// When/Unless predicate at Compile time.
func WithConfig(config map[string]any) Option {
	return func(b *Builder) { b.config = config }
}
