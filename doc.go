// Package dagrun is a declarative asynchronous dataflow engine: register
// named node definitions (a handler plus its declared inputs), select a
// subset of them as a Builder's outputs, Compile the selection into an
// optimized DAG once, and Run it many times with varying runtime inputs.
// Each run resolves the requested outputs by executing the minimum set of
// handlers, in dependency order, with maximum concurrency, deduplicating
// structurally identical work within the run.
//
// The authoring surface here (Node, Literal, Builds, Builder.Add/Output) is
// intentionally thin: internal/compiler does the real work of lowering a
// registry into a Plan, and internal/runtime executes it. This package only
// wires the two together and adapts their errors to the public contract.
package dagrun
