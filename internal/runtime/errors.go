package runtime

import "fmt"

// FailureKind classifies why a node failed, for the error taxonomy the
// public API surfaces to callers (spec §7).
type FailureKind string

const (
	// FailureHandler means the node's own handler returned an error.
	FailureHandler FailureKind = "handler"
	// FailureTimeout means the node's handler did not finish within its
	// configured timeout.
	FailureTimeout FailureKind = "timeout"
	// FailureTypeEnforcement means the handler's return value could not be
	// coerced into the node's declared output type.
	FailureTypeEnforcement FailureKind = "type_enforcement"
	// FailureUpstream means a gated input (or a non-getter argument input)
	// failed before this node's handler could run.
	FailureUpstream FailureKind = "upstream"
	// FailureMissingRuntimeInput means a declared runtime input was never
	// supplied to Run.
	FailureMissingRuntimeInput FailureKind = "missing_runtime_input"
)

// GraphInfo is the structured context attached to every Error: enough to
// render a precise diagnostic without the caller re-walking the plan (spec
// §6's graphInfo error contract).
type GraphInfo struct {
	BuilderName  string
	OriginalName string
	CompiledName string
	FailureChain []string
	Priority     int
}

// Error wraps a node failure with its GraphInfo. Err is always non-nil and
// is the proximate cause (a handler's own error, a context deadline, a
// coercion failure, or another node's *Error for FailureUpstream).
type Error struct {
	Kind FailureKind
	Info GraphInfo
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dagrun: node %q (%s) failed [%s]: %v", e.Info.OriginalName, e.Info.CompiledName, e.Kind, e.Err)
}

// Unwrap exposes the proximate cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}
