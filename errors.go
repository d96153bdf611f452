package dagrun

import (
	"fmt"

	"github.com/dagrun/dagrun/internal/runtime"
)

// FailureKind classifies why a node failed (spec §7).
type FailureKind = runtime.FailureKind

const (
	FailureHandler             = runtime.FailureHandler
	FailureTimeout             = runtime.FailureTimeout
	FailureTypeEnforcement     = runtime.FailureTypeEnforcement
	FailureUpstream            = runtime.FailureUpstream
	FailureMissingRuntimeInput = runtime.FailureMissingRuntimeInput
)

// GraphInfo is the structured debug context attached to every Error,
// matching spec §6's error object contract: {builderName, failureNodeChain,
// failureInputs}. RunID identifies the Run invocation that produced it.
type GraphInfo struct {
	BuilderName      string
	RunID            string
	Node             string
	FailureNodeChain []string
	FailureInputs    []string
}

// Error is the public error type Builder.Run returns when an output node
// fails; it wraps the proximate cause with GraphInfo.
type Error struct {
	Kind FailureKind
	Info GraphInfo
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dagrun: run %s: node %q failed [%s]: %v", e.Info.RunID, e.Info.Node, e.Kind, e.Err)
}

// Unwrap exposes the proximate cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// toPublicError adapts an internal *runtime.Error into the public contract,
// translating its compiled-name FailureChain into original node names via
// plan's node table and stamping the run's builder name and ID.
func toPublicError(builderName, runID string, nodes map[string]*nodeNamer, cause error) *Error {
	rtErr, ok := cause.(*runtime.Error)
	if !ok {
		return &Error{Kind: FailureHandler, Info: GraphInfo{BuilderName: builderName, RunID: runID}, Err: cause}
	}

	chain := make([]string, 0, len(rtErr.Info.FailureChain))
	for _, newName := range rtErr.Info.FailureChain {
		if n, ok := nodes[newName]; ok {
			chain = append(chain, n.originalName)
		} else {
			chain = append(chain, newName)
		}
	}

	return &Error{
		Kind: rtErr.Kind,
		Info: GraphInfo{
			BuilderName:      builderName,
			RunID:            runID,
			Node:             rtErr.Info.OriginalName,
			FailureNodeChain: chain,
			FailureInputs:    rtErr.Info.FailureChain,
		},
		Err: rtErr.Err,
	}
}

// nodeNamer is the minimal view of a compiler.CompiledNode Error needs to
// translate compiled names back to original registry names.
type nodeNamer struct {
	originalName string
}
