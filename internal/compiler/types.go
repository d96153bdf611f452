// Package compiler lowers a registry of NodeDefinitions plus a builder's
// output selection into a flat, optimized execution plan: the peer
// compiler, hasher, rewriter, and validator described in spec §4.1-4.4.
// The runtime package is the plan's only consumer.
package compiler

import (
	"context"
	"reflect"
	"time"
)

// Handler is the function signature every non-literal, non-sentinel
// NodeDefinition carries. args holds the resolved positional inputs (in
// declaration order, Argument and Important kinds only — see InputKind),
// each possibly wrapped as a Getter when the definition opted into
// getter-wrapped inputs for that position.
type Handler func(ctx context.Context, args []any) (any, error)

// HandlerKind distinguishes a real handler from the two self-referential
// sentinel identities the compiler recognizes without inspecting function
// bodies (spec §4.1, §9 "Self-referential graph helpers"), and from a pure
// literal value with no handler at all.
type HandlerKind int

const (
	// KindHandler invokes Func with the resolved positional arguments.
	KindHandler HandlerKind = iota
	// KindLiteral returns LiteralValue directly; the node has no inputs.
	KindLiteral
	// KindSubgraph collapses to "return the last positional argument".
	KindSubgraph
	// KindArgsToArray collapses to "return the positional argument list as a slice".
	KindArgsToArray
)

// InputKind classifies one declared input of a NodeDefinition, derived from
// its name-algebra prefix (spec §4.1.b).
type InputKind int

const (
	// InputArgument is a bare input: passed positionally to the handler,
	// ordered with the DAG as any other edge.
	InputArgument InputKind = iota
	// InputImportant ("!") is passed positionally AND must be fully
	// resolved, with its error propagated without invoking the handler,
	// before the node starts. Contributes to the complete hash.
	InputImportant
	// InputVoid ("?") is resolved for side effects only: it gates node
	// start and propagates its error like InputImportant, but is never
	// passed to the handler.
	InputVoid
	// InputPartial ("%") configures sibling peers only: it still gates
	// node start (a real DAG edge) but is neither passed to the handler
	// nor consulted by the quiet-input validator.
	InputPartial
	// InputImplicitImportant is injected by the rewriter's implicit
	// important-injection pass (spec §4.3 pass 4); at runtime it gates node
	// start and propagates its error like InputImportant, but it is never
	// passed to the handler and was never authored directly.
	InputImplicitImportant
)

// IsGated reports whether an input of this kind is checked by the runtime's
// quiet-input validator (its error short-circuits the node without running
// the handler) before the argument-input validator runs.
func (k InputKind) IsGated() bool {
	switch k {
	case InputImportant, InputVoid, InputImplicitImportant:
		return true
	default:
		return false
	}
}

// IsPositional reports whether an input of this kind is passed to the
// handler as a positional argument.
func (k InputKind) IsPositional() bool {
	switch k {
	case InputArgument, InputImportant:
		return true
	default:
		return false
	}
}

// requiredFieldsPseudoInput is the magic input name a NodeDefinition can
// declare among its Args to have the runtime substitute the node's
// RequiredFields reflection (spec §4.3 pass 2) in place of a resolved value.
const requiredFieldsPseudoInput = "_requiredFields"

// CompiledInput is one resolved, wired input of a CompiledNode, in
// declaration order (with any InputImplicitImportant entries appended by
// the rewriter after authored ones).
type CompiledInput struct {
	// LocalName is the input's short name as declared (an args short name,
	// a sibling alias, or requiredFieldsPseudoInput).
	LocalName string
	// Global is the resolved global name: another CompiledNode's NewName,
	// or a declared runtime input name. Empty for the _requiredFields
	// pseudo-input, which the runtime synthesizes instead of resolving.
	Global string
	// Kind classifies how this input participates in gating and
	// positional argument passing.
	Kind InputKind
	// MemberPath is the "."-joined projection into Global's value ("" for
	// the whole value). Used for required-fields reflection and for
	// quiet-input-validator member navigation.
	MemberPath string
	// IsRequiredFields marks the _requiredFields pseudo-input.
	IsRequiredFields bool
	// Getter marks that this positional argument should be wrapped as a
	// Getter instead of raising an error that fails the whole node.
	Getter bool
}

// RequiredFields is the set of member paths any consumer reads from a node,
// or the sentinel "all" (spec §4.3 pass 2).
type RequiredFields struct {
	All    bool
	Fields map[string]bool
}

// Add records that a consumer reads member path (empty string means the
// whole value) and returns the updated value.
func (r RequiredFields) Add(memberPath string) RequiredFields {
	if r.All {
		return r
	}
	if memberPath == "" {
		return RequiredFields{All: true}
	}
	if r.Fields == nil {
		r.Fields = make(map[string]bool)
	}
	r.Fields[memberPath] = true
	return r
}

// CompiledNode is one entry in the finalized execution plan (spec §3).
type CompiledNode struct {
	// OriginalName is the registry key this node was instantiated from.
	OriginalName string
	// NewName is the globally unique name in the compiled plan.
	NewName string

	Kind         HandlerKind
	Func         Handler
	LiteralValue any

	// Inputs lists every wired input in declaration order (authored, then
	// any implicit-important ones appended by the rewriter).
	Inputs []CompiledInput

	// CacheDisabled means this node never coalesces with a structurally
	// identical peer; its CompleteHash carries a unique salt.
	CacheDisabled bool

	CompleteHash      string
	NonImportantHash  string
	RequiredFields    RequiredFields
	Priority          int
	OutputNodes       []string
	NumUniqueInputs   int
	FailureChain      []string
	Callers           []string
	IsOutput          bool
	// IsPureInput marks a zero-input literal node hoisted into the plan's
	// InputLiterals table (spec §4.3 pass 6); its value is copied directly
	// into run state, skipping invocation entirely.
	IsPureInput bool

	// EnforceType, when non-nil, requests output type-enforcement (spec
	// §7): the runtime coerces the handler's return value into this shape,
	// failing the node with a runtime failure on mismatch.
	EnforceType reflect.Type

	// Timeout bounds this node's handler invocation; zero means no
	// node-specific timeout.
	Timeout time.Duration

	// ParamNames is the author-declared parameter name list used by the
	// optional handler parameter-name check (spec §4.4); Go cannot recover
	// a func value's parameter names via reflection; see DESIGN.md.
	ParamNames []string
}

// Plan is the frozen, optimized execution plan the peer compiler, hasher,
// rewriter, and validator jointly produce. It is immutable after Compile
// returns and may be shared freely across concurrent Run invocations.
type Plan struct {
	// BuilderName identifies the compiled builder for debug context.
	BuilderName string
	// Nodes holds every surviving CompiledNode, keyed by NewName.
	Nodes map[string]*CompiledNode
	// InputLiterals holds hoisted literal values, keyed by NewName; copied
	// directly into run state at the start of every run.
	InputLiterals map[string]any
	// StartingNodes lists NewNames with zero unique inputs that are not
	// pure inputs: the runtime fires these at the start of every run.
	StartingNodes []string
	// Outputs lists the builder's declared output bindings, in declaration
	// order.
	Outputs []OutputBinding
	// RuntimeInputNames is the set of names declared as runtime inputs at
	// Compile time; any CompiledInput.Global not in Nodes or InputLiterals
	// must be a member of this set (spec invariant 2).
	RuntimeInputNames map[string]bool
}

// OutputBinding maps one builder-declared output alias to its compiled
// node's NewName.
type OutputBinding struct {
	Alias  string
	Node   string
	Silent bool
}
