package compiler

import "reflect"

// NodeDefinition is one named, registered node as authored: a handler (or a
// literal value, or one of the self-referential sentinels), its declared
// inputs, and the children it instantiates into its own peer group when
// built (spec §3, §6).
type NodeDefinition struct {
	// Name is the registry key.
	Name string

	Kind         HandlerKind
	Func         Handler
	LiteralValue any

	// Args lists declared inputs as raw reference strings, in author
	// order: sibling aliases within the enclosing peer group, args.NAME /
	// args.* escapes, or requiredFieldsPseudoInput.
	Args []string

	// Builds lists the children this node instantiates into its own peer
	// group when it is built (spec §4.1.a).
	Builds []ChildSpec

	// CacheDisabled opts this node out of structural deduplication.
	CacheDisabled bool

	// GetterArgs names, by declared short name, which positional arguments
	// should be wrapped as a Getter instead of failing the node outright
	// when their upstream input errors.
	GetterArgs map[string]bool

	// EnforceType requests output type-enforcement; see CompiledNode.
	EnforceType reflect.Type

	// Timeout bounds this node's handler invocation.
	Timeout int64 // nanoseconds; kept as int64 to avoid importing time in authoring-facing structs used by generic coercion

	// ParamNames substitutes for Go's inability to reflect a function
	// value's parameter names (spec §4.4's handler parameter-name check;
	// see DESIGN.md).
	ParamNames []string
}

// ChildSpec is one child a NodeDefinition instantiates into its own peer
// group when built.
type ChildSpec struct {
	// Provides is the child's registry name reference, e.g. "!checkAuth".
	Provides string
	// Alias overrides the default local alias (Ref.Alias()) when two
	// children instantiate the same registry node.
	Alias string
	// DependsOn lists sibling aliases (within the same builds scope) this
	// child must be ordered after, even when no data dependency exists
	// between them. This substitutes for an explicit using() call.
	DependsOn []string
	// When, if set, is evaluated once at compile time; a child whose When
	// returns false is omitted from its peer group entirely. Config is the
	// CompileOptions.Config value threaded through from Compile.
	When func(config map[string]any) bool
	// Unless is the negated counterpart of When.
	Unless func(config map[string]any) bool
}

// OutputSpec is one of a builder's declared outputs (spec §6).
type OutputSpec struct {
	// Alias is the key this output is reported under in the builder's Run
	// result map.
	Alias string
	// Node is the registry name reference this output builds.
	Node string
	// Silent suppresses this output from the returned result map while
	// still computing it (and anything that depends on it for dedup
	// purposes).
	Silent bool
}

// CompileOptions configures one Compile call.
type CompileOptions struct {
	// RuntimeInputs is the set of names the builder declares as external
	// run-time inputs, supplied by the caller at Run time rather than
	// resolved from the registry.
	RuntimeInputs map[string]bool
	// EnforceParamNames turns on the handler parameter-name check: a
	// NodeDefinition whose ParamNames don't match its declared Args short
	// names by position fails validation.
	EnforceParamNames bool
	// Config is passed to every ChildSpec.When/Unless predicate.
	Config map[string]any
}
