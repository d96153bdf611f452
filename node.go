package dagrun

import (
	"reflect"

	"github.com/dagrun/dagrun/internal/compiler"
)

// Func is the handler signature a registered node runs: ctx for
// cancellation/timeout, args holding the node's resolved positional inputs
// in declaration order.
type Func = compiler.Handler

// Node builds a handler-backed NodeDefinition. args are raw reference
// strings in the authoring DSL grammar (e.g. "!checkAuth", "getUser.name",
// "args.*"); see the package-level grammar note in names.Parse.
func Node(fn Func, args ...string) *compiler.NodeDefinition {
	return &compiler.NodeDefinition{
		Kind: compiler.KindHandler,
		Func: fn,
		Args: args,
	}
}

// Literal builds a zero-input node that always resolves to value.
func Literal(value any) *compiler.NodeDefinition {
	return &compiler.NodeDefinition{
		Kind:         compiler.KindLiteral,
		LiteralValue: value,
	}
}

// Subgraph builds a node that collapses to its last positional argument,
// for nodes whose sole purpose is to bundle a builds() scope's own output
// under one name.
func Subgraph(args ...string) *compiler.NodeDefinition {
	return &compiler.NodeDefinition{Kind: compiler.KindSubgraph, Args: args}
}

// ArgsToArray builds a node that collapses to its positional argument list
// as a slice.
func ArgsToArray(args ...string) *compiler.NodeDefinition {
	return &compiler.NodeDefinition{Kind: compiler.KindArgsToArray, Args: args}
}

// Builds appends child specs a node instantiates into its own peer group
// when it is built, returning def for chaining.
func Builds(def *compiler.NodeDefinition, children ...compiler.ChildSpec) *compiler.NodeDefinition {
	def.Builds = append(def.Builds, children...)
	return def
}

// Child is a convenience constructor for a plain, unconditional ChildSpec.
func Child(provides string) compiler.ChildSpec {
	return compiler.ChildSpec{Provides: provides}
}

// ChildAs aliases a child, letting two siblings instantiate the same
// registry node under distinct names within one peer group.
func ChildAs(provides, alias string) compiler.ChildSpec {
	return compiler.ChildSpec{Provides: provides, Alias: alias}
}

// DisableCache opts def out of structural deduplication, returning def for
// chaining.
func DisableCache(def *compiler.NodeDefinition) *compiler.NodeDefinition {
	def.CacheDisabled = true
	return def
}

// GetterArg marks one of def's declared short-named arguments as
// getter-wrapped: instead of failing def's node outright when that input
// errors, the handler receives a runtime.Getter it can inspect. Returns def
// for chaining.
func GetterArg(def *compiler.NodeDefinition, shortName string) *compiler.NodeDefinition {
	if def.GetterArgs == nil {
		def.GetterArgs = map[string]bool{}
	}
	def.GetterArgs[shortName] = true
	return def
}

// EnforceOutput requests output type-enforcement: def's resolved value is
// coerced into T before being stored, failing the node with a
// type-enforcement error on mismatch (spec §7). Returns def for chaining.
func EnforceOutput[T any](def *compiler.NodeDefinition) *compiler.NodeDefinition {
	def.EnforceType = reflect.TypeOf(*new(T))
	return def
}

// WithTimeout bounds def's handler invocation. Returns def for chaining.
func WithTimeout(def *compiler.NodeDefinition, d int64) *compiler.NodeDefinition {
	def.Timeout = d
	return def
}

// WithParamNames records def's handler parameter names for the optional
// parameter-name check (Builder.EnforceParamNames); Go cannot recover a
// func value's parameter names via reflection, so this substitutes an
// author-declared list (see DESIGN.md). Returns def for chaining.
func WithParamNames(def *compiler.NodeDefinition, names ...string) *compiler.NodeDefinition {
	def.ParamNames = names
	return def
}
