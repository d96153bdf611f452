package compiler

import (
	"fmt"

	"github.com/dagrun/dagrun/internal/names"
)

// Compile lowers registry and a builder's declared outputs into a frozen
// Plan: peer-compile every output's reachable peer group, hash and rewrite
// the combined node set, then validate it (spec §4.1-§4.4).
func Compile(builderName string, registry map[string]*NodeDefinition, outputs []OutputSpec, opts CompileOptions) (*Plan, error) {
	if opts.RuntimeInputs == nil {
		opts.RuntimeInputs = map[string]bool{}
	}

	state := &compileState{
		registry:      registry,
		runtimeInputs: opts.RuntimeInputs,
		opts:          opts,
		nodes:         map[string]*CompiledNode{},
	}

	bindings := make([]OutputBinding, 0, len(outputs))
	for _, out := range outputs {
		ref, err := names.Parse(out.Node)
		if err != nil {
			return nil, fmt.Errorf("compiler: output %q: %w", out.Alias, err)
		}
		alias := out.Alias
		if alias == "" {
			alias = ref.Alias()
		}
		newName, err := state.compileGroup(ref.Root, alias)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, OutputBinding{Alias: alias, Node: newName, Silent: out.Silent})
	}

	plan, err := state.rewrite(bindings)
	if err != nil {
		return nil, err
	}
	plan.BuilderName = builderName

	if err := validate(plan, opts.EnforceParamNames); err != nil {
		return nil, err
	}

	return plan, nil
}
