package compiler

import (
	"errors"
	"fmt"
	"sort"
)

// validate runs the validator's checks over a rewritten, trimmed Plan and
// aggregates every failure with errors.Join rather than stopping at the
// first one, so an author sees the full list of problems in one compile
// attempt (spec §4.4).
func validate(plan *Plan, enforceParamNames bool) error {
	var errs []error

	errs = append(errs, checkUnresolvedReferences(plan)...)
	errs = append(errs, checkCycles(plan)...)
	if enforceParamNames {
		errs = append(errs, checkParamNames(plan)...)
	}

	return errors.Join(errs...)
}

// checkUnresolvedReferences reports every CompiledInput.Global that names
// neither a surviving CompiledNode nor a declared runtime input (spec
// invariant 2).
func checkUnresolvedReferences(plan *Plan) []error {
	var errs []error
	names := make([]string, 0, len(plan.Nodes))
	for n := range plan.Nodes {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		node := plan.Nodes[name]
		for _, in := range node.Inputs {
			if in.IsRequiredFields {
				continue
			}
			if _, ok := plan.Nodes[in.Global]; ok {
				continue
			}
			if plan.RuntimeInputNames[in.Global] {
				continue
			}
			errs = append(errs, fmt.Errorf(
				"compiler: node %q input %q references unknown name %q (not a compiled node or declared runtime input)",
				name, in.LocalName, in.Global,
			))
		}
	}
	return errs
}

// checkCycles runs a three-color depth-first search over the plan's input
// edges and reports every cycle it finds, without assuming the graph is
// acyclic the way the rewriter's best-effort priority/failure-chain passes
// do.
func checkCycles(plan *Plan) []error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(plan.Nodes))
	var errs []error

	var path []string
	var visit func(name string)
	visit = func(name string) {
		if color[name] == black {
			return
		}
		if color[name] == gray {
			errs = append(errs, fmt.Errorf("compiler: dependency cycle detected involving %q", name))
			return
		}
		color[name] = gray
		path = append(path, name)
		if n, ok := plan.Nodes[name]; ok {
			for _, in := range n.Inputs {
				if _, ok := plan.Nodes[in.Global]; ok {
					visit(in.Global)
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
	}

	names := make([]string, 0, len(plan.Nodes))
	for n := range plan.Nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		visit(n)
	}
	return errs
}

// checkParamNames substitutes for Go's inability to recover a func value's
// parameter names via reflection (spec §4.4's handler parameter-name
// check): when a NodeDefinition declares ParamNames, its length and
// positional order must match the node's positional (argument-eligible)
// inputs by short name.
func checkParamNames(plan *Plan) []error {
	var errs []error
	names := make([]string, 0, len(plan.Nodes))
	for n := range plan.Nodes {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		node := plan.Nodes[name]
		if len(node.ParamNames) == 0 {
			continue
		}
		var positional []string
		for _, in := range node.Inputs {
			if in.Kind.IsPositional() || in.IsRequiredFields {
				positional = append(positional, in.LocalName)
			}
		}
		if len(node.ParamNames) != len(positional) {
			errs = append(errs, fmt.Errorf(
				"compiler: node %q declares %d param names but has %d positional inputs",
				node.OriginalName, len(node.ParamNames), len(positional),
			))
			continue
		}
		for i, want := range node.ParamNames {
			if want != positional[i] {
				errs = append(errs, fmt.Errorf(
					"compiler: node %q param %d is named %q but its positional input is %q",
					node.OriginalName, i, want, positional[i],
				))
			}
		}
	}
	return errs
}
