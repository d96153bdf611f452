package compiler

import "sort"

// rewrite runs the graph rewriter's nine passes over a freshly peer-compiled,
// hashed node set, in order, mutating state.nodes and producing the pieces
// of Plan that aren't owned by the peer compiler directly (spec §4.3).
//
//  1. dedupe            - collapse structurally identical nodes (same CompleteHash)
//  2. requiredFields     - propagate consumer member-path reads upward
//  3. assignPriority     - longest-input-chain depth, used for observability grouping
//  4. injectImplicitImportant - serialize near-duplicates that differ only by important inputs
//  5. hoistLiterals      - move zero-input literal nodes into Plan.InputLiterals
//  6. countUniqueInputs  - activation-counter seed for the runtime scheduler (must run
//     after hoistLiterals, since it excludes hoisted pure-input deps from the count)
//  7. markOutputs        - flag nodes bound to a builder output
//  8. precomputeFailureChains - cache each node's upstream failure-propagation path
//  9. trimUnreachable    - drop anything not reachable from the outputs
func (s *compileState) rewrite(outputs []OutputBinding) (*Plan, error) {
	dedupe(s.nodes, outputs)
	if err := computeHashes(s.nodes); err != nil {
		return nil, err
	}
	// Re-run dedup once more now that hashes account for any renaming from
	// the first pass; structurally identical nodes produced via different
	// discovery orders converge to the same hash either way, but this keeps
	// the pass idempotent and cheap to reason about.
	dedupe(s.nodes, outputs)

	requiredFields(s.nodes, outputs)
	assignPriority(s.nodes, outputs)
	injectImplicitImportant(s.nodes)

	inputLiterals := hoistLiterals(s.nodes)
	countUniqueInputs(s.nodes)
	markOutputs(s.nodes, outputs)
	precomputeFailureChains(s.nodes)

	trimUnreachable(s.nodes, outputs)

	starting := make([]string, 0)
	for name, n := range s.nodes {
		if n.NumUniqueInputs == 0 && !n.IsPureInput {
			starting = append(starting, name)
		}
	}
	sort.Strings(starting)

	return &Plan{
		Nodes:             s.nodes,
		InputLiterals:     inputLiterals,
		StartingNodes:     starting,
		Outputs:           outputs,
		RuntimeInputNames: s.runtimeInputs,
	}, nil
}

// dedupe collapses nodes sharing a non-empty CompleteHash into one survivor
// (the lexicographically smallest NewName), rewiring every input reference
// and output binding to point at the survivor.
func dedupe(nodes map[string]*CompiledNode, outputs []OutputBinding) {
	byHash := map[string][]string{}
	for name, n := range nodes {
		if n.CompleteHash == "" {
			continue // hashes not computed yet on the first call
		}
		byHash[n.CompleteHash] = append(byHash[n.CompleteHash], name)
	}

	rename := map[string]string{}
	for _, group := range byHash {
		if len(group) < 2 {
			continue
		}
		sort.Strings(group)
		survivor := group[0]
		for _, dup := range group[1:] {
			rename[dup] = survivor
			delete(nodes, dup)
		}
	}
	if len(rename) == 0 {
		return
	}

	resolve := func(name string) string {
		if r, ok := rename[name]; ok {
			return r
		}
		return name
	}
	for _, n := range nodes {
		for i := range n.Inputs {
			n.Inputs[i].Global = resolve(n.Inputs[i].Global)
		}
	}
	for i := range outputs {
		outputs[i].Node = resolve(outputs[i].Node)
	}
}

// requiredFields propagates each consumer's member-path read up through its
// Global reference, so every node ends up knowing exactly which parts of
// its value downstream code actually touches (spec §4.3 pass 2; also drives
// the _requiredFields pseudo-input).
func requiredFields(nodes map[string]*CompiledNode, outputs []OutputBinding) {
	for _, n := range nodes {
		for _, in := range n.Inputs {
			target, ok := nodes[in.Global]
			if !ok {
				continue
			}
			target.RequiredFields = target.RequiredFields.Add(in.MemberPath)
		}
	}
	for _, ob := range outputs {
		if target, ok := nodes[ob.Node]; ok {
			target.RequiredFields = target.RequiredFields.Add("")
		}
	}
}

// assignPriority gives every node a priority equal to the length of its
// longest chain of compiled-node inputs, memoized: a node with no compiled
// inputs gets 0 and every consumer ranks above each of its inputs, so a
// higher priority means further downstream. It is not a distance from the
// builder outputs. The runtime uses this purely to group concurrent
// activity for observability (see SPEC_FULL.md's supplemented
// priority-as-observability-grouping decision), never to reorder execution.
func assignPriority(nodes map[string]*CompiledNode, outputs []OutputBinding) {
	memo := map[string]int{}
	var depth func(name string) int
	depth = func(name string) int {
		if d, ok := memo[name]; ok {
			return d
		}
		n, ok := nodes[name]
		if !ok {
			return 0
		}
		memo[name] = 0 // break cycles defensively; validator reports real cycles
		max := 0
		for _, in := range n.Inputs {
			if _, ok := nodes[in.Global]; ok {
				if d := depth(in.Global) + 1; d > max {
					max = d
				}
			}
		}
		memo[name] = max
		n.Priority = max
		return max
	}
	for _, ob := range outputs {
		depth(ob.Node)
	}
	for name := range nodes {
		depth(name)
	}
}

// injectImplicitImportant serializes nodes that share a NonImportantHash
// (identical but for their important-flagged inputs) by making every later
// one (by NewName) implicitly depend on the first: without this, two
// "logically the same work" nodes that differ only by a gating input could
// run concurrently and race on shared side effects.
func injectImplicitImportant(nodes map[string]*CompiledNode) {
	byHash := map[string][]string{}
	for name, n := range nodes {
		if n.NonImportantHash == "" {
			continue
		}
		byHash[n.NonImportantHash] = append(byHash[n.NonImportantHash], name)
	}
	for _, group := range byHash {
		if len(group) < 2 {
			continue
		}
		sort.Strings(group)
		for i := 1; i < len(group); i++ {
			n := nodes[group[i]]
			n.Inputs = append(n.Inputs, CompiledInput{
				LocalName: "_implicitOrder",
				Global:    group[0],
				Kind:      InputImplicitImportant,
			})
		}
	}
}

// countUniqueInputs fills NumUniqueInputs with the count of distinct
// compiled-node dependencies each node has. Runtime inputs, unresolved
// names, and pure-input (hoisted literal) nodes don't count toward the
// scheduler's activation counter, since they are pre-populated into run
// state before any node is dispatched and never themselves run. Must run
// after hoistLiterals so IsPureInput is already set.
func countUniqueInputs(nodes map[string]*CompiledNode) {
	for _, n := range nodes {
		seen := map[string]bool{}
		for _, in := range n.Inputs {
			if dep, ok := nodes[in.Global]; ok && !dep.IsPureInput {
				seen[in.Global] = true
			}
		}
		n.NumUniqueInputs = len(seen)
	}
}

// hoistLiterals moves every zero-input literal node's value into the
// returned map and marks it IsPureInput, so the runtime can populate it
// directly into run state instead of scheduling it.
func hoistLiterals(nodes map[string]*CompiledNode) map[string]any {
	literals := map[string]any{}
	for name, n := range nodes {
		if n.Kind == KindLiteral && len(n.Inputs) == 0 {
			n.IsPureInput = true
			literals[name] = n.LiteralValue
		}
	}
	return literals
}

func markOutputs(nodes map[string]*CompiledNode, outputs []OutputBinding) {
	for _, ob := range outputs {
		if n, ok := nodes[ob.Node]; ok {
			n.IsOutput = true
		}
	}
}

// precomputeFailureChains fills each node's FailureChain with the ordered
// list of upstream gated-input NewNames whose failure would prevent this
// node from running (each gated input followed by that input's own chain,
// nearest first), so the runtime can build a graphInfo
// error without re-walking the plan on every failure.
func precomputeFailureChains(nodes map[string]*CompiledNode) {
	memo := map[string][]string{}
	var chain func(name string) []string
	chain = func(name string) []string {
		if c, ok := memo[name]; ok {
			return c
		}
		n, ok := nodes[name]
		if !ok {
			return nil
		}
		memo[name] = nil // cycle guard
		var result []string
		for _, in := range n.Inputs {
			if !in.Kind.IsGated() {
				continue
			}
			if _, ok := nodes[in.Global]; ok {
				result = append(result, in.Global)
				result = append(result, chain(in.Global)...)
			}
		}
		memo[name] = result
		n.FailureChain = result
		return result
	}
	for name := range nodes {
		chain(name)
	}

	callers := map[string][]string{}
	for name, n := range nodes {
		for _, in := range n.Inputs {
			if _, ok := nodes[in.Global]; ok {
				callers[in.Global] = append(callers[in.Global], name)
			}
		}
	}
	for name, cs := range callers {
		sort.Strings(cs)
		nodes[name].Callers = cs
	}
}

// trimUnreachable removes any node not reachable, directly or transitively,
// from a builder output (spec §4.3 pass 9): the final garbage collection
// after dedup, hoisting, and implicit-important injection have all settled.
func trimUnreachable(nodes map[string]*CompiledNode, outputs []OutputBinding) {
	reachable := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if reachable[name] {
			return
		}
		n, ok := nodes[name]
		if !ok {
			return
		}
		reachable[name] = true
		for _, in := range n.Inputs {
			visit(in.Global)
		}
	}
	for _, ob := range outputs {
		visit(ob.Node)
	}
	for name := range nodes {
		if !reachable[name] {
			delete(nodes, name)
		}
	}
}
