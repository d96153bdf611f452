package compiler

import (
	"fmt"
	"time"

	"github.com/dagrun/dagrun/internal/names"
)

// scope is one peer group's compile-time bookkeeping: every node reachable
// from a single builder output, flattened into one namespace (spec §4.1.a).
// The group's root is the node the builder output directly names; every
// other member was pulled in, directly or transitively, by a sibling
// reference or a builds() declaration.
type scope struct {
	suffix     string
	aliases    map[string]string // alias -> compiled NewName, for every group member
	rootAlias  string
	pendingRef []pendingArgsRef // args.NAME / args.* placeholders awaiting the root's argEnv
}

// pendingArgsRef records one args.NAME or args.* reference discovered while
// compiling a group member, to be resolved once the group's root member's
// own inputs are known.
type pendingArgsRef struct {
	node    *CompiledNode
	index   int // index into node.Inputs
	argName string
	all     bool
}

// compileState carries the registry, options, and accumulating output
// shared across an entire Compile call.
type compileState struct {
	registry      map[string]*NodeDefinition
	runtimeInputs map[string]bool
	opts          CompileOptions
	nodes         map[string]*CompiledNode
	groupCounter  int
	argsAllCache  map[string]string // scope suffix -> synthesized args-to-array node NewName
}

// groupMember is one node instantiated within a peer group before
// dependency ordering and compilation.
type groupMember struct {
	alias     string
	refRoot   string
	def       *NodeDefinition
	dependsOn []string
}

// compileGroup discovers every member reachable from root (by sibling
// reference or builds() declaration), orders them, compiles each into a
// CompiledNode, then resolves any args.NAME/args.* references against the
// root's own inputs. It returns the root member's compiled NewName.
func (s *compileState) compileGroup(rootRefRoot string, rootAlias string) (string, error) {
	s.groupCounter++
	sc := &scope{
		suffix:    fmt.Sprintf("#%d", s.groupCounter),
		aliases:   map[string]string{},
		rootAlias: rootAlias,
	}

	rootDef, ok := s.registry[rootRefRoot]
	if !ok {
		return "", fmt.Errorf("compiler: output %q references unregistered node %q", rootAlias, rootRefRoot)
	}

	members := map[string]*groupMember{
		rootAlias: {alias: rootAlias, refRoot: rootRefRoot, def: rootDef},
	}
	worklist := []string{rootAlias}

	for len(worklist) > 0 {
		alias := worklist[0]
		worklist = worklist[1:]
		m := members[alias]

		for _, raw := range m.def.Args {
			ref, err := parseArgRef(raw)
			if err != nil {
				return "", fmt.Errorf("compiler: node %q: %w", m.refRoot, err)
			}
			if ref.skip {
				continue
			}
			if ref.isArgs {
				continue // resolved in the argEnv patch pass, not group discovery
			}
			if _, already := members[ref.ref.Alias()]; already {
				continue
			}
			if def, found := s.registry[ref.ref.Root]; found {
				childAlias := ref.ref.Alias()
				members[childAlias] = &groupMember{alias: childAlias, refRoot: ref.ref.Root, def: def}
				worklist = append(worklist, childAlias)
			}
		}

		for _, child := range m.def.Builds {
			if !evalCondition(child, s.opts.Config) {
				continue
			}
			ref, err := names.Parse(child.Provides)
			if err != nil {
				return "", fmt.Errorf("compiler: node %q builds(): %w", m.refRoot, err)
			}
			alias := child.Alias
			if alias == "" {
				alias = ref.Alias()
			}
			if _, already := members[alias]; already {
				continue
			}
			def, found := s.registry[ref.Root]
			if !found {
				return "", fmt.Errorf("compiler: node %q builds unregistered node %q", m.refRoot, ref.Root)
			}
			members[alias] = &groupMember{alias: alias, refRoot: ref.Root, def: def, dependsOn: child.DependsOn}
			worklist = append(worklist, alias)
		}
	}

	peers := make([]peerSpec, 0, len(members))
	for alias, m := range members {
		var deps []string
		deps = append(deps, m.dependsOn...)
		for _, raw := range m.def.Args {
			ref, err := parseArgRef(raw)
			if err != nil || ref.skip || ref.isArgs {
				continue
			}
			if _, ok := members[ref.ref.Alias()]; ok && ref.ref.Alias() != alias {
				deps = append(deps, ref.ref.Alias())
			}
		}
		peers = append(peers, peerSpec{alias: alias, refRoot: m.refRoot, def: m.def, dependsOn: deps})
	}

	order, err := orderPeers(peers)
	if err != nil {
		return "", err
	}

	for _, alias := range order {
		m := members[alias]
		cn, err := s.compileMember(sc, m)
		if err != nil {
			return "", err
		}
		sc.aliases[alias] = cn.NewName
	}

	if err := s.resolvePendingArgs(sc); err != nil {
		return "", err
	}

	return sc.aliases[rootAlias], nil
}

// compileMember builds the CompiledNode for one already-ordered group
// member, wiring every declared input except args.NAME/args.*, which are
// deferred to resolvePendingArgs.
func (s *compileState) compileMember(sc *scope, m *groupMember) (*CompiledNode, error) {
	newName := m.refRoot + sc.suffix
	def := m.def

	cn := &CompiledNode{
		OriginalName:  m.refRoot,
		NewName:       newName,
		Kind:          def.Kind,
		Func:          def.Func,
		LiteralValue:  def.LiteralValue,
		CacheDisabled: def.CacheDisabled,
		EnforceType:   def.EnforceType,
		Timeout:       time.Duration(def.Timeout),
		ParamNames:    def.ParamNames,
	}

	for _, raw := range def.Args {
		if raw == requiredFieldsPseudoInput {
			cn.Inputs = append(cn.Inputs, CompiledInput{LocalName: raw, Kind: InputArgument, IsRequiredFields: true})
			continue
		}
		parsed, err := parseArgRef(raw)
		if err != nil {
			return nil, fmt.Errorf("compiler: node %q: %w", m.refRoot, err)
		}
		kind := classifyKind(parsed.ref)
		input := CompiledInput{
			LocalName:  parsed.ref.ShortName(),
			Kind:       kind,
			MemberPath: parsed.ref.MemberPath(),
			Getter:     def.GetterArgs[parsed.ref.ShortName()],
		}

		switch {
		case parsed.isArgs:
			cn.Inputs = append(cn.Inputs, input)
			sc.pendingRef = append(sc.pendingRef, pendingArgsRef{
				node:    cn,
				index:   len(cn.Inputs) - 1,
				argName: parsed.ref.ArgName,
				all:     parsed.ref.ArgsAll,
			})
		default:
			if g, ok := sc.aliases[parsed.ref.Alias()]; ok {
				input.Global = g
			} else if s.runtimeInputs[parsed.ref.Root] {
				input.Global = parsed.ref.Root
			} else {
				// Left unresolved; the validator reports this as a missing
				// node or undeclared runtime input.
				input.Global = parsed.ref.Root
			}
			cn.Inputs = append(cn.Inputs, input)
		}
	}

	s.nodes[newName] = cn
	return cn, nil
}

// resolvePendingArgs patches every args.NAME/args.* reference recorded
// while compiling sc's members, against the group root's own resolved
// inputs.
func (s *compileState) resolvePendingArgs(sc *scope) error {
	if len(sc.pendingRef) == 0 {
		return nil
	}
	rootName, ok := sc.aliases[sc.rootAlias]
	if !ok {
		return fmt.Errorf("compiler: group root %q was never compiled", sc.rootAlias)
	}
	root := s.nodes[rootName]

	argEnv := map[string]string{}
	for _, in := range root.Inputs {
		if in.IsRequiredFields {
			continue
		}
		argEnv[in.LocalName] = in.Global
	}

	for _, p := range sc.pendingRef {
		if p.all {
			p.node.Inputs[p.index].Global = s.ensureArgsToArrayNode(sc, root)
			continue
		}
		g, ok := argEnv[p.argName]
		if !ok {
			return fmt.Errorf("compiler: args.%s has no matching argument on %q", p.argName, root.OriginalName)
		}
		p.node.Inputs[p.index].Global = g
	}
	return nil
}

// ensureArgsToArrayNode lazily creates (and memoizes per scope) the
// synthetic KindArgsToArray node that collects the group root's own
// positional inputs into an array, for args.* references.
func (s *compileState) ensureArgsToArrayNode(sc *scope, root *CompiledNode) string {
	if existing, ok := s.argsAllCache[sc.suffix]; ok {
		return existing
	}
	newName := "argsToArray" + sc.suffix
	cn := &CompiledNode{
		OriginalName: "argsToArray",
		NewName:      newName,
		Kind:         KindArgsToArray,
	}
	for _, in := range root.Inputs {
		if !in.Kind.IsPositional() {
			continue
		}
		cn.Inputs = append(cn.Inputs, CompiledInput{LocalName: in.LocalName, Global: in.Global, Kind: InputArgument})
	}
	s.nodes[newName] = cn
	if s.argsAllCache == nil {
		s.argsAllCache = map[string]string{}
	}
	s.argsAllCache[sc.suffix] = newName
	return newName
}

// classifyKind maps a parsed reference's importance prefix to an InputKind.
func classifyKind(ref names.Ref) InputKind {
	switch {
	case ref.Important:
		return InputImportant
	case ref.Void:
		return InputVoid
	case ref.Partial:
		return InputPartial
	default:
		return InputArgument
	}
}

// parsedArgRef wraps names.Parse's result with compile-time routing flags.
type parsedArgRef struct {
	ref    names.Ref
	isArgs bool
	skip   bool
}

func parseArgRef(raw string) (parsedArgRef, error) {
	ref, err := names.Parse(raw)
	if err != nil {
		return parsedArgRef{}, err
	}
	return parsedArgRef{ref: ref, isArgs: ref.IsArgs}, nil
}

// evalCondition evaluates a ChildSpec's When/Unless predicates once, at
// compile time, against the static config passed to Compile. See
// DESIGN.md's Open Question log for why this is compile-time rather than
// re-evaluated per run.
func evalCondition(c ChildSpec, config map[string]any) bool {
	if c.When != nil && !c.When(config) {
		return false
	}
	if c.Unless != nil && c.Unless(config) {
		return false
	}
	return true
}
