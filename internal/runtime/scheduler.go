package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dagrun/dagrun/internal/compiler"
	"github.com/dagrun/dagrun/internal/shape"
	"github.com/dagrun/dagrun/providers/observability"
)

// Options configures one Run call.
type Options struct {
	// MaxConcurrency caps the number of node handlers running at once.
	// Zero means unbounded (spec §5).
	MaxConcurrency int
	// DeepCopyOutputs applies a best-effort recursive copy to every node's
	// resolved value before a downstream consumer reads it, isolating
	// handlers from each other's in-place mutation. See deepcopy.go.
	DeepCopyOutputs bool
	// Provider is the observability sink; nil disables instrumentation.
	Provider observability.Provider
}

// Run executes plan to completion against runtimeInputs, returning a
// GraphResults store with every reachable node's outcome (spec §4.5, §5).
// Run never returns early on a node failure: unrelated branches keep
// running, and failure propagates only along the failed node's own
// dependents.
func Run(ctx context.Context, plan *compiler.Plan, runtimeInputs map[string]any, opts Options) (*GraphResults, error) {
	for name := range plan.RuntimeInputNames {
		if _, ok := runtimeInputs[name]; !ok {
			return nil, &Error{
				Kind: FailureMissingRuntimeInput,
				Info: GraphInfo{BuilderName: plan.BuilderName, OriginalName: name, CompiledName: name},
				Err:  fmt.Errorf("dagrun: runtime input %q was not supplied to Run", name),
			}
		}
	}

	start := time.Now()
	ctx, rootSpan := observeRunStart(ctx, opts.Provider, plan.BuilderName, len(plan.Nodes))

	s := &scheduler{
		ctx:        ctx,
		plan:       plan,
		opts:       opts,
		results:    NewGraphResults(),
		pending:    make(map[string]int, len(plan.Nodes)),
		dispatched: make(map[string]bool, len(plan.Nodes)),
	}
	if opts.MaxConcurrency > 0 {
		s.sem = make(chan struct{}, opts.MaxConcurrency)
	}

	for name, value := range runtimeInputs {
		s.results.SetValue(name, value)
	}
	for name, value := range plan.InputLiterals {
		s.results.SetValue(name, value)
	}

	for name, node := range plan.Nodes {
		if node.IsPureInput {
			continue
		}
		count := 0
		for _, in := range node.Inputs {
			if _, ok := plan.Nodes[in.Global]; ok && !plan.Nodes[in.Global].IsPureInput {
				count++
			}
		}
		s.pending[name] = count
	}

	for _, name := range plan.StartingNodes {
		s.dispatch(name)
	}

	s.wg.Wait()

	var runErr error
	for _, ob := range plan.Outputs {
		if err := s.results.Err(ob.Node); err != nil {
			runErr = err
			break
		}
	}
	observeRunCompleted(ctx, opts.Provider, rootSpan, time.Since(start), runErr)

	return s.results, nil
}

// scheduler drives the activation-counter execution of one Run call: every
// node tracks how many of its input edges to non-hoisted compiled nodes
// remain unresolved (an input named twice counts twice, matching its
// repeated entry in the dependency's Callers); reaching zero dispatches it,
// and its own completion
// decrements every dependent in turn (spec §4.5's 8-step resolver
// algorithm collapsed into dispatch/complete).
type scheduler struct {
	ctx  context.Context
	plan *compiler.Plan
	opts Options

	results *GraphResults

	mu         sync.Mutex
	pending    map[string]int
	dispatched map[string]bool

	sem chan struct{}
	wg  sync.WaitGroup
}

func (s *scheduler) dispatch(name string) {
	s.mu.Lock()
	if s.dispatched[name] {
		s.mu.Unlock()
		return
	}
	s.dispatched[name] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.sem != nil {
			select {
			case s.sem <- struct{}{}:
				defer func() { <-s.sem }()
			case <-s.ctx.Done():
				s.results.SetError(name, s.ctx.Err())
				s.complete(name)
				return
			}
		}
		s.run(name)
		s.complete(name)
	}()
}

// complete decrements every dependent's pending count and dispatches any
// that reach zero.
func (s *scheduler) complete(name string) {
	node, ok := s.plan.Nodes[name]
	if !ok {
		return
	}
	var ready []string
	s.mu.Lock()
	for _, caller := range node.Callers {
		if _, tracked := s.pending[caller]; !tracked {
			continue
		}
		s.pending[caller]--
		if s.pending[caller] == 0 {
			ready = append(ready, caller)
		}
	}
	s.mu.Unlock()
	for _, name := range ready {
		s.dispatch(name)
	}
}

// run resolves one node's inputs, invokes its handler (or collapses a
// sentinel kind), and records the outcome.
func (s *scheduler) run(name string) {
	node := s.plan.Nodes[name]
	nodeCtx, span := observeNodeStart(s.ctx, s.opts.Provider, name, node.OriginalName, node.Priority, len(node.Inputs))
	started := time.Now()

	value, err := s.resolve(nodeCtx, node)

	observeNodeDone(nodeCtx, s.opts.Provider, span, name, time.Since(started), err)

	if err != nil {
		s.results.SetError(name, err)
		return
	}
	if s.opts.DeepCopyOutputs {
		value = deepCopy(value)
	}
	s.results.SetValue(name, value)
}

func (s *scheduler) resolve(ctx context.Context, node *compiler.CompiledNode) (any, error) {
	if upstreamErr := s.checkGatedInputs(node); upstreamErr != nil {
		return nil, upstreamErr
	}

	// Per-run memo by non-important hash (spec §4.5 step 2/5, §4.6, §8):
	// the implicit-important-injection pass already serializes every other
	// node sharing this hash behind whichever one claims it first, so by
	// the time a non-owner reaches this point the owner has already
	// resolved and its outcome can be reused verbatim.
	if node.NonImportantHash != "" && !node.CacheDisabled {
		if owner, claimed := s.results.ClaimHash(node.NonImportantHash, node.NewName); !claimed {
			value, err := s.results.Outcome(owner)
			return value, err
		}
	}

	args, err := s.buildArgs(node)
	if err != nil {
		return nil, err
	}

	var value any
	switch node.Kind {
	case compiler.KindLiteral:
		value = node.LiteralValue
	case compiler.KindSubgraph:
		if len(args) == 0 {
			return nil, nil
		}
		value = args[len(args)-1]
	case compiler.KindArgsToArray:
		value = args
	case compiler.KindHandler:
		handlerCtx := ctx
		var cancel context.CancelFunc
		if node.Timeout > 0 {
			handlerCtx, cancel = context.WithTimeout(ctx, node.Timeout)
			defer cancel()
		}
		result, handlerErr := node.Func(handlerCtx, args)
		if handlerErr != nil {
			kind := FailureHandler
			if handlerCtx.Err() == context.DeadlineExceeded {
				kind = FailureTimeout
			}
			return nil, s.wrapError(node, kind, handlerErr)
		}
		value = result
	}

	if node.EnforceType != nil {
		coerced, coerceErr := shape.CoerceToType(value, node.EnforceType)
		if coerceErr != nil {
			return nil, s.wrapError(node, FailureTypeEnforcement, coerceErr)
		}
		value = coerced
	}

	return value, nil
}

// checkGatedInputs implements the quiet-input validator: every
// Important/Void/ImplicitImportant input must have already resolved
// without error before the handler runs at all.
func (s *scheduler) checkGatedInputs(node *compiler.CompiledNode) error {
	for _, in := range node.Inputs {
		if in.IsRequiredFields || !in.Kind.IsGated() {
			continue
		}
		if err := s.results.Err(in.Global); err != nil {
			return s.wrapError(node, FailureUpstream, err)
		}
	}
	return nil
}

// buildArgs implements the argument-input validator: resolves every
// positional input (plus the _requiredFields pseudo-input) in declaration
// order, wrapping Getter-flagged inputs instead of failing outright on
// their error.
func (s *scheduler) buildArgs(node *compiler.CompiledNode) ([]any, error) {
	var args []any
	for _, in := range node.Inputs {
		if in.Kind == compiler.InputVoid || in.Kind == compiler.InputPartial || in.Kind == compiler.InputImplicitImportant {
			continue
		}
		if in.IsRequiredFields {
			args = append(args, node.RequiredFields)
			continue
		}

		value, ok := s.results.Get(in.Global)
		err := s.results.Err(in.Global)

		if err != nil && in.Getter {
			args = append(args, Getter{err: err})
			continue
		}
		if err != nil {
			return nil, s.wrapError(node, FailureUpstream, err)
		}
		if !ok {
			return nil, s.wrapError(node, FailureUpstream, fmt.Errorf("dagrun: input %q has no resolved value", in.Global))
		}
		if in.MemberPath != "" {
			value = navigateMemberPath(value, in.MemberPath)
		}
		if in.Getter {
			args = append(args, Getter{value: value})
			continue
		}
		args = append(args, value)
	}
	return args, nil
}

func navigateMemberPath(value any, path string) any {
	current := value
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[segment]
	}
	return current
}

func (s *scheduler) wrapError(node *compiler.CompiledNode, kind FailureKind, cause error) error {
	return &Error{
		Kind: kind,
		Info: GraphInfo{
			BuilderName:  s.plan.BuilderName,
			OriginalName: node.OriginalName,
			CompiledName: node.NewName,
			FailureChain: node.FailureChain,
			Priority:     node.Priority,
		},
		Err: cause,
	}
}
