package dagrun

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dagrun/dagrun/internal/compiler"
	"github.com/dagrun/dagrun/internal/runtime"
)

// Builder is the public surface of the engine (spec §6): register node
// definitions, declare outputs, Compile once, Run many times.
type Builder struct {
	name string

	mu       sync.Mutex
	registry map[string]*compiler.NodeDefinition
	outputs  []compiler.OutputSpec

	runtimeInputs     map[string]bool
	enforceParamNames bool
	config            map[string]any

	preRun  []func(map[string]any) map[string]any
	postRun []func(map[string]any) map[string]any

	runtimeOpts runtime.Options

	plan *compiler.Plan
}

// NewBuilder creates an empty Builder named name, used in observability
// context and error messages.
func NewBuilder(name string, opts ...Option) *Builder {
	b := &Builder{
		name:          name,
		registry:      map[string]*compiler.NodeDefinition{},
		runtimeInputs: map[string]bool{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add registers def under name, returning b for chaining. Adding under a
// name that already exists overwrites the previous definition.
func (b *Builder) Add(name string, def *compiler.NodeDefinition) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registry[name] = def
	return b
}

// RuntimeInputs declares names as external inputs supplied to Run rather
// than resolved from the registry.
func (b *Builder) RuntimeInputs(names ...string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range names {
		b.runtimeInputs[n] = true
	}
	return b
}

// Output declares one of the Builder's outputs: ref is a node reference in
// the authoring DSL grammar (its root must be a registered node), alias is
// the key the resolved value is reported under in Run's result map. An
// empty alias defaults to ref's own short name.
func (b *Builder) Output(alias, ref string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputs = append(b.outputs, compiler.OutputSpec{Alias: alias, Node: ref})
	return b
}

// SilentOutput is like Output but suppresses the result from Run's returned
// map while still computing it (spec §6's silent-output note).
func (b *Builder) SilentOutput(alias, ref string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputs = append(b.outputs, compiler.OutputSpec{Alias: alias, Node: ref, Silent: true})
	return b
}

// PreRun registers fn to transform the input map before Compile's runtime
// inputs are bound, in registration order.
func (b *Builder) PreRun(fn func(map[string]any) map[string]any) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.preRun = append(b.preRun, fn)
	return b
}

// PostRun registers fn to transform the output map after Run resolves it,
// in registration order.
func (b *Builder) PostRun(fn func(map[string]any) map[string]any) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.postRun = append(b.postRun, fn)
	return b
}

// Compile eagerly lowers the registered nodes and declared outputs into a
// frozen Plan. A peer-compile failure (a bad reference, an unregistered
// node, a cycle among peers) is returned as soon as it is found; the
// validator's checks are aggregated into one error listing every problem.
func (b *Builder) Compile() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	plan, err := compiler.Compile(b.name, b.registry, b.outputs, compiler.CompileOptions{
		RuntimeInputs:     b.runtimeInputs,
		EnforceParamNames: b.enforceParamNames,
		Config:            b.config,
	})
	if err != nil {
		return fmt.Errorf("dagrun: compile %q: %w", b.name, err)
	}
	b.plan = plan
	return nil
}

// Run executes the compiled Plan against inputs, a mapping from declared
// runtime-input name to value. Compile is called automatically on first
// use if the Builder hasn't been compiled yet. The returned map's keys are
// the Builder's declared output aliases (silent outputs suppressed). When
// the lazy Compile fails, its error is returned as is; every other error is
// an *Error carrying GraphInfo, for a missing runtime input or for the
// first output whose node failed.
func (b *Builder) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	b.mu.Lock()
	plan := b.plan
	preRun := b.preRun
	postRun := b.postRun
	opts := b.runtimeOpts
	name := b.name
	b.mu.Unlock()

	if plan == nil {
		if err := b.Compile(); err != nil {
			return nil, err
		}
		b.mu.Lock()
		plan = b.plan
		b.mu.Unlock()
	}

	for _, fn := range preRun {
		inputs = fn(inputs)
	}

	runID := uuid.New().String()
	ctx = context.WithValue(ctx, runIDKey{}, runID)

	results, err := runtime.Run(ctx, plan, inputs, opts)
	if err != nil {
		return nil, toPublicError(name, runID, namerTable(plan), err)
	}

	out := map[string]any{}
	var firstErr error
	for _, ob := range plan.Outputs {
		if runErr := results.Err(ob.Node); runErr != nil {
			if firstErr == nil {
				firstErr = runErr
			}
			continue
		}
		if ob.Silent {
			continue
		}
		value, _ := results.Get(ob.Node)
		out[ob.Alias] = value
	}
	if firstErr != nil {
		return nil, toPublicError(name, runID, namerTable(plan), firstErr)
	}

	for _, fn := range postRun {
		out = fn(out)
	}
	return out, nil
}

// runIDKey scopes the run ID stashed in Run's context, so nested handler
// code (or observability hooks) can read it back via ctx.Value.
type runIDKey struct{}

// RunIDFromContext returns the current Run invocation's ID, or "" if ctx
// wasn't produced by Builder.Run.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

func namerTable(plan *compiler.Plan) map[string]*nodeNamer {
	table := make(map[string]*nodeNamer, len(plan.Nodes))
	for newName, n := range plan.Nodes {
		table[newName] = &nodeNamer{originalName: n.OriginalName}
	}
	return table
}
