package runtime

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dagrun/dagrun/internal/compiler"
)

func compileOrFail(t *testing.T, registry map[string]*compiler.NodeDefinition, outputs []compiler.OutputSpec, opts compiler.CompileOptions) *compiler.Plan {
	t.Helper()
	plan, err := compiler.Compile("test", registry, outputs, opts)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	return plan
}

func handler(fn func(ctx context.Context, args []any) (any, error)) *compiler.NodeDefinition {
	return &compiler.NodeDefinition{Kind: compiler.KindHandler, Func: fn}
}

// TestRun_LinearChain verifies a three-node chain resolves end to end and
// the output carries the expected value.
func TestRun_LinearChain(t *testing.T) {
	registry := map[string]*compiler.NodeDefinition{
		"loadUser": {Kind: compiler.KindLiteral, LiteralValue: "alice"},
		"greet": {
			Kind: compiler.KindHandler,
			Args: []string{"loadUser"},
			Func: func(_ context.Context, args []any) (any, error) {
				return "hello, " + args[0].(string), nil
			},
		},
	}
	plan := compileOrFail(t, registry, []compiler.OutputSpec{{Alias: "greeting", Node: "greet"}}, compiler.CompileOptions{})

	results, err := Run(context.Background(), plan, nil, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	value, ok := results.Get(plan.Outputs[0].Node)
	if !ok {
		t.Fatal("output did not resolve")
	}
	if value != "hello, alice" {
		t.Errorf("output = %v, want %q", value, "hello, alice")
	}
}

// TestRun_RuntimeInputResolves verifies declared runtime inputs feed
// directly into dependent nodes without a registry entry.
func TestRun_RuntimeInputResolves(t *testing.T) {
	registry := map[string]*compiler.NodeDefinition{
		"echo": {
			Kind: compiler.KindHandler,
			Args: []string{"userID"},
			Func: func(_ context.Context, args []any) (any, error) { return args[0], nil },
		},
	}
	opts := compiler.CompileOptions{RuntimeInputs: map[string]bool{"userID": true}}
	plan := compileOrFail(t, registry, []compiler.OutputSpec{{Alias: "out", Node: "echo"}}, opts)

	results, err := Run(context.Background(), plan, map[string]any{"userID": "u-42"}, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	value, _ := results.Get(plan.Outputs[0].Node)
	if value != "u-42" {
		t.Errorf("output = %v, want %q", value, "u-42")
	}
}

// TestRun_MissingRuntimeInputFailsUpfront verifies Run refuses to start
// when a declared runtime input isn't supplied.
func TestRun_MissingRuntimeInputFailsUpfront(t *testing.T) {
	registry := map[string]*compiler.NodeDefinition{
		"echo": handler(func(_ context.Context, args []any) (any, error) { return args[0], nil }),
	}
	registry["echo"].Args = []string{"userID"}
	opts := compiler.CompileOptions{RuntimeInputs: map[string]bool{"userID": true}}
	plan := compileOrFail(t, registry, []compiler.OutputSpec{{Alias: "out", Node: "echo"}}, opts)

	if _, err := Run(context.Background(), plan, nil, Options{}); err == nil {
		t.Fatal("Run should fail when a declared runtime input is missing")
	}
}

// TestRun_ImportantInputFailurePropagates verifies a "!"-prefixed input's
// failure short-circuits its dependent without invoking the handler.
func TestRun_ImportantInputFailurePropagates(t *testing.T) {
	registry := map[string]*compiler.NodeDefinition{
		"checkAuth": handler(func(_ context.Context, _ []any) (any, error) {
			return nil, errors.New("unauthorized")
		}),
		"render": {
			Kind: compiler.KindHandler,
			Args: []string{"!checkAuth"},
			Func: func(_ context.Context, _ []any) (any, error) {
				t.Fatal("render handler should not run when its important input failed")
				return nil, nil
			},
		},
	}
	plan := compileOrFail(t, registry, []compiler.OutputSpec{{Alias: "out", Node: "render"}}, compiler.CompileOptions{})

	results, err := Run(context.Background(), plan, nil, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	renderErr := results.Err(plan.Outputs[0].Node)
	if renderErr == nil {
		t.Fatal("expected render to have failed")
	}
	var dagErr *Error
	if !errors.As(renderErr, &dagErr) {
		t.Fatalf("error is not *Error: %v", renderErr)
	}
	if dagErr.Kind != FailureUpstream {
		t.Errorf("Kind = %v, want %v", dagErr.Kind, FailureUpstream)
	}
}

// TestRun_GetterArgSuppressesFailure verifies a Getter-wrapped argument
// lets the handler observe an upstream failure instead of failing outright.
func TestRun_GetterArgSuppressesFailure(t *testing.T) {
	var sawErr error
	boom := errors.New("boom")
	registry := map[string]*compiler.NodeDefinition{
		"risky": handler(func(_ context.Context, _ []any) (any, error) {
			return nil, boom
		}),
		"resilient": {
			Kind:       compiler.KindHandler,
			Args:       []string{"risky"},
			GetterArgs: map[string]bool{"risky": true},
			Func: func(_ context.Context, args []any) (any, error) {
				g := args[0].(Getter)
				sawErr = g.Err()
				return "recovered", nil
			},
		},
	}
	plan := compileOrFail(t, registry, []compiler.OutputSpec{{Alias: "out", Node: "resilient"}}, compiler.CompileOptions{})

	results, err := Run(context.Background(), plan, nil, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !errors.Is(sawErr, boom) {
		t.Errorf("handler saw err = %v, want one wrapping boom", sawErr)
	}
	value, ok := results.Get(plan.Outputs[0].Node)
	if !ok || value != "recovered" {
		t.Errorf("output = %v, ok=%v, want \"recovered\"", value, ok)
	}
}

// TestRun_NodeTimeout verifies a node that exceeds its declared timeout
// fails with FailureTimeout.
func TestRun_NodeTimeout(t *testing.T) {
	registry := map[string]*compiler.NodeDefinition{
		"slow": {
			Kind:    compiler.KindHandler,
			Timeout: int64(10 * time.Millisecond),
			Func: func(ctx context.Context, _ []any) (any, error) {
				select {
				case <-time.After(200 * time.Millisecond):
					return "done", nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			},
		},
	}
	plan := compileOrFail(t, registry, []compiler.OutputSpec{{Alias: "out", Node: "slow"}}, compiler.CompileOptions{})

	results, err := Run(context.Background(), plan, nil, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	nodeErr := results.Err(plan.Outputs[0].Node)
	var dagErr *Error
	if !errors.As(nodeErr, &dagErr) {
		t.Fatalf("expected a timeout *Error, got %v", nodeErr)
	}
	if dagErr.Kind != FailureTimeout {
		t.Errorf("Kind = %v, want %v", dagErr.Kind, FailureTimeout)
	}
}

// TestRun_TypeEnforcementCoercesLooseOutput verifies EnforceType coerces a
// handler's loosely-typed return value into the declared shape.
func TestRun_TypeEnforcementCoercesLooseOutput(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	registry := map[string]*compiler.NodeDefinition{
		"produce": {
			Kind:        compiler.KindHandler,
			EnforceType: reflect.TypeOf(payload{}),
			Func: func(_ context.Context, _ []any) (any, error) {
				return map[string]any{"name": "Ada"}, nil
			},
		},
	}
	plan := compileOrFail(t, registry, []compiler.OutputSpec{{Alias: "out", Node: "produce"}}, compiler.CompileOptions{})

	results, err := Run(context.Background(), plan, nil, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	value, ok := results.Get(plan.Outputs[0].Node)
	if !ok {
		t.Fatal("output did not resolve")
	}
	got, ok := value.(payload)
	if !ok || got.Name != "Ada" {
		t.Errorf("output = %#v, want payload{Name: Ada}", value)
	}
}

// TestRun_UnrelatedBranchesStillRunAfterFailure verifies one branch's
// failure doesn't cancel an unrelated sibling output.
func TestRun_UnrelatedBranchesStillRunAfterFailure(t *testing.T) {
	registry := map[string]*compiler.NodeDefinition{
		"failing": handler(func(_ context.Context, _ []any) (any, error) {
			return nil, errors.New("fail")
		}),
		"fine": {Kind: compiler.KindLiteral, LiteralValue: "ok"},
	}
	plan := compileOrFail(t, registry, []compiler.OutputSpec{
		{Alias: "bad", Node: "failing"},
		{Alias: "good", Node: "fine"},
	}, compiler.CompileOptions{})

	results, err := Run(context.Background(), plan, nil, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	var fineName, failingName string
	for _, ob := range plan.Outputs {
		if ob.Alias == "good" {
			fineName = ob.Node
		} else {
			failingName = ob.Node
		}
	}
	if results.Err(failingName) == nil {
		t.Error("expected failing branch to have an error")
	}
	value, ok := results.Get(fineName)
	if !ok || value != "ok" {
		t.Errorf("unrelated branch = %v, ok=%v, want \"ok\"", value, ok)
	}
}

// TestRun_SharedNonImportantHashMemoizesOnce verifies two nodes that are
// structurally identical apart from which important input gates them share
// one non-important hash, and therefore invoke their handler at most once
// between them, with the non-owner reusing the owner's exact outcome.
func TestRun_SharedNonImportantHashMemoizesOnce(t *testing.T) {
	calls := 0
	shared := func(_ context.Context, _ []any) (any, error) {
		calls++
		return calls, nil
	}
	registry := map[string]*compiler.NodeDefinition{
		"gateA": {Kind: compiler.KindLiteral, LiteralValue: "x"},
		"gateB": {Kind: compiler.KindLiteral, LiteralValue: "y"},
		"workA": {Kind: compiler.KindHandler, Args: []string{"!gateA"}, Func: shared},
		"workB": {Kind: compiler.KindHandler, Args: []string{"!gateB"}, Func: shared},
	}
	plan := compileOrFail(t, registry, []compiler.OutputSpec{
		{Alias: "a", Node: "workA"},
		{Alias: "b", Node: "workB"},
	}, compiler.CompileOptions{})

	results, err := Run(context.Background(), plan, nil, Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler invoked %d time(s), want exactly 1", calls)
	}

	var aName, bName string
	for _, ob := range plan.Outputs {
		if ob.Alias == "a" {
			aName = ob.Node
		} else {
			bName = ob.Node
		}
	}
	va, ok := results.Get(aName)
	if !ok {
		t.Fatal("output a did not resolve")
	}
	vb, ok := results.Get(bName)
	if !ok {
		t.Fatal("output b did not resolve")
	}
	if va != vb {
		t.Errorf("outputs diverged: a=%v b=%v, want the identical memoized value", va, vb)
	}
}
