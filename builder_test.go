package dagrun

import (
	"context"
	"errors"
	"testing"
)

func TestBuilder_CompileAndRun(t *testing.T) {
	b := NewBuilder("greeting")
	b.Add("user", Literal("ada"))
	b.Add("greet", Node(func(_ context.Context, args []any) (any, error) {
		return "hello, " + args[0].(string), nil
	}, "user"))
	b.Output("greeting", "greet")

	if err := b.Compile(); err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	out, err := b.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out["greeting"] != "hello, ada" {
		t.Errorf("greeting = %v, want %q", out["greeting"], "hello, ada")
	}
}

func TestBuilder_RunCompilesLazily(t *testing.T) {
	b := NewBuilder("lazy")
	b.Add("value", Literal(42))
	b.Output("out", "value")

	out, err := b.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out["out"] != 42 {
		t.Errorf("out = %v, want 42", out["out"])
	}
}

func TestBuilder_RuntimeInputFlowsThrough(t *testing.T) {
	b := NewBuilder("echo")
	b.RuntimeInputs("userID")
	b.Add("echo", Node(func(_ context.Context, args []any) (any, error) {
		return args[0], nil
	}, "userID"))
	b.Output("echoed", "echo")

	out, err := b.Run(context.Background(), map[string]any{"userID": "u-1"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out["echoed"] != "u-1" {
		t.Errorf("echoed = %v, want %q", out["echoed"], "u-1")
	}
}

func TestBuilder_RunReturnsPublicError(t *testing.T) {
	b := NewBuilder("failing")
	b.Add("boom", Node(func(_ context.Context, _ []any) (any, error) {
		return nil, errors.New("kaboom")
	}))
	b.Output("out", "boom")

	_, err := b.Run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	var dagErr *Error
	if !errors.As(err, &dagErr) {
		t.Fatalf("error is not *Error: %v", err)
	}
	if dagErr.Kind != FailureHandler {
		t.Errorf("Kind = %v, want %v", dagErr.Kind, FailureHandler)
	}
	if dagErr.Info.Node != "boom" {
		t.Errorf("Info.Node = %q, want %q", dagErr.Info.Node, "boom")
	}
	if dagErr.Info.RunID == "" {
		t.Error("Info.RunID should be populated")
	}
}

func TestBuilder_PreRunAndPostRunTransformMaps(t *testing.T) {
	b := NewBuilder("transforms")
	b.RuntimeInputs("name")
	b.Add("greet", Node(func(_ context.Context, args []any) (any, error) {
		return "hi " + args[0].(string), nil
	}, "name"))
	b.Output("greeting", "greet")
	b.PreRun(func(in map[string]any) map[string]any {
		in["name"] = in["name"].(string) + "!"
		return in
	})
	b.PostRun(func(out map[string]any) map[string]any {
		out["greeting"] = out["greeting"].(string) + " :)"
		return out
	})

	out, err := b.Run(context.Background(), map[string]any{"name": "bo"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out["greeting"] != "hi bo! :)" {
		t.Errorf("greeting = %v, want %q", out["greeting"], "hi bo! :)")
	}
}
