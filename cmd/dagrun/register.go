package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dagrun/dagrun"
	"github.com/dagrun/dagrun/internal/compiler"
)

func init() {
	demoNodes["uppercase"] = func() *compiler.NodeDefinition {
		return dagrun.Node(func(_ context.Context, args []any) (any, error) {
			s, _ := args[0].(string)
			return strings.ToUpper(s), nil
		}, "input")
	}

	demoNodes["concat"] = func() *compiler.NodeDefinition {
		return dagrun.Node(func(_ context.Context, args []any) (any, error) {
			var b strings.Builder
			for _, a := range args {
				fmt.Fprint(&b, a)
			}
			return b.String(), nil
		}, "left", "right")
	}

	demoNodes["delay"] = func() *compiler.NodeDefinition {
		return dagrun.Node(func(ctx context.Context, args []any) (any, error) {
			select {
			case <-time.After(50 * time.Millisecond):
				return args[0], nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}, "input")
	}

	demoNodes["fail"] = func() *compiler.NodeDefinition {
		return dagrun.Node(func(_ context.Context, _ []any) (any, error) {
			return nil, fmt.Errorf("demo node deliberately failed")
		})
	}
}
