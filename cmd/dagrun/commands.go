package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dagrun/dagrun"
	"github.com/dagrun/dagrun/providers/config"
)

// optsFromConfig translates loaded process configuration into Builder
// construction options (spec's "ambient process configuration, not engine
// runtime state" — each run still gets a fresh Builder).
func optsFromConfig(cfg *config.Config) []dagrun.Option {
	return []dagrun.Option{
		dagrun.WithMaxConcurrency(cfg.Runtime.MaxConcurrency),
		dagrun.WithDeepCopyOutputs(cfg.Runtime.DeepCopyOutputs),
		dagrun.WithEnforceParamNames(cfg.Runtime.EnforceParamNames),
	}
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <graph.yaml>",
		Short: "compile a graph file and report validation errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gf, err := loadGraphFile(args[0])
			if err != nil {
				return err
			}
			b, err := buildBuilder(gf)
			if err != nil {
				return err
			}
			if err := b.Compile(); err != nil {
				return err
			}
			fmt.Printf("%s: compiled OK\n", gf.Name)
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	cmd := newCompileCmd()
	cmd.Use = "validate <graph.yaml>"
	cmd.Short = "validate a graph file without running it"
	return cmd
}

func newRunCmd() *cobra.Command {
	var inputFlags []string

	cmd := &cobra.Command{
		Use:   "run <graph.yaml>",
		Short: "compile and run a graph file, printing its outputs as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			gf, err := loadGraphFile(args[0])
			if err != nil {
				return err
			}
			b, err := buildBuilder(gf, optsFromConfig(cfg)...)
			if err != nil {
				return err
			}

			inputs, err := parseInputFlags(inputFlags)
			if err != nil {
				return err
			}

			ctx := context.Background()
			out, err := b.Run(ctx, inputs)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal output: %w", err)
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&inputFlags, "input", nil, "runtime input in key=value form, repeatable")
	return cmd
}

func parseInputFlags(raw []string) (map[string]any, error) {
	inputs := map[string]any{}
	for _, kv := range raw {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --input %q, want key=value", kv)
		}
		inputs[parts[0]] = parts[1]
	}
	return inputs, nil
}
