package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dagrun/dagrun"
	"github.com/dagrun/dagrun/internal/compiler"
)

// graphFile is the declarative shape a .yaml graph file is unmarshaled
// into: a selection of nodes from the built-in demo registry (demoNodes),
// with literal overrides and a builder output list. Handlers themselves
// stay in Go — this only drives which demo nodes are wired together and
// under what names, matching spec §6's "external graph-authoring surface"
// split (authoring is outside the compiler's own concern).
type graphFile struct {
	Name          string            `yaml:"name"`
	RuntimeInputs []string          `yaml:"runtime_inputs"`
	Literals      map[string]any    `yaml:"literals"`
	Nodes         map[string]string `yaml:"nodes"` // registered name -> demo node kind
	Outputs       []outputEntry     `yaml:"outputs"`
}

type outputEntry struct {
	Alias  string `yaml:"alias"`
	Node   string `yaml:"node"`
	Silent bool   `yaml:"silent"`
}

func loadGraphFile(path string) (*graphFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var gf graphFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if gf.Name == "" {
		gf.Name = strings.TrimSuffix(path, ".yaml")
	}
	return &gf, nil
}

// buildBuilder lowers a graphFile into a *dagrun.Builder using demoNodes as
// the registry of available node kinds, applying opts (typically derived
// from providers/config) at construction time.
func buildBuilder(gf *graphFile, opts ...dagrun.Option) (*dagrun.Builder, error) {
	b := dagrun.NewBuilder(gf.Name, opts...)
	b.RuntimeInputs(gf.RuntimeInputs...)

	for name, kind := range gf.Nodes {
		if kind == "literal" {
			value := gf.Literals[name]
			b.Add(name, dagrun.Literal(value))
			continue
		}
		newNode, ok := demoNodes[kind]
		if !ok {
			return nil, fmt.Errorf("unknown node kind %q for node %q", kind, name)
		}
		b.Add(name, newNode())
	}

	for _, ob := range gf.Outputs {
		if ob.Silent {
			b.SilentOutput(ob.Alias, ob.Node)
		} else {
			b.Output(ob.Alias, ob.Node)
		}
	}
	return b, nil
}

// demoNodes is the fixed catalog of node kinds a graph file can reference
// by name, defined in register.go. It exists because Go has no safe way to
// load arbitrary handler code from a YAML file; these nodes are enough to
// drive non-trivial example graphs through compile/run/validate.
var demoNodes = map[string]func() *compiler.NodeDefinition{}
