// Package names implements the node-reference grammar used throughout a
// dagrun graph: a root identifier, an optional importance prefix
// (!, ?, %, +), zero or more dot-separated member segments, an optional
// trailing underscore marking a private node, and the args.NAME / args.*
// escape hatch for referring to a parent node's declared argument.
//
// This is the "name algebra" component: it only parses and classifies
// references. It does not know about peer groups, compiled nodes, or
// handlers — those live in internal/compiler.
package names
