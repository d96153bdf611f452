// Package compiler turns a registry of NodeDefinitions and a builder's
// declared outputs into a frozen Plan, through four stages that mirror the
// engine's own component boundaries: the peer compiler (peer.go, resolver.go)
// flattens each output's reachable peer group and wires every input; the
// hasher (hash.go) gives every node a structural identity; the rewriter
// (rewrite.go) dedupes, hoists literals, and garbage-collects; the validator
// (validate.go) reports every remaining problem at once.
//
// internal/runtime is the only consumer of the resulting Plan; nothing in
// this package knows how a node is actually executed.
package compiler
