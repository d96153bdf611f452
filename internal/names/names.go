package names

import (
	"fmt"
	"strings"
)

// Ref is a parsed node reference as it appears in a NodeDefinition's args
// or a builds() alias map, e.g. "!checkAuth", "getUser.name", "args.*",
// or "cache_".
type Ref struct {
	// Raw is the original, unparsed string.
	Raw string

	// Important marks a "!" prefix: the input must fully resolve before its
	// node starts, and it contributes to the node's complete hash.
	Important bool

	// Void marks a "?" prefix: resolved for side effects only, never
	// becomes a handler argument.
	Void bool

	// Partial marks a "%" prefix: used only to configure a peer, never
	// becomes a handler argument.
	Partial bool

	// Private marks a trailing "_" on the root identifier: the node may
	// only be consumed from within its defining peer group.
	Private bool

	// Root is the base identifier (with any trailing "_" left intact, since
	// privacy is a property of the name, not something to strip).
	Root string

	// Members is the dot-separated member path after Root, e.g. ["name"]
	// for "getUser.name". Empty when the whole value is consumed.
	Members []string

	// IsArgs is true for "args.X" / "args.*" references.
	IsArgs bool

	// ArgsAll is true for "args.*": the full declared argument list of the
	// enclosing node, passed through as an array.
	ArgsAll bool

	// ArgName is the referenced argument's short name, set when IsArgs is
	// true and ArgsAll is false.
	ArgName string
}

// reservedPrefix reports whether b is one of the grammar's recognized
// importance-prefix bytes.
func reservedPrefix(b byte) bool {
	switch b {
	case '!', '?', '%', '+':
		return true
	default:
		return false
	}
}

// Parse classifies a raw node-reference string per the authoring DSL
// grammar (spec §6): an optional importance prefix, an identifier, zero or
// more "."-separated member segments, with "args.NAME"/"args.*" as a
// special root.
//
// The "+" prefix is part of the grammar but spec.md never assigns it
// independent semantics beyond what bare (unprefixed) references already
// have; Parse accepts it and records no metadata for it, preserving
// round-trip tolerance for sources that emit it (see DESIGN.md's Open
// Question log).
func Parse(raw string) (Ref, error) {
	if raw == "" {
		return Ref{}, fmt.Errorf("names: empty node reference")
	}

	rest := raw
	ref := Ref{Raw: raw}

	if reservedPrefix(rest[0]) {
		switch rest[0] {
		case '!':
			ref.Important = true
		case '?':
			ref.Void = true
		case '%':
			ref.Partial = true
		case '+':
			// Reserved, no semantics assigned by the grammar.
		}
		rest = rest[1:]
	}

	if rest == "" {
		return Ref{}, fmt.Errorf("names: reference %q has a prefix but no identifier", raw)
	}

	segments := strings.Split(rest, ".")
	ref.Root = segments[0]
	ref.Members = segments[1:]

	if ref.Root == "" {
		return Ref{}, fmt.Errorf("names: reference %q has an empty root identifier", raw)
	}

	ref.Private = strings.HasSuffix(ref.Root, "_")

	if ref.Root == "args" {
		ref.IsArgs = true
		if len(ref.Members) == 0 || ref.Members[0] == "" {
			return Ref{}, fmt.Errorf("names: args reference %q is missing an argument name", raw)
		}
		if ref.Members[0] == "*" {
			ref.ArgsAll = true
			if len(ref.Members) > 1 {
				return Ref{}, fmt.Errorf("names: args.* reference %q cannot have member paths", raw)
			}
		} else {
			ref.ArgName = ref.Members[0]
			ref.Members = ref.Members[1:]
		}
	}

	return ref, nil
}

// ShortName returns the deterministic short name used for dependency
// resolution within a peer group: the args name for an args.X reference,
// otherwise the root identifier.
func (r Ref) ShortName() string {
	if r.IsArgs && !r.ArgsAll {
		return r.ArgName
	}
	return r.Root
}

// Alias returns the default local alias a peer compiler assigns when a
// builds()-declared child has no explicit alias: the short name stripped
// of member paths, unchanged otherwise. Two sibling peers built from the
// same root node must use an explicit alias to coexist.
func (r Ref) Alias() string {
	return r.ShortName()
}

// MemberPath returns the "."-joined member path, or "" if the reference
// consumes the whole value.
func (r Ref) MemberPath() string {
	if len(r.Members) == 0 {
		return ""
	}
	return strings.Join(r.Members, ".")
}

// HasMembers reports whether this reference projects into a member path
// rather than consuming the whole value.
func (r Ref) HasMembers() bool {
	return len(r.Members) > 0
}
