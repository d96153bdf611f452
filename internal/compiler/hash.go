package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// funcIdentity stabilizes Go function values into short, deterministic
// strings so that the hasher can compare handler identity structurally.
// Go cannot compare func values directly; reflect.ValueOf(fn).Pointer() is
// stable for the lifetime of the process for any given func value (a
// closure or a package-level function), which is all the hasher needs: two
// CompiledNodes sharing the exact same Handler should hash identically.
var funcIdentity = struct {
	mu   sync.Mutex
	ids  map[uintptr]uint64
	next uint64
}{ids: map[uintptr]uint64{}}

func identityOf(fn Handler) uint64 {
	if fn == nil {
		return 0
	}
	ptr := reflect.ValueOf(fn).Pointer()
	funcIdentity.mu.Lock()
	defer funcIdentity.mu.Unlock()
	if id, ok := funcIdentity.ids[ptr]; ok {
		return id
	}
	funcIdentity.next++
	funcIdentity.ids[ptr] = funcIdentity.next
	return funcIdentity.next
}

// cacheDisabledSalt hands out a unique value per call, so that a
// CacheDisabled node's complete hash never coincidentally matches a
// structurally identical peer's.
var cacheDisabledSalt uint64

func nextSalt() uint64 {
	return atomic.AddUint64(&cacheDisabledSalt, 1)
}

// hashInput is the JSON-stable shape of one CompiledInput contributed to a
// node's hash. Global is replaced by the referenced node's own hash (for
// compiled nodes) so structurally identical subgraphs hash identically
// regardless of their suffixed names; runtime inputs and unresolved names
// hash by their literal name instead.
type hashInput struct {
	LocalName  string `json:"l"`
	Kind       int    `json:"k"`
	MemberPath string `json:"m,omitempty"`
	Ref        string `json:"r"`
}

type hashShape struct {
	Kind         HandlerKind `json:"kind"`
	FuncIdentity uint64      `json:"fn,omitempty"`
	Literal      string      `json:"lit,omitempty"`
	Inputs       []hashInput `json:"in,omitempty"`
	Salt         uint64      `json:"salt,omitempty"`
}

// computeHashes fills CompleteHash and NonImportantHash for every node in
// nodes, processing in dependency order so that each node's hash can fold
// in its already-computed upstream hashes (spec §4.2).
func computeHashes(nodes map[string]*CompiledNode) error {
	complete := map[string]string{}
	nonImportant := map[string]string{}
	visiting := map[string]bool{}

	var visit func(name string) error
	visit = func(name string) error {
		if _, done := complete[name]; done {
			return nil
		}
		if visiting[name] {
			return nil // cycles are reported by the validator, not the hasher
		}
		visiting[name] = true
		defer delete(visiting, name)

		node, ok := nodes[name]
		if !ok {
			// Unresolved reference (runtime input or missing node): hash by
			// name alone; the validator reports anything actually invalid.
			complete[name] = "name:" + name
			nonImportant[name] = complete[name]
			return nil
		}

		for _, in := range node.Inputs {
			if _, ok := nodes[in.Global]; ok {
				if err := visit(in.Global); err != nil {
					return err
				}
			}
		}

		node.CompleteHash = hashNode(node, complete, nonImportant, true)
		node.NonImportantHash = hashNode(node, complete, nonImportant, false)
		complete[name] = node.CompleteHash
		nonImportant[name] = node.NonImportantHash
		return nil
	}

	names := make([]string, 0, len(nodes))
	for n := range nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

// hashNode folds node's own identity and its inputs' upstream hashes into one
// hash. Important-kind inputs (which gate the node and contribute to
// serialization decisions) are folded via their child's CompleteHash;
// argument-kind inputs are folded via their child's NonImportantHash, in
// both the complete and non-important passes (spec §4.2) — a node's identity
// for dedup/memo purposes should not widen just because an argument child
// happens to sit behind a differently-gated important input elsewhere in the
// graph. includeImportant selects which pass this call computes: the
// non-important pass omits important-kind inputs from the shape entirely.
func hashNode(node *CompiledNode, complete, nonImportant map[string]string, includeImportant bool) string {
	shape := hashShape{Kind: node.Kind}
	if node.Func != nil {
		shape.FuncIdentity = identityOf(node.Func)
	}
	if node.Kind == KindLiteral {
		shape.Literal = string(utilsJSONToString(node.LiteralValue))
	}
	if node.CacheDisabled {
		shape.Salt = nextSalt()
	}

	for _, in := range node.Inputs {
		important := in.Kind == InputImportant || in.Kind == InputImplicitImportant
		if !includeImportant && important {
			continue
		}
		upstream := nonImportant
		if important {
			upstream = complete
		}
		ref := upstream[in.Global]
		if ref == "" {
			ref = "name:" + in.Global
		}
		shape.Inputs = append(shape.Inputs, hashInput{
			LocalName:  in.LocalName,
			Kind:       int(in.Kind),
			MemberPath: in.MemberPath,
			Ref:        ref,
		})
	}

	encoded, err := json.Marshal(shape)
	if err != nil {
		// Deterministic fallback: still salted per-node so a marshal error
		// never silently collapses two distinct nodes into one hash.
		encoded = []byte(node.NewName)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

// utilsJSONToString is a tiny local JSON encoder kept independent of
// internal/utils to avoid a compiler -> utils import purely for hashing; it
// deliberately swallows marshal errors into a stable placeholder, since the
// hasher only needs a deterministic byte string, not valid JSON for reuse.
func utilsJSONToString(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return b
}
