package runtime

// deepCopy produces a best-effort recursive copy of v, isolating a node's
// output from in-place mutation by a downstream consumer. Go has no
// language-level immutability to enforce, unlike a freeze() built into a
// dynamic runtime's object model; this is the practical substitute, applied
// only when a run opts into DeepCopyOutputs (see DESIGN.md's Open Question
// log). It only recurses into map[string]any and []any values; anything
// else (including pointers, other map and slice types, and structs, which
// Go cannot generically clone without reflection-based field walking) is
// returned unchanged.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
