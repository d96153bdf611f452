package runtime

import "sync"

// GraphResults is the per-run store of every compiled node's outcome: a
// concurrent-safe map from global node name to either a resolved value or
// the error that node failed with (spec §4.6). Exactly one of value/err is
// meaningful once a name is marked done. It also holds hashedValues, the
// per-run memo keyed by NonImportantHash (spec §3, §4.5, §4.6): the first
// node to claim a given hash is the one that actually invokes its handler,
// and every later node sharing that hash reuses its outcome rather than
// running again (spec §8's "at-most-once per hash" invariant).
type GraphResults struct {
	mu         sync.RWMutex
	values     map[string]any
	errs       map[string]error
	done       map[string]bool
	hashOwners map[string]string
}

// NewGraphResults returns an empty results store.
func NewGraphResults() *GraphResults {
	return &GraphResults{
		values:     make(map[string]any),
		errs:       make(map[string]error),
		done:       make(map[string]bool),
		hashOwners: make(map[string]string),
	}
}

// ClaimHash registers name as the owner of hash if no node has claimed it yet
// for this run, returning the owning node's name and whether this call is
// the one that claimed it. Callers that don't claim the hash should read the
// owner's outcome (once resolved) instead of computing their own.
func (r *GraphResults) ClaimHash(hash, name string) (owner string, claimed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.hashOwners[hash]; ok {
		return existing, false
	}
	r.hashOwners[hash] = name
	return name, true
}

// SetValue records a successful resolution for name.
func (r *GraphResults) SetValue(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[name] = value
	r.done[name] = true
}

// SetError records a failed resolution for name.
func (r *GraphResults) SetError(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[name] = err
	r.done[name] = true
}

// Get returns name's resolved value. ok is false if name was never
// resolved or resolved to an error.
func (r *GraphResults) Get(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.errs[name] != nil {
		return nil, false
	}
	v, ok := r.values[name]
	return v, ok
}

// Err returns the error name failed with, or nil if it succeeded or hasn't
// resolved yet.
func (r *GraphResults) Err(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errs[name]
}

// Outcome returns name's resolved value and error together, however it
// resolved, for copying a hash memo owner's outcome onto a follower without
// re-running its handler.
func (r *GraphResults) Outcome(name string) (value any, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values[name], r.errs[name]
}

// Done reports whether name has resolved, successfully or not.
func (r *GraphResults) Done(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.done[name]
}

// Values returns a shallow copy of every successfully resolved value,
// keyed by global node name.
func (r *GraphResults) Values() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
