package compiler

import (
	"fmt"
	"sort"
)

// peerSpec is one not-yet-compiled member of a peer group: a local alias,
// its parsed reference, and the NodeDefinition it instantiates.
type peerSpec struct {
	alias     string
	refRoot   string
	def       *NodeDefinition
	dependsOn []string // alias names this peer must be ordered after
}

// orderPeers performs the dependency resolver's topological sort over one
// peer group (spec §4.1.a step 2): repeatedly emit aliases whose declared
// dependencies are already emitted, restricted to dependencies that are
// themselves members of this group. A full pass that emits nothing
// indicates a cycle.
func orderPeers(peers []peerSpec) ([]string, error) {
	deps := make(map[string][]string, len(peers))
	isPeer := make(map[string]bool, len(peers))
	for _, p := range peers {
		isPeer[p.alias] = true
	}
	for _, p := range peers {
		var blocking []string
		for _, d := range p.dependsOn {
			if isPeer[d] {
				blocking = append(blocking, d)
			}
		}
		deps[p.alias] = blocking
	}

	emitted := make(map[string]bool, len(peers))
	order := make([]string, 0, len(peers))
	remaining := make([]string, 0, len(peers))
	for _, p := range peers {
		remaining = append(remaining, p.alias)
	}

	for len(remaining) > 0 {
		next := remaining[:0]
		progressed := false
		for _, alias := range remaining {
			ready := true
			for _, d := range deps[alias] {
				if !emitted[d] {
					ready = false
					break
				}
			}
			if ready {
				order = append(order, alias)
				emitted[alias] = true
				progressed = true
			} else {
				next = append(next, alias)
			}
		}
		remaining = next
		if !progressed {
			sort.Strings(remaining)
			return nil, fmt.Errorf("compiler: unresolvable dependency cycle among peers %v", remaining)
		}
	}
	return order, nil
}
