// Package nextsignal computes bounded-depth signal visibility chains from
// the depth-1 adjacency configured on each signal.
package nextsignal

import (
	"fmt"

	"github.com/railsim-tools/interlock/model"
)

// MaxDepth bounds the look-ahead: chains stop four signals out by design,
// not at the full transitive closure.
const MaxDepth = 4

// hop is one reachability entry in the expansion arena.
type hop struct {
	origin int
	target int
	source int // immediate predecessor on the chain
	depth  int
}

// Expand computes NextSignal records for every signal in the registry and
// appends them to it. For a fixed (origin, target) pair only the first, i.e.
// lowest-depth, relation is recorded. Running it again against a populated
// registry adds nothing: the registry deduplicates by (origin, target).
func Expand(reg *model.Registry) error {
	signals := reg.Signals()

	// Index-based arena over signal identifiers; the rounds below never
	// touch the name map again.
	index := make(map[string]int, len(signals))
	names := make([]string, len(signals))
	for i, sig := range signals {
		index[sig.Name] = i
		names[i] = sig.Name
	}

	direct := make([][]int, len(signals))
	for i, sig := range signals {
		for _, next := range sig.NextSignalNames {
			j, ok := index[next]
			if !ok {
				return fmt.Errorf("%w: signal %s references unknown next signal %s", model.ErrMissingUpstreamData, sig.Name, next)
			}
			direct[i] = append(direct[i], j)
		}
	}

	// seen[origin][target] guards the lowest-depth invariant within this
	// expansion; the registry enforces it across runs.
	seen := make([]map[int]bool, len(signals))
	for i := range seen {
		seen[i] = make(map[int]bool)
	}

	var frontier []hop
	for i := range signals {
		for _, j := range direct[i] {
			if i == j || seen[i][j] {
				continue
			}
			seen[i][j] = true
			frontier = append(frontier, hop{origin: i, target: j, source: i, depth: 1})
		}
	}
	record(reg, names, frontier)

	for depth := 2; depth <= MaxDepth; depth++ {
		var next []hop
		for _, h := range frontier {
			for _, t := range direct[h.target] {
				// A chain folding back onto its origin ends there.
				if h.origin == t || seen[h.origin][t] {
					continue
				}
				seen[h.origin][t] = true
				next = append(next, hop{origin: h.origin, target: t, source: h.target, depth: depth})
			}
		}
		record(reg, names, next)
		frontier = next
	}

	return nil
}

func record(reg *model.Registry, names []string, hops []hop) {
	for _, h := range hops {
		reg.AddNextSignal(names[h.origin], names[h.source], names[h.target], h.depth)
	}
}
