// Package minimizer shrinks a disagreeing registry snapshot by one-at-a-time
// delta debugging.
package minimizer

import (
	"context"
	"slices"

	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/core/ports"
	"go.trai.ch/zerr"
)

// Stats describes a minimization run.
type Stats struct {
	// Attempts counts oracle calls on candidate snapshots.
	Attempts int
	// Removed counts accepted removals.
	Removed int
	// Passes counts full scans, including the final one without removal.
	Passes int
}

// Minimize removes releases one at a time, keeping each removal only if the
// oracle still reports a disagreement for root. It repeats full forward scans
// until one makes no removal, so the result is 1-minimal for this order.
// The root release itself is never removed.
func Minimize(ctx context.Context, releases []*domain.Release, root domain.Root, oracle ports.Oracle) ([]*domain.Release, Stats, error) {
	var stats Stats
	current := slices.Clone(releases)
	if !oracle.Disagrees(ctx, domain.NewRegistry(current), root) {
		return nil, stats, zerr.With(zerr.Wrap(domain.ErrNotReproducible, "minimize"), "root", root.String())
	}

	for {
		stats.Passes++
		removed := false
		for i := 0; i < len(current); {
			if err := ctx.Err(); err != nil {
				return current, stats, zerr.Wrap(err, "minimization interrupted")
			}
			if isRoot(current[i], root) {
				i++
				continue
			}
			candidate := slices.Delete(slices.Clone(current), i, i+1)
			stats.Attempts++
			if oracle.Disagrees(ctx, domain.NewRegistry(candidate), root) {
				current = candidate
				stats.Removed++
				removed = true
				continue
			}
			i++
		}
		if !removed {
			return current, stats, nil
		}
	}
}

func isRoot(rel *domain.Release, root domain.Root) bool {
	return rel.Name == root.Package && rel.Version == root.Version
}

// Reachable returns every release of every package reachable by name from root
// through non-dev dependencies, in canonical order. Used to persist a
// disagreement without minimizing it.
func Reachable(reg *domain.Registry, root domain.Root) []*domain.Release {
	seen := map[domain.InternedString]bool{root.Package: true}
	queue := []domain.InternedString{root.Package}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, rel := range reg.Versions(name) {
			for _, d := range rel.Deps {
				if d.Kind == domain.KindDev || seen[d.Package] {
					continue
				}
				seen[d.Package] = true
				queue = append(queue, d.Package)
			}
		}
	}

	var out []*domain.Release
	for rel := range reg.Releases() {
		if seen[rel.Name] {
			out = append(out, rel)
		}
	}
	return out
}
