package reference

import (
	"slices"
	"strings"
)

// checkCycles reports the first dependency cycle of a complete resolution.
func checkCycles(st *resolveState) error {
	adj := make(map[slot][]slot)
	for e := st.edges; e != nil; e = e.next {
		if !slices.Contains(adj[e.from], e.to) {
			adj[e.from] = append(adj[e.from], e.to)
		}
	}

	nodes := make([]slot, 0, len(st.activations))
	for sl := range st.activations {
		nodes = append(nodes, sl)
	}
	order := func(a, b slot) int {
		return strings.Compare(st.activations[a].summary.ID.key(), st.activations[b].summary.ID.key())
	}
	slices.SortFunc(nodes, order)
	for _, targets := range adj {
		slices.SortFunc(targets, order)
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	color := make(map[slot]int, len(nodes))
	var path []slot

	var visit func(sl slot) *CycleError
	visit = func(sl slot) *CycleError {
		color[sl] = visiting
		path = append(path, sl)
		for _, to := range adj[sl] {
			switch color[to] {
			case visiting:
				start := slices.Index(path, to)
				cycle := make([]PackageID, 0, len(path)-start+1)
				for _, p := range path[start:] {
					cycle = append(cycle, st.activations[p].summary.ID)
				}
				cycle = append(cycle, st.activations[to].summary.ID)
				return &CycleError{Package: st.activations[to].summary.ID, Path: cycle}
			case unvisited:
				if err := visit(to); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		color[sl] = visited
		return nil
	}

	for _, sl := range nodes {
		if color[sl] == unvisited {
			if err := visit(sl); err != nil {
				return err
			}
		}
	}
	return nil
}
