package graph

import "sort"

// SortByOutput reorders every set by vertex Output, ties broken by original
// vertex order (sort.SliceStable), ascending or descending.
func (g *Graph) SortByOutput(ascending bool) {
	g.sortEachSet(func(vs []Vertex) func(i, j int) bool {
		if ascending {
			return func(i, j int) bool { return vs[i].Output < vs[j].Output }
		}
		return func(i, j int) bool { return vs[i].Output > vs[j].Output }
	})
}

// SortByBound reorders every set by MaxBound (descending search bias) or
// MinBound, ties broken by original vertex order.
func (g *Graph) SortByBound(ascending, useMax bool) {
	g.sortEachSet(func(vs []Vertex) func(i, j int) bool {
		key := func(v Vertex) float64 {
			if useMax {
				return v.MaxBound
			}
			return v.MinBound
		}
		if ascending {
			return func(i, j int) bool { return key(vs[i]) < key(vs[j]) }
		}
		return func(i, j int) bool { return key(vs[i]) > key(vs[j]) }
	})
}

func (g *Graph) sortEachSet(less func(vs []Vertex) func(i, j int) bool) {
	for si := range g.Sets {
		vs := g.Sets[si].Vertices
		sort.SliceStable(vs, less(vs))
	}
}
