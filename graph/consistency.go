package graph

import (
	"fmt"

	"go.uber.org/zap"

	"navmesh-planner/geom"
)

// Violation is one structural invariant breach found by CheckConsistency.
type Violation struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func (v Violation) String() string {
	return v.Kind + ": " + v.Detail
}

// CheckConsistency walks the whole graph and reports structural invariant
// violations: orphaned or mis-counted vertices, edges missing from the
// spatial index, and partially overlapping edge pairs. It never mutates the
// graph; the operator decides what to do with a damaged scene.
func (g *Graph) CheckConsistency() []Violation {
	var out []Violation
	report := func(kind, format string, args ...any) {
		out = append(out, Violation{Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	// Vertex reference counts must match incident edges.
	incident := make(map[string]int, len(g.verts))
	for _, e := range g.edges {
		incident[e.a.key]++
		incident[e.b.key]++
		if g.verts[e.a.key] != e.a || g.verts[e.b.key] != e.b {
			report("dangling-vertex", "edge %s references a vertex not owned by the graph", e.key())
		}
	}
	for key, v := range g.verts {
		n := incident[key]
		if n == 0 {
			report("orphaned-vertex", "vertex %s has no incident edges", key)
		}
		if v.refs != n {
			report("refcount-mismatch", "vertex %s refcount %d, incident edges %d", key, v.refs, n)
		}
	}

	// The R-tree and the edge map must agree.
	if size := g.tree.Size(); size != len(g.edges) {
		report("index-size-mismatch", "rtree holds %d entries, edge set holds %d", size, len(g.edges))
	}
	for _, e := range g.edges {
		found := false
		for _, c := range g.candidates(e.seg) {
			if c == e {
				found = true
				break
			}
		}
		if !found {
			report("index-miss", "edge %s not returned by its own bounds query", e.key())
		}
	}

	// No two distinct edges may share a stretch of positive length.
	seen := make(map[string]bool)
	for _, e := range g.edges {
		for _, other := range g.candidates(e.seg) {
			if other == e {
				continue
			}
			pair := e.key() + "//" + other.key()
			if other.key() < e.key() {
				pair = other.key() + "//" + e.key()
			}
			if seen[pair] {
				continue
			}
			seen[pair] = true
			if hit := geom.Classify(e.seg, other.seg); hit.Kind == geom.HitOverlap {
				report("partial-overlap", "edges %s and %s overlap on [%f,%f]", e.key(), other.key(), hit.T0, hit.T1)
			}
		}
	}

	for _, v := range out {
		g.log.Warn("consistency violation", zap.String("kind", v.Kind), zap.String("detail", v.Detail))
	}
	return out
}
