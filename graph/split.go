package graph

import (
	"sort"

	"go.uber.org/zap"

	"navmesh-planner/geom"
	"navmesh-planner/obstacle"
)

// AddObjectEdge inserts one raw segment of a source object into the graph.
// Existing edges are split at true crossings and at the boundaries of
// collinear overlaps; overlapping stretches end up as a single shared edge
// carrying both source sets. A segment that rounds to zero length is
// rejected.
func (g *Graph) AddObjectEdge(src obstacle.Source, a, b geom.Point) error {
	a, b = a.Round(), b.Round()
	if a.Key() == b.Key() {
		return ErrDegenerateSegment
	}

	rec, ok := g.objects[src.ID()]
	if !ok {
		rec = &objectRecord{src: src}
		g.objects[src.ID()] = rec
	}
	rec.segs = append(rec.segs, geom.Segment{A: a, B: b})

	g.insertSegment(src, a, b)
	g.generation++
	return nil
}

// cut is a point along the probe segment at which the inserted geometry must
// start a new fragment.
type cut struct {
	t float64
	p geom.Point
}

// insertSegment performs the interaction pass against every candidate edge
// and then materializes the probe's fragments in increasing parametric
// order.
func (g *Graph) insertSegment(src obstacle.Source, a, b geom.Point) {
	probe := geom.Segment{A: a, B: b}
	cuts := []cut{{0, a}, {1, b}}

	for _, e := range g.candidates(probe) {
		// The candidate may already have been split away while handling
		// an earlier edge.
		if _, live := g.edges[e.key()]; !live {
			continue
		}
		hit := geom.Classify(probe, e.seg)
		switch hit.Kind {
		case geom.HitEndpoint:
			// Shared vertex, nothing to split.
		case geom.HitCrossing:
			p := hit.Point
			g.splitEdge(e, p)
			if interior(hit.T0, probe.Length()) {
				cuts = append(cuts, cut{hit.T0, p})
			}
		case geom.HitOverlap:
			p0 := probe.PointAt(hit.T0).Round()
			p1 := probe.PointAt(hit.T1).Round()
			for _, frag := range g.splitEdge(e, p0) {
				if geom.OnSegment(frag.A(), frag.B(), p1) {
					g.splitEdge(frag, p1)
				}
			}
			cuts = append(cuts, cut{hit.T0, p0}, cut{hit.T1, p1})
		}
	}

	sort.Slice(cuts, func(i, j int) bool { return cuts[i].t < cuts[j].t })

	srcSet := map[string]obstacle.Source{src.ID(): src}
	prev := cuts[0]
	for _, c := range cuts[1:] {
		if c.p.Key() == prev.p.Key() {
			continue
		}
		if existing := g.lookupEdge(prev.p, c.p); existing != nil {
			// Overlapping stretch already represented: union the
			// source sets onto the shared edge.
			existing.sources[src.ID()] = src
		} else {
			g.newEdge(prev.p, c.p, srcSet)
		}
		prev = c
	}
}

// splitEdge splits e at p, returning the fragments. If p coincides with an
// endpoint the edge is returned unchanged.
func (g *Graph) splitEdge(e *Edge, p geom.Point) []*Edge {
	p = p.Round()
	if p.Key() == e.a.key || p.Key() == e.b.key {
		return []*Edge{e}
	}
	if _, live := g.edges[e.key()]; !live {
		return nil
	}
	sources := e.sources
	ap, bp := e.a.Point, e.b.Point
	g.deleteEdge(e)
	e1 := g.newEdge(ap, p, sources)
	e2 := g.newEdge(p, bp, sources)
	return []*Edge{e1, e2}
}

// interior reports whether parameter t lies strictly inside the unit
// interval, with the unified tolerance scaled by segment length.
func interior(t, length float64) bool {
	if length <= 0 {
		return false
	}
	eps := geom.Eps / length
	return t > eps && t < 1-eps
}

// RemoveObject deletes the object from every edge's source set; edges left
// with an empty source set are deleted. Surviving objects whose geometry had
// been fused into shared edges are dropped and re-added from their raw
// segments, restoring a minimal non-overlapping edge set. Removing an
// unknown id is a no-op.
func (g *Graph) RemoveObject(id string) {
	rec, ok := g.objects[id]
	if !ok {
		return
	}
	delete(g.objects, id)

	survivors := make(map[string]*objectRecord)
	g.stripObject(id, survivors)
	delete(survivors, id)

	for sid, srec := range survivors {
		g.stripObject(sid, nil)
		for _, s := range srec.segs {
			g.insertSegment(srec.src, s.A, s.B)
		}
	}

	g.log.Debug("object removed",
		zap.String("id", rec.src.ID()),
		zap.Int("rebuiltSurvivors", len(survivors)),
		zap.Int("edges", len(g.edges)),
	)
	g.generation++
}

// stripObject removes id from every edge source set, deleting emptied edges.
// When affected is non-nil it collects the other objects that shared an edge
// with id.
func (g *Graph) stripObject(id string, affected map[string]*objectRecord) {
	snapshot := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		snapshot = append(snapshot, e)
	}
	for _, e := range snapshot {
		if _, ok := e.sources[id]; !ok {
			continue
		}
		if affected != nil {
			for other := range e.sources {
				if other == id {
					continue
				}
				if orec, ok := g.objects[other]; ok {
					affected[other] = orec
				}
			}
		}
		delete(e.sources, id)
		if len(e.sources) == 0 {
			g.deleteEdge(e)
		}
	}
}

// Collision is one contact between a probe segment and a graph edge,
// reported at its first parametric position along the probe.
type Collision struct {
	Edge  *Edge
	Point geom.Point
	T     float64
	Kind  geom.HitKind
}

// FindCollisions returns every edge the probe segment touches, ordered by
// parametric position. Pure endpoint-to-endpoint touches are not collisions.
func (g *Graph) FindCollisions(a, b geom.Point) []Collision {
	probe := geom.Segment{A: a.Round(), B: b.Round()}
	if probe.Length() <= geom.Eps {
		return nil
	}
	var out []Collision
	for _, e := range g.candidates(probe) {
		hit := geom.Classify(probe, e.seg)
		switch hit.Kind {
		case geom.HitCrossing, geom.HitOverlap:
			out = append(out, Collision{Edge: e, Point: hit.Point, T: hit.T0, Kind: hit.Kind})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].T < out[j].T })
	return out
}

// Blocked reports whether any colliding edge blocks movement from a to b for
// the given mover. The blocking test originates at a.
func (g *Graph) Blocked(a, b geom.Point, mover obstacle.Mover) bool {
	for _, c := range g.FindCollisions(a, b) {
		if c.Edge.Blocks(a, mover) {
			return true
		}
	}
	return false
}
