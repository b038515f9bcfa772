// Package graph maintains the canonical planar segment graph: the minimal
// set of non-overlapping edge fragments derived from raw obstacle segments.
// Obstacle insertion splits and merges edges so that no two edges ever
// partially overlap; removal strips an object from every edge it touches and
// rebuilds the surviving objects that had been fused with it.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"navmesh-planner/geom"
	"navmesh-planner/obstacle"
)

// ErrDegenerateSegment is returned when an input segment collapses to a
// single vertex after rounding.
var ErrDegenerateSegment = errors.New("graph: degenerate zero-length segment")

// Vertex is a canonicalized 2D point owned by the graph. Identity is the
// rounded coordinate pair; refs counts incident edges.
type Vertex struct {
	Point geom.Point
	key   string
	refs  int
}

// Edge is an undirected segment between two vertices, tagged with every
// source object whose geometry it currently represents.
type Edge struct {
	a, b    *Vertex
	seg     geom.Segment
	sources map[string]obstacle.Source
	rect    rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *Edge) Bounds() rtreego.Rect { return e.rect }

// Segment returns the edge geometry.
func (e *Edge) Segment() geom.Segment { return e.seg }

// A returns the first endpoint (canonical order).
func (e *Edge) A() geom.Point { return e.a.Point }

// B returns the second endpoint (canonical order).
func (e *Edge) B() geom.Point { return e.b.Point }

// Sources returns the source objects carried by this edge.
func (e *Edge) Sources() []obstacle.Source {
	out := make([]obstacle.Source, 0, len(e.sources))
	for _, s := range e.sources {
		out = append(out, s)
	}
	return out
}

// HasSource reports whether the edge carries the given object.
func (e *Edge) HasSource(id string) bool {
	_, ok := e.sources[id]
	return ok
}

// Blocks reports whether any source object on this edge currently blocks
// movement originating at origin. Evaluated live on every call.
func (e *Edge) Blocks(origin geom.Point, mover obstacle.Mover) bool {
	for _, s := range e.sources {
		if s.Blocks(origin, mover) {
			return true
		}
	}
	return false
}

func (e *Edge) key() string {
	return e.a.key + "|" + e.b.key
}

// objectRecord retains an object's raw input segments so the object can be
// dropped and re-added when a sibling overlapping object is removed.
type objectRecord struct {
	src  obstacle.Source
	segs []geom.Segment
}

// Graph is the segment graph. Not safe for concurrent use; the engine
// serializes access.
type Graph struct {
	verts      map[string]*Vertex
	edges      map[string]*Edge
	tree       *rtreego.Rtree
	objects    map[string]*objectRecord
	generation uint64
	log        *zap.Logger
}

// New returns an empty graph. A nil logger is replaced with a no-op logger.
func New(logger *zap.Logger) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Graph{log: logger}
	g.Reset()
	return g
}

// Reset discards all vertices, edges and object records.
func (g *Graph) Reset() {
	g.verts = make(map[string]*Vertex)
	g.edges = make(map[string]*Edge)
	g.tree = rtreego.NewTree(2, 25, 50)
	g.objects = make(map[string]*objectRecord)
	g.generation++
}

// Generation increases on every mutation. The engine compares it against the
// generation the mesh was built at to decide staleness.
func (g *Graph) Generation() uint64 { return g.generation }

// VertexCount returns the number of live vertices.
func (g *Graph) VertexCount() int { return len(g.verts) }

// EdgeCount returns the number of live edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Sources returns every registered source object.
func (g *Graph) Sources() []obstacle.Source {
	out := make([]obstacle.Source, 0, len(g.objects))
	for _, rec := range g.objects {
		out = append(out, rec.src)
	}
	return out
}

// HasObject reports whether an object with the given id is registered.
func (g *Graph) HasObject(id string) bool {
	_, ok := g.objects[id]
	return ok
}

// vertex returns the canonical vertex for p, creating it on first use.
func (g *Graph) vertex(p geom.Point) *Vertex {
	p = p.Round()
	key := p.Key()
	if v, ok := g.verts[key]; ok {
		return v
	}
	v := &Vertex{Point: p, key: key}
	g.verts[key] = v
	return v
}

func (g *Graph) releaseVertex(v *Vertex) {
	v.refs--
	if v.refs <= 0 {
		delete(g.verts, v.key)
	}
}

// newEdge creates and indexes an edge between two canonical points, copying
// the given source set. Endpoints are ordered by key so lookups are stable.
func (g *Graph) newEdge(a, b geom.Point, sources map[string]obstacle.Source) *Edge {
	va := g.vertex(a)
	vb := g.vertex(b)
	if vb.key < va.key {
		va, vb = vb, va
	}
	e := &Edge{
		a: va, b: vb,
		seg:     geom.Segment{A: va.Point, B: vb.Point},
		sources: make(map[string]obstacle.Source, len(sources)),
	}
	for id, s := range sources {
		e.sources[id] = s
	}
	e.rect = rectFor(e.seg.Bound())
	va.refs++
	vb.refs++
	g.edges[e.key()] = e
	g.tree.Insert(e)
	return e
}

func (g *Graph) deleteEdge(e *Edge) {
	delete(g.edges, e.key())
	g.tree.Delete(e)
	g.releaseVertex(e.a)
	g.releaseVertex(e.b)
}

// lookupEdge returns the edge between two canonical points, if one exists.
func (g *Graph) lookupEdge(a, b geom.Point) *Edge {
	ka, kb := a.Round().Key(), b.Round().Key()
	if kb < ka {
		ka, kb = kb, ka
	}
	return g.edges[ka+"|"+kb]
}

// Edge returns the graph edge covering the two points, or nil. Used by the
// mesh builder to associate triangle sides with obstacle geometry.
func (g *Graph) Edge(a, b geom.Point) *Edge {
	return g.lookupEdge(a, b)
}

// candidates returns edges whose bounding box overlaps the probe segment.
// The query box is padded so touching boxes always match.
func (g *Graph) candidates(s geom.Segment) []*Edge {
	b := s.Bound()
	b.Min = orb.Point{b.Min.X() - 10*geom.Eps, b.Min.Y() - 10*geom.Eps}
	b.Max = orb.Point{b.Max.X() + 10*geom.Eps, b.Max.Y() + 10*geom.Eps}
	results := g.tree.SearchIntersect(rectFor(b))
	out := make([]*Edge, 0, len(results))
	for _, item := range results {
		out = append(out, item.(*Edge))
	}
	return out
}

// Export returns the vertex set in stable order plus the required edge set
// as index pairs, ready for the external triangulator.
func (g *Graph) Export() ([]geom.Point, [][2]int) {
	keys := make([]string, 0, len(g.verts))
	for k := range g.verts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idx := make(map[string]int, len(keys))
	pts := make([]geom.Point, len(keys))
	for i, k := range keys {
		idx[k] = i
		pts[i] = g.verts[k].Point
	}

	edges := make([][2]int, 0, len(g.edges))
	for _, e := range g.edges {
		i, j := idx[e.a.key], idx[e.b.key]
		if j < i {
			i, j = j, i
		}
		edges = append(edges, [2]int{i, j})
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a][0] != edges[b][0] {
			return edges[a][0] < edges[b][0]
		}
		return edges[a][1] < edges[b][1]
	})
	return pts, edges
}

// rectFor converts an orb bound into an rtreego rect, padding degenerate
// extents so the R-tree accepts them.
func rectFor(b orb.Bound) rtreego.Rect {
	w := b.Max.X() - b.Min.X()
	h := b.Max.Y() - b.Min.Y()
	if w < geom.Eps {
		w = geom.Eps
	}
	if h < geom.Eps {
		h = geom.Eps
	}
	rect, err := rtreego.NewRect(rtreego.Point{b.Min.X(), b.Min.Y()}, []float64{w, h})
	if err != nil {
		// Only reachable with NaN coordinates, which the rounding layer
		// never produces.
		panic(fmt.Sprintf("graph: invalid rect: %v", err))
	}
	return rect
}
