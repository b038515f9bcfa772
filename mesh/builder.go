package mesh

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/fogleman/delaunay"
	"go.uber.org/zap"

	"navmesh-planner/geom"
	"navmesh-planner/graph"
)

// ErrMeshBuild wraps every failure of a mesh rebuild. The query caller
// surfaces it as "no path available", never as a silent wrong answer.
var ErrMeshBuild = errors.New("mesh: build failed")

// Mesh is the triangulated free-space representation. Rebuilt wholesale
// whenever the segment graph changes; never patched incrementally.
type Mesh struct {
	Points    []geom.Point
	Triangles []*Triangle

	tree       *rtreego.Rtree
	generation uint64
	log        *zap.Logger
}

// Generation returns the segment-graph generation this mesh was built at.
func (m *Mesh) Generation() uint64 { return m.generation }

// Build derives a triangle mesh from the segment graph: the vertex and
// required-edge sets go to the external triangulator, missing constraints
// are forced in, triangles are wired to their neighbors and associated with
// the graph edges covering their sides.
func Build(g *graph.Graph, logger *zap.Logger) (*Mesh, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pts, required := g.Export()
	if len(pts) < 3 {
		return nil, fmt.Errorf("%w: %d vertices is not enough to triangulate", ErrMeshBuild, len(pts))
	}

	dpts := make([]delaunay.Point, len(pts))
	for i, p := range pts {
		dpts[i] = delaunay.Point{X: p.X, Y: p.Y}
	}
	dt, err := delaunay.Triangulate(dpts)
	if err != nil {
		return nil, fmt.Errorf("%w: triangulator: %v", ErrMeshBuild, err)
	}

	tris := append([]int(nil), dt.Triangles...)

	// Normalize triple winding to CCW. A flip invalidates the
	// triangulator's half-edge array, as does constraint enforcement.
	flipped := false
	for i := 0; i < len(tris); i += 3 {
		if geom.Cross(pts[tris[i]], pts[tris[i+1]], pts[tris[i+2]]) < 0 {
			tris[i+1], tris[i+2] = tris[i+2], tris[i+1]
			flipped = true
		}
	}

	constrained := 0
	for _, re := range required {
		if edgeInTriangulation(tris, re[0], re[1]) {
			continue
		}
		tris, err = enforceEdge(pts, tris, re[0], re[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMeshBuild, err)
		}
		constrained++
	}

	m := &Mesh{
		Points:     pts,
		generation: g.Generation(),
		tree:       rtreego.NewTree(2, 25, 50),
		log:        logger,
	}
	for i := 0; i < len(tris); i += 3 {
		t, err := newTriangle(pts, i/3, tris[i], tris[i+1], tris[i+2])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMeshBuild, err)
		}
		m.Triangles = append(m.Triangles, t)
		m.tree.Insert(t)
	}

	if flipped || constrained > 0 || len(dt.Halfedges) != len(tris) {
		if err := m.linkBySharedSides(); err != nil {
			return nil, err
		}
	} else {
		m.linkByHalfedges(dt.Halfedges)
	}
	m.associateEdges(g)

	logger.Info("mesh rebuilt",
		zap.Int("vertices", len(pts)),
		zap.Int("triangles", len(m.Triangles)),
		zap.Int("constrainedEdges", constrained),
	)
	return m, nil
}

// linkByHalfedges wires neighbor links straight from the triangulator's
// half-edge adjacency: half-edge e belongs to triangle e/3, side e%3, and
// Halfedges[e] is its twin or -1.
func (m *Mesh) linkByHalfedges(halfedges []int) {
	for e, twin := range halfedges {
		if twin < 0 {
			continue
		}
		m.Triangles[e/3].Sides[e%3].Neighbor = m.Triangles[twin/3]
	}
}

// linkBySharedSides derives adjacency by mapping each side's vertex pair to
// the (at most two) triangles sharing it.
func (m *Mesh) linkBySharedSides() error {
	type sideRef struct {
		tri  *Triangle
		side int
	}
	shared := make(map[[2]int][]sideRef)
	for _, t := range m.Triangles {
		for s := 0; s < 3; s++ {
			a, b := t.V[s], t.V[(s+1)%3]
			if b < a {
				a, b = b, a
			}
			shared[[2]int{a, b}] = append(shared[[2]int{a, b}], sideRef{t, s})
		}
	}
	keys := make([][2]int, 0, len(shared))
	for k := range shared {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, k := range keys {
		refs := shared[k]
		switch len(refs) {
		case 1:
			// Hull side, no neighbor.
		case 2:
			refs[0].tri.Sides[refs[0].side].Neighbor = refs[1].tri
			refs[1].tri.Sides[refs[1].side].Neighbor = refs[0].tri
		default:
			return fmt.Errorf("%w: side %v shared by %d triangles", ErrMeshBuild, k, len(refs))
		}
	}
	return nil
}

// associateEdges attaches to each triangle side the segment-graph edge
// covering the same two vertices, if one exists. A side without an edge lies
// entirely inside free space and never blocks.
func (m *Mesh) associateEdges(g *graph.Graph) {
	for _, t := range m.Triangles {
		for s := 0; s < 3; s++ {
			a, b := t.SidePoints(s)
			t.Sides[s].Edge = g.Edge(a, b)
		}
	}
}
