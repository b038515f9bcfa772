package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"navmesh-planner/geom"
)

// Constraint enforcement: the external triangulator is unconstrained, so any
// required edge missing from its output is forced in afterwards by removing
// the triangles the edge crosses and retriangulating the two pseudo-polygons
// left above and below it. Triples are assumed CCW throughout.

// edgeInTriangulation reports whether vertices a and b are joined by a side
// of any triangle.
func edgeInTriangulation(tris []int, a, b int) bool {
	for i := 0; i < len(tris); i += 3 {
		for j := 0; j < 3; j++ {
			u, v := tris[i+j], tris[i+(j+1)%3]
			if (u == a && v == b) || (u == b && v == a) {
				return true
			}
		}
	}
	return false
}

// findDirectedEdge returns the triple offset and opposite vertex of the
// triangle containing the directed edge u->v.
func findDirectedEdge(tris []int, u, v int) (int, int, bool) {
	for i := 0; i < len(tris); i += 3 {
		for j := 0; j < 3; j++ {
			if tris[i+j] == u && tris[i+(j+1)%3] == v {
				return i, tris[i+(j+2)%3], true
			}
		}
	}
	return -1, -1, false
}

// enforceEdge forces the edge a-b to exist in the triangulation and returns
// the updated triangle list.
func enforceEdge(pts []geom.Point, tris []int, a, b int) ([]int, error) {
	if edgeInTriangulation(tris, a, b) {
		return tris, nil
	}
	pa, pb := pts[a], pts[b]

	// A vertex sitting on the constraint splits it in two. The segment
	// graph splits its edges at such vertices, so this path only fires on
	// rounding artifacts.
	for v := range pts {
		if v == a || v == b {
			continue
		}
		pv := pts[v]
		if geom.OnSegment(pa, pb, pv) &&
			pv.Distance(pa) > geom.Eps && pv.Distance(pb) > geom.Eps {
			out, err := enforceEdge(pts, tris, a, v)
			if err != nil {
				return nil, err
			}
			return enforceEdge(pts, out, v, b)
		}
	}

	// Find the triangle at a whose opposite side the constraint exits
	// through.
	seg := geom.Segment{A: pa, B: pb}
	var u, l int // crossed edge endpoints, upper (left) and lower (right) of a->b
	var dead []int
	found := false
	for i := 0; i < len(tris) && !found; i += 3 {
		for j := 0; j < 3; j++ {
			if tris[i+j] != a {
				continue
			}
			v1, v2 := tris[i+(j+1)%3], tris[i+(j+2)%3]
			hit := geom.Classify(seg, geom.Segment{A: pts[v1], B: pts[v2]})
			if hit.Kind != geom.HitCrossing {
				continue
			}
			// CCW triple (a, v1, v2): v1 lies right of a->b, v2 left.
			u, l = v2, v1
			dead = append(dead, i)
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("mesh: cannot trace constraint %d-%d", a, b)
	}

	upper := []int{u}
	lower := []int{l}

	// Walk the crossed triangles until the far endpoint appears. The
	// current triangle holds the directed edge l->u, so the triangle on
	// the far side of the crossed edge holds u->l.
	for {
		ti, vo, ok := findDirectedEdge(tris, u, l)
		if !ok {
			return nil, fmt.Errorf("mesh: constraint %d-%d left the triangulation", a, b)
		}
		dead = append(dead, ti)
		if vo == b {
			break
		}
		if len(dead) > len(tris) {
			return nil, fmt.Errorf("mesh: constraint %d-%d walk does not terminate", a, b)
		}
		side := geom.Cross(pa, pb, pts[vo])
		switch {
		case side > geom.Eps:
			upper = append(upper, vo)
			u = vo
		case side < -geom.Eps:
			lower = append(lower, vo)
			l = vo
		default:
			// The walk ran into a vertex on the constraint line.
			out, err := enforceEdge(pts, tris, a, vo)
			if err != nil {
				return nil, err
			}
			return enforceEdge(pts, out, vo, b)
		}
	}

	// Drop the crossed triangles and retriangulate both cavities.
	isDead := make(map[int]bool, len(dead))
	for _, d := range dead {
		isDead[d] = true
	}
	out := make([]int, 0, len(tris))
	for i := 0; i < len(tris); i += 3 {
		if !isDead[i] {
			out = append(out, tris[i], tris[i+1], tris[i+2])
		}
	}
	// The upper chain lies left of a->b; the lower chain, left of b->a,
	// and must be reversed to run along its base.
	for i, j := 0, len(lower)-1; i < j; i, j = i+1, j-1 {
		lower[i], lower[j] = lower[j], lower[i]
	}
	out = triangulatePseudo(pts, a, b, upper, out)
	out = triangulatePseudo(pts, b, a, lower, out)
	return out, nil
}

// triangulatePseudo retriangulates the pseudo-polygon formed by the directed
// base edge a->b and the chain of cavity vertices on its left, appending CCW
// triples to out. Vertex selection follows the constrained-Delaunay rule:
// the chain vertex whose circumcircle with the base contains no other chain
// vertex.
func triangulatePseudo(pts []geom.Point, a, b int, chain []int, out []int) []int {
	if len(chain) == 0 {
		return out
	}
	ci := 0
	for i := 1; i < len(chain); i++ {
		if inCircle(pts[a], pts[b], pts[chain[ci]], pts[chain[i]]) {
			ci = i
		}
	}
	c := chain[ci]
	out = triangulatePseudo(pts, a, c, chain[:ci], out)
	out = triangulatePseudo(pts, c, b, chain[ci+1:], out)
	return append(out, a, b, c)
}

// inCircle reports whether d lies strictly inside the circumcircle of the
// triangle abc. The determinant is evaluated the way the classic incircle
// predicate writes it; a guard keeps near-cocircular points from
// oscillating. The determinant is quartic in the coordinate deltas, not a
// distance, so the guard is a raw numerical threshold rather than geom.Eps.
func inCircle(a, b, c, d geom.Point) bool {
	m := mgl64.Mat4{
		a.X - d.X, a.Y - d.Y, sq(a.X-d.X) + sq(a.Y-d.Y), 1,
		b.X - d.X, b.Y - d.Y, sq(b.X-d.X) + sq(b.Y-d.Y), 1,
		c.X - d.X, c.Y - d.Y, sq(c.X-d.X) + sq(c.Y-d.Y), 1,
		0, 0, 0, 1,
	}
	det := m.Det()
	if geom.Cross(a, b, c) < 0 {
		det = -det
	}
	return det > 1e-9
}

func sq(x float64) float64 { return x * x }
