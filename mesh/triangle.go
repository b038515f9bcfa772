package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"

	"navmesh-planner/geom"
	"navmesh-planner/graph"
)

// ErrDegenerateTriangle means the triangulator produced three collinear
// points. This is fatal for the rebuild; callers fall back to "no path".
var ErrDegenerateTriangle = errors.New("mesh: degenerate triangle")

// baryEps is the containment slack on normalized barycentric coordinates,
// making the point-in-triangle test inclusive of boundary points. The
// coordinates are dimensionless, so this is not the distance tolerance
// geom.Eps.
const baryEps = 1e-9

// Side is one border of a triangle: the graph edge covering it (nil when the
// side lies in free space and never blocks) and the triangle on the other
// side, if any.
type Side struct {
	Edge     *graph.Edge
	Neighbor *Triangle
}

// Triangle is one mesh cell. Vertices are kept counter-clockwise. Immutable
// after construction except for the neighbor links, which are wired during
// mesh build only.
type Triangle struct {
	Index int
	V     [3]int
	P     [3]geom.Point
	Sides [3]Side

	rect     rtreego.Rect
	centroid geom.Point
}

// newTriangle builds a CCW triangle from three vertex indices, failing fast
// on collinear input.
func newTriangle(pts []geom.Point, index, a, b, c int) (*Triangle, error) {
	pa, pb, pc := pts[a], pts[b], pts[c]
	area2 := geom.Cross(pa, pb, pc)
	if math.Abs(area2) <= geom.Eps {
		return nil, fmt.Errorf("%w: vertices %d,%d,%d are collinear", ErrDegenerateTriangle, a, b, c)
	}
	if area2 < 0 {
		b, c = c, b
		pb, pc = pc, pb
	}

	t := &Triangle{
		Index: index,
		V:     [3]int{a, b, c},
		P:     [3]geom.Point{pa, pb, pc},
		centroid: geom.Point{
			X: (pa.X + pb.X + pc.X) / 3,
			Y: (pa.Y + pb.Y + pc.Y) / 3,
		},
	}

	minX := math.Min(pa.X, math.Min(pb.X, pc.X))
	minY := math.Min(pa.Y, math.Min(pb.Y, pc.Y))
	maxX := math.Max(pa.X, math.Max(pb.X, pc.X))
	maxY := math.Max(pa.Y, math.Max(pb.Y, pc.Y))
	rect, err := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{math.Max(maxX-minX, geom.Eps), math.Max(maxY-minY, geom.Eps)},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateTriangle, err)
	}
	t.rect = rect
	return t, nil
}

// Bounds implements rtreego.Spatial.
func (t *Triangle) Bounds() rtreego.Rect { return t.rect }

// Centroid returns the triangle centroid, used as the origin for live
// blocking tests.
func (t *Triangle) Centroid() geom.Point { return t.centroid }

// SidePoints returns the endpoints of side i, in CCW order.
func (t *Triangle) SidePoints(i int) (geom.Point, geom.Point) {
	return t.P[i], t.P[(i+1)%3]
}

// Contains reports whether p lies inside the triangle, boundary included.
func (t *Triangle) Contains(p geom.Point) bool {
	u, v := barycentric(p, t.P[0], t.P[1], t.P[2])
	return u >= -baryEps && v >= -baryEps && u+v <= 1+baryEps
}

// barycentric returns the two barycentric components of the triangle abc for
// p relative to b and c.
func barycentric(p, a, b, c geom.Point) (float64, float64) {
	v0x, v0y := c.X-a.X, c.Y-a.Y
	v1x, v1y := b.X-a.X, b.Y-a.Y
	v2x, v2y := p.X-a.X, p.Y-a.Y

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	den := dot00*dot11 - dot01*dot01
	if den == 0 {
		return -1, -1
	}
	norm := 1 / den
	u := (dot11*dot02 - dot01*dot12) * norm
	v := (dot00*dot12 - dot01*dot02) * norm
	return u, v
}
