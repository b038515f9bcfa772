package mesh

import (
	"errors"
	"fmt"

	"github.com/dhconnelly/rtreego"

	"navmesh-planner/geom"
	"navmesh-planner/obstacle"
)

// ErrUnlocatablePoint means a query point lies outside the triangulated
// region. The caller must supply points within the obstacle-derived bounds.
var ErrUnlocatablePoint = errors.New("mesh: point outside triangulated region")

// Destination is a candidate crossing point on a triangle side, together
// with the triangle entered by crossing there.
type Destination struct {
	Point geom.Point
	Tri   *Triangle
}

// Locate returns the triangle containing p. Boundary points count as
// contained; when a point sits exactly on a shared side the first indexed
// match wins.
func (m *Mesh) Locate(p geom.Point) (*Triangle, error) {
	rect, err := rtreego.NewRect(
		rtreego.Point{p.X - geom.Eps, p.Y - geom.Eps},
		[]float64{2 * geom.Eps, 2 * geom.Eps},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: (%f,%f)", ErrUnlocatablePoint, p.X, p.Y)
	}
	for _, item := range m.tree.SearchIntersect(rect) {
		t := item.(*Triangle)
		if t.Contains(p) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: (%f,%f)", ErrUnlocatablePoint, p.X, p.Y)
}

// ValidDestinations enumerates crossing points out of the triangle: for each
// side with a live neighbor other than the one just arrived from, and whose
// obstacle does not currently block movement from the triangle's centroid,
// it yields the side midpoint plus, when the side is long enough, a point
// one spacer in from each corner. The blocking test is evaluated live on
// every call; door and disposition state can change between queries.
func (m *Mesh) ValidDestinations(tri, prior *Triangle, mover obstacle.Mover) []Destination {
	origin := tri.Centroid()
	spacer := mover.HalfWidth

	var out []Destination
	for i := 0; i < 3; i++ {
		side := tri.Sides[i]
		if side.Neighbor == nil || side.Neighbor == prior {
			continue
		}
		if side.Edge != nil && side.Edge.Blocks(origin, mover) {
			continue
		}
		a, b := tri.SidePoints(i)
		length := a.Distance(b)
		if length <= 2*spacer {
			continue
		}
		seg := geom.Segment{A: a, B: b}
		out = append(out, Destination{Point: seg.Midpoint().Round(), Tri: side.Neighbor})
		if length > 4*spacer {
			t := spacer / length
			out = append(out,
				Destination{Point: seg.PointAt(t).Round(), Tri: side.Neighbor},
				Destination{Point: seg.PointAt(1 - t).Round(), Tri: side.Neighbor},
			)
		}
	}
	return out
}

// CheckSymmetry verifies the half-edge invariant: every side with a live
// neighbor is recorded back by that neighbor across the matching side.
// Diagnostics only.
func (m *Mesh) CheckSymmetry() []string {
	var out []string
	for _, t := range m.Triangles {
		for s := 0; s < 3; s++ {
			nb := t.Sides[s].Neighbor
			if nb == nil {
				continue
			}
			back := false
			for o := 0; o < 3; o++ {
				if nb.Sides[o].Neighbor == t {
					back = true
					break
				}
			}
			if !back {
				out = append(out, fmt.Sprintf("triangle %d side %d: neighbor %d does not link back", t.Index, s, nb.Index))
			}
		}
	}
	return out
}
