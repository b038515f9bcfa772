package route

import (
	"math"

	"navmesh-planner/geom"
)

// blockedFunc reports whether the straight segment a-b collides with a
// blocking obstacle.
type blockedFunc func(a, b geom.Point) bool

// SimplifyPath straightens a raw point chain without reintroducing
// collisions: collinear points are collapsed, then either grid snapping
// (grid mode) or skip-ahead plus divide-and-conquer straightening (gridless)
// is applied.
func SimplifyPath(points []geom.Point, cfg Config, blocked blockedFunc) []geom.Point {
	if len(points) <= 2 {
		return points
	}
	points = collapseCollinear(points)
	if cfg.Mode == ModeGrid && cfg.GridSize > 0 {
		return snapToCells(points, cfg.GridSize, blocked)
	}
	points = skipAhead(points, cfg.SkipRadius, blocked)
	return straighten(points, blocked)
}

// collapseCollinear drops every interior point that lies on the line from
// the last retained point to its successor, within tolerance. Anchoring on
// the retained point keeps successive sub-tolerance drops from accumulating
// past Eps.
func collapseCollinear(points []geom.Point) []geom.Point {
	out := []geom.Point{points[0]}
	for i := 1; i < len(points)-1; i++ {
		anchor := out[len(out)-1]
		if geom.PerpDistance(points[i], anchor, points[i+1]) <= geom.Eps {
			continue
		}
		out = append(out, points[i])
	}
	return append(out, points[len(points)-1])
}

// snapToCells moves each interior waypoint onto its grid-cell center when
// doing so creates no new collision on either adjoining sub-segment.
func snapToCells(points []geom.Point, gridSize float64, blocked blockedFunc) []geom.Point {
	out := make([]geom.Point, len(points))
	copy(out, points)
	for i := 1; i < len(out)-1; i++ {
		center := geom.Point{
			X: (math.Floor(out[i].X/gridSize) + 0.5) * gridSize,
			Y: (math.Floor(out[i].Y/gridSize) + 0.5) * gridSize,
		}.Round()
		if blocked(out[i-1], center) || blocked(center, out[i+1]) {
			continue
		}
		out[i] = center
	}
	return collapseCollinear(out)
}

// skipAhead opportunistically drops intermediate points: from each point it
// jumps to the farthest later point within radius that can be reached
// directly without collision.
func skipAhead(points []geom.Point, radius float64, blocked blockedFunc) []geom.Point {
	if radius <= 0 {
		return points
	}
	out := []geom.Point{points[0]}
	i := 0
	for i < len(points)-1 {
		next := i + 1
		for j := len(points) - 1; j > i+1; j-- {
			if points[i].Distance(points[j]) > radius {
				continue
			}
			if !blocked(points[i], points[j]) {
				next = j
				break
			}
		}
		out = append(out, points[next])
		i = next
	}
	return out
}

// straighten applies reversed divide-and-conquer simplification: if the
// direct segment between the two extremes is collision-free every interior
// point is discarded; otherwise the chain is split at the most off-line
// interior point and both halves are straightened recursively.
func straighten(points []geom.Point, blocked blockedFunc) []geom.Point {
	if len(points) <= 2 {
		return points
	}
	first, last := points[0], points[len(points)-1]
	if !blocked(first, last) {
		return []geom.Point{first, last}
	}

	dmax := 0.0
	index := 1
	for i := 1; i < len(points)-1; i++ {
		d := geom.PerpDistance(points[i], first, last)
		if d > dmax {
			dmax = d
			index = i
		}
	}

	left := straighten(points[:index+1], blocked)
	right := straighten(points[index:], blocked)

	out := make([]geom.Point, 0, len(left)+len(right)-1)
	out = append(out, left[:len(left)-1]...)
	return append(out, right...)
}
