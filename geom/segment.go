package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Segment is a directed line segment between two points. The direction only
// matters for parametric positions; geometric predicates treat it as
// undirected.
type Segment struct {
	A, B Point
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// Midpoint returns the segment midpoint.
func (s Segment) Midpoint() Point {
	return s.A.Lerp(s.B, 0.5)
}

// PointAt returns the point at parameter t in [0,1].
func (s Segment) PointAt(t float64) Point {
	return s.A.Lerp(s.B, t)
}

// Bound returns the axis-aligned bounding box of the segment.
func (s Segment) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{math.Min(s.A.X, s.B.X), math.Min(s.A.Y, s.B.Y)},
		Max: orb.Point{math.Max(s.A.X, s.B.X), math.Max(s.A.Y, s.B.Y)},
	}
}

// Param returns the unclamped parameter of the projection of p onto the
// segment's carrier line.
func (s Segment) Param(p Point) float64 {
	dx := s.B.X - s.A.X
	dy := s.B.Y - s.A.Y
	den := dx*dx + dy*dy
	if den == 0 {
		return 0
	}
	return ((p.X-s.A.X)*dx + (p.Y-s.A.Y)*dy) / den
}

// HitKind classifies how two segments interact.
type HitKind int

const (
	// HitNone means the segments do not touch.
	HitNone HitKind = iota
	// HitEndpoint means the segments share a vertex and nothing else.
	HitEndpoint
	// HitCrossing means the segments meet at a single point that is
	// interior to at least one of them.
	HitCrossing
	// HitOverlap means the segments are collinear and share a stretch of
	// positive length.
	HitOverlap
)

// Hit describes an interaction between a probe segment and another segment.
// For HitCrossing, Point is the intersection and T0/U0 its parameters on the
// probe and the other segment. For HitOverlap, [T0,T1] is the shared stretch
// on the probe and [U0,U1] the matching stretch on the other segment.
type Hit struct {
	Kind   HitKind
	Point  Point
	T0, T1 float64
	U0, U1 float64
}

// Classify determines the interaction between probe and other. Both segments
// must have positive length.
func Classify(probe, other Segment) Hit {
	d1x := probe.B.X - probe.A.X
	d1y := probe.B.Y - probe.A.Y
	d2x := other.B.X - other.A.X
	d2y := other.B.Y - other.A.Y

	denom := d1x*d2y - d1y*d2x

	// Parallel segments: either collinear (possible overlap) or disjoint.
	if math.Abs(denom) <= Eps*probe.Length()*other.Length() {
		if !Collinear(probe.A, probe.B, other.A) {
			return Hit{Kind: HitNone}
		}
		return classifyOverlap(probe, other)
	}

	t := ((other.A.X-probe.A.X)*d2y - (other.A.Y-probe.A.Y)*d2x) / denom
	u := ((other.A.X-probe.A.X)*d1y - (other.A.Y-probe.A.Y)*d1x) / denom

	// Parameter tolerance scaled so that Eps remains a distance.
	tEps := Eps / probe.Length()
	uEps := Eps / other.Length()

	if t < -tEps || t > 1+tEps || u < -uEps || u > 1+uEps {
		return Hit{Kind: HitNone}
	}

	t = clamp01(t)
	u = clamp01(u)
	p := probe.PointAt(t).Round()

	probeEnd := t <= tEps || t >= 1-tEps
	otherEnd := u <= uEps || u >= 1-uEps
	if probeEnd && otherEnd {
		return Hit{Kind: HitEndpoint, Point: p, T0: t, T1: t, U0: u, U1: u}
	}
	return Hit{Kind: HitCrossing, Point: p, T0: t, T1: t, U0: u, U1: u}
}

// classifyOverlap handles the collinear case: project the other segment onto
// the probe and intersect the parameter intervals.
func classifyOverlap(probe, other Segment) Hit {
	ta := probe.Param(other.A)
	tb := probe.Param(other.B)
	ua, ub := 0.0, 1.0
	if ta > tb {
		ta, tb = tb, ta
		ua, ub = ub, ua
	}

	tEps := Eps / probe.Length()
	lo := math.Max(ta, 0)
	hi := math.Min(tb, 1)
	if hi < lo-tEps {
		return Hit{Kind: HitNone}
	}
	if hi-lo <= tEps {
		// Touching at a single collinear point, necessarily an endpoint
		// of both segments.
		p := probe.PointAt(clamp01(lo)).Round()
		return Hit{Kind: HitEndpoint, Point: p, T0: lo, T1: lo}
	}

	// Map the clipped probe interval back to parameters on other.
	span := tb - ta
	u0 := ua + (ub-ua)*((lo-ta)/span)
	u1 := ua + (ub-ua)*((hi-ta)/span)
	return Hit{
		Kind:  HitOverlap,
		Point: probe.PointAt(clamp01(lo)).Round(),
		T0:    clamp01(lo), T1: clamp01(hi),
		U0: clampUnit(u0), U1: clampUnit(u1),
	}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func clampUnit(u float64) float64 {
	// The overlap mapping can run in either direction along other.
	return clamp01(u)
}
