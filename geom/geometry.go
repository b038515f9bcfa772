package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Precision is the number of decimal places coordinates are rounded to when
// points are canonicalized into vertices. Eps is derived from it and is the
// single tolerance used by every geometric predicate in this module, so that
// collision detection and vertex canonicalization can never disagree about
// whether two points coincide.
const Precision = 6

var (
	quantum = math.Pow(10, -Precision)
	// Eps is the unified geometric tolerance.
	Eps = quantum
)

// Point is a 2D point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Round canonicalizes the point to Precision decimal places.
func (p Point) Round() Point {
	return Point{
		X: roundCoord(p.X),
		Y: roundCoord(p.Y),
	}
}

// roundCoord rounds one coordinate to Precision decimals. Values just below
// zero round to IEEE negative zero, which formats as "-0.000000" and would
// give the same location two distinct keys, so it is mapped back to plain
// zero.
func roundCoord(v float64) float64 {
	r := math.Round(v/quantum) * quantum
	if r == 0 {
		return 0
	}
	return r
}

// Key returns a stable map key for the rounded point.
func (p Point) Key() string {
	r := p.Round()
	return fmt.Sprintf("%.*f,%.*f", Precision, r.X, Precision, r.Y)
}

// Eq reports whether two points coincide within Eps.
func (p Point) Eq(other Point) bool {
	return math.Abs(p.X-other.X) <= Eps && math.Abs(p.Y-other.Y) <= Eps
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquared avoids the square root for comparisons.
func (p Point) DistanceSquared(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// Lerp returns the point at parameter t on the segment p->other.
func (p Point) Lerp(other Point, t float64) Point {
	return Point{
		X: p.X + (other.X-p.X)*t,
		Y: p.Y + (other.Y-p.Y)*t,
	}
}

// Orb converts to an orb.Point.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// FromOrb converts an orb.Point.
func FromOrb(p orb.Point) Point {
	return Point{X: p.X(), Y: p.Y()}
}

// Cross calculates the cross product (b-o) x (c-o) to determine orientation:
// positive means c lies to the left of o->b, negative to the right.
func Cross(o, b, c Point) float64 {
	return (b.X-o.X)*(c.Y-o.Y) - (c.X-o.X)*(b.Y-o.Y)
}

// PerpDistance calculates perpendicular distance from point to the line
// through lineStart and lineEnd.
func PerpDistance(point, lineStart, lineEnd Point) float64 {
	dx := lineEnd.X - lineStart.X
	dy := lineEnd.Y - lineStart.Y

	mag := math.Sqrt(dx*dx + dy*dy)
	if mag > 0 {
		dx /= mag
		dy /= mag
	}

	pvx := point.X - lineStart.X
	pvy := point.Y - lineStart.Y

	pvdot := dx*pvx + dy*pvy

	ax := pvx - pvdot*dx
	ay := pvy - pvdot*dy

	return math.Sqrt(ax*ax + ay*ay)
}

// Collinear reports whether point q lies on the line through a and b, within
// the unified tolerance.
func Collinear(a, b, q Point) bool {
	return PerpDistance(q, a, b) <= Eps
}

// OnSegment reports whether q lies on the segment a-b, endpoints included.
func OnSegment(a, b, q Point) bool {
	if !Collinear(a, b, q) {
		return false
	}
	return q.X <= math.Max(a.X, b.X)+Eps && q.X >= math.Min(a.X, b.X)-Eps &&
		q.Y <= math.Max(a.Y, b.Y)+Eps && q.Y >= math.Min(a.Y, b.Y)-Eps
}
