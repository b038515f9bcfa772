package route

import (
	"testing"

	"navmesh-planner/geom"
)

func never(a, b geom.Point) bool { return false }

// crossing returns a blocked func that forbids any segment properly hitting
// the given barrier.
func crossing(barrier geom.Segment) blockedFunc {
	return func(a, b geom.Point) bool {
		hit := geom.Classify(geom.Segment{A: a, B: b}, barrier)
		return hit.Kind == geom.HitCrossing || hit.Kind == geom.HitOverlap
	}
}

func TestSimplifyCollapsesCollinear(t *testing.T) {
	points := []geom.Point{pt(0, 0), pt(2, 0), pt(5, 0), pt(9, 0), pt(10, 0)}
	out := SimplifyPath(points, DefaultConfig(), never)
	if len(out) != 2 {
		t.Fatalf("waypoints = %d, want 2", len(out))
	}
	if !out[0].Eq(pt(0, 0)) || !out[1].Eq(pt(10, 0)) {
		t.Errorf("endpoints changed: %+v", out)
	}
}

func TestCollapseDriftDoesNotAccumulate(t *testing.T) {
	// Each interior point is within Eps of the line through its original
	// neighbors, but the peak sits 1.8*Eps off the anchored chain and must
	// survive the collapse.
	peak := pt(2, 1.8*geom.Eps)
	points := []geom.Point{
		pt(0, 0),
		pt(1, 0.9*geom.Eps),
		peak,
		pt(3, 0.9*geom.Eps),
		pt(4, 0),
	}
	out := collapseCollinear(points)
	if len(out) != 3 {
		t.Fatalf("waypoints = %d, want 3", len(out))
	}
	if out[1] != peak {
		t.Errorf("retained waypoint = %+v, want the off-line peak %+v", out[1], peak)
	}
}

func TestSimplifyShortChainsPassThrough(t *testing.T) {
	points := []geom.Point{pt(0, 0), pt(10, 10)}
	out := SimplifyPath(points, DefaultConfig(), never)
	if len(out) != 2 {
		t.Errorf("two-point chain should pass through, got %d points", len(out))
	}
}

func TestStraightenRemovesDetourWhenClear(t *testing.T) {
	points := []geom.Point{pt(0, 0), pt(3, 4), pt(6, 1), pt(10, 0)}
	out := SimplifyPath(points, DefaultConfig(), never)
	if len(out) != 2 {
		t.Errorf("clear detour should collapse to endpoints, got %d points", len(out))
	}
}

func TestStraightenKeepsNecessaryDetour(t *testing.T) {
	barrier := geom.Segment{A: pt(5, -1), B: pt(5, 8)}
	points := []geom.Point{pt(0, 0), pt(5, 9), pt(10, 0)}

	out := SimplifyPath(points, DefaultConfig(), crossing(barrier))
	if len(out) != 3 {
		t.Fatalf("waypoints = %d, want the detour kept at 3", len(out))
	}
	for i := 0; i+1 < len(out); i++ {
		if crossing(barrier)(out[i], out[i+1]) {
			t.Errorf("simplified leg %d collides with the barrier", i)
		}
	}
}

func TestSkipAheadRadius(t *testing.T) {
	points := []geom.Point{pt(0, 0), pt(1, 1), pt(2, 0), pt(3, 1), pt(4, 0)}

	out := skipAhead(points, 2.5, never)
	if len(out) != 3 {
		t.Errorf("radius-limited skip: %d points, want 3", len(out))
	}

	out = skipAhead(points, 100, never)
	if len(out) != 2 {
		t.Errorf("unbounded skip: %d points, want 2", len(out))
	}

	out = skipAhead(points, 0, never)
	if len(out) != len(points) {
		t.Errorf("zero radius must disable skipping, got %d points", len(out))
	}
}

func TestSkipAheadRespectsCollisions(t *testing.T) {
	barrier := geom.Segment{A: pt(2, -1), B: pt(2, 0.5)}
	points := []geom.Point{pt(0, 0), pt(2, 1), pt(4, 0)}

	out := skipAhead(points, 100, crossing(barrier))
	if len(out) != 3 {
		t.Errorf("blocked skip should keep the chain, got %d points", len(out))
	}
}

func TestSnapToCells(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeGrid
	cfg.GridSize = 10

	points := []geom.Point{pt(0, 5), pt(12, 13), pt(30, 5)}
	out := SimplifyPath(points, cfg, never)
	if len(out) != 3 {
		t.Fatalf("waypoints = %d, want 3", len(out))
	}
	if !out[1].Eq(pt(15, 15)) {
		t.Errorf("interior waypoint = %+v, want the cell center (15,15)", out[1])
	}
}

func TestSnapToCellsSkipsBlockedSnaps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeGrid
	cfg.GridSize = 10

	// Snapping (12,13) to (15,15) would cross the barrier; the original
	// waypoint must survive.
	barrier := geom.Segment{A: pt(13, 10), B: pt(13, 20)}
	points := []geom.Point{pt(0, 5), pt(12, 13), pt(30, 5)}
	out := SimplifyPath(points, cfg, crossing(barrier))
	if !out[1].Eq(pt(12, 13)) {
		t.Errorf("interior waypoint = %+v, want the unsnapped original", out[1])
	}
}
