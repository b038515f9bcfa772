package route

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"navmesh-planner/geom"
	"navmesh-planner/mesh"
	"navmesh-planner/obstacle"
)

func pt(x, y float64) geom.Point { return geom.Point{X: x, Y: y} }

// boundedScene returns an engine holding an empty 200x200 scene.
func boundedScene(t *testing.T) *Engine {
	t.Helper()
	e := New(DefaultConfig(), nil)
	if err := e.AddBoundary("border", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{200, 200}}); err != nil {
		t.Fatalf("AddBoundary: %v", err)
	}
	return e
}

func pathLength(points []geom.Point) float64 {
	total := 0.0
	for i := 0; i+1 < len(points); i++ {
		total += points[i].Distance(points[i+1])
	}
	return total
}

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		in   string
		want Strategy
		err  bool
	}{
		{"breadth", Breadth, false},
		{"uniform", Uniform, false},
		{"greedy", Greedy, false},
		{"astar", AStar, false},
		{"", AStar, false},
		{"dijkstra", AStar, true},
	}
	for _, tc := range cases {
		got, err := ParseStrategy(tc.in)
		if (err != nil) != tc.err {
			t.Errorf("ParseStrategy(%q) err = %v", tc.in, err)
		}
		if err == nil && got != tc.want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestAllStrategiesOpenScene(t *testing.T) {
	e := boundedScene(t)
	mover := obstacle.Mover{}

	for _, strategy := range []Strategy{Breadth, Uniform, Greedy, AStar} {
		path, err := e.FindPath(mover, pt(20, 20), pt(180, 20), strategy)
		if err != nil {
			t.Fatalf("%s: FindPath: %v", strategy, err)
		}
		if !path.Found {
			t.Fatalf("%s: path not found in an open scene", strategy)
		}
		// The direct segment is collision-free, so the post-processor
		// reduces every strategy's chain to its endpoints.
		if len(path.Points) != 2 {
			t.Errorf("%s: %d waypoints, want 2", strategy, len(path.Points))
		}
		if d := pathLength(path.Points); d < 159.9 || d > 160.1 {
			t.Errorf("%s: length = %f, want 160", strategy, d)
		}
	}
}

func TestBreadthAccumulatesNoCost(t *testing.T) {
	e := boundedScene(t)
	res, err := e.RunPath(obstacle.Mover{}, pt(20, 20), pt(180, 180), Breadth)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found {
		t.Fatal("breadth search did not reach the goal")
	}
	if res.Cost != 0 {
		t.Errorf("breadth search cost = %f, want 0", res.Cost)
	}
}

func TestStartEqualsEnd(t *testing.T) {
	e := boundedScene(t)
	path, err := e.FindPath(obstacle.Mover{}, pt(50, 50), pt(50, 50), AStar)
	if err != nil {
		t.Fatal(err)
	}
	if !path.Found || path.Cost != 0 {
		t.Errorf("degenerate query: found=%v cost=%f, want found with zero cost", path.Found, path.Cost)
	}
}

func TestWallFusedWithBorder(t *testing.T) {
	e := boundedScene(t)
	w := obstacle.NewWall("w1", pt(20, 0), pt(180, 0))
	if err := e.AddWall(w); err != nil {
		t.Fatal(err)
	}

	// The wall lies on the bottom border: the overlapping stretch must be
	// a single shared edge carrying both objects.
	shared := e.Graph().Edge(pt(20, 0), pt(180, 0))
	if shared == nil {
		t.Fatal("fused border/wall edge missing")
	}
	if !shared.HasSource("border") || !shared.HasSource("w1") {
		t.Error("fused edge should carry both the border and the wall")
	}

	path, err := e.FindPath(obstacle.Mover{}, pt(10, 10), pt(190, 10), AStar)
	if err != nil {
		t.Fatal(err)
	}
	if !path.Found {
		t.Fatal("path not found")
	}
	if len(path.Points) != 2 {
		t.Errorf("waypoints = %d, want 2", len(path.Points))
	}
	if d := pathLength(path.Points); d < 179.9 || d > 180.1 {
		t.Errorf("length = %f, want 180", d)
	}
}

func TestCornerAnchoredWallOverlap(t *testing.T) {
	e := boundedScene(t)
	// The wall starts exactly at the border's corner vertex: the overlap
	// has no fragment on that side, only the shared stretch and the
	// border remainder.
	if err := e.AddWall(obstacle.NewWall("w1", pt(0, 0), pt(100, 0))); err != nil {
		t.Fatal(err)
	}

	shared := e.Graph().Edge(pt(0, 0), pt(100, 0))
	if shared == nil {
		t.Fatal("fused corner-anchored edge missing")
	}
	if !shared.HasSource("border") || !shared.HasSource("w1") {
		t.Error("fused edge should carry both the border and the wall")
	}
	rest := e.Graph().Edge(pt(100, 0), pt(200, 0))
	if rest == nil {
		t.Fatal("border remainder missing")
	}
	if rest.HasSource("w1") {
		t.Error("border remainder should carry only the border")
	}

	path, err := e.FindPath(obstacle.Mover{}, pt(10, 50), pt(190, 50), AStar)
	if err != nil {
		t.Fatal(err)
	}
	if !path.Found {
		t.Fatal("path not found")
	}
	if len(path.Points) != 2 {
		t.Errorf("waypoints = %d, want 2", len(path.Points))
	}
	if d := pathLength(path.Points); d < 179.9 || d > 180.1 {
		t.Errorf("length = %f, want 180", d)
	}
}

func TestRouteAroundWall(t *testing.T) {
	e := boundedScene(t)
	wall := geom.Segment{A: pt(0, 100), B: pt(100, 100)}
	if err := e.AddWall(obstacle.NewWall("w1", wall.A, wall.B)); err != nil {
		t.Fatal(err)
	}

	mover := obstacle.Mover{}
	path, err := e.FindPath(mover, pt(50, 10), pt(50, 190), AStar)
	if err != nil {
		t.Fatal(err)
	}
	if !path.Found {
		t.Fatal("path not found around a half-width wall")
	}
	if len(path.Points) < 3 {
		t.Errorf("waypoints = %d, want a detour with at least 3", len(path.Points))
	}
	// The straight distance is 180; going around the wall's free end is
	// necessarily longer.
	if d := pathLength(path.Points); d <= 180 {
		t.Errorf("length = %f, want more than the blocked straight line", d)
	}
	// No leg of the final path may cross the wall interior.
	for i := 0; i+1 < len(path.Points); i++ {
		leg := geom.Segment{A: path.Points[i], B: path.Points[i+1]}
		hit := geom.Classify(leg, wall)
		if hit.Kind == geom.HitOverlap {
			t.Errorf("leg %d runs along the wall", i)
		}
		if hit.Kind == geom.HitCrossing && hit.U0 > 1e-6 && hit.U0 < 1-1e-6 {
			t.Errorf("leg %d crosses the wall interior at u=%f", i, hit.U0)
		}
	}
}

func TestUnreachableGoal(t *testing.T) {
	e := boundedScene(t)
	if err := e.AddWall(obstacle.NewWall("split", pt(0, 100), pt(200, 100))); err != nil {
		t.Fatal(err)
	}

	path, err := e.FindPath(obstacle.Mover{}, pt(50, 50), pt(50, 150), AStar)
	if err != nil {
		t.Fatalf("unreachable goal must not be an error: %v", err)
	}
	if path.Found {
		t.Error("path found across a full partition")
	}
}

func TestRemovalReopensScene(t *testing.T) {
	e := boundedScene(t)
	if err := e.AddWall(obstacle.NewWall("split", pt(0, 100), pt(200, 100))); err != nil {
		t.Fatal(err)
	}
	if path, _ := e.FindPath(obstacle.Mover{}, pt(50, 50), pt(50, 150), AStar); path.Found {
		t.Fatal("partition should block")
	}

	e.Remove("split")

	path, err := e.FindPath(obstacle.Mover{}, pt(50, 50), pt(50, 150), AStar)
	if err != nil {
		t.Fatal(err)
	}
	if !path.Found {
		t.Error("removing the partition should reopen the scene")
	}
	if len(path.Points) != 2 {
		t.Errorf("waypoints = %d, want 2 after removal", len(path.Points))
	}
}

func TestDoorStateEvaluatedLive(t *testing.T) {
	e := boundedScene(t)
	w := obstacle.NewWall("split", pt(0, 100), pt(200, 100))
	if err := e.AddWall(w); err != nil {
		t.Fatal(err)
	}

	if path, _ := e.FindPath(obstacle.Mover{}, pt(50, 50), pt(50, 150), AStar); path.Found {
		t.Fatal("closed partition should block")
	}

	// Opening the door is not a graph mutation; the same mesh must answer
	// the next query differently.
	w.Door = obstacle.DoorOpen
	path, err := e.FindPath(obstacle.Mover{}, pt(50, 50), pt(50, 150), AStar)
	if err != nil {
		t.Fatal(err)
	}
	if !path.Found {
		t.Error("open door should let the path through without a rebuild")
	}
	if d := pathLength(path.Points); d < 99.9 || d > 100.1 {
		t.Errorf("length = %f, want 100 straight through the open door", d)
	}
}

func TestTokenDisposition(t *testing.T) {
	e := boundedScene(t)
	ring := orb.Ring{{80, 80}, {120, 80}, {120, 120}, {80, 120}, {80, 80}}
	if err := e.AddToken(obstacle.NewTokenBorder("tok", ring, obstacle.Hostile)); err != nil {
		t.Fatal(err)
	}

	// An allied mover passes straight through the silhouette.
	ally, err := e.FindPath(obstacle.Mover{Disposition: obstacle.Hostile}, pt(100, 10), pt(100, 190), AStar)
	if err != nil {
		t.Fatal(err)
	}
	if !ally.Found || len(ally.Points) != 2 {
		t.Errorf("allied mover: found=%v waypoints=%d, want a straight pass", ally.Found, len(ally.Points))
	}

	// An opposed mover has to go around.
	foe, err := e.FindPath(obstacle.Mover{Disposition: obstacle.Friendly}, pt(100, 10), pt(100, 190), AStar)
	if err != nil {
		t.Fatal(err)
	}
	if !foe.Found {
		t.Fatal("opposed mover found no path around the token")
	}
	if d := pathLength(foe.Points); d <= 180 {
		t.Errorf("opposed mover length = %f, want a detour longer than 180", d)
	}
}

func TestQueryOutsideMesh(t *testing.T) {
	e := boundedScene(t)
	_, err := e.FindPath(obstacle.Mover{}, pt(50, 50), pt(500, 500), AStar)
	if !errors.Is(err, mesh.ErrUnlocatablePoint) {
		t.Errorf("err = %v, want ErrUnlocatablePoint", err)
	}
}

func TestEmptySceneFailsToBuild(t *testing.T) {
	e := New(DefaultConfig(), nil)
	_, err := e.FindPath(obstacle.Mover{}, pt(0, 0), pt(10, 10), AStar)
	if !errors.Is(err, mesh.ErrMeshBuild) {
		t.Errorf("err = %v, want ErrMeshBuild", err)
	}
}

func TestExtractPathNotFound(t *testing.T) {
	if _, ok := ExtractPath(Result{}); ok {
		t.Error("ExtractPath on an empty result should report no path")
	}
}

func TestExtractPathOrder(t *testing.T) {
	e := boundedScene(t)
	res, err := e.RunPath(obstacle.Mover{}, pt(20, 20), pt(180, 180), AStar)
	if err != nil {
		t.Fatal(err)
	}
	points, ok := ExtractPath(res)
	if !ok {
		t.Fatal("no path extracted")
	}
	if !points[0].Eq(pt(20, 20)) {
		t.Errorf("first waypoint = %+v, want the start", points[0])
	}
	if !points[len(points)-1].Eq(pt(180, 180)) {
		t.Errorf("last waypoint = %+v, want the goal", points[len(points)-1])
	}
}
