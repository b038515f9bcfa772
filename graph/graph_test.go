package graph

import (
	"errors"
	"testing"

	"navmesh-planner/geom"
	"navmesh-planner/obstacle"
)

func pt(x, y float64) geom.Point { return geom.Point{X: x, Y: y} }

func addWall(t *testing.T, g *Graph, id string, a, b geom.Point) *obstacle.Wall {
	t.Helper()
	w := obstacle.NewWall(id, a, b)
	if err := g.AddObjectEdge(w, a, b); err != nil {
		t.Fatalf("AddObjectEdge(%s): %v", id, err)
	}
	return w
}

func TestAddSingleSegment(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(0, 0), pt(10, 0))

	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
	if g.VertexCount() != 2 {
		t.Errorf("VertexCount = %d, want 2", g.VertexCount())
	}
	if !g.HasObject("w1") {
		t.Error("object w1 not registered")
	}
}

func TestDegenerateSegmentRejected(t *testing.T) {
	g := New(nil)
	w := obstacle.NewWall("w1", pt(5, 5), pt(5, 5))
	err := g.AddObjectEdge(w, pt(5, 5), pt(5.0000001, 5))
	if !errors.Is(err, ErrDegenerateSegment) {
		t.Errorf("err = %v, want ErrDegenerateSegment", err)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d after rejected insert, want 0", g.EdgeCount())
	}
}

func TestSharedVertexNearZero(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(0, 0), pt(10, 0))
	// The second endpoint rounds to the origin from below; it must land on
	// the same canonical vertex, not a "-0" twin.
	addWall(t, g, "w2", pt(-1e-9, 0), pt(0, 10))

	if g.VertexCount() != 3 {
		t.Errorf("VertexCount = %d, want 3 (shared origin vertex)", g.VertexCount())
	}
	if g.Edge(pt(0, 0), pt(0, 10)) == nil {
		t.Error("edge not keyed to the canonical origin vertex")
	}
}

func TestCrossingSegmentsSplit(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(0, 0), pt(10, 0))
	addWall(t, g, "w2", pt(5, -5), pt(5, 5))

	// Both segments split at the crossing point (5,0).
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount = %d, want 4", g.EdgeCount())
	}
	if g.VertexCount() != 5 {
		t.Errorf("VertexCount = %d, want 5", g.VertexCount())
	}
	if g.Edge(pt(0, 0), pt(5, 0)) == nil || g.Edge(pt(5, 0), pt(10, 0)) == nil {
		t.Error("first segment not split at crossing")
	}
	if g.Edge(pt(5, -5), pt(5, 0)) == nil || g.Edge(pt(5, 0), pt(5, 5)) == nil {
		t.Error("second segment not split at crossing")
	}
}

func TestTJunctionSplitsExistingOnly(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(0, 0), pt(10, 0))
	addWall(t, g, "w2", pt(5, 0), pt(5, 10))

	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount = %d, want 3", g.EdgeCount())
	}
	if g.Edge(pt(5, 0), pt(5, 10)) == nil {
		t.Error("new segment missing")
	}
	if g.Edge(pt(0, 0), pt(5, 0)) == nil || g.Edge(pt(5, 0), pt(10, 0)) == nil {
		t.Error("existing segment not split at junction")
	}
}

func TestEndpointTouchDoesNotSplit(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(0, 0), pt(10, 0))
	addWall(t, g, "w2", pt(10, 0), pt(10, 10))

	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", g.EdgeCount())
	}
	if g.VertexCount() != 3 {
		t.Errorf("VertexCount = %d, want 3 (shared corner)", g.VertexCount())
	}
}

func TestCollinearOverlapMergesSources(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(0, 0), pt(10, 0))
	addWall(t, g, "w2", pt(5, 0), pt(15, 0))

	if g.EdgeCount() != 3 {
		t.Fatalf("EdgeCount = %d, want 3", g.EdgeCount())
	}
	shared := g.Edge(pt(5, 0), pt(10, 0))
	if shared == nil {
		t.Fatal("shared overlap edge missing")
	}
	if !shared.HasSource("w1") || !shared.HasSource("w2") {
		t.Error("shared edge should carry both source objects")
	}
	if got := g.Edge(pt(0, 0), pt(5, 0)); got == nil || got.HasSource("w2") {
		t.Error("left fragment should carry only w1")
	}
	if got := g.Edge(pt(10, 0), pt(15, 0)); got == nil || got.HasSource("w1") {
		t.Error("right fragment should carry only w2")
	}
}

func TestContainedOverlap(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(0, 0), pt(20, 0))
	addWall(t, g, "w2", pt(5, 0), pt(10, 0))

	if g.EdgeCount() != 3 {
		t.Fatalf("EdgeCount = %d, want 3", g.EdgeCount())
	}
	shared := g.Edge(pt(5, 0), pt(10, 0))
	if shared == nil || !shared.HasSource("w1") || !shared.HasSource("w2") {
		t.Error("contained stretch should be a single shared edge")
	}
}

func TestRemoveObjectRestoresSurvivors(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(0, 0), pt(10, 0))
	addWall(t, g, "w2", pt(5, 0), pt(15, 0))

	g.RemoveObject("w2")

	// The surviving object is rebuilt from its raw segment, so the split at
	// (5,0) disappears again.
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d after removal, want 1", g.EdgeCount())
	}
	if g.VertexCount() != 2 {
		t.Errorf("VertexCount = %d after removal, want 2", g.VertexCount())
	}
	e := g.Edge(pt(0, 0), pt(10, 0))
	if e == nil {
		t.Fatal("survivor edge missing after removal")
	}
	if !e.HasSource("w1") || e.HasSource("w2") {
		t.Error("survivor edge should carry only w1")
	}
	if g.HasObject("w2") {
		t.Error("removed object still registered")
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(0, 0), pt(10, 0))
	gen := g.Generation()
	g.RemoveObject("nope")
	if g.EdgeCount() != 1 || g.Generation() != gen {
		t.Error("removing an unknown id must not mutate the graph")
	}
}

func TestRemoveAddIdempotence(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(0, 0), pt(10, 0))
	addWall(t, g, "w2", pt(5, -5), pt(5, 5))

	pts, edges := g.Export()

	g.RemoveObject("w2")
	addWall(t, g, "w2", pt(5, -5), pt(5, 5))

	pts2, edges2 := g.Export()
	if len(pts) != len(pts2) || len(edges) != len(edges2) {
		t.Fatalf("export size changed: %d/%d points, %d/%d edges",
			len(pts), len(pts2), len(edges), len(edges2))
	}
	for i := range pts {
		if !pts[i].Eq(pts2[i]) {
			t.Errorf("point %d changed: %+v vs %+v", i, pts[i], pts2[i])
		}
	}
	for i := range edges {
		if edges[i] != edges2[i] {
			t.Errorf("edge %d changed: %v vs %v", i, edges[i], edges2[i])
		}
	}
}

func TestFindCollisionsOrdered(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(7, -5), pt(7, 5))
	addWall(t, g, "w2", pt(3, -5), pt(3, 5))

	cols := g.FindCollisions(pt(0, 0), pt(10, 0))
	if len(cols) != 2 {
		t.Fatalf("collisions = %d, want 2", len(cols))
	}
	if cols[0].T > cols[1].T {
		t.Error("collisions not ordered by parametric position")
	}
	if !cols[0].Point.Eq(pt(3, 0)) || !cols[1].Point.Eq(pt(7, 0)) {
		t.Errorf("collision points = %+v, %+v", cols[0].Point, cols[1].Point)
	}
}

func TestFindCollisionsIgnoresEndpointTouch(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(10, 0), pt(10, 10))

	cols := g.FindCollisions(pt(0, 0), pt(10, 0))
	if len(cols) != 0 {
		t.Errorf("endpoint touch reported as collision: %+v", cols)
	}
}

func TestBlockedRespectsDoorState(t *testing.T) {
	g := New(nil)
	w := addWall(t, g, "w1", pt(5, -5), pt(5, 5))
	mover := obstacle.Mover{Name: "m"}

	if !g.Blocked(pt(0, 0), pt(10, 0), mover) {
		t.Error("closed wall should block")
	}
	w.Door = obstacle.DoorOpen
	if g.Blocked(pt(0, 0), pt(10, 0), mover) {
		t.Error("open door should not block")
	}
}

func TestConsistencyAfterChurn(t *testing.T) {
	g := New(nil)
	addWall(t, g, "w1", pt(0, 0), pt(10, 0))
	addWall(t, g, "w2", pt(5, -5), pt(5, 5))
	addWall(t, g, "w3", pt(2, 0), pt(8, 0))
	g.RemoveObject("w1")
	addWall(t, g, "w4", pt(0, -3), pt(10, 3))
	g.RemoveObject("w3")

	if v := g.CheckConsistency(); len(v) != 0 {
		t.Errorf("consistency violations: %+v", v)
	}
}

func TestGenerationAdvances(t *testing.T) {
	g := New(nil)
	g0 := g.Generation()
	addWall(t, g, "w1", pt(0, 0), pt(10, 0))
	g1 := g.Generation()
	if g1 <= g0 {
		t.Error("generation should advance on insert")
	}
	g.RemoveObject("w1")
	if g.Generation() <= g1 {
		t.Error("generation should advance on removal")
	}
}
