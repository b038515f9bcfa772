package route

import (
	"fmt"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"navmesh-planner/geom"
	"navmesh-planner/graph"
	"navmesh-planner/mesh"
	"navmesh-planner/obstacle"
)

// Engine owns one scene's segment graph, navigation mesh and configuration.
// It is an explicit context object: callers create as many independent
// engines as they have scenes. Not safe for concurrent use.
type Engine struct {
	cfg   Config
	log   *zap.Logger
	graph *graph.Graph
	mesh  *mesh.Mesh

	walls    map[string]*obstacle.Wall
	tokens   map[string]*obstacle.TokenBorder
	regions  map[string]*obstacle.TerrainRegion
	boundary *sceneBoundary
}

type sceneBoundary struct {
	src   *obstacle.Boundary
	bound orb.Bound
}

// Path is the final answer of a query: the simplified waypoint list, its
// effective cost, and whether the goal was reachable at all.
type Path struct {
	Points []geom.Point `json:"points"`
	Cost   float64      `json:"cost"`
	Found  bool         `json:"found"`
}

// New returns an engine with an empty scene. A nil logger is replaced with a
// no-op logger.
func New(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{cfg: cfg, log: logger}
	e.Reset()
	return e
}

// Reset discards the whole scene: graph, mesh and obstacle registries.
func (e *Engine) Reset() {
	e.graph = graph.New(e.log)
	e.mesh = nil
	e.walls = make(map[string]*obstacle.Wall)
	e.tokens = make(map[string]*obstacle.TokenBorder)
	e.regions = make(map[string]*obstacle.TerrainRegion)
	e.boundary = nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Graph exposes the segment graph for collision probes and diagnostics.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// AddWall registers a wall segment. The mesh is marked stale.
func (e *Engine) AddWall(w *obstacle.Wall) error {
	if err := e.graph.AddObjectEdge(w, w.A, w.B); err != nil {
		return fmt.Errorf("wall %s: %w", w.Id, err)
	}
	e.walls[w.Id] = w
	return nil
}

// AddToken registers an agent silhouette: each ring segment becomes graph
// geometry carrying the token as its source object.
func (e *Engine) AddToken(t *obstacle.TokenBorder) error {
	ring := t.Ring
	for i := 0; i+1 < len(ring); i++ {
		a, b := geom.FromOrb(ring[i]), geom.FromOrb(ring[i+1])
		if err := e.graph.AddObjectEdge(t, a, b); err != nil {
			if err == graph.ErrDegenerateSegment {
				continue
			}
			return fmt.Errorf("token %s: %w", t.Id, err)
		}
	}
	e.tokens[t.Id] = t
	return nil
}

// AddBoundary registers the scene border: four always-blocking edges.
func (e *Engine) AddBoundary(id string, b orb.Bound) error {
	src := &obstacle.Boundary{Id: id}
	corners := []geom.Point{
		{X: b.Min.X(), Y: b.Min.Y()},
		{X: b.Max.X(), Y: b.Min.Y()},
		{X: b.Max.X(), Y: b.Max.Y()},
		{X: b.Min.X(), Y: b.Max.Y()},
	}
	for i := range corners {
		a, c := corners[i], corners[(i+1)%4]
		if err := e.graph.AddObjectEdge(src, a, c); err != nil {
			return fmt.Errorf("boundary %s: %w", id, err)
		}
	}
	e.boundary = &sceneBoundary{src: src, bound: b}
	return nil
}

// AddRegion registers a terrain region. Regions contribute no graph
// geometry; they only weigh on the cost model.
func (e *Engine) AddRegion(r *obstacle.TerrainRegion) error {
	if len(r.Ring) < 4 {
		return fmt.Errorf("region %s: ring too short", r.Id)
	}
	e.regions[r.Id] = r
	return nil
}

// Remove deletes an object of any kind by id. Unknown ids are a no-op.
func (e *Engine) Remove(id string) {
	e.graph.RemoveObject(id)
	delete(e.walls, id)
	delete(e.tokens, id)
	delete(e.regions, id)
	if e.boundary != nil && e.boundary.src.Id == id {
		e.boundary = nil
	}
}

// ensureMesh lazily rebuilds the mesh the first time a query arrives after
// the graph changed. Rebuilds are wholesale; a failed rebuild leaves no
// mesh.
func (e *Engine) ensureMesh() (*mesh.Mesh, error) {
	if e.mesh != nil && e.mesh.Generation() == e.graph.Generation() {
		return e.mesh, nil
	}
	m, err := mesh.Build(e.graph, e.log)
	if err != nil {
		e.mesh = nil
		return nil, err
	}
	e.mesh = m
	return m, nil
}

// RunPath executes one search and returns the raw ordered predecessor map.
// Frontier exhaustion yields a result without the goal key; mesh-build and
// point-location failures are returned as errors.
func (e *Engine) RunPath(mover obstacle.Mover, start, end geom.Point, strategy Strategy) (Result, error) {
	m, err := e.ensureMesh()
	if err != nil {
		return Result{}, err
	}
	penalty := NewMovePenalty(e.cfg, e.graph.Sources(), mover)
	for _, r := range e.regions {
		penalty.AddPenalizer(r)
	}
	s := &searcher{mesh: m, mover: mover, penalty: penalty}
	res, err := s.run(start, end, strategy)
	if err != nil {
		return res, err
	}
	e.log.Debug("search finished",
		zap.String("strategy", strategy.String()),
		zap.Bool("found", res.Found),
		zap.Int("expanded", res.Expanded),
	)
	return res, nil
}

// FindPath answers a point-to-point query: search, then post-process the
// node chain into a minimal collision-safe polyline. An unreachable goal is
// not an error: the returned path simply has Found=false.
func (e *Engine) FindPath(mover obstacle.Mover, start, end geom.Point, strategy Strategy) (Path, error) {
	res, err := e.RunPath(mover, start, end, strategy)
	if err != nil {
		return Path{}, err
	}
	points, ok := ExtractPath(res)
	if !ok {
		return Path{}, nil
	}

	blocked := func(a, b geom.Point) bool {
		return e.graph.Blocked(a, b, mover)
	}
	points = SimplifyPath(points, e.cfg, blocked)

	total := 0.0
	for i := 0; i+1 < len(points); i++ {
		total += points[i].Distance(points[i+1])
	}
	return Path{Points: points, Cost: total, Found: true}, nil
}

// Diagnostics runs the synchronous self-consistency checks over the graph
// and, when a mesh is built, the half-edge symmetry check.
func (e *Engine) Diagnostics() []graph.Violation {
	out := e.graph.CheckConsistency()
	if e.mesh != nil {
		for _, s := range e.mesh.CheckSymmetry() {
			out = append(out, graph.Violation{Kind: "halfedge-asymmetry", Detail: s})
		}
	}
	return out
}
