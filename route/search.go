package route

import (
	"fmt"

	"navmesh-planner/geom"
	"navmesh-planner/mesh"
	"navmesh-planner/obstacle"
)

// Strategy selects the graph-search algorithm.
type Strategy int

const (
	// Breadth expands the frontier unweighted, stack-ordered.
	Breadth Strategy = iota
	// Uniform orders the frontier by accumulated cost (Dijkstra).
	Uniform
	// Greedy orders the frontier by the heuristic alone.
	Greedy
	// AStar orders the frontier by accumulated cost plus heuristic.
	AStar
)

// ParseStrategy maps the wire names onto strategies.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "breadth":
		return Breadth, nil
	case "uniform":
		return Uniform, nil
	case "greedy":
		return Greedy, nil
	case "astar", "":
		return AStar, nil
	}
	return AStar, fmt.Errorf("route: unknown strategy %q", s)
}

func (s Strategy) String() string {
	switch s {
	case Breadth:
		return "breadth"
	case Uniform:
		return "uniform"
	case Greedy:
		return "greedy"
	case AStar:
		return "astar"
	}
	return "unknown"
}

// PathNode is the ephemeral search-time record of a candidate mesh position.
// All fields are always present; Cost stays zero for the unweighted
// strategy.
type PathNode struct {
	Key   string
	Point geom.Point
	Tri   *mesh.Triangle
	Prior *mesh.Triangle
	Cost  float64
}

// Step records a settled node and the key of its predecessor.
type Step struct {
	Node    PathNode
	PrevKey string
}

// Result is the ordered predecessor map produced by one search. The goal key
// is present in Steps only when a path was found; callers must check Found
// before walking the chain.
type Result struct {
	Steps    map[string]Step
	StartKey string
	GoalKey  string
	Found    bool
	Cost     float64
	Expanded int
}

// searcher runs one path query over a built mesh.
type searcher struct {
	mesh     *mesh.Mesh
	mover    obstacle.Mover
	penalty  *MovePenalty
	strategy Strategy
}

// run executes the shared search state machine. Nodes move unvisited ->
// frontier -> settled; a node already recorded in the predecessor map is
// never pushed again. Frontier exhaustion is not an error: the result simply
// lacks the goal key.
func (s *searcher) run(start, end geom.Point, strategy Strategy) (Result, error) {
	startTri, err := s.mesh.Locate(start)
	if err != nil {
		return Result{}, err
	}
	endTri, err := s.mesh.Locate(end)
	if err != nil {
		return Result{}, err
	}

	s.strategy = strategy
	start = start.Round()
	end = end.Round()
	res := Result{
		Steps:    make(map[string]Step),
		StartKey: start.Key(),
		GoalKey:  end.Key(),
	}

	root := &PathNode{Key: res.StartKey, Point: start, Tri: startTri}
	res.Steps[root.Key] = Step{Node: *root}

	open := newFrontier(strategy, end)
	open.push(root)

	for !open.empty() {
		cur := open.pop()
		res.Expanded++

		if cur.Key == res.GoalKey {
			res.Found = true
			res.Cost = cur.Cost
			return res, nil
		}

		for _, next := range s.expand(cur, endTri, end) {
			if _, seen := res.Steps[next.Key]; seen {
				continue
			}
			res.Steps[next.Key] = Step{Node: *next, PrevKey: cur.Key}
			open.push(next)
		}
	}
	return res, nil
}

// expand generates the successor nodes of cur. When cur already occupies the
// goal's triangle the goal node itself is emitted with its true entry point,
// since the goal may not lie on any triangle boundary.
func (s *searcher) expand(cur *PathNode, endTri *mesh.Triangle, end geom.Point) []*PathNode {
	if cur.Tri == endTri {
		return []*PathNode{{
			Key:   end.Key(),
			Point: end,
			Tri:   endTri,
			Prior: cur.Tri,
			Cost:  cur.Cost + s.stepCost(cur.Point, end),
		}}
	}

	dests := s.mesh.ValidDestinations(cur.Tri, cur.Prior, s.mover)
	out := make([]*PathNode, 0, len(dests))
	for _, d := range dests {
		out = append(out, &PathNode{
			Key:   d.Point.Key(),
			Point: d.Point,
			Tri:   d.Tri,
			Prior: cur.Tri,
			Cost:  cur.Cost + s.stepCost(cur.Point, d.Point),
		})
	}
	return out
}

// stepCost weights one expansion. The unweighted strategy accumulates
// nothing, so its nodes keep a zero cost.
func (s *searcher) stepCost(from, to geom.Point) float64 {
	if s.strategy == Breadth {
		return 0
	}
	return s.penalty.MovementCost(from, to, from.Distance(to))
}

// ExtractPath walks the predecessor map from goal to start and reverses it
// into an ordered waypoint list. The second return is false when the result
// holds no path.
func ExtractPath(res Result) ([]geom.Point, bool) {
	if !res.Found {
		return nil, false
	}
	var rev []geom.Point
	key := res.GoalKey
	for {
		step, ok := res.Steps[key]
		if !ok {
			return nil, false
		}
		rev = append(rev, step.Node.Point)
		if key == res.StartKey {
			break
		}
		key = step.PrevKey
	}
	out := make([]geom.Point, len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out, true
}
