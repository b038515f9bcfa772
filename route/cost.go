package route

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"navmesh-planner/geom"
	"navmesh-planner/obstacle"
)

// CostMode selects how obstacle penalties are charged to a travel segment.
type CostMode int

const (
	// ModeProportional integrates the penalty along the exact stretch of
	// the segment inside each obstacle footprint.
	ModeProportional CostMode = iota
	// ModeGrid charges the whole segment with the penalty of the cell the
	// destination point falls in.
	ModeGrid
)

// CostFunc is an injectable per-edge cost override. It is called only for
// non-identical points; returning 0 means a teleport-equivalent move.
type CostFunc func(from, to geom.Point, rawDistance float64) float64

// Config gathers the tunables of a path query.
type Config struct {
	Mode      CostMode `json:"mode"`
	GridSize  float64  `json:"gridSize"`
	SpeedMode string   `json:"speedMode"`
	// SkipRadius bounds the opportunistic skip-ahead pass of the path
	// post-processor in gridless mode.
	SkipRadius float64  `json:"skipRadius"`
	Strategy   Strategy `json:"strategy"`
	CostFunc   CostFunc `json:"-"`
}

// DefaultConfig returns proportional costing with A* and a generous
// skip-ahead radius.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeProportional,
		SpeedMode:  "walk",
		SkipRadius: 500,
		Strategy:   AStar,
	}
}

// MovePenalty computes traversal costs for one path query. All costs for
// identical (start, end) pairs within the query are memoized; the memo lives
// and dies with the instance, one per top-level path request.
type MovePenalty struct {
	cfg        Config
	mover      obstacle.Mover
	penalizers []obstacle.Penalizer

	segMemo  map[string]float64
	cellMemo map[string]float64
}

// NewMovePenalty builds the query-local cost model from every registered
// source object that carries the penalty capability.
func NewMovePenalty(cfg Config, sources []obstacle.Source, mover obstacle.Mover) *MovePenalty {
	mp := &MovePenalty{
		cfg:      cfg,
		mover:    mover,
		segMemo:  make(map[string]float64),
		cellMemo: make(map[string]float64),
	}
	for _, s := range sources {
		if p, ok := s.(obstacle.Penalizer); ok {
			mp.penalizers = append(mp.penalizers, p)
		}
	}
	return mp
}

// AddPenalizer registers an extra penalty-bearing region that contributes no
// graph geometry.
func (mp *MovePenalty) AddPenalizer(p obstacle.Penalizer) {
	mp.penalizers = append(mp.penalizers, p)
}

// MovementCost returns the effective cost of travelling the straight segment
// from -> to whose unpenalized length is freeDistance. Identical endpoints
// cost the free distance: no obstacle can have zero-width effect.
func (mp *MovePenalty) MovementCost(from, to geom.Point, freeDistance float64) float64 {
	if from.Round().Eq(to.Round()) {
		return freeDistance
	}
	if mp.cfg.CostFunc != nil {
		return mp.cfg.CostFunc(from, to, freeDistance)
	}

	key := from.Key() + "|" + to.Key()
	if c, ok := mp.segMemo[key]; ok {
		return c
	}

	var cost float64
	if mp.cfg.Mode == ModeGrid && mp.cfg.GridSize > 0 {
		cost = mp.gridCost(to, freeDistance)
	} else {
		cost = mp.proportionalCost(from, to)
	}
	mp.segMemo[key] = cost
	return cost
}

// gridCost assigns the whole segment the penalty of the destination cell:
// flat penalties plus the speed-ratio multiplier of every obstacle
// overlapping the cell center.
func (mp *MovePenalty) gridCost(to geom.Point, freeDistance float64) float64 {
	center := mp.cellCenter(to)
	ck := center.Key()
	if mult, ok := mp.cellMemo[ck]; ok {
		return mp.cellFlat(center) + mult*freeDistance
	}
	mult := 1.0
	for _, p := range mp.penalizers {
		if !mp.applies(p, center) {
			continue
		}
		m, _ := p.CostModifier(mp.mover)
		mult *= m
	}
	mp.cellMemo[ck] = mult
	return mp.cellFlat(center) + mult*freeDistance
}

func (mp *MovePenalty) cellFlat(center geom.Point) float64 {
	var flat float64
	for _, p := range mp.penalizers {
		if !mp.applies(p, center) {
			continue
		}
		_, f := p.CostModifier(mp.mover)
		flat += f
	}
	return flat
}

// cellCenter snaps a point to the center of its grid cell.
func (mp *MovePenalty) cellCenter(p geom.Point) geom.Point {
	gs := mp.cfg.GridSize
	return geom.Point{
		X: (math.Floor(p.X/gs) + 0.5) * gs,
		Y: (math.Floor(p.Y/gs) + 0.5) * gs,
	}.Round()
}

// cutaway is an entry or exit event along the travel segment.
type cutaway struct {
	t     float64
	p     obstacle.Penalizer
	enter bool
}

// proportionalCost walks the ordered cutaway intersections of the segment
// and integrates time piecewise, toggling each obstacle's effect on entry
// and exit, then converts total time back to an effective distance at
// baseline speed.
func (mp *MovePenalty) proportionalCost(from, to geom.Point) float64 {
	seg := geom.Segment{A: from, B: to}
	length := seg.Length()

	var events []cutaway
	active := make(map[obstacle.Penalizer]bool)
	flat := 0.0

	for _, p := range mp.penalizers {
		if !mp.inExtent(p) {
			continue
		}
		crossings := ringCrossings(p.Footprint(), seg)
		inside := mp.applies(p, from)
		if inside {
			active[p] = true
			_, f := p.CostModifier(mp.mover)
			flat += f
		}
		for _, t := range crossings {
			inside = !inside
			events = append(events, cutaway{t: t, p: p, enter: inside})
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].t < events[j].t })

	effective := 0.0
	prev := 0.0
	for _, ev := range events {
		if ev.t > prev {
			effective += (ev.t - prev) * length * mp.activeMultiplier(active)
			prev = ev.t
		}
		if ev.enter {
			if !active[ev.p] {
				active[ev.p] = true
				_, f := ev.p.CostModifier(mp.mover)
				flat += f
			}
		} else {
			delete(active, ev.p)
		}
	}
	if prev < 1 {
		effective += (1 - prev) * length * mp.activeMultiplier(active)
	}
	return effective + flat
}

func (mp *MovePenalty) activeMultiplier(active map[obstacle.Penalizer]bool) float64 {
	mult := 1.0
	for p := range active {
		m, _ := p.CostModifier(mp.mover)
		mult *= m
	}
	return mult
}

// applies reports whether the penalizer's footprint contains the point and
// its vertical extent contains the mover.
func (mp *MovePenalty) applies(p obstacle.Penalizer, pt geom.Point) bool {
	if !mp.inExtent(p) {
		return false
	}
	return planar.RingContains(p.Footprint(), pt.Orb())
}

func (mp *MovePenalty) inExtent(p obstacle.Penalizer) bool {
	bottom, top := p.Extent()
	return mp.mover.Elevation >= bottom && mp.mover.Elevation <= top
}

// ringCrossings returns the sorted parameters at which the segment crosses
// the ring boundary.
func ringCrossings(ring orb.Ring, seg geom.Segment) []float64 {
	var ts []float64
	for i := 0; i+1 < len(ring); i++ {
		edge := geom.Segment{A: geom.FromOrb(ring[i]), B: geom.FromOrb(ring[i+1])}
		if edge.Length() <= geom.Eps {
			continue
		}
		hit := geom.Classify(seg, edge)
		if hit.Kind == geom.HitCrossing {
			ts = append(ts, hit.T0)
		}
	}
	sort.Float64s(ts)
	// Collapse duplicates from passing exactly through a ring vertex.
	out := ts[:0]
	for i, t := range ts {
		if i > 0 && t-out[len(out)-1] <= geom.Eps {
			continue
		}
		out = append(out, t)
	}
	return out
}
