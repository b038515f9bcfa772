// Package obstacle defines the source objects that contribute geometry and
// blocking behavior to the segment graph: walls, token borders, scene
// boundaries and terrain regions. The graph and the mesh only ever see the
// Source capability; the cost model additionally sees Penalizer.
package obstacle

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"navmesh-planner/geom"
)

// Disposition of a token or mover relative to the scene.
const (
	Hostile  = -1
	Neutral  = 0
	Friendly = 1
)

// Mover describes the agent a path is computed for. HalfWidth is the spacer
// clearance kept between the path and triangle-side corners.
type Mover struct {
	Name        string             `json:"name,omitempty"`
	HalfWidth   float64            `json:"halfWidth"`
	Elevation   float64            `json:"elevation"`
	Disposition int                `json:"disposition"`
	Speed       float64            `json:"speed"`
	ModeSpeeds  map[string]float64 `json:"modeSpeeds,omitempty"`
}

// Clone returns a deep copy, so terrain effects can be applied to the copy
// without touching the original stat sheet.
func (m Mover) Clone() Mover {
	c := m
	if m.ModeSpeeds != nil {
		c.ModeSpeeds = make(map[string]float64, len(m.ModeSpeeds))
		for k, v := range m.ModeSpeeds {
			c.ModeSpeeds[k] = v
		}
	}
	return c
}

// SpeedFor returns the speed for a movement mode, falling back to the base
// speed when the mode is not listed.
func (m Mover) SpeedFor(mode string) float64 {
	if v, ok := m.ModeSpeeds[mode]; ok && v > 0 {
		return v
	}
	if m.Speed > 0 {
		return m.Speed
	}
	return 1
}

// Source is the capability every obstacle kind exposes to the segment graph.
// Blocks is live-evaluated on every call; door and disposition state can
// change between queries, so implementations must not cache.
type Source interface {
	ID() string
	Blocks(origin geom.Point, mover Mover) bool
}

// Penalizer is the optional capability consumed by the cost model. Footprint
// is the closed region the penalty applies inside; Extent bounds it
// vertically; CostModifier returns the multiplicative and flat penalty for
// the given mover.
type Penalizer interface {
	Footprint() orb.Ring
	Extent() (bottom, top float64)
	CostModifier(mover Mover) (multiplier, flat float64)
}

// DoorState of a wall.
type DoorState int

const (
	DoorNone DoorState = iota
	DoorClosed
	DoorOpen
	DoorLocked
)

// WallDirection restricts which side of a wall blocks.
type WallDirection int

const (
	DirBoth WallDirection = iota
	DirLeft
	DirRight
)

// Wall is a static barrier segment.
type Wall struct {
	Id       string        `json:"id"`
	A        geom.Point    `json:"a"`
	B        geom.Point    `json:"b"`
	Movement bool          `json:"movement"`
	Door     DoorState     `json:"door"`
	Dir      WallDirection `json:"dir"`
	Bottom   float64       `json:"bottom"`
	Top      float64       `json:"top"`
}

// NewWall returns a movement-blocking wall with unbounded elevation.
func NewWall(id string, a, b geom.Point) *Wall {
	return &Wall{
		Id: id, A: a, B: b,
		Movement: true,
		Bottom:   -math.MaxFloat64,
		Top:      math.MaxFloat64,
	}
}

func (w *Wall) ID() string { return w.Id }

// Blocks reports whether the wall stops movement originating at origin.
func (w *Wall) Blocks(origin geom.Point, mover Mover) bool {
	if !w.Movement {
		return false
	}
	if w.Door == DoorOpen {
		return false
	}
	if mover.Elevation < w.Bottom || mover.Elevation > w.Top {
		return false
	}
	switch w.Dir {
	case DirLeft:
		return geom.Cross(w.A, w.B, origin) > 0
	case DirRight:
		return geom.Cross(w.A, w.B, origin) < 0
	}
	return true
}

// TokenBorder is the silhouette of an agent occupying the scene. It blocks
// movers of a different disposition and slows movement through its space.
type TokenBorder struct {
	Id           string   `json:"id"`
	Ring         orb.Ring `json:"ring"`
	Bottom       float64  `json:"bottom"`
	Top          float64  `json:"top"`
	Disposition  int      `json:"disposition"`
	SpeedDivisor float64  `json:"speedDivisor"` // >= 1; 1 means no penalty
}

// NewTokenBorder normalizes the ring (closed, counter-clockwise) and applies
// the conventional half-speed penalty for moving through an occupied space.
func NewTokenBorder(id string, ring orb.Ring, disposition int) *TokenBorder {
	r := normalizeRing(ring)
	return &TokenBorder{
		Id: id, Ring: r,
		Bottom: -math.MaxFloat64, Top: math.MaxFloat64,
		Disposition:  disposition,
		SpeedDivisor: 2,
	}
}

func (t *TokenBorder) ID() string { return t.Id }

// Blocks stops movers of a different disposition, unless the move originates
// inside the token's own footprint (a mover must always be able to leave).
func (t *TokenBorder) Blocks(origin geom.Point, mover Mover) bool {
	if mover.Elevation < t.Bottom || mover.Elevation > t.Top {
		return false
	}
	if mover.Disposition == t.Disposition {
		return false
	}
	return !ringContains(t.Ring, origin)
}

func (t *TokenBorder) Footprint() orb.Ring { return t.Ring }

func (t *TokenBorder) Extent() (float64, float64) { return t.Bottom, t.Top }

// CostModifier slows movement through the token's space by SpeedDivisor.
func (t *TokenBorder) CostModifier(mover Mover) (float64, float64) {
	if t.SpeedDivisor <= 1 {
		return 1, 0
	}
	return t.SpeedDivisor, 0
}

// Boundary is a scene border edge. It always blocks.
type Boundary struct {
	Id string `json:"id"`
}

func (b *Boundary) ID() string { return b.Id }

func (b *Boundary) Blocks(origin geom.Point, mover Mover) bool { return true }

// TerrainRegion changes the mover's effective movement-mode speed inside its
// footprint. It never blocks.
type TerrainRegion struct {
	Id              string             `json:"id"`
	Ring            orb.Ring           `json:"ring"`
	Bottom          float64            `json:"bottom"`
	Top             float64            `json:"top"`
	Mode            string             `json:"mode"`
	ModeMultipliers map[string]float64 `json:"modeMultipliers"`
	FlatPenalty     float64            `json:"flatPenalty"`
}

// NewTerrainRegion creates a region applying the given speed multipliers per
// movement mode (a multiplier of 0.5 halves the mover's speed).
func NewTerrainRegion(id string, ring orb.Ring, mode string, multipliers map[string]float64) *TerrainRegion {
	return &TerrainRegion{
		Id: id, Ring: normalizeRing(ring),
		Bottom: -math.MaxFloat64, Top: math.MaxFloat64,
		Mode:            mode,
		ModeMultipliers: multipliers,
	}
}

func (r *TerrainRegion) ID() string { return r.Id }

func (r *TerrainRegion) Blocks(origin geom.Point, mover Mover) bool { return false }

func (r *TerrainRegion) Footprint() orb.Ring { return r.Ring }

func (r *TerrainRegion) Extent() (float64, float64) { return r.Bottom, r.Top }

// ApplyTerrain returns a clone of the mover with the region's speed effects
// applied to its stat sheet.
func (r *TerrainRegion) ApplyTerrain(m Mover) Mover {
	c := m.Clone()
	if c.ModeSpeeds == nil {
		c.ModeSpeeds = map[string]float64{}
	}
	for mode, mult := range r.ModeMultipliers {
		c.ModeSpeeds[mode] = m.SpeedFor(mode) * mult
	}
	return c
}

// CostModifier isolates the terrain contribution by comparing a terrain-free
// clone of the mover's stat sheet against the same clone with this region's
// effects applied. Any other active effects cancel in the ratio.
func (r *TerrainRegion) CostModifier(mover Mover) (float64, float64) {
	mode := r.Mode
	if mode == "" {
		mode = "walk"
	}
	baseline := mover.Clone()
	applied := r.ApplyTerrain(baseline)

	before := baseline.SpeedFor(mode)
	after := applied.SpeedFor(mode)
	if after <= 0 {
		return math.MaxFloat64, r.FlatPenalty
	}
	return before / after, r.FlatPenalty
}

func normalizeRing(ring orb.Ring) orb.Ring {
	r := make(orb.Ring, len(ring))
	copy(r, ring)
	if !r.Closed() && len(r) > 0 {
		r = append(r, r[0])
	}
	if r.Orientation() == orb.CW {
		r.Reverse()
	}
	return r
}

func ringContains(r orb.Ring, p geom.Point) bool {
	return planar.RingContains(r, p.Orb())
}
