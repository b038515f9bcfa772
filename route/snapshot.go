package route

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"

	"navmesh-planner/obstacle"
)

// snapshot is the on-disk form of a scene: obstacles and configuration, not
// the derived graph or mesh, which are rebuilt on load.
type snapshot struct {
	Config   Config                    `json:"config"`
	Walls    []*obstacle.Wall          `json:"walls"`
	Tokens   []*obstacle.TokenBorder   `json:"tokens"`
	Regions  []*obstacle.TerrainRegion `json:"regions"`
	Boundary *boundarySnapshot         `json:"boundary,omitempty"`
}

type boundarySnapshot struct {
	Id    string    `json:"id"`
	Bound orb.Bound `json:"bound"`
}

// SaveSnapshot writes the scene to a JSON file.
func (e *Engine) SaveSnapshot(path string) error {
	snap := snapshot{Config: e.cfg}
	for _, w := range e.walls {
		snap.Walls = append(snap.Walls, w)
	}
	for _, t := range e.tokens {
		snap.Tokens = append(snap.Tokens, t)
	}
	for _, r := range e.regions {
		snap.Regions = append(snap.Regions, r)
	}
	if e.boundary != nil {
		snap.Boundary = &boundarySnapshot{Id: e.boundary.src.Id, Bound: e.boundary.bound}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("route: marshal snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadSnapshot resets the engine and restores a scene from a JSON file.
func (e *Engine) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("route: parse snapshot: %w", err)
	}

	cost := e.cfg.CostFunc
	e.cfg = snap.Config
	e.cfg.CostFunc = cost
	e.Reset()

	if snap.Boundary != nil {
		if err := e.AddBoundary(snap.Boundary.Id, snap.Boundary.Bound); err != nil {
			return err
		}
	}
	for _, w := range snap.Walls {
		if err := e.AddWall(w); err != nil {
			return err
		}
	}
	for _, t := range snap.Tokens {
		if err := e.AddToken(t); err != nil {
			return err
		}
	}
	for _, r := range snap.Regions {
		if err := e.AddRegion(r); err != nil {
			return err
		}
	}
	return nil
}
