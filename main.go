package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"navmesh-planner/geom"
	"navmesh-planner/obstacle"
	"navmesh-planner/route"
)

const sceneFile = "scene.json"

var (
	engine      *route.Engine
	engineMutex sync.RWMutex
)

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type routeRequest struct {
	Start    geom.Point     `json:"start"`
	End      geom.Point     `json:"end"`
	Strategy string         `json:"strategy"`
	Mover    obstacle.Mover `json:"mover"`
}

type routeResponse struct {
	Path     []geom.Point `json:"path"`
	Success  bool         `json:"success"`
	Message  string       `json:"message,omitempty"`
	Distance float64      `json:"distance,omitempty"`
}

// POST /route - Compute a path between two points
func routeHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("========================================")
	log.Println("📍 Route request received")

	if r.Method != http.MethodPost {
		log.Printf("❌ Method not allowed: %s\n", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	strategy, err := route.ParseStrategy(req.Strategy)
	if err != nil {
		log.Printf("❌ %v\n", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("   Start: (%.2f, %.2f)\n", req.Start.X, req.Start.Y)
	log.Printf("   End:   (%.2f, %.2f)\n", req.End.X, req.End.Y)
	log.Printf("   Strategy: %s\n", strategy)

	engineMutex.Lock()
	path, err := engine.FindPath(req.Mover, req.Start, req.End, strategy)
	engineMutex.Unlock()

	if err != nil {
		// Mesh-build and point-location failures surface as "no path",
		// never as a server error.
		log.Printf("❌ Query failed: %v\n", err)
		writeJSON(w, http.StatusOK, routeResponse{Success: false, Message: err.Error()})
		log.Println("========================================")
		return
	}
	if !path.Found {
		log.Println("❌ No path found (goal unreachable)")
		writeJSON(w, http.StatusOK, routeResponse{Success: false, Message: "goal unreachable"})
		log.Println("========================================")
		return
	}

	log.Printf("✅ Path found with %d waypoints, distance %.2f\n", len(path.Points), path.Cost)
	writeJSON(w, http.StatusOK, routeResponse{Path: path.Points, Success: true, Distance: path.Cost})
	log.Println("========================================")
}

type wallRequest struct {
	Id   string                 `json:"id"`
	A    geom.Point             `json:"a"`
	B    geom.Point             `json:"b"`
	Door obstacle.DoorState     `json:"door"`
	Dir  obstacle.WallDirection `json:"dir"`
}

// POST /walls - Add a wall segment
func addWallHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req wallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	wall := obstacle.NewWall(req.Id, req.A, req.B)
	wall.Door = req.Door
	wall.Dir = req.Dir

	engineMutex.Lock()
	err := engine.AddWall(wall)
	engineMutex.Unlock()

	if err != nil {
		log.Printf("⚠️  Failed to add wall %s: %v\n", req.Id, err)
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	log.Printf("✅ Wall %s added\n", req.Id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type tokenRequest struct {
	Id          string   `json:"id"`
	Ring        orb.Ring `json:"ring"`
	Disposition int      `json:"disposition"`
}

// POST /tokens - Add an agent silhouette
func addTokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token := obstacle.NewTokenBorder(req.Id, req.Ring, req.Disposition)

	engineMutex.Lock()
	err := engine.AddToken(token)
	engineMutex.Unlock()

	if err != nil {
		log.Printf("⚠️  Failed to add token %s: %v\n", req.Id, err)
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	log.Printf("✅ Token %s added\n", req.Id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type regionRequest struct {
	Id          string             `json:"id"`
	Ring        orb.Ring           `json:"ring"`
	Mode        string             `json:"mode"`
	Multipliers map[string]float64 `json:"multipliers"`
}

// POST /regions - Add a terrain region (cost only, no blocking geometry)
func addRegionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req regionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	region := obstacle.NewTerrainRegion(req.Id, req.Ring, req.Mode, req.Multipliers)

	engineMutex.Lock()
	err := engine.AddRegion(region)
	engineMutex.Unlock()

	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	log.Printf("✅ Region %s added\n", req.Id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type boundaryRequest struct {
	Id  string     `json:"id"`
	Min geom.Point `json:"min"`
	Max geom.Point `json:"max"`
}

// POST /boundary - Set the scene border
func boundaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req boundaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bound := orb.Bound{Min: req.Min.Orb(), Max: req.Max.Orb()}

	engineMutex.Lock()
	err := engine.AddBoundary(req.Id, bound)
	engineMutex.Unlock()

	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	log.Printf("✅ Boundary %s set: (%.1f, %.1f) to (%.1f, %.1f)\n",
		req.Id, req.Min.X, req.Min.Y, req.Max.X, req.Max.Y)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// POST /remove - Remove an object by id
func removeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Id string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	engineMutex.Lock()
	engine.Remove(req.Id)
	engineMutex.Unlock()

	log.Printf("🗑️  Object %s removed\n", req.Id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// POST /reset - Discard the whole scene
func resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	engineMutex.Lock()
	engine.Reset()
	engineMutex.Unlock()

	log.Println("🔄 Scene reset")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GET /health - Health check endpoint
func healthHandler(w http.ResponseWriter, r *http.Request) {
	engineMutex.RLock()
	vertices := engine.Graph().VertexCount()
	edges := engine.Graph().EdgeCount()
	engineMutex.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"vertices": vertices,
		"edges":    edges,
	})
}

// GET /diagnostics - Structural invariant check
func diagnosticsHandler(w http.ResponseWriter, r *http.Request) {
	engineMutex.Lock()
	violations := engine.Diagnostics()
	engineMutex.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"consistent": len(violations) == 0,
		"violations": violations,
	})
}

// newEngineLogger builds the zap logger backing the engine: stdout for
// warnings plus a rotating file sink for the full stream.
func newEngineLogger() *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   "navmesh-planner.log",
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	})
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.WarnLevel),
		zapcore.NewCore(encoder, fileSink, zap.InfoLevel),
	)
	return zap.New(core)
}

func main() {
	log.Println("========================================")
	log.Println("🚀 Navigation Mesh Planner Server")
	log.Println("========================================")

	zlog := newEngineLogger()
	defer zlog.Sync()

	engine = route.New(route.DefaultConfig(), zlog)

	// Restore a previously saved scene if one is on disk.
	if _, err := os.Stat(sceneFile); err == nil {
		if err := engine.LoadSnapshot(sceneFile); err != nil {
			log.Printf("⚠️  Failed to load %s: %v\n", sceneFile, err)
		} else {
			log.Printf("✅ Scene restored from %s\n", sceneFile)
			log.Printf("   Vertices: %d, edges: %d\n",
				engine.Graph().VertexCount(), engine.Graph().EdgeCount())
		}
	} else {
		log.Println("ℹ️  No existing scene found (this is normal on first run)")
	}
	log.Println("")

	http.HandleFunc("/route", corsMiddleware(routeHandler))
	http.HandleFunc("/walls", corsMiddleware(addWallHandler))
	http.HandleFunc("/tokens", corsMiddleware(addTokenHandler))
	http.HandleFunc("/regions", corsMiddleware(addRegionHandler))
	http.HandleFunc("/boundary", corsMiddleware(boundaryHandler))
	http.HandleFunc("/remove", corsMiddleware(removeHandler))
	http.HandleFunc("/reset", corsMiddleware(resetHandler))
	http.HandleFunc("/health", corsMiddleware(healthHandler))
	http.HandleFunc("/diagnostics", corsMiddleware(diagnosticsHandler))

	log.Println("Server starting on :8080")
	log.Println("")
	log.Println("Endpoints:")
	log.Println("  POST /boundary     - Set the scene border")
	log.Println("  POST /walls        - Add a wall segment")
	log.Println("  POST /tokens       - Add an agent silhouette")
	log.Println("  POST /regions      - Add a terrain region")
	log.Println("  POST /remove       - Remove an object by id")
	log.Println("  POST /route        - Compute a path (breadth|uniform|greedy|astar)")
	log.Println("  POST /reset        - Discard the scene")
	log.Println("  GET  /health       - Check server status")
	log.Println("  GET  /diagnostics  - Structural invariant check")
	log.Println("")
	log.Println("CORS enabled for all origins")
	log.Println("========================================")
	log.Println("")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatal(err)
	}
}
