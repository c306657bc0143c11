package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"meshgrowth/core"
	"meshgrowth/simulation"
)

// ErrInvalidSettings is wrapped by every Validate error
var ErrInvalidSettings = errors.New("config: invalid settings")

// Seed shapes
const (
	ShapeQuad      = "quad"
	ShapeGrid      = "grid"
	ShapeIcosphere = "icosphere"
	ShapeUVSphere  = "uvsphere"
)

type Settings struct {
	Simulation SimulationSettings `json:"simulation"`
	Seed       SeedSettings       `json:"seed"`
	Server     ServerSettings     `json:"server"`
	Viewer     ViewerSettings     `json:"viewer"`
	Log        LogSettings        `json:"log"`
}

type SimulationSettings struct {
	Grow              bool    `json:"grow"`
	MaxVertexCount    int     `json:"maxVertexCount"`
	CollisionDistance float64 `json:"collisionDistance"`
	CollisionWeight   float64 `json:"collisionWeight"`
	EdgeLengthWeight  float64 `json:"edgeLengthWeight"`
	BendingWeight     float64 `json:"bendingWeight"`
	UseSpatialIndex   bool    `json:"useSpatialIndex"`
	Subiterations     int     `json:"subiterations"` // Update calls per frame or tick
}

type SeedSettings struct {
	Shape      string  `json:"shape"`
	Size       float64 `json:"size"`       // edge length for quad/grid, radius for spheres
	Resolution int     `json:"resolution"` // grid cells, icosphere level, or sphere segments
	Jitter     float64 `json:"jitter"`
	RandomSeed int64   `json:"randomSeed"`
}

type ServerSettings struct {
	Port             int `json:"port"`
	UpdateIntervalMs int `json:"updateIntervalMs"`
}

type ViewerSettings struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	TargetFPS int `json:"targetFps"`
}

type LogSettings struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// Default returns the settings used when no file is present
func Default() Settings {
	return Settings{
		Simulation: SimulationSettings{
			Grow:              true,
			MaxVertexCount:    2000,
			CollisionDistance: 0.5,
			CollisionWeight:   1.0,
			EdgeLengthWeight:  1.0,
			BendingWeight:     0.5,
			UseSpatialIndex:   true,
			Subiterations:     1,
		},
		Seed: SeedSettings{
			Shape:      ShapeIcosphere,
			Size:       1.0,
			Resolution: 1,
			Jitter:     0.01,
			RandomSeed: 1,
		},
		Server: ServerSettings{
			Port:             8080,
			UpdateIntervalMs: 100,
		},
		Viewer: ViewerSettings{
			Width:     1280,
			Height:    720,
			TargetFPS: 60,
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// Load reads settings from path over the defaults. A missing file is not an
// error; found reports whether the file existed.
func Load(path string) (settings Settings, found bool, err error) {
	settings = Default()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, false, nil
		}
		return settings, false, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&settings); err != nil {
		return settings, true, fmt.Errorf("error parsing %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return settings, true, err
	}
	return settings, true, nil
}

// Validate rejects settings no simulation or host can run with
func (s Settings) Validate() error {
	if err := s.Simulation.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if s.Simulation.Subiterations < 1 {
		return fmt.Errorf("%w: subiterations must be at least 1, got %d", ErrInvalidSettings, s.Simulation.Subiterations)
	}
	switch s.Seed.Shape {
	case ShapeQuad, ShapeGrid, ShapeIcosphere, ShapeUVSphere:
	default:
		return fmt.Errorf("%w: unknown seed shape %q", ErrInvalidSettings, s.Seed.Shape)
	}
	if !(s.Seed.Size > 0) {
		return fmt.Errorf("%w: seed size must be positive, got %v", ErrInvalidSettings, s.Seed.Size)
	}
	if s.Seed.Jitter < 0 {
		return fmt.Errorf("%w: seed jitter must not be negative, got %v", ErrInvalidSettings, s.Seed.Jitter)
	}
	if s.Server.Port < 0 || s.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidSettings, s.Server.Port)
	}
	if s.Server.UpdateIntervalMs < 1 {
		return fmt.Errorf("%w: update interval must be at least 1ms, got %d", ErrInvalidSettings, s.Server.UpdateIntervalMs)
	}
	return nil
}

// Params converts the simulation section into per-step parameters
func (s SimulationSettings) Params() simulation.Params {
	return simulation.Params{
		Grow:              s.Grow,
		MaxVertexCount:    s.MaxVertexCount,
		CollisionDistance: s.CollisionDistance,
		CollisionWeight:   s.CollisionWeight,
		EdgeLengthWeight:  s.EdgeLengthWeight,
		BendingWeight:     s.BendingWeight,
		UseSpatialIndex:   s.UseSpatialIndex,
	}
}

// Build generates the seed positions and faces
func (s SeedSettings) Build() ([]core.Vec3, [][]int, error) {
	var positions []core.Vec3
	var faces [][]int

	switch s.Shape {
	case ShapeQuad:
		positions, faces = core.Quad(s.Size)
	case ShapeGrid:
		n := max(s.Resolution, 1)
		positions, faces = core.Grid(n, n, s.Size/float64(n))
	case ShapeIcosphere:
		positions, faces = core.Icosphere(max(s.Resolution, 0), s.Size)
	case ShapeUVSphere:
		segments := max(s.Resolution, 3)
		positions, faces = core.UVSphere(s.Size, segments, max(segments/2, 2))
	default:
		return nil, nil, fmt.Errorf("%w: unknown seed shape %q", ErrInvalidSettings, s.Shape)
	}

	core.Jitter(positions, s.Jitter, s.RandomSeed)
	return positions, faces, nil
}
