// Package rendering shows a growing mesh in a native raylib window.
package rendering

import (
	"context"
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"meshgrowth/core"
	"meshgrowth/simulation"
)

// Config sizes the window and sets how many steps run per frame
type Config struct {
	Width         int
	Height        int
	TargetFPS     int
	Subiterations int
}

// Viewer owns the window, the simulation and the per-step parameters
type Viewer struct {
	cfg       Config
	newSystem simulation.Factory
	system    *simulation.System
	params    simulation.Params
	logger    *zap.Logger

	paused    bool
	showFaces bool

	// Orbit camera
	cameraRotationX float64
	cameraRotationY float64
	cameraDistance  float64
}

// NewViewer creates the initial simulation. The window opens in Run.
func NewViewer(cfg Config, newSystem simulation.Factory, params simulation.Params, logger *zap.Logger) (*Viewer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Subiterations < 1 {
		cfg.Subiterations = 1
	}

	system, err := newSystem()
	if err != nil {
		return nil, fmt.Errorf("create simulation: %w", err)
	}

	v := &Viewer{
		cfg:             cfg,
		newSystem:       newSystem,
		system:          system,
		params:          params,
		logger:          logger,
		showFaces:       true,
		cameraRotationX: math.Pi / 4,
		cameraRotationY: math.Pi / 6,
	}
	v.cameraDistance = v.fitDistance()
	return v, nil
}

// Run opens the window and steps the simulation once per frame until the
// window closes or ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	rl.InitWindow(int32(v.cfg.Width), int32(v.cfg.Height), "Mesh Growth")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(v.cfg.TargetFPS))

	for !rl.WindowShouldClose() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		v.handleInput()
		if !v.paused {
			if err := v.step(v.cfg.Subiterations); err != nil {
				return err
			}
		}
		v.draw()
	}
	return nil
}

func (v *Viewer) step(n int) error {
	for i := 0; i < n; i++ {
		if err := v.system.Update(v.params); err != nil {
			return fmt.Errorf("simulation step: %w", err)
		}
	}
	return nil
}

func (v *Viewer) handleInput() {
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		v.paused = !v.paused
		v.logger.Info("pause toggled", zap.Bool("paused", v.paused))
	case rl.IsKeyPressed(rl.KeyG):
		v.params.Grow = !v.params.Grow
		v.logger.Info("growth toggled", zap.Bool("grow", v.params.Grow))
	case rl.IsKeyPressed(rl.KeyI):
		v.params.UseSpatialIndex = !v.params.UseSpatialIndex
		v.logger.Info("collision strategy toggled", zap.Bool("spatialIndex", v.params.UseSpatialIndex))
	case rl.IsKeyPressed(rl.KeyF):
		v.showFaces = !v.showFaces
	case rl.IsKeyPressed(rl.KeyN) && v.paused:
		if err := v.step(1); err != nil {
			v.logger.Error("single step failed", zap.Error(err))
		}
	case rl.IsKeyPressed(rl.KeyR):
		system, err := v.newSystem()
		if err != nil {
			v.logger.Error("reset failed", zap.Error(err))
			return
		}
		v.system = system
		v.cameraDistance = v.fitDistance()
		v.logger.Info("simulation reset")
	}

	// Rotate with arrow keys, zoom with the wheel
	const rotateSpeed = 0.03
	if rl.IsKeyDown(rl.KeyLeft) {
		v.cameraRotationX -= rotateSpeed
	}
	if rl.IsKeyDown(rl.KeyRight) {
		v.cameraRotationX += rotateSpeed
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.cameraRotationY = math.Min(v.cameraRotationY+rotateSpeed, math.Pi/2-0.01)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.cameraRotationY = math.Max(v.cameraRotationY-rotateSpeed, -math.Pi/2+0.01)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cameraDistance *= math.Pow(0.9, float64(wheel))
	}
}

// fitDistance returns a camera distance that frames the whole mesh
func (v *Viewer) fitDistance() float64 {
	lo, hi := core.Bounds(v.system.Snapshot().Positions)
	extent := hi.Sub(lo).Len()
	if extent < core.Epsilon {
		extent = 1
	}
	return extent * 1.5
}

func (v *Viewer) camera(target core.Vec3) rl.Camera3D {
	d := v.cameraDistance
	x := d * math.Cos(v.cameraRotationY) * math.Cos(v.cameraRotationX)
	y := d * math.Sin(v.cameraRotationY)
	z := d * math.Cos(v.cameraRotationY) * math.Sin(v.cameraRotationX)

	return rl.Camera3D{
		Position:   toRaylib(target.Add(core.Vec3{x, y, z})),
		Target:     toRaylib(target),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}

func (v *Viewer) draw() {
	snap := v.system.Snapshot()
	lo, hi := core.Bounds(snap.Positions)

	rl.BeginDrawing()
	rl.ClearBackground(rl.RayWhite)

	rl.BeginMode3D(v.camera(core.Midpoint(lo, hi)))
	if v.showFaces {
		indices := core.Triangulate(snap.Faces)
		for i := 0; i+2 < len(indices); i += 3 {
			a := toRaylib(snap.Positions[indices[i]])
			b := toRaylib(snap.Positions[indices[i+1]])
			c := toRaylib(snap.Positions[indices[i+2]])
			// Both windings so the surface shows from either side
			rl.DrawTriangle3D(a, b, c, rl.Fade(rl.SkyBlue, 0.8))
			rl.DrawTriangle3D(a, c, b, rl.Fade(rl.SkyBlue, 0.8))
		}
	}
	for _, e := range core.UniqueEdges(snap.Faces) {
		rl.DrawLine3D(toRaylib(snap.Positions[e[0]]), toRaylib(snap.Positions[e[1]]), rl.DarkBlue)
	}
	rl.EndMode3D()

	v.drawStats()
	rl.EndDrawing()
}

func (v *Viewer) drawStats() {
	stats := v.system.Stats()
	lines := []string{
		fmt.Sprintf("Step: %d", stats.Step),
		fmt.Sprintf("Vertices: %d / %d", stats.Vertices, v.params.MaxVertexCount),
		fmt.Sprintf("Faces: %d", stats.Faces),
		fmt.Sprintf("Grow: %v  Spatial index: %v  Paused: %v", v.params.Grow, v.params.UseSpatialIndex, v.paused),
		"Space pause | N step | G grow | I index | F faces | R reset",
	}
	for i, line := range lines {
		rl.DrawText(line, 10, int32(10+22*i), 18, rl.DarkGray)
	}
	rl.DrawFPS(int32(v.cfg.Width-100), 10)
}

func toRaylib(p core.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(p[0]), float32(p[1]), float32(p[2]))
}
