// Package simulation grows a half-edge mesh by splitting long edges and
// relaxing vertex positions under collision, edge-length and bending
// constraints.
package simulation

import (
	"fmt"

	"go.uber.org/zap"

	"meshgrowth/core"
	"meshgrowth/halfedge"
)

// Factory builds a fresh simulation, typically from a configured seed
type Factory func() (*System, error)

// Stats describes the mesh after the most recent Update
type Stats struct {
	Step            int     `json:"step"`
	Vertices        int     `json:"vertices"`
	Edges           int     `json:"edges"`
	Faces           int     `json:"faces"`
	Splits          int     `json:"splits"`          // edges split by the last step
	MaxDisplacement float64 `json:"maxDisplacement"` // largest vertex move applied by the last step
}

// System owns a growing mesh and the per-step force accumulators
type System struct {
	mesh *halfedge.Mesh
	acc  accumulator

	step             int
	lastSplits       int
	lastDisplacement float64

	logger *zap.Logger
}

// Option configures a System
type Option func(*System)

// WithLogger sets the logger used for per-step diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a simulation over mesh, which it takes ownership of
func New(mesh *halfedge.Mesh, opts ...Option) (*System, error) {
	switch {
	case mesh == nil || mesh.VertexCount() == 0:
		return nil, halfedge.ErrEmptyMesh
	case mesh.FaceCount() == 0:
		return nil, halfedge.ErrNoFaces
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("seed mesh: %w", err)
	}

	s := &System{
		mesh:   mesh,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromFaces builds the seed mesh from positions and polygon faces
func NewFromFaces(positions []core.Vec3, faces [][]int, opts ...Option) (*System, error) {
	mesh, err := halfedge.New(positions, faces)
	if err != nil {
		return nil, fmt.Errorf("seed mesh: %w", err)
	}
	return New(mesh, opts...)
}

// Mesh exposes the simulated mesh. Callers must not mutate it.
func (s *System) Mesh() *halfedge.Mesh {
	return s.mesh
}

// Snapshot returns a copy of the current positions and faces
func (s *System) Snapshot() halfedge.Snapshot {
	return s.mesh.Snapshot()
}

// Stats reports counters for the most recent step
func (s *System) Stats() Stats {
	return Stats{
		Step:            s.step,
		Vertices:        s.mesh.VertexCount(),
		Edges:           s.mesh.HalfedgeCount() / 2,
		Faces:           s.mesh.FaceCount(),
		Splits:          s.lastSplits,
		MaxDisplacement: s.lastDisplacement,
	}
}

// Update advances the simulation by one step: optional growth, then
// collision, edge-length and bending constraints evaluated against the
// positions at the start of the step, then a single averaged position update.
func (s *System) Update(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.lastSplits = 0
	if p.Grow {
		s.lastSplits = s.splitLongEdges(p)
	}

	positions := s.mesh.Positions()
	s.acc.reset(len(positions))

	if p.UseSpatialIndex {
		s.collideIndexed(positions, p)
	} else {
		s.collideBruteForce(positions, p)
	}
	s.constrainEdgeLengths(positions, p)
	s.resistBending(positions, p)

	s.lastDisplacement = s.applyMoves(positions)
	s.step++

	s.logger.Debug("growth step",
		zap.Int("step", s.step),
		zap.Int("vertices", s.mesh.VertexCount()),
		zap.Int("faces", s.mesh.FaceCount()),
		zap.Int("splits", s.lastSplits),
		zap.Float64("maxDisplacement", s.lastDisplacement))
	return nil
}

// applyMoves moves every vertex with accumulated weight by its averaged
// displacement and returns the largest displacement applied.
func (s *System) applyMoves(positions []core.Vec3) float64 {
	maxMove := 0.0
	for i, p := range positions {
		move, ok := s.acc.displacement(i)
		if !ok {
			continue
		}
		s.mesh.SetPosition(i, p.Add(move))
		if l := move.Len(); l > maxMove {
			maxMove = l
		}
	}
	return maxMove
}
