package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the length below which a direction is treated as degenerate
const Epsilon = 1e-12

// Vec3 is the position and displacement type shared by every package
type Vec3 = mgl64.Vec3

// Distance returns the Euclidean distance between two points
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// SafeNormalize returns the unit vector of v, or false when v is too short
// to carry a direction (coincident points, zero-area triangles).
func SafeNormalize(v Vec3) (Vec3, bool) {
	length := v.Len()
	if length < Epsilon || math.IsNaN(length) || math.IsInf(length, 0) {
		return Vec3{}, false
	}
	return v.Mul(1 / length), true
}

// Midpoint returns the point halfway between a and b
func Midpoint(a, b Vec3) Vec3 {
	return a.Add(b).Mul(0.5)
}

// Plane is an oriented plane through Origin with unit Normal
type Plane struct {
	Origin Vec3
	Normal Vec3
}

// NewPlane builds a plane from an origin and a (not necessarily unit) normal.
// It reports false when the normal is degenerate.
func NewPlane(origin, normal Vec3) (Plane, bool) {
	n, ok := SafeNormalize(normal)
	if !ok {
		return Plane{}, false
	}
	return Plane{Origin: origin, Normal: n}, true
}

// SignedDistance returns the distance from the plane to p, positive on the normal side
func (pl Plane) SignedDistance(p Vec3) float64 {
	return p.Sub(pl.Origin).Dot(pl.Normal)
}

// ClosestPoint returns the orthogonal projection of p onto the plane
func (pl Plane) ClosestPoint(p Vec3) Vec3 {
	return p.Sub(pl.Normal.Mul(pl.SignedDistance(p)))
}

// MeshUpdateType tags a MeshData message on the wire
const MeshUpdateType = "mesh_update"

// MeshData is sent to viewers for rendering
type MeshData struct {
	Type      string       `json:"type"`
	Step      int          `json:"step"`
	Vertices  [][3]float64 `json:"vertices"`
	Faces     [][]int      `json:"faces"`
	Indices   []int        `json:"indices"` // fan-triangulated faces
	Growing   bool         `json:"growing"`
	Paused    bool         `json:"paused"`
	MaxVertex int          `json:"maxVertexCount"`
}

// NewMeshData converts positions and polygon faces into a display snapshot
func NewMeshData(step int, positions []Vec3, faces [][]int) MeshData {
	vertices := make([][3]float64, len(positions))
	for i, p := range positions {
		vertices[i] = [3]float64{p[0], p[1], p[2]}
	}

	return MeshData{
		Type:     MeshUpdateType,
		Step:     step,
		Vertices: vertices,
		Faces:    faces,
		Indices:  Triangulate(faces),
	}
}

// Triangulate fans every polygon around its first corner
func Triangulate(faces [][]int) []int {
	count := 0
	for _, f := range faces {
		if len(f) >= 3 {
			count += 3 * (len(f) - 2)
		}
	}

	indices := make([]int, 0, count)
	for _, f := range faces {
		for i := 1; i+1 < len(f); i++ {
			indices = append(indices, f[0], f[i], f[i+1])
		}
	}
	return indices
}

// UniqueEdges lists every undirected edge of the faces once, lower index first
func UniqueEdges(faces [][]int) [][2]int {
	seen := make(map[[2]int]bool)
	var edges [][2]int
	for _, f := range faces {
		for i, a := range f {
			b := f[(i+1)%len(f)]
			key := [2]int{min(a, b), max(a, b)}
			if !seen[key] {
				seen[key] = true
				edges = append(edges, key)
			}
		}
	}
	return edges
}

// Bounds returns the axis-aligned box around positions
func Bounds(positions []Vec3) (lo, hi Vec3) {
	if len(positions) == 0 {
		return Vec3{}, Vec3{}
	}
	lo, hi = positions[0], positions[0]
	for _, p := range positions[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p[i])
			hi[i] = math.Max(hi[i], p[i])
		}
	}
	return lo, hi
}
