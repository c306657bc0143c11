// Package halfedge implements an append-only half-edge mesh.
//
// Vertices, half-edges and faces live in flat slices and reference each
// other by index. Half-edges are always allocated in pairs, so the opposite
// of half-edge h is h^1. Elements are never removed; an index stays valid for
// the lifetime of the mesh.
package halfedge

import (
	"errors"

	"meshgrowth/core"
)

// NoFace marks a half-edge that lies on a boundary
const NoFace = -1

// NoHalfedge marks a vertex that has no incident edge
const NoHalfedge = -1

var (
	ErrEmptyMesh       = errors.New("halfedge: mesh has no vertices")
	ErrNoFaces         = errors.New("halfedge: mesh has no faces")
	ErrInvalidFace     = errors.New("halfedge: invalid face")
	ErrNonManifold     = errors.New("halfedge: non-manifold connectivity")
	ErrInvalidHalfedge = errors.New("halfedge: invalid half-edge")
	ErrCannotSplit     = errors.New("halfedge: half-edges cannot split this face")
)

// Vertex is a mesh corner. Outgoing is any half-edge starting here, or
// NoHalfedge for an isolated vertex.
type Vertex struct {
	Position core.Vec3
	Outgoing int
}

// Halfedge is one directed side of an edge. Face is NoFace on boundaries.
type Halfedge struct {
	Start int
	Next  int
	Prev  int
	Face  int
}

// Face references one of the half-edges of its loop
type Face struct {
	Halfedge int
}

// Mesh is the half-edge connectivity plus vertex positions
type Mesh struct {
	Vertices  []Vertex
	Halfedges []Halfedge
	Faces     []Face
}

// Pair returns the opposite half-edge of h
func Pair(h int) int {
	return h ^ 1
}

// VertexCount returns the number of vertices
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// HalfedgeCount returns the number of half-edges (twice the edge count)
func (m *Mesh) HalfedgeCount() int { return len(m.Halfedges) }

// FaceCount returns the number of faces
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// Position returns the position of vertex v
func (m *Mesh) Position(v int) core.Vec3 {
	return m.Vertices[v].Position
}

// SetPosition moves vertex v
func (m *Mesh) SetPosition(v int, p core.Vec3) {
	m.Vertices[v].Position = p
}

// Positions returns a copy of every vertex position, indexed by vertex id
func (m *Mesh) Positions() []core.Vec3 {
	positions := make([]core.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = v.Position
	}
	return positions
}

// End returns the vertex half-edge h points to
func (m *Mesh) End(h int) int {
	return m.Halfedges[Pair(h)].Start
}

// IsBoundary reports whether h has no adjacent face
func (m *Mesh) IsBoundary(h int) bool {
	return m.Halfedges[h].Face == NoFace
}

// Length returns the distance between the endpoints of h
func (m *Mesh) Length(h int) float64 {
	return core.Distance(m.Position(m.Halfedges[h].Start), m.Position(m.End(h)))
}

// FaceHalfedges returns the half-edges around face f in loop order
func (m *Mesh) FaceHalfedges(f int) []int {
	start := m.Faces[f].Halfedge
	loop := []int{start}
	for h := m.Halfedges[start].Next; h != start; h = m.Halfedges[h].Next {
		loop = append(loop, h)
		if len(loop) > len(m.Halfedges) {
			break
		}
	}
	return loop
}

// FaceVertices returns the corners of face f in loop order
func (m *Mesh) FaceVertices(f int) []int {
	loop := m.FaceHalfedges(f)
	vertices := make([]int, len(loop))
	for i, h := range loop {
		vertices[i] = m.Halfedges[h].Start
	}
	return vertices
}

// OutgoingHalfedges returns the half-edges starting at v, rotating around it
func (m *Mesh) OutgoingHalfedges(v int) []int {
	start := m.Vertices[v].Outgoing
	if start == NoHalfedge {
		return nil
	}
	star := []int{start}
	for h := m.Halfedges[Pair(start)].Next; h != start; h = m.Halfedges[Pair(h)].Next {
		star = append(star, h)
		if len(star) > len(m.Halfedges) {
			break
		}
	}
	return star
}

// Snapshot is a connectivity-free copy of the mesh for display or export
type Snapshot struct {
	Positions []core.Vec3
	Faces     [][]int
}

// Snapshot copies positions and face corner lists
func (m *Mesh) Snapshot() Snapshot {
	faces := make([][]int, len(m.Faces))
	for f := range m.Faces {
		faces[f] = m.FaceVertices(f)
	}
	return Snapshot{Positions: m.Positions(), Faces: faces}
}

func (m *Mesh) addVertex(p core.Vec3) int {
	m.Vertices = append(m.Vertices, Vertex{Position: p, Outgoing: NoHalfedge})
	return len(m.Vertices) - 1
}

// addPair appends a half-edge pair between a and b. The first returned index
// runs a->b. Both start as boundary half-edges linked to each other.
func (m *Mesh) addPair(a, b int) int {
	h := len(m.Halfedges)
	m.Halfedges = append(m.Halfedges,
		Halfedge{Start: a, Next: h + 1, Prev: h + 1, Face: NoFace},
		Halfedge{Start: b, Next: h, Prev: h, Face: NoFace},
	)
	return h
}

func (m *Mesh) link(prev, next int) {
	m.Halfedges[prev].Next = next
	m.Halfedges[next].Prev = prev
}

func (m *Mesh) validHalfedge(h int) bool {
	return h >= 0 && h < len(m.Halfedges)
}
