package halfedge

import (
	"fmt"

	"meshgrowth/core"
)

// SplitEdge inserts a new vertex at p on the edge of h. Afterwards h runs
// from its old start to the new vertex and the returned half-edge runs from
// the new vertex to the old end. Faces adjacent to the edge gain a corner
// but are not divided; see SplitFace.
func (m *Mesh) SplitEdge(h int, p core.Vec3) (int, error) {
	if !m.validHalfedge(h) {
		return NoHalfedge, fmt.Errorf("split edge %d: %w", h, ErrInvalidHalfedge)
	}

	pair := Pair(h)
	end := m.Halfedges[pair].Start
	v := m.addVertex(p)

	n1 := m.addPair(v, end)
	n2 := Pair(n1)
	m.Halfedges[n1].Face = m.Halfedges[h].Face
	m.Halfedges[n2].Face = m.Halfedges[pair].Face

	// h -> n1 -> old next(h)
	m.link(n1, m.Halfedges[h].Next)
	m.link(h, n1)

	// old prev(pair) -> n2 -> pair
	m.link(m.Halfedges[pair].Prev, n2)
	m.link(n2, pair)

	m.Halfedges[pair].Start = v
	m.Vertices[v].Outgoing = n1
	if m.IsBoundary(pair) {
		m.Vertices[v].Outgoing = pair
	}
	if m.Vertices[end].Outgoing == pair {
		m.Vertices[end].Outgoing = n2
	}
	return n1, nil
}

// SplitFace divides the face shared by a and b with a new edge between
// their start vertices. The face keeps the loop containing b; the loop
// containing a becomes a new face, whose index is returned.
func (m *Mesh) SplitFace(a, b int) (int, error) {
	if !m.validHalfedge(a) || !m.validHalfedge(b) {
		return NoFace, fmt.Errorf("split face %d/%d: %w", a, b, ErrInvalidHalfedge)
	}

	f := m.Halfedges[a].Face
	switch {
	case f == NoFace, m.Halfedges[b].Face != f:
		return NoFace, fmt.Errorf("split face %d/%d: not on the same face: %w", a, b, ErrCannotSplit)
	case a == b, m.Halfedges[a].Next == b, m.Halfedges[b].Next == a:
		return NoFace, fmt.Errorf("split face %d/%d: adjacent half-edges: %w", a, b, ErrCannotSplit)
	}

	prevA := m.Halfedges[a].Prev
	prevB := m.Halfedges[b].Prev

	// e1 closes the loop b..prevA, e2 closes the loop a..prevB.
	e1 := m.addPair(m.Halfedges[a].Start, m.Halfedges[b].Start)
	e2 := Pair(e1)

	m.link(prevA, e1)
	m.link(e1, b)
	m.link(prevB, e2)
	m.link(e2, a)

	g := len(m.Faces)
	m.Faces = append(m.Faces, Face{Halfedge: e2})
	m.Faces[f].Halfedge = e1

	m.Halfedges[e1].Face = f
	for h := e2; ; {
		m.Halfedges[h].Face = g
		h = m.Halfedges[h].Next
		if h == e2 {
			break
		}
	}
	return g, nil
}
