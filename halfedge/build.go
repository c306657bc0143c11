package halfedge

import (
	"fmt"

	"meshgrowth/core"
)

// New builds a mesh from vertex positions and polygon faces given as vertex
// index loops. Faces must be consistently oriented and every edge may be
// shared by at most two faces.
func New(positions []core.Vec3, faces [][]int) (*Mesh, error) {
	if len(positions) == 0 {
		return nil, ErrEmptyMesh
	}
	if len(faces) == 0 {
		return nil, ErrNoFaces
	}

	m := &Mesh{
		Vertices:  make([]Vertex, 0, len(positions)),
		Halfedges: make([]Halfedge, 0, 6*len(faces)),
		Faces:     make([]Face, 0, len(faces)),
	}
	for _, p := range positions {
		m.addVertex(p)
	}

	directed := make(map[[2]int]int)
	for fi, corners := range faces {
		if err := checkFace(corners, len(positions)); err != nil {
			return nil, fmt.Errorf("face %d: %w", fi, err)
		}

		f := len(m.Faces)
		loop := make([]int, len(corners))
		for i, a := range corners {
			b := corners[(i+1)%len(corners)]

			h, ok := directed[[2]int{a, b}]
			if ok {
				if m.Halfedges[h].Face != NoFace {
					return nil, fmt.Errorf("face %d: edge %d-%d: %w", fi, a, b, ErrNonManifold)
				}
			} else {
				h = m.addPair(a, b)
				directed[[2]int{a, b}] = h
				directed[[2]int{b, a}] = Pair(h)
			}
			m.Halfedges[h].Face = f
			loop[i] = h
		}

		for i, h := range loop {
			m.link(h, loop[(i+1)%len(loop)])
		}
		m.Faces = append(m.Faces, Face{Halfedge: loop[0]})
	}

	if err := m.linkBoundaries(); err != nil {
		return nil, err
	}
	m.assignOutgoing()
	return m, nil
}

func checkFace(corners []int, vertexCount int) error {
	if len(corners) < 3 {
		return fmt.Errorf("%w: %d corners", ErrInvalidFace, len(corners))
	}
	seen := make(map[int]bool, len(corners))
	for _, v := range corners {
		if v < 0 || v >= vertexCount {
			return fmt.Errorf("%w: vertex %d out of range", ErrInvalidFace, v)
		}
		if seen[v] {
			return fmt.Errorf("%w: vertex %d repeated", ErrInvalidFace, v)
		}
		seen[v] = true
	}
	return nil
}

// linkBoundaries closes the boundary half-edges into loops. A vertex may
// start at most one boundary half-edge.
func (m *Mesh) linkBoundaries() error {
	boundaryFrom := make(map[int]int)
	for h := range m.Halfedges {
		if m.Halfedges[h].Face != NoFace {
			continue
		}
		start := m.Halfedges[h].Start
		if _, dup := boundaryFrom[start]; dup {
			return fmt.Errorf("vertex %d: %w", start, ErrNonManifold)
		}
		boundaryFrom[start] = h
	}

	for h := range m.Halfedges {
		if m.Halfedges[h].Face != NoFace {
			continue
		}
		next, ok := boundaryFrom[m.End(h)]
		if !ok {
			return fmt.Errorf("vertex %d: %w", m.End(h), ErrNonManifold)
		}
		m.link(h, next)
	}
	return nil
}

// assignOutgoing points every vertex at an outgoing half-edge, preferring a
// boundary one so that walking its star starts on the boundary.
func (m *Mesh) assignOutgoing() {
	for h := range m.Halfedges {
		v := m.Halfedges[h].Start
		current := m.Vertices[v].Outgoing
		if current == NoHalfedge || (m.IsBoundary(h) && !m.IsBoundary(current)) {
			m.Vertices[v].Outgoing = h
		}
	}
}
