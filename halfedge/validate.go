package halfedge

import (
	"errors"
	"fmt"
)

// ErrBrokenTopology is wrapped by every error Validate reports
var ErrBrokenTopology = errors.New("halfedge: broken topology")

// Validate checks the pairing and loop invariants: every half-edge has a
// valid pair, next and prev; next/prev are inverse; every face loop closes
// with at least three corners; every vertex star closes.
func (m *Mesh) Validate() error {
	hc := len(m.Halfedges)
	if hc%2 != 0 {
		return fmt.Errorf("%w: odd half-edge count %d", ErrBrokenTopology, hc)
	}

	for h, he := range m.Halfedges {
		switch {
		case he.Start < 0 || he.Start >= len(m.Vertices):
			return fmt.Errorf("%w: half-edge %d starts at invalid vertex %d", ErrBrokenTopology, h, he.Start)
		case !m.validHalfedge(he.Next) || !m.validHalfedge(he.Prev):
			return fmt.Errorf("%w: half-edge %d has invalid next/prev", ErrBrokenTopology, h)
		case m.Halfedges[he.Next].Prev != h || m.Halfedges[he.Prev].Next != h:
			return fmt.Errorf("%w: half-edge %d next/prev are not inverse", ErrBrokenTopology, h)
		case m.Halfedges[he.Next].Start != m.End(h):
			return fmt.Errorf("%w: half-edge %d next does not start at its end", ErrBrokenTopology, h)
		case m.Halfedges[he.Next].Face != he.Face:
			return fmt.Errorf("%w: half-edge %d and its next disagree on face", ErrBrokenTopology, h)
		case he.Face != NoFace && (he.Face < 0 || he.Face >= len(m.Faces)):
			return fmt.Errorf("%w: half-edge %d has invalid face %d", ErrBrokenTopology, h, he.Face)
		case m.End(h) == he.Start:
			return fmt.Errorf("%w: half-edge %d is a loop", ErrBrokenTopology, h)
		}
	}

	for f, face := range m.Faces {
		if !m.validHalfedge(face.Halfedge) || m.Halfedges[face.Halfedge].Face != f {
			return fmt.Errorf("%w: face %d does not own its half-edge", ErrBrokenTopology, f)
		}
		n := 1
		for h := m.Halfedges[face.Halfedge].Next; h != face.Halfedge; h = m.Halfedges[h].Next {
			n++
			if n > hc {
				return fmt.Errorf("%w: face %d loop does not close", ErrBrokenTopology, f)
			}
		}
		if n < 3 {
			return fmt.Errorf("%w: face %d has %d corners", ErrBrokenTopology, f, n)
		}
	}

	for v, vert := range m.Vertices {
		if vert.Outgoing == NoHalfedge {
			continue
		}
		if !m.validHalfedge(vert.Outgoing) || m.Halfedges[vert.Outgoing].Start != v {
			return fmt.Errorf("%w: vertex %d outgoing half-edge does not start there", ErrBrokenTopology, v)
		}
		n := 1
		for h := m.Halfedges[Pair(vert.Outgoing)].Next; h != vert.Outgoing; h = m.Halfedges[Pair(h)].Next {
			if m.Halfedges[h].Start != v {
				return fmt.Errorf("%w: vertex %d star leaves the vertex", ErrBrokenTopology, v)
			}
			n++
			if n > hc {
				return fmt.Errorf("%w: vertex %d star does not close", ErrBrokenTopology, v)
			}
		}
	}
	return nil
}
