package simulation

import (
	"meshgrowth/core"
	"meshgrowth/halfedge"
)

// constrainEdgeLengths pulls the endpoints of every edge longer than the
// collision distance toward each other by half the excess. Short edges are
// left alone.
func (s *System) constrainEdgeLengths(positions []core.Vec3, p Params) {
	m := s.mesh
	halfedgeCount := m.HalfedgeCount()

	for k := 0; k+1 < halfedgeCount; k += 2 {
		a := m.Halfedges[k].Start
		b := m.Halfedges[halfedge.Pair(k)].Start
		if a >= len(positions) || b >= len(positions) {
			continue
		}

		d := positions[b].Sub(positions[a])
		length := d.Len()
		if length <= p.CollisionDistance {
			continue
		}
		dir, ok := core.SafeNormalize(d)
		if !ok {
			continue
		}

		move := dir.Mul(0.5 * (length - p.CollisionDistance))
		s.acc.add(a, move, p.EdgeLengthWeight)
		s.acc.add(b, move.Mul(-1), p.EdgeLengthWeight)
	}
}
