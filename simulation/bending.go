package simulation

import (
	"meshgrowth/core"
	"meshgrowth/halfedge"
)

// resistBending flattens every interior edge: the two edge endpoints and
// the neighboring corners of both faces are pulled onto a common plane
// through their centroid. Boundary edges are skipped.
func (s *System) resistBending(positions []core.Vec3, p Params) {
	m := s.mesh
	halfedgeCount := m.HalfedgeCount()

	for k := 0; k+1 < halfedgeCount; k += 2 {
		pair := halfedge.Pair(k)
		if m.IsBoundary(k) || m.IsBoundary(pair) {
			continue
		}

		i := m.Halfedges[k].Start
		j := m.Halfedges[pair].Start
		pv := m.Halfedges[m.Halfedges[k].Prev].Start
		qv := m.Halfedges[m.Halfedges[pair].Prev].Start
		corners := [4]int{i, j, pv, qv}

		skip := false
		for _, v := range corners {
			if v >= len(positions) {
				skip = true
			}
		}
		if skip {
			continue
		}

		plane, ok := bendingPlane(positions[i], positions[j], positions[pv], positions[qv])
		if !ok {
			continue
		}
		for _, v := range corners {
			s.acc.add(v, plane.ClosestPoint(positions[v]).Sub(positions[v]), p.BendingWeight)
		}
	}
}

// bendingPlane returns the plane through the centroid of the four corners
// whose normal is the sum of the two unnormalized triangle normals IJP and
// IQJ.
func bendingPlane(vi, vj, vp, vq core.Vec3) (core.Plane, bool) {
	ij := vj.Sub(vi)
	ip := vp.Sub(vi)
	iq := vq.Sub(vi)

	nP := ij.Cross(ip)
	nQ := iq.Cross(ij)

	origin := vi.Add(vj).Add(vp).Add(vq).Mul(0.25)
	return core.NewPlane(origin, nP.Add(nQ))
}
