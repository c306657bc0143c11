package simulation

import (
	"go.uber.org/zap"

	"meshgrowth/core"
	"meshgrowth/halfedge"
)

// splitLongEdges splits every edge longer than the growth threshold at its
// midpoint and divides the faces on either side, until the vertex budget is
// spent. Edges created during the pass are left for the next step.
func (s *System) splitLongEdges(p Params) int {
	m := s.mesh
	halfedgeCount := m.HalfedgeCount()
	threshold := GrowthThreshold * p.CollisionDistance

	splits := 0
	for k := 0; k < halfedgeCount; k += 2 {
		if m.VertexCount() >= p.MaxVertexCount {
			break
		}
		if m.Length(k) <= threshold {
			continue
		}
		if err := s.splitEdge(k); err != nil {
			s.logger.Debug("edge split skipped", zap.Int("halfedge", k), zap.Error(err))
			continue
		}
		splits++
	}
	return splits
}

// splitEdge inserts a midpoint vertex on k and triangulates the faces that
// border it.
func (s *System) splitEdge(k int) error {
	m := s.mesh
	pair := halfedge.Pair(k)
	mid := core.Midpoint(m.Position(m.Halfedges[k].Start), m.Position(m.Halfedges[pair].Start))

	n, err := m.SplitEdge(k, mid)
	if err != nil {
		return err
	}

	if !m.IsBoundary(k) {
		if _, err := m.SplitFace(n, m.Halfedges[k].Prev); err != nil {
			return err
		}
	}
	if !m.IsBoundary(pair) {
		if _, err := m.SplitFace(pair, m.Halfedges[m.Halfedges[pair].Next].Next); err != nil {
			return err
		}
	}
	return nil
}
