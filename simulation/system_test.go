package simulation

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"meshgrowth/core"
	"meshgrowth/halfedge"
)

const tolerance = 1e-9

func newSystem(t *testing.T, positions []core.Vec3, faces [][]int) *System {
	t.Helper()
	s, err := NewFromFaces(positions, faces)
	if err != nil {
		t.Fatalf("NewFromFaces: %v", err)
	}
	return s
}

func jitteredIcosphere(t *testing.T) *System {
	t.Helper()
	positions, faces := core.Icosphere(1, 1)
	core.Jitter(positions, 0.05, 3)
	return newSystem(t, positions, faces)
}

func TestNewRejectsBadSeeds(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, halfedge.ErrEmptyMesh) {
		t.Errorf("New(nil): got %v, want ErrEmptyMesh", err)
	}
	if _, err := New(&halfedge.Mesh{Vertices: []halfedge.Vertex{{Outgoing: halfedge.NoHalfedge}}}); !errors.Is(err, halfedge.ErrNoFaces) {
		t.Errorf("New(no faces): got %v, want ErrNoFaces", err)
	}
	positions, _ := core.Quad(1)
	if _, err := NewFromFaces(positions, nil); !errors.Is(err, halfedge.ErrNoFaces) {
		t.Errorf("NewFromFaces(no faces): got %v, want ErrNoFaces", err)
	}
	if _, err := NewFromFaces(nil, nil); !errors.Is(err, halfedge.ErrEmptyMesh) {
		t.Errorf("NewFromFaces(empty): got %v, want ErrEmptyMesh", err)
	}
}

func TestUpdateRejectsInvalidParams(t *testing.T) {
	s := jitteredIcosphere(t)
	before := s.Snapshot()

	tests := []struct {
		name   string
		params Params
	}{
		{"negative distance", Params{CollisionDistance: -1}},
		{"negative collision weight", Params{CollisionWeight: -1}},
		{"NaN edge weight", Params{EdgeLengthWeight: math.NaN()}},
		{"infinite bending weight", Params{BendingWeight: math.Inf(1)}},
		{"negative vertex cap", Params{MaxVertexCount: -5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.Update(tc.params); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("got %v, want ErrInvalidParams", err)
			}
		})
	}

	after := s.Snapshot()
	for i := range before.Positions {
		if before.Positions[i] != after.Positions[i] {
			t.Fatalf("vertex %d moved after rejected updates", i)
		}
	}
	if s.Stats().Step != 0 {
		t.Errorf("Step: got %d, want 0", s.Stats().Step)
	}
}

func TestNoOpStep(t *testing.T) {
	for _, indexed := range []bool{false, true} {
		s := jitteredIcosphere(t)
		before := s.Snapshot()

		if err := s.Update(Params{UseSpatialIndex: indexed}); err != nil {
			t.Fatalf("Update: %v", err)
		}

		after := s.Snapshot()
		if len(after.Positions) != len(before.Positions) || len(after.Faces) != len(before.Faces) {
			t.Fatalf("indexed=%v: topology changed", indexed)
		}
		for i := range before.Positions {
			if before.Positions[i] != after.Positions[i] {
				t.Errorf("indexed=%v: vertex %d moved from %v to %v", indexed, i, before.Positions[i], after.Positions[i])
			}
		}
		for f := range before.Faces {
			for c := range before.Faces[f] {
				if before.Faces[f][c] != after.Faces[f][c] {
					t.Fatalf("indexed=%v: face %d changed", indexed, f)
				}
			}
		}
	}
}

func TestCollisionSeparation(t *testing.T) {
	for _, indexed := range []bool{false, true} {
		positions := []core.Vec3{{0, 0, 0}, {0.2, 0, 0}, {0, 100, 0}}
		s := newSystem(t, positions, [][]int{{0, 1, 2}})

		err := s.Update(Params{
			CollisionDistance: 1,
			CollisionWeight:   1,
			UseSpatialIndex:   indexed,
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}

		a, b := s.Mesh().Position(0), s.Mesh().Position(1)
		if d := core.Distance(a, b); math.Abs(d-1) > tolerance {
			t.Errorf("indexed=%v: separation %v, want 1", indexed, d)
		}
		if math.Abs(a[1]) > tolerance || math.Abs(a[2]) > tolerance ||
			math.Abs(b[1]) > tolerance || math.Abs(b[2]) > tolerance {
			t.Errorf("indexed=%v: vertices left the separation axis: %v %v", indexed, a, b)
		}
		if math.Abs(a[0]+0.4) > tolerance || math.Abs(b[0]-0.6) > tolerance {
			t.Errorf("indexed=%v: got %v and %v, want symmetric moves", indexed, a, b)
		}
		if s.Mesh().Position(2) != positions[2] {
			t.Errorf("indexed=%v: distant vertex moved", indexed)
		}
	}
}

func TestCoincidentVerticesGetNoForce(t *testing.T) {
	positions := []core.Vec3{{0, 0, 0}, {0, 0, 0}, {0, 5, 0}}
	s := newSystem(t, positions, [][]int{{0, 1, 2}})

	for _, indexed := range []bool{false, true} {
		if err := s.Update(Params{CollisionDistance: 1, CollisionWeight: 1, UseSpatialIndex: indexed}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		for i, p := range s.Snapshot().Positions {
			for _, c := range p {
				if math.IsNaN(c) {
					t.Fatalf("indexed=%v: vertex %d became NaN", indexed, i)
				}
			}
		}
	}
}

func TestStrategyEquivalence(t *testing.T) {
	positions, faces := core.Grid(6, 6, 0.3)
	rng := rand.New(rand.NewSource(11))
	for i := range positions {
		positions[i][2] = rng.Float64() * 0.4
	}
	core.Jitter(positions, 0.2, 5)
	s := newSystem(t, positions, faces)
	p := Params{CollisionDistance: 0.45, CollisionWeight: 0.7}

	snapshot := s.Mesh().Positions()

	s.acc.reset(len(snapshot))
	s.collideBruteForce(snapshot, p)
	bruteMoves := append([]core.Vec3(nil), s.acc.moves...)
	bruteWeights := append([]float64(nil), s.acc.weights...)

	s.acc.reset(len(snapshot))
	s.collideIndexed(snapshot, p)

	touched := 0
	for i := range snapshot {
		if !bruteMoves[i].ApproxEqualThreshold(s.acc.moves[i], tolerance) {
			t.Errorf("vertex %d: brute move %v, indexed move %v", i, bruteMoves[i], s.acc.moves[i])
		}
		if math.Abs(bruteWeights[i]-s.acc.weights[i]) > tolerance {
			t.Errorf("vertex %d: brute weight %v, indexed weight %v", i, bruteWeights[i], s.acc.weights[i])
		}
		if bruteWeights[i] > 0 {
			touched++
		}
	}
	if touched == 0 {
		t.Fatal("no collisions in test setup")
	}
}

func TestStrategiesAgreeOverSeveralSteps(t *testing.T) {
	positions, faces := core.Icosphere(2, 1)
	core.Jitter(positions, 0.02, 9)

	brute := newSystem(t, append([]core.Vec3(nil), positions...), faces)
	indexed := newSystem(t, append([]core.Vec3(nil), positions...), faces)

	p := Params{CollisionDistance: 0.4, CollisionWeight: 1, EdgeLengthWeight: 1, BendingWeight: 0.5}
	for step := 0; step < 5; step++ {
		if err := brute.Update(p); err != nil {
			t.Fatalf("brute Update: %v", err)
		}
		pi := p
		pi.UseSpatialIndex = true
		if err := indexed.Update(pi); err != nil {
			t.Fatalf("indexed Update: %v", err)
		}
	}

	a, b := brute.Snapshot().Positions, indexed.Snapshot().Positions
	for i := range a {
		if !a[i].ApproxEqualThreshold(b[i], 1e-6) {
			t.Fatalf("vertex %d diverged: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestGrowthSplitsAtMidpoints(t *testing.T) {
	positions, faces := core.Quad(1)
	s := newSystem(t, positions, faces)

	if err := s.Update(Params{Grow: true, MaxVertexCount: 100, CollisionDistance: 0.9}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	m := s.Mesh()
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	stats := s.Stats()
	if stats.Splits != 5 || stats.Vertices != 9 || stats.Faces != 8 {
		t.Fatalf("got %+v, want 5 splits, 9 vertices, 8 faces", stats)
	}

	wantMidpoints := []core.Vec3{
		{0.5, 0, 0}, {1, 0.5, 0}, {0.5, 0.5, 0}, {0.5, 1, 0}, {0, 0.5, 0},
	}
	for _, want := range wantMidpoints {
		found := false
		for v := 4; v < m.VertexCount(); v++ {
			if m.Position(v).ApproxEqualThreshold(want, tolerance) {
				found = true
			}
		}
		if !found {
			t.Errorf("no vertex at midpoint %v", want)
		}
	}
	for f := range m.Faces {
		if n := len(m.FaceVertices(f)); n != 3 {
			t.Errorf("face %d has %d corners, want 3", f, n)
		}
	}
}

func TestGrowthRespectsVertexCap(t *testing.T) {
	positions, faces := core.Grid(2, 2, 1)
	s := newSystem(t, positions, faces)
	p := Params{
		Grow:              true,
		MaxVertexCount:    40,
		CollisionDistance: 0.1,
		CollisionWeight:   1,
		EdgeLengthWeight:  0.5,
		BendingWeight:     0.2,
		UseSpatialIndex:   true,
	}

	for step := 0; step < 20; step++ {
		if err := s.Update(p); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if n := s.Mesh().VertexCount(); n > p.MaxVertexCount {
			t.Fatalf("step %d: %d vertices exceeds cap %d", step, n, p.MaxVertexCount)
		}
		if err := s.Mesh().Validate(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	}
	if n := s.Mesh().VertexCount(); n != p.MaxVertexCount {
		t.Errorf("vertex count: got %d, want %d", n, p.MaxVertexCount)
	}
}

func TestGrowthDisabledKeepsTopology(t *testing.T) {
	s := jitteredIcosphere(t)
	vertices := s.Mesh().VertexCount()

	if err := s.Update(Params{MaxVertexCount: 1000, CollisionDistance: 0.01}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s.Mesh().VertexCount() != vertices || s.Stats().Splits != 0 {
		t.Errorf("growth ran while disabled")
	}
}

func TestEdgeLengthContractsLongEdges(t *testing.T) {
	h := math.Sqrt(3)
	positions := []core.Vec3{{0, 0, 0}, {2, 0, 0}, {1, h, 0}}
	s := newSystem(t, positions, [][]int{{0, 1, 2}})

	if err := s.Update(Params{CollisionDistance: 1, EdgeLengthWeight: 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	m := s.Mesh()
	for k := 0; k < m.HalfedgeCount(); k += 2 {
		if l := m.Length(k); math.Abs(l-1.25) > tolerance {
			t.Errorf("edge %d: length %v, want 1.25", k/2, l)
		}
	}
}

func TestEdgeLengthNeverPushesApart(t *testing.T) {
	h := math.Sqrt(3) / 4
	positions := []core.Vec3{{0, 0, 0}, {0.5, 0, 0}, {0.25, h, 0}}
	s := newSystem(t, positions, [][]int{{0, 1, 2}})

	if err := s.Update(Params{CollisionDistance: 1, EdgeLengthWeight: 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	for i, p := range s.Snapshot().Positions {
		if p != positions[i] {
			t.Errorf("vertex %d moved from %v to %v", i, positions[i], p)
		}
	}
}

func TestBendingSkipsBoundaryEdges(t *testing.T) {
	positions := []core.Vec3{
		{0, 0, 0}, {1, 0, 0.3}, {0, 1, -0.2},
		{3, 0, 1}, {4, 1, 0}, {3, 2, 2},
	}
	s := newSystem(t, positions, [][]int{{0, 1, 2}, {3, 4, 5}})

	if err := s.Update(Params{BendingWeight: 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	for i, p := range s.Snapshot().Positions {
		if p != positions[i] {
			t.Errorf("vertex %d moved from %v to %v", i, positions[i], p)
		}
	}
	for i, w := range s.acc.weights {
		if w != 0 {
			t.Errorf("vertex %d: bending weight %v, want 0", i, w)
		}
	}
}

func TestBendingFlattensQuad(t *testing.T) {
	positions, faces := core.Quad(1)
	positions[3][2] = 0.5
	s := newSystem(t, positions, faces)

	m := s.Mesh()
	var diagonal int
	for k := 0; k < m.HalfedgeCount(); k += 2 {
		if !m.IsBoundary(k) && !m.IsBoundary(halfedge.Pair(k)) {
			diagonal = k
		}
	}
	i := m.Halfedges[diagonal].Start
	j := m.End(diagonal)
	pv := m.Halfedges[m.Halfedges[diagonal].Prev].Start
	qv := m.Halfedges[m.Halfedges[halfedge.Pair(diagonal)].Prev].Start
	plane, ok := bendingPlane(positions[i], positions[j], positions[pv], positions[qv])
	if !ok {
		t.Fatal("degenerate bending plane")
	}

	if err := s.Update(Params{CollisionDistance: 100, BendingWeight: 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	for v := range positions {
		before := math.Abs(plane.SignedDistance(positions[v]))
		after := math.Abs(plane.SignedDistance(m.Position(v)))
		if before < tolerance {
			t.Fatalf("vertex %d already on the plane; test setup is wrong", v)
		}
		if after >= before {
			t.Errorf("vertex %d did not approach the plane: %v -> %v", v, before, after)
		}
		if after > tolerance {
			t.Errorf("vertex %d is %v off the plane after a full-weight step", v, after)
		}
		if s.acc.weights[v] != 1 {
			t.Errorf("vertex %d: total weight %v, want only the bending contribution", v, s.acc.weights[v])
		}
	}
}

func TestDegenerateBendingPlane(t *testing.T) {
	a := core.Vec3{0, 0, 0}
	b := core.Vec3{1, 0, 0}
	if _, ok := bendingPlane(a, b, core.Vec3{2, 0, 0}, core.Vec3{3, 0, 0}); ok {
		t.Error("collinear corners should not define a plane")
	}
}

func TestStats(t *testing.T) {
	s := jitteredIcosphere(t)
	if err := s.Update(Params{CollisionDistance: 0.7, CollisionWeight: 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	stats := s.Stats()
	if stats.Step != 1 {
		t.Errorf("Step: got %d, want 1", stats.Step)
	}
	if stats.Edges*2 != s.Mesh().HalfedgeCount() {
		t.Errorf("Edges: got %d, want %d", stats.Edges, s.Mesh().HalfedgeCount()/2)
	}
	if stats.MaxDisplacement <= 0 {
		t.Errorf("MaxDisplacement: got %v, want > 0", stats.MaxDisplacement)
	}
}

func TestIndexedCollisionWithTinyDistanceFarFromOrigin(t *testing.T) {
	positions, faces := core.Quad(1)
	for i := range positions {
		positions[i] = positions[i].Add(core.Vec3{1e4, 1e4, 1e4})
	}
	positions[1] = positions[0].Add(core.Vec3{5e-17, 0, 0})

	brute := newSystem(t, append([]core.Vec3(nil), positions...), faces)
	indexed := newSystem(t, append([]core.Vec3(nil), positions...), faces)

	p := Params{CollisionDistance: 1e-16, CollisionWeight: 1}
	if err := brute.Update(p); err != nil {
		t.Fatalf("brute Update: %v", err)
	}
	p.UseSpatialIndex = true
	if err := indexed.Update(p); err != nil {
		t.Fatalf("indexed Update: %v", err)
	}

	a, b := brute.Snapshot().Positions, indexed.Snapshot().Positions
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("vertex %d: brute %v, indexed %v", i, a[i], b[i])
		}
	}
}
