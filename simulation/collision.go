package simulation

import (
	"meshgrowth/core"
	"meshgrowth/spatial"
)

// collideBruteForce pushes apart every vertex pair closer than the
// collision distance.
func (s *System) collideBruteForce(positions []core.Vec3, p Params) {
	if p.CollisionDistance <= 0 {
		return
	}
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			s.repel(positions, i, j, p)
		}
	}
}

// collideIndexed finds close pairs through an index built over the step's
// positions. Each pair is visited once, from its lower id.
func (s *System) collideIndexed(positions []core.Vec3, p Params) {
	if p.CollisionDistance <= 0 {
		return
	}

	index := spatial.Build(positions)
	for i, pos := range positions {
		neighbors := index.Query(pos, p.CollisionDistance)
		for _, j := range neighbors {
			if j > i && j < len(positions) {
				s.repel(positions, i, j, p)
			}
		}
	}
}

// repel moves i and j apart along the line between them, each by half of
// the spacing deficit. Coincident points get no force.
func (s *System) repel(positions []core.Vec3, i, j int, p Params) {
	d := positions[i].Sub(positions[j])
	distance := d.Len()
	if distance >= p.CollisionDistance {
		return
	}
	dir, ok := core.SafeNormalize(d)
	if !ok {
		return
	}

	move := dir.Mul(0.5 * (p.CollisionDistance - distance))
	s.acc.add(i, move, p.CollisionWeight)
	s.acc.add(j, move.Mul(-1), p.CollisionWeight)
}
