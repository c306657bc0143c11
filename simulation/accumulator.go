package simulation

import "meshgrowth/core"

// accumulator collects weighted moves per vertex for one step
type accumulator struct {
	moves   []core.Vec3
	weights []float64
}

// reset sizes the accumulator to n vertices and zeroes it
func (a *accumulator) reset(n int) {
	if cap(a.moves) < n {
		a.moves = make([]core.Vec3, n)
		a.weights = make([]float64, n)
		return
	}
	a.moves = a.moves[:n]
	a.weights = a.weights[:n]
	for i := range a.moves {
		a.moves[i] = core.Vec3{}
		a.weights[i] = 0
	}
}

// add records a move for vertex i, scaled by weight
func (a *accumulator) add(i int, move core.Vec3, weight float64) {
	a.moves[i] = a.moves[i].Add(move.Mul(weight))
	a.weights[i] += weight
}

// displacement returns the weighted average move of vertex i
func (a *accumulator) displacement(i int) (core.Vec3, bool) {
	if a.weights[i] <= 0 {
		return core.Vec3{}, false
	}
	return a.moves[i].Mul(1 / a.weights[i]), true
}
