package simulation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is wrapped by every Params validation error
var ErrInvalidParams = errors.New("simulation: invalid parameters")

// GrowthThreshold is the fraction of the collision distance above which an
// edge is split while growing.
const GrowthThreshold = 0.99

// Params configures a single Update call
type Params struct {
	Grow              bool    `json:"grow"`              // split long edges before relaxing
	MaxVertexCount    int     `json:"maxVertexCount"`    // growth stops once the mesh has this many vertices
	CollisionDistance float64 `json:"collisionDistance"` // target spacing and edge rest length
	CollisionWeight   float64 `json:"collisionWeight"`
	EdgeLengthWeight  float64 `json:"edgeLengthWeight"`
	BendingWeight     float64 `json:"bendingWeight"`
	UseSpatialIndex   bool    `json:"useSpatialIndex"` // index-accelerated collision instead of all pairs
}

// Validate rejects negative or non-finite distances and weights
func (p Params) Validate() error {
	if p.MaxVertexCount < 0 {
		return fmt.Errorf("%w: max vertex count %d", ErrInvalidParams, p.MaxVertexCount)
	}

	values := []struct {
		name  string
		value float64
	}{
		{"collision distance", p.CollisionDistance},
		{"collision weight", p.CollisionWeight},
		{"edge length weight", p.EdgeLengthWeight},
		{"bending weight", p.BendingWeight},
	}
	for _, v := range values {
		if v.value < 0 || math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%w: %s %v", ErrInvalidParams, v.name, v.value)
		}
	}
	return nil
}
