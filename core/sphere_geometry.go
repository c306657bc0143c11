package core

import (
	"math"
	"math/rand"
)

// Quad returns a square of the given edge length split into two triangles
// along its 0-2 diagonal.
func Quad(size float64) ([]Vec3, [][]int) {
	positions := []Vec3{
		{0, 0, 0},
		{size, 0, 0},
		{size, size, 0},
		{0, size, 0},
	}
	faces := [][]int{{0, 1, 2}, {0, 2, 3}}
	return positions, faces
}

// Grid returns an open triangulated patch of nx by ny cells in the XY plane,
// centered on the origin. ny == 1 gives a strip.
func Grid(nx, ny int, spacing float64) ([]Vec3, [][]int) {
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}

	offsetX := float64(nx) * spacing / 2
	offsetY := float64(ny) * spacing / 2

	positions := make([]Vec3, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			positions = append(positions, Vec3{
				float64(i)*spacing - offsetX,
				float64(j)*spacing - offsetY,
				0,
			})
		}
	}

	at := func(i, j int) int { return j*(nx+1) + i }

	faces := make([][]int, 0, 2*nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a, b, c, d := at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)
			faces = append(faces, []int{a, b, c}, []int{a, c, d})
		}
	}
	return positions, faces
}

// Icosphere generates a subdivided icosahedron projected onto a sphere
func Icosphere(subdivisions int, radius float64) ([]Vec3, [][]int) {
	// Golden ratio
	t := (1.0 + math.Sqrt(5.0)) / 2.0

	positions := []Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}

	faces := [][]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for i := 0; i < subdivisions; i++ {
		positions, faces = subdivide(positions, faces)
	}

	for i, p := range positions {
		if n, ok := SafeNormalize(p); ok {
			positions[i] = n.Mul(radius)
		}
	}
	return positions, faces
}

// subdivide splits every triangle into four, sharing midpoints across edges
func subdivide(positions []Vec3, faces [][]int) ([]Vec3, [][]int) {
	midpoints := make(map[[2]int]int)
	newPositions := make([]Vec3, len(positions), len(positions)*4)
	copy(newPositions, positions)
	newFaces := make([][]int, 0, len(faces)*4)

	getMidpoint := func(i1, i2 int) int {
		key := [2]int{i1, i2}
		if i1 > i2 {
			key = [2]int{i2, i1}
		}
		if mid, exists := midpoints[key]; exists {
			return mid
		}
		newPositions = append(newPositions, Midpoint(positions[i1], positions[i2]))
		midpoints[key] = len(newPositions) - 1
		return midpoints[key]
	}

	for _, f := range faces {
		v1, v2, v3 := f[0], f[1], f[2]
		m1 := getMidpoint(v1, v2)
		m2 := getMidpoint(v2, v3)
		m3 := getMidpoint(v3, v1)

		newFaces = append(newFaces,
			[]int{v1, m1, m3},
			[]int{v2, m2, m1},
			[]int{v3, m3, m2},
			[]int{m1, m2, m3})
	}
	return newPositions, newFaces
}

// UVSphere generates a closed latitude/longitude sphere. Bands between the
// poles are quads, the two polar caps are triangle fans.
func UVSphere(radius float64, segments, rings int) ([]Vec3, [][]int) {
	// Use default values if not specified
	if segments < 3 {
		segments = 16
	}
	if rings < 2 {
		rings = 8
	}

	positions := make([]Vec3, 0, 2+(rings-1)*segments)
	positions = append(positions, Vec3{0, radius, 0})
	for ring := 1; ring < rings; ring++ {
		theta := float64(ring) * math.Pi / float64(rings)
		sinTheta, cosTheta := math.Sin(theta), math.Cos(theta)

		for seg := 0; seg < segments; seg++ {
			phi := float64(seg) * 2.0 * math.Pi / float64(segments)
			positions = append(positions, Vec3{
				math.Cos(phi) * sinTheta * radius,
				cosTheta * radius,
				math.Sin(phi) * sinTheta * radius,
			})
		}
	}
	bottom := len(positions)
	positions = append(positions, Vec3{0, -radius, 0})

	at := func(ring, seg int) int {
		return 1 + (ring-1)*segments + seg%segments
	}

	var faces [][]int
	for seg := 0; seg < segments; seg++ {
		faces = append(faces, []int{0, at(1, seg), at(1, seg+1)})
	}
	for ring := 1; ring < rings-1; ring++ {
		for seg := 0; seg < segments; seg++ {
			faces = append(faces, []int{at(ring, seg), at(ring+1, seg), at(ring+1, seg+1), at(ring, seg+1)})
		}
	}
	last := rings - 1
	for seg := 0; seg < segments; seg++ {
		faces = append(faces, []int{bottom, at(last, seg+1), at(last, seg)})
	}
	return positions, faces
}

// Jitter displaces every position by a random offset of at most amount
// along each axis. The same seed always produces the same offsets.
func Jitter(positions []Vec3, amount float64, seed int64) {
	if amount <= 0 {
		return
	}
	rng := rand.New(rand.NewSource(seed))
	for i := range positions {
		offset := Vec3{
			(rng.Float64()*2 - 1) * amount,
			(rng.Float64()*2 - 1) * amount,
			(rng.Float64()*2 - 1) * amount,
		}
		positions[i] = positions[i].Add(offset)
	}
}
