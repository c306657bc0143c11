// Package spatial indexes point sets in 3D for radius queries. It wraps a
// gonum k-d tree whose entries carry the caller's ids.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"meshgrowth/core"
)

// point is a tree entry. Distance is squared, as kdtree expects.
type point struct {
	id       int
	position core.Vec3
}

func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.position[d] - c.(point).position[d]
}

func (p point) Dims() int { return 3 }

func (p point) Distance(c kdtree.Comparable) float64 {
	d := p.position.Sub(c.(point).position)
	return d.Dot(d)
}

// points implements kdtree.Interface
type points []point

func (p points) Index(i int) kdtree.Comparable         { return p[i] }
func (p points) Len() int                              { return len(p) }
func (p points) Pivot(d kdtree.Dim) int                { return plane{points: p, dim: d}.Pivot() }
func (p points) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane sorts points along one axis for median partitioning
type plane struct {
	points
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	return p.points[i].position[p.dim] < p.points[j].position[p.dim]
}

func (p plane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{points: p.points[start:end], dim: p.dim}
}

func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Index answers radius queries over a set of identified points
type Index struct {
	tree  *kdtree.Tree
	count int
}

// Build creates a balanced index over positions. The id of each point is its
// slice index.
func Build(positions []core.Vec3) *Index {
	entries := make(points, len(positions))
	for i, p := range positions {
		entries[i] = point{id: i, position: p}
	}
	if len(entries) == 0 {
		return &Index{tree: &kdtree.Tree{}}
	}
	return &Index{tree: kdtree.New(entries, false), count: len(entries)}
}

// Len returns the number of indexed points
func (x *Index) Len() int { return x.count }

// Insert adds a point identified by id. Inserted points are not rebalanced.
func (x *Index) Insert(id int, p core.Vec3) {
	x.tree.Insert(point{id: id, position: p}, false)
	x.count++
}

// Query returns the ids of all points within radius of center (inclusive).
// The result is fully materialized before returning.
func (x *Index) Query(center core.Vec3, radius float64) []int {
	if x.count == 0 || radius < 0 || math.IsNaN(radius) {
		return nil
	}

	keeper := kdtree.NewDistKeeper(radius * radius)
	x.tree.NearestSet(keeper, point{id: -1, position: center})

	ids := make([]int, 0, len(keeper.Heap))
	for _, c := range keeper.Heap {
		// The keeper seeds its heap with an empty sentinel
		if c.Comparable == nil {
			continue
		}
		ids = append(ids, c.Comparable.(point).id)
	}
	return ids
}
