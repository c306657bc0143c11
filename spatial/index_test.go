package spatial

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"meshgrowth/core"
)

// linearScan is the reference every query is checked against
func linearScan(points []core.Vec3, center core.Vec3, radius float64) []int {
	var ids []int
	for j, p := range points {
		if d := p.Sub(center); d.Dot(d) <= radius*radius {
			ids = append(ids, j)
		}
	}
	return ids
}

func sameIDs(t *testing.T, got, want []int) bool {
	t.Helper()
	sort.Ints(got)
	if len(got) != len(want) {
		return false
	}
	for k := range got {
		if got[k] != want[k] {
			return false
		}
	}
	return true
}

func TestQueryMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := make([]core.Vec3, 500)
	for i := range points {
		points[i] = core.Vec3{rng.Float64()*10 - 5, rng.Float64()*10 - 5, rng.Float64()*10 - 5}
	}
	index := Build(points)
	if index.Len() != len(points) {
		t.Fatalf("Len: got %d, want %d", index.Len(), len(points))
	}

	for _, radius := range []float64{0, 0.3, 1, 2.5} {
		for i, center := range points {
			got := index.Query(center, radius)
			want := linearScan(points, center, radius)
			if !sameIDs(t, got, want) {
				t.Fatalf("radius %v, point %d: got %v, want %v", radius, i, got, want)
			}
		}
	}
}

func TestInsertExtendsIndex(t *testing.T) {
	points := []core.Vec3{{0, 0, 0}, {2.9, 0, 0}, {-3.1, 0, 0}}
	index := Build(points[:1])
	index.Insert(1, points[1])
	index.Insert(2, points[2])

	if index.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", index.Len())
	}
	got := index.Query(core.Vec3{}, 3)
	if !sameIDs(t, got, []int{0, 1}) {
		t.Errorf("got %v, want [0 1]", got)
	}
}

func TestQueryEmptyAndInvalid(t *testing.T) {
	if hits := Build(nil).Query(core.Vec3{}, 1); len(hits) != 0 {
		t.Errorf("empty index: got %v", hits)
	}

	empty := Build(nil)
	empty.Insert(7, core.Vec3{1, 1, 1})
	if got := empty.Query(core.Vec3{1, 1, 1}, 0); !sameIDs(t, got, []int{7}) {
		t.Errorf("insert into empty index: got %v, want [7]", got)
	}

	index := Build([]core.Vec3{{0, 0, 0}})
	for _, radius := range []float64{-1, math.NaN()} {
		if hits := index.Query(core.Vec3{}, radius); len(hits) != 0 {
			t.Errorf("radius %v: got %v, want none", radius, hits)
		}
	}
}

func TestTinyRadiusFarFromOrigin(t *testing.T) {
	points := []core.Vec3{{1e4, 1e4, 0}, {1e4 + 1, 1e4, 0}, {1e4, 1e4 + 1, 0}, {1e4 + 1, 1e4 + 1, 0}}
	index := Build(points)

	for i, p := range points {
		if got := index.Query(p, 1e-16); !sameIDs(t, got, []int{i}) {
			t.Errorf("point %d: got %v, want only itself", i, got)
		}
	}
}
