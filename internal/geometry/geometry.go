// Package geometry provides the polygon primitives the scoring engine is
// built on. All coordinates live in original image-pixel space; nothing in
// this package knows about screens, scaling, or rendering.
package geometry

import "math"

// Point is a coordinate pair in image-pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is an ordered ring of points. Insertion order defines the edge
// sequence, and the ring is implicitly closed: the last point connects back
// to the first.
type Polygon []Point

// MinVertices is the smallest vertex count that can enclose area. A polygon
// below this is degenerate and means "no region marked" — a valid input,
// not an error.
const MinVertices = 3

// Degenerate reports whether p has too few vertices to enclose any area.
func (p Polygon) Degenerate() bool {
	return len(p) < MinVertices
}

// Centroid returns the arithmetic mean of the polygon's vertices, each axis
// independently. The polygon must contain at least one point; callers guard
// the empty case.
func Centroid(p Polygon) Point {
	var sumX, sumY float64
	for _, pt := range p {
		sumX += pt.X
		sumY += pt.Y
	}
	n := float64(len(p))
	return Point{X: sumX / n, Y: sumY / n}
}

// AreaMagnitude returns the absolute value of the shoelace-formula area of
// p, including the wraparound edge from the last vertex to the first.
// Polygons with fewer than 3 vertices yield 0. Self-intersecting rings are
// not rejected; the formula is applied as-is.
func AreaMagnitude(p Polygon) float64 {
	n := len(p)
	if n < MinVertices {
		return 0
	}

	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += p[i].X * p[j].Y
		area -= p[j].X * p[i].Y
	}

	return math.Abs(area / 2)
}

// Distance returns the euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
