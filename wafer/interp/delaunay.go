package interp

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/delaunay"
)

// errDegenerateTriangulation is returned when the sites span no area.
var errDegenerateTriangulation = errors.New("degenerate triangulation: sites span no area")

// minTriangleArea is the area, relative to the squared site span, at or below
// which a triangle is treated as a sliver.
const minTriangleArea = 1e-9

// site is a unique sample location with its (averaged) value.
type site struct {
	x, y  float64
	value float64
	idx   int
}

// triangle references three sites by index, counter-clockwise.
type triangle struct {
	a, b, c int
}

// triangulate builds the Delaunay triangulation of sites and drops slivers.
// Triangles keep the order the triangulator emits them in, so the output is
// deterministic for a given site order.
func triangulate(sites []site) ([]triangle, error) {
	if len(sites) < 3 {
		return nil, errDegenerateTriangulation
	}

	points := make([]delaunay.Point, len(sites))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, s := range sites {
		points[i] = delaunay.Point{X: s.x, Y: s.y}
		minX, maxX = math.Min(minX, s.x), math.Max(maxX, s.x)
		minY, maxY = math.Min(minY, s.y), math.Max(maxY, s.y)
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		return nil, errDegenerateTriangulation
	}

	tri, err := delaunay.Triangulate(points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDegenerateTriangulation, err)
	}

	out := make([]triangle, 0, len(tri.Triangles)/3)
	for i := 0; i+2 < len(tri.Triangles); i += 3 {
		a, b, c := tri.Triangles[i], tri.Triangles[i+1], tri.Triangles[i+2]
		area := area2(sites, a, b, c)
		if math.Abs(area) <= minTriangleArea*span*span {
			continue
		}
		if area < 0 {
			b, c = c, b
		}
		out = append(out, triangle{a: a, b: b, c: c})
	}
	if len(out) == 0 {
		return nil, errDegenerateTriangulation
	}
	return out, nil
}

// area2 returns twice the signed area of (a, b, c); positive when counter-clockwise.
func area2(pts []site, a, b, c int) float64 {
	return (pts[b].x-pts[a].x)*(pts[c].y-pts[a].y) - (pts[b].y-pts[a].y)*(pts[c].x-pts[a].x)
}

// barycentric returns the barycentric weights of (x, y) in tri.
func barycentric(pts []site, tri triangle, x, y float64) (u, v, w float64) {
	ax, ay := pts[tri.a].x, pts[tri.a].y
	bx, by := pts[tri.b].x, pts[tri.b].y
	cx, cy := pts[tri.c].x, pts[tri.c].y
	det := (by-cy)*(ax-cx) + (cx-bx)*(ay-cy)
	u = ((by-cy)*(x-cx) + (cx-bx)*(y-cy)) / det
	v = ((cy-ay)*(x-cx) + (ax-cx)*(y-cy)) / det
	w = 1 - u - v
	return u, v, w
}
