package interp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/wafermap/wafermap/wafer"
)

// estimator evaluates an interpolant at a point. ok is false when the point
// has no estimate (e.g. outside the convex hull).
type estimator interface {
	at(x, y float64) (value float64, ok bool)
}

// uniqueSites collapses samples sharing a location into one site carrying the
// mean of their values. Sites keep first-occurrence order.
func uniqueSites(ds *wafer.Dataset) []site {
	distinct := ds.DistinctCoordinates()
	sites := make([]site, len(distinct))
	for i, s := range distinct {
		sites[i] = site{x: s.X, y: s.Y, value: s.Value, idx: i}
	}
	return sites
}

// === Triangle index ===

// triIndex buckets triangles on a coarse grid over their bounding box so point
// location only tests nearby triangles. Candidates keep triangle order.
type triIndex struct {
	pts        []site
	tris       []triangle
	minX, minY float64
	cellW      float64
	cellH      float64
	nx, ny     int
	buckets    [][]int
}

func newTriIndex(pts []site, tris []triangle) *triIndex {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
	}
	side := int(math.Ceil(math.Sqrt(float64(len(tris)))))
	if side < 1 {
		side = 1
	}
	idx := &triIndex{
		pts:     pts,
		tris:    tris,
		minX:    minX,
		minY:    minY,
		cellW:   math.Max((maxX-minX)/float64(side), math.SmallestNonzeroFloat64),
		cellH:   math.Max((maxY-minY)/float64(side), math.SmallestNonzeroFloat64),
		nx:      side,
		ny:      side,
		buckets: make([][]int, side*side),
	}
	for t, tri := range tris {
		lo := math.Min(pts[tri.a].x, math.Min(pts[tri.b].x, pts[tri.c].x))
		hi := math.Max(pts[tri.a].x, math.Max(pts[tri.b].x, pts[tri.c].x))
		bot := math.Min(pts[tri.a].y, math.Min(pts[tri.b].y, pts[tri.c].y))
		top := math.Max(pts[tri.a].y, math.Max(pts[tri.b].y, pts[tri.c].y))
		i0, j0 := idx.cell(lo, bot)
		i1, j1 := idx.cell(hi, top)
		for j := j0; j <= j1; j++ {
			for i := i0; i <= i1; i++ {
				b := j*idx.nx + i
				idx.buckets[b] = append(idx.buckets[b], t)
			}
		}
	}
	return idx
}

func (idx *triIndex) cell(x, y float64) (int, int) {
	i := int((x - idx.minX) / idx.cellW)
	j := int((y - idx.minY) / idx.cellH)
	return clamp(i, 0, idx.nx-1), clamp(j, 0, idx.ny-1)
}

// locate returns the first triangle containing (x, y) with its barycentric weights.
func (idx *triIndex) locate(x, y float64) (tri triangle, u, v, w float64, ok bool) {
	const tol = -1e-10
	i, j := idx.cell(x, y)
	for _, t := range idx.buckets[j*idx.nx+i] {
		cand := idx.tris[t]
		u, v, w = barycentric(idx.pts, cand, x, y)
		if u >= tol && v >= tol && w >= tol {
			return cand, u, v, w, true
		}
	}
	return triangle{}, 0, 0, 0, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// === Linear ===

// linearEstimator interpolates barycentrically inside Delaunay triangles.
type linearEstimator struct {
	index *triIndex
}

func newLinearEstimator(sites []site) (*linearEstimator, error) {
	tris, err := triangulate(sites)
	if err != nil {
		return nil, err
	}
	return &linearEstimator{index: newTriIndex(sites, tris)}, nil
}

func (e *linearEstimator) at(x, y float64) (float64, bool) {
	tri, u, v, w, ok := e.index.locate(x, y)
	if !ok {
		return 0, false
	}
	p := e.index.pts
	return u*p[tri.a].value + v*p[tri.b].value + w*p[tri.c].value, true
}

// === Cubic ===

// cubicEstimator evaluates a cubic Bézier patch per triangle built from the
// vertex values and least-squares vertex gradients. Patches agree along shared
// edges, so the surface is continuous and reproduces linear data exactly.
type cubicEstimator struct {
	index *triIndex
	gradX []float64
	gradY []float64
}

func newCubicEstimator(sites []site) (*cubicEstimator, error) {
	tris, err := triangulate(sites)
	if err != nil {
		return nil, err
	}
	gx, gy := vertexGradients(sites, tris)
	return &cubicEstimator{index: newTriIndex(sites, tris), gradX: gx, gradY: gy}, nil
}

// vertexGradients fits f(n) - f(v) ≈ g · (n - v) over each vertex's triangle
// neighbours by least squares (QR). Vertices whose system cannot be solved get
// a zero gradient, which degrades the patch toward linear.
func vertexGradients(sites []site, tris []triangle) (gx, gy []float64) {
	neighbours := make([]map[int]bool, len(sites))
	for _, tri := range tris {
		for _, pair := range [3][2]int{{tri.a, tri.b}, {tri.b, tri.c}, {tri.c, tri.a}} {
			for k := 0; k < 2; k++ {
				from, to := pair[k], pair[1-k]
				if neighbours[from] == nil {
					neighbours[from] = make(map[int]bool)
				}
				neighbours[from][to] = true
			}
		}
	}

	gx = make([]float64, len(sites))
	gy = make([]float64, len(sites))
	for v, set := range neighbours {
		if len(set) < 2 {
			continue
		}
		ids := make([]int, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		A := mat.NewDense(len(ids), 2, nil)
		B := mat.NewVecDense(len(ids), nil)
		for r, id := range ids {
			A.Set(r, 0, sites[id].x-sites[v].x)
			A.Set(r, 1, sites[id].y-sites[v].y)
			B.SetVec(r, sites[id].value-sites[v].value)
		}

		var qr mat.QR
		qr.Factorize(A)
		var g mat.VecDense
		if err := qr.SolveVecTo(&g, false, B); err != nil {
			continue
		}
		if math.IsNaN(g.AtVec(0)) || math.IsNaN(g.AtVec(1)) {
			continue
		}
		gx[v], gy[v] = g.AtVec(0), g.AtVec(1)
	}
	return gx, gy
}

func (e *cubicEstimator) at(x, y float64) (float64, bool) {
	tri, u, v, w, ok := e.index.locate(x, y)
	if !ok {
		return 0, false
	}
	p := e.index.pts
	a, b, c := tri.a, tri.b, tri.c
	f1, f2, f3 := p[a].value, p[b].value, p[c].value

	// directional derivative of vertex `from` toward vertex `to`, one third of the edge
	d := func(from, to int) float64 {
		return (e.gradX[from]*(p[to].x-p[from].x) + e.gradY[from]*(p[to].y-p[from].y)) / 3
	}
	b210 := f1 + d(a, b)
	b201 := f1 + d(a, c)
	b120 := f2 + d(b, a)
	b021 := f2 + d(b, c)
	b102 := f3 + d(c, a)
	b012 := f3 + d(c, b)
	edgeMean := (b210 + b201 + b120 + b021 + b102 + b012) / 6
	vertMean := (f1 + f2 + f3) / 3
	b111 := edgeMean + (edgeMean-vertMean)/2

	val := f1*u*u*u + f2*v*v*v + f3*w*w*w +
		3*b210*u*u*v + 3*b120*u*v*v +
		3*b201*u*u*w + 3*b021*v*v*w +
		3*b102*u*w*w + 3*b012*v*w*w +
		6*b111*u*v*w
	return val, true
}

// === Nearest ===

// sitePoint adapts a site to kdtree.Comparable.
type sitePoint site

func (p sitePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(sitePoint)
	if d == 0 {
		return p.x - q.x
	}
	return p.y - q.y
}

func (p sitePoint) Dims() int { return 2 }

func (p sitePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(sitePoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

// sitePoints is a collection of sitePoint that satisfies kdtree.Interface.
type sitePoints []sitePoint

func (p sitePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p sitePoints) Len() int                              { return len(p) }
func (p sitePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot uses median of medians so the tree shape, and with it tie-breaking
// between equidistant sites, does not depend on a random source.
func (p sitePoints) Pivot(d kdtree.Dim) int {
	plane := sitePlane{sitePoints: p, Dim: d}
	return kdtree.Partition(plane, kdtree.MedianOfMedians(plane))
}

// sitePlane implements sort.Interface and kdtree.SortSlicer for sitePoints.
type sitePlane struct {
	sitePoints
	kdtree.Dim
}

func (p sitePlane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.sitePoints[i].x < p.sitePoints[j].x
	}
	return p.sitePoints[i].y < p.sitePoints[j].y
}

func (p sitePlane) Slice(start, end int) kdtree.SortSlicer {
	return sitePlane{sitePoints: p.sitePoints[start:end], Dim: p.Dim}
}

func (p sitePlane) Swap(i, j int) {
	p.sitePoints[i], p.sitePoints[j] = p.sitePoints[j], p.sitePoints[i]
}

// nearestEstimator returns the value of the closest site. It covers every point.
type nearestEstimator struct {
	tree *kdtree.Tree
}

func newNearestEstimator(sites []site) *nearestEstimator {
	pts := make(sitePoints, len(sites))
	for i, s := range sites {
		pts[i] = sitePoint(s)
	}
	return &nearestEstimator{tree: kdtree.New(pts, false)}
}

func (e *nearestEstimator) at(x, y float64) (float64, bool) {
	got, _ := e.tree.Nearest(sitePoint{x: x, y: y})
	if got == nil {
		return 0, false
	}
	return got.(sitePoint).value, true
}
