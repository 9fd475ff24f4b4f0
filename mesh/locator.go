package mesh

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultCandidates is the number of nearest cell centroids tested before the
// locator falls back to an exhaustive bounding-box scan.
const DefaultCandidates = 8

// KDLocator finds cells through a kd-tree over cell centroids. It is read-only
// after construction.
type KDLocator struct {
	m      Mesh
	tree   *kdtree.Tree
	k      int
	cells  []Cell
	boxes  []r3.Box
	faces  map[faceKey]int
	bounds r3.Box
	planar bool
}

// NewKDLocator indexes every cell of m. k is the candidate count, k<=0 selects
// DefaultCandidates.
func NewKDLocator(m Mesh, k int) (*KDLocator, error) {
	if k <= 0 {
		k = DefaultCandidates
	}
	n := m.NumCells()
	if n == 0 {
		return nil, fmt.Errorf("mesh.NewKDLocator: mesh has no cells")
	}
	l := &KDLocator{
		m:      m,
		k:      k,
		cells:  make([]Cell, n),
		boxes:  make([]r3.Box, n),
		faces:  make(map[faceKey]int),
		bounds: m.Bounds(),
		planar: true,
	}
	pts := make(centroids, n)
	for i := 0; i < n; i++ {
		c, err := m.Cell(i)
		if err != nil {
			return nil, err
		}
		l.cells[i] = c
		l.boxes[i] = c.Bounds()
		if c.Shape.Dim() == 3 {
			l.planar = false
		}
		pts[i] = centroid{Vec: c.Centroid(), id: i}
		for _, f := range tensorFaces(c.Shape) {
			l.faces[newFaceKey(c.Nodes, f[0])]++
			l.faces[newFaceKey(c.Nodes, f[1])]++
		}
		for _, f := range simplexFaces(c.Shape) {
			l.faces[newFaceKey(c.Nodes, f)]++
		}
	}
	l.tree = kdtree.New(pts, false)
	return l, nil
}

// Bounds returns the bounds of the indexed mesh.
func (l *KDLocator) Bounds() r3.Box { return l.bounds }

// FindCell implements Locator. Lookups that are not ghost aware skip exterior
// ghost zones only; ghost-aware lookups skip every ghost zone and resolve points on
// a face shared by two cells to the cell for which the face is a parametric min
// face, so that a point is owned by exactly one cell across correctly ghosted
// partitions.
func (l *KDLocator) FindCell(p r3.Vec, w *Weights, ghostAware bool) int {
	if !inBox(l.bounds, p, pTol, l.planar) {
		return -1
	}
	keep := kdtree.NewNKeeper(l.k)
	l.tree.NearestSet(keep, centroid{Vec: p, id: -1})
	sort.Slice(keep.Heap, func(i, j int) bool { return keep.Heap[i].Dist < keep.Heap[j].Dist })

	tried := make(map[int]bool, l.k)
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		id := cd.Comparable.(centroid).id
		tried[id] = true
		if l.try(id, p, w, ghostAware) {
			return id
		}
	}
	for id := range l.cells {
		if tried[id] || !inBox(l.boxes[id], p, pTol, l.planar) {
			continue
		}
		if l.try(id, p, w, ghostAware) {
			return id
		}
	}
	return -1
}

func (l *KDLocator) try(id int, p r3.Vec, w *Weights, ghostAware bool) bool {
	g := l.m.Ghost(id)
	if g&GhostExterior != 0 || (ghostAware && g != 0) {
		return false
	}
	c := &l.cells[id]
	pc, ok := c.Parametric(p)
	if !ok {
		return false
	}
	if ghostAware && !l.owns(c, pc) {
		return false
	}
	if w != nil {
		w.Cell = id
		w.PCoords = pc
		w.Nodes = append(w.Nodes[:0], c.Nodes...)
		w.W = c.Weights(pc, w.W)
	}
	return true
}

// owns applies the half-open face rule: a point on a max face that is shared with
// another cell belongs to that other cell. Simplices have no max faces and use
// ownsSimplex instead.
func (l *KDLocator) owns(c *Cell, pc r3.Vec) bool {
	if c.Shape == Triangle || c.Shape == Tetra {
		return l.ownsSimplex(c, pc)
	}
	p := [3]float64{pc.X, pc.Y, pc.Z}
	for axis, f := range tensorFaces(c.Shape) {
		if p[axis] >= 1.-pTol && l.faces[newFaceKey(c.Nodes, f[1])] > 1 {
			return false
		}
	}
	return true
}

// ownerDirs are fixed, linearly independent reference directions. A point on a
// shared simplex face belongs to the cell that a step along the first
// direction not parallel to the face enters. The rule is purely geometric, so
// partitions with different node numbering agree on it.
var ownerDirs = [3]r3.Vec{
	{X: 1, Y: .7548776662466927, Z: .5698402909980532},
	{X: -.5698402909980532, Y: 1, Z: .7548776662466927},
	{X: .7548776662466927, Y: -.5698402909980532, Z: 1},
}

// ownsSimplex requires every shared face the point lies on to be entered by
// the reference direction.
func (l *KDLocator) ownsSimplex(c *Cell, pc r3.Vec) bool {
	var grads []r3.Vec
	for i, lam := range barycentric(c.Shape, pc) {
		if lam > pTol || l.faces[newFaceKey(c.Nodes, simplexFaces(c.Shape)[i])] < 2 {
			continue
		}
		if grads == nil {
			var err error
			if grads, err = c.simplexGradients(); err != nil {
				return false
			}
		}
		if !entering(grads[i]) {
			return false
		}
	}
	return true
}

// entering reports whether the reference direction increases a barycentric
// coordinate with gradient g.
func entering(g r3.Vec) bool {
	tol := 1e-12 * r3.Norm(g)
	for _, d := range ownerDirs {
		if s := r3.Dot(g, d); math.Abs(s) > tol {
			return s > 0
		}
	}
	return false
}

type faceKey [4]int

func newFaceKey(nodes, local []int) faceKey {
	k := faceKey{-1, -1, -1, -1}
	for i, n := range local {
		k[i] = nodes[n]
	}
	sort.Ints(k[:len(local)])
	return k
}

// centroid is a kd-tree point carrying its cell id.
type centroid struct {
	r3.Vec
	id int
}

func (c centroid) coord(d kdtree.Dim) float64 {
	switch d {
	case 0:
		return c.X
	case 1:
		return c.Y
	}
	return c.Z
}

func (c centroid) Compare(o kdtree.Comparable, d kdtree.Dim) float64 {
	return c.coord(d) - o.(centroid).coord(d)
}

func (c centroid) Dims() int { return 3 }

func (c centroid) Distance(o kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(c.Vec, o.(centroid).Vec))
}

type centroids []centroid

func (c centroids) Index(i int) kdtree.Comparable { return c[i] }
func (c centroids) Len() int { return len(c) }
func (c centroids) Slice(start, end int) kdtree.Interface { return c[start:end] }
func (c centroids) Pivot(d kdtree.Dim) int { return plane{Dim: d, centroids: c}.Pivot() }

// plane sorts centroids along one dimension for median partitioning.
type plane struct {
	kdtree.Dim
	centroids
}

func (p plane) Less(i, j int) bool {
	return p.centroids[i].coord(p.Dim) < p.centroids[j].coord(p.Dim)
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.centroids = p.centroids[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.centroids[i], p.centroids[j] = p.centroids[j], p.centroids[i]
}
