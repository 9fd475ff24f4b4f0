// Package mesh holds the unstructured mesh the advection engine samples: cells with
// their shape functions, named point- and cell-centred arrays, ghost flags, and a
// kd-tree cell locator.
package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// GhostFlag marks cells that are not owned by the partition holding them.
type GhostFlag uint8

const (
	// GhostDuplicated is a copy of a cell owned by a neighbouring partition.
	GhostDuplicated GhostFlag = 1 << iota
	// GhostExterior lies outside the problem domain and is never interpolated.
	GhostExterior
)

// Mesh is the dataset contract the engine depends on.
type Mesh interface {
	NumCells() int
	NumPoints() int
	Point(i int) r3.Vec
	Cell(id int) (Cell, error)
	Bounds() r3.Box
	PointArray(name string) *Array
	CellArray(name string) *Array
	Ghost(id int) GhostFlag
}

// Locator maps a point to the cell that holds it. FindCell returns a negative id on a
// miss; when w is non-nil it receives the interpolation weights. A ghost-aware lookup
// only matches cells owned by this mesh.
type Locator interface {
	FindCell(p r3.Vec, w *Weights, ghostAware bool) int
}

// Weights are the interpolation weights of a located point.
type Weights struct {
	Cell    int
	PCoords r3.Vec
	Nodes   []int
	W       []float64
}

// Reset clears w for reuse.
func (w *Weights) Reset() {
	w.Cell = -1
	w.PCoords = r3.Vec{}
	w.Nodes = w.Nodes[:0]
	w.W = w.W[:0]
}

// Unstructured is an in-memory mesh of mixed cell shapes sharing a node list.
type Unstructured struct {
	points    []r3.Vec
	shapes    []Shape
	conn      [][]int
	ghost     []GhostFlag
	pointData map[string]*Array
	cellData  map[string]*Array
	bounds    r3.Box
}

// NewUnstructured creates a mesh over the given nodes with no cells.
func NewUnstructured(points []r3.Vec) *Unstructured {
	u := &Unstructured{
		points:    points,
		pointData: make(map[string]*Array),
		cellData:  make(map[string]*Array),
	}
	u.bounds = boundsOf(points)
	return u
}

// AddCell appends a cell and returns its id.
func (u *Unstructured) AddCell(s Shape, nodes ...int) (int, error) {
	if len(nodes) != s.NumNodes() {
		return -1, fmt.Errorf("mesh.AddCell: %v needs %d nodes, got %d", s, s.NumNodes(), len(nodes))
	}
	for _, n := range nodes {
		if n < 0 || n >= len(u.points) {
			return -1, fmt.Errorf("mesh.AddCell: node %d out of range", n)
		}
	}
	u.shapes = append(u.shapes, s)
	u.conn = append(u.conn, append([]int(nil), nodes...))
	u.ghost = append(u.ghost, 0)
	return len(u.shapes) - 1, nil
}

// SetGhost flags cell id.
func (u *Unstructured) SetGhost(id int, g GhostFlag) { u.ghost[id] = g }

// AddPointArray attaches a node-centred array.
func (u *Unstructured) AddPointArray(a *Array) error {
	if a.Len() != len(u.points) {
		return fmt.Errorf("mesh.AddPointArray %q: %d tuples for %d points", a.Name, a.Len(), len(u.points))
	}
	u.pointData[a.Name] = a
	return nil
}

// AddCellArray attaches a cell-centred array.
func (u *Unstructured) AddCellArray(a *Array) error {
	if a.Len() != len(u.shapes) {
		return fmt.Errorf("mesh.AddCellArray %q: %d tuples for %d cells", a.Name, a.Len(), len(u.shapes))
	}
	u.cellData[a.Name] = a
	return nil
}

func (u *Unstructured) NumCells() int { return len(u.shapes) }
func (u *Unstructured) NumPoints() int { return len(u.points) }
func (u *Unstructured) Point(i int) r3.Vec { return u.points[i] }
func (u *Unstructured) Bounds() r3.Box { return u.bounds }
func (u *Unstructured) PointArray(name string) *Array { return u.pointData[name] }
func (u *Unstructured) CellArray(name string) *Array { return u.cellData[name] }
func (u *Unstructured) Ghost(id int) GhostFlag { return u.ghost[id] }

// Cell returns a copy of cell id with its node positions.
func (u *Unstructured) Cell(id int) (Cell, error) {
	if id < 0 || id >= len(u.shapes) {
		return Cell{}, fmt.Errorf("mesh.Cell: id %d out of range [0,%d)", id, len(u.shapes))
	}
	c := Cell{ID: id, Shape: u.shapes[id], Nodes: u.conn[id], Points: make([]r3.Vec, len(u.conn[id]))}
	for i, n := range c.Nodes {
		c.Points[i] = u.points[n]
	}
	return c, nil
}

func boundsOf(pts []r3.Vec) r3.Box {
	if len(pts) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min.X, b.Max.X = min(b.Min.X, p.X), max(b.Max.X, p.X)
		b.Min.Y, b.Max.Y = min(b.Min.Y, p.Y), max(b.Max.Y, p.Y)
		b.Min.Z, b.Max.Z = min(b.Min.Z, p.Z), max(b.Max.Z, p.Z)
	}
	return b
}

// inBox tests p against b with tolerance tol; z is ignored for planar meshes.
func inBox(b r3.Box, p r3.Vec, tol float64, planar bool) bool {
	if p.X < b.Min.X-tol || p.X > b.Max.X+tol || p.Y < b.Min.Y-tol || p.Y > b.Max.Y+tol {
		return false
	}
	return planar || (p.Z >= b.Min.Z-tol && p.Z <= b.Max.Z+tol)
}
