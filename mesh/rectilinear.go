package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Lattice is a regular node lattice. Dims counts nodes per axis; Dims[2]==1 gives a
// planar quad mesh.
type Lattice struct {
	Dims     [3]int
	Min, Max r3.Vec
}

func (g Lattice) planar() bool { return g.Dims[2] == 1 }

func (g Lattice) validate() error {
	if g.Dims[0] < 2 || g.Dims[1] < 2 || g.Dims[2] < 1 {
		return fmt.Errorf("mesh.Lattice: invalid node dims %v", g.Dims)
	}
	if g.Max.X <= g.Min.X || g.Max.Y <= g.Min.Y || (!g.planar() && g.Max.Z <= g.Min.Z) {
		return fmt.Errorf("mesh.Lattice: empty extent %v-%v", g.Min, g.Max)
	}
	return nil
}

func (g Lattice) spacing() r3.Vec {
	s := r3.Vec{
		X: (g.Max.X - g.Min.X) / float64(g.Dims[0]-1),
		Y: (g.Max.Y - g.Min.Y) / float64(g.Dims[1]-1),
	}
	if !g.planar() {
		s.Z = (g.Max.Z - g.Min.Z) / float64(g.Dims[2]-1)
	}
	return s
}

// NewRectilinear builds the whole lattice as hexahedra, or quads when planar.
func NewRectilinear(g Lattice) (*Unstructured, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g.build(0, g.Dims[0]-1, 0, g.Dims[0]-1), nil
}

// Partition splits the lattice into n slabs along x. Interior seams are padded
// with ghost layers of GhostDuplicated cells copied from the neighbouring slab.
func (g Lattice) Partition(n, ghost int) ([]*Unstructured, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	ncx := g.Dims[0] - 1
	if n < 1 || n > ncx {
		return nil, fmt.Errorf("mesh.Partition: cannot split %d cell columns into %d slabs", ncx, n)
	}
	if ghost < 0 {
		return nil, fmt.Errorf("mesh.Partition: negative ghost layers %d", ghost)
	}
	out := make([]*Unstructured, n)
	for k := range out {
		a, b := k*ncx/n, (k+1)*ncx/n
		out[k] = g.build(max(0, a-ghost), min(ncx, b+ghost), a, b)
	}
	return out, nil
}

// build emits cell columns [c0,c1), flagging those outside [o0,o1) as ghosts.
func (g Lattice) build(c0, c1, o0, o1 int) *Unstructured {
	nx, ny, nz := c1-c0+1, g.Dims[1], g.Dims[2]
	d := g.spacing()
	pts := make([]r3.Vec, 0, nx*ny*nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				pts = append(pts, r3.Vec{
					X: g.Min.X + float64(i+c0)*d.X,
					Y: g.Min.Y + float64(j)*d.Y,
					Z: g.Min.Z + float64(k)*d.Z,
				})
			}
		}
	}
	u := NewUnstructured(pts)
	n := func(i, j, k int) int { return i + nx*(j+ny*k) }
	for k := 0; k < max(1, nz-1); k++ {
		for j := 0; j < ny-1; j++ {
			for i := 0; i < nx-1; i++ {
				var id int
				if g.planar() {
					id, _ = u.AddCell(Quad, n(i, j, 0), n(i+1, j, 0), n(i+1, j+1, 0), n(i, j+1, 0))
				} else {
					id, _ = u.AddCell(Hexahedron,
						n(i, j, k), n(i+1, j, k), n(i+1, j+1, k), n(i, j+1, k),
						n(i, j, k+1), n(i+1, j, k+1), n(i+1, j+1, k+1), n(i, j+1, k+1))
				}
				if ci := i + c0; ci < o0 || ci >= o1 {
					u.SetGhost(id, GhostDuplicated)
				}
			}
		}
	}
	return u
}

// SamplePointVectors attaches a 3-component node array with fn evaluated at every node.
func SamplePointVectors(u *Unstructured, name string, fn func(r3.Vec) r3.Vec) error {
	data := make([]float64, 0, 3*u.NumPoints())
	for _, p := range u.points {
		v := fn(p)
		data = append(data, v.X, v.Y, v.Z)
	}
	a, err := NewArray(name, 3, data)
	if err != nil {
		return err
	}
	return u.AddPointArray(a)
}

// SampleCellVectors attaches a 3-component cell array with fn evaluated at every
// cell centroid.
func SampleCellVectors(u *Unstructured, name string, fn func(r3.Vec) r3.Vec) error {
	data := make([]float64, 0, 3*u.NumCells())
	for id := range u.shapes {
		c, _ := u.Cell(id)
		v := fn(c.Centroid())
		data = append(data, v.X, v.Y, v.Z)
	}
	a, err := NewArray(name, 3, data)
	if err != nil {
		return err
	}
	return u.AddCellArray(a)
}

// SamplePointScalars attaches a 1-component node array.
func SamplePointScalars(u *Unstructured, name string, fn func(r3.Vec) float64) error {
	data := make([]float64, u.NumPoints())
	for i, p := range u.points {
		data[i] = fn(p)
	}
	a, err := NewArray(name, 1, data)
	if err != nil {
		return err
	}
	return u.AddPointArray(a)
}
