package mesh

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnsupportedShape is returned for operations a cell shape does not define.
var ErrUnsupportedShape = errors.New("mesh: unsupported cell shape")

const (
	pTol       = 1e-9 // parametric containment tolerance
	newtonIter = 30
	newtonTol  = 1e-13
)

// Cell is a located mesh cell with its node ids and positions.
type Cell struct {
	ID     int
	Shape  Shape
	Nodes  []int
	Points []r3.Vec
}

// Centroid returns the mean of the cell nodes.
func (c *Cell) Centroid() r3.Vec {
	var s r3.Vec
	for _, p := range c.Points {
		s = r3.Add(s, p)
	}
	return r3.Scale(1./float64(len(c.Points)), s)
}

// Bounds returns the axis-aligned box of the cell nodes.
func (c *Cell) Bounds() r3.Box { return boundsOf(c.Points) }

// Weights appends the interpolation weights at pc to n[:0].
func (c *Cell) Weights(pc r3.Vec, n []float64) []float64 { return shapeFuncs(c.Shape, pc, n) }

// Position maps parametric coordinates to world space.
func (c *Cell) Position(pc r3.Vec) r3.Vec {
	var x r3.Vec
	var buf [8]float64
	for i, w := range shapeFuncs(c.Shape, pc, buf[:0]) {
		x = r3.Add(x, r3.Scale(w, c.Points[i]))
	}
	return x
}

// jacobian returns dx_a/dpc_b over the parametric dimension of the cell.
func (c *Cell) jacobian(pc r3.Vec) *mat.Dense {
	d, dn := c.Shape.Dim(), shapeDerivs(c.Shape, pc)
	j := mat.NewDense(d, d, nil)
	for i, p := range c.Points {
		x := [3]float64{p.X, p.Y, p.Z}
		for a := 0; a < d; a++ {
			for b := 0; b < d; b++ {
				j.Set(a, b, j.At(a, b)+x[a]*dn[i][b])
			}
		}
	}
	return j
}

// Parametric inverts the cell map at p by Newton iteration and reports whether p
// lies inside the cell. Planar cells ignore the z coordinate.
func (c *Cell) Parametric(p r3.Vec) (r3.Vec, bool) {
	d, pc := c.Shape.Dim(), c.Shape.center()
	target := [3]float64{p.X, p.Y, p.Z}
	res := mat.NewVecDense(d, nil)
	for it := 0; it < newtonIter; it++ {
		x := c.Position(pc)
		xv := [3]float64{x.X, x.Y, x.Z}
		for a := 0; a < d; a++ {
			res.SetVec(a, xv[a]-target[a])
		}
		j := c.jacobian(pc)
		dx := mat.NewVecDense(d, nil)
		if err := dx.SolveVec(j, res); err != nil {
			dx = svdSolve(j, res)
		}
		pc = r3.Sub(pc, toR3(dx))
		if mat.Norm(dx, 2) < newtonTol {
			break
		}
	}
	return pc, c.Shape.contains(pc, pTol)
}

// VectorGradient returns g[a][b] = dv_a/dx_b at pc for node values vals.
// Planar cells have a zero third column.
func (c *Cell) VectorGradient(pc r3.Vec, vals []r3.Vec) ([3][3]float64, error) {
	var g [3][3]float64
	if len(vals) != len(c.Points) {
		return g, fmt.Errorf("mesh.VectorGradient: %d values for %d nodes", len(vals), len(c.Points))
	}
	d := c.Shape.Dim()
	var jinv mat.Dense
	if err := jinv.Inverse(c.jacobian(pc)); err != nil {
		return g, fmt.Errorf("mesh.VectorGradient: degenerate %v cell %d: %w", c.Shape, c.ID, err)
	}
	dn := shapeDerivs(c.Shape, pc)
	for i, v := range vals {
		var dndx [3]float64
		for a := 0; a < d; a++ {
			for b := 0; b < d; b++ {
				dndx[a] += jinv.At(b, a) * dn[i][b]
			}
		}
		comps := [3]float64{v.X, v.Y, v.Z}
		for a := 0; a < 3; a++ {
			for b := 0; b < d; b++ {
				g[a][b] += comps[a] * dndx[b]
			}
		}
	}
	return g, nil
}

// AxisEdge returns the cell edge vector along parametric axis at pc, blended over
// the parallel edges (4 for a quad, 12 for a hexahedron) by the remaining
// parametric coordinates.
func (c *Cell) AxisEdge(axis int, pc r3.Vec) (r3.Vec, error) {
	var edges [][2]int
	switch c.Shape {
	case Quad:
		if axis > 1 {
			return r3.Vec{}, nil
		}
		edges = quadEdges[axis][:]
	case Hexahedron:
		edges = hexEdges[axis][:]
	default:
		return r3.Vec{}, fmt.Errorf("mesh.AxisEdge: %v: %w", c.Shape, ErrUnsupportedShape)
	}
	p := [3]float64{pc.X, pc.Y, pc.Z}
	var e r3.Vec
	for _, ed := range edges {
		w := 1.
		for k := 0; k < c.Shape.Dim(); k++ {
			if k != axis {
				w *= lin(corners[ed[0]][k], p[k])
			}
		}
		e = r3.Add(e, r3.Scale(w, r3.Sub(c.Points[ed[1]], c.Points[ed[0]])))
	}
	return e, nil
}

// simplexGradients returns the world-space gradient of each barycentric
// coordinate of a simplex cell. Planar cells have a zero z component.
func (c *Cell) simplexGradients() ([]r3.Vec, error) {
	d := c.Shape.Dim()
	var inv mat.Dense
	if err := inv.Inverse(c.jacobian(c.Shape.center())); err != nil {
		return nil, fmt.Errorf("mesh: degenerate %v cell %d: %w", c.Shape, c.ID, err)
	}
	g := make([]r3.Vec, d+1)
	for k := 1; k <= d; k++ {
		var row [3]float64
		for b := 0; b < d; b++ {
			row[b] = inv.At(k-1, b)
		}
		g[k] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
		g[0] = r3.Sub(g[0], g[k])
	}
	return g, nil
}

func toR3(v *mat.VecDense) r3.Vec {
	var o [3]float64
	for i := 0; i < v.Len(); i++ {
		o[i] = v.AtVec(i)
	}
	return r3.Vec{X: o[0], Y: o[1], Z: o[2]}
}

// svdSolve solves Ax=b through the SVD pseudo-inverse, for Jacobians too close to
// singular for LU.
func svdSolve(a *mat.Dense, b *mat.VecDense) *mat.VecDense {
	ar, ac := a.Dims()
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return mat.NewVecDense(ac, nil)
	}
	u, v := &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)
	sv := svd.Values(nil) // sigma vectors
	cut := 1e-14 * sv[0]
	for i := range sv {
		if sv[i] > cut {
			sv[i] = 1. / sv[i]
		} else {
			sv[i] = 0.
		}
	}
	si := mat.DenseCopyOf(mat.NewDiagonalRect(ar, ac, sv).T()) // pseudo-inverse

	z := mat.NewVecDense(ar, nil)
	z.MulVec(u.T(), b)

	y := mat.NewVecDense(ac, nil)
	y.MulVec(si, z)

	x := mat.NewVecDense(ac, nil)
	x.MulVec(v, y)
	return x
}
