package mesh

import "gonum.org/v1/gonum/spatial/r3"

// Shape is a cell type. Node ordering and parametric space follow the VTK
// conventions: tensor cells span [0,1] on every axis, simplices use barycentric
// coordinates.
type Shape int

const (
	Triangle Shape = iota + 1
	Quad
	Tetra
	Hexahedron
)

func (s Shape) String() string {
	switch s {
	case Triangle:
		return "triangle"
	case Quad:
		return "quad"
	case Tetra:
		return "tetra"
	case Hexahedron:
		return "hexahedron"
	}
	return "unknown"
}

// NumNodes returns the node count of s.
func (s Shape) NumNodes() int {
	switch s {
	case Triangle:
		return 3
	case Quad, Tetra:
		return 4
	case Hexahedron:
		return 8
	}
	return 0
}

// Dim returns the parametric dimension of s.
func (s Shape) Dim() int {
	if s == Triangle || s == Quad {
		return 2
	}
	return 3
}

func (s Shape) center() r3.Vec {
	switch s {
	case Triangle:
		return r3.Vec{X: 1. / 3., Y: 1. / 3.}
	case Tetra:
		return r3.Vec{X: .25, Y: .25, Z: .25}
	case Quad:
		return r3.Vec{X: .5, Y: .5}
	}
	return r3.Vec{X: .5, Y: .5, Z: .5}
}

func (s Shape) contains(pc r3.Vec, tol float64) bool {
	in01 := func(x float64) bool { return x >= -tol && x <= 1.+tol }
	switch s {
	case Triangle:
		return pc.X >= -tol && pc.Y >= -tol && 1.-pc.X-pc.Y >= -tol
	case Tetra:
		return pc.X >= -tol && pc.Y >= -tol && pc.Z >= -tol && 1.-pc.X-pc.Y-pc.Z >= -tol
	case Quad:
		return in01(pc.X) && in01(pc.Y)
	case Hexahedron:
		return in01(pc.X) && in01(pc.Y) && in01(pc.Z)
	}
	return false
}

// corners are the parametric positions of tensor-cell nodes.
var corners = [8][3]float64{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

func lin(c, x float64) float64 {
	if c == 1 {
		return x
	}
	return 1. - x
}

func dlin(c float64) float64 {
	if c == 1 {
		return 1.
	}
	return -1.
}

// shapeFuncs appends the shape function values of s at pc to n[:0].
func shapeFuncs(s Shape, pc r3.Vec, n []float64) []float64 {
	n = n[:0]
	switch s {
	case Triangle:
		return append(n, 1.-pc.X-pc.Y, pc.X, pc.Y)
	case Tetra:
		return append(n, 1.-pc.X-pc.Y-pc.Z, pc.X, pc.Y, pc.Z)
	}
	d, p := s.Dim(), [3]float64{pc.X, pc.Y, pc.Z}
	for i := 0; i < s.NumNodes(); i++ {
		v := 1.
		for k := 0; k < d; k++ {
			v *= lin(corners[i][k], p[k])
		}
		n = append(n, v)
	}
	return n
}

// shapeDerivs returns dN_i/dpc_j for every node i of s.
func shapeDerivs(s Shape, pc r3.Vec) [][3]float64 {
	switch s {
	case Triangle:
		return [][3]float64{{-1, -1, 0}, {1, 0, 0}, {0, 1, 0}}
	case Tetra:
		return [][3]float64{{-1, -1, -1}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	d, p := s.Dim(), [3]float64{pc.X, pc.Y, pc.Z}
	out := make([][3]float64, s.NumNodes())
	for i := range out {
		c := corners[i]
		for j := 0; j < d; j++ {
			v := dlin(c[j])
			for k := 0; k < d; k++ {
				if k != j {
					v *= lin(c[k], p[k])
				}
			}
			out[i][j] = v
		}
	}
	return out
}

// Edge tables per parametric axis, as (from, to) node pairs running in the
// positive axis direction.
var (
	quadEdges = [2][2][2]int{
		{{0, 1}, {3, 2}},
		{{0, 3}, {1, 2}},
	}
	hexEdges = [3][4][2]int{
		{{0, 1}, {3, 2}, {4, 5}, {7, 6}},
		{{0, 3}, {1, 2}, {4, 7}, {5, 6}},
		{{0, 4}, {1, 5}, {2, 6}, {3, 7}},
	}
)

// Faces of tensor cells per parametric axis: [axis][0]=min face, [axis][1]=max face.
var (
	quadFaces = [2][2][]int{
		{{0, 3}, {1, 2}},
		{{0, 1}, {3, 2}},
	}
	hexFaces = [3][2][]int{
		{{0, 3, 7, 4}, {1, 2, 6, 5}},
		{{0, 1, 5, 4}, {3, 2, 6, 7}},
		{{0, 1, 2, 3}, {4, 5, 6, 7}},
	}
)

func tensorFaces(s Shape) [][2][]int {
	switch s {
	case Quad:
		return quadFaces[:]
	case Hexahedron:
		return hexFaces[:]
	}
	return nil
}

// Faces of simplex cells, indexed by the node opposite each face. The face
// opposite node i is where barycentric coordinate i vanishes.
var (
	triFaces   = [][]int{{1, 2}, {0, 2}, {0, 1}}
	tetraFaces = [][]int{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}}
)

func simplexFaces(s Shape) [][]int {
	switch s {
	case Triangle:
		return triFaces
	case Tetra:
		return tetraFaces
	}
	return nil
}

// barycentric expands the parametric coordinates of a simplex to one weight
// per node.
func barycentric(s Shape, pc r3.Vec) []float64 {
	if s == Triangle {
		return []float64{1. - pc.X - pc.Y, pc.X, pc.Y}
	}
	return []float64{1. - pc.X - pc.Y - pc.Z, pc.X, pc.Y, pc.Z}
}
