package export

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/maseology/icurve"
	"github.com/maseology/icurve/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// VTK cell types
const (
	vtkPolyLine   = 4
	vtkTriangle   = 5
	vtkQuad       = 9
	vtkTetra      = 10
	vtkHexahedron = 12
)

// vtkWriter writes big-endian binary VTK, keeping the first error.
type vtkWriter struct {
	w   io.Writer
	err error
}

func (v *vtkWriter) header(format string, a ...any) {
	if v.err == nil {
		_, v.err = fmt.Fprintf(v.w, format, a...)
	}
}

func (v *vtkWriter) put(data any) {
	if v.err == nil {
		v.err = binary.Write(v.w, binary.BigEndian, data)
	}
}

func (v *vtkWriter) points(ps []r3.Vec) {
	v.header("POINTS %d float\n", len(ps))
	buf := make([]float32, 0, 3*len(ps))
	for _, p := range ps {
		buf = append(buf, float32(p.X), float32(p.Y), float32(p.Z))
	}
	v.put(buf)
}

func (v *vtkWriter) scalars(name string, x []float64) {
	v.header("\nSCALARS %s float\nLOOKUP_TABLE default\n", name)
	buf := make([]float32, len(x))
	for i, f := range x {
		buf[i] = float32(f)
	}
	v.put(buf)
}

// WritePolylinesVTK writes pl as an unstructured grid of poly-lines with its
// attribute channels as point data.
func WritePolylinesVTK(w io.Writer, pl *icurve.Polylines) error {
	v, nv := &vtkWriter{w: w}, 0
	for _, l := range pl.Lines {
		nv += len(l)
	}

	v.header("# vtk DataFile Version 3.0\n")
	v.header("Integral curves: %d lines, %d vertices, %s\n", len(pl.Lines), pl.NumPoints(), time.Now().Format("2006-01-02 15:04:05"))
	v.header("BINARY\nDATASET UNSTRUCTURED_GRID\n")
	v.points(pl.Points)

	v.header("\nCELLS %d %d\n", len(pl.Lines), nv+len(pl.Lines))
	for _, l := range pl.Lines {
		v.put(int32(len(l)))
		for _, i := range l {
			v.put(int32(i))
		}
	}
	v.header("\nCELL_TYPES %d\n", len(pl.Lines))
	for range pl.Lines {
		v.put(int32(vtkPolyLine))
	}

	v.header("\nCELL_DATA %d\nSCALARS curveID int\nLOOKUP_TABLE default\n", len(pl.Lines))
	for _, id := range pl.CurveIDs {
		v.put(int32(id))
	}

	v.header("\nPOINT_DATA %d", pl.NumPoints())
	v.scalars("colorVar", pl.ColorVar)
	v.scalars("params", pl.Params)
	v.scalars("opacity", pl.Opacity)
	v.scalars("theta", pl.Theta)
	v.header("\nVECTORS tangents float\n")
	tg := make([]float32, 0, 3*len(pl.Tangents))
	for _, t := range pl.Tangents {
		tg = append(tg, float32(t.X), float32(t.Y), float32(t.Z))
	}
	v.put(tg)
	v.header("\n")
	return v.err
}

// WriteMeshVTK writes the cells of m with their ids and ghost flags, for
// inspecting a partition alongside its curves.
func WriteMeshVTK(w io.Writer, m mesh.Mesh) error {
	v, nc := &vtkWriter{w: w}, m.NumCells()
	cells := make([]mesh.Cell, nc)
	size := 0
	for i := range cells {
		c, err := m.Cell(i)
		if err != nil {
			return err
		}
		cells[i] = c
		size += len(c.Nodes) + 1
	}
	ps := make([]r3.Vec, m.NumPoints())
	for i := range ps {
		ps[i] = m.Point(i)
	}

	v.header("# vtk DataFile Version 3.0\n")
	v.header("Unstructured domain: %d cells, %d vertices, %s\n", nc, len(ps), time.Now().Format("2006-01-02 15:04:05"))
	v.header("BINARY\nDATASET UNSTRUCTURED_GRID\n")
	v.points(ps)

	v.header("\nCELLS %d %d\n", nc, size)
	for _, c := range cells {
		v.put(int32(len(c.Nodes)))
		for _, n := range c.Nodes {
			v.put(int32(n))
		}
	}
	v.header("\nCELL_TYPES %d\n", nc)
	for _, c := range cells {
		switch c.Shape {
		case mesh.Triangle:
			v.put(int32(vtkTriangle))
		case mesh.Quad:
			v.put(int32(vtkQuad))
		case mesh.Tetra:
			v.put(int32(vtkTetra))
		case mesh.Hexahedron:
			v.put(int32(vtkHexahedron))
		default:
			return fmt.Errorf("export.WriteMeshVTK: cell %d: unsupported shape %v", c.ID, c.Shape)
		}
	}

	v.header("\nCELL_DATA %d\nSCALARS cellID int\nLOOKUP_TABLE default\n", nc)
	for i := range cells {
		v.put(int32(i))
	}
	v.header("\nSCALARS ghost int\nLOOKUP_TABLE default\n")
	for i := range cells {
		v.put(int32(m.Ghost(i)))
	}
	v.header("\n")
	return v.err
}
