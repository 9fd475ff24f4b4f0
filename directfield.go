package icurve

import (
	"fmt"
	"math"

	"github.com/maseology/icurve/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// DirectField interpolates a 3-component array of a mesh at arbitrary points:
// point-centred data is blended with the cell's shape functions and cell-centred
// data is taken as constant per cell.
type DirectField struct {
	Normalize bool // return unit vectors

	m        mesh.Mesh
	loc      mesh.Locator
	vec      *mesh.Array
	cellData bool
	scalars  map[ScalarHandle]boundArray
	t0, t1   float64
	cache    lastCell
	nodeVals []r3.Vec
}

type boundArray struct {
	a        *mesh.Array
	cellData bool
}

// lastCell is the result of the most recent lookup. Misses are cached too.
type lastCell struct {
	valid bool
	p     r3.Vec
	class Classification
	w     mesh.Weights
}

// NewDirectField binds the named vector array of m, searching point data first
// and cell data second.
func NewDirectField(m mesh.Mesh, loc mesh.Locator, vector string) (*DirectField, error) {
	a, cd := lookupArray(m, vector)
	if a == nil {
		return nil, fmt.Errorf("icurve.NewDirectField %q: %w", vector, ErrMissingArray)
	}
	if a.Components() != 3 {
		return nil, fmt.Errorf("icurve.NewDirectField %q has %d components: %w", vector, a.Components(), ErrWrongComponentCount)
	}
	return &DirectField{
		m:        m,
		loc:      loc,
		vec:      a,
		cellData: cd,
		scalars:  make(map[ScalarHandle]boundArray),
		t0:       math.Inf(-1),
		t1:       math.Inf(1),
	}, nil
}

func lookupArray(m mesh.Mesh, name string) (*mesh.Array, bool) {
	if a := m.PointArray(name); a != nil {
		return a, false
	}
	if a := m.CellArray(name); a != nil {
		return a, true
	}
	return nil, false
}

// BindScalar attaches a 1-component array to handle h.
func (f *DirectField) BindScalar(h ScalarHandle, name string) error {
	a, cd := lookupArray(f.m, name)
	if a == nil {
		return fmt.Errorf("icurve.BindScalar %q: %w", name, ErrMissingArray)
	}
	if a.Components() != 1 {
		return fmt.Errorf("icurve.BindScalar %q has %d components: %w", name, a.Components(), ErrWrongComponentCount)
	}
	f.scalars[h] = boundArray{a: a, cellData: cd}
	return nil
}

// SetTimeRange limits the field to [t0,t1]; the default range is unbounded.
func (f *DirectField) SetTimeRange(t0, t1 float64) {
	f.t0, f.t1 = t0, t1
	f.cache.valid = false
}

func (f *DirectField) Mesh() mesh.Mesh { return f.m }

// CellCentred reports whether the vector array is cell data.
func (f *DirectField) CellCentred() bool { return f.cellData }

func (f *DirectField) inTime(t float64) bool { return t >= f.t0 && t <= f.t1 }

// Locate implements Field.
func (f *DirectField) Locate(t float64, p r3.Vec) Classification {
	if !f.inTime(t) {
		return OutsideTemporal
	}
	if f.cache.valid && f.cache.p == p {
		return f.cache.class
	}
	f.cache.valid, f.cache.p = true, p
	f.cache.class = Inside
	if f.loc.FindCell(p, &f.cache.w, false) < 0 {
		f.cache.class = OutsideSpatial
	}
	return f.cache.class
}

// IsInside implements Field. It never disturbs the cache.
func (f *DirectField) IsInside(t float64, p r3.Vec) Classification {
	if !f.inTime(t) {
		return OutsideTemporal
	}
	if f.loc.FindCell(p, nil, true) < 0 {
		return OutsideSpatial
	}
	return Inside
}

// Evaluate implements Field.
func (f *DirectField) Evaluate(t float64, p r3.Vec) (Result, error) {
	switch f.Locate(t, p) {
	case OutsideTemporal:
		return Result{Status: StatusOutsideTemporal}, nil
	case OutsideSpatial:
		return Result{Status: StatusOutsideDomain}, nil
	}
	return Result{Status: StatusOK, V: f.finish(f.vectorAt(&f.cache.w))}, nil
}

func (f *DirectField) finish(v r3.Vec) r3.Vec {
	if f.Normalize {
		if n := r3.Norm(v); n > 0 {
			return r3.Scale(1/n, v)
		}
	}
	return v
}

func (f *DirectField) vectorAt(w *mesh.Weights) r3.Vec {
	if f.cellData {
		return tupleVec(f.vec.Tuple(w.Cell))
	}
	var v r3.Vec
	for i, n := range w.Nodes {
		v = r3.Add(v, r3.Scale(w.W[i], tupleVec(f.vec.Tuple(n))))
	}
	return v
}

// componentAt interpolates component c of the vector array at the cached point.
func (f *DirectField) componentAt(c int) float64 {
	w := &f.cache.w
	if f.cellData {
		return f.vec.Component(w.Cell, c)
	}
	s := 0.
	for i, n := range w.Nodes {
		s += w.W[i] * f.vec.Component(n, c)
	}
	return s
}

func tupleVec(t []float64) r3.Vec { return r3.Vec{X: t[0], Y: t[1], Z: t[2]} }

// Scalar implements Field.
func (f *DirectField) Scalar(h ScalarHandle, t float64, p r3.Vec) float64 {
	b, ok := f.scalars[h]
	if !ok || f.Locate(t, p) != Inside {
		return 0
	}
	w := &f.cache.w
	if b.cellData {
		return b.a.Component(w.Cell, 0)
	}
	s := 0.
	for i, n := range w.Nodes {
		s += w.W[i] * b.a.Component(n, 0)
	}
	return s
}

// Vorticity implements Field. Cell-centred data has no gradient and yields 0.
func (f *DirectField) Vorticity(t float64, p r3.Vec) (float64, error) {
	if f.cellData || f.Locate(t, p) != Inside {
		return 0, nil
	}
	w := &f.cache.w
	c, err := f.m.Cell(w.Cell)
	if err != nil {
		return 0, err
	}
	f.nodeVals = f.nodeVals[:0]
	for _, n := range w.Nodes {
		f.nodeVals = append(f.nodeVals, tupleVec(f.vec.Tuple(n)))
	}
	g, err := c.VectorGradient(w.PCoords, f.nodeVals)
	if err != nil {
		return 0, fmt.Errorf("icurve.Vorticity cell %d: %w", w.Cell, err)
	}
	v := f.vectorAt(w)
	s := r3.Norm(v)
	if s == 0 {
		return 0, nil
	}
	curl := r3.Vec{X: g[2][1] - g[1][2], Y: g[0][2] - g[2][0], Z: g[1][0] - g[0][1]}
	return r3.Dot(curl, v) / s, nil
}

func (f *DirectField) Extents() r3.Box { return f.m.Bounds() }

func (f *DirectField) TimeRange() (float64, float64) { return f.t0, f.t1 }
