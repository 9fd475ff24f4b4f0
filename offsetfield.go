package icurve

import (
	"fmt"

	"github.com/maseology/icurve/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// OffsetField samples a staggered vector array. Each component c is stored at a
// position shifted from its nominal location by Offsets[c], given in parametric
// units of the cell edges; sampling component c at p looks up the array at p
// minus that shift.
type OffsetField struct {
	*DirectField

	offsets  [3]r3.Vec
	failures int
}

// NewOffsetField wraps base with per-component parametric offsets.
func NewOffsetField(base *DirectField, offsets [3]r3.Vec) *OffsetField {
	return &OffsetField{DirectField: base, offsets: offsets}
}

// Failures counts evaluations that could not locate a corrected point.
func (f *OffsetField) Failures() int { return f.failures }

func (f *OffsetField) unshifted() bool {
	return f.offsets == [3]r3.Vec{}
}

// Evaluate implements Field. A failed correction yields a zero vector together
// with an error wrapping ErrLocateFailed.
func (f *OffsetField) Evaluate(t float64, p r3.Vec) (Result, error) {
	if f.unshifted() {
		return f.DirectField.Evaluate(t, p)
	}
	switch f.Locate(t, p) {
	case OutsideTemporal:
		return Result{Status: StatusOutsideTemporal}, nil
	case OutsideSpatial:
		return Result{Status: StatusOutsideDomain}, nil
	}
	home, err := f.m.Cell(f.cache.w.Cell)
	if err != nil {
		return Result{}, err
	}
	if home.Shape != mesh.Quad && home.Shape != mesh.Hexahedron {
		return Result{}, fmt.Errorf("icurve.OffsetField cell %d is a %v: %w", home.ID, home.Shape, ErrUnsupportedCellShape)
	}
	pc := f.cache.w.PCoords

	var v [3]float64
	for c, off := range f.offsets {
		q := p
		if off != (r3.Vec{}) {
			if q, err = f.corrected(t, p, &home, pc, off); err != nil {
				f.failures++
				return Result{Status: StatusOK}, fmt.Errorf("icurve.OffsetField component %d at %v: %w", c, p, err)
			}
		}
		f.Locate(t, q)
		v[c] = f.componentAt(c)
	}
	return Result{Status: StatusOK, V: f.finish(r3.Vec{X: v[0], Y: v[1], Z: v[2]})}, nil
}

// corrected returns p less the world-space shift of off. When the first estimate
// leaves the mesh, the shift is re-estimated in the cell holding the half-shifted
// point and the two estimates are averaged.
func (f *OffsetField) corrected(t float64, p r3.Vec, home *mesh.Cell, pc, off r3.Vec) (r3.Vec, error) {
	d1, err := shift(home, pc, off)
	if err != nil {
		return p, err
	}
	q := r3.Sub(p, d1)
	if f.Locate(t, q) == Inside {
		return q, nil
	}
	if f.Locate(t, r3.Sub(p, r3.Scale(.5, d1))) != Inside {
		return q, ErrLocateFailed
	}
	mid, err := f.m.Cell(f.cache.w.Cell)
	if err != nil {
		return q, err
	}
	d2, err := shift(&mid, f.cache.w.PCoords, off)
	if err != nil {
		return q, err
	}
	q = r3.Sub(p, r3.Scale(.5, r3.Add(d1, d2)))
	if f.Locate(t, q) != Inside {
		return q, ErrLocateFailed
	}
	return q, nil
}

func shift(c *mesh.Cell, pc, off r3.Vec) (r3.Vec, error) {
	var d r3.Vec
	for axis, o := range [3]float64{off.X, off.Y, off.Z} {
		if o == 0 {
			continue
		}
		e, err := c.AxisEdge(axis, pc)
		if err != nil {
			return d, fmt.Errorf("%w: %v", ErrUnsupportedCellShape, err)
		}
		d = r3.Add(d, r3.Scale(o, e))
	}
	return d, nil
}
