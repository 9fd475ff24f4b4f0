package icurve

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// CoordSystem selects how curve positions are expressed in output.
type CoordSystem int

const (
	Cartesian CoordSystem = iota
	// Cylindrical reads (x,y,z) as (r,theta,z) and maps it to Cartesian.
	Cylindrical
	// CustomAngular maps Cartesian positions to (r,phi,z), phi being the polar
	// angle, or j/phiFactor for sample j when a phi factor is set.
	CustomAngular
)

func (cs CoordSystem) String() string {
	switch cs {
	case Cartesian:
		return "cartesian"
	case Cylindrical:
		return "cylindrical"
	case CustomAngular:
		return "custom_angular"
	}
	return "unknown"
}

// Transform maps position p of sample j.
func (cs CoordSystem) Transform(p r3.Vec, j int, phiFactor float64) r3.Vec {
	switch cs {
	case Cylindrical:
		return r3.Vec{X: p.X * math.Cos(p.Y), Y: p.X * math.Sin(p.Y), Z: p.Z}
	case CustomAngular:
		r := math.Hypot(p.X, p.Y)
		if phiFactor == 0 {
			return r3.Vec{X: r, Y: math.Atan2(p.Y, p.X), Z: p.Z}
		}
		return r3.Vec{X: r, Y: float64(j) / phiFactor, Z: p.Z}
	}
	return p
}
