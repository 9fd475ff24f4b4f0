package icurve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCoordSystems(t *testing.T) {
	p := r3.Vec{X: 3, Y: 4}
	assert.Equal(t, p, Cartesian.Transform(p, 7, 0))

	cyl := Cylindrical.Transform(p, 7, 0)
	assert.InDeltaSlice(t, []float64{3 * math.Cos(4), 3 * math.Sin(4), 0}, vec(cyl), 1e-12)

	ang := CustomAngular.Transform(p, 7, 0)
	assert.InDeltaSlice(t, []float64{5, math.Atan2(4, 3), 0}, vec(ang), 1e-12)

	ang = CustomAngular.Transform(p, 7, 2)
	assert.InDeltaSlice(t, []float64{5, 3.5, 0}, vec(ang), 1e-12)
	assert.False(t, math.IsNaN(CustomAngular.Transform(r3.Vec{}, 0, 0).Y))
}
