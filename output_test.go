package icurve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func straight(id int64, y float64, n int) *Curve {
	c := &Curve{ID: id}
	for j := 0; j < n; j++ {
		c.Samples = append(c.Samples, Sample{
			P:         r3.Vec{X: float64(j), Y: y},
			T:         2 * float64(j),
			Arclength: float64(j),
			V:         r3.Vec{X: .5},
			Vorticity: .25,
		})
	}
	return c
}

func TestBuildPolylines(t *testing.T) {
	curves := []*Curve{straight(0, 0, 5), straight(1, 1, 1), straight(2, 2, 3)}
	pl := BuildPolylines(curves, OutputOptions{Color: ColorSpeed, Param: ParamTime, OpacityValue: 1})

	require.Len(t, pl.Lines, 2, "single-sample curves are dropped")
	assert.Equal(t, []int64{0, 2}, pl.CurveIDs)
	assert.Equal(t, 8, pl.NumPoints())
	for _, ch := range [][]float64{pl.ColorVar, pl.Params, pl.Opacity, pl.Theta} {
		assert.Len(t, ch, 8)
	}
	assert.Len(t, pl.Tangents, 8)

	assert.InDeltaSlice(t, []float64{0, .25, .5, .75, 1}, pl.Params[:5], 1e-12)
	assert.InDeltaSlice(t, []float64{0, .5, 1, 1.5, 2}, pl.Theta[:5], 1e-12)
	assert.Equal(t, .5, pl.ColorVar[3])
	assert.Equal(t, 1., pl.Opacity[7])
	assert.Equal(t, r3.Vec{X: 1}, pl.Tangents[0])
}

func TestBuildPolylinesMergesCoincidentPoints(t *testing.T) {
	a, b := straight(0, 0, 3), straight(1, 0, 4)
	b.Samples = append([]Sample{b.Samples[0]}, b.Samples...) // repeated first sample
	pl := BuildPolylines([]*Curve{a, b}, OutputOptions{Color: ColorCurveID, Opacity: ColorStep})

	assert.Equal(t, 4, pl.NumPoints())
	assert.Equal(t, []int{0, 1, 2}, pl.Lines[0])
	assert.Equal(t, []int{0, 1, 2, 3}, pl.Lines[1])
	assert.Equal(t, []float64{0, 0, 0, 1}, pl.ColorVar, "first curve keeps shared points")
	assert.InDeltaSlice(t, []float64{0, .25, .5, 1}, pl.Opacity, 1e-12)
}

func TestBuildPolylinesDropsStationaryCurves(t *testing.T) {
	c := &Curve{Samples: []Sample{{P: r3.Vec{X: 1}}, {P: r3.Vec{X: 1}}}}
	pl := BuildPolylines([]*Curve{c}, OutputOptions{})
	assert.Empty(t, pl.Lines)
	assert.Zero(t, pl.NumPoints())
}

func TestTangentsFromChords(t *testing.T) {
	ss := []Sample{{P: r3.Vec{}}, {P: r3.Vec{Y: 2}}, {P: r3.Vec{Y: 2, Z: 3}}}
	tg := tangents(ss)
	assert.Equal(t, []r3.Vec{{Y: 1}, {Z: 1}, {Z: 1}}, tg)
}

func TestCurveParamsDistance(t *testing.T) {
	ss := []Sample{{P: r3.Vec{}}, {P: r3.Vec{X: 3}}, {P: r3.Vec{X: 3, Y: 1}}}
	assert.InDeltaSlice(t, []float64{0, .75, 1}, curveParams(ss, ParamDistance), 1e-12)
	assert.InDeltaSlice(t, []float64{0, .5, 1}, curveParams(ss, ParamStep), 1e-12)
	assert.Equal(t, []float64{0, 0, 0}, curveParams(ss, ParamTime), "no time recorded")
}
