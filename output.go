package icurve

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// ColorVar selects a per-point quantity for the colour and opacity channels.
type ColorVar int

const (
	ColorSolid ColorVar = iota
	ColorSpeed
	ColorVorticity
	ColorArclength
	ColorTime
	ColorStep
	ColorCurveID
	ColorScalar
)

func (v ColorVar) String() string {
	switch v {
	case ColorSolid:
		return "solid"
	case ColorSpeed:
		return "speed"
	case ColorVorticity:
		return "vorticity"
	case ColorArclength:
		return "arclength"
	case ColorTime:
		return "time"
	case ColorStep:
		return "step"
	case ColorCurveID:
		return "id"
	case ColorScalar:
		return "scalar"
	}
	return "unknown"
}

// ParamVar selects what the normalized curve parameter measures.
type ParamVar int

const (
	ParamDistance ParamVar = iota
	ParamTime
	ParamStep
)

// OutputOptions control polyline construction.
type OutputOptions struct {
	Color        ColorVar
	Param        ParamVar
	Opacity      ColorVar // ColorSolid gives every point OpacityValue
	OpacityValue float64
	Coords       CoordSystem
	PhiFactor    float64
}

// Polylines is the geometry of a batch with per-point attribute channels.
// Coincident points are shared between lines.
type Polylines struct {
	Points   []r3.Vec
	Lines    [][]int // indices into Points
	CurveIDs []int64 // one per line
	ColorVar []float64
	Params   []float64
	Opacity  []float64
	Theta    []float64
	Tangents []r3.Vec
}

// NumPoints returns the number of distinct points.
func (pl *Polylines) NumPoints() int { return len(pl.Points) }

// BuildPolylines flattens curves into polylines. Curves with fewer than two
// distinct points are dropped.
func BuildPolylines(curves []*Curve, o OutputOptions) *Polylines {
	pl := &Polylines{}
	index := make(map[r3.Vec]int)
	var raw []float64
	for _, c := range curves {
		if len(c.Samples) <= 1 {
			continue
		}
		var ps []r3.Vec
		var js []int
		for j := range c.Samples {
			p := o.Coords.Transform(c.Samples[j].P, j, o.PhiFactor)
			if k := len(ps); k > 0 && ps[k-1] == p {
				continue
			}
			ps, js = append(ps, p), append(js, j)
		}
		if len(ps) < 2 {
			continue
		}

		params := curveParams(c.Samples, o.Param)
		theta := ribbonAngles(c.Samples)
		tang := tangents(c.Samples)
		line := make([]int, 0, len(ps))
		for k, p := range ps {
			id, ok := index[p]
			if !ok {
				j := js[k]
				s := &c.Samples[j]
				id = len(pl.Points)
				index[p] = id
				pl.Points = append(pl.Points, p)
				pl.ColorVar = append(pl.ColorVar, sampleValue(o.Color, c, s, j))
				pl.Params = append(pl.Params, params[j])
				pl.Theta = append(pl.Theta, theta[j])
				pl.Tangents = append(pl.Tangents, tang[j])
				raw = append(raw, sampleValue(o.Opacity, c, s, j))
			}
			line = append(line, id)
		}
		pl.Lines = append(pl.Lines, line)
		pl.CurveIDs = append(pl.CurveIDs, c.ID)
	}
	pl.Opacity = opacity(raw, o)
	return pl
}

func sampleValue(v ColorVar, c *Curve, s *Sample, j int) float64 {
	switch v {
	case ColorSpeed:
		return s.Speed()
	case ColorVorticity:
		return s.Vorticity
	case ColorArclength:
		return s.Arclength
	case ColorTime:
		return s.T
	case ColorStep:
		return float64(j)
	case ColorCurveID:
		return float64(c.ID)
	case ColorScalar:
		return s.Scalar
	}
	return 0.
}

// curveParams returns the parameter of each sample normalized to run from 0 at
// the first sample to 1 at the last.
func curveParams(ss []Sample, pv ParamVar) []float64 {
	x := make([]float64, len(ss))
	for j := range ss {
		switch pv {
		case ParamTime:
			x[j] = ss[j].T
		case ParamStep:
			x[j] = float64(j)
		default:
			if j > 0 {
				x[j] = x[j-1] + r3.Norm(r3.Sub(ss[j].P, ss[j-1].P))
			}
		}
	}
	x0, span := x[0], x[len(x)-1]-x[0]
	floats.AddConst(-x0, x)
	if span == 0. {
		return x
	}
	floats.Scale(1./span, x)
	return x
}

// ribbonAngles integrates vorticity over time with explicit Euler.
func ribbonAngles(ss []Sample) []float64 {
	th := make([]float64, len(ss))
	for j := 1; j < len(ss); j++ {
		th[j] = th[j-1] + ss[j-1].Vorticity*(ss[j].T-ss[j-1].T)
	}
	return th
}

// tangents are unit velocities, or unit chords where no velocity was recorded.
func tangents(ss []Sample) []r3.Vec {
	n := len(ss)
	o := make([]r3.Vec, n)
	for j := range ss {
		if ss[j].V != (r3.Vec{}) {
			o[j] = r3.Unit(ss[j].V)
			continue
		}
		a, b := j, j+1
		if b == n {
			a, b = n-2, n-1
		}
		if d := r3.Sub(ss[b].P, ss[a].P); d != (r3.Vec{}) {
			o[j] = r3.Unit(d)
		}
	}
	return o
}

func opacity(raw []float64, o OutputOptions) []float64 {
	out := make([]float64, len(raw))
	if o.Opacity == ColorSolid || len(raw) == 0 {
		for i := range out {
			out[i] = o.OpacityValue
		}
		return out
	}
	lo, hi := floats.Min(raw), floats.Max(raw)
	if hi == lo {
		for i := range out {
			out[i] = 1.
		}
		return out
	}
	copy(out, raw)
	floats.AddConst(-lo, out)
	floats.Scale(1./(hi-lo), out)
	return out
}
