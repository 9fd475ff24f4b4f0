package export

import (
	"io"

	"github.com/maseology/icurve"
	geojson "github.com/paulmach/go.geojson"
)

// GeoJSON returns pl as a feature collection of line strings, one per curve,
// carrying the curve id and the per-vertex colour and parameter channels.
func GeoJSON(pl *icurve.Polylines) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for i, l := range pl.Lines {
		coords := make([][]float64, len(l))
		color, param := make([]float64, len(l)), make([]float64, len(l))
		for j, k := range l {
			p := pl.Points[k]
			coords[j] = []float64{p.X, p.Y, p.Z}
			color[j], param[j] = pl.ColorVar[k], pl.Params[k]
		}
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("curve", pl.CurveIDs[i])
		f.SetProperty("colorVar", color)
		f.SetProperty("params", param)
		fc.AddFeature(f)
	}
	return fc.MarshalJSON()
}

// WriteGeoJSON writes GeoJSON(pl) followed by a newline.
func WriteGeoJSON(w io.Writer, pl *icurve.Polylines) error {
	b, err := GeoJSON(pl)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
