package export

import (
	"encoding/gob"
	"io"

	"github.com/maseology/icurve"
)

// Record is the persisted form of a finished curve.
type Record struct {
	ID      int64
	Dir     icurve.Direction
	Status  icurve.Termination
	Steps   int
	Samples []icurve.Sample
}

// SaveCurvesGob encodes curves so they can be reloaded without re-advecting.
func SaveCurvesGob(w io.Writer, curves []*icurve.Curve) error {
	rs := make([]Record, len(curves))
	for i, c := range curves {
		rs[i] = Record{ID: c.ID, Dir: c.Dir, Status: c.Status, Steps: c.Steps, Samples: c.Samples}
	}
	return gob.NewEncoder(w).Encode(rs)
}

// LoadCurvesGob decodes records written by SaveCurvesGob.
func LoadCurvesGob(r io.Reader) ([]Record, error) {
	var rs []Record
	if err := gob.NewDecoder(r).Decode(&rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// Curves rebuilds output-ready curves from records.
func Curves(rs []Record) []*icurve.Curve {
	o := make([]*icurve.Curve, len(rs))
	for i, r := range rs {
		var last icurve.Sample
		if n := len(r.Samples); n > 0 {
			last = r.Samples[n-1]
		}
		c := icurve.NewCurve(r.ID, r.Dir, last.P, last.T)
		c.Status, c.Steps, c.Samples = r.Status, r.Steps, r.Samples
		o[i] = c
	}
	return o
}
