package export

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maseology/icurve"
	"github.com/maseology/icurve/mesh"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func curves() []*icurve.Curve {
	var o []*icurve.Curve
	for id := int64(0); id < 2; id++ {
		c := icurve.NewCurve(id, icurve.Forward, r3.Vec{}, 0)
		for j := 0; j < 3; j++ {
			c.Samples = append(c.Samples, icurve.Sample{
				P: r3.Vec{X: float64(j), Y: float64(id)},
				T: float64(j),
				V: r3.Vec{X: 1},
			})
		}
		c.Status, c.Steps = icurve.TerminatedMaxSteps, 3
		o = append(o, c)
	}
	return o
}

func polylines() *icurve.Polylines {
	return icurve.BuildPolylines(curves(), icurve.OutputOptions{Color: icurve.ColorTime, OpacityValue: 1})
}

func TestWritePolylinesVTK(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePolylinesVTK(&buf, polylines()))
	b := buf.Bytes()

	assert.True(t, bytes.HasPrefix(b, []byte("# vtk DataFile Version 3.0\n")))
	for _, s := range []string{"POINTS 6 float\n", "CELLS 2 8\n", "CELL_TYPES 2\n", "POINT_DATA 6", "SCALARS theta float", "VECTORS tangents float\n"} {
		assert.Contains(t, string(b), s)
	}

	// first point follows the POINTS header as big-endian float32
	i := bytes.Index(b, []byte("POINTS 6 float\n")) + len("POINTS 6 float\n")
	var p [3]float32
	require.NoError(t, binary.Read(bytes.NewReader(b[i:i+12]), binary.BigEndian, &p))
	assert.Equal(t, [3]float32{0, 0, 0}, p)

	j := bytes.Index(b, []byte("CELL_TYPES 2\n")) + len("CELL_TYPES 2\n")
	assert.Equal(t, uint32(4), binary.BigEndian.Uint32(b[j:j+4]))
}

func TestWriteMeshVTK(t *testing.T) {
	parts, err := mesh.Lattice{Dims: [3]int{4, 2, 2}, Max: r3.Vec{X: 3, Y: 1, Z: 1}}.Partition(2, 1)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteMeshVTK(&buf, parts[1]))
	s := buf.String()
	assert.Contains(t, s, "CELLS 3 27\n")
	assert.Contains(t, s, "SCALARS ghost int")
}

func TestGeoJSON(t *testing.T) {
	b, err := GeoJSON(polylines())
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(b)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	f := fc.Features[1]
	assert.True(t, f.Geometry.IsLineString())
	assert.Equal(t, [][]float64{{0, 1, 0}, {1, 1, 0}, {2, 1, 0}}, f.Geometry.LineString)
	assert.Equal(t, 1., f.Properties["curve"])
}

func TestCurvesGobRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curves.gob")
	in := curves()
	require.NoError(t, SaveFile(path, func(w io.Writer) error { return SaveCurvesGob(w, in) }))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rs, err := LoadCurvesGob(f)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	out := Curves(rs)
	assert.Equal(t, in[1].Samples, out[1].Samples)
	assert.Equal(t, icurve.TerminatedMaxSteps, out[1].Status)
	assert.Equal(t, r3.Vec{X: 2, Y: 1}, out[1].Position())
}

func TestSaveTraceCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	xy := []icurve.XY{{X: 0, Y: 1.5}, {X: 1, Y: math.Pi}}
	require.NoError(t, SaveTraceCSV(path, icurve.TraceStep, icurve.TraceSpeed, xy))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Equal(t, []string{"step,speed", "0,1.5", "1,3.141592653589793"}, lines)
}

func TestSaveTraceCSVMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none", "trace.csv")
	assert.Error(t, SaveTraceCSV(path, icurve.TraceTime, icurve.TraceSpeed, nil))
}

func TestSaveFileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := SaveFile(path, func(io.Writer) error { return io.ErrShortWrite })
	assert.ErrorIs(t, err, io.ErrShortWrite)
}
