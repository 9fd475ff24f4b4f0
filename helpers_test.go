package icurve

import (
	"testing"

	"github.com/maseology/icurve/mesh"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func uniform(v r3.Vec) func(r3.Vec) r3.Vec { return func(r3.Vec) r3.Vec { return v } }

func vortex(p r3.Vec) r3.Vec { return r3.Vec{X: -p.Y, Y: p.X} }

func lattice(t *testing.T, g mesh.Lattice, fn func(r3.Vec) r3.Vec) *mesh.Unstructured {
	t.Helper()
	u, err := mesh.NewRectilinear(g)
	require.NoError(t, err)
	require.NoError(t, mesh.SamplePointVectors(u, "v", fn))
	return u
}

func directField(t *testing.T, u mesh.Mesh) *DirectField {
	t.Helper()
	loc, err := mesh.NewKDLocator(u, 0)
	require.NoError(t, err)
	f, err := NewDirectField(u, loc, "v")
	require.NoError(t, err)
	return f
}

func box(n [3]int, lo, hi r3.Vec) mesh.Lattice {
	return mesh.Lattice{Dims: n, Min: lo, Max: hi}
}
