package main

import (
	"fmt"

	"github.com/maseology/icurve"
	"github.com/maseology/icurve/config"
	"github.com/maseology/icurve/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	vectorArray = "velocity"
	scalarArray = "magnitude"
)

// analytic returns the named velocity field, centred on the lattice.
func analytic(name string, g mesh.Lattice, u r3.Vec) (func(r3.Vec) r3.Vec, error) {
	c := r3.Scale(.5, r3.Add(g.Min, g.Max))
	switch name {
	case "uniform":
		return func(r3.Vec) r3.Vec { return u }, nil
	case "zero":
		return func(r3.Vec) r3.Vec { return r3.Vec{} }, nil
	case "vortex":
		return func(p r3.Vec) r3.Vec { return r3.Vec{X: c.Y - p.Y, Y: p.X - c.X} }, nil
	case "saddle":
		return func(p r3.Vec) r3.Vec { return r3.Vec{X: p.X - c.X, Y: c.Y - p.Y} }, nil
	case "helix":
		return func(p r3.Vec) r3.Vec { return r3.Vec{X: c.Y - p.Y, Y: p.X - c.X, Z: .5} }, nil
	}
	return nil, fmt.Errorf("unknown field %q", name)
}

// buildDomain samples the configured field on every partition of the lattice.
// Slab i neighbours slabs i-1 and i+1.
func buildDomain(b *config.Batch) (*icurve.Domain, []*mesh.Unstructured, error) {
	g := b.Lattice()
	u, err := config.ParseVec(b.Mesh.Velocity)
	if err != nil {
		return nil, nil, err
	}
	fn, err := analytic(b.Mesh.Field, g, u)
	if err != nil {
		return nil, nil, err
	}
	ms, err := g.Partition(b.Mesh.Partitions, b.Mesh.Ghost)
	if err != nil {
		return nil, nil, err
	}
	offs, err := b.Offsets()
	if err != nil {
		return nil, nil, err
	}

	var opts []icurve.FieldOption
	if b.Mesh.Normalize {
		opts = append(opts, icurve.WithNormalize())
	}
	if offs != ([3]r3.Vec{}) {
		opts = append(opts, icurve.WithOffsets(offs))
	}
	if b.Run.Scalar != "" {
		opts = append(opts, icurve.WithScalar(b.Policy().Scalar, b.Run.Scalar))
	}

	parts := make([]*icurve.Partition, len(ms))
	for i, m := range ms {
		sample := mesh.SamplePointVectors
		if b.Mesh.CellData {
			sample = mesh.SampleCellVectors
		}
		if err := sample(m, vectorArray, fn); err != nil {
			return nil, nil, err
		}
		if err := mesh.SamplePointScalars(m, scalarArray, func(p r3.Vec) float64 { return r3.Norm(fn(p)) }); err != nil {
			return nil, nil, err
		}
		var nb []int
		if i > 0 {
			nb = append(nb, i-1)
		}
		if i < len(ms)-1 {
			nb = append(nb, i+1)
		}
		parts[i] = icurve.MeshPartition(i, m, vectorArray, nb, opts...)
	}
	d, err := icurve.NewDomain(parts...)
	return d, ms, err
}
