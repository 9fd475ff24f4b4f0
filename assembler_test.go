package icurve

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/maseology/icurve/mesh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

var slab = box([3]int{5, 3, 3}, r3.Vec{}, r3.Vec{X: 4, Y: 2, Z: 2})

// partitioned splits g in two along x with one ghost layer.
func partitioned(t *testing.T, g mesh.Lattice, fn func(r3.Vec) r3.Vec) *Domain {
	t.Helper()
	parts, err := g.Partition(2, 1)
	require.NoError(t, err)
	var ps []*Partition
	for i, u := range parts {
		require.NoError(t, mesh.SamplePointVectors(u, "v", fn))
		ps = append(ps, MeshPartition(i, u, "v", []int{1 - i}))
	}
	d, err := NewDomain(ps...)
	require.NoError(t, err)
	return d
}

func seedsIn(rng *rand.Rand, n int, x0, x1 float64) []Seed {
	o := make([]Seed, n)
	for i := range o {
		o[i] = Seed{P: r3.Vec{
			X: x0 + (x1-x0)*rng.Float64(),
			Y: .1 + 1.8*rng.Float64(),
			Z: .1 + 1.8*rng.Float64(),
		}}
	}
	return o
}

func TestHandoffAcrossPartitions(t *testing.T) {
	d := partitioned(t, slab, uniform(r3.Vec{X: 1}))
	rng := rand.New(rand.NewSource(11))
	seeds := append(seedsIn(rng, 30, .1, 1.9), seedsIn(rng, 70, 2.1, 3.9)...)

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	var hops []Handoff
	a, err := NewAssembler(d, Options{
		Policy:    Policy{MaxSteps: 10000, Attributes: AttrTime | AttrArclength, RecordSeed: true},
		Solver:    RungeKutta{Dt: .25},
		Workers:   3,
		Warn:      AllWarnings,
		Metrics:   m,
		OnHandoff: func(h Handoff) { hops = append(hops, h) },
	})
	require.NoError(t, err)

	b, err := a.Run(context.Background(), seeds)
	require.NoError(t, err)
	assert.Len(t, hops, 30)
	assert.Equal(t, 30, b.Stats.Handoffs)
	assert.Empty(t, b.Warnings)
	assert.Equal(t, 100, b.Stats.Count(TerminatedDomainExit))
	assert.NotEmpty(t, b.RunID)
	require.Len(t, b.Curves, 100)

	for i, c := range b.Curves {
		assert.Equal(t, int64(i), c.ID)
		if i < 30 {
			assert.Equal(t, 1, c.Hops)
			assert.Equal(t, 1, c.Partition)
		} else {
			assert.Zero(t, c.Hops)
		}
		for j := 1; j < len(c.Samples); j++ {
			assert.Greater(t, c.Samples[j].P.X, c.Samples[j-1].P.X)
			assert.Greater(t, c.Samples[j].T, c.Samples[j-1].T)
		}
		assert.Greater(t, c.Position().X, 4.)
		assert.InDelta(t, c.Position().X-seeds[i].P.X, c.Arclength(), 1e-9)
	}
	for _, h := range hops {
		assert.Equal(t, 0, h.From)
		assert.Equal(t, 1, h.To)
		assert.Equal(t, h.State.P, h.Last.P)
		assert.Positive(t, h.Steps)
	}

	assert.Equal(t, 30., testutil.ToFloat64(m.handoffs))
	assert.Equal(t, 100., testutil.ToFloat64(m.terminated.WithLabelValues("domain_exit")))
	assert.Zero(t, testutil.ToFloat64(m.abandoned))
}

func TestRunWarnsOncePerCause(t *testing.T) {
	d := partitioned(t, box([3]int{9, 9, 2}, r3.Vec{X: -2, Y: -2}, r3.Vec{X: 2, Y: 2, Z: 1}), vortex)
	rng := rand.New(rand.NewSource(5))
	var seeds []Seed
	for i := 0; i < 40; i++ {
		r, a := .2+1.6*rng.Float64(), 2*math.Pi*rng.Float64()
		seeds = append(seeds, Seed{P: r3.Vec{X: r * math.Cos(a), Y: r * math.Sin(a), Z: .5}})
	}

	for _, warn := range []WarnFlags{AllWarnings, {}} {
		a, err := NewAssembler(d, Options{
			Policy: Policy{MaxSteps: 50},
			Solver: rk4,
			Warn:   warn,
		})
		require.NoError(t, err)
		b, err := a.Run(context.Background(), seeds)
		require.NoError(t, err)
		require.Equal(t, 40, b.Stats.Count(TerminatedMaxSteps))
		assert.Positive(t, b.Stats.Handoffs)
		if warn == AllWarnings {
			require.Len(t, b.Warnings, 1)
			assert.Equal(t, TerminatedMaxSteps, b.Warnings[0].Cause)
			assert.Equal(t, 40, b.Warnings[0].Count)
		} else {
			assert.Empty(t, b.Warnings)
		}
	}
}

func TestRunTimeout(t *testing.T) {
	d := partitioned(t, slab, uniform(r3.Vec{X: 1}))
	a, err := NewAssembler(d, Options{
		Policy:  Policy{MaxSteps: 100},
		Solver:  rk4,
		Timeout: time.Nanosecond,
	})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	seeds := seedsIn(rand.New(rand.NewSource(1)), 10, .1, 3.9)
	b, err := a.Run(context.Background(), seeds)
	require.ErrorIs(t, err, ErrTimeout)
	var pe *PartialError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 10, pe.Abandoned)
	assert.Empty(t, b.Curves)
}

func TestResetTimeout(t *testing.T) {
	d := partitioned(t, slab, uniform(r3.Vec{X: 1}))
	a, err := NewAssembler(d, Options{
		Policy:  Policy{MaxSteps: 100},
		Solver:  rk4,
		Timeout: time.Hour,
	})
	require.NoError(t, err)
	seeds := seedsIn(rand.New(rand.NewSource(2)), 5, .1, 3.9)
	for pass := 0; pass < 2; pass++ {
		a.ResetTimeout()
		b, err := a.Run(context.Background(), seeds)
		require.NoError(t, err)
		require.Len(t, b.Curves, 5)
		assert.Equal(t, int64(5*pass), b.Curves[0].ID, "ids continue across passes")
	}
}

func TestOverlappingRunsKeepIDsUnique(t *testing.T) {
	d := partitioned(t, slab, uniform(r3.Vec{X: 1}))
	a, err := NewAssembler(d, Options{Policy: Policy{MaxSteps: 50}, Solver: rk4, Workers: 2})
	require.NoError(t, err)

	const runs, per = 4, 25
	batches := make([]*Batch, runs)
	var g errgroup.Group
	for i := range batches {
		seeds := seedsIn(rand.New(rand.NewSource(int64(i))), per, .1, 3.9)
		g.Go(func() (err error) {
			batches[i], err = a.Run(context.Background(), seeds)
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[int64]bool, runs*per)
	for _, b := range batches {
		for _, c := range append(b.Curves, b.Dropped...) {
			assert.False(t, seen[c.ID], "curve %d issued twice", c.ID)
			seen[c.ID] = true
		}
	}
	assert.Len(t, seen, runs*per)
	for id := range int64(runs * per) {
		assert.True(t, seen[id], "curve %d missing", id)
	}
}

func TestRunSeedOutsideDomain(t *testing.T) {
	d := partitioned(t, slab, uniform(r3.Vec{X: 1}))
	a, err := NewAssembler(d, Options{Policy: Policy{MaxSteps: 10}, Solver: rk4})
	require.NoError(t, err)
	b, err := a.Run(context.Background(), []Seed{{P: r3.Vec{X: -5}}})
	require.NoError(t, err)
	require.Len(t, b.Curves, 1)
	assert.Equal(t, TerminatedDomainExit, b.Curves[0].Status)
	assert.Empty(t, b.Curves[0].Samples)

	_, err = a.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSeeds)
}

func TestRunDropsFieldErrors(t *testing.T) {
	u := lattice(t, cube, identity)
	d, err := NewDomain(MeshPartition(0, u, "v", nil, WithOffsets([3]r3.Vec{{X: .5}})))
	require.NoError(t, err)
	a, err := NewAssembler(d, Options{Policy: Policy{MaxSteps: 10}, Solver: rk4, Warn: AllWarnings})
	require.NoError(t, err)

	b, err := a.Run(context.Background(), []Seed{{P: r3.Vec{X: .1, Y: 1.5, Z: 1.5}}, {P: r3.Vec{X: 2, Y: 1.5, Z: 1.5}}})
	require.NoError(t, err)
	require.Len(t, b.Dropped, 1)
	assert.ErrorIs(t, b.Dropped[0].Err(), ErrLocateFailed)
	assert.Len(t, b.Curves, 1)
	assert.Equal(t, 1, b.Stats.Count(TerminatedFieldError))
	assert.Positive(t, b.Stats.LookupFailures)
	require.Len(t, b.Warnings, 2)
}

func TestNewAssemblerRejectsBadConfig(t *testing.T) {
	u := lattice(t, cube, identity)
	d, err := NewDomain(MeshPartition(0, u, "missing", nil))
	require.NoError(t, err)
	_, err = NewAssembler(d, Options{Policy: Policy{MaxSteps: 10}, Solver: rk4})
	assert.ErrorIs(t, err, ErrMissingArray)

	d, err = NewDomain(MeshPartition(0, u, "v", nil))
	require.NoError(t, err)
	_, err = NewAssembler(d, Options{Solver: rk4})
	assert.Error(t, err)
	_, err = NewAssembler(d, Options{Policy: Policy{MaxSteps: 1, CriticalSpeed: -1}, Solver: rk4})
	assert.Error(t, err)

	_, err = NewDomain(MeshPartition(0, u, "v", nil), MeshPartition(0, u, "v", nil))
	assert.Error(t, err)
}

func TestStatsWarnings(t *testing.T) {
	var s Stats
	s.Terminated[TerminatedStiffness] = 3
	s.Terminated[TerminatedDomainExit] = 12
	w := s.Warnings(AllWarnings)
	require.Len(t, w, 1)
	assert.Equal(t, TerminatedStiffness, w[0].Cause)
	assert.Contains(t, w[0].Message, "3 curves")
	assert.Empty(t, s.Warnings(WarnFlags{MaxSteps: true}))
}
