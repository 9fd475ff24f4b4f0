package icurve

import (
	"fmt"
	"sort"

	"github.com/maseology/icurve/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Partition is one piece of a decomposed domain. NewField is called once per
// worker (and once by the dispatcher) since fields cache their last lookup.
type Partition struct {
	ID        int
	Neighbors []int
	NewField  func() (Field, error)
}

// Domain is a set of partitions that together cover the region being advected.
type Domain struct {
	parts map[int]*Partition
	ids   []int
}

// NewDomain collects parts, which must carry distinct IDs.
func NewDomain(parts ...*Partition) (*Domain, error) {
	d := &Domain{parts: make(map[int]*Partition, len(parts))}
	for _, p := range parts {
		if p.NewField == nil {
			return nil, fmt.Errorf("icurve.NewDomain: partition %d has no field constructor", p.ID)
		}
		if _, ok := d.parts[p.ID]; ok {
			return nil, fmt.Errorf("icurve.NewDomain: duplicate partition %d", p.ID)
		}
		d.parts[p.ID] = p
		d.ids = append(d.ids, p.ID)
	}
	sort.Ints(d.ids)
	return d, nil
}

// NumPartitions returns the number of partitions in the domain.
func (d *Domain) NumPartitions() int { return len(d.ids) }

// Partitions returns the partitions ordered by ID.
func (d *Domain) Partitions() []*Partition {
	o := make([]*Partition, len(d.ids))
	for i, id := range d.ids {
		o[i] = d.parts[id]
	}
	return o
}

// routes is a field per partition used to route curves. It belongs to the
// dispatching goroutine alone.
type routes struct {
	d      *Domain
	fields map[int]Field
}

func (d *Domain) routes() (*routes, error) {
	pr := &routes{d: d, fields: make(map[int]Field, len(d.ids))}
	for _, id := range d.ids {
		f, err := d.parts[id].NewField()
		if err != nil {
			return nil, fmt.Errorf("icurve: partition %d: %w", id, err)
		}
		pr.fields[id] = f
	}
	return pr, nil
}

// owner returns the partition other than from that owns p at t, trying from's
// neighbours first; -1 when no partition does.
func (pr *routes) owner(from int, t float64, p r3.Vec) int {
	tried := map[int]bool{from: true}
	if q, ok := pr.d.parts[from]; ok {
		for _, id := range q.Neighbors {
			if tried[id] {
				continue
			}
			tried[id] = true
			if f, ok := pr.fields[id]; ok && f.IsInside(t, p) == Inside {
				return id
			}
		}
	}
	for _, id := range pr.d.ids {
		if !tried[id] && pr.fields[id].IsInside(t, p) == Inside {
			return id
		}
	}
	return -1
}

// FieldOption configures the fields built by MeshPartition.
type FieldOption func(*fieldConfig)

type fieldConfig struct {
	normalize  bool
	candidates int
	offsets    [3]r3.Vec
	scalars    map[ScalarHandle]string
	t0, t1     *float64
}

// WithNormalize makes the field return unit vectors.
func WithNormalize() FieldOption { return func(c *fieldConfig) { c.normalize = true } }

// WithCandidates sets the number of nearest cells the locator tests before
// falling back to a scan.
func WithCandidates(k int) FieldOption { return func(c *fieldConfig) { c.candidates = k } }

// WithOffsets samples the vector array as staggered by the given per-component
// parametric offsets.
func WithOffsets(off [3]r3.Vec) FieldOption { return func(c *fieldConfig) { c.offsets = off } }

// WithScalar binds the named 1-component array to h.
func WithScalar(h ScalarHandle, name string) FieldOption {
	return func(c *fieldConfig) { c.scalars[h] = name }
}

// WithTimeRange limits the field to [t0,t1].
func WithTimeRange(t0, t1 float64) FieldOption {
	return func(c *fieldConfig) { c.t0, c.t1 = &t0, &t1 }
}

// MeshPartition returns a partition interpolating the named vector array of m.
// Every field it builds has its own locator.
func MeshPartition(id int, m mesh.Mesh, vector string, neighbors []int, opts ...FieldOption) *Partition {
	cfg := fieldConfig{candidates: mesh.DefaultCandidates, scalars: map[ScalarHandle]string{}}
	for _, o := range opts {
		o(&cfg)
	}
	return &Partition{
		ID:        id,
		Neighbors: neighbors,
		NewField:  func() (Field, error) { return newMeshField(m, vector, &cfg) },
	}
}

func newMeshField(m mesh.Mesh, vector string, cfg *fieldConfig) (Field, error) {
	loc, err := mesh.NewKDLocator(m, cfg.candidates)
	if err != nil {
		return nil, err
	}
	f, err := NewDirectField(m, loc, vector)
	if err != nil {
		return nil, err
	}
	f.Normalize = cfg.normalize
	if cfg.t0 != nil {
		f.SetTimeRange(*cfg.t0, *cfg.t1)
	}
	for h, name := range cfg.scalars {
		if err := f.BindScalar(h, name); err != nil {
			return nil, err
		}
	}
	if cfg.offsets != ([3]r3.Vec{}) {
		return NewOffsetField(f, cfg.offsets), nil
	}
	return f, nil
}
