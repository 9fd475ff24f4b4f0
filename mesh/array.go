package mesh

import "fmt"

// Array is a named, flat, tuple-addressed data array.
type Array struct {
	Name  string
	comps int
	data  []float64
}

// NewArray wraps data as tuples of comps components.
func NewArray(name string, comps int, data []float64) (*Array, error) {
	if comps < 1 {
		return nil, fmt.Errorf("mesh.NewArray %q: invalid component count %d", name, comps)
	}
	if len(data)%comps != 0 {
		return nil, fmt.Errorf("mesh.NewArray %q: %d values is not a multiple of %d", name, len(data), comps)
	}
	return &Array{Name: name, comps: comps, data: data}, nil
}

// Components returns the number of components per tuple.
func (a *Array) Components() int { return a.comps }

// Len returns the number of tuples.
func (a *Array) Len() int { return len(a.data) / a.comps }

// Tuple returns a view of tuple i.
func (a *Array) Tuple(i int) []float64 { return a.data[i*a.comps : (i+1)*a.comps] }

// Component returns component c of tuple i.
func (a *Array) Component(i, c int) float64 { return a.data[i*a.comps+c] }
