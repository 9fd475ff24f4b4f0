// Package config loads batch descriptions for the icurve command from YAML or
// gcfg (INI-style) files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/maseology/icurve"
	"github.com/maseology/icurve/mesh"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/gcfg.v1"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Batch is a complete run description. Each field is a section of a gcfg file
// or a top-level key of a YAML file.
type Batch struct {
	Run    Run    `yaml:"run"`
	Solver Solver `yaml:"solver"`
	Output Output `yaml:"output"`
	Trace  Trace  `yaml:"trace"`
	Mesh   Mesh   `yaml:"mesh"`
	Warn   Warn   `yaml:"warn"`
}

// Run holds the per-curve policy and batch controls.
type Run struct {
	Direction      string   `yaml:"direction" validate:"oneof=forward backward"`
	MaxSteps       int      `yaml:"maxsteps" validate:"gt=0"`
	CriticalSpeed  float64  `yaml:"criticalspeed" validate:"gte=0"`
	Samples        []string `yaml:"samples" validate:"dive,oneof=time arclength velocity vorticity scalar"`
	Scalar         string   `yaml:"scalar"`
	RecordSeed     bool     `yaml:"recordseed"`
	Workers        int      `yaml:"workers" validate:"gte=1"`
	TimeoutSeconds float64  `yaml:"timeoutseconds" validate:"gte=0"`

	// seeds are spread evenly along SeedStart-SeedEnd
	SeedStart string `yaml:"seedstart" validate:"required"`
	SeedEnd   string `yaml:"seedend"`
	SeedCount int    `yaml:"seedcount" validate:"gte=1"`
}

type Solver struct {
	Kind       string  `yaml:"kind" validate:"oneof=rk4 adaptive euler_time euler_space"`
	Step       float64 `yaml:"step" validate:"gt=0"`
	Tolerance  float64 `yaml:"tolerance" validate:"gte=0"`
	MinStep    float64 `yaml:"minstep" validate:"gte=0"`
	MaxStep    float64 `yaml:"maxstep" validate:"gte=0"`
	MaxRetries int     `yaml:"maxretries" validate:"gte=0"`
}

type Output struct {
	Color        string  `yaml:"color" validate:"oneof=solid speed vorticity arclength time step id scalar"`
	Param        string  `yaml:"param" validate:"oneof=distance time step"`
	Opacity      string  `yaml:"opacity" validate:"oneof=solid speed vorticity arclength time step id scalar"`
	OpacityValue float64 `yaml:"opacityvalue" validate:"gte=0,lte=1"`
	Coords       string  `yaml:"coords" validate:"oneof=cartesian cylindrical custom_angular"`
	PhiFactor    float64 `yaml:"phifactor"`
}

type Trace struct {
	X string `yaml:"x" validate:"oneof=step time arclength speed vorticity variable"`
	Y string `yaml:"y" validate:"oneof=step time arclength speed vorticity variable"`
}

// Mesh describes the synthetic lattice and analytic field the command samples.
type Mesh struct {
	NX         int      `yaml:"nx" validate:"gte=2"`
	NY         int      `yaml:"ny" validate:"gte=2"`
	NZ         int      `yaml:"nz" validate:"gte=1"`
	Min        string   `yaml:"min" validate:"required"`
	Max        string   `yaml:"max" validate:"required"`
	Field      string   `yaml:"field" validate:"oneof=uniform vortex saddle helix zero"`
	Velocity   string   `yaml:"velocity"`
	CellData   bool     `yaml:"celldata"`
	Normalize  bool     `yaml:"normalize"`
	Partitions int      `yaml:"partitions" validate:"gte=1"`
	Ghost      int      `yaml:"ghost" validate:"gte=0"`
	Offsets    []string `yaml:"offsets" validate:"max=3"`
}

// Warn enables the aggregated advisory per termination cause.
type Warn struct {
	MaxSteps      bool `yaml:"maxsteps"`
	CriticalPoint bool `yaml:"criticalpoint"`
	Stiffness     bool `yaml:"stiffness"`
	FieldError    bool `yaml:"fielderror"`
}

// Default returns a batch with every optional value filled in.
func Default() *Batch {
	return &Batch{
		Run: Run{
			Direction: "forward",
			MaxSteps:  1000,
			Samples:   []string{"time", "arclength", "velocity"},
			Workers:   1,
			SeedCount: 1,
		},
		Solver: Solver{Kind: "adaptive", Step: .1, Tolerance: 1e-6, MinStep: 1e-9},
		Output: Output{Color: "speed", Param: "distance", Opacity: "solid", OpacityValue: 1, Coords: "cartesian"},
		Trace:  Trace{X: "time", Y: "speed"},
		Mesh:   Mesh{NX: 11, NY: 11, NZ: 2, Min: "0,0,0", Max: "1,1,1", Field: "vortex", Velocity: "1,0,0", Partitions: 1, Ghost: 1},
		Warn:   Warn{MaxSteps: true, CriticalPoint: true, Stiffness: true, FieldError: true},
	}
}

// Load reads path over the defaults; .ini, .cfg and .gcfg files are parsed
// with gcfg, anything else as YAML.
func Load(path string) (*Batch, error) {
	b := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg", ".gcfg":
		// gcfg appends multi-valued variables
		b.Run.Samples = nil
		if err := gcfg.ReadFileInto(b, path); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, b); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return b, nil
}

// Validate checks field tags and the geometry strings.
func (b *Batch) Validate() error {
	if err := validate.Struct(b); err != nil {
		return err
	}
	lo, err := ParseVec(b.Mesh.Min)
	if err != nil {
		return err
	}
	hi, err := ParseVec(b.Mesh.Max)
	if err != nil {
		return err
	}
	if hi.X <= lo.X || hi.Y <= lo.Y || (b.Mesh.NZ > 1 && hi.Z <= lo.Z) {
		return fmt.Errorf("mesh max %v must exceed min %v", hi, lo)
	}
	if b.Mesh.Partitions > b.Mesh.NX-1 {
		return fmt.Errorf("%d partitions for %d cell columns", b.Mesh.Partitions, b.Mesh.NX-1)
	}
	if _, err := b.Offsets(); err != nil {
		return err
	}
	if _, err := b.Seeds(); err != nil {
		return err
	}
	if b.Solver.Kind == "adaptive" && b.Solver.Tolerance == 0 {
		return errors.New("adaptive solver needs a positive tolerance")
	}
	return nil
}

// ParseVec reads "x,y,z"; missing trailing components are zero.
func ParseVec(s string) (r3.Vec, error) {
	var c [3]float64
	fs := strings.Split(s, ",")
	if len(fs) > 3 || strings.TrimSpace(s) == "" {
		return r3.Vec{}, fmt.Errorf("invalid vector %q", s)
	}
	for i, f := range fs {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("invalid vector %q: %w", s, err)
		}
		c[i] = v
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// Lattice returns the synthetic mesh geometry.
func (b *Batch) Lattice() mesh.Lattice {
	lo, _ := ParseVec(b.Mesh.Min)
	hi, _ := ParseVec(b.Mesh.Max)
	return mesh.Lattice{Dims: [3]int{b.Mesh.NX, b.Mesh.NY, b.Mesh.NZ}, Min: lo, Max: hi}
}

// Offsets returns the staggering offsets of the vector components.
func (b *Batch) Offsets() ([3]r3.Vec, error) {
	var o [3]r3.Vec
	for i, s := range b.Mesh.Offsets {
		v, err := ParseVec(s)
		if err != nil {
			return o, err
		}
		o[i] = v
	}
	return o, nil
}

// Seeds spreads Run.SeedCount seeds evenly from SeedStart to SeedEnd.
func (b *Batch) Seeds() ([]icurve.Seed, error) {
	p0, err := ParseVec(b.Run.SeedStart)
	if err != nil {
		return nil, err
	}
	p1 := p0
	if b.Run.SeedEnd != "" {
		if p1, err = ParseVec(b.Run.SeedEnd); err != nil {
			return nil, err
		}
	}
	n := b.Run.SeedCount
	o := make([]icurve.Seed, n)
	for i := range o {
		f := 0.
		if n > 1 {
			f = float64(i) / float64(n-1)
		}
		o[i] = icurve.Seed{P: r3.Add(p0, r3.Scale(f, r3.Sub(p1, p0)))}
	}
	return o, nil
}

// Policy returns the per-curve policy. A bound scalar uses handle 0.
func (b *Batch) Policy() icurve.Policy {
	var a icurve.Attribute
	for _, s := range b.Run.Samples {
		switch s {
		case "time":
			a |= icurve.AttrTime
		case "arclength":
			a |= icurve.AttrArclength
		case "velocity":
			a |= icurve.AttrVelocity
		case "vorticity":
			a |= icurve.AttrVorticity
		case "scalar":
			a |= icurve.AttrScalar
		}
	}
	return icurve.Policy{
		MaxSteps:      b.Run.MaxSteps,
		CriticalSpeed: b.Run.CriticalSpeed,
		Attributes:    a,
		RecordSeed:    b.Run.RecordSeed,
	}
}

func (b *Batch) Direction() icurve.Direction {
	if b.Run.Direction == "backward" {
		return icurve.Backward
	}
	return icurve.Forward
}

func (b *Batch) NewSolver() icurve.Solver {
	s := b.Solver
	switch s.Kind {
	case "rk4":
		return icurve.RungeKutta{Dt: s.Step}
	case "euler_time":
		return icurve.EulerTime{Dt: s.Step}
	case "euler_space":
		return icurve.EulerSpace{Ds: s.Step}
	}
	return icurve.RungeKuttaAdaptive{Ds: s.Tolerance, Dt: s.Step, MinDt: s.MinStep, MaxDt: s.MaxStep, MaxRetries: s.MaxRetries}
}

var colorVars = map[string]icurve.ColorVar{
	"solid":     icurve.ColorSolid,
	"speed":     icurve.ColorSpeed,
	"vorticity": icurve.ColorVorticity,
	"arclength": icurve.ColorArclength,
	"time":      icurve.ColorTime,
	"step":      icurve.ColorStep,
	"id":        icurve.ColorCurveID,
	"scalar":    icurve.ColorScalar,
}

var paramVars = map[string]icurve.ParamVar{
	"distance": icurve.ParamDistance,
	"time":     icurve.ParamTime,
	"step":     icurve.ParamStep,
}

var coordSystems = map[string]icurve.CoordSystem{
	"cartesian":      icurve.Cartesian,
	"cylindrical":    icurve.Cylindrical,
	"custom_angular": icurve.CustomAngular,
}

var traceKinds = map[string]icurve.TraceKind{
	"step":      icurve.TraceStep,
	"time":      icurve.TraceTime,
	"arclength": icurve.TraceArclength,
	"speed":     icurve.TraceSpeed,
	"vorticity": icurve.TraceVorticity,
	"variable":  icurve.TraceVariable,
}

func (b *Batch) OutputOptions() icurve.OutputOptions {
	o := b.Output
	return icurve.OutputOptions{
		Color:        colorVars[o.Color],
		Param:        paramVars[o.Param],
		Opacity:      colorVars[o.Opacity],
		OpacityValue: o.OpacityValue,
		Coords:       coordSystems[o.Coords],
		PhiFactor:    o.PhiFactor,
	}
}

// TraceKinds returns the x and y kinds of a scalar trace.
func (b *Batch) TraceKinds() (icurve.TraceKind, icurve.TraceKind) {
	return traceKinds[b.Trace.X], traceKinds[b.Trace.Y]
}

// AssemblerOptions gathers everything but the domain an Assembler needs.
func (b *Batch) AssemblerOptions(log *slog.Logger, m *icurve.Metrics) icurve.Options {
	return icurve.Options{
		Policy:    b.Policy(),
		Direction: b.Direction(),
		Solver:    b.NewSolver(),
		Workers:   b.Run.Workers,
		Timeout:   time.Duration(b.Run.TimeoutSeconds * float64(time.Second)),
		Warn: icurve.WarnFlags{
			MaxSteps:      b.Warn.MaxSteps,
			CriticalPoint: b.Warn.CriticalPoint,
			Stiffness:     b.Warn.Stiffness,
			FieldError:    b.Warn.FieldError,
		},
		Logger:  log,
		Metrics: m,
	}
}
