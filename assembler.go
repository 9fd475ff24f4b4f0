package icurve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// Seed is the starting point of one curve.
type Seed struct {
	P r3.Vec
	T float64
}

// Options configure an Assembler.
type Options struct {
	Policy    Policy
	Direction Direction
	Solver    Solver
	Workers   int           // workers per partition
	Timeout   time.Duration // 0 disables the watchdog
	Warn      WarnFlags
	Logger    *slog.Logger
	Metrics   *Metrics

	// OnHandoff, when set, observes every cross-partition continuation. It is
	// called from the dispatching goroutine.
	OnHandoff func(Handoff)
}

// Handoff carries a curve to the worker pool of the partition that owns its
// current point.
type Handoff struct {
	ID       int64
	Dir      Direction
	From, To int
	Steps    int
	State    IVPState
	Last     Sample // zero for a fresh seed

	curve     *Curve
	abandoned bool
}

// Batch is the outcome of Run.
type Batch struct {
	RunID    string
	Curves   []*Curve // ordered by ID
	Dropped  []*Curve // stopped by a field fault, excluded from output
	Stats    Stats
	Warnings []Warning
}

// Assembler drives batches of curves through a partitioned domain.
type Assembler struct {
	d        *Domain
	opts     Options
	log      *slog.Logger
	deadline atomic.Int64
	nextID   atomic.Int64
}

// NewAssembler checks opts and every partition's field constructor, and starts
// the timeout watchdog.
func NewAssembler(d *Domain, opts Options) (*Assembler, error) {
	if d == nil || d.NumPartitions() == 0 {
		return nil, errors.New("icurve.NewAssembler: empty domain")
	}
	if opts.Policy.MaxSteps <= 0 {
		return nil, fmt.Errorf("icurve.NewAssembler: max steps must be positive, got %d", opts.Policy.MaxSteps)
	}
	if opts.Policy.CriticalSpeed < 0 {
		return nil, fmt.Errorf("icurve.NewAssembler: negative critical speed %g", opts.Policy.CriticalSpeed)
	}
	if opts.Solver == nil {
		return nil, errors.New("icurve.NewAssembler: no solver")
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if _, err := d.routes(); err != nil {
		return nil, err
	}
	a := &Assembler{d: d, opts: opts, log: opts.Logger}
	if a.log == nil {
		a.log = slog.Default()
	}
	a.ResetTimeout()
	return a, nil
}

// ResetTimeout restarts the watchdog. Call it between passes of a multi-pass
// operation.
func (a *Assembler) ResetTimeout() {
	if a.opts.Timeout > 0 {
		a.deadline.Store(time.Now().Add(a.opts.Timeout).UnixNano())
	}
}

func (a *Assembler) expired() bool {
	dl := a.deadline.Load()
	return dl > 0 && time.Now().UnixNano() > dl
}

type worker struct {
	part  int
	f     Field
	stats Stats
}

// Run advects one curve per seed to completion. Curve IDs continue across runs
// of the same Assembler and stay unique when runs overlap. When the watchdog fires, unfinished curves are
// abandoned and the returned error is a *PartialError alongside the finished
// curves.
func (a *Assembler) Run(ctx context.Context, seeds []Seed) (*Batch, error) {
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	pr, err := a.d.routes()
	if err != nil {
		return nil, err
	}
	var ws []*worker
	inbox := make(map[int]chan Handoff, a.d.NumPartitions())
	for _, p := range a.d.Partitions() {
		inbox[p.ID] = make(chan Handoff, len(seeds))
		for i := 0; i < a.opts.Workers; i++ {
			f, err := p.NewField()
			if err != nil {
				return nil, fmt.Errorf("icurve: partition %d: %w", p.ID, err)
			}
			ws = append(ws, &worker{part: p.ID, f: f})
		}
	}

	b := &Batch{RunID: uuid.NewString()}
	log := a.log.With("run", b.RunID)
	done := make(chan Handoff, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range ws {
		g.Go(func() error {
			a.work(gctx, w, inbox[w.part], done, log)
			return nil
		})
	}

	var st Stats
	finish := func(c *Curve) {
		st.Curves++
		st.Terminated[c.Status]++
		st.Steps += c.Steps
		if c.Status == TerminatedFieldError {
			log.Debug("curve dropped", "curve", c.ID, "err", c.Err())
			b.Dropped = append(b.Dropped, c)
			return
		}
		b.Curves = append(b.Curves, c)
	}

	pending := 0
	for _, s := range seeds {
		c := NewCurve(a.nextID.Add(1)-1, a.opts.Direction, s.P, s.T)
		to := pr.owner(-1, s.T, s.P)
		if to < 0 {
			c.Status = TerminatedDomainExit
			finish(c)
			continue
		}
		inbox[to] <- newHandoff(c, -1, to)
		pending++
	}
	for pending > 0 {
		h := <-done
		pending--
		c := h.curve
		if h.abandoned {
			st.Abandoned++
			continue
		}
		if c.Status == TerminatedDomainExit {
			if to := pr.owner(c.Partition, c.Time(), c.Position()); to >= 0 {
				nh := newHandoff(c, c.Partition, to)
				st.Handoffs++
				if a.opts.OnHandoff != nil {
					a.opts.OnHandoff(nh)
				}
				inbox[to] <- nh
				pending++
				continue
			}
		}
		finish(c)
	}
	for _, ch := range inbox {
		close(ch)
	}
	// workers report through done and never return an error
	g.Wait()

	for _, w := range ws {
		st.add(&w.stats)
	}
	sort.Slice(b.Curves, func(i, j int) bool { return b.Curves[i].ID < b.Curves[j].ID })
	b.Stats = st
	b.Warnings = st.Warnings(a.opts.Warn)
	for _, w := range b.Warnings {
		log.Warn(w.Message, "cause", w.Cause.String(), "count", w.Count)
	}
	a.opts.Metrics.observe(&st)
	log.Info("batch complete",
		"curves", st.Curves,
		"steps", st.Steps,
		"handoffs", st.Handoffs,
		"abandoned", st.Abandoned,
	)

	if st.Abandoned > 0 {
		var err error = &PartialError{Abandoned: st.Abandoned}
		if ctx.Err() != nil {
			err = errors.Join(err, ctx.Err())
		}
		return b, err
	}
	return b, nil
}

func newHandoff(c *Curve, from, to int) Handoff {
	h := Handoff{ID: c.ID, Dir: c.Dir, From: from, To: to, Steps: c.Steps, State: c.ivp, curve: c}
	if n := len(c.Samples); n > 0 {
		h.Last = c.Samples[n-1]
	}
	return h
}

// work advances every curve handed to its partition by one pass.
func (a *Assembler) work(ctx context.Context, w *worker, in <-chan Handoff, out chan<- Handoff, log *slog.Logger) {
	for h := range in {
		if a.expired() || ctx.Err() != nil {
			h.abandoned = true
			out <- h
			continue
		}
		c := h.curve
		c.ivp, c.Steps = h.State, h.Steps
		if h.From >= 0 {
			c.resume(h.To)
		} else {
			c.Partition = h.To
		}
		c.Advect(w.f, a.opts.Solver, &a.opts.Policy, log)
		w.stats.Passes++
		out <- h
	}
	if lf, ok := w.f.(interface{ Failures() int }); ok {
		w.stats.LookupFailures = lf.Failures()
	}
}
