package icurve

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats summarises a batch. Per-worker counts are summed once every worker has
// finished.
type Stats struct {
	Curves         int
	Terminated     [numTerminations]int
	Steps          int
	Passes         int // partition visits, one per Advect call
	Handoffs       int
	Abandoned      int
	LookupFailures int
}

// Count returns the number of curves that stopped for cause t.
func (s *Stats) Count(t Termination) int {
	if t < 0 || t >= numTerminations {
		return 0
	}
	return s.Terminated[t]
}

func (s *Stats) add(o *Stats) {
	s.Curves += o.Curves
	for i, n := range o.Terminated {
		s.Terminated[i] += n
	}
	s.Steps += o.Steps
	s.Passes += o.Passes
	s.Handoffs += o.Handoffs
	s.Abandoned += o.Abandoned
	s.LookupFailures += o.LookupFailures
}

// WarnFlags enables the aggregated advisory for each unusual termination cause.
type WarnFlags struct {
	MaxSteps      bool
	CriticalPoint bool
	Stiffness     bool
	FieldError    bool
}

// AllWarnings enables every advisory.
var AllWarnings = WarnFlags{MaxSteps: true, CriticalPoint: true, Stiffness: true, FieldError: true}

// Warning is a single advisory covering every curve that stopped for Cause.
type Warning struct {
	Cause   Termination
	Count   int
	Message string
}

// Warnings returns at most one advisory per termination cause.
func (s *Stats) Warnings(w WarnFlags) []Warning {
	var o []Warning
	for t := NotTerminated; t < numTerminations; t++ {
		n := s.Count(t)
		if n == 0 {
			continue
		}
		var msg string
		switch t {
		case NotTerminated, TerminatedDomainExit:
			continue
		case TerminatedMaxSteps:
			if !w.MaxSteps {
				continue
			}
			msg = fmt.Sprintf("%d curves stopped at the maximum number of steps; raise the step limit to lengthen them", n)
		case TerminatedCriticalPoint:
			if !w.CriticalPoint {
				continue
			}
			msg = fmt.Sprintf("%d curves circled a critical point until the step limit was reached", n)
		case TerminatedStiffness:
			if !w.Stiffness {
				continue
			}
			msg = fmt.Sprintf("%d curves stopped because the step size collapsed; the field may be stiff or discontinuous there", n)
		case TerminatedFieldError:
			if !w.FieldError {
				continue
			}
			msg = fmt.Sprintf("%d curves were dropped after the field could not be evaluated", n)
		default:
			msg = fmt.Sprintf("%d curves stopped with unhandled cause %v", n, t)
		}
		o = append(o, Warning{Cause: t, Count: n, Message: msg})
	}
	return o
}

// Metrics exports batch statistics as prometheus counters.
type Metrics struct {
	terminated *prometheus.CounterVec
	handoffs   prometheus.Counter
	abandoned  prometheus.Counter
	steps      prometheus.Counter
}

// NewMetrics registers the icurve counters with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		terminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "icurve",
			Name:      "curves_terminated_total",
			Help:      "Curves finished, by termination cause.",
		}, []string{"cause"}),
		handoffs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icurve",
			Name:      "handoffs_total",
			Help:      "Curves continued on a neighbouring partition.",
		}),
		abandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icurve",
			Name:      "curves_abandoned_total",
			Help:      "Curves abandoned when a batch timed out.",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icurve",
			Name:      "steps_total",
			Help:      "Accepted integration steps.",
		}),
	}
	for _, c := range []prometheus.Collector{m.terminated, m.handoffs, m.abandoned, m.steps} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(s *Stats) {
	if m == nil {
		return
	}
	for t := NotTerminated; t < numTerminations; t++ {
		if n := s.Count(t); n > 0 {
			m.terminated.WithLabelValues(t.String()).Add(float64(n))
		}
	}
	m.handoffs.Add(float64(s.Handoffs))
	m.abandoned.Add(float64(s.Abandoned))
	m.steps.Add(float64(s.Steps))
}
