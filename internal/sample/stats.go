package sample

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Stats counts parsed and dropped lines. It is the optional debug counter
// for the otherwise silent drop policy.
type Stats struct {
	parsed  prometheus.Counter
	skipped *prometheus.CounterVec
}

// NewStats creates the counters and registers them on reg. A nil reg
// keeps them unregistered, which is what tests want.
func NewStats(reg prometheus.Registerer) *Stats {
	s := &Stats{
		parsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cube_viewer_samples_parsed_total",
			Help: "Sample lines applied to the scene.",
		}),
		skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cube_viewer_samples_skipped_total",
				Help: "Sample lines dropped, by reason.",
			},
			[]string{"reason"},
		),
	}
	if reg != nil {
		reg.MustRegister(s.parsed, s.skipped)
	}
	return s
}

func (s *Stats) Parsed() {
	s.parsed.Inc()
}

func (s *Stats) Skipped(r SkipReason) {
	s.skipped.With(prometheus.Labels{"reason": string(r)}).Inc()
}
