package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module provides pipeline Prometheus metrics on the default registry.
var Module = fx.Provide(NewDefault)

// Metrics exposes Prometheus counters for the ingestion pipeline.
type Metrics struct {
	OwnersProcessed    *prometheus.CounterVec
	VisureFetched      *prometheus.CounterVec
	Calculations       *prometheus.CounterVec
	Attestazioni       *prometheus.CounterVec
	InstructionSkipped prometheus.Counter
}

func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// New registers pipeline metrics on the given registerer. Tests pass a
// throwaway registry so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OwnersProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attesta_owners_processed_total",
			Help: "Counts per-owner pipeline runs by outcome.",
		}, []string{"outcome"}),
		VisureFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attesta_visure_fetched_total",
			Help: "Counts visura fetch decisions by reason.",
		}, []string{"reason"}),
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attesta_canone_calculations_total",
			Help: "Counts canone calculations by outcome.",
		}, []string{"outcome"}),
		Attestazioni: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attesta_attestazioni_total",
			Help: "Counts attestazione generation attempts by status.",
		}, []string{"status"}),
		InstructionSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attesta_ambiguous_instructions_skipped_total",
			Help: "Counts operator instructions skipped by the ambiguity guard.",
		}),
	}

	reg.MustRegister(
		m.OwnersProcessed,
		m.VisureFetched,
		m.Calculations,
		m.Attestazioni,
		m.InstructionSkipped,
	)
	return m
}
