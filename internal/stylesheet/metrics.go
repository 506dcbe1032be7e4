package stylesheet

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	applies prometheus.Counter
	errors  prometheus.Counter
	added   prometheus.Counter
	removed prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		applies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stylesheet_apply_total",
			Help: "The total number of deltas sent to the channel",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stylesheet_apply_err_total",
			Help: "The total number of deltas the channel failed to apply",
		}),
		added: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stylesheet_rules_added_total",
			Help: "The total number of rule texts acknowledged as added",
		}),
		removed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stylesheet_rules_removed_total",
			Help: "The total number of rule texts acknowledged as removed",
		}),
	}
}

func (m *metrics) register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.applies, m.errors, m.added, m.removed} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
