package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/san-kum/dynvec/internal/vector"
)

const (
	namespace = "dynvec"
	subsystem = "vector"
)

// Collectors contains the Prometheus metrics fed by vector observers.
type Collectors struct {
	Events        *prometheus.CounterVec
	Capacity      *prometheus.GaugeVec
	Reallocations *prometheus.CounterVec
}

// NewCollectors creates the vector collectors, labelled by growth policy.
func NewCollectors() *Collectors {
	labels := []string{"policy"}

	return &Collectors{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_total",
				Help:      "Storage and element events by kind",
			},
			append(labels, "kind"),
		),
		Capacity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "capacity",
				Help:      "Capacity of the most recently allocated block",
			},
			labels,
		),
		Reallocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reallocations_total",
				Help:      "Blocks allocated to move the elements out of an older block",
			},
			labels,
		),
	}
}

// Register registers all collectors with the provided registry
func (c *Collectors) Register(registry prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{c.Events, c.Capacity, c.Reallocations} {
		if err := registry.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// Observer returns a vector.Observer recording into the collectors under
// the given policy label. It holds no per-vector state, so clones and any
// number of vectors may share it.
func (c *Collectors) Observer(policy string) vector.Observer {
	return vector.ObserverFunc(func(e vector.Event) {
		c.Events.WithLabelValues(policy, e.Kind.String()).Inc()
		if e.Kind == vector.EventAllocate {
			if e.Replaces > 0 {
				c.Reallocations.WithLabelValues(policy).Inc()
			}
			c.Capacity.WithLabelValues(policy).Set(float64(e.Capacity))
		}
	})
}

// Sample is one gathered metric value.
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

// Gather reads every counter and gauge from g, sorted by name and labels.
func Gather(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			s := Sample{Name: mf.GetName(), Labels: labelString(m.GetLabel())}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				s.Value = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				s.Value = m.GetGauge().GetValue()
			default:
				continue
			}
			samples = append(samples, s)
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Name != samples[j].Name {
			return samples[i].Name < samples[j].Name
		}
		return samples[i].Labels < samples[j].Labels
	})
	return samples, nil
}

func labelString(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+p.GetValue())
	}
	return strings.Join(parts, ",")
}
