// Package prometheus implements redline.Observer with Prometheus metrics.
package prometheus

import (
	"fmt"
	"net/http"

	"github.com/fwojciec/redline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Compile-time interface verification.
var _ redline.Observer = (*Observer)(nil)

// Namespace prefixes every metric name.
const Namespace = "redline"

// Observer counts suggestion rounds, anchoring results and decisions.
type Observer struct {
	rounds     *prometheus.CounterVec
	hunks      *prometheus.CounterVec
	decisions  *prometheus.CounterVec
	decided    *prometheus.CounterVec
	gatherer   prometheus.Gatherer
	registerer prometheus.Registerer
}

// NewObserver creates an Observer and registers its metrics with reg. A nil
// reg uses a fresh registry.
func NewObserver(reg *prometheus.Registry) (*Observer, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	o := &Observer{
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rounds_total",
			Help:      "Suggestion rounds by outcome.",
		}, []string{"outcome"}),
		hunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "hunks_total",
			Help:      "Hunks returned by the model, by anchoring result.",
		}, []string{"result"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "decisions_total",
			Help:      "Accept, reject and bulk decisions by operation.",
		}, []string{"op"}),
		decided: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "decided_hunks_total",
			Help:      "Hunks touched by decisions, by operation.",
		}, []string{"op"}),
		gatherer:   reg,
		registerer: reg,
	}
	for _, c := range []prometheus.Collector{o.rounds, o.hunks, o.decisions, o.decided} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prometheus: register: %w", err)
		}
	}
	return o, nil
}

// RoundFinished implements redline.Observer.
func (o *Observer) RoundFinished(outcome redline.RoundOutcome) {
	o.rounds.WithLabelValues(string(outcome)).Inc()
}

// HunksResolved implements redline.Observer.
func (o *Observer) HunksResolved(resolved, unresolved int) {
	o.hunks.WithLabelValues("resolved").Add(float64(resolved))
	o.hunks.WithLabelValues("unresolved").Add(float64(unresolved))
}

// Decided implements redline.Observer.
func (o *Observer) Decided(op redline.Operation, hunks int) {
	o.decisions.WithLabelValues(string(op)).Inc()
	o.decided.WithLabelValues(string(op)).Add(float64(hunks))
}

// Handler serves the observer's metrics in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{Registry: o.registerer})
}
