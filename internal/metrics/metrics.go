// Package metrics exports sweep progress as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ising-mc/internal/experiment"
)

// Observer implements experiment.Observer on top of a Prometheus registry.
type Observer struct {
	reg *prometheus.Registry

	points    *prometheus.CounterVec
	sweeps    prometheus.Counter
	attempted prometheus.Counter
	accepted  prometheus.Counter
	duration  prometheus.Histogram
	energy    *prometheus.GaugeVec
	magnet    *prometheus.GaugeVec
}

var _ experiment.Observer = (*Observer)(nil)

// New registers the sweep metrics on a fresh registry.
func New() *Observer {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	labels := []string{"temperature", "field", "anisotropy"}
	return &Observer{
		reg: reg,
		points: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ising_points_total",
			Help: "Parameter points completed, by anisotropy.",
		}, []string{"anisotropy"}),
		sweeps: f.NewCounter(prometheus.CounterOpts{
			Name: "ising_sweeps_total",
			Help: "Metropolis sweeps performed, burn-in included.",
		}),
		attempted: f.NewCounter(prometheus.CounterOpts{
			Name: "ising_flips_attempted_total",
			Help: "Single-spin flips proposed while sampling.",
		}),
		accepted: f.NewCounter(prometheus.CounterOpts{
			Name: "ising_flips_accepted_total",
			Help: "Single-spin flips accepted while sampling.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ising_point_duration_seconds",
			Help:    "Wall time spent on one parameter point.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		}),
		energy: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ising_energy_per_site",
			Help: "Mean energy per site of the last completed point.",
		}, labels),
		magnet: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ising_magnetization_per_site",
			Help: "Mean absolute magnetisation per site of the last completed point.",
		}, labels),
	}
}

// PointFinished records one completed point.
func (o *Observer) PointFinished(pt experiment.Point, rec experiment.Record, st experiment.PointStats) {
	p := pt.Params
	o.points.WithLabelValues(label(p.Anisotropy)).Inc()
	o.sweeps.Add(float64(st.Sweeps))
	o.attempted.Add(float64(st.Attempted))
	o.accepted.Add(float64(st.Accepted))
	o.duration.Observe(st.Duration.Seconds())
	values := []string{label(p.Temperature), label(p.Field), label(p.Anisotropy)}
	o.energy.WithLabelValues(values...).Set(rec.Energy.Mean)
	o.magnet.WithLabelValues(values...).Set(rec.Magnetization.Mean)
}

// Registry exposes the underlying registry.
func (o *Observer) Registry() *prometheus.Registry { return o.reg }

// Handler serves the registry in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.reg, promhttp.HandlerOpts{})
}

func label(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
