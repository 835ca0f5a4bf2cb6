package prometheus

import (
	"context"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels every datacite collector carries. Tags outside this set are
// dropped and missing ones are exported as "".
var labelNames = []string{"operation", "status", "resource", "prefix", "job_id"}

// DurationBuckets covers registry round trips in milliseconds.
var DurationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

// Recorder implements core.MetricsRecorder. Dotted metric names such as
// datacite.mint.total become datacite_mint_total collectors, created on
// first use.
type Recorder struct {
	factory    promauto.Factory
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewRecorder registers collectors on reg, or on the default registerer
// when reg is nil.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Recorder{
		factory:    promauto.With(reg),
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
	}
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	counter := r.counter(CounterName(name))
	counter.With(labelsFor(tags)).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	histogram := r.histogram(MetricName(name))
	histogram.With(labelsFor(tags)).Observe(value)
}

func (r *Recorder) counter(name string) *prometheus.CounterVec {
	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok := r.counters[name]; ok {
		return vec
	}
	vec := r.factory.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: "DataCite client counter " + name,
	}, labelNames)
	r.counters[name] = vec
	return vec
}

func (r *Recorder) histogram(name string) *prometheus.HistogramVec {
	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok := r.histograms[name]; ok {
		return vec
	}
	vec := r.factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    "DataCite client histogram " + name,
		Buckets: DurationBuckets,
	}, labelNames)
	r.histograms[name] = vec
	return vec
}

// MetricName maps a dotted name onto the Prometheus charset.
func MetricName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "datacite_unnamed"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "datacite_" + out
	}
	return out
}

// CounterName is MetricName with a guaranteed _total suffix.
func CounterName(name string) string {
	out := MetricName(name)
	if strings.HasSuffix(out, "_total") {
		return out
	}
	return out + "_total"
}

func labelsFor(tags map[string]string) prometheus.Labels {
	labels := make(prometheus.Labels, len(labelNames))
	for _, label := range labelNames {
		labels[label] = strings.TrimSpace(tags[label])
	}
	return labels
}
