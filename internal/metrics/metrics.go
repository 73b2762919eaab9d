package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gsraster",
			Name:      "batches_total",
			Help:      "Batch invocations by result (success, failure, skipped)",
		},
		[]string{"result"},
	)

	batchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gsraster",
			Name:      "batch_duration_seconds",
			Help:      "Wall-clock duration of batch invocations by format",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	pagesPlanned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gsraster",
			Name:      "pages_planned_total",
			Help:      "Total pages covered by planned batches",
		},
	)

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gsraster",
			Name:      "runs_total",
			Help:      "Conversion runs by result (success, partial, failure)",
		},
		[]string{"result"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(batchesTotal, batchDuration, pagesPlanned, runsTotal)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveBatch(format, result string, dur time.Duration) {
	batchesTotal.WithLabelValues(result).Inc()
	batchDuration.WithLabelValues(format).Observe(dur.Seconds())
}

func IncBatchSkipped()      { batchesTotal.WithLabelValues("skipped").Inc() }
func AddPagesPlanned(n int) { pagesPlanned.Add(float64(n)) }
func IncRun(result string)  { runsTotal.WithLabelValues(result).Inc() }
