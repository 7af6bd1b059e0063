// Registers:
//
//	#Dexflow_classifications_total
//	#Dexflow_cycles_total
//	#Dexflow_cycle_duration_seconds
//	#go_* and process_* system metrics
//
// Exposes them on the configured listen address using the Prometheus HTTP handler
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dexflow/models"
)

var (
	once            sync.Once
	classifications *prometheus.CounterVec
	cycles          prometheus.Counter
	cycleDuration   prometheus.Histogram
)

func Init(listenAddr string) {
	once.Do(func() {
		classifications = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "Dexflow_classifications_total",
				Help: "Number of candidate evaluations per classification outcome",
			},
			[]string{"classification"},
		)

		cycles = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "Dexflow_cycles_total",
				Help: "Number of completed scan cycles",
			},
		)

		cycleDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "Dexflow_cycle_duration_seconds",
				Help:    "Wall time of one full scan cycle",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		)

		// Seed every classification series at zero so dashboards see the
		// full label space before the first rejection of each kind.
		for _, c := range models.Classifications() {
			classifications.WithLabelValues(c.String())
		}

		_ = prometheus.Register(classifications)
		_ = prometheus.Register(cycles)
		_ = prometheus.Register(cycleDuration)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(listenAddr, nil); err != nil {
				panic("metrics server failed: " + err.Error())
			}
		}()
	})
}

// ObserveCycle folds one finished cycle report into the counters.
func ObserveCycle(report *models.ScanReport, elapsed time.Duration) {
	if classifications == nil {
		return
	}
	for label, n := range report.Snapshot() {
		classifications.WithLabelValues(label).Add(float64(n))
	}
	cycles.Inc()
	cycleDuration.Observe(elapsed.Seconds())
}
