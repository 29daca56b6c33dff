package daemon

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics uses a private registry so several services can coexist in one process.
type metrics struct {
	reg *prometheus.Registry

	polls        *prometheus.CounterVec
	pollDuration prometheus.Histogram
	cases        prometheus.Gauge
	estate       prometheus.Gauge
	taxNoPlan    prometheus.Gauge
	savings      prometheus.Gauge
	fileErrors   prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estateplan",
			Subsystem: "daemon",
			Name:      "polls_total",
			Help:      "Case directory rescans by result.",
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "estateplan",
			Subsystem: "daemon",
			Name:      "poll_duration_seconds",
			Help:      "Time to rescan and analyze the case directory.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		cases: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "estateplan", Subsystem: "portfolio", Name: "cases",
			Help: "Cases in the current snapshot.",
		}),
		estate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "estateplan", Subsystem: "portfolio", Name: "estate_dollars",
			Help: "Total gross estate value across cases.",
		}),
		taxNoPlan: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "estateplan", Subsystem: "portfolio", Name: "tax_no_plan_dollars",
			Help: "Estimated estate tax without a trust plan.",
		}),
		savings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "estateplan", Subsystem: "portfolio", Name: "plan_savings_dollars",
			Help: "Estimated tax saved by AB/ABC plans.",
		}),
		fileErrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "estateplan", Subsystem: "portfolio", Name: "file_errors",
			Help: "Case files that could not be read on the last poll.",
		}),
	}

	m.reg.MustRegister(
		m.polls, m.pollDuration,
		m.cases, m.estate, m.taxNoPlan, m.savings, m.fileErrors,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *metrics) observePoll(result string, took time.Duration) {
	m.polls.WithLabelValues(result).Inc()
	m.pollDuration.Observe(took.Seconds())
}

func (m *metrics) setSnapshot(s Snapshot) {
	m.cases.Set(float64(s.Cases))
	m.estate.Set(s.TotalEstate)
	m.taxNoPlan.Set(s.TaxNoPlan)
	m.savings.Set(s.Savings)
	m.fileErrors.Set(float64(s.FileErrors))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
