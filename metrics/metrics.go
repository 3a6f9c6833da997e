// Package metrics exposes the outcome of health checks as Prometheus metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sreekar2307/clusterhealth/model"
)

const namespace = "clusterhealth"

type Collector struct {
	status        prometheus.Gauge
	brokers       prometheus.Gauge
	topics        prometheus.Gauge
	outOfSync     prometheus.Gauge
	fetchFailures prometheus.Counter
	fetchDuration prometheus.Histogram
}

func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "status",
			Help:      "Last evaluated cluster status: 0 green, 1 yellow, 2 red.",
		}),
		brokers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "brokers",
			Help:      "Brokers in the last metadata snapshot.",
		}),
		topics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "topics",
			Help:      "Topics in the last metadata snapshot.",
		}),
		outOfSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "out_of_sync_partitions",
			Help:      "Partitions with fewer in-sync replicas than assigned replicas.",
		}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_fetch_failures_total",
			Help:      "Metadata fetches that failed or timed out.",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "metadata_fetch_duration_seconds",
			Help:      "Duration of metadata fetches.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
	}
	for _, collector := range []prometheus.Collector{
		c.status, c.brokers, c.topics, c.outOfSync, c.fetchFailures, c.fetchDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return c, nil
}

func (c *Collector) ObserveFetch(d time.Duration, err error) {
	c.fetchDuration.Observe(d.Seconds())
	if err != nil {
		c.fetchFailures.Inc()
	}
}

func (c *Collector) ObserveReport(report *model.HealthReport) {
	c.status.Set(float64(report.Status))
	c.brokers.Set(float64(report.Brokers))
	c.topics.Set(float64(report.Topics))
	c.outOfSync.Set(float64(len(report.OutOfSyncPartitions)))
}
