package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/akinalp/lectern/models"
)

type metrics struct {
	reorderEntities *prometheus.CounterVec
	reorderRequests *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		reorderEntities: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lectern",
			Name:      "reorder_entities_total",
			Help:      "Entities processed by bulk reorders, by kind and outcome (updated, skipped).",
		}, []string{"kind", "result"}),
		reorderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lectern",
			Name:      "reorder_requests_total",
			Help:      "Bulk reorder requests by kind and result (ok, error).",
		}, []string{"kind", "result"}),
	}
})

func recordReorder(kind string, result models.ReorderResult, err error) {
	m := metricsSingleton()
	m.reorderEntities.WithLabelValues(kind, "updated").Add(float64(result.Updated))
	m.reorderEntities.WithLabelValues(kind, "skipped").Add(float64(result.Skipped))

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.reorderRequests.WithLabelValues(kind, outcome).Inc()
}
