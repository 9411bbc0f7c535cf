package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

type metrics struct {
	requests *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lectern",
			Subsystem: "catalog_cache",
			Name:      "requests_total",
			Help:      "Catalog cache lookups by key kind and result (hit, miss, error).",
		}, []string{"key_kind", "result"}),
	}
})

func recordRequest(kind, result string) {
	metricsSingleton().requests.WithLabelValues(kind, result).Inc()
}
