package assets

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	storeOperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_store_operation_latency_seconds",
			Help:    "The latency of asset store operation.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		},
		[]string{"store_id", "operation"},
	)
	storeOperationErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_store_operation_errors",
			Help: "This count of asset store encountering errors",
		},
		[]string{"store_id", "operation"},
	)
	resolveCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_resolve_cache_total",
			Help: "This count of resolved asset cache lookups",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		storeOperationLatency,
		storeOperationErrorCounter,
		resolveCacheCounter,
	)
}

// Instrument wraps s with latency and error metrics.
func Instrument(s Store) Store {
	if _, ok := s.(instrumentalStore); ok {
		return s
	}
	return instrumentalStore{s: s}
}

type instrumentalStore struct {
	s Store
}

func (i instrumentalStore) ID() string {
	return i.s.ID()
}

func (i instrumentalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	const putOperation = "put"
	defer logStoreOperationLatency(i.ID(), putOperation, time.Now())
	u, err := i.s.Put(ctx, key, r, size, contentType)
	return u, logErr(storeOperationErrorCounter, err, i.ID(), putOperation)
}

func logStoreOperationLatency(id, operation string, startAt time.Time) {
	storeOperationLatency.WithLabelValues(id, operation).Observe(time.Since(startAt).Seconds())
}

func logErr(counter *prometheus.CounterVec, err error, labels ...string) error {
	if err != nil {
		counter.WithLabelValues(labels...).Inc()
	}
	return err
}
