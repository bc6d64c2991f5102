package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitlist",
		Subsystem: "records",
		Name:      "operations_total",
		Help:      "Record mutations and listings by collection, operation and result.",
	}, []string{"collection", "op", "result"})
	liveStreams = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fitlist",
		Subsystem: "live",
		Name:      "streams",
		Help:      "Open snapshot subscriptions by collection.",
	}, []string{"collection"})
	snapshotsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitlist",
		Subsystem: "live",
		Name:      "snapshots_published_total",
		Help:      "Snapshots pushed to subscribers by collection.",
	}, []string{"collection"})
	authAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitlist",
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Sign-in and sign-up attempts by result.",
	}, []string{"op", "result"})
)

func init() {
	prometheus.MustRegister(recordOperations, liveStreams, snapshotsPublished, authAttempts)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordOperation counts one record operation.
func RecordOperation(collection, op string, err error) {
	recordOperations.WithLabelValues(collection, op, result(err)).Inc()
}

// StreamOpened tracks a new live subscription.
func StreamOpened(collection string) {
	liveStreams.WithLabelValues(collection).Inc()
}

// StreamClosed tracks the end of a live subscription.
func StreamClosed(collection string) {
	liveStreams.WithLabelValues(collection).Dec()
}

// SnapshotPublished counts one pushed snapshot.
func SnapshotPublished(collection string) {
	snapshotsPublished.WithLabelValues(collection).Inc()
}

// AuthAttempt counts one sign-in ("login") or sign-up ("register") attempt.
func AuthAttempt(op string, err error) {
	authAttempts.WithLabelValues(op, result(err)).Inc()
}
