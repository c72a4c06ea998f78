package rotation

import "github.com/prometheus/client_golang/prometheus"

// Read results for listing_rotation_reads_total.
const (
	readFresh     = "fresh"      // served within TTL, no I/O
	readStale     = "stale"      // served a stale snapshot (revalidating or fail-soft)
	readRecompute = "recomputed" // caller waited on a recompute
	readError     = "error"      // cold-start failure surfaced to the caller
)

var (
	// recomputes counts repository-backed recomputes by outcome (ok|error).
	recomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_rotation_recomputes_total",
			Help: "Number of rotation recomputes by outcome.",
		},
		[]string{"outcome"},
	)

	// reads counts GetRotatedListings calls by how they were served.
	reads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_rotation_reads_total",
			Help: "Number of rotation reads by result.",
		},
		[]string{"result"},
	)

	// recomputeDur records how long a recompute (fetch + sampling) takes.
	recomputeDur = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "listing_rotation_recompute_duration_seconds",
			Help:    "Duration of rotation recomputes in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// tierSize is the size of each tier in the most recently published snapshot.
	tierSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "listing_rotation_tier_size",
			Help: "Number of listings per tier in the current rotation snapshot.",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(recomputes, reads, recomputeDur, tierSize)
}
