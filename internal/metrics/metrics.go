// Package metrics instruments a buffer pool Instance with Prometheus
// counters and gauges, adapted from the teacher pack's telemetry setup
// (sushant-115-gojodb/pkg/telemetry/telemetry.go), stripped down to the
// prometheus/client_golang half — see DESIGN.md for why the OTel half
// was not carried over.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus instruments for one buffer pool
// instance, labeled by its shard index so a ParallelBufferPool's shards
// are individually observable.
type Collector struct {
	FetchHits       prometheus.Counter
	FetchMisses     prometheus.Counter
	Evictions       prometheus.Counter
	DirtyWritebacks prometheus.Counter
	PagesAllocated  prometheus.Counter
	PagesDeleted    prometheus.Counter
	IOErrors        prometheus.Counter
	PinnedFrames    prometheus.Gauge
}

// New builds a Collector labeled with shard, and registers its
// instruments with reg. Passing a fresh prometheus.NewRegistry() per
// Instance (rather than the global default registry) keeps repeated
// construction in tests from panicking on duplicate registration.
func New(reg prometheus.Registerer, shard int) *Collector {
	labels := prometheus.Labels{"shard": strconv.Itoa(shard)}

	c := &Collector{
		FetchHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bufpool",
			Name:        "fetch_hits_total",
			Help:        "Pages served from an already-resident frame.",
			ConstLabels: labels,
		}),
		FetchMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bufpool",
			Name:        "fetch_misses_total",
			Help:        "Fetches that did not find the page resident on first lookup.",
			ConstLabels: labels,
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bufpool",
			Name:        "evictions_total",
			Help:        "Frames reclaimed via the replacer.",
			ConstLabels: labels,
		}),
		DirtyWritebacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bufpool",
			Name:        "dirty_writebacks_total",
			Help:        "Dirty pages written back to disk.",
			ConstLabels: labels,
		}),
		PagesAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bufpool",
			Name:        "pages_allocated_total",
			Help:        "Pages allocated via NewPage.",
			ConstLabels: labels,
		}),
		PagesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bufpool",
			Name:        "pages_deleted_total",
			Help:        "Pages removed via DeletePage.",
			ConstLabels: labels,
		}),
		IOErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bufpool",
			Name:        "io_errors_total",
			Help:        "Disk manager errors observed by this instance.",
			ConstLabels: labels,
		}),
		PinnedFrames: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "bufpool",
			Name:        "pinned_frames",
			Help:        "Frames with a nonzero pin count right now.",
			ConstLabels: labels,
		}),
	}

	if reg != nil {
		reg.MustRegister(c.FetchHits, c.FetchMisses, c.Evictions, c.DirtyWritebacks,
			c.PagesAllocated, c.PagesDeleted, c.IOErrors, c.PinnedFrames)
	}

	return c
}
