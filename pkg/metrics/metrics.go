// Package metrics provides Prometheus instrumentation for the series
// builder and the ingest pipeline: rows written, batches emitted,
// conflict-forced cuts, cast failures, and ingest throughput.
//
// Metrics register on the default Prometheus registry. The CLI exposes
// them on an HTTP endpoint when --metrics-addr is set; library users
// scrape them through their own handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsWritten counts top-level rows written into series builders.
	RowsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seriate",
		Subsystem: "builder",
		Name:      "rows_written_total",
		Help:      "Total top-level rows written into series builders.",
	})

	// BatchesEmitted counts finished series, partitioned by what forced
	// the boundary ("finish" or "conflict").
	BatchesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seriate",
		Subsystem: "builder",
		Name:      "batches_emitted_total",
		Help:      "Total series emitted, by cut reason.",
	}, []string{"reason"})

	// ConflictColumns counts upgrades to the string-rendering conflict
	// column, i.e. heterogeneity inside a single event.
	ConflictColumns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seriate",
		Subsystem: "builder",
		Name:      "conflict_columns_total",
		Help:      "Total conflict-column upgrades for in-event type conflicts.",
	})

	// CastFailures counts scalar values that TryAtom could not cast into
	// a protected target, by error category.
	CastFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seriate",
		Subsystem: "builder",
		Name:      "cast_failures_total",
		Help:      "Total scalar values that failed to cast into protected builders.",
	}, []string{"type"})

	// IngestedEvents counts NDJSON events by outcome ("ok", "skipped").
	IngestedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seriate",
		Subsystem: "ingest",
		Name:      "events_total",
		Help:      "Total ingested NDJSON events, by outcome.",
	}, []string{"outcome"})

	// BatchRows observes the row count of emitted batches.
	BatchRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "seriate",
		Subsystem: "builder",
		Name:      "batch_rows",
		Help:      "Distribution of rows per emitted batch.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})
)
