// Package metrics exposes Prometheus collectors for collection runs,
// capture loads, and change detection. Each collector is registered once
// at package init against the default registry via promauto and referenced
// as a package-level variable everywhere else.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsInFlight tracks SSH sessions currently open against devices,
	// across all active collection jobs.
	SessionsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "velocitycmdb",
		Subsystem: "collection",
		Name:      "sessions_in_flight",
		Help:      "Number of SSH sessions currently open to devices.",
	})

	// DevicesCollected counts devices a collection job finished, labeled by
	// outcome (ok, failed).
	DevicesCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "velocitycmdb",
		Subsystem: "collection",
		Name:      "devices_total",
		Help:      "Devices processed by collection runs, by outcome.",
	}, []string{"outcome"})

	// CapturesWritten counts capture files written, labeled by capture type.
	CapturesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "velocitycmdb",
		Subsystem: "collection",
		Name:      "captures_written_total",
		Help:      "Capture files written, by capture type.",
	}, []string{"capture_type"})

	// ChangesDetected counts change-archive detections, labeled by capture
	// type and severity.
	ChangesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "velocitycmdb",
		Subsystem: "changearchive",
		Name:      "changes_detected_total",
		Help:      "Changes detected during snapshot comparison, by capture type and severity.",
	}, []string{"capture_type", "severity"})

	// ParseFailures counts capture files that failed template scoring
	// during parse-and-load, labeled by capture type.
	ParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "velocitycmdb",
		Subsystem: "parseload",
		Name:      "parse_failures_total",
		Help:      "Capture files that failed parsing or template matching, by capture type.",
	}, []string{"capture_type"})

	// JobDuration observes collection job wall-clock duration in seconds.
	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "velocitycmdb",
		Subsystem: "collection",
		Name:      "job_duration_seconds",
		Help:      "Wall-clock duration of collection jobs.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})
)
