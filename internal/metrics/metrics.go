package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	FramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mllpgw_frames_total",
			Help: "MLLP frames processed, by trigger event and outcome.",
		},
		[]string{"trigger_event", "outcome"},
	)

	AckWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mllpgw_ack_write_duration_seconds",
			Help:    "Time taken by the MLLP ACK write, by MSA-1 ack code.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"ack_code"},
	)

	BundleResourcesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mllpgw_bundle_resources_total",
			Help: "FHIR resources placed into transaction bundles, by resource type.",
		},
		[]string{"resource_type"},
	)

	WatermarkSuspendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mllpgw_watermark_suspends_total",
			Help: "Transitions of a connection into the suspended state after crossing the high-watermark buffered-bytes threshold.",
		},
		[]string{},
	)

	ParseErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mllpgw_parse_errors_total",
			Help: "HL7 parse or FHIR mapping failures, by stage.",
		},
		[]string{"stage", "reason"},
	)
)

var registerOnce sync.Once

// Register registers every collector with the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			FramesTotal,
			AckWriteDuration,
			BundleResourcesTotal,
			WatermarkSuspendsTotal,
			ParseErrorsTotal,
		)
	})
}
