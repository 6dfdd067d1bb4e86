package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labeler_ticks_total",
		Help: "Control loop ticks, by seek action",
	}, []string{"action"})

	FramesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labeler_frames_decoded_total",
		Help: "Total number of frames read from the frame source",
	})

	EndOfStreamTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labeler_end_of_stream_total",
		Help: "Number of times the frame source reported end of stream",
	})

	PlaybackFPS = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "labeler_playback_fps",
		Help: "Most recently measured playback rate in frames per second",
	})

	IntervalsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labeler_intervals_closed_total",
		Help: "Total number of closed intervals, by kind",
	}, []string{"kind"})

	LedgerWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labeler_ledger_warnings_total",
		Help: "Rejected ledger operations and empty navigation queries, by reason",
	}, []string{"reason"})

	ExportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "labeler_export_duration_seconds",
		Help:    "Duration of writing the export to each sink",
		Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 10},
	}, []string{"sink"})

	ExportFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labeler_export_failures_total",
		Help: "Total number of failed export writes, by sink",
	}, []string{"sink"})
)
