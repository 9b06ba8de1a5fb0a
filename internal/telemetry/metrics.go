package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesDecoded counts frames successfully decoded by the capture worker.
	FramesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifitify",
			Name:      "frames_decoded_total",
			Help:      "Total number of 802.11 frames successfully decoded.",
		},
		[]string{"kind"},
	)

	// FramesDropped counts frames dropped at any stage, labeled by reason.
	FramesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifitify",
			Name:      "frames_dropped_total",
			Help:      "Total number of frames dropped.",
		},
		[]string{"reason"},
	)

	// ChannelHops counts channel tune operations issued by the scheduler.
	ChannelHops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifitify",
			Name:      "channel_hops_total",
			Help:      "Total number of channel switches issued.",
		},
		[]string{"mode"},
	)

	// Sweeps counts completed full sweeps.
	Sweeps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wifitify",
			Name:      "sweeps_total",
			Help:      "Total number of completed full sweeps.",
		},
	)

	// DbRetries counts pool-acquisition retries in the observation handler.
	DbRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wifitify",
			Name:      "db_retries_total",
			Help:      "Total number of database pool-acquisition retries.",
		},
	)

	// DataBytes counts bytes accumulated into Data rows.
	DataBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wifitify",
			Name:      "data_bytes_total",
			Help:      "Total bytes accumulated across all Data rows.",
		},
	)

	// CurrentChannel reports the channel the interface is currently tuned to.
	CurrentChannel = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wifitify",
			Name:      "current_channel",
			Help:      "Channel number the monitor interface is currently tuned to.",
		},
	)

	// QueueDepth reports the current depth of the capture→main-loop channel.
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wifitify",
			Name:      "capture_queue_depth",
			Help:      "Number of decoded frames currently buffered between the capture worker and the main loop.",
		},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// Idempotent: safe to call multiple times.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.MustRegister(
			FramesDecoded,
			FramesDropped,
			ChannelHops,
			Sweeps,
			DbRetries,
			DataBytes,
			CurrentChannel,
			QueueDepth,
		)
	})
}
