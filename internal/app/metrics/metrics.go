package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "call_transcriber"

// Collector holds the counters of one run. A nil *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	files           *prometheus.CounterVec
	audioSeconds    prometheus.Counter
	requestDuration prometheus.Histogram
	batches         prometheus.Counter
	mergeFailures   prometheus.Counter
	pending         prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Transcription attempts by outcome.",
		}, []string{"outcome"}),
		audioSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_seconds_total",
			Help:      "Seconds of audio transcribed successfully.",
		}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_duration_seconds",
			Help:      "Wall time of one file's transcription attempt.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_checkpointed_total",
			Help:      "Batches merged into the ledger.",
		}),
		mergeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_merge_failures_total",
			Help:      "Batches whose ledger merge failed.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_files",
			Help:      "Files selected for transcription at run start.",
		}),
	}
	c.registry.MustRegister(c.files, c.audioSeconds, c.requestDuration, c.batches, c.mergeFailures, c.pending)
	return c
}

func (c *Collector) ObserveFile(failed bool, audioSeconds float64, took time.Duration) {
	if c == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "failure"
	} else {
		c.audioSeconds.Add(audioSeconds)
	}
	c.files.WithLabelValues(outcome).Inc()
	c.requestDuration.Observe(took.Seconds())
}

func (c *Collector) ObserveCheckpoint(merged bool) {
	if c == nil {
		return
	}
	if merged {
		c.batches.Inc()
	} else {
		c.mergeFailures.Inc()
	}
}

func (c *Collector) SetPending(n int) {
	if c == nil {
		return
	}
	c.pending.Set(float64(n))
}

// WriteTextfile writes the metrics in the text exposition format, suitable for
// the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
