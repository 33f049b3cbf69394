package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/seventv/slide-inverter/internal/instance"
)

const namespace = "slide_inverter"

type Options struct {
	Labels prometheus.Labels
}

func copyLabels(p prometheus.Labels) prometheus.Labels {
	x := prometheus.Labels{}
	for k, v := range p {
		x[k] = v
	}

	return x
}

func New(o Options) instance.Prometheus {
	totalSuccessfulJobs := copyLabels(o.Labels)
	totalFailedJobs := copyLabels(o.Labels)
	totalBytesIn := copyLabels(o.Labels)
	totalBytesOut := copyLabels(o.Labels)

	totalSuccessfulJobs["state"] = "successful"
	totalFailedJobs["state"] = "failed"

	totalBytesIn["state"] = "in"
	totalBytesOut["state"] = "out"

	histogram := func(name, help string) prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: copyLabels(o.Labels),
		})
	}

	m := &Instance{
		registry: prometheus.NewRegistry(),
		totalSuccessfulJobs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "total_jobs",
			Help:        "The total number of jobs by state",
			ConstLabels: totalSuccessfulJobs,
		}),
		totalFailedJobs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "total_jobs",
			Help:        "The total number of jobs by state",
			ConstLabels: totalFailedJobs,
		}),
		currentJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "current_jobs",
			Help:        "The current number of jobs in flight",
			ConstLabels: copyLabels(o.Labels),
		}),
		jobDurationSeconds:            histogram("job_duration_seconds", "The seconds spent running jobs"),
		decodeDocumentDurationSeconds: histogram("decode_document_duration_seconds", "The seconds spent opening presentations"),
		applySlidesDurationSeconds:    histogram("apply_slides_duration_seconds", "The seconds spent recoloring slides"),
		encodeDocumentDurationSeconds: histogram("encode_document_duration_seconds", "The seconds spent saving presentations"),
		packArchiveDurationSeconds:    histogram("pack_archive_duration_seconds", "The seconds spent packing output archives"),
		totalBytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "total_bytes",
			Help:        "The total number of bytes read and written",
			ConstLabels: totalBytesIn,
		}),
		totalBytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "total_bytes",
			Help:        "The total number of bytes read and written",
			ConstLabels: totalBytesOut,
		}),
		totalSlidesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "total_slides",
			Help:        "The total number of slides processed",
			ConstLabels: copyLabels(o.Labels),
		}),
		totalPicturesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "total_pictures",
			Help:        "The total number of pictures remapped",
			ConstLabels: copyLabels(o.Labels),
		}),
	}

	m.Register(m.registry)

	return m
}

type Instance struct {
	registry *prometheus.Registry

	totalSuccessfulJobs prometheus.Counter
	totalFailedJobs     prometheus.Counter
	currentJobs         prometheus.Gauge
	jobDurationSeconds  prometheus.Histogram

	decodeDocumentDurationSeconds prometheus.Histogram
	applySlidesDurationSeconds    prometheus.Histogram
	encodeDocumentDurationSeconds prometheus.Histogram
	packArchiveDurationSeconds    prometheus.Histogram

	totalBytesIn           prometheus.Counter
	totalBytesOut          prometheus.Counter
	totalSlidesProcessed   prometheus.Counter
	totalPicturesProcessed prometheus.Counter
}

func (m *Instance) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.currentJobs,
		m.jobDurationSeconds,
		m.totalFailedJobs,
		m.totalSuccessfulJobs,

		m.decodeDocumentDurationSeconds,
		m.applySlidesDurationSeconds,
		m.encodeDocumentDurationSeconds,
		m.packArchiveDurationSeconds,

		m.totalBytesIn,
		m.totalBytesOut,
		m.totalSlidesProcessed,
		m.totalPicturesProcessed,
	)
}

func (m *Instance) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Instance) StartJob() func(success bool) {
	start := time.Now()
	m.currentJobs.Inc()

	return func(success bool) {
		if success {
			m.totalSuccessfulJobs.Inc()
		} else {
			m.totalFailedJobs.Inc()
		}
		m.currentJobs.Dec()
		m.jobDurationSeconds.Observe(seconds(start))
	}
}

func (m *Instance) TotalBytesIn(bytes int) {
	m.totalBytesIn.Add(float64(bytes))
}

func (m *Instance) TotalBytesOut(bytes int) {
	m.totalBytesOut.Add(float64(bytes))
}

func (m *Instance) TotalSlidesProcessed(slides int) {
	m.totalSlidesProcessed.Add(float64(slides))
}

func (m *Instance) TotalPicturesProcessed(pictures int) {
	m.totalPicturesProcessed.Add(float64(pictures))
}

func (m *Instance) DecodeDocument() func() {
	return timer(m.decodeDocumentDurationSeconds)
}

func (m *Instance) ApplySlides() func() {
	return timer(m.applySlidesDurationSeconds)
}

func (m *Instance) EncodeDocument() func() {
	return timer(m.encodeDocumentDurationSeconds)
}

func (m *Instance) PackArchive() func() {
	return timer(m.packArchiveDurationSeconds)
}

func timer(h prometheus.Histogram) func() {
	start := time.Now()

	return func() {
		h.Observe(seconds(start))
	}
}

func seconds(start time.Time) float64 {
	return float64(time.Since(start)/time.Millisecond) / 1000
}
