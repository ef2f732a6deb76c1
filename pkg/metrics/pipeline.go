package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records upload and search activity.
type PipelineMetrics struct {
	uploadDuration *prometheus.HistogramVec
	uploadSuccess  *prometheus.CounterVec
	uploadFailure  *prometheus.CounterVec
	uploadedImages prometheus.Counter
	searchDuration *prometheus.HistogramVec
	searchResults  prometheus.Histogram
	captures       *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	uploadDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upload_duration_seconds",
		Help:    "Duration of item uploads in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	uploadSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_success",
		Help: "Successful item uploads.",
	}, []string{"kind"})
	uploadFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_failure",
		Help: "Failed item uploads.",
	}, []string{"kind"})
	uploadedImages := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uploaded_images_total",
		Help: "Images written to blob storage.",
	})
	searchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "search_duration_seconds",
		Help:    "Duration of similarity searches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	searchResults := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "search_results_returned",
		Help:    "Results returned per search page.",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})
	captures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "photos_captured_total",
		Help: "Photos captured per camera facing.",
	}, []string{"facing"})
	reg.MustRegister(uploadDuration, uploadSuccess, uploadFailure, uploadedImages, searchDuration, searchResults, captures)
	return &PipelineMetrics{
		uploadDuration: uploadDuration,
		uploadSuccess:  uploadSuccess,
		uploadFailure:  uploadFailure,
		uploadedImages: uploadedImages,
		searchDuration: searchDuration,
		searchResults:  searchResults,
		captures:       captures,
	}
}

// ObserveUpload records the outcome and duration of an upload.
func (p *PipelineMetrics) ObserveUpload(kind string, duration time.Duration, err error) {
	if p == nil || p.uploadDuration == nil {
		return
	}
	kind = normalizeLabel(kind)
	p.uploadDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		p.uploadFailure.WithLabelValues(kind).Inc()
		return
	}
	p.uploadSuccess.WithLabelValues(kind).Inc()
}

// AddUploadedImages counts images written to blob storage.
func (p *PipelineMetrics) AddUploadedImages(n int) {
	if p == nil || p.uploadedImages == nil || n <= 0 {
		return
	}
	p.uploadedImages.Add(float64(n))
}

// ObserveSearch records the duration and result count of a search page.
func (p *PipelineMetrics) ObserveSearch(mode string, duration time.Duration, results int) {
	if p == nil || p.searchDuration == nil {
		return
	}
	p.searchDuration.WithLabelValues(normalizeLabel(mode)).Observe(duration.Seconds())
	p.searchResults.Observe(float64(results))
}

// IncCapture counts a captured photo for the given facing.
func (p *PipelineMetrics) IncCapture(facing string) {
	if p == nil || p.captures == nil {
		return
	}
	p.captures.WithLabelValues(normalizeLabel(facing)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
