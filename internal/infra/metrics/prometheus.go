package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_dataset_jobs_processed_total",
		Help: "Total number of dataset jobs processed, by kind and outcome",
	}, []string{"kind", "status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fiapx_dataset_stage_duration_seconds",
		Help:    "Duration of each dataset preparation stage",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	ImagesCopiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_dataset_images_copied_total",
		Help: "Images copied into dataset splits",
	}, []string{"split"})

	UnmatchedImagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiapx_dataset_unmatched_images_total",
		Help: "Images skipped because their name carries no video group",
	})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiapx_dataset_frames_extracted_total",
		Help: "Total number of frames sampled from videos",
	})

	ClipsExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiapx_dataset_clips_extracted_total",
		Help: "Total number of clips cut from source videos",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fiapx_dataset_active_workers",
		Help: "Number of workers currently running a job",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_dataset_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
