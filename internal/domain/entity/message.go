package entity

import "github.com/google/uuid"

// DatasetJobMessage is the inbound message from the dataset.jobs queue.
// Fields beyond the common header are read according to Kind.
type DatasetJobMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	Kind      JobKind   `json:"kind"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`

	// split; absent fractions and seed fall back to DefaultProportions and DefaultSeed
	SourceDir  string   `json:"source_dir,omitempty"`
	TargetDir  string   `json:"target_dir,omitempty"`
	TrainSplit *float64 `json:"train_split,omitempty"`
	ValidSplit *float64 `json:"valid_split,omitempty"`
	TestSplit  *float64 `json:"test_split,omitempty"`
	Seed       *int64   `json:"seed,omitempty"`

	// extract_frames, extract_clips
	VideoKey string   `json:"video_key,omitempty"`
	Interval int      `json:"interval,omitempty"`
	Clips    []string `json:"clips,omitempty"`
}

// Source identifies what the job reads, for logs and the job record.
func (m DatasetJobMessage) Source() string {
	if m.Kind == JobKindSplit {
		return m.SourceDir
	}
	return m.VideoKey
}

// Proportions returns the requested fractions. A message without any fraction
// gets DefaultProportions; a missing one next to given ones counts as 0.
func (m DatasetJobMessage) Proportions() Proportions {
	if m.TrainSplit == nil && m.ValidSplit == nil && m.TestSplit == nil {
		return DefaultProportions
	}
	return Proportions{Train: valueOr(m.TrainSplit, 0), Valid: valueOr(m.ValidSplit, 0), Test: valueOr(m.TestSplit, 0)}
}

func (m DatasetJobMessage) SplitSeed() int64 {
	return valueOr(m.Seed, DefaultSeed)
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// DatasetStatusMessage is the outbound message published to the dataset.status queue.
type DatasetStatusMessage struct {
	JobID        uuid.UUID     `json:"job_id"`
	Kind         JobKind       `json:"kind"`
	UserID       string        `json:"user_id"`
	Status       JobStatus     `json:"status"`
	Source       string        `json:"source"`
	ArchiveKey   string        `json:"archive_key,omitempty"`
	ItemCount    int           `json:"item_count,omitempty"`
	Duration     float64       `json:"duration_seconds,omitempty"`
	SplitCounts  map[Split]int `json:"split_counts,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Attempt      int           `json:"attempt"`
	MaxAttempts  int           `json:"max_attempts"`
}
