package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// JobKind names the tool a queued job runs.
type JobKind string

const (
	JobKindSplit         JobKind = "split"
	JobKindExtractFrames JobKind = "extract_frames"
	JobKindExtractClips  JobKind = "extract_clips"
)

func (k JobKind) Valid() bool {
	switch k {
	case JobKindSplit, JobKindExtractFrames, JobKindExtractClips:
		return true
	}
	return false
}

type Job struct {
	ID            uuid.UUID
	Kind          JobKind
	UserID        string
	Source        string
	ArchiveKey    string
	Status        JobStatus
	ItemCount     int
	VideoDuration float64
	Attempt       int
	MaxAttempts   int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewJob(kind JobKind, userID, source string, maxAttempts int) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.New(),
		Kind:        kind,
		UserID:      userID,
		Source:      source,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkCompleted(archiveKey string, itemCount int, duration float64) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ArchiveKey = archiveKey
	j.ItemCount = itemCount
	j.VideoDuration = duration
	j.ErrorMessage = ""
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *Job) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

// MarkExhausted fails the job and forbids further attempts.
func (j *Job) MarkExhausted(errMsg string) {
	j.MarkFailed(errMsg)
	j.MaxAttempts = j.Attempt
}

func (j *Job) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
