package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-dataset-prep/internal/dataset"
	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
	"github.com/fiapx/fiapx-dataset-prep/internal/domain/port"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/metrics"
)

// ErrInvalidJob marks a message whose parameters can never succeed.
var ErrInvalidJob = errors.New("invalid job")

// RetryableError is returned to the consumer so the delivery is requeued.
// Attempt drives the consumer backoff.
type RetryableError struct {
	attempt     int
	maxAttempts int
	err         error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable failure (attempt %d/%d): %v", e.attempt, e.maxAttempts, e.err)
}

func (e *RetryableError) Unwrap() error { return e.err }

func (e *RetryableError) Attempt() int { return e.attempt }

type ProcessJobUseCase struct {
	repo      port.JobRepository
	storage   port.DatasetStorage
	archiver  port.Archiver
	split     *SplitDatasetUseCase
	frames    *ExtractFramesUseCase
	clips     *ExtractClipsUseCase
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
	interval  int
}

type ProcessJobConfig struct {
	TempDir       string
	MaxRetries    int
	FrameInterval int
}

func NewProcessJobUseCase(
	repo port.JobRepository,
	storage port.DatasetStorage,
	archiver port.Archiver,
	frameExtractor port.FrameExtractor,
	clipExtractor port.ClipExtractor,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessJobConfig,
) *ProcessJobUseCase {
	return &ProcessJobUseCase{
		repo:      repo,
		storage:   storage,
		archiver:  archiver,
		split:     NewSplitDatasetUseCase(logger),
		frames:    NewExtractFramesUseCase(frameExtractor, logger, nil),
		clips:     NewExtractClipsUseCase(clipExtractor, logger, nil),
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
		interval:  cfg.FrameInterval,
	}
}

// jobOutput is what a finished job reports back.
type jobOutput struct {
	archiveKey  string
	itemCount   int
	duration    float64
	splitCounts map[entity.Split]int
}

// Execute handles one message from the jobs queue. A nil return acks the
// delivery; a *RetryableError requeues it.
func (uc *ProcessJobUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	ctx, span := otel.Tracer("usecase").Start(ctx, "ProcessJobUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.DatasetJobMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		metrics.JobsProcessedTotal.WithLabelValues("unknown", "dlq").Inc()
		return nil
	}
	if !msg.Kind.Valid() {
		uc.logger.Error("unknown job kind", zap.String("kind", string(msg.Kind)), zap.String("job_id", msg.JobID.String()))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, fmt.Sprintf("unknown_kind: %q", msg.Kind))
		metrics.JobsProcessedTotal.WithLabelValues("unknown", "dlq").Inc()
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.kind", string(msg.Kind)),
		attribute.String("job.source", msg.Source()),
	)

	log := uc.logger.With(
		zap.String("job_id", msg.JobID.String()),
		zap.String("kind", string(msg.Kind)),
		zap.String("source", msg.Source()),
	)

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if errors.Is(err, port.ErrJobNotFound) {
		job = entity.NewJob(msg.Kind, msg.UserID, msg.Source(), uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	} else if err != nil {
		log.Error("failed to load job record", zap.Error(err))
		return fmt.Errorf("find job: %w", err)
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded", log)
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	out, err := uc.run(ctx, job, msg)
	if err != nil {
		span.RecordError(err)
		log.Error("job failed", zap.Error(err), zap.Int("attempt", job.Attempt))
		if isPermanent(err) {
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, err.Error(), log)
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, err, log)
	}

	job.MarkCompleted(out.archiveKey, out.itemCount, out.duration)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}
	uc.publishStatus(ctx, job, out.splitCounts, log)

	metrics.JobsProcessedTotal.WithLabelValues(string(msg.Kind), "completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	log.Info("job completed successfully",
		zap.Int("item_count", out.itemCount),
		zap.String("archive_key", out.archiveKey),
	)
	return nil
}

func (uc *ProcessJobUseCase) run(ctx context.Context, job *entity.Job, msg entity.DatasetJobMessage) (*jobOutput, error) {
	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	var (
		out     jobOutput
		baseDir string
		files   []string
	)

	switch msg.Kind {
	case entity.JobKindSplit:
		if msg.SourceDir == "" {
			return nil, fmt.Errorf("%w: split job without source_dir", ErrInvalidJob)
		}
		target := msg.TargetDir
		if target == "" {
			target = filepath.Join(workDir, "dataset")
		}
		res, err := uc.split.Execute(ctx, SplitDatasetInput{
			SourceDir:   msg.SourceDir,
			TargetDir:   target,
			Proportions: msg.Proportions(),
			Seed:        msg.SplitSeed(),
		})
		if err != nil {
			return nil, fmt.Errorf("split_dataset: %w", err)
		}
		out.itemCount = res.Counts.Total()
		out.splitCounts = map[entity.Split]int{}
		for _, s := range entity.Splits {
			out.splitCounts[s] = res.Counts.Count(s)
		}
		baseDir = target
		if files, err = listTree(target); err != nil {
			return nil, err
		}

	case entity.JobKindExtractFrames:
		interval := msg.Interval
		if interval == 0 {
			interval = uc.interval
		}
		if interval < 1 {
			return nil, fmt.Errorf("%w: frame interval %d", ErrInvalidJob, interval)
		}
		videoPath, err := uc.download(ctx, msg, workDir)
		if err != nil {
			return nil, err
		}
		baseDir = filepath.Join(workDir, "frames")
		res, err := uc.frames.ExtractVideo(ctx, videoPath, baseDir, interval)
		if err != nil {
			return nil, fmt.Errorf("extract_frames: %w", err)
		}
		out.itemCount = res.FrameCount
		out.duration = res.VideoDuration
		files = res.FramePaths

	case entity.JobKindExtractClips:
		clips, err := entity.ParseClipSpecs(msg.Clips)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
		}
		if len(clips) == 0 {
			return nil, fmt.Errorf("%w: extract_clips job without clips", ErrInvalidJob)
		}
		videoPath, err := uc.download(ctx, msg, workDir)
		if err != nil {
			return nil, err
		}
		baseDir = filepath.Join(workDir, "clips")
		paths, err := uc.clips.ExtractVideo(ctx, videoPath, clips, baseDir)
		if err != nil {
			return nil, fmt.Errorf("extract_clips: %w", err)
		}
		out.itemCount = len(paths)
		files = paths
	}

	key, err := uc.archive(ctx, job, msg, workDir, baseDir, files)
	if err != nil {
		return nil, err
	}
	out.archiveKey = key
	return &out, nil
}

func (uc *ProcessJobUseCase) download(ctx context.Context, msg entity.DatasetJobMessage, workDir string) (string, error) {
	if msg.VideoKey == "" {
		return "", fmt.Errorf("%w: %s job without video_key", ErrInvalidJob, msg.Kind)
	}
	ctx, span := otel.Tracer("usecase").Start(ctx, "download_video")
	defer span.End()

	start := time.Now()
	// output names derive from the video stem, so keep the original base name
	videoPath := filepath.Join(workDir, filepath.Base(msg.VideoKey))
	if err := uc.storage.DownloadVideo(ctx, msg.VideoKey, videoPath); err != nil {
		return "", fmt.Errorf("download_video: %w", err)
	}
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(start).Seconds())
	return videoPath, nil
}

func (uc *ProcessJobUseCase) archive(ctx context.Context, job *entity.Job, msg entity.DatasetJobMessage, workDir, baseDir string, files []string) (string, error) {
	tracer := otel.Tracer("usecase")

	zipStart := time.Now()
	zctx, spanZip := tracer.Start(ctx, "create_zip")
	zipPath := filepath.Join(workDir, "result.zip")
	if err := uc.archiver.CreateZip(zctx, baseDir, files, zipPath); err != nil {
		spanZip.End()
		return "", fmt.Errorf("create_zip: %w", err)
	}
	spanZip.End()
	metrics.StageDuration.WithLabelValues("zip").Observe(time.Since(zipStart).Seconds())

	upStart := time.Now()
	uctx, spanUp := tracer.Start(ctx, "upload_archive")
	defer spanUp.End()

	key := fmt.Sprintf("%s/%s_%s.zip", msg.UserID, msg.Kind, job.ID.String())
	f, err := os.Open(zipPath)
	if err != nil {
		return "", fmt.Errorf("open_zip: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat_zip: %w", err)
	}
	if err := uc.storage.UploadArchive(uctx, key, f, info.Size()); err != nil {
		return "", fmt.Errorf("upload_archive: %w", err)
	}
	metrics.StageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())
	return key, nil
}

func (uc *ProcessJobUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.DatasetJobMessage,
	rawMsg []byte,
	cause error,
	log *zap.Logger,
) error {
	job.MarkFailed(cause.Error())
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, cause.Error(), log)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, nil, log)

	return &RetryableError{attempt: job.Attempt, maxAttempts: job.MaxAttempts, err: cause}
}

func (uc *ProcessJobUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.DatasetJobMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkExhausted(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, nil, log)

	metrics.JobsProcessedTotal.WithLabelValues(string(msg.Kind), "dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), job.Source, errMsg)
	}

	return nil
}

func (uc *ProcessJobUseCase) publishStatus(ctx context.Context, job *entity.Job, counts map[entity.Split]int, log *zap.Logger) {
	statusMsg := entity.DatasetStatusMessage{
		JobID:        job.ID,
		Kind:         job.Kind,
		UserID:       job.UserID,
		Status:       job.Status,
		Source:       job.Source,
		ArchiveKey:   job.ArchiveKey,
		ItemCount:    job.ItemCount,
		Duration:     job.VideoDuration,
		SplitCounts:  counts,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

// isPermanent reports failures that a retry cannot fix.
func isPermanent(err error) bool {
	var (
		notFound *dataset.DirectoryNotFoundError
		missing  *dataset.MissingAnnotationError
		conflict *dataset.RenameConflictError
		params   *ClipParamsError
	)
	switch {
	case errors.Is(err, ErrInvalidJob), errors.Is(err, port.ErrVideoNotFound):
		return true
	case errors.As(err, &notFound), errors.As(err, &missing), errors.As(err, &conflict), errors.As(err, &params):
		return true
	}
	return false
}

// listTree returns every regular file under root, in walk order.
func listTree(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	return files, nil
}
