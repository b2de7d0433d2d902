package usecase

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-dataset-prep/internal/dataset"
	"github.com/fiapx/fiapx-dataset-prep/internal/domain/port"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/metrics"
)

// FramesBatchResult aggregates the frames taken from every video of a folder.
type FramesBatchResult struct {
	Videos     []string
	FramePaths []string
	Duration   float64
}

func (r *FramesBatchResult) FrameCount() int {
	return len(r.FramePaths)
}

type ExtractFramesUseCase struct {
	extractor port.FrameExtractor
	logger    *zap.Logger
	progress  io.Writer
}

// NewExtractFramesUseCase wires the extractor; progress receives the batch
// progress bar and may be nil.
func NewExtractFramesUseCase(extractor port.FrameExtractor, logger *zap.Logger, progress io.Writer) *ExtractFramesUseCase {
	return &ExtractFramesUseCase{extractor: extractor, logger: logger, progress: progress}
}

func (uc *ExtractFramesUseCase) ExtractVideo(ctx context.Context, videoPath, outputDir string, interval int) (*port.FrameExtractionResult, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "extract_frames")
	defer span.End()
	span.SetAttributes(attribute.String("video.path", videoPath), attribute.Int("frames.interval", interval))

	start := time.Now()
	res, err := uc.extractor.ExtractFrames(ctx, videoPath, outputDir, interval)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	metrics.StageDuration.WithLabelValues("extract_frames").Observe(time.Since(start).Seconds())
	metrics.FramesExtractedTotal.Add(float64(res.FrameCount))

	uc.logger.Info("extracted frames",
		zap.String("video", videoPath),
		zap.Int("frames", res.FrameCount),
		zap.String("output_dir", outputDir),
	)
	return res, nil
}

// ExtractDir samples every .mp4 of clipsDir, in name order, into outputDir.
func (uc *ExtractFramesUseCase) ExtractDir(ctx context.Context, clipsDir, outputDir string, interval int) (*FramesBatchResult, error) {
	videos, err := listVideos(clipsDir)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		uc.logger.Warn("no .mp4 videos found", zap.String("dir", clipsDir))
	}

	out := &FramesBatchResult{}
	bar := newProgress(uc.progress, len(videos), "Extracting frames")
	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			return out, errors.WithStack(err)
		}
		res, err := uc.ExtractVideo(ctx, video, outputDir, interval)
		if err != nil {
			return out, err
		}
		out.Videos = append(out.Videos, video)
		out.FramePaths = append(out.FramePaths, res.FramePaths...)
		out.Duration += res.VideoDuration
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return out, nil
}

// listVideos returns the .mp4 files of dir sorted by name.
func listVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.WithStack(&dataset.DirectoryNotFoundError{Path: dir})
		}
		return nil, errors.Wrapf(err, "list %s", dir)
	}
	var videos []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".mp4" {
			continue
		}
		videos = append(videos, filepath.Join(dir, e.Name()))
	}
	return videos, nil
}
