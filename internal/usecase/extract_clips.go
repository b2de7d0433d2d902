package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
	"github.com/fiapx/fiapx-dataset-prep/internal/domain/port"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/metrics"
)

// ClipRequest is one line of a clip parameters file.
type ClipRequest struct {
	Video string
	Clips []entity.ClipSpec
}

// ClipParamsError points at the offending line of a parameters file.
type ClipParamsError struct {
	Line int
	Err  error
}

func (e *ClipParamsError) Error() string {
	return fmt.Sprintf("clip parameters line %d: %v", e.Line, e.Err)
}

func (e *ClipParamsError) Unwrap() error { return e.Err }

// ParseClipParams reads "<video> <HH:MM:SS,SECS> [...]" lines, skipping blank ones.
func ParseClipParams(r io.Reader) ([]ClipRequest, error) {
	var reqs []ClipRequest
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) == 1 {
			return nil, &ClipParamsError{Line: line, Err: errors.New("no clips given")}
		}
		clips, err := entity.ParseClipSpecs(fields[1:])
		if err != nil {
			return nil, &ClipParamsError{Line: line, Err: err}
		}
		reqs = append(reqs, ClipRequest{Video: fields[0], Clips: clips})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read clip parameters")
	}
	return reqs, nil
}

type ExtractClipsUseCase struct {
	extractor port.ClipExtractor
	logger    *zap.Logger
	progress  io.Writer
}

func NewExtractClipsUseCase(extractor port.ClipExtractor, logger *zap.Logger, progress io.Writer) *ExtractClipsUseCase {
	return &ExtractClipsUseCase{extractor: extractor, logger: logger, progress: progress}
}

func (uc *ExtractClipsUseCase) ExtractVideo(ctx context.Context, videoPath string, clips []entity.ClipSpec, outputDir string) ([]string, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "extract_clips")
	defer span.End()
	span.SetAttributes(attribute.String("video.path", videoPath), attribute.Int("clips.requested", len(clips)))

	start := time.Now()
	paths, err := uc.extractor.ExtractClips(ctx, videoPath, clips, outputDir)
	metrics.ClipsExtractedTotal.Add(float64(len(paths)))
	if err != nil {
		span.RecordError(err)
		return paths, err
	}
	metrics.StageDuration.WithLabelValues("extract_clips").Observe(time.Since(start).Seconds())

	uc.logger.Info("extracted clips",
		zap.String("video", videoPath),
		zap.Int("clips", len(paths)),
		zap.String("output_dir", outputDir),
	)
	return paths, nil
}

// ExtractBatch runs every request of paramsFile in file order.
func (uc *ExtractClipsUseCase) ExtractBatch(ctx context.Context, paramsFile, outputDir string) ([]string, error) {
	f, err := os.Open(paramsFile)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", paramsFile)
	}
	defer f.Close()

	reqs, err := ParseClipParams(f)
	if err != nil {
		return nil, err
	}

	var all []string
	bar := newProgress(uc.progress, len(reqs), "Extracting clips")
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return all, errors.WithStack(err)
		}
		paths, err := uc.ExtractVideo(ctx, req.Video, req.Clips, outputDir)
		all = append(all, paths...)
		if err != nil {
			return all, err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return all, nil
}
