package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/port"
)

// Extractor samples every interval-th frame of a video into image files.
type Extractor struct {
	ffmpegPath string
	format     string
	prober     *Prober
	logger     *zap.Logger
	run        runFunc
}

func NewExtractor(ffmpegPath, ffprobePath, format string, logger *zap.Logger) *Extractor {
	return &Extractor{
		ffmpegPath: ffmpegPath,
		format:     format,
		prober:     NewProber(ffprobePath),
		logger:     logger,
		run:        execRun,
	}
}

// ExtractFrames keeps frames whose 0-based index is a multiple of interval and
// writes them as <stem>_frame<k>.<format>, k counting from 1.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath string, outputDir string, interval int) (*port.FrameExtractionResult, error) {
	if interval < 1 {
		return nil, fmt.Errorf("frame interval must be at least 1, got %d", interval)
	}
	if err := requireVideo(videoPath); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var duration float64
	info, err := e.prober.Probe(ctx, videoPath)
	if err != nil {
		e.logger.Warn("could not probe video", zap.String("video", videoPath), zap.Error(err))
	} else {
		duration = info.Duration
	}

	stem := videoStem(videoPath)
	if err := clearFrames(outputDir, stem, e.format); err != nil {
		return nil, err
	}
	args := frameArgs(videoPath, outputDir, stem, e.format, interval)
	e.logger.Debug("running ffmpeg", zap.Strings("args", args))

	output, err := e.run(ctx, e.ffmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}

	frames, err := listFrames(outputDir, stem, e.format)
	if err != nil {
		return nil, err
	}

	e.logger.Info("frames extracted",
		zap.String("video", filepath.Base(videoPath)),
		zap.Int("count", len(frames)),
		zap.Int("interval", interval),
		zap.Float64("video_duration", duration),
	)

	return &port.FrameExtractionResult{
		FramePaths:    frames,
		FrameCount:    len(frames),
		VideoDuration: duration,
	}, nil
}

func frameArgs(videoPath, outputDir, stem, format string, interval int) []string {
	pattern := filepath.Join(outputDir, strings.ReplaceAll(stem, "%", "%%")+"_frame%d."+format)
	return ffmpeggo.Input(videoPath).
		Output(pattern, ffmpeggo.KwArgs{
			"vf":           fmt.Sprintf(`select=not(mod(n\,%d))`, interval),
			"vsync":        "vfr",
			"start_number": "1",
			"q:v":          "2",
		}).
		OverWriteOutput().
		GetArgs()
}

// clearFrames removes frames left in dir by an earlier run on the same video,
// so the listing after ffmpeg only holds what this run wrote.
func clearFrames(dir, stem, format string) error {
	stale, err := listFrames(dir, stem, format)
	if err != nil {
		return err
	}
	for _, p := range stale {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale frame: %w", err)
		}
	}
	return nil
}

// listFrames returns <stem>_frame<k>.<format> files of dir ordered by k.
func listFrames(dir, stem, format string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	prefix, suffix := stem+"_frame", "."+format

	type frame struct {
		index int
		path  string
	}
	var frames []frame
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		k, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix))
		if err != nil {
			continue
		}
		frames = append(frames, frame{index: k, path: filepath.Join(dir, name)})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].index < frames[j].index })

	paths := make([]string, len(frames))
	for i, f := range frames {
		paths[i] = f.path
	}
	return paths, nil
}
