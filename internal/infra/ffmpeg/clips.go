package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
)

// ClipExtractor cuts sub-clips out of a source video.
type ClipExtractor struct {
	ffmpegPath string
	logger     *zap.Logger
	run        runFunc
}

func NewClipExtractor(ffmpegPath string, logger *zap.Logger) *ClipExtractor {
	return &ClipExtractor{ffmpegPath: ffmpegPath, logger: logger, run: execRun}
}

// ExtractClips writes clip i (1-based, argument order) to <stem>_clip<i>.mp4.
// Clips are re-encoded without audio.
func (c *ClipExtractor) ExtractClips(ctx context.Context, videoPath string, clips []entity.ClipSpec, outputDir string) ([]string, error) {
	if err := requireVideo(videoPath); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	stem := videoStem(videoPath)
	paths := make([]string, 0, len(clips))
	for i, clip := range clips {
		select {
		case <-ctx.Done():
			return paths, ctx.Err()
		default:
		}

		out := filepath.Join(outputDir, fmt.Sprintf("%s_clip%d.mp4", stem, i+1))
		args := clipArgs(videoPath, out, clip)
		c.logger.Debug("running ffmpeg", zap.Strings("args", args))

		if output, err := c.run(ctx, c.ffmpegPath, args...); err != nil {
			return paths, fmt.Errorf("extract clip %d (%s): %w, output: %s", i+1, clip, err, string(output))
		}
		paths = append(paths, out)

		c.logger.Info("clip extracted",
			zap.String("video", filepath.Base(videoPath)),
			zap.String("clip", filepath.Base(out)),
			zap.Duration("start", clip.Start),
			zap.Duration("duration", clip.Duration),
		)
	}
	return paths, nil
}

func clipArgs(videoPath, out string, clip entity.ClipSpec) []string {
	return ffmpeggo.Input(videoPath, ffmpeggo.KwArgs{"ss": seconds(clip.Start)}).
		Output(out, ffmpeggo.KwArgs{
			"t":   seconds(clip.Duration),
			"map": "0:v:0",
			"c:v": "mpeg4",
			"q:v": "2",
		}).
		OverWriteOutput().
		GetArgs()
}
