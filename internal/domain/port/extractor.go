package port

import (
	"context"
	"errors"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
)

// ErrVideoNotFound is returned by extractors when the input video does not exist.
var ErrVideoNotFound = errors.New("video file not found")

type FrameExtractionResult struct {
	FramePaths    []string
	FrameCount    int
	VideoDuration float64
}

type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath string, outputDir string, interval int) (*FrameExtractionResult, error)
}

type ClipExtractor interface {
	ExtractClips(ctx context.Context, videoPath string, clips []entity.ClipSpec, outputDir string) ([]string, error)
}
