package usecase

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fiapx/fiapx-dataset-prep/internal/dataset"
)

func TestExtractDirProcessesMP4InNameOrder(t *testing.T) {
	clips := t.TempDir()
	for _, name := range []string{"b.mp4", "a.mp4", "notes.txt", "c.MOV"} {
		require.NoError(t, os.WriteFile(filepath.Join(clips, name), []byte("v"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(clips, "d.mp4"), 0o755))

	frames := &fakeFrames{frames: 2}
	var progress bytes.Buffer
	uc := NewExtractFramesUseCase(frames, zaptest.NewLogger(t), &progress)

	out := t.TempDir()
	res, err := uc.ExtractDir(context.Background(), clips, out, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(clips, "a.mp4"), filepath.Join(clips, "b.mp4")}, res.Videos)
	assert.Equal(t, []int{10, 10}, frames.intervals)
	assert.Equal(t, 4, res.FrameCount())
	assert.InDelta(t, 5.0, res.Duration, 1e-9)
	assert.FileExists(t, filepath.Join(out, "a_frame1.jpg"))
	assert.FileExists(t, filepath.Join(out, "b_frame2.jpg"))
	assert.NotZero(t, progress.Len())
}

func TestExtractDirMissingFolder(t *testing.T) {
	uc := NewExtractFramesUseCase(&fakeFrames{}, zaptest.NewLogger(t), nil)
	_, err := uc.ExtractDir(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), 30)

	var notFound *dataset.DirectoryNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestExtractDirStopsOnFailure(t *testing.T) {
	clips := t.TempDir()
	for _, name := range []string{"a.mp4", "b.mp4"} {
		require.NoError(t, os.WriteFile(filepath.Join(clips, name), []byte("v"), 0o644))
	}
	frames := &fakeFrames{err: errors.New("ffmpeg exploded")}
	uc := NewExtractFramesUseCase(frames, zaptest.NewLogger(t), nil)

	res, err := uc.ExtractDir(context.Background(), clips, t.TempDir(), 30)
	assert.ErrorContains(t, err, "ffmpeg exploded")
	assert.Empty(t, res.Videos)
	assert.Len(t, frames.videos, 1)
}

func TestExtractDirEmptyFolder(t *testing.T) {
	uc := NewExtractFramesUseCase(&fakeFrames{}, zaptest.NewLogger(t), nil)
	res, err := uc.ExtractDir(context.Background(), t.TempDir(), t.TempDir(), 30)
	require.NoError(t, err)
	assert.Zero(t, res.FrameCount())
}
