package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
	"github.com/fiapx/fiapx-dataset-prep/internal/domain/port"
)

// flagValue returns the argument following flag, or "" when absent.
func flagValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func touchVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0o644))
	return path
}

func TestFrameArgs(t *testing.T) {
	args := frameArgs("/in/house_clip1.mp4", "/out", "house_clip1", "jpg", 30)

	assert.Equal(t, "/in/house_clip1.mp4", flagValue(args, "-i"))
	assert.Equal(t, `select=not(mod(n\,30))`, flagValue(args, "-vf"))
	assert.Equal(t, "vfr", flagValue(args, "-vsync"))
	assert.Equal(t, "1", flagValue(args, "-start_number"))
	assert.Contains(t, args, "/out/house_clip1_frame%d.jpg")
	assert.Contains(t, args, "-y")
}

func TestFrameArgsEscapesPercent(t *testing.T) {
	args := frameArgs("/in/100%.mp4", "/out", "100%", "png", 5)

	assert.Contains(t, args, "/out/100%%_frame%d.png")
}

func TestClipArgs(t *testing.T) {
	args := clipArgs("/in/tour.mp4", "/out/tour_clip2.mp4", entity.ClipSpec{Start: 90 * time.Second, Duration: 30 * time.Second})

	assert.Equal(t, "90", flagValue(args, "-ss"))
	assert.Equal(t, "/in/tour.mp4", flagValue(args, "-i"))
	assert.Equal(t, "30", flagValue(args, "-t"))
	assert.Equal(t, "mpeg4", flagValue(args, "-c:v"))
	assert.Equal(t, "0:v:0", flagValue(args, "-map"))
	assert.Contains(t, args, "/out/tour_clip2.mp4")
}

func TestExtractFrames(t *testing.T) {
	video := touchVideo(t, "kitchen_clip3.mp4")
	out := filepath.Join(t.TempDir(), "frames")

	e := NewExtractor("ffmpeg", "ffprobe", "jpg", zaptest.NewLogger(t))
	e.prober.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(`{"streams":[{"nb_frames":"95"}],"format":{"duration":"3.166"}}`), nil
	}
	var gotArgs []string
	e.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		// 95 frames at interval 30 keeps indices 0, 30, 60, 90
		for k := 1; k <= 4; k++ {
			p := filepath.Join(out, fmt.Sprintf("kitchen_clip3_frame%d.jpg", k))
			if err := os.WriteFile(p, []byte("jpeg"), 0o644); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
	// unrelated files are ignored
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "other_frame1.jpg"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "kitchen_clip3_frame10.png"), nil, 0o644))

	res, err := e.ExtractFrames(context.Background(), video, out, 30)
	require.NoError(t, err)

	assert.Equal(t, video, flagValue(gotArgs, "-i"))
	assert.Equal(t, 4, res.FrameCount)
	assert.InDelta(t, 3.166, res.VideoDuration, 1e-9)
	assert.Equal(t, []string{
		filepath.Join(out, "kitchen_clip3_frame1.jpg"),
		filepath.Join(out, "kitchen_clip3_frame2.jpg"),
		filepath.Join(out, "kitchen_clip3_frame3.jpg"),
		filepath.Join(out, "kitchen_clip3_frame4.jpg"),
	}, res.FramePaths)
}

func TestExtractFramesDropsStaleFrames(t *testing.T) {
	video := touchVideo(t, "kitchen_clip3.mp4")
	out := t.TempDir()
	// left over from an earlier run with a smaller interval
	stale := filepath.Join(out, "kitchen_clip3_frame7.jpg")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	other := filepath.Join(out, "other_frame7.jpg")
	require.NoError(t, os.WriteFile(other, nil, 0o644))

	e := NewExtractor("ffmpeg", "ffprobe", "jpg", zaptest.NewLogger(t))
	e.prober.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, fmt.Errorf("no ffprobe")
	}
	e.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		for k := 1; k <= 2; k++ {
			p := filepath.Join(out, fmt.Sprintf("kitchen_clip3_frame%d.jpg", k))
			if err := os.WriteFile(p, []byte("jpeg"), 0o644); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	res, err := e.ExtractFrames(context.Background(), video, out, 60)
	require.NoError(t, err)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, other)
	assert.Equal(t, 2, res.FrameCount)
	assert.Equal(t, []string{
		filepath.Join(out, "kitchen_clip3_frame1.jpg"),
		filepath.Join(out, "kitchen_clip3_frame2.jpg"),
	}, res.FramePaths)
}

func TestExtractFramesOrdersNumerically(t *testing.T) {
	dir := t.TempDir()
	for _, k := range []int{10, 2, 1} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("v_frame%d.jpg", k)), nil, 0o644))
	}

	frames, err := listFrames(dir, "v", "jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "v_frame1.jpg"),
		filepath.Join(dir, "v_frame2.jpg"),
		filepath.Join(dir, "v_frame10.jpg"),
	}, frames)
}

func TestExtractFramesMissingVideo(t *testing.T) {
	e := NewExtractor("ffmpeg", "ffprobe", "jpg", zaptest.NewLogger(t))

	_, err := e.ExtractFrames(context.Background(), "/nope/video.mp4", t.TempDir(), 30)
	assert.ErrorIs(t, err, port.ErrVideoNotFound)
}

func TestExtractFramesBadInterval(t *testing.T) {
	e := NewExtractor("ffmpeg", "ffprobe", "jpg", zaptest.NewLogger(t))

	_, err := e.ExtractFrames(context.Background(), touchVideo(t, "v.mp4"), t.TempDir(), 0)
	assert.Error(t, err)
}

func TestExtractFramesFFmpegFailure(t *testing.T) {
	e := NewExtractor("ffmpeg", "ffprobe", "jpg", zaptest.NewLogger(t))
	e.prober.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("no ffprobe")
	}
	e.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("moov atom not found"), errors.New("exit status 1")
	}

	_, err := e.ExtractFrames(context.Background(), touchVideo(t, "v.mp4"), t.TempDir(), 30)
	assert.ErrorContains(t, err, "moov atom not found")
}

func TestExtractClips(t *testing.T) {
	video := touchVideo(t, "living_room.mov")
	out := filepath.Join(t.TempDir(), "clips")

	c := NewClipExtractor("ffmpeg", zaptest.NewLogger(t))
	var calls [][]string
	c.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		assert.Equal(t, "ffmpeg", name)
		calls = append(calls, args)
		return nil, nil
	}

	clips := []entity.ClipSpec{
		{Start: 0, Duration: 30 * time.Second},
		{Start: 2 * time.Minute, Duration: 15 * time.Second},
	}
	paths, err := c.ExtractClips(context.Background(), video, clips, out)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(out, "living_room_clip1.mp4"),
		filepath.Join(out, "living_room_clip2.mp4"),
	}, paths)
	require.Len(t, calls, 2)
	assert.Equal(t, "0", flagValue(calls[0], "-ss"))
	assert.Equal(t, "120", flagValue(calls[1], "-ss"))
	assert.Equal(t, "15", flagValue(calls[1], "-t"))
	assert.DirExists(t, out)
}

func TestExtractClipsStopsOnFailure(t *testing.T) {
	c := NewClipExtractor("ffmpeg", zaptest.NewLogger(t))
	n := 0
	c.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		n++
		if n == 2 {
			return []byte("Invalid data"), errors.New("exit status 1")
		}
		return nil, nil
	}

	clips := []entity.ClipSpec{{Duration: time.Second}, {Duration: time.Second}, {Duration: time.Second}}
	paths, err := c.ExtractClips(context.Background(), touchVideo(t, "v.mp4"), clips, t.TempDir())

	assert.ErrorContains(t, err, "extract clip 2")
	assert.Len(t, paths, 1)
	assert.Equal(t, 2, n)
}

func TestParseProbe(t *testing.T) {
	info, err := parseProbe([]byte(`{"streams":[{"nb_frames":"N/A"}],"format":{"duration":"12.5"}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, info.FrameCount)
	assert.InDelta(t, 12.5, info.Duration, 1e-9)

	_, err = parseProbe([]byte(`{"streams":[]}`))
	assert.Error(t, err)

	_, err = parseProbe([]byte(`not json`))
	assert.Error(t, err)
}
