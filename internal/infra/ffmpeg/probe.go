package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

type probeOutput struct {
	Streams []struct {
		NbFrames string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// VideoInfo is what ffprobe reports about the first video stream.
type VideoInfo struct {
	Duration   float64
	FrameCount int
}

// Prober wraps ffprobe.
type Prober struct {
	ffprobePath string
	run         runFunc
}

func NewProber(ffprobePath string) *Prober {
	return &Prober{ffprobePath: ffprobePath, run: execRun}
}

func (p *Prober) Probe(ctx context.Context, videoPath string) (*VideoInfo, error) {
	out, err := p.run(ctx, p.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=nb_frames:format=duration",
		"-of", "json",
		videoPath,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w, output: %s", err, string(out))
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (*VideoInfo, error) {
	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no video streams found")
	}

	info := &VideoInfo{}
	if probe.Format.Duration != "" {
		d, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("parse duration: %w", err)
		}
		info.Duration = d
	}
	// nb_frames is "N/A" for some containers
	if n, err := strconv.Atoi(probe.Streams[0].NbFrames); err == nil {
		info.FrameCount = n
	}
	return info, nil
}
