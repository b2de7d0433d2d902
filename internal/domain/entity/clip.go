package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClipSpec selects a sub-clip of a source video.
type ClipSpec struct {
	Start    time.Duration `json:"start"`
	Duration time.Duration `json:"duration"`
}

// ParseTimecode parses "HH:MM:SS" with integer fields.
func ParseTimecode(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("timecode %q: want HH:MM:SS", s)
	}
	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("timecode %q: bad field %q", s, p)
		}
		fields[i] = n
	}
	secs := fields[0]*3600 + fields[1]*60 + fields[2]
	return time.Duration(secs) * time.Second, nil
}

// ParseClipSpec parses "HH:MM:SS,SECONDS".
func ParseClipSpec(s string) (ClipSpec, error) {
	start, dur, ok := strings.Cut(s, ",")
	if !ok {
		return ClipSpec{}, fmt.Errorf("clip %q: want HH:MM:SS,SECONDS", s)
	}
	st, err := ParseTimecode(start)
	if err != nil {
		return ClipSpec{}, fmt.Errorf("clip %q: %w", s, err)
	}
	secs, err := strconv.Atoi(strings.TrimSpace(dur))
	if err != nil || secs <= 0 {
		return ClipSpec{}, fmt.Errorf("clip %q: duration must be a positive number of seconds", s)
	}
	return ClipSpec{Start: st, Duration: time.Duration(secs) * time.Second}, nil
}

func ParseClipSpecs(args []string) ([]ClipSpec, error) {
	clips := make([]ClipSpec, 0, len(args))
	for _, a := range args {
		c, err := ParseClipSpec(a)
		if err != nil {
			return nil, err
		}
		clips = append(clips, c)
	}
	return clips, nil
}

// String renders the clip back in its command-line form.
func (c ClipSpec) String() string {
	total := int(c.Start / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d,%d", total/3600, total%3600/60, total%60, int(c.Duration/time.Second))
}
