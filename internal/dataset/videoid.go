package dataset

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Frames exported by the labeling tool are named
// <video>_clip<N>_frame<M>_jpg.rf.<hash>.<ext>; the group key is <video>_clip<N>.
var videoIDPattern = regexp.MustCompile(`(.+_clip\d+)_frame\d+_jpg\.rf\..+`)

// VideoID returns the video group key of an image filename.
func VideoID(name string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LabelName maps an image filename to its annotation filename.
func LabelName(image string) string {
	return strings.TrimSuffix(image, filepath.Ext(image)) + ".txt"
}

// Groups holds image filenames keyed by video group, keys in first-seen order.
type Groups struct {
	Keys      []string
	Images    map[string][]string
	Unmatched []string
}

// GroupByVideo buckets names by VideoID. Order within a group follows the input.
func GroupByVideo(names []string) Groups {
	g := Groups{Images: make(map[string][]string)}
	for _, name := range names {
		id, ok := VideoID(name)
		if !ok {
			g.Unmatched = append(g.Unmatched, name)
			continue
		}
		if _, seen := g.Images[id]; !seen {
			g.Keys = append(g.Keys, id)
		}
		g.Images[id] = append(g.Images[id], name)
	}
	return g
}
