package dataset

import (
	"os"

	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

// ManifestName is the file written next to the split directories.
const ManifestName = "split_manifest.tsv"

var manifestHeader = []string{"video_group", "split", "image", "label"}

// WriteManifest records which split every copied pair went to, one row per pair.
func WriteManifest(path string, pairs []CopiedPair) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create manifest %s", path)
	}
	defer f.Close()

	w := tsv.NewWriter(f)
	for _, col := range manifestHeader {
		w.WriteString(col)
	}
	if err := w.EndLine(); err != nil {
		return errors.Wrap(err, "write manifest header")
	}
	for _, p := range pairs {
		w.WriteString(p.Group)
		w.WriteString(string(p.Split))
		w.WriteString(p.Image)
		w.WriteString(p.Label)
		if err := w.EndLine(); err != nil {
			return errors.Wrap(err, "write manifest row")
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "flush manifest")
	}
	return f.Close()
}
