package dataset

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
)

const (
	ImagesDir = "images"
	LabelsDir = "labels"
)

// CopiedPair is one image/label pair placed in a split.
type CopiedPair struct {
	Group string
	Split entity.Split
	Image string
	Label string
}

// Result describes a finished split run.
type Result struct {
	Counts      entity.SplitCounts
	Assignments []Assignment
	Pairs       []CopiedPair
}

// Splitter partitions a labeled image directory into train/valid/test by video group.
type Splitter struct {
	logger *zap.Logger
}

func NewSplitter(logger *zap.Logger) *Splitter {
	return &Splitter{logger: logger}
}

// Split copies every matched image of sourceDir/images, with its label from
// sourceDir/labels, into targetDir/<split>/{images,labels}. Frames of one video
// group always land in the same split. The run stops at the first error and
// leaves whatever was already copied in place.
func (s *Splitter) Split(ctx context.Context, sourceDir, targetDir string, p entity.Proportions, seed int64) (*Result, error) {
	imagesDir := filepath.Join(sourceDir, ImagesDir)
	labelsDir := filepath.Join(sourceDir, LabelsDir)
	for _, dir := range []string{imagesDir, labelsDir} {
		if err := requireDir(dir); err != nil {
			return nil, err
		}
	}

	names, err := listFiles(imagesDir)
	if err != nil {
		return nil, err
	}

	groups := GroupByVideo(names)
	for _, name := range groups.Unmatched {
		s.logger.Warn("image name has no video group, skipping", zap.String("image", name))
	}

	assignments := Partition(Shuffle(groups.Keys, seed), p)

	for _, split := range entity.Splits {
		for _, sub := range []string{ImagesDir, LabelsDir} {
			dir := filepath.Join(targetDir, string(split), sub)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrapf(err, "create %s", dir)
			}
			s.logger.Debug("created directory", zap.String("path", dir))
		}
	}

	res := &Result{
		Assignments: assignments,
		Counts: entity.SplitCounts{
			Full:      len(names),
			Unmatched: len(groups.Unmatched),
			Groups:    make(map[entity.Split]int, len(entity.Splits)),
		},
	}

	for _, a := range assignments {
		if err := ctx.Err(); err != nil {
			return res, errors.WithStack(err)
		}
		res.Counts.Groups[a.Split]++
		for _, image := range groups.Images[a.Key] {
			pair, overwrote, err := copyPair(imagesDir, labelsDir, targetDir, a.Split, image)
			if err != nil {
				return res, err
			}
			pair.Group = a.Key
			res.Pairs = append(res.Pairs, pair)
			if overwrote {
				res.Counts.Overwritten++
			}
			switch a.Split {
			case entity.SplitTrain:
				res.Counts.Train++
			case entity.SplitValid:
				res.Counts.Valid++
			default:
				res.Counts.Test++
			}
		}
	}

	s.logger.Info("dataset split finished",
		zap.Int("groups", len(assignments)),
		zap.Int("train", res.Counts.Train),
		zap.Int("valid", res.Counts.Valid),
		zap.Int("test", res.Counts.Test),
		zap.Int("unmatched", res.Counts.Unmatched),
		zap.Int("overwritten", res.Counts.Overwritten),
	)
	return res, nil
}

func copyPair(imagesDir, labelsDir, targetDir string, split entity.Split, image string) (CopiedPair, bool, error) {
	label := LabelName(image)
	srcLabel := filepath.Join(labelsDir, label)
	if _, err := os.Stat(srcLabel); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CopiedPair{}, false, errors.WithStack(&MissingAnnotationError{Image: image, Label: srcLabel})
		}
		return CopiedPair{}, false, errors.Wrapf(err, "stat label %s", srcLabel)
	}

	overwrote, err := copyFile(filepath.Join(imagesDir, image), filepath.Join(targetDir, string(split), ImagesDir, image))
	if err != nil {
		return CopiedPair{}, false, err
	}
	if _, err := copyFile(srcLabel, filepath.Join(targetDir, string(split), LabelsDir, label)); err != nil {
		return CopiedPair{}, false, err
	}
	return CopiedPair{Split: split, Image: image, Label: label}, overwrote, nil
}

// copyFile copies content and permission bits, replacing dst if present.
func copyFile(src, dst string) (bool, error) {
	_, statErr := os.Stat(dst)
	existed := statErr == nil

	in, err := os.Open(src)
	if err != nil {
		return false, errors.Wrapf(err, "open %s", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", src)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return false, errors.Wrapf(err, "create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return false, errors.Wrapf(err, "copy %s to %s", src, dst)
	}
	if err := out.Close(); err != nil {
		return false, errors.Wrapf(err, "close %s", dst)
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return false, errors.Wrapf(err, "chmod %s", dst)
	}
	return existed, nil
}

func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.WithStack(&DirectoryNotFoundError{Path: dir})
		}
		return errors.Wrapf(err, "stat %s", dir)
	}
	if !info.IsDir() {
		return errors.WithStack(&DirectoryNotFoundError{Path: dir})
	}
	return nil
}

// listFiles returns the names of non-directory entries, sorted by name.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
