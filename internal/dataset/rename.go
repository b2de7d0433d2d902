package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// RenamedFile is one move performed by RenameFiles.
type RenamedFile struct {
	From string
	To   string
}

// RenameFiles moves every regular file of inputDir, in name order, to
// <baseName>_<i><ext> with i starting at 1. Files go to outputDir when it is
// set (created if missing), otherwise they are renamed in place. All targets
// are checked before anything moves; a target held by another file aborts the
// run with a RenameConflictError.
func RenameFiles(inputDir, baseName, outputDir string) ([]RenamedFile, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, errors.WithStack(&DirectoryNotFoundError{Path: inputDir})
	}

	if outputDir == "" {
		outputDir = inputDir
	} else if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", outputDir)
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", inputDir)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var plan []RenamedFile
	for _, e := range entries {
		src := filepath.Join(inputDir, e.Name())
		fi, err := os.Stat(src)
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", src)
		}
		if !fi.Mode().IsRegular() {
			continue
		}
		dst := filepath.Join(outputDir, fmt.Sprintf("%s_%d%s", baseName, len(plan)+1, filepath.Ext(e.Name())))
		if ti, err := os.Stat(dst); err == nil && !os.SameFile(fi, ti) {
			return nil, errors.WithStack(&RenameConflictError{Source: src, Target: dst})
		}
		plan = append(plan, RenamedFile{From: src, To: dst})
	}

	for i, r := range plan {
		if err := os.Rename(r.From, r.To); err != nil {
			return plan[:i], errors.Wrapf(err, "rename %s", r.From)
		}
	}
	return plan, nil
}
