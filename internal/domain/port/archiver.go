package port

import "context"

// Archiver packs files into a zip, naming entries relative to baseDir.
type Archiver interface {
	CreateZip(ctx context.Context, baseDir string, filePaths []string, outputPath string) error
}
