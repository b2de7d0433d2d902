package dataset

import "fmt"

// DirectoryNotFoundError reports a required source subdirectory that is absent.
type DirectoryNotFoundError struct {
	Path string
}

func (e *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf("directory not found: %s", e.Path)
}

// MissingAnnotationError reports an image whose label file does not exist.
type MissingAnnotationError struct {
	Image string
	Label string
}

func (e *MissingAnnotationError) Error() string {
	return fmt.Sprintf("missing annotation for %s: %s does not exist", e.Image, e.Label)
}

// RenameConflictError reports a rename target that is already taken by another file.
type RenameConflictError struct {
	Source string
	Target string
}

func (e *RenameConflictError) Error() string {
	return fmt.Sprintf("cannot rename %s: %s already exists", e.Source, e.Target)
}
