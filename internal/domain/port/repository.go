package port

import (
	"context"
	"errors"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
	"github.com/google/uuid"
)

// ErrJobNotFound is returned by FindByID when no record exists.
var ErrJobNotFound = errors.New("job not found")

type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	Update(ctx context.Context, job *entity.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
}
