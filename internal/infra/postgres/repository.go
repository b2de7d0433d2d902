package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
	"github.com/fiapx/fiapx-dataset-prep/internal/domain/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO dataset_jobs (
			id, kind, user_id, source, archive_key, status, item_count,
			video_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Kind), job.UserID, job.Source, job.ArchiveKey, string(job.Status),
		job.ItemCount, job.VideoDuration,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE dataset_jobs SET
			status=$2, archive_key=$3, item_count=$4, video_duration=$5,
			attempt=$6, max_attempts=$7, error_message=$8, updated_at=$9, completed_at=$10
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ArchiveKey, job.ItemCount,
		job.VideoDuration, job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	query := `
		SELECT id, kind, user_id, source, archive_key, status, item_count,
			video_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM dataset_jobs WHERE id=$1`

	job := &entity.Job{}
	var kind, status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &kind, &job.UserID, &job.Source, &job.ArchiveKey, &status,
		&job.ItemCount, &job.VideoDuration,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Kind = entity.JobKind(kind)
	job.Status = entity.JobStatus(status)
	return job, nil
}
