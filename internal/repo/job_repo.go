package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Freightline/internal/domain"
)

// JobRepo — репозиторий для работы с processing jobs.
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// Create создаёт новый job.
func (r *JobRepo) Create(ctx context.Context, job *domain.ProcessingJob) error {
	payloadJSON, err := json.Marshal(job.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO processing_jobs (id, call_id, org_id, stage, attempt, status, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		job.ID,
		job.CallID,
		job.OrgID,
		job.Stage,
		job.Attempt,
		job.Status,
		payloadJSON,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetByID возвращает job по ID.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProcessingJob, error) {
	query := `
		SELECT id, call_id, org_id, stage, attempt, status, payload, outputs,
		       started_at, finished_at, error, created_at
		FROM processing_jobs
		WHERE id = $1
	`
	return r.scanJob(r.pool.QueryRow(ctx, query, id))
}

// ListByCallID возвращает все jobs звонка.
func (r *JobRepo) ListByCallID(ctx context.Context, callID uuid.UUID) ([]domain.ProcessingJob, error) {
	query := `
		SELECT id, call_id, org_id, stage, attempt, status, payload, outputs,
		       started_at, finished_at, error, created_at
		FROM processing_jobs
		WHERE call_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, callID)
	if err != nil {
		return nil, fmt.Errorf("list jobs by call_id: %w", err)
	}
	defer rows.Close()

	var jobs []domain.ProcessingJob
	for rows.Next() {
		job, err := r.scanJobFromRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// ListQueued возвращает jobs в статусе QUEUED (polling fallback воркера).
func (r *JobRepo) ListQueued(ctx context.Context, limit int) ([]domain.ProcessingJob, error) {
	query := `
		SELECT id, call_id, org_id, stage, attempt, status, payload, outputs,
		       started_at, finished_at, error, created_at
		FROM processing_jobs
		WHERE status = 'QUEUED'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.ProcessingJob
	for rows.Next() {
		job, err := r.scanJobFromRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Update обновляет job.
func (r *JobRepo) Update(ctx context.Context, job *domain.ProcessingJob) error {
	outputsJSON, err := json.Marshal(job.Outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}

	query := `
		UPDATE processing_jobs
		SET attempt = $2, status = $3, outputs = $4,
		    started_at = $5, finished_at = $6, error = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		job.ID,
		job.Attempt,
		job.Status,
		outputsJSON,
		job.StartedAt,
		job.FinishedAt,
		nullString(job.Error),
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// scanJob сканирует одну строку в ProcessingJob.
func (r *JobRepo) scanJob(row pgx.Row) (*domain.ProcessingJob, error) {
	var job domain.ProcessingJob
	var payloadJSON, outputsJSON []byte
	var jobError *string

	err := row.Scan(
		&job.ID,
		&job.CallID,
		&job.OrgID,
		&job.Stage,
		&job.Attempt,
		&job.Status,
		&payloadJSON,
		&outputsJSON,
		&job.StartedAt,
		&job.FinishedAt,
		&jobError,
		&job.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if err := unmarshalJobJSON(&job, payloadJSON, outputsJSON); err != nil {
		return nil, err
	}
	if jobError != nil {
		job.Error = *jobError
	}
	return &job, nil
}

// scanJobFromRows сканирует строку из rows в ProcessingJob.
func (r *JobRepo) scanJobFromRows(rows pgx.Rows) (*domain.ProcessingJob, error) {
	var job domain.ProcessingJob
	var payloadJSON, outputsJSON []byte
	var jobError *string

	err := rows.Scan(
		&job.ID,
		&job.CallID,
		&job.OrgID,
		&job.Stage,
		&job.Attempt,
		&job.Status,
		&payloadJSON,
		&outputsJSON,
		&job.StartedAt,
		&job.FinishedAt,
		&jobError,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if err := unmarshalJobJSON(&job, payloadJSON, outputsJSON); err != nil {
		return nil, err
	}
	if jobError != nil {
		job.Error = *jobError
	}
	return &job, nil
}

func unmarshalJobJSON(job *domain.ProcessingJob, payloadJSON, outputsJSON []byte) error {
	if payloadJSON != nil {
		if err := json.Unmarshal(payloadJSON, &job.Payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if outputsJSON != nil {
		if err := json.Unmarshal(outputsJSON, &job.Outputs); err != nil {
			return fmt.Errorf("unmarshal outputs: %w", err)
		}
	}
	return nil
}
