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

// CallRepo — репозиторий для работы с calls, transcripts и extractions.
type CallRepo struct {
	pool *pgxpool.Pool
}

// NewCallRepo создаёт новый CallRepo.
func NewCallRepo(pool *pgxpool.Pool) *CallRepo {
	return &CallRepo{pool: pool}
}

const callColumns = `id, org_id, direction, from_number, to_number, provider_call_sid,
	       recording_url, duration_sec, status, error, started_at, finished_at, created_at`

// Create создаёт новый call.
func (r *CallRepo) Create(ctx context.Context, call *domain.Call) error {
	query := `
		INSERT INTO calls (id, org_id, direction, from_number, to_number, provider_call_sid,
		                   recording_url, duration_sec, status, error, started_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		call.ID,
		call.OrgID,
		call.Direction,
		call.FromNumber,
		call.ToNumber,
		call.ProviderCallSID,
		nullString(call.RecordingURL),
		call.DurationSec,
		call.Status,
		nullString(call.Error),
		call.StartedAt,
		call.FinishedAt,
		call.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert call: %w", err)
	}
	return nil
}

// GetByID возвращает call по ID.
func (r *CallRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE id = $1`
	return r.scanCall(r.pool.QueryRow(ctx, query, id))
}

// GetByProviderSID возвращает call по идентификатору телефонии.
// Используется для идемпотентности webhook'ов.
func (r *CallRepo) GetByProviderSID(ctx context.Context, sid string) (*domain.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE provider_call_sid = $1`
	return r.scanCall(r.pool.QueryRow(ctx, query, sid))
}

// CallFilter — параметры фильтрации calls.
type CallFilter struct {
	OrgID  uuid.UUID
	Status domain.CallStatus
	Limit  int
	Offset int
}

// List возвращает список calls организации с фильтрацией.
func (r *CallRepo) List(ctx context.Context, filter CallFilter) ([]domain.Call, error) {
	query := `
		SELECT ` + callColumns + `
		FROM calls
		WHERE org_id = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		filter.OrgID,
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	var calls []domain.Call
	for rows.Next() {
		call, err := r.scanCallFromRows(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, *call)
	}
	return calls, rows.Err()
}

// ListRecorded возвращает calls в статусе RECORDED (polling fallback pipeline).
func (r *CallRepo) ListRecorded(ctx context.Context, limit int) ([]domain.Call, error) {
	query := `
		SELECT ` + callColumns + `
		FROM calls
		WHERE status = 'RECORDED'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recorded calls: %w", err)
	}
	defer rows.Close()

	var calls []domain.Call
	for rows.Next() {
		call, err := r.scanCallFromRows(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, *call)
	}
	return calls, rows.Err()
}

// Update обновляет call.
func (r *CallRepo) Update(ctx context.Context, call *domain.Call) error {
	query := `
		UPDATE calls
		SET status = $2, error = $3, recording_url = $4, duration_sec = $5,
		    started_at = $6, finished_at = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		call.ID,
		call.Status,
		nullString(call.Error),
		nullString(call.RecordingURL),
		call.DurationSec,
		call.StartedAt,
		call.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update call: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Transcripts ---

// CreateTranscript сохраняет расшифровку звонка.
// Дубликат по call_id возвращает ErrAlreadyExists: pipeline полагается
// на это при повторной доставке job.completed.
func (r *CallRepo) CreateTranscript(ctx context.Context, t *domain.Transcript) error {
	query := `
		INSERT INTO transcripts (id, call_id, text, language, model, redacted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		t.ID,
		t.CallID,
		t.Text,
		nullString(t.Language),
		nullString(t.Model),
		t.Redacted,
		t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

// GetTranscriptByCallID возвращает расшифровку звонка.
func (r *CallRepo) GetTranscriptByCallID(ctx context.Context, callID uuid.UUID) (*domain.Transcript, error) {
	query := `
		SELECT id, call_id, text, language, model, redacted, created_at
		FROM transcripts
		WHERE call_id = $1
	`
	var t domain.Transcript
	var language, model *string

	err := r.pool.QueryRow(ctx, query, callID).Scan(
		&t.ID, &t.CallID, &t.Text, &language, &model, &t.Redacted, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}

	if language != nil {
		t.Language = *language
	}
	if model != nil {
		t.Model = *model
	}
	return &t, nil
}

// UpdateTranscript обновляет расшифровку (redaction).
func (r *CallRepo) UpdateTranscript(ctx context.Context, t *domain.Transcript) error {
	query := `UPDATE transcripts SET text = $2, redacted = $3 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, t.ID, t.Text, t.Redacted)
	if err != nil {
		return fmt.Errorf("update transcript: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RedactByOrg затирает все расшифровки и extractions организации (GDPR).
func (r *CallRepo) RedactByOrg(ctx context.Context, orgID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE transcripts SET text = '', redacted = true
		WHERE call_id IN (SELECT id FROM calls WHERE org_id = $1)
	`, orgID)
	if err != nil {
		return fmt.Errorf("redact transcripts: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE extractions SET fields = '{}', raw = NULL, redacted = true
		WHERE call_id IN (SELECT id FROM calls WHERE org_id = $1)
	`, orgID)
	if err != nil {
		return fmt.Errorf("redact extractions: %w", err)
	}
	return nil
}

// --- Extractions ---

// CreateExtraction сохраняет извлечённые поля.
// Дубликат по call_id возвращает ErrAlreadyExists, как CreateTranscript.
func (r *CallRepo) CreateExtraction(ctx context.Context, e *domain.Extraction) error {
	fieldsJSON, err := json.Marshal(e.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	var rawJSON []byte
	if e.Raw != nil {
		rawJSON, err = json.Marshal(e.Raw)
		if err != nil {
			return fmt.Errorf("marshal raw: %w", err)
		}
	}

	query := `
		INSERT INTO extractions (id, call_id, fields, confidence, raw, redacted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		e.ID,
		e.CallID,
		fieldsJSON,
		e.Confidence,
		rawJSON,
		e.Redacted,
		e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert extraction: %w", err)
	}
	return nil
}

// GetExtractionByCallID возвращает извлечённые поля звонка.
func (r *CallRepo) GetExtractionByCallID(ctx context.Context, callID uuid.UUID) (*domain.Extraction, error) {
	query := `
		SELECT id, call_id, fields, confidence, raw, redacted, created_at
		FROM extractions
		WHERE call_id = $1
	`
	var e domain.Extraction
	var fieldsJSON, rawJSON []byte

	err := r.pool.QueryRow(ctx, query, callID).Scan(
		&e.ID, &e.CallID, &fieldsJSON, &e.Confidence, &rawJSON, &e.Redacted, &e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan extraction: %w", err)
	}

	if fieldsJSON != nil {
		if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
	}
	if rawJSON != nil {
		if err := json.Unmarshal(rawJSON, &e.Raw); err != nil {
			return nil, fmt.Errorf("unmarshal raw: %w", err)
		}
	}
	return &e, nil
}

// --- Helpers ---

// scanCall сканирует одну строку в Call.
func (r *CallRepo) scanCall(row pgx.Row) (*domain.Call, error) {
	var call domain.Call
	var recordingURL, callError *string

	err := row.Scan(
		&call.ID,
		&call.OrgID,
		&call.Direction,
		&call.FromNumber,
		&call.ToNumber,
		&call.ProviderCallSID,
		&recordingURL,
		&call.DurationSec,
		&call.Status,
		&callError,
		&call.StartedAt,
		&call.FinishedAt,
		&call.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan call: %w", err)
	}

	if recordingURL != nil {
		call.RecordingURL = *recordingURL
	}
	if callError != nil {
		call.Error = *callError
	}
	return &call, nil
}

// scanCallFromRows сканирует строку из rows в Call.
func (r *CallRepo) scanCallFromRows(rows pgx.Rows) (*domain.Call, error) {
	var call domain.Call
	var recordingURL, callError *string

	err := rows.Scan(
		&call.ID,
		&call.OrgID,
		&call.Direction,
		&call.FromNumber,
		&call.ToNumber,
		&call.ProviderCallSID,
		&recordingURL,
		&call.DurationSec,
		&call.Status,
		&callError,
		&call.StartedAt,
		&call.FinishedAt,
		&call.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan call: %w", err)
	}

	if recordingURL != nil {
		call.RecordingURL = *recordingURL
	}
	if callError != nil {
		call.Error = *callError
	}
	return &call, nil
}
