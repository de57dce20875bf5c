package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "transcripts_call_id_key"}

	if !isUniqueViolation(unique) {
		t.Error("23505 must be recognized as unique violation")
	}

	// Обёрнутая ошибка тоже должна распознаваться
	wrapped := fmt.Errorf("insert transcript: %w", unique)
	if !isUniqueViolation(wrapped) {
		t.Error("wrapped 23505 must be recognized as unique violation")
	}

	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Error("plain error is not a unique violation")
	}
	if isUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
}
