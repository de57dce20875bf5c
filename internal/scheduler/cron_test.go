package scheduler

import (
	"testing"
	"time"
)

func TestNextPayout_MonthlySchedule(t *testing.T) {
	from := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	next, err := NextPayout("0 9 1 * *", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextPayout_EmptyUsesDefault(t *testing.T) {
	from := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	next, err := NextPayout("", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	withDefault, _ := NextPayout(DefaultPayoutSchedule, from)
	if !next.Equal(withDefault) {
		t.Errorf("empty schedule should use default: %v vs %v", next, withDefault)
	}
}

func TestNextPayout_Weekly(t *testing.T) {
	// Пятница 09:00; from — среда
	from := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	next, err := NextPayout("0 9 * * 5", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextPayout_InvalidExpr(t *testing.T) {
	if _, err := NextPayout("not a cron", time.Now()); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestValidateCronExpr(t *testing.T) {
	if err := ValidateCronExpr("0 9 1 * *"); err != nil {
		t.Errorf("valid expression rejected: %v", err)
	}
	if err := ValidateCronExpr("61 * * * *"); err == nil {
		t.Error("invalid expression accepted")
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{})

	if s.batchSize != 100 {
		t.Errorf("expected default batch size 100, got %d", s.batchSize)
	}
	if s.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
}
