package usage

import (
	"testing"

	"github.com/shaiso/Freightline/internal/domain"
	"github.com/shopspring/decimal"
)

func testPeriod(included, used int) *domain.UsagePeriod {
	return &domain.UsagePeriod{
		IncludedMinutes: included,
		UsedMinutes:     used,
		Status:          domain.PeriodStatusOpen,
	}
}

// --- Evaluate Tests ---

func TestEvaluate_WithinPlan(t *testing.T) {
	d := Evaluate(testPeriod(300, 100), domain.PlanStarter, 10, 5)

	if !d.Allowed {
		t.Fatalf("expected allowed, got denied: %s", d.Reason)
	}
	if d.ProjectedUsedMinutes != 115 {
		t.Errorf("expected projected 115, got %d", d.ProjectedUsedMinutes)
	}
	if d.ProjectedOverageMinutes != 0 {
		t.Errorf("expected no overage, got %d", d.ProjectedOverageMinutes)
	}
	if !d.ProjectedCharge.IsZero() {
		t.Errorf("expected zero charge, got %s", d.ProjectedCharge)
	}
}

func TestEvaluate_OverageWithinCap(t *testing.T) {
	// 290 used + 5 pending + 10 estimate = 305, overage 5 minutes = $1.00
	d := Evaluate(testPeriod(300, 290), domain.PlanStarter, 5, 10)

	if !d.Allowed {
		t.Fatalf("expected allowed, got denied: %s", d.Reason)
	}
	if d.ProjectedOverageMinutes != 5 {
		t.Errorf("expected overage 5, got %d", d.ProjectedOverageMinutes)
	}
	want := decimal.RequireFromString("1.00")
	if !d.ProjectedCharge.Equal(want) {
		t.Errorf("expected charge %s, got %s", want, d.ProjectedCharge)
	}
}

func TestEvaluate_ExactlyAtChargeCap(t *testing.T) {
	// overage exactly 100 minutes = $20.00: both caps inclusive
	d := Evaluate(testPeriod(300, 390), domain.PlanStarter, 0, 10)

	if !d.Allowed {
		t.Fatalf("expected allowed at exact cap, got denied: %s", d.Reason)
	}
	if d.ProjectedOverageMinutes != 100 {
		t.Errorf("expected overage 100, got %d", d.ProjectedOverageMinutes)
	}
	if !d.ProjectedCharge.Equal(ChargeCap) {
		t.Errorf("expected charge %s, got %s", ChargeCap, d.ProjectedCharge)
	}
}

func TestEvaluate_DeniedOverMinutesCap(t *testing.T) {
	// overage 101 minutes — over the minutes cap
	d := Evaluate(testPeriod(300, 391), domain.PlanStarter, 0, 10)

	if d.Allowed {
		t.Fatal("expected denial over minutes cap")
	}
	if d.Reason == "" {
		t.Error("denial should carry a reason")
	}
}

func TestEvaluate_PendingMinutesCountTowardProjection(t *testing.T) {
	// used 350 + pending 45 + estimate 10 = 405, overage 105 — denied.
	// Without pending it would pass: the guard must count in-flight work.
	d := Evaluate(testPeriod(300, 350), domain.PlanStarter, 45, 10)
	if d.Allowed {
		t.Fatal("expected denial when pending minutes push over the cap")
	}

	d = Evaluate(testPeriod(300, 350), domain.PlanStarter, 0, 10)
	if !d.Allowed {
		t.Fatalf("expected allowed without pending, got: %s", d.Reason)
	}
}

func TestEvaluate_ZeroEstimate(t *testing.T) {
	d := Evaluate(testPeriod(300, 0), domain.PlanStarter, 0, 0)
	if !d.Allowed {
		t.Fatalf("expected allowed for zero estimate, got: %s", d.Reason)
	}
}

// TestEvaluate_AdmitImpliesChargeUnderCap — основной инвариант guard'а:
// Allowed == true ⇒ ProjectedCharge ≤ ChargeCap и overage ≤ OverageMinutesCap.
func TestEvaluate_AdmitImpliesChargeUnderCap(t *testing.T) {
	plans := []domain.Plan{domain.PlanStarter, domain.PlanPro, domain.PlanEnterprise}

	for _, plan := range plans {
		for used := 0; used <= plan.IncludedMinutes+200; used += 7 {
			for pending := 0; pending <= 60; pending += 13 {
				for estimate := 0; estimate <= 45; estimate += 9 {
					d := Evaluate(testPeriod(plan.IncludedMinutes, used), plan, pending, estimate)
					if !d.Allowed {
						continue
					}
					if d.ProjectedCharge.GreaterThan(ChargeCap) {
						t.Fatalf("plan=%s used=%d pending=%d estimate=%d: admitted with charge %s > cap %s",
							plan.ID, used, pending, estimate, d.ProjectedCharge, ChargeCap)
					}
					if d.ProjectedOverageMinutes > OverageMinutesCap {
						t.Fatalf("plan=%s used=%d pending=%d estimate=%d: admitted with overage %d > cap %d",
							plan.ID, used, pending, estimate, d.ProjectedOverageMinutes, OverageMinutesCap)
					}
				}
			}
		}
	}
}

// --- ApplyUsage Tests ---

func TestApplyUsage_NoOverage(t *testing.T) {
	period := testPeriod(300, 100)

	ApplyUsage(period, 50, domain.PlanStarter.OverageRatePerMinute)

	if period.UsedMinutes != 150 {
		t.Errorf("expected used 150, got %d", period.UsedMinutes)
	}
	if period.OverageMinutes != 0 {
		t.Errorf("expected overage 0, got %d", period.OverageMinutes)
	}
	if !period.OverageCharge.IsZero() {
		t.Errorf("expected zero charge, got %s", period.OverageCharge)
	}
}

func TestApplyUsage_CrossingIntoOverage(t *testing.T) {
	period := testPeriod(300, 295)

	ApplyUsage(period, 10, domain.PlanStarter.OverageRatePerMinute)

	if period.OverageMinutes != 5 {
		t.Errorf("expected overage 5, got %d", period.OverageMinutes)
	}
	want := decimal.RequireFromString("1.00")
	if !period.OverageCharge.Equal(want) {
		t.Errorf("expected charge %s, got %s", want, period.OverageCharge)
	}
}

func TestApplyUsage_ChargeClampedAtCap(t *testing.T) {
	// Actual minutes blew past the estimate: billed charge still clamps at cap.
	period := testPeriod(300, 380)

	ApplyUsage(period, 60, domain.PlanStarter.OverageRatePerMinute)

	if period.OverageMinutes != 140 {
		t.Errorf("expected overage 140, got %d", period.OverageMinutes)
	}
	if !period.OverageCharge.Equal(ChargeCap) {
		t.Errorf("expected charge clamped to %s, got %s", ChargeCap, period.OverageCharge)
	}
}

func TestApplyUsage_Accumulates(t *testing.T) {
	period := testPeriod(300, 0)

	ApplyUsage(period, 100, domain.PlanStarter.OverageRatePerMinute)
	ApplyUsage(period, 150, domain.PlanStarter.OverageRatePerMinute)
	ApplyUsage(period, 60, domain.PlanStarter.OverageRatePerMinute)

	if period.UsedMinutes != 310 {
		t.Errorf("expected used 310, got %d", period.UsedMinutes)
	}
	if period.OverageMinutes != 10 {
		t.Errorf("expected overage 10, got %d", period.OverageMinutes)
	}
	want := decimal.RequireFromString("2.00")
	if !period.OverageCharge.Equal(want) {
		t.Errorf("expected charge %s, got %s", want, period.OverageCharge)
	}
}
