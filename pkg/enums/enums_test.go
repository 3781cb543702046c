package enums

import "testing"

func TestParseSubscriptionStatus(t *testing.T) {
	status, err := ParseSubscriptionStatus("active")
	if err != nil || status != SubscriptionStatusActive {
		t.Fatalf("expected active, got %v (%v)", status, err)
	}
	if _, err := ParseSubscriptionStatus("canceled"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestParseCouponStatus(t *testing.T) {
	for _, raw := range []string{"active", "expired", "paused"} {
		status, err := ParseCouponStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !status.IsValid() {
			t.Fatalf("expected %q to be valid", raw)
		}
	}
	if _, err := ParseCouponStatus("archived"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestParseBillingCycle(t *testing.T) {
	cycle, err := ParseBillingCycle("yearly")
	if err != nil || cycle != BillingCycleYearly {
		t.Fatalf("expected yearly, got %v (%v)", cycle, err)
	}
	if BillingCycle("weekly").IsValid() {
		t.Fatalf("weekly should not be valid")
	}
}
