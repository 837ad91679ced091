package main

import (
	"testing"
	"time"

	"github.com/matricula/matricula/internal/model"
)

func TestSeedRequests(t *testing.T) {
	today := model.NewDate(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	reqs := seedRequests(60, today)
	if len(reqs) != 60 {
		t.Fatalf("len = %d", len(reqs))
	}

	seen := map[string]bool{}
	for _, r := range reqs {
		if seen[r.Name] || seen[r.Contact] {
			t.Fatalf("duplicate seed entry %+v", r)
		}
		seen[r.Name], seen[r.Contact] = true, true

		if !r.PaymentMethod.Valid() {
			t.Errorf("invalid payment method %q", r.PaymentMethod)
		}
		if len(r.Phone) < 8 || len(r.Phone) > 20 {
			t.Errorf("phone %q out of range", r.Phone)
		}
		if r.PlanEndDate != "" && r.PlanEndDate < r.EnrollmentDate {
			t.Errorf("plan ends before enrollment: %+v", r)
		}
	}
	if reqs[0].PlanEndDate != "" || reqs[1].PlanEndDate == "" {
		t.Fatal("every third student should have an open-ended plan")
	}
}
