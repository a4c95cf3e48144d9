package herd

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/vimacontrol/internal/domain/models"
	"github.com/mamadbah2/vimacontrol/internal/service/auth"
	"github.com/mamadbah2/vimacontrol/internal/store/memory"
)

// Full pass through the farmer's first day: register, add an animal, record
// milk, read the dashboard.
func TestRegisterAndManageScenario(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	authSvc := auth.NewService(s, bcrypt.MinCost, nil)
	herdSvc := NewService(s, nil)
	herdSvc.now = func() time.Time { return time.Date(2024, time.October, 1, 12, 0, 0, 0, time.UTC) }

	session, err := authSvc.Register(ctx, "Ana", "ana@x.com", "p1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	cow, err := herdSvc.SaveCow(ctx, session.ID, CowForm{Tag: "7", Name: "Bela", Breed: "Jersey", Status: models.StatusHealthy, Weight: 450})
	if err != nil {
		t.Fatalf("save cow: %v", err)
	}

	if _, err := herdSvc.RecordProduction(ctx, session.ID, cow.ID, 18); err != nil {
		t.Fatalf("record production: %v", err)
	}

	stats, err := herdSvc.Dashboard(ctx, session.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	want := models.DashboardStats{TotalCows: 1, TotalMilkToday: 18, CowsInTreatment: 0, AverageProduction: 18}
	if stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}
}
