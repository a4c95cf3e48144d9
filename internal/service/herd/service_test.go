package herd

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mamadbah2/vimacontrol/internal/domain/models"
	"github.com/mamadbah2/vimacontrol/internal/store"
	"github.com/mamadbah2/vimacontrol/internal/store/memory"
)

const testUserID = "user-1"

func newTestService() (*Service, *memory.Store) {
	s := memory.New()
	svc := NewService(s, nil)
	svc.now = func() time.Time { return time.Date(2024, time.October, 1, 12, 0, 0, 0, time.UTC) }
	return svc, s
}

func mustSaveCow(t *testing.T, svc *Service, form CowForm) models.Cow {
	t.Helper()
	cow, err := svc.SaveCow(context.Background(), testUserID, form)
	if err != nil {
		t.Fatalf("save cow: %v", err)
	}
	return cow
}

func TestSaveCowAllocatesIDAndEmptyLists(t *testing.T) {
	svc, _ := newTestService()

	cow := mustSaveCow(t, svc, CowForm{Tag: "7", Name: "Bela", Breed: "Jersey", Status: models.StatusHealthy, Weight: 450})
	if cow.ID == "" {
		t.Fatalf("expected a generated id")
	}
	if cow.Production == nil || len(cow.Production) != 0 {
		t.Fatalf("expected empty production list, got %+v", cow.Production)
	}
	if cow.ManagementEvents == nil || len(cow.ManagementEvents) != 0 {
		t.Fatalf("expected empty event list, got %+v", cow.ManagementEvents)
	}
}

func TestSaveCowMergeKeepsNestedRecords(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cow := mustSaveCow(t, svc, CowForm{Tag: "7", Name: "Bela", Status: models.StatusHealthy})
	if _, err := svc.RecordProduction(ctx, testUserID, cow.ID, 18); err != nil {
		t.Fatalf("record production: %v", err)
	}

	updated := mustSaveCow(t, svc, CowForm{ID: cow.ID, Tag: "7", Name: "Bela", Status: models.StatusPregnant, Weight: 460})
	if updated.Status != models.StatusPregnant || updated.Weight != 460 {
		t.Fatalf("fields not merged: %+v", updated)
	}
	if len(updated.Production) != 1 {
		t.Fatalf("merge must keep the production history, got %+v", updated.Production)
	}

	cows, err := svc.ListCows(ctx, testUserID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cows) != 1 {
		t.Fatalf("merge must not duplicate the cow, got %d", len(cows))
	}
}

func TestDeleteCowCascadesAndIsIdempotent(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()

	cow := mustSaveCow(t, svc, CowForm{Name: "Bela"})
	other := mustSaveCow(t, svc, CowForm{Name: "Mimosa"})
	if _, err := svc.RecordProduction(ctx, testUserID, cow.ID, 18); err != nil {
		t.Fatalf("record production: %v", err)
	}

	if err := svc.DeleteCow(ctx, testUserID, cow.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	raw, _, _ := s.Get(ctx, store.HerdKey(testUserID))
	var persisted []models.Cow
	if err := json.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("decode herd: %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID != other.ID {
		t.Fatalf("expected exactly the other cow to survive, got %+v", persisted)
	}

	// Nested records are physically gone with their owner.
	if _, err := svc.GetCow(ctx, testUserID, cow.ID); !errors.Is(err, ErrCowNotFound) {
		t.Fatalf("expected ErrCowNotFound, got %v", err)
	}

	if err := svc.DeleteCow(ctx, testUserID, "does-not-exist"); err != nil {
		t.Fatalf("deleting an unknown id must be a no-op, got %v", err)
	}
}

func TestRecordProductionLastWriteWins(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cow := mustSaveCow(t, svc, CowForm{Name: "Bela"})
	if _, err := svc.RecordProduction(ctx, testUserID, cow.ID, 15); err != nil {
		t.Fatalf("first record: %v", err)
	}
	updated, err := svc.RecordProduction(ctx, testUserID, cow.ID, 18)
	if err != nil {
		t.Fatalf("second record: %v", err)
	}

	if len(updated.Production) != 1 {
		t.Fatalf("expected exactly one record for today, got %+v", updated.Production)
	}
	if updated.Production[0].Date != "01/10" || updated.Production[0].Liters != 18 {
		t.Fatalf("expected later value to win under key 01/10, got %+v", updated.Production[0])
	}
}

func TestDeleteProductionByDate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cow := mustSaveCow(t, svc, CowForm{Name: "Bela"})
	if _, err := svc.RecordProduction(ctx, testUserID, cow.ID, 18); err != nil {
		t.Fatalf("record: %v", err)
	}

	updated, err := svc.DeleteProduction(ctx, testUserID, cow.ID, "01/10")
	if err != nil {
		t.Fatalf("delete production: %v", err)
	}
	if len(updated.Production) != 0 {
		t.Fatalf("expected no records left, got %+v", updated.Production)
	}

	if _, err := svc.DeleteProduction(ctx, testUserID, cow.ID, "02/10"); err != nil {
		t.Fatalf("deleting an absent date must be a no-op, got %v", err)
	}
}

func TestEventUpsertAndDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cow := mustSaveCow(t, svc, CowForm{Name: "Bela"})

	withEvent, err := svc.SaveEvent(ctx, testUserID, cow.ID, EventForm{Type: models.EventVaccine, Name: "Febre Aftosa", StartDate: "2024-10-01", NextDate: "2025-04-01"})
	if err != nil {
		t.Fatalf("save event: %v", err)
	}
	if len(withEvent.ManagementEvents) != 1 || withEvent.ManagementEvents[0].ID == "" {
		t.Fatalf("expected one event with a generated id, got %+v", withEvent.ManagementEvents)
	}

	eventID := withEvent.ManagementEvents[0].ID
	renamed, err := svc.SaveEvent(ctx, testUserID, cow.ID, EventForm{ID: eventID, Type: models.EventVaccine, Name: "Brucelose", StartDate: "2024-10-01"})
	if err != nil {
		t.Fatalf("update event: %v", err)
	}
	if len(renamed.ManagementEvents) != 1 || renamed.ManagementEvents[0].Name != "Brucelose" {
		t.Fatalf("expected in-place event update, got %+v", renamed.ManagementEvents)
	}

	cleared, err := svc.DeleteEvent(ctx, testUserID, cow.ID, eventID)
	if err != nil {
		t.Fatalf("delete event: %v", err)
	}
	if len(cleared.ManagementEvents) != 0 {
		t.Fatalf("expected no events left, got %+v", cleared.ManagementEvents)
	}
}

func TestDashboardOnEmptyHerd(t *testing.T) {
	svc, _ := newTestService()

	stats, err := svc.Dashboard(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !reflect.DeepEqual(stats, models.DashboardStats{}) {
		t.Fatalf("expected all-zero stats on an empty herd, got %+v", stats)
	}
}

func TestDashboardCowWithoutProductionCountsZero(t *testing.T) {
	svc, _ := newTestService()

	mustSaveCow(t, svc, CowForm{Name: "Bela", Status: models.StatusHealthy})

	stats, err := svc.Dashboard(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if stats.TotalCows != 1 || stats.AverageProduction != 0 {
		t.Fatalf("a cow without records must contribute 0, got %+v", stats)
	}
}

func TestDashboardAverageIsMeanOfPerCowMeans(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Cow A: mean 20 over two records, today's record 18.
	cowA := mustSaveCow(t, svc, CowForm{Name: "Bela", Status: models.StatusInTreatment})
	seedProduction(t, svc, ctx, cowA.ID, []models.ProductionRecord{{Date: "30/09", Liters: 22}, {Date: "01/10", Liters: 18}})

	// Cow B: a single old record, mean 10, nothing today.
	cowB := mustSaveCow(t, svc, CowForm{Name: "Mimosa", Status: models.StatusLactating})
	seedProduction(t, svc, ctx, cowB.ID, []models.ProductionRecord{{Date: "29/09", Liters: 10}})

	stats, err := svc.Dashboard(ctx, testUserID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if stats.TotalCows != 2 {
		t.Fatalf("expected 2 cows, got %d", stats.TotalCows)
	}
	if stats.TotalMilkToday != 18 {
		t.Fatalf("expected 18 liters today, got %v", stats.TotalMilkToday)
	}
	if stats.CowsInTreatment != 1 {
		t.Fatalf("expected 1 cow in treatment, got %d", stats.CowsInTreatment)
	}
	// (20 + 10) / 2, not (22+18+10)/3: every cow weighs equally.
	if stats.AverageProduction != 15 {
		t.Fatalf("expected mean-of-means 15, got %v", stats.AverageProduction)
	}
}

func TestFilterHerd(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	mustSaveCow(t, svc, CowForm{Tag: "1024", Name: "Mimosa"})
	mustSaveCow(t, svc, CowForm{Tag: "7", Name: "Bela"})
	mustSaveCow(t, svc, CowForm{Tag: "77", Name: "Belinha"})

	byName, err := svc.ListCows(ctx, testUserID, "BEL")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byName) != 2 || byName[0].Name != "Bela" || byName[1].Name != "Belinha" {
		t.Fatalf("expected case-insensitive name matches in original order, got %+v", byName)
	}

	byTag, err := svc.ListCows(ctx, testUserID, "102")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byTag) != 1 || byTag[0].Name != "Mimosa" {
		t.Fatalf("expected tag substring match, got %+v", byTag)
	}
}

func TestHerdPersistenceRoundTrip(t *testing.T) {
	svc, s := newTestService()
	ctx := context.Background()

	saved := mustSaveCow(t, svc, CowForm{Tag: "1024", Name: "Mimosa", Breed: "Holandesa", Status: models.StatusLactating, BirthDate: "2020-05-15", Weight: 580})
	if _, err := svc.RecordProduction(ctx, testUserID, saved.ID, 22); err != nil {
		t.Fatalf("record production: %v", err)
	}
	withEvent, err := svc.SaveEvent(ctx, testUserID, saved.ID, EventForm{Type: models.EventUltrasound, Name: "Gestação", StartDate: "2024-10-01", NextDate: "2024-11-01"})
	if err != nil {
		t.Fatalf("save event: %v", err)
	}

	// Reload through a fresh service over the same store.
	reloaded, err := NewService(s, nil).GetCow(ctx, testUserID, saved.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(withEvent, reloaded) {
		t.Fatalf("round trip mismatch:\nsaved    %+v\nreloaded %+v", withEvent, reloaded)
	}
}

func seedProduction(t *testing.T, svc *Service, ctx context.Context, cowID string, records []models.ProductionRecord) {
	t.Helper()
	for _, r := range records {
		date := r.Date
		svc.now = func() time.Time {
			parsed, err := time.Parse("02/01", date)
			if err != nil {
				t.Fatalf("bad seed date %q: %v", date, err)
			}
			return parsed
		}
		if _, err := svc.RecordProduction(ctx, testUserID, cowID, r.Liters); err != nil {
			t.Fatalf("seed production: %v", err)
		}
	}
	svc.now = func() time.Time { return time.Date(2024, time.October, 1, 12, 0, 0, 0, time.UTC) }
}
