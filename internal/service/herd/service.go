package herd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/vimacontrol/internal/domain/models"
	"github.com/mamadbah2/vimacontrol/internal/store"
)

// ErrCowNotFound indicates the requested cow is not part of the herd.
var ErrCowNotFound = errors.New("cow not found")

// productionDateLayout is the "DD/MM" display key used for daily records.
const productionDateLayout = "02/01"

// CowForm carries the editable animal fields. An empty ID requests a new
// record; a set ID replaces the matching cow's fields while keeping its
// nested production and event lists.
type CowForm struct {
	ID        string           `json:"id"`
	Tag       string           `json:"tag"`
	Name      string           `json:"name"`
	Breed     string           `json:"breed"`
	Status    models.CowStatus `json:"status"`
	BirthDate string           `json:"birthDate"`
	Weight    float64          `json:"weight"`
}

// EventForm carries the editable management event fields, with the same
// id-presence upsert semantics as CowForm.
type EventForm struct {
	ID        string           `json:"id"`
	Type      models.EventType `json:"type"`
	Name      string           `json:"name"`
	StartDate string           `json:"startDate"`
	NextDate  string           `json:"nextDate"`
}

// Service is the herd CRUD controller. Every mutation loads the owning
// user's full cow list, edits it in memory and persists the whole collection
// back, matching the one-writer model of the record store.
type Service struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the herd service.
func NewService(s store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, logger: logger, now: time.Now}
}

// ListCows returns the user's herd, optionally filtered by query: a
// case-insensitive substring match on the cow name, or a raw substring match
// on the ear tag. Order is preserved.
func (s *Service) ListCows(ctx context.Context, userID, query string) ([]models.Cow, error) {
	cows, err := s.loadHerd(ctx, userID)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return cows, nil
	}

	lowered := strings.ToLower(query)
	filtered := make([]models.Cow, 0, len(cows))
	for _, c := range cows {
		if strings.Contains(strings.ToLower(c.Name), lowered) || strings.Contains(c.Tag, query) {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// GetCow returns one cow by id.
func (s *Service) GetCow(ctx context.Context, userID, cowID string) (models.Cow, error) {
	cows, err := s.loadHerd(ctx, userID)
	if err != nil {
		return models.Cow{}, err
	}
	for _, c := range cows {
		if c.ID == cowID {
			return c, nil
		}
	}
	return models.Cow{}, ErrCowNotFound
}

// SaveCow upserts an animal. A form without an id allocates a fresh one and
// starts with empty production and event lists; a form with an id replaces
// the editable fields of the matching cow.
func (s *Service) SaveCow(ctx context.Context, userID string, form CowForm) (models.Cow, error) {
	cows, err := s.loadHerd(ctx, userID)
	if err != nil {
		return models.Cow{}, err
	}

	cow := models.Cow{
		ID:               form.ID,
		Tag:              form.Tag,
		Name:             form.Name,
		Breed:            form.Breed,
		Status:           form.Status,
		BirthDate:        form.BirthDate,
		Weight:           form.Weight,
		Production:       []models.ProductionRecord{},
		ManagementEvents: []models.ManagementEvent{},
	}

	if form.ID == "" {
		cow.ID = uuid.NewString()
	} else {
		for _, existing := range cows {
			if existing.ID == form.ID {
				cow.Production = existing.Production
				cow.ManagementEvents = existing.ManagementEvents
				break
			}
		}
	}

	cows = models.UpsertByID(cows, cow)
	if err := s.saveHerd(ctx, userID, cows); err != nil {
		return models.Cow{}, err
	}

	s.logger.Debug("cow saved", zap.String("user_id", userID), zap.String("cow_id", cow.ID))
	return cow, nil
}

// DeleteCow removes an animal and its nested records. Deleting an unknown id
// is a no-op.
func (s *Service) DeleteCow(ctx context.Context, userID, cowID string) error {
	cows, err := s.loadHerd(ctx, userID)
	if err != nil {
		return err
	}

	cows = models.RemoveByID(cows, cowID)
	return s.saveHerd(ctx, userID, cows)
}

// RecordProduction records today's milk yield for a cow. A record already
// carrying today's key is replaced, so the later value wins and the cow keeps
// at most one entry per day. Liters are deliberately not range-checked.
func (s *Service) RecordProduction(ctx context.Context, userID, cowID string, liters float64) (models.Cow, error) {
	today := s.now().Format(productionDateLayout)

	return s.updateCow(ctx, userID, cowID, func(cow *models.Cow) {
		kept := make([]models.ProductionRecord, 0, len(cow.Production)+1)
		for _, p := range cow.Production {
			if p.Date != today {
				kept = append(kept, p)
			}
		}
		cow.Production = append(kept, models.ProductionRecord{Date: today, Liters: liters})
	})
}

// DeleteProduction removes the production record carrying the given date key.
// Deletion is keyed by date rather than list position so a stale view cannot
// remove the wrong entry.
func (s *Service) DeleteProduction(ctx context.Context, userID, cowID, date string) (models.Cow, error) {
	return s.updateCow(ctx, userID, cowID, func(cow *models.Cow) {
		kept := make([]models.ProductionRecord, 0, len(cow.Production))
		for _, p := range cow.Production {
			if p.Date != date {
				kept = append(kept, p)
			}
		}
		cow.Production = kept
	})
}

// SaveEvent upserts a management event within a cow, with the same
// id-presence semantics as SaveCow.
func (s *Service) SaveEvent(ctx context.Context, userID, cowID string, form EventForm) (models.Cow, error) {
	event := models.ManagementEvent{
		ID:        form.ID,
		Type:      form.Type,
		Name:      form.Name,
		StartDate: form.StartDate,
		NextDate:  form.NextDate,
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	return s.updateCow(ctx, userID, cowID, func(cow *models.Cow) {
		cow.ManagementEvents = models.UpsertByID(cow.ManagementEvents, event)
	})
}

// DeleteEvent removes a management event by id. Removing an unknown id is a
// no-op.
func (s *Service) DeleteEvent(ctx context.Context, userID, cowID, eventID string) (models.Cow, error) {
	return s.updateCow(ctx, userID, cowID, func(cow *models.Cow) {
		cow.ManagementEvents = models.RemoveByID(cow.ManagementEvents, eventID)
	})
}

// Dashboard derives the herd aggregates. AverageProduction is the mean of
// each cow's own mean liters, rounded to one decimal: every cow weighs
// equally regardless of record count, and a cow without records contributes 0.
func (s *Service) Dashboard(ctx context.Context, userID string) (models.DashboardStats, error) {
	cows, err := s.loadHerd(ctx, userID)
	if err != nil {
		return models.DashboardStats{}, err
	}

	today := s.now().Format(productionDateLayout)
	stats := models.DashboardStats{TotalCows: len(cows)}

	var meanSum float64
	for _, c := range cows {
		for _, p := range c.Production {
			if p.Date == today {
				stats.TotalMilkToday += p.Liters
			}
		}
		if c.Status == models.StatusInTreatment {
			stats.CowsInTreatment++
		}
		if len(c.Production) > 0 {
			var total float64
			for _, p := range c.Production {
				total += p.Liters
			}
			meanSum += total / float64(len(c.Production))
		}
	}

	if len(cows) > 0 {
		stats.AverageProduction = math.Round(meanSum/float64(len(cows))*10) / 10
	}

	return stats, nil
}

// updateCow applies mutate to the matching cow and persists the whole herd.
// An unknown cow id is a silent no-op, matching the delete semantics.
func (s *Service) updateCow(ctx context.Context, userID, cowID string, mutate func(*models.Cow)) (models.Cow, error) {
	cows, err := s.loadHerd(ctx, userID)
	if err != nil {
		return models.Cow{}, err
	}

	var updated models.Cow
	for i := range cows {
		if cows[i].ID != cowID {
			continue
		}
		mutate(&cows[i])
		updated = cows[i]
	}

	if err := s.saveHerd(ctx, userID, cows); err != nil {
		return models.Cow{}, err
	}
	return updated, nil
}

func (s *Service) loadHerd(ctx context.Context, userID string) ([]models.Cow, error) {
	raw, ok, err := s.store.Get(ctx, store.HerdKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load herd: %w", err)
	}
	if !ok {
		return []models.Cow{}, nil
	}

	var cows []models.Cow
	if err := json.Unmarshal(raw, &cows); err != nil {
		return nil, fmt.Errorf("decode herd: %w", err)
	}
	return cows, nil
}

func (s *Service) saveHerd(ctx context.Context, userID string, cows []models.Cow) error {
	raw, err := json.Marshal(cows)
	if err != nil {
		return fmt.Errorf("encode herd: %w", err)
	}
	if err := s.store.Set(ctx, store.HerdKey(userID), raw); err != nil {
		return fmt.Errorf("persist herd: %w", err)
	}
	return nil
}
