package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"menu-planner/internal/core/menu"
	"menu-planner/internal/core/nutrition"
)

type fakeStore struct {
	bmi      []BMIEntry
	logs     map[string]MealLog
	foods    map[string]menu.Food
	replaced bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		logs:  map[string]MealLog{},
		foods: map[string]menu.Food{"f1": {ID: "f1", Name: "Avena", KcalPer100g: 389}},
	}
}

func (f *fakeStore) RecordBMI(ctx context.Context, e *BMIEntry) error {
	f.bmi = append(f.bmi, *e)
	return nil
}

func (f *fakeStore) ListBMIHistory(ctx context.Context, userID string, limit int) ([]BMIEntry, error) {
	var out []BMIEntry
	for i := len(f.bmi) - 1; i >= 0 && len(out) < limit; i-- {
		if f.bmi[i].UserID == userID {
			out = append(out, f.bmi[i])
		}
	}
	return out, nil
}

func (f *fakeStore) CreateMealLog(ctx context.Context, l *MealLog) error {
	f.logs[l.ID] = *l
	return nil
}

func (f *fakeStore) ListMealLogs(ctx context.Context, userID string, from, to time.Time) ([]MealLog, error) {
	var out []MealLog
	for _, l := range f.logs {
		if l.UserID == userID && !l.Date.Before(from) && l.Date.Before(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) GetMealLog(ctx context.Context, id string) (*MealLog, error) {
	l, ok := f.logs[id]
	if !ok {
		return nil, nil
	}
	l.Items = append([]MealItem(nil), l.Items...)
	return &l, nil
}

func (f *fakeStore) UpdateMealLog(ctx context.Context, l *MealLog, replaceItems bool) error {
	f.replaced = replaceItems
	f.logs[l.ID] = *l
	return nil
}

func (f *fakeStore) DeleteMealLog(ctx context.Context, id string) error {
	delete(f.logs, id)
	return nil
}

func (f *fakeStore) GetFood(ctx context.Context, id string) (*menu.Food, error) {
	if food, ok := f.foods[id]; ok {
		return &food, nil
	}
	return nil, nil
}

func newTestService(store *fakeStore) *Service {
	s := NewService(store, store, store, time.UTC)
	s.now = func() time.Time { return time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC) }
	return s
}

func kcal(v float64) *float64 { return &v }

func TestRecordBMI(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	ctx := context.Background()

	entry, err := s.RecordBMI(ctx, "u1", 70, 175)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if entry.BMI != 22.9 || entry.Category != nutrition.BMINormal {
		t.Errorf("Expected 22.9 normal, got %v %s", entry.BMI, entry.Category)
	}
	if len(store.bmi) != 1 || store.bmi[0].ID == "" {
		t.Errorf("Expected entry stored, got %+v", store.bmi)
	}

	t.Run("InvalidBody", func(t *testing.T) {
		_, err := s.RecordBMI(ctx, "u1", 0, 175)
		if !errors.Is(err, ErrInvalidBody) {
			t.Errorf("Expected ErrInvalidBody, got %v", err)
		}
		if len(store.bmi) != 1 {
			t.Errorf("Expected nothing stored, got %d entries", len(store.bmi))
		}
	})

	t.Run("HistoryCappedNewestFirst", func(t *testing.T) {
		for i := 0; i < HistoryLimit+5; i++ {
			if _, err := s.RecordBMI(ctx, "u1", 60+float64(i), 175); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
		}
		history, err := s.BMIHistory(ctx, "u1")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(history) != HistoryLimit {
			t.Fatalf("Expected %d entries, got %d", HistoryLimit, len(history))
		}
		if history[0].WeightKg != 60+float64(HistoryLimit+4) {
			t.Errorf("Expected newest first, got %v", history[0].WeightKg)
		}
	})

	t.Run("EmptyHistoryIsNotNil", func(t *testing.T) {
		history, err := s.BMIHistory(ctx, "nobody")
		if err != nil || history == nil || len(history) != 0 {
			t.Errorf("Expected empty slice, got %v, %v", history, err)
		}
	})
}

func TestLogMeal(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	log, err := s.LogMeal(ctx, "u1", MealInput{
		Date:     day.Add(8 * time.Hour),
		MealType: menu.SlotBreakfast,
		Items: []ItemInput{
			{FoodID: "f1", Quantity: 50},
			{CustomName: " Café ", Quantity: 1, Unit: "taza", EstimatedKcal: kcal(4.96)},
		},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if log.Items[0].EstimatedKcal != 194.5 || log.Items[0].FoodName != "Avena" || log.Items[0].Unit != "g" {
		t.Errorf("Unexpected food item %+v", log.Items[0])
	}
	if log.Items[1].CustomName != "Café" || log.Items[1].EstimatedKcal != 5 {
		t.Errorf("Unexpected custom item %+v", log.Items[1])
	}
	if log.TotalKcal != 199.5 {
		t.Errorf("Expected total 199.5, got %v", log.TotalKcal)
	}
	for _, it := range log.Items {
		if it.MealLogID != log.ID {
			t.Errorf("Expected item linked to %s, got %s", log.ID, it.MealLogID)
		}
	}

	t.Run("FoodKcalOverridesEstimate", func(t *testing.T) {
		l, err := s.LogMeal(ctx, "u1", MealInput{Date: day, MealType: menu.SlotSnack,
			Items: []ItemInput{{FoodID: "f1", Quantity: 100, EstimatedKcal: kcal(10)}}})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if l.Items[0].EstimatedKcal != 389 {
			t.Errorf("Expected 389, got %v", l.Items[0].EstimatedKcal)
		}
	})

	t.Run("UnknownFood", func(t *testing.T) {
		_, err := s.LogMeal(ctx, "u1", MealInput{Date: day, MealType: menu.SlotLunch,
			Items: []ItemInput{{FoodID: "missing", Quantity: 100}}})
		if !errors.Is(err, ErrFoodNotFound) {
			t.Errorf("Expected ErrFoodNotFound, got %v", err)
		}
	})

	t.Run("MealsOnDay", func(t *testing.T) {
		if _, err := s.LogMeal(ctx, "u1", MealInput{Date: day.AddDate(0, 0, 1), MealType: menu.SlotLunch}); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		logs, err := s.MealsOn(ctx, "u1", day.Add(20*time.Hour))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(logs) != 2 {
			t.Errorf("Expected 2 logs on %s, got %d", day.Format(time.DateOnly), len(logs))
		}
		logs, _ = s.MealsOn(ctx, "u2", day)
		if logs == nil || len(logs) != 0 {
			t.Errorf("Expected empty slice for another user, got %v", logs)
		}
	})
}

func TestUpdateMeal(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	setup := func() (*fakeStore, *Service, *MealLog) {
		store := newFakeStore()
		s := newTestService(store)
		log, err := s.LogMeal(context.Background(), "u1", MealInput{Date: day, MealType: menu.SlotLunch,
			Items: []ItemInput{{FoodID: "f1", Quantity: 100}}})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		return store, s, log
	}

	t.Run("MealTypeOnlyKeepsItems", func(t *testing.T) {
		store, s, log := setup()
		slot := menu.SlotDinner
		got, err := s.UpdateMeal(context.Background(), "u1", log.ID, MealPatch{MealType: &slot})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got.MealType != menu.SlotDinner || len(got.Items) != 1 || got.TotalKcal != 389 {
			t.Errorf("Unexpected log %+v", got)
		}
		if store.replaced {
			t.Error("Expected items kept")
		}
	})

	t.Run("ReplacesItems", func(t *testing.T) {
		store, s, log := setup()
		got, err := s.UpdateMeal(context.Background(), "u1", log.ID, MealPatch{
			Items: []ItemInput{{CustomName: "Sopa", Quantity: 1, Unit: "plato", EstimatedKcal: kcal(250)}},
		})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !store.replaced || len(got.Items) != 1 || got.TotalKcal != 250 || got.Items[0].MealLogID != log.ID {
			t.Errorf("Unexpected log %+v", got)
		}
	})

	t.Run("EmptyItemsClears", func(t *testing.T) {
		_, s, log := setup()
		got, err := s.UpdateMeal(context.Background(), "u1", log.ID, MealPatch{Items: []ItemInput{}})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(got.Items) != 0 || got.TotalKcal != 0 {
			t.Errorf("Expected no items, got %+v", got)
		}
	})

	t.Run("OtherUser", func(t *testing.T) {
		_, s, log := setup()
		_, err := s.UpdateMeal(context.Background(), "u2", log.ID, MealPatch{})
		if !errors.Is(err, ErrMealLogNotFound) {
			t.Errorf("Expected ErrMealLogNotFound, got %v", err)
		}
	})
}

func TestDeleteMeal(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	ctx := context.Background()
	log, _ := s.LogMeal(ctx, "u1", MealInput{Date: s.Today(), MealType: menu.SlotSnack})

	if err := s.DeleteMeal(ctx, "u2", log.ID); !errors.Is(err, ErrMealLogNotFound) {
		t.Errorf("Expected ErrMealLogNotFound, got %v", err)
	}
	if err := s.DeleteMeal(ctx, "u1", log.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(store.logs) != 0 {
		t.Errorf("Expected log deleted, got %d", len(store.logs))
	}
	if err := s.DeleteMeal(ctx, "u1", log.ID); !errors.Is(err, ErrMealLogNotFound) {
		t.Errorf("Expected ErrMealLogNotFound, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("MX", -6*3600)
	s := NewService(nil, nil, nil, loc)

	got, err := s.ParseDate("2026-03-02")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, loc)) {
		t.Errorf("Expected local midnight, got %v", got)
	}
	if _, err := s.ParseDate("2026-03-02T08:00:00Z"); err != nil {
		t.Errorf("Expected RFC3339 accepted, got %v", err)
	}
	if _, err := s.ParseDate("ayer"); err == nil {
		t.Error("Expected error for invalid date")
	}
}
