package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"menu-planner/internal/api/handlers/health"
	"menu-planner/internal/api/middleware"
	"menu-planner/internal/core/menu"
	"menu-planner/internal/core/tracking"
	"menu-planner/internal/infrastructure/config"
	"menu-planner/internal/infrastructure/database"
	"menu-planner/internal/infrastructure/lock"
	"menu-planner/internal/storage"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "menu.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := storage.New(db.SQL, time.UTC)
	generator := menu.NewGenerator(menu.Dependencies{
		Profiles: store,
		Pantry:   store,
		Catalog:  store,
		Plans:    store,
		Locker:   lock.NewMemoryLocker(),
		Selector: menu.NewSelector(menu.RandomFunc(func() float64 { return 0 }), menu.DefaultMatchThreshold),
		Calendar: menu.NewWeekCalendar(time.Sunday, time.UTC),
	})

	cfg := &config.Config{
		App:         config.AppConfig{Debug: true, Version: "test"},
		Server:      config.ServerConfig{MaxBodyBytes: 1 << 20},
		DedupWindow: time.Millisecond,
	}
	router, dedup, err := SetupRouter(cfg, Services{
		Store:     store,
		Generator: generator,
		Editor:    menu.NewEditor(store, store),
		Tracking:  tracking.NewService(store, store, store, time.UTC),
		Readiness: map[string]health.Pinger{"database": db},
	})
	if err != nil {
		t.Fatalf("SetupRouter failed: %v", err)
	}
	t.Cleanup(dedup.Close)
	return router
}

func call(t *testing.T, r *gin.Engine, method, path, user, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(middleware.UserIDHeader, user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: invalid body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func TestWeeklyMenuFlow(t *testing.T) {
	r := newTestRouter(t)

	if code := call(t, r, http.MethodGet, "/api/v1/menu/weekly", "", "", nil); code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without user, got %d", code)
	}

	var errBody struct {
		Error string `json:"error"`
	}
	if code := call(t, r, http.MethodPost, "/api/v1/menu/weekly/generate", "u1", "", &errBody); code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without profile, got %d", code)
	}
	if errBody.Error != "Perfil incompleto. Completa tu perfil primero." {
		t.Errorf("Unexpected message %q", errBody.Error)
	}

	profile := `{"weightKg":70,"heightCm":175,"age":30,"sex":"M","activity":"moderado","objective":"mantener"}`
	if code := call(t, r, http.MethodPut, "/api/v1/profile", "u1", profile, nil); code != http.StatusOK {
		t.Fatalf("Expected profile upsert to succeed, got %d", code)
	}

	for _, item := range []string{
		`{"customName":"Pollo","quantity":500,"unit":"g"}`,
		`{"customName":"Arroz","quantity":1000,"unit":"g"}`,
	} {
		if code := call(t, r, http.MethodPost, "/api/v1/pantry", "u1", item, nil); code != http.StatusOK {
			t.Fatalf("Expected pantry insert to succeed, got %d", code)
		}
	}

	var generated struct {
		Menu menu.Plan `json:"menu"`
	}
	if code := call(t, r, http.MethodPost, "/api/v1/menu/weekly/generate", "u1", "", &generated); code != http.StatusOK {
		t.Fatalf("Expected generate to succeed, got %d", code)
	}
	if len(generated.Menu.Days) != menu.DaysPerWeek {
		t.Fatalf("Expected 7 days, got %d", len(generated.Menu.Days))
	}
	for _, d := range generated.Menu.Days {
		if len(d.Meals) != len(menu.Slots) {
			t.Errorf("Expected 4 meals on %s, got %d", d.Date, len(d.Meals))
		}
	}

	var current struct {
		Menu *menu.Plan `json:"menu"`
	}
	call(t, r, http.MethodGet, "/api/v1/menu/weekly", "u1", "", &current)
	if current.Menu == nil || current.Menu.ID != generated.Menu.ID {
		t.Errorf("Expected current menu %s, got %+v", generated.Menu.ID, current.Menu)
	}

	call(t, r, http.MethodGet, "/api/v1/menu/weekly", "u2", "", &current)
	if current.Menu != nil {
		t.Errorf("Expected no menu for another user, got %+v", current.Menu)
	}

	day := generated.Menu.Days[0]
	edit := `{"meals":[{"id":"` + day.Meals[0].ID + `","title":"Desayuno propio","locked":true}]}`
	if code := call(t, r, http.MethodPut, "/api/v1/menu/day/"+day.ID, "u2", edit, nil); code != http.StatusForbidden {
		t.Errorf("Expected 403 for another user, got %d", code)
	}
	var edited struct {
		Day menu.Day `json:"day"`
	}
	if code := call(t, r, http.MethodPut, "/api/v1/menu/day/"+day.ID, "u1", edit, &edited); code != http.StatusOK {
		t.Fatalf("Expected day edit to succeed, got %d", code)
	}
	if edited.Day.Meals[0].Title != "Desayuno propio" || !edited.Day.Meals[0].Locked {
		t.Errorf("Expected edited meal, got %+v", edited.Day.Meals[0])
	}
}

func TestTrackingFlow(t *testing.T) {
	r := newTestRouter(t)

	profile := `{"weightKg":70,"heightCm":175,"age":30,"sex":"F","activity":"ligero","objective":"perder"}`
	if code := call(t, r, http.MethodPut, "/api/v1/profile", "u1", profile, nil); code != http.StatusOK {
		t.Fatalf("Expected profile upsert to succeed, got %d", code)
	}

	var calc struct {
		BMI float64 `json:"bmi"`
	}
	if code := call(t, r, http.MethodPost, "/api/v1/bmi/calculate", "u1", `{"weightKg":80,"heightCm":175}`, &calc); code != http.StatusOK {
		t.Fatalf("Expected bmi calculate to succeed, got %d", code)
	}
	if calc.BMI != 26.1 {
		t.Errorf("Expected 26.1, got %v", calc.BMI)
	}

	var got struct {
		Profile struct {
			BMI *float64 `json:"bmi"`
		} `json:"profile"`
		BMICategory string `json:"bmiCategory"`
	}
	call(t, r, http.MethodGet, "/api/v1/profile", "u1", "", &got)
	if got.Profile.BMI == nil || *got.Profile.BMI != 26.1 || got.BMICategory != "sobrepeso" {
		t.Errorf("Expected profile bmi 26.1 sobrepeso, got %v %q", got.Profile.BMI, got.BMICategory)
	}

	var history struct {
		History []tracking.BMIEntry `json:"history"`
	}
	call(t, r, http.MethodGet, "/api/v1/bmi/history", "u1", "", &history)
	if len(history.History) != 1 {
		t.Errorf("Expected 1 history entry, got %d", len(history.History))
	}

	var created struct {
		Food menu.Food `json:"food"`
	}
	if code := call(t, r, http.MethodPost, "/api/v1/foods", "u1", `{"name":"Tortilla de maíz","kcalPer100g":218}`, &created); code != http.StatusOK {
		t.Fatalf("Expected food create to succeed, got %d", code)
	}

	meal := `{"date":"2026-03-02","mealType":"lunch","items":[{"foodId":"` + created.Food.ID + `","quantity":60}]}`
	var logged struct {
		Meal tracking.MealLog `json:"meal"`
	}
	if code := call(t, r, http.MethodPost, "/api/v1/meals", "u1", meal, &logged); code != http.StatusOK {
		t.Fatalf("Expected meal log to succeed, got %d", code)
	}
	if logged.Meal.TotalKcal != 130.8 {
		t.Errorf("Expected 130.8 kcal, got %v", logged.Meal.TotalKcal)
	}

	var listed struct {
		Meals []tracking.MealLog `json:"meals"`
	}
	call(t, r, http.MethodGet, "/api/v1/meals?date=2026-03-02", "u1", "", &listed)
	if len(listed.Meals) != 1 || listed.Meals[0].Items[0].FoodName != "Tortilla de maíz" {
		t.Errorf("Expected logged meal with food name, got %+v", listed.Meals)
	}
	call(t, r, http.MethodGet, "/api/v1/meals?date=2026-03-02", "u2", "", &listed)
	if len(listed.Meals) != 0 {
		t.Errorf("Expected no meals for another user, got %d", len(listed.Meals))
	}

	path := "/api/v1/meals/" + logged.Meal.ID
	if code := call(t, r, http.MethodDelete, path, "u2", "", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404 for another user, got %d", code)
	}
	if code := call(t, r, http.MethodDelete, path, "u1", "", nil); code != http.StatusOK {
		t.Errorf("Expected delete to succeed, got %d", code)
	}
}

func TestHealthRoutes(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/health", "/ready", "/live"} {
		if code := call(t, r, http.MethodGet, path, "", "", nil); code != http.StatusOK {
			t.Errorf("Expected 200 for %s, got %d", path, code)
		}
	}
}
