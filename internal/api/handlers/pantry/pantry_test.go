package pantry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"menu-planner/internal/api/middleware"
	"menu-planner/internal/core/menu"
	"menu-planner/internal/infrastructure/config"
	"menu-planner/internal/storage"

	"github.com/gin-gonic/gin"
)

type fakeStore struct {
	entries []menu.PantryEntry
	foods   map[string]menu.Food
	patch   storage.PantryPatch
}

func (f *fakeStore) ListPantryNewestFirst(ctx context.Context, userID string) ([]menu.PantryEntry, error) {
	var out []menu.PantryEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].UserID == userID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeStore) CreatePantryEntry(ctx context.Context, e *menu.PantryEntry) (*menu.PantryEntry, error) {
	e.ID = "new"
	if e.FoodID != "" {
		e.FoodName = f.foods[e.FoodID].Name
	}
	f.entries = append(f.entries, *e)
	return e, nil
}

func (f *fakeStore) UpdatePantryEntry(ctx context.Context, userID, id string, patch storage.PantryPatch) (*menu.PantryEntry, error) {
	f.patch = patch
	for i := range f.entries {
		if f.entries[i].ID == id && f.entries[i].UserID == userID {
			if patch.Quantity != nil {
				f.entries[i].Quantity = *patch.Quantity
			}
			return &f.entries[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) DeletePantryEntry(ctx context.Context, userID, id string) (bool, error) {
	for i := range f.entries {
		if f.entries[i].ID == id && f.entries[i].UserID == userID {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetFood(ctx context.Context, id string) (*menu.Food, error) {
	if food, ok := f.foods[id]; ok {
		return &food, nil
	}
	return nil, nil
}

func newStore() *fakeStore {
	return &fakeStore{
		entries: []menu.PantryEntry{
			{ID: "a", UserID: "u1", CustomName: "Arroz", Quantity: 500, Unit: "g"},
			{ID: "b", UserID: "u1", CustomName: "Pollo", Quantity: 300, Unit: "g"},
			{ID: "c", UserID: "u2", CustomName: "Tomate", Quantity: 2, Unit: "unidades"},
		},
		foods: map[string]menu.Food{"f1": {ID: "f1", Name: "Avena", KcalPer100g: 389}},
	}
}

func setupRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store)
	r := gin.New()
	r.Use(middleware.Auth(config.AuthConfig{}))
	r.GET("/pantry", h.HandleList)
	r.POST("/pantry", h.HandleCreate)
	r.PUT("/pantry/:id", h.HandleUpdate)
	r.DELETE("/pantry/:id", h.HandleDelete)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleList(t *testing.T) {
	w := do(setupRouter(newStore()), http.MethodGet, "/pantry", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Items []menu.PantryEntry `json:"items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Items) != 2 || body.Items[0].ID != "b" {
		t.Errorf("Expected own items newest first, got %+v", body.Items)
	}
}

func TestHandleCreate(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Custom name", `{"customName":"Lentejas","quantity":200,"unit":"g","expiryDate":"2025-07-01"}`, http.StatusOK},
		{"Linked food", `{"foodId":"f1","quantity":100,"unit":"g"}`, http.StatusOK},
		{"Missing quantity", `{"customName":"Lentejas","unit":"g"}`, http.StatusBadRequest},
		{"Missing name", `{"quantity":1,"unit":"g"}`, http.StatusBadRequest},
		{"Bad date", `{"customName":"x","quantity":1,"unit":"g","expiryDate":"mañana"}`, http.StatusBadRequest},
		{"Unknown food", `{"foodId":"nope","quantity":1,"unit":"g"}`, http.StatusNotFound},
		{"Malformed", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(setupRouter(newStore()), http.MethodPost, "/pantry", tt.body)
			if w.Code != tt.status {
				t.Errorf("Expected %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleUpdate(t *testing.T) {
	t.Run("Own item", func(t *testing.T) {
		store := newStore()
		w := do(setupRouter(store), http.MethodPut, "/pantry/a", `{"quantity":250,"expiryDate":null}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if store.entries[0].Quantity != 250 {
			t.Errorf("Expected quantity 250, got %v", store.entries[0].Quantity)
		}
		if store.patch.ExpiryDate == nil || *store.patch.ExpiryDate != nil {
			t.Error("Expected null expiryDate to clear the date")
		}
		if store.patch.Unit != nil {
			t.Error("Expected unit to stay unchanged")
		}
	})

	t.Run("Absent expiryDate is untouched", func(t *testing.T) {
		store := newStore()
		do(setupRouter(store), http.MethodPut, "/pantry/a", `{"unit":"kg"}`)
		if store.patch.ExpiryDate != nil {
			t.Error("Expected no expiryDate change")
		}
	})

	t.Run("Other user's item", func(t *testing.T) {
		w := do(setupRouter(newStore()), http.MethodPut, "/pantry/c", `{"quantity":1}`)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}

func TestHandleDelete(t *testing.T) {
	store := newStore()
	r := setupRouter(store)

	if w := do(r, http.MethodDelete, "/pantry/c", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for other user's item, got %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/pantry/a", ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if len(store.entries) != 2 {
		t.Errorf("Expected 2 remaining entries, got %d", len(store.entries))
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-07-01")
	if err != nil || !got.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected 2025-07-01, got %v (%v)", got, err)
	}
	if _, err := ParseDate("2025-07-01T10:00:00Z"); err != nil {
		t.Errorf("Expected RFC3339 to parse, got %v", err)
	}
}
