package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"menu-planner/internal/api/middleware"
	"menu-planner/internal/core/nutrition"
	"menu-planner/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

type fakeStore struct {
	profiles map[string]*nutrition.Profile
}

func (f *fakeStore) GetProfile(ctx context.Context, userID string) (*nutrition.Profile, error) {
	return f.profiles[userID], nil
}

func (f *fakeStore) UpsertProfile(ctx context.Context, p *nutrition.Profile) error {
	f.profiles[p.UserID] = p
	return nil
}

func setupRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store)
	r := gin.New()
	r.Use(middleware.Auth(config.AuthConfig{}))
	r.GET("/profile", h.HandleGet)
	r.PUT("/profile", h.HandleUpsert)
	return r
}

func do(r *gin.Engine, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/profile", bytes.NewBufferString(body))
	req.Header.Set(middleware.UserIDHeader, "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleGet(t *testing.T) {
	w := do(setupRouter(&fakeStore{profiles: map[string]*nutrition.Profile{}}), http.MethodGet, "")
	if w.Code != http.StatusOK || w.Body.String() != `{"profile":null}` {
		t.Errorf("Expected null profile, got %d %s", w.Code, w.Body.String())
	}
}

func TestHandleUpsert(t *testing.T) {
	t.Run("Derives target and BMI", func(t *testing.T) {
		store := &fakeStore{profiles: map[string]*nutrition.Profile{}}
		w := do(setupRouter(store), http.MethodPut, `{"weightKg":70,"heightCm":175,"age":30,"sex":"M","activity":"moderado","objective":"mantener"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d (%s)", w.Code, w.Body.String())
		}

		var resp Response
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		// (700 + 1093.75 - 150 + 5) * 1.55 = 2555.5625
		if resp.Profile.TargetKcal == nil || *resp.Profile.TargetKcal != 2556 {
			t.Errorf("Expected target 2556, got %v", resp.Profile.TargetKcal)
		}
		if resp.Profile.BMI == nil || *resp.Profile.BMI != 22.9 {
			t.Errorf("Expected BMI 22.9, got %v", resp.Profile.BMI)
		}
		if resp.BMICategory != nutrition.BMINormal {
			t.Errorf("Expected normal, got %s", resp.BMICategory)
		}
		if store.profiles["u1"] == nil {
			t.Error("Expected profile to be stored")
		}
	})

	t.Run("Without objective target is cleared", func(t *testing.T) {
		store := &fakeStore{profiles: map[string]*nutrition.Profile{}}
		w := do(setupRouter(store), http.MethodPut, `{"weightKg":70,"heightCm":175,"age":30,"sex":"M"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if store.profiles["u1"].TargetKcal != nil {
			t.Error("Expected no target")
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"Missing weight", `{"heightCm":175,"age":30}`},
		{"Unknown activity", `{"weightKg":70,"heightCm":175,"age":30,"activity":"extremo"}`},
		{"Unknown sex", `{"weightKg":70,"heightCm":175,"age":30,"sex":"X"}`},
		{"Malformed", `{"weightKg":"setenta"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(setupRouter(&fakeStore{profiles: map[string]*nutrition.Profile{}}), http.MethodPut, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}
}
