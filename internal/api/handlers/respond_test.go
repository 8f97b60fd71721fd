package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"menu-planner/internal/infrastructure/config"
	"menu-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		debug   bool
		status  int
		message string
		code    string
		details bool
	}{
		{"Precondition verbatim", common.NewPreconditionError("Perfil incompleto."), false, http.StatusBadRequest, "Perfil incompleto.", common.ErrCodePreconditionFail, false},
		{"Wrapped forbidden", fmt.Errorf("edit: %w", common.ErrForbidden), false, http.StatusForbidden, "Unauthorized", common.ErrCodeForbidden, false},
		{"Plain error hidden", errors.New("disk I/O error"), false, http.StatusInternalServerError, "Internal server error", common.ErrCodeInternalError, false},
		{"Plain error in debug", errors.New("disk I/O error"), true, http.StatusInternalServerError, "Internal server error", common.ErrCodeInternalError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set("config", &config.Config{App: config.AppConfig{Debug: tt.debug}})

			RespondError(c, tt.err)

			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, w.Code)
			}
			var body common.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if body.Error != tt.message || body.Code != tt.code {
				t.Errorf("Expected %q/%s, got %q/%s", tt.message, tt.code, body.Error, body.Code)
			}
			if (body.Details != "") != tt.details {
				t.Errorf("Expected details present=%v, got %q", tt.details, body.Details)
			}
		})
	}
}
