package pantry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"menu-planner/internal/api/handlers"
	"menu-planner/internal/api/middleware"
	"menu-planner/internal/core/menu"
	"menu-planner/internal/pkg/common"
	"menu-planner/internal/storage"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Store 食物櫃儲存
type Store interface {
	ListPantryNewestFirst(ctx context.Context, userID string) ([]menu.PantryEntry, error)
	CreatePantryEntry(ctx context.Context, e *menu.PantryEntry) (*menu.PantryEntry, error)
	UpdatePantryEntry(ctx context.Context, userID, id string, patch storage.PantryPatch) (*menu.PantryEntry, error)
	DeletePantryEntry(ctx context.Context, userID, id string) (bool, error)
	GetFood(ctx context.Context, id string) (*menu.Food, error)
}

// CreateRequest 新增食物櫃項目
type CreateRequest struct {
	FoodID     string  `json:"foodId"`
	CustomName string  `json:"customName"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	ExpiryDate *string `json:"expiryDate"`
}

// UpdateRequest 部分更新；expiryDate 為 null 時清除
type UpdateRequest struct {
	Quantity   *float64        `json:"quantity"`
	Unit       *string         `json:"unit"`
	ExpiryDate json.RawMessage `json:"expiryDate"`
}

// Handler 食物櫃處理程序
type Handler struct {
	store Store
}

// NewHandler 創建食物櫃處理程序
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// HandleList 由新到舊列出食物櫃
func (h *Handler) HandleList(c *gin.Context) {
	items, err := h.store.ListPantryNewestFirst(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if items == nil {
		items = []menu.PantryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// HandleCreate 新增食物櫃項目
func (h *Handler) HandleCreate(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "Formato de solicitud inválido")
		return
	}
	req.CustomName = strings.TrimSpace(req.CustomName)
	req.Unit = strings.TrimSpace(req.Unit)

	if req.Quantity <= 0 || req.Unit == "" {
		handlers.RespondBadRequest(c, "quantity y unit son requeridos")
		return
	}
	if req.FoodID == "" && req.CustomName == "" {
		handlers.RespondBadRequest(c, "foodId o customName es requerido")
		return
	}

	entry := &menu.PantryEntry{
		UserID:     middleware.UserID(c),
		FoodID:     req.FoodID,
		CustomName: req.CustomName,
		Quantity:   req.Quantity,
		Unit:       req.Unit,
	}
	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		t, err := ParseDate(*req.ExpiryDate)
		if err != nil {
			handlers.RespondBadRequest(c, "expiryDate inválida")
			return
		}
		entry.ExpiryDate = &t
	}

	if req.FoodID != "" {
		food, err := h.store.GetFood(c.Request.Context(), req.FoodID)
		if err != nil {
			handlers.RespondError(c, err)
			return
		}
		if food == nil {
			handlers.RespondNotFound(c, "Alimento no encontrado")
			return
		}
	}

	item, err := h.store.CreatePantryEntry(c.Request.Context(), entry)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("食物櫃項目已新增",
		zap.String("request_id", requestid.Get(c)),
		zap.String("item_id", item.ID),
	)
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// HandleUpdate 更新數量、單位或到期日
func (h *Handler) HandleUpdate(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "Formato de solicitud inválido")
		return
	}

	patch := storage.PantryPatch{Quantity: req.Quantity, Unit: req.Unit}
	if req.Quantity != nil && *req.Quantity <= 0 {
		handlers.RespondBadRequest(c, "quantity debe ser mayor que cero")
		return
	}
	if req.Unit != nil && strings.TrimSpace(*req.Unit) == "" {
		handlers.RespondBadRequest(c, "unit no puede estar vacío")
		return
	}
	if len(req.ExpiryDate) > 0 {
		expiry, err := parseOptionalDate(req.ExpiryDate)
		if err != nil {
			handlers.RespondBadRequest(c, "expiryDate inválida")
			return
		}
		patch.ExpiryDate = &expiry
	}

	item, err := h.store.UpdatePantryEntry(c.Request.Context(), middleware.UserID(c), c.Param("id"), patch)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if item == nil {
		handlers.RespondError(c, menu.ErrPantryItemNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// HandleDelete 刪除使用者自己的項目
func (h *Handler) HandleDelete(c *gin.Context) {
	deleted, err := h.store.DeletePantryEntry(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !deleted {
		handlers.RespondError(c, menu.ErrPantryItemNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ParseDate 接受 RFC3339 或 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// parseOptionalDate null 或空字串代表清除
func parseOptionalDate(raw json.RawMessage) (*time.Time, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
