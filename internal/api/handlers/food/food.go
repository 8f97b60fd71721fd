package food

import (
	"context"
	"net/http"
	"strings"

	"menu-planner/internal/api/handlers"
	"menu-planner/internal/core/menu"

	"github.com/gin-gonic/gin"
)

// Store 食物參考資料儲存
type Store interface {
	ListFoods(ctx context.Context, search string) ([]menu.Food, error)
	GetFood(ctx context.Context, id string) (*menu.Food, error)
	CreateFood(ctx context.Context, f *menu.Food) error
}

// CreateRequest 新增食物
type CreateRequest struct {
	Name        string  `json:"name"`
	KcalPer100g float64 `json:"kcalPer100g"`
	UnitType    string  `json:"unitType"`
}

// Handler 食物處理程序
type Handler struct {
	store Store
}

// NewHandler 創建食物處理程序
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// HandleList 列出食物，可用 ?search= 篩選
func (h *Handler) HandleList(c *gin.Context) {
	foods, err := h.store.ListFoods(c.Request.Context(), c.Query("search"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"foods": foods})
}

// HandleGet 取得單一食物
func (h *Handler) HandleGet(c *gin.Context) {
	food, err := h.store.GetFood(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if food == nil {
		handlers.RespondNotFound(c, "Alimento no encontrado")
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": food})
}

// HandleCreate 新增食物
func (h *Handler) HandleCreate(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "Formato de solicitud inválido")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.KcalPer100g <= 0 {
		handlers.RespondBadRequest(c, "name y kcalPer100g son requeridos")
		return
	}

	food := &menu.Food{
		Name:        req.Name,
		KcalPer100g: req.KcalPer100g,
		UnitType:    strings.TrimSpace(req.UnitType),
	}
	if err := h.store.CreateFood(c.Request.Context(), food); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": food})
}
