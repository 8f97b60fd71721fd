package menu

import (
	"context"
	"net/http"

	"menu-planner/internal/api/handlers"
	"menu-planner/internal/api/middleware"
	menuService "menu-planner/internal/core/menu"
	"menu-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PlanService 週菜單生成與查詢
type PlanService interface {
	GenerateWeeklyPlan(ctx context.Context, userID string) (*menuService.Plan, error)
	GetCurrentPlan(ctx context.Context, userID string) (*menuService.Plan, error)
}

// MealEditor 手動編輯菜單
type MealEditor interface {
	UpdateDay(ctx context.Context, userID, dayID string, updates []menuService.MealUpdate) (*menuService.Day, error)
	ReplaceIngredient(ctx context.Context, userID, mealID string, index int, pantryItemID string) (*menuService.Meal, error)
}

// UpdateDayRequest 編輯某天的餐點
type UpdateDayRequest struct {
	Meals []menuService.MealUpdate `json:"meals" binding:"dive"`
}

// ReplaceIngredientRequest 以食物櫃項目替換食材
type ReplaceIngredientRequest struct {
	IngredientIndex   *int   `json:"ingredientIndex" binding:"required"`
	ReplacementItemID string `json:"replacementItemId" binding:"required"`
}

// Handler 週菜單處理程序
type Handler struct {
	plans  PlanService
	editor MealEditor
}

// NewHandler 創建週菜單處理程序
func NewHandler(plans PlanService, editor MealEditor) *Handler {
	return &Handler{plans: plans, editor: editor}
}

// HandleGenerate 生成本週菜單
func (h *Handler) HandleGenerate(c *gin.Context) {
	userID := middleware.UserID(c)
	common.LogInfo("開始生成週菜單",
		zap.String("request_id", requestid.Get(c)),
		zap.String("user_id", userID),
	)

	plan, err := h.plans.GenerateWeeklyPlan(c.Request.Context(), userID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu": plan})
}

// HandleGetCurrent 取得本週菜單；沒有時回傳 {"menu": null}
func (h *Handler) HandleGetCurrent(c *gin.Context) {
	plan, err := h.plans.GetCurrentPlan(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu": plan})
}

// HandleUpdateDay 編輯某天的餐點
func (h *Handler) HandleUpdateDay(c *gin.Context) {
	var req UpdateDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogDebug("請求格式無效", zap.Error(err), zap.String("request_id", requestid.Get(c)))
		handlers.RespondBadRequest(c, "Formato de solicitud inválido")
		return
	}

	day, err := h.editor.UpdateDay(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Meals)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": day})
}

// HandleReplaceIngredient 替換餐點中的一個食材並重新估算熱量
func (h *Handler) HandleReplaceIngredient(c *gin.Context) {
	var req ReplaceIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogDebug("請求格式無效", zap.Error(err), zap.String("request_id", requestid.Get(c)))
		handlers.RespondBadRequest(c, "ingredientIndex y replacementItemId son requeridos")
		return
	}

	meal, err := h.editor.ReplaceIngredient(c.Request.Context(), middleware.UserID(c), c.Param("id"), *req.IngredientIndex, req.ReplacementItemID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": meal})
}
