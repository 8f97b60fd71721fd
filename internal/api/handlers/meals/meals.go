package meals

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"menu-planner/internal/api/handlers"
	"menu-planner/internal/api/middleware"
	"menu-planner/internal/core/menu"
	"menu-planner/internal/core/tracking"
	"menu-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errItemQuantity = errors.New("quantity debe ser mayor que cero")
	errItemName     = errors.New("foodId o customName es requerido")
	errItemKcal     = errors.New("estimatedKcal no puede ser negativo")
)

// Service 每日飲食紀錄
type Service interface {
	ParseDate(v string) (time.Time, error)
	Today() time.Time
	MealsOn(ctx context.Context, userID string, day time.Time) ([]tracking.MealLog, error)
	LogMeal(ctx context.Context, userID string, in tracking.MealInput) (*tracking.MealLog, error)
	UpdateMeal(ctx context.Context, userID, id string, patch tracking.MealPatch) (*tracking.MealLog, error)
	DeleteMeal(ctx context.Context, userID, id string) error
}

// ItemRequest 一項食物；foodId 或 customName 擇一
type ItemRequest struct {
	FoodID        string   `json:"foodId"`
	CustomName    string   `json:"customName"`
	Quantity      float64  `json:"quantity"`
	Unit          string   `json:"unit"`
	EstimatedKcal *float64 `json:"estimatedKcal"`
}

// CreateRequest 新增飲食紀錄
type CreateRequest struct {
	Date     string         `json:"date"`
	MealType string         `json:"mealType"`
	Items    *[]ItemRequest `json:"items"`
}

// UpdateRequest 部分更新；items 存在時整批取代
type UpdateRequest struct {
	Date     *string        `json:"date"`
	MealType *string        `json:"mealType"`
	Items    *[]ItemRequest `json:"items"`
}

// Handler 飲食紀錄處理程序
type Handler struct {
	service Service
}

// NewHandler 創建飲食紀錄處理程序
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleList 列出某天的紀錄，未指定 date 時為今天
func (h *Handler) HandleList(c *gin.Context) {
	day := h.service.Today()
	if v := c.Query("date"); v != "" {
		t, err := h.service.ParseDate(v)
		if err != nil {
			handlers.RespondBadRequest(c, "date inválida")
			return
		}
		day = t
	}

	logs, err := h.service.MealsOn(c.Request.Context(), middleware.UserID(c), day)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": logs})
}

// HandleCreate 新增飲食紀錄
func (h *Handler) HandleCreate(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "Formato de solicitud inválido")
		return
	}
	if strings.TrimSpace(req.Date) == "" || req.MealType == "" || req.Items == nil {
		handlers.RespondBadRequest(c, "date, mealType e items son requeridos")
		return
	}

	in := tracking.MealInput{MealType: menu.MealSlot(req.MealType)}
	if !in.MealType.Valid() {
		handlers.RespondBadRequest(c, "mealType inválido")
		return
	}
	date, err := h.service.ParseDate(req.Date)
	if err != nil {
		handlers.RespondBadRequest(c, "date inválida")
		return
	}
	in.Date = date
	if in.Items, err = toItemInputs(*req.Items); err != nil {
		handlers.RespondBadRequest(c, err.Error())
		return
	}

	log, err := h.service.LogMeal(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("飲食紀錄已新增",
		zap.String("request_id", requestid.Get(c)),
		zap.String("meal_log_id", log.ID),
		zap.Int("items", len(log.Items)),
	)
	c.JSON(http.StatusOK, gin.H{"meal": log})
}

// HandleUpdate 更新日期、餐別或食物項目
func (h *Handler) HandleUpdate(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "Formato de solicitud inválido")
		return
	}

	var patch tracking.MealPatch
	if req.Date != nil {
		date, err := h.service.ParseDate(*req.Date)
		if err != nil {
			handlers.RespondBadRequest(c, "date inválida")
			return
		}
		patch.Date = &date
	}
	if req.MealType != nil {
		slot := menu.MealSlot(*req.MealType)
		if !slot.Valid() {
			handlers.RespondBadRequest(c, "mealType inválido")
			return
		}
		patch.MealType = &slot
	}
	if req.Items != nil {
		items, err := toItemInputs(*req.Items)
		if err != nil {
			handlers.RespondBadRequest(c, err.Error())
			return
		}
		patch.Items = items
	}

	log, err := h.service.UpdateMeal(c.Request.Context(), middleware.UserID(c), c.Param("id"), patch)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": log})
}

// HandleDelete 刪除使用者自己的紀錄
func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.service.DeleteMeal(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// toItemInputs 回傳非 nil 的切片，空陣列代表清空項目
func toItemInputs(reqs []ItemRequest) ([]tracking.ItemInput, error) {
	items := make([]tracking.ItemInput, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, errItemQuantity
		}
		if strings.TrimSpace(r.FoodID) == "" && strings.TrimSpace(r.CustomName) == "" {
			return nil, errItemName
		}
		if r.EstimatedKcal != nil && *r.EstimatedKcal < 0 {
			return nil, errItemKcal
		}
		items = append(items, tracking.ItemInput{
			FoodID:        r.FoodID,
			CustomName:    r.CustomName,
			Quantity:      r.Quantity,
			Unit:          r.Unit,
			EstimatedKcal: r.EstimatedKcal,
		})
	}
	return items, nil
}
