package bmi

import (
	"context"
	"net/http"

	"menu-planner/internal/api/handlers"
	"menu-planner/internal/api/middleware"
	"menu-planner/internal/core/tracking"

	"github.com/gin-gonic/gin"
)

// Service BMI 計算與歷史
type Service interface {
	RecordBMI(ctx context.Context, userID string, weightKg, heightCm float64) (*tracking.BMIEntry, error)
	BMIHistory(ctx context.Context, userID string) ([]tracking.BMIEntry, error)
}

// CalculateRequest 計算 BMI
type CalculateRequest struct {
	WeightKg *float64 `json:"weightKg"`
	HeightCm *float64 `json:"heightCm"`
}

// Handler BMI 處理程序
type Handler struct {
	service Service
}

// NewHandler 創建 BMI 處理程序
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleCalculate 計算並記錄 BMI，同時更新個人檔案
func (h *Handler) HandleCalculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "Formato de solicitud inválido")
		return
	}
	if req.WeightKg == nil || req.HeightCm == nil {
		handlers.RespondBadRequest(c, "peso y altura son requeridos")
		return
	}

	entry, err := h.service.RecordBMI(c.Request.Context(), middleware.UserID(c), *req.WeightKg, *req.HeightCm)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bmi":      entry.BMI,
		"category": entry.Category,
		"entry":    entry,
	})
}

// HandleHistory 最近的 BMI 紀錄，由新到舊
func (h *Handler) HandleHistory(c *gin.Context) {
	history, err := h.service.BMIHistory(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
