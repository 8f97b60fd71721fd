package profile

import (
	"context"
	"net/http"

	"menu-planner/internal/api/handlers"
	"menu-planner/internal/api/middleware"
	"menu-planner/internal/core/nutrition"
	"menu-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Store 個人檔案儲存
type Store interface {
	GetProfile(ctx context.Context, userID string) (*nutrition.Profile, error)
	UpsertProfile(ctx context.Context, p *nutrition.Profile) error
}

// UpsertRequest 身體資料；性別、活動量與目標齊全時才計算熱量目標
type UpsertRequest struct {
	WeightKg  float64             `json:"weightKg"`
	HeightCm  float64             `json:"heightCm"`
	Age       int                 `json:"age"`
	Sex       nutrition.Sex       `json:"sex"`
	Activity  nutrition.Activity  `json:"activity"`
	Objective nutrition.Objective `json:"objective"`
}

// Response 個人檔案與 BMI 分類
type Response struct {
	Profile     *nutrition.Profile    `json:"profile"`
	BMICategory nutrition.BMICategory `json:"bmiCategory,omitempty"`
}

// Handler 個人檔案處理程序
type Handler struct {
	store Store
}

// NewHandler 創建個人檔案處理程序
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// HandleGet 取得個人檔案；不存在時回傳 {"profile": null}
func (h *Handler) HandleGet(c *gin.Context) {
	p, err := h.store.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newResponse(p))
}

// HandleUpsert 新增或覆寫個人檔案，並重新計算 BMI 與熱量目標
func (h *Handler) HandleUpsert(c *gin.Context) {
	var req UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "Formato de solicitud inválido")
		return
	}
	if msg := validate(req); msg != "" {
		handlers.RespondBadRequest(c, msg)
		return
	}

	p := &nutrition.Profile{
		UserID:    middleware.UserID(c),
		WeightKg:  req.WeightKg,
		HeightCm:  req.HeightCm,
		Age:       req.Age,
		Sex:       req.Sex,
		Activity:  req.Activity,
		Objective: req.Objective,
	}
	if err := p.Derive(); err != nil {
		handlers.RespondBadRequest(c, err.Error())
		return
	}
	if err := h.store.UpsertProfile(c.Request.Context(), p); err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("個人檔案已更新",
		zap.String("request_id", requestid.Get(c)),
		zap.Bool("has_target", p.HasTarget()),
	)
	c.JSON(http.StatusOK, newResponse(p))
}

func validate(req UpsertRequest) string {
	if req.WeightKg <= 0 || req.HeightCm <= 0 || req.Age <= 0 {
		return "peso, altura y edad son requeridos"
	}
	if req.Sex != "" && !req.Sex.Valid() {
		return "sexo inválido"
	}
	if req.Activity != "" && !req.Activity.Valid() {
		return "actividad inválida"
	}
	if req.Objective != "" && !req.Objective.Valid() {
		return "objetivo inválido"
	}
	return ""
}

func newResponse(p *nutrition.Profile) Response {
	resp := Response{Profile: p}
	if p != nil && p.BMI != nil {
		resp.BMICategory = nutrition.CategoryFor(*p.BMI)
	}
	return resp
}
