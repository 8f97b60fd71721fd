package recipe

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"menu-planner/internal/api/handlers"
	"menu-planner/internal/api/middleware"
	"menu-planner/internal/core/menu"
	"menu-planner/internal/pkg/common"
	"menu-planner/internal/storage"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog 食譜目錄
type Catalog interface {
	ListRecipes(ctx context.Context) ([]menu.Recipe, error)
	ListRecipesBySlot(ctx context.Context, slot menu.MealSlot) ([]menu.Recipe, error)
	SeedRecipes(ctx context.Context) (*storage.SeedResult, error)
}

// SeededRecipe 初始化後回傳的食譜摘要
type SeededRecipe struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	MealSlot menu.MealSlot `json:"mealSlot"`
}

// Handler 食譜處理程序
type Handler struct {
	catalog Catalog
	pantry  *menu.SnapshotReader
}

// NewHandler 創建新的食譜處理程序
func NewHandler(catalog Catalog, pantry menu.PantrySource) *Handler {
	return &Handler{catalog: catalog, pantry: menu.NewSnapshotReader(pantry)}
}

// HandleList 列出目錄，可用 ?mealSlot= 篩選
func (h *Handler) HandleList(c *gin.Context) {
	slot, ok := parseSlot(c)
	if !ok {
		return
	}

	var (
		recipes []menu.Recipe
		err     error
	)
	if slot == "" {
		recipes, err = h.catalog.ListRecipes(c.Request.Context())
	} else {
		recipes, err = h.catalog.ListRecipesBySlot(c.Request.Context(), slot)
	}
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes, "total": len(recipes)})
}

// HandleSearch 依食物櫃符合度排序食譜，預設只保留符合度 >= 50 者
func (h *Handler) HandleSearch(c *gin.Context) {
	slot, ok := parseSlot(c)
	if !ok {
		return
	}
	minMatch := menu.DefaultMatchThreshold
	if v := c.Query("minMatch"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed > 100 {
			handlers.RespondBadRequest(c, "minMatch debe estar entre 0 y 100")
			return
		}
		minMatch = parsed
	}

	ctx := c.Request.Context()
	items, err := h.pantry.ListPantry(ctx, middleware.UserID(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	catalog, err := h.catalog.ListRecipes(ctx)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	ranked := menu.RankRecipes(catalog, slot, menu.NewPantryIndex(items), minMatch)
	c.JSON(http.StatusOK, gin.H{"recipes": ranked, "total": len(ranked)})
}

// HandleSeed 目錄為空時寫入基本食譜
func (h *Handler) HandleSeed(c *gin.Context) {
	result, err := h.catalog.SeedRecipes(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	if result.Existing > 0 {
		c.JSON(http.StatusOK, gin.H{
			"message": "Ya existen recetas en la base de datos",
			"count":   result.Existing,
		})
		return
	}

	seeded := make([]SeededRecipe, len(result.Created))
	for i, r := range result.Created {
		seeded[i] = SeededRecipe{ID: r.ID, Name: r.Name, MealSlot: r.MealSlot}
	}
	common.LogInfo("食譜目錄已初始化",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("count", len(seeded)),
	)
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d recetas creadas exitosamente", len(seeded)),
		"recipes": seeded,
	})
}

func parseSlot(c *gin.Context) (menu.MealSlot, bool) {
	slot := menu.MealSlot(c.Query("mealSlot"))
	if slot != "" && !slot.Valid() {
		handlers.RespondBadRequest(c, "mealSlot inválido")
		return "", false
	}
	return slot, true
}
