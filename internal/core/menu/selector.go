package menu

import (
	"fmt"
	"math/rand/v2"

	"menu-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// 已使用過的食譜仍有 30% 機率參與比對
const repeatAllowance = 0.3

// DefaultMatchThreshold 接受目錄食譜的最低覆蓋率
const DefaultMatchThreshold = 50.0

// RandomSource 可注入的隨機來源，回傳 [0, 1) 之間的值
type RandomSource interface {
	Float64() float64
}

// RandomFunc 將函式轉為 RandomSource
type RandomFunc func() float64

// Float64 實現 RandomSource
func (f RandomFunc) Float64() float64 { return f() }

// DefaultRandom 並行安全的全域隨機來源
var DefaultRandom RandomSource = RandomFunc(rand.Float64)

// UsedRecipes 本週已選用的食譜 id，只在單一請求內使用
type UsedRecipes map[string]struct{}

// SlotRequest 某天某餐的選擇條件
type SlotRequest struct {
	DayIndex   int
	Slot       MealSlot
	TargetKcal int
}

// Selection 目錄選擇結果
type Selection struct {
	Recipe Recipe
	Match  RecipeMatch
	Meal   Meal
}

// Selector 從食譜目錄挑選最符合食物櫃的食譜
type Selector struct {
	rnd       RandomSource
	threshold float64
}

// NewSelector 創建食譜選擇器；rnd 為 nil 時使用 DefaultRandom
func NewSelector(rnd RandomSource, threshold float64) *Selector {
	if rnd == nil {
		rnd = DefaultRandom
	}
	return &Selector{rnd: rnd, threshold: threshold}
}

// Best 回傳該餐別覆蓋率最高的候選食譜。
// 同分時後面的候選會覆蓋前面的，結果與目錄順序有關。
func (s *Selector) Best(catalog []Recipe, slot MealSlot, pantry *PantryIndex, used UsedRecipes) (*Recipe, RecipeMatch) {
	var best *Recipe
	bestMatch := RecipeMatch{}

	for i := range catalog {
		r := &catalog[i]
		if r.MealSlot != slot {
			continue
		}
		if _, seen := used[r.ID]; seen && s.rnd.Float64() > repeatAllowance {
			continue
		}

		m := MatchRecipe(r.Ingredients, pantry)
		if m.MatchPercentage >= bestMatch.MatchPercentage {
			best = r
			bestMatch = m
		}
	}
	return best, bestMatch
}

// Select 為一個餐別挑選目錄食譜並調整到目標熱量。
// 沒有候選達到門檻，或候選熱量無法調整時回傳 false，由呼叫端改用生成食譜。
func (s *Selector) Select(catalog []Recipe, req SlotRequest, pantry *PantryIndex, used UsedRecipes) (*Selection, bool) {
	best, match := s.Best(catalog, req.Slot, pantry, used)
	if best == nil || match.MatchPercentage < s.threshold {
		return nil, false
	}

	scaled, err := Rescale(best.KcalPerServing, float64(req.TargetKcal))
	if err != nil {
		common.LogWarn("食譜熱量無法調整，改用生成食譜",
			zap.String("recipe_id", best.ID),
			zap.Int("day", req.DayIndex),
			zap.String("slot", string(req.Slot)),
			zap.Error(err),
		)
		return nil, false
	}
	used[best.ID] = struct{}{}

	ingredients := make([]Ingredient, len(best.Ingredients))
	for i, ing := range best.Ingredients {
		ingredients[i] = Ingredient{
			Name:     ing.Name,
			Quantity: common.RoundTo(ing.Quantity*scaled.Multiplier, 1),
			Unit:     ing.Unit,
		}
	}

	return &Selection{
		Recipe: *best,
		Match:  match,
		Meal: Meal{
			MealSlot: req.Slot,
			Title:    best.Name,
			Recipe: RecipeBody{
				Ingredients:  ingredients,
				Instructions: adjustedInstructions(best.Name, req.TargetKcal),
			},
			TotalKcal: scaled.AdjustedKcal,
		},
	}, true
}

func adjustedInstructions(recipeName string, targetKcal int) string {
	return fmt.Sprintf("Ajusta las cantidades según tus necesidades. Esta receta base de \"%s\" ha sido ajustada para cumplir con %d kcal.", recipeName, targetKcal)
}
