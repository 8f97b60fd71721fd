package menu

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"menu-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// 沒有對應食物熱量資料時的預估值
const defaultKcalPer100g = 200.0

var (
	ErrDayNotFound        = common.NewError(common.ErrCodeNotFound, "Día no encontrado", http.StatusNotFound, nil)
	ErrMealNotFound       = common.NewError(common.ErrCodeNotFound, "Comida no encontrada", http.StatusNotFound, nil)
	ErrPantryItemNotFound = common.NewError(common.ErrCodeNotFound, "Item no encontrado", http.StatusNotFound, nil)
)

// EditorStore 手動編輯所需的讀寫操作；找不到時回傳 nil 與空字串
type EditorStore interface {
	GetDayWithOwner(ctx context.Context, dayID string) (*Day, string, error)
	GetMealWithOwner(ctx context.Context, mealID string) (*Meal, string, error)
	// UpdateMeals 在單一交易中更新多筆餐點
	UpdateMeals(ctx context.Context, meals []Meal) error
}

// PantryLookup 取得食物櫃項目
type PantryLookup interface {
	PantrySource
	GetPantryEntry(ctx context.Context, id string) (*PantryEntry, error)
}

// MealUpdate 單一餐點的部分更新，nil 欄位不變更
type MealUpdate struct {
	ID        string      `json:"id" binding:"required"`
	Title     *string     `json:"title,omitempty"`
	Recipe    *RecipeBody `json:"recipe,omitempty"`
	TotalKcal *int        `json:"totalKcal,omitempty"`
	Locked    *bool       `json:"locked,omitempty"`
}

// Editor 週菜單手動編輯
type Editor struct {
	store  EditorStore
	pantry PantryLookup
}

// NewEditor 創建菜單編輯器
func NewEditor(store EditorStore, pantry PantryLookup) *Editor {
	return &Editor{store: store, pantry: pantry}
}

// UpdateDay 更新某天的餐點。只會套用屬於該天的餐點，其他 id 會被忽略。
func (e *Editor) UpdateDay(ctx context.Context, userID, dayID string, updates []MealUpdate) (*Day, error) {
	day, owner, err := e.store.GetDayWithOwner(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get day: %w", err)
	}
	if day == nil {
		return nil, ErrDayNotFound
	}
	if owner != userID {
		return nil, common.ErrForbidden
	}

	byID := make(map[string]int, len(day.Meals))
	for i, m := range day.Meals {
		byID[m.ID] = i
	}

	changed := make([]Meal, 0, len(updates))
	for _, u := range updates {
		i, ok := byID[u.ID]
		if !ok {
			common.LogDebug("略過不屬於該天的餐點", zap.String("day_id", dayID), zap.String("meal_id", u.ID))
			continue
		}
		m := &day.Meals[i]
		if u.Title != nil {
			m.Title = *u.Title
		}
		if u.Recipe != nil {
			m.Recipe = *u.Recipe
		}
		if u.TotalKcal != nil {
			m.TotalKcal = *u.TotalKcal
		}
		if u.Locked != nil {
			m.Locked = *u.Locked
		}
		changed = append(changed, *m)
	}

	if len(changed) > 0 {
		if err := e.store.UpdateMeals(ctx, changed); err != nil {
			return nil, fmt.Errorf("failed to update meals: %w", err)
		}
	}
	return day, nil
}

// ReplaceIngredient 以食物櫃項目取代餐點中的一項食材，數量不變，並重新估算熱量。
// 索引超出範圍時餐點維持原狀。
func (e *Editor) ReplaceIngredient(ctx context.Context, userID, mealID string, index int, pantryItemID string) (*Meal, error) {
	meal, owner, err := e.store.GetMealWithOwner(ctx, mealID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	if meal == nil {
		return nil, ErrMealNotFound
	}
	if owner != userID {
		return nil, common.ErrForbidden
	}

	item, err := e.pantry.GetPantryEntry(ctx, pantryItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pantry item: %w", err)
	}
	if item == nil || item.UserID != userID {
		return nil, ErrPantryItemNotFound
	}

	if index < 0 || index >= len(meal.Recipe.Ingredients) {
		return meal, nil
	}

	ingredients := make([]Ingredient, len(meal.Recipe.Ingredients))
	copy(ingredients, meal.Recipe.Ingredients)
	ingredients[index] = Ingredient{
		Name:     item.EffectiveName(),
		Quantity: ingredients[index].Quantity,
		Unit:     item.Unit,
	}

	entries, err := e.pantry.ListPantryEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry: %w", err)
	}

	meal.Recipe.Ingredients = ingredients
	meal.TotalKcal = EstimateKcal(ingredients, entries)

	if err := e.store.UpdateMeals(ctx, []Meal{*meal}); err != nil {
		return nil, fmt.Errorf("failed to update meal: %w", err)
	}
	return meal, nil
}

// EstimateKcal 依食物櫃中連結食物的每百克熱量估算總熱量；
// 找不到對應食物時以每百克 200 kcal 計算
func EstimateKcal(ingredients []Ingredient, entries []PantryEntry) int {
	total := 0.0
	for _, ing := range ingredients {
		per100 := defaultKcalPer100g
		for _, entry := range entries {
			if entry.FoodID == "" {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(entry.FoodName), strings.TrimSpace(ing.Name)) {
				per100 = entry.KcalPer100g
				break
			}
		}
		total += per100 * ing.Quantity / 100
	}
	return int(math.Round(total))
}
