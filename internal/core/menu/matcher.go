package menu

import (
	"strings"

	"menu-planner/internal/pkg/common"
)

// PantryIndex 依插入順序保存正規化後的食物櫃名稱。
// 比對時由前往後走訪，回傳第一個符合的名稱。
type PantryIndex struct {
	names []string
}

// NewPantryIndex 建立索引；重複名稱保留第一次出現的位置
func NewPantryIndex(items []PantryItem) *PantryIndex {
	idx := &PantryIndex{names: make([]string, 0, len(items))}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		name := common.NormalizeName(item.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		idx.names = append(idx.names, name)
	}
	return idx
}

// Len 索引中的名稱數
func (p *PantryIndex) Len() int {
	return len(p.names)
}

// FirstMatch 回傳第一個與食材名稱互相包含的食物櫃名稱
func (p *PantryIndex) FirstMatch(ingredient string) (string, bool) {
	ing := common.NormalizeName(ingredient)
	for _, name := range p.names {
		if strings.Contains(name, ing) || strings.Contains(ing, name) {
			return name, true
		}
	}
	return "", false
}

// MatchRecipe 計算食譜食材在食物櫃中的覆蓋率。
// 只看是否存在，不看數量；多個食材可對應到同一食物櫃項目。
func MatchRecipe(ingredients []Ingredient, pantry *PantryIndex) RecipeMatch {
	match := RecipeMatch{
		AvailableIngredientNames: []string{},
		MissingIngredientNames:   []string{},
	}

	for _, ing := range ingredients {
		if _, ok := pantry.FirstMatch(ing.Name); ok {
			match.AvailableIngredientNames = append(match.AvailableIngredientNames, ing.Name)
		} else {
			match.MissingIngredientNames = append(match.MissingIngredientNames, ing.Name)
		}
	}

	if len(ingredients) > 0 {
		match.MatchPercentage = float64(len(match.AvailableIngredientNames)) / float64(len(ingredients)) * 100
	}
	return match
}
