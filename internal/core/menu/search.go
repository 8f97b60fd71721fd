package menu

import "sort"

// RankedRecipe 食譜與其食物櫃符合度
type RankedRecipe struct {
	Recipe
	Match RecipeMatch `json:"match"`
}

// RankRecipes 計算每個食譜的符合度，保留 >= minMatch 者並依符合度降冪排序；同分維持目錄順序。
// slot 為空字串時不篩選餐別。
func RankRecipes(catalog []Recipe, slot MealSlot, pantry *PantryIndex, minMatch float64) []RankedRecipe {
	ranked := []RankedRecipe{}
	for _, r := range catalog {
		if slot != "" && r.MealSlot != slot {
			continue
		}
		m := MatchRecipe(r.Ingredients, pantry)
		if m.MatchPercentage < minMatch {
			continue
		}
		ranked = append(ranked, RankedRecipe{Recipe: r, Match: m})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Match.MatchPercentage > ranked[j].Match.MatchPercentage
	})
	return ranked
}
