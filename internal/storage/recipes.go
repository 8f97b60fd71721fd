package storage

import (
	"context"
	_ "embed"
	"fmt"

	"menu-planner/internal/core/menu"
	"menu-planner/internal/pkg/common"

	"go.uber.org/zap"
)

//go:embed seed/recipes.json
var seedRecipes []byte

const recipeColumns = `id, name, description, meal_slot, ingredients, total_kcal, kcal_per_serving, servings, tags`

// ListRecipes 依插入順序列出整個目錄；選擇同分食譜時依賴此順序
func (s *Store) ListRecipes(ctx context.Context) ([]menu.Recipe, error) {
	return s.queryRecipes(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY rowid`)
}

// ListRecipesBySlot 列出某餐別的食譜
func (s *Store) ListRecipesBySlot(ctx context.Context, slot menu.MealSlot) ([]menu.Recipe, error) {
	return s.queryRecipes(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE meal_slot = ? ORDER BY rowid`, string(slot))
}

func (s *Store) queryRecipes(ctx context.Context, query string, args ...any) ([]menu.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	recipes := []menu.Recipe{}
	for rows.Next() {
		var (
			r                 menu.Recipe
			ingredients, tags string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.MealSlot, &ingredients, &r.TotalKcal, &r.KcalPerServing, &r.Servings, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		if err := common.ParseJSON(ingredients, &r.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to decode ingredients of recipe %s: %w", r.ID, err)
		}
		if err := common.ParseJSON(tags, &r.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags of recipe %s: %w", r.ID, err)
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// CountRecipes 目錄中的食譜數
func (s *Store) CountRecipes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return n, nil
}

// InsertRecipes 在單一交易中新增食譜
func (s *Store) InsertRecipes(ctx context.Context, recipes []menu.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range recipes {
		r := &recipes[i]
		if r.ID == "" {
			r.ID = common.GenerateUUID()
		}
		if r.Tags == nil {
			r.Tags = []string{}
		}
		ingredients, err := common.ToJSON(r.Ingredients)
		if err != nil {
			return fmt.Errorf("failed to encode ingredients: %w", err)
		}
		tags, err := common.ToJSON(r.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO recipes (`+recipeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Description, string(r.MealSlot), ingredients, r.TotalKcal, r.KcalPerServing, r.Servings, tags)
		if err != nil {
			return fmt.Errorf("failed to insert recipe %q: %w", r.Name, err)
		}
	}
	return tx.Commit()
}

// SeedResult 初始化目錄的結果
type SeedResult struct {
	Created  []menu.Recipe
	Existing int
}

// SeedRecipes 目錄為空時寫入內建的基本食譜；已有資料時不做任何事
func (s *Store) SeedRecipes(ctx context.Context) (*SeedResult, error) {
	existing, err := s.CountRecipes(ctx)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return &SeedResult{Existing: existing}, nil
	}

	var recipes []menu.Recipe
	if err := common.ParseJSONStrict(string(seedRecipes), &recipes); err != nil {
		return nil, fmt.Errorf("failed to decode seed recipes: %w", err)
	}
	if err := s.InsertRecipes(ctx, recipes); err != nil {
		return nil, err
	}

	common.LogInfo("基本食譜已寫入", zap.Int("count", len(recipes)))
	return &SeedResult{Created: recipes}, nil
}
