package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"menu-planner/internal/core/menu"
	"menu-planner/internal/pkg/common"
)

const maxFoodResults = 50

// ListFoods 列出食物，search 不為空時以名稱做不分大小寫的部分比對
func (s *Store) ListFoods(ctx context.Context, search string) ([]menu.Food, error) {
	query := `SELECT id, name, kcal_per_100g, unit_type, created_at FROM foods`
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		query += ` WHERE instr(lower(name), lower(?)) > 0`
		args = append(args, search)
	}
	query += ` ORDER BY name LIMIT ?`
	args = append(args, maxFoodResults)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	foods := []menu.Food{}
	for rows.Next() {
		var (
			f       menu.Food
			created int64
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.KcalPer100g, &f.UnitType, &created); err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		f.CreatedAt = s.fromUnix(created)
		foods = append(foods, f)
	}
	return foods, rows.Err()
}

// GetFood 取得食物，不存在時回傳 nil, nil
func (s *Store) GetFood(ctx context.Context, id string) (*menu.Food, error) {
	var (
		f       menu.Food
		created int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, kcal_per_100g, unit_type, created_at FROM foods WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.KcalPer100g, &f.UnitType, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query food: %w", err)
	}
	f.CreatedAt = s.fromUnix(created)
	return &f, nil
}

// CreateFood 新增食物，單位預設為 g
func (s *Store) CreateFood(ctx context.Context, f *menu.Food) error {
	if f.ID == "" {
		f.ID = common.GenerateUUID()
	}
	if f.UnitType == "" {
		f.UnitType = "g"
	}
	f.CreatedAt = s.now().In(s.loc).Truncate(time.Second)

	_, err := s.db.ExecContext(ctx, `INSERT INTO foods (id, name, kcal_per_100g, unit_type, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.KcalPer100g, f.UnitType, f.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert food: %w", err)
	}
	return nil
}
