package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"menu-planner/internal/core/tracking"
)

const mealItemColumns = `
	i.id, i.meal_log_id, COALESCE(i.food_id, ''), COALESCE(f.name, ''), i.custom_name, i.quantity, i.unit, i.estimated_kcal`

// CreateMealLog 在單一交易中新增飲食紀錄與其項目
func (s *Store) CreateMealLog(ctx context.Context, log *tracking.MealLog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO meal_logs (id, user_id, date, meal_type) VALUES (?, ?, ?, ?)`,
		log.ID, log.UserID, log.Date.Unix(), string(log.MealType))
	if err != nil {
		return fmt.Errorf("failed to insert meal log: %w", err)
	}
	if err := insertMealItems(ctx, tx, log.Items); err != nil {
		return err
	}
	return tx.Commit()
}

func insertMealItems(ctx context.Context, q querier, items []tracking.MealItem) error {
	for _, it := range items {
		_, err := q.ExecContext(ctx, `
			INSERT INTO meal_items (id, meal_log_id, food_id, custom_name, quantity, unit, estimated_kcal)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.MealLogID, nullString(it.FoodID), it.CustomName, it.Quantity, it.Unit, it.EstimatedKcal)
		if err != nil {
			return fmt.Errorf("failed to insert meal item: %w", err)
		}
	}
	return nil
}

// ListMealLogs 列出 [from, to) 之間的紀錄，依日期排序並附上項目
func (s *Store) ListMealLogs(ctx context.Context, userID string, from, to time.Time) ([]tracking.MealLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, meal_type FROM meal_logs
		WHERE user_id = ? AND date >= ? AND date < ? ORDER BY date, rowid`, userID, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query meal logs: %w", err)
	}
	defer rows.Close()

	logs := []tracking.MealLog{}
	index := map[string]int{}
	for rows.Next() {
		l, err := s.scanMealLog(rows)
		if err != nil {
			return nil, err
		}
		index[l.ID] = len(logs)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return logs, nil
	}

	items, err := s.queryMealItems(ctx, `
		SELECT `+mealItemColumns+`
		FROM meal_items i
		JOIN meal_logs l ON l.id = i.meal_log_id
		LEFT JOIN foods f ON f.id = i.food_id
		WHERE l.user_id = ? AND l.date >= ? AND l.date < ? ORDER BY i.rowid`, userID, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if i, ok := index[it.MealLogID]; ok {
			logs[i].Items = append(logs[i].Items, it)
		}
	}
	for i := range logs {
		logs[i].SumItems()
	}
	return logs, nil
}

// GetMealLog 取得紀錄與其項目，不存在時回傳 nil, nil
func (s *Store) GetMealLog(ctx context.Context, id string) (*tracking.MealLog, error) {
	l, err := s.scanMealLog(s.db.QueryRowContext(ctx, `SELECT id, user_id, date, meal_type FROM meal_logs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := s.queryMealItems(ctx, `
		SELECT `+mealItemColumns+`
		FROM meal_items i LEFT JOIN foods f ON f.id = i.food_id
		WHERE i.meal_log_id = ? ORDER BY i.rowid`, id)
	if err != nil {
		return nil, err
	}
	l.Items = items
	l.SumItems()
	return &l, nil
}

// UpdateMealLog 更新日期與餐別；replaceItems 時刪除舊項目並寫入新項目
func (s *Store) UpdateMealLog(ctx context.Context, log *tracking.MealLog, replaceItems bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE meal_logs SET date = ?, meal_type = ? WHERE id = ?`,
		log.Date.Unix(), string(log.MealType), log.ID); err != nil {
		return fmt.Errorf("failed to update meal log: %w", err)
	}
	if replaceItems {
		if _, err := tx.ExecContext(ctx, `DELETE FROM meal_items WHERE meal_log_id = ?`, log.ID); err != nil {
			return fmt.Errorf("failed to delete meal items: %w", err)
		}
		if err := insertMealItems(ctx, tx, log.Items); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteMealLog 刪除紀錄，項目由外鍵串聯刪除
func (s *Store) DeleteMealLog(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meal_logs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete meal log: %w", err)
	}
	return nil
}

func (s *Store) scanMealLog(row interface{ Scan(...any) error }) (tracking.MealLog, error) {
	var (
		l    tracking.MealLog
		date int64
	)
	if err := row.Scan(&l.ID, &l.UserID, &date, &l.MealType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return l, err
		}
		return l, fmt.Errorf("failed to scan meal log: %w", err)
	}
	l.Date = s.fromUnix(date)
	l.Items = []tracking.MealItem{}
	return l, nil
}

func (s *Store) queryMealItems(ctx context.Context, query string, args ...any) ([]tracking.MealItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal items: %w", err)
	}
	defer rows.Close()

	items := []tracking.MealItem{}
	for rows.Next() {
		var it tracking.MealItem
		if err := rows.Scan(&it.ID, &it.MealLogID, &it.FoodID, &it.FoodName, &it.CustomName, &it.Quantity, &it.Unit, &it.EstimatedKcal); err != nil {
			return nil, fmt.Errorf("failed to scan meal item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
