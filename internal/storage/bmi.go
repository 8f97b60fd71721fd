package storage

import (
	"context"
	"fmt"

	"menu-planner/internal/core/tracking"
)

// RecordBMI 寫入 BMI 歷史，並在同一交易中更新個人檔案的 BMI；沒有個人檔案時只寫歷史
func (s *Store) RecordBMI(ctx context.Context, e *tracking.BMIEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO bmi_history (id, user_id, weight_kg, height_cm, bmi, category, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.WeightKg, e.HeightCm, e.BMI, string(e.Category), e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert bmi entry: %w", err)
	}
	_, err = tx.ExecContext(ctx, `UPDATE profiles SET bmi = ?, updated_at = ? WHERE user_id = ?`,
		e.BMI, e.CreatedAt.Unix(), e.UserID)
	if err != nil {
		return fmt.Errorf("failed to update profile bmi: %w", err)
	}
	return tx.Commit()
}

// ListBMIHistory 由新到舊列出 BMI 歷史
func (s *Store) ListBMIHistory(ctx context.Context, userID string, limit int) ([]tracking.BMIEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, weight_kg, height_cm, bmi, category, created_at
		FROM bmi_history WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bmi history: %w", err)
	}
	defer rows.Close()

	history := []tracking.BMIEntry{}
	for rows.Next() {
		var (
			e       tracking.BMIEntry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.WeightKg, &e.HeightCm, &e.BMI, &e.Category, &created); err != nil {
			return nil, fmt.Errorf("failed to scan bmi entry: %w", err)
		}
		e.CreatedAt = s.fromUnix(created)
		history = append(history, e)
	}
	return history, rows.Err()
}
