package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"menu-planner/internal/core/nutrition"
)

// GetProfile 取得個人檔案，不存在時回傳 nil, nil
func (s *Store) GetProfile(ctx context.Context, userID string) (*nutrition.Profile, error) {
	var (
		p         nutrition.Profile
		target    sql.NullInt64
		bmi       sql.NullFloat64
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, weight_kg, height_cm, age, sex, activity, objective, target_kcal, bmi, updated_at
		FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.WeightKg, &p.HeightCm, &p.Age, &p.Sex, &p.Activity, &p.Objective, &target, &bmi, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	if target.Valid {
		v := int(target.Int64)
		p.TargetKcal = &v
	}
	if bmi.Valid {
		v := bmi.Float64
		p.BMI = &v
	}
	p.UpdatedAt = s.fromUnix(updatedAt)
	return &p, nil
}

// UpsertProfile 新增或覆寫個人檔案
func (s *Store) UpsertProfile(ctx context.Context, p *nutrition.Profile) error {
	var target sql.NullInt64
	if p.TargetKcal != nil {
		target = sql.NullInt64{Int64: int64(*p.TargetKcal), Valid: true}
	}
	var bmi sql.NullFloat64
	if p.BMI != nil {
		bmi = sql.NullFloat64{Float64: *p.BMI, Valid: true}
	}

	p.UpdatedAt = s.now().In(s.loc).Truncate(time.Second)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, weight_kg, height_cm, age, sex, activity, objective, target_kcal, bmi, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			weight_kg = excluded.weight_kg,
			height_cm = excluded.height_cm,
			age = excluded.age,
			sex = excluded.sex,
			activity = excluded.activity,
			objective = excluded.objective,
			target_kcal = excluded.target_kcal,
			bmi = excluded.bmi,
			updated_at = excluded.updated_at`,
		p.UserID, p.WeightKg, p.HeightCm, p.Age, string(p.Sex), string(p.Activity), string(p.Objective), target, bmi, p.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
