package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"menu-planner/internal/core/menu"
	"menu-planner/internal/pkg/common"
)

// FindCurrentPlan week_start >= q.WeekStart，依 week_start 降冪取第一筆，不含天與餐
func (s *Store) FindCurrentPlan(ctx context.Context, q menu.CurrentPlanQuery) (*menu.Plan, error) {
	plans, err := s.findPlansFrom(ctx, s.db, q, 1)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}
	return &plans[0], nil
}

func (s *Store) findPlansFrom(ctx context.Context, q querier, query menu.CurrentPlanQuery, limit int) ([]menu.Plan, error) {
	stmt := `SELECT id, user_id, week_start, target_kcal, created_at FROM weekly_plans
		WHERE user_id = ? AND week_start >= ? ORDER BY week_start DESC`
	args := []any{query.UserID, query.WeekStart.Unix()}
	if limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []menu.Plan
	for rows.Next() {
		p, err := s.scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (s *Store) scanPlan(row interface{ Scan(...any) error }) (menu.Plan, error) {
	var (
		p                  menu.Plan
		weekStart, created int64
	)
	if err := row.Scan(&p.ID, &p.UserID, &weekStart, &p.TargetKcal, &created); err != nil {
		return p, err
	}
	p.WeekStartDate = s.fromUnix(weekStart)
	p.CreatedAt = s.fromUnix(created)
	return p, nil
}

// GetPlan 取得完整菜單，天依日期排序、餐依建立順序；不存在時回傳 nil, nil
func (s *Store) GetPlan(ctx context.Context, planID string) (*menu.Plan, error) {
	plan, err := s.scanPlan(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, week_start, target_kcal, created_at FROM weekly_plans WHERE id = ?`, planID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query plan: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, plan_id, date FROM plan_days WHERE plan_id = ? ORDER BY date, rowid`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer rows.Close()

	index := map[string]int{}
	plan.Days = []menu.Day{}
	for rows.Next() {
		var (
			d    menu.Day
			date int64
		)
		if err := rows.Scan(&d.ID, &d.PlanID, &date); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		d.Date = s.fromUnix(date)
		d.Meals = []menu.Meal{}
		index[d.ID] = len(plan.Days)
		plan.Days = append(plan.Days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	meals, err := s.queryMeals(ctx, s.db, `
		SELECT m.id, m.day_id, m.meal_slot, m.title, m.recipe, m.total_kcal, m.locked
		FROM plan_meals m JOIN plan_days d ON d.id = m.day_id
		WHERE d.plan_id = ? ORDER BY m.rowid`, planID)
	if err != nil {
		return nil, err
	}
	for _, m := range meals {
		if i, ok := index[m.DayID]; ok {
			plan.Days[i].Meals = append(plan.Days[i].Meals, m)
		}
	}
	return &plan, nil
}

func (s *Store) queryMeals(ctx context.Context, q querier, query string, args ...any) ([]menu.Meal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []menu.Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

func scanMeal(row interface{ Scan(...any) error }, extra ...any) (menu.Meal, error) {
	var (
		m      menu.Meal
		recipe string
	)
	dest := append([]any{&m.ID, &m.DayID, &m.MealSlot, &m.Title, &recipe, &m.TotalKcal, &m.Locked}, extra...)
	if err := row.Scan(dest...); err != nil {
		return m, err
	}
	if err := common.ParseJSON(recipe, &m.Recipe); err != nil {
		return m, fmt.Errorf("failed to decode recipe of meal %s: %w", m.ID, err)
	}
	return m, nil
}

// WithinTx 在單一交易中執行 fn；fn 回傳錯誤或 ctx 取消時回滾
func (s *Store) WithinTx(ctx context.Context, fn func(tx menu.PlanTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&planTx{store: s, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// planTx 交易內只使用 tx，連線池只有一條連線
type planTx struct {
	store *Store
	tx    *sql.Tx
}

func (t *planTx) FindPlansFrom(ctx context.Context, q menu.CurrentPlanQuery) ([]menu.Plan, error) {
	return t.store.findPlansFrom(ctx, t.tx, q, 0)
}

// DeletePlanCascade 依序刪除餐、天、菜單
func (t *planTx) DeletePlanCascade(ctx context.Context, planID string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM plan_meals WHERE day_id IN (SELECT id FROM plan_days WHERE plan_id = ?)`, planID); err != nil {
		return fmt.Errorf("failed to delete meals: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM plan_days WHERE plan_id = ?`, planID); err != nil {
		return fmt.Errorf("failed to delete days: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM weekly_plans WHERE id = ?`, planID); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return nil
}

func (t *planTx) CreatePlan(ctx context.Context, userID string, weekStart time.Time, targetKcal int) (*menu.Plan, error) {
	p := &menu.Plan{
		ID:            common.GenerateUUID(),
		UserID:        userID,
		WeekStartDate: weekStart,
		TargetKcal:    targetKcal,
		CreatedAt:     t.store.now().In(t.store.loc).Truncate(time.Second),
	}
	_, err := t.tx.ExecContext(ctx, `INSERT INTO weekly_plans (id, user_id, week_start, target_kcal, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, weekStart.Unix(), p.TargetKcal, p.CreatedAt.Unix())
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (t *planTx) CreateDay(ctx context.Context, planID string, date time.Time) (*menu.Day, error) {
	d := &menu.Day{ID: common.GenerateUUID(), PlanID: planID, Date: date}
	if _, err := t.tx.ExecContext(ctx, `INSERT INTO plan_days (id, plan_id, date) VALUES (?, ?, ?)`, d.ID, planID, date.Unix()); err != nil {
		return nil, err
	}
	return d, nil
}

// CreateMeal 新增餐點，locked 一律為 false
func (t *planTx) CreateMeal(ctx context.Context, dayID string, meal menu.Meal) (*menu.Meal, error) {
	meal.ID = common.GenerateUUID()
	meal.DayID = dayID
	meal.Locked = false
	if meal.Recipe.Ingredients == nil {
		meal.Recipe.Ingredients = []menu.Ingredient{}
	}

	recipe, err := common.ToJSON(meal.Recipe)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipe: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `INSERT INTO plan_meals (id, day_id, meal_slot, title, recipe, total_kcal, locked) VALUES (?, ?, ?, ?, ?, ?, 0)`,
		meal.ID, dayID, string(meal.MealSlot), meal.Title, recipe, meal.TotalKcal)
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

// GetDayWithOwner 取得某天與其餐點，以及菜單擁有者；不存在時回傳 nil
func (s *Store) GetDayWithOwner(ctx context.Context, dayID string) (*menu.Day, string, error) {
	var (
		d     menu.Day
		date  int64
		owner string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.plan_id, d.date, p.user_id
		FROM plan_days d JOIN weekly_plans p ON p.id = d.plan_id
		WHERE d.id = ?`, dayID).Scan(&d.ID, &d.PlanID, &date, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query day: %w", err)
	}
	d.Date = s.fromUnix(date)

	meals, err := s.queryMeals(ctx, s.db, `
		SELECT id, day_id, meal_slot, title, recipe, total_kcal, locked
		FROM plan_meals WHERE day_id = ? ORDER BY rowid`, dayID)
	if err != nil {
		return nil, "", err
	}
	d.Meals = meals
	if d.Meals == nil {
		d.Meals = []menu.Meal{}
	}
	return &d, owner, nil
}

// GetMealWithOwner 取得餐點與菜單擁有者；不存在時回傳 nil
func (s *Store) GetMealWithOwner(ctx context.Context, mealID string) (*menu.Meal, string, error) {
	var owner string
	row := s.db.QueryRowContext(ctx, `
		SELECT m.id, m.day_id, m.meal_slot, m.title, m.recipe, m.total_kcal, m.locked, p.user_id
		FROM plan_meals m
		JOIN plan_days d ON d.id = m.day_id
		JOIN weekly_plans p ON p.id = d.plan_id
		WHERE m.id = ?`, mealID)
	m, err := scanMeal(row, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query meal: %w", err)
	}
	return &m, owner, nil
}

// UpdateMeals 在單一交易中更新餐點內容與 locked 旗標
func (s *Store) UpdateMeals(ctx context.Context, meals []menu.Meal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range meals {
		recipe, err := common.ToJSON(m.Recipe)
		if err != nil {
			return fmt.Errorf("failed to encode recipe: %w", err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE plan_meals SET title = ?, recipe = ?, total_kcal = ?, locked = ? WHERE id = ?`,
			m.Title, recipe, m.TotalKcal, m.Locked, m.ID)
		if err != nil {
			return fmt.Errorf("failed to update meal %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}
