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

const pantryColumns = `
	p.id, p.user_id, COALESCE(p.food_id, ''), COALESCE(f.name, ''), COALESCE(f.kcal_per_100g, 0),
	p.custom_name, p.quantity, p.unit, p.expiry_date, p.created_at`

const pantryFrom = `FROM pantry_items p LEFT JOIN foods f ON f.id = p.food_id`

// PantryPatch 食物櫃項目的部分更新，nil 欄位不變更
type PantryPatch struct {
	Quantity   *float64
	Unit       *string
	ExpiryDate **time.Time
}

func (s *Store) scanPantry(row interface{ Scan(...any) error }) (menu.PantryEntry, error) {
	var (
		e       menu.PantryEntry
		expiry  sql.NullInt64
		created int64
	)
	err := row.Scan(&e.ID, &e.UserID, &e.FoodID, &e.FoodName, &e.KcalPer100g,
		&e.CustomName, &e.Quantity, &e.Unit, &expiry, &created)
	if err != nil {
		return e, err
	}
	if expiry.Valid {
		t := s.fromUnix(expiry.Int64)
		e.ExpiryDate = &t
	}
	e.CreatedAt = s.fromUnix(created)
	return e, nil
}

func (s *Store) listPantry(ctx context.Context, userID, order string) ([]menu.PantryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pantryColumns+` `+pantryFrom+`
		WHERE p.user_id = ? ORDER BY `+order, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pantry: %w", err)
	}
	defer rows.Close()

	entries := []menu.PantryEntry{}
	for rows.Next() {
		e, err := s.scanPantry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pantry item: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListPantryEntries 依加入順序列出食物櫃，菜單比對依賴此順序
func (s *Store) ListPantryEntries(ctx context.Context, userID string) ([]menu.PantryEntry, error) {
	return s.listPantry(ctx, userID, "p.created_at ASC, p.rowid ASC")
}

// ListPantryNewestFirst 依加入時間由新到舊列出食物櫃
func (s *Store) ListPantryNewestFirst(ctx context.Context, userID string) ([]menu.PantryEntry, error) {
	return s.listPantry(ctx, userID, "p.created_at DESC, p.rowid DESC")
}

// GetPantryEntry 取得食物櫃項目，不存在時回傳 nil, nil
func (s *Store) GetPantryEntry(ctx context.Context, id string) (*menu.PantryEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pantryColumns+` `+pantryFrom+` WHERE p.id = ?`, id)
	e, err := s.scanPantry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pantry item: %w", err)
	}
	return &e, nil
}

// CreatePantryEntry 新增食物櫃項目並回傳含食物名稱的完整資料
func (s *Store) CreatePantryEntry(ctx context.Context, e *menu.PantryEntry) (*menu.PantryEntry, error) {
	if e.ID == "" {
		e.ID = common.GenerateUUID()
	}
	created := s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pantry_items (id, user_id, food_id, custom_name, quantity, unit, expiry_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, nullString(e.FoodID), e.CustomName, e.Quantity, e.Unit, nullUnix(e.ExpiryDate), created.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert pantry item: %w", err)
	}
	return s.GetPantryEntry(ctx, e.ID)
}

// UpdatePantryEntry 更新使用者自己的食物櫃項目，找不到時回傳 nil, nil
func (s *Store) UpdatePantryEntry(ctx context.Context, userID, id string, patch PantryPatch) (*menu.PantryEntry, error) {
	current, err := s.GetPantryEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil || current.UserID != userID {
		return nil, nil
	}

	if patch.Quantity != nil {
		current.Quantity = *patch.Quantity
	}
	if patch.Unit != nil {
		current.Unit = *patch.Unit
	}
	if patch.ExpiryDate != nil {
		current.ExpiryDate = *patch.ExpiryDate
	}

	_, err = s.db.ExecContext(ctx, `UPDATE pantry_items SET quantity = ?, unit = ?, expiry_date = ? WHERE id = ? AND user_id = ?`,
		current.Quantity, current.Unit, nullUnix(current.ExpiryDate), id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update pantry item: %w", err)
	}
	return current, nil
}

// DeletePantryEntry 刪除使用者自己的食物櫃項目，回傳是否有刪除
func (s *Store) DeletePantryEntry(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete pantry item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
