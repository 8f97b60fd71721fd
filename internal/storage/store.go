// Package storage 以 SQLite 實作個人檔案、食物櫃、食譜目錄與週菜單的存取。
package storage

import (
	"context"
	"database/sql"
	"time"
)

// querier 讓同一段查詢可以在 *sql.DB 或 *sql.Tx 上執行
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store SQLite 存取層
type Store struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

// New 創建存取層；讀出的時間轉換到 loc
func New(db *sql.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{db: db, loc: loc, now: time.Now}
}

func (s *Store) fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).In(s.loc)
}

func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
