package menu

import (
	"context"
	"fmt"
	"strings"
)

// SnapshotReader 將食物櫃整理成具名、有數量的清單
type SnapshotReader struct {
	source PantrySource
}

// NewSnapshotReader 創建食物櫃快照讀取器
func NewSnapshotReader(source PantrySource) *SnapshotReader {
	return &SnapshotReader{source: source}
}

// ListPantry 回傳使用者目前的食物櫃快照，名稱為空的項目會被略過
func (r *SnapshotReader) ListPantry(ctx context.Context, userID string) ([]PantryItem, error) {
	entries, err := r.source.ListPantryEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry: %w", err)
	}
	return Snapshot(entries), nil
}

// Snapshot 依連結食物/自訂名稱規則解析名稱，保留原順序
func Snapshot(entries []PantryEntry) []PantryItem {
	items := make([]PantryItem, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.EffectiveName())
		if name == "" {
			continue
		}
		items = append(items, PantryItem{
			ID:       e.ID,
			Name:     name,
			Quantity: e.Quantity,
			Unit:     e.Unit,
		})
	}
	return items
}
