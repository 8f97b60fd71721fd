// Package tracking 記錄使用者的 BMI 歷史與每日飲食。
package tracking

import (
	"context"
	"net/http"
	"strings"
	"time"

	"menu-planner/internal/core/menu"
	"menu-planner/internal/core/nutrition"
	"menu-planner/internal/pkg/common"
)

// BMI 歷史預設回傳筆數
const HistoryLimit = 30

// 錯誤
var (
	ErrMealLogNotFound = common.NewError(common.ErrCodeNotFound, "Comida no encontrada", http.StatusNotFound, nil)
	ErrFoodNotFound    = common.NewError(common.ErrCodeNotFound, "Alimento no encontrado", http.StatusNotFound, nil)
	ErrInvalidBody     = common.NewError(common.ErrCodeInvalidRequest, "peso y altura deben ser mayores que cero", http.StatusBadRequest, nil)
)

// BMIEntry 一筆 BMI 紀錄
type BMIEntry struct {
	ID        string                `json:"id"`
	UserID    string                `json:"userId"`
	WeightKg  float64               `json:"weightKg"`
	HeightCm  float64               `json:"heightCm"`
	BMI       float64               `json:"bmi"`
	Category  nutrition.BMICategory `json:"category"`
	CreatedAt time.Time             `json:"createdAt"`
}

// MealItem 飲食紀錄中的一項食物
type MealItem struct {
	ID            string  `json:"id"`
	MealLogID     string  `json:"mealLogId"`
	FoodID        string  `json:"foodId,omitempty"`
	FoodName      string  `json:"foodName,omitempty"`
	CustomName    string  `json:"customName,omitempty"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
	EstimatedKcal float64 `json:"estimatedKcal"`
}

// Name 連結食物時用食物名稱，否則用自訂名稱
func (i MealItem) Name() string {
	if i.FoodID != "" && strings.TrimSpace(i.FoodName) != "" {
		return i.FoodName
	}
	return i.CustomName
}

// MealLog 某天某一餐的飲食紀錄
type MealLog struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Date      time.Time     `json:"date"`
	MealType  menu.MealSlot `json:"mealType"`
	Items     []MealItem    `json:"items"`
	TotalKcal float64       `json:"totalKcal"`
}

// SumItems 重新計算 TotalKcal
func (l *MealLog) SumItems() {
	var total float64
	for _, it := range l.Items {
		total += it.EstimatedKcal
	}
	l.TotalKcal = common.RoundTo(total, 1)
}

// BMIStore BMI 歷史存取；RecordBMI 需同時更新個人檔案的 BMI
type BMIStore interface {
	RecordBMI(ctx context.Context, entry *BMIEntry) error
	ListBMIHistory(ctx context.Context, userID string, limit int) ([]BMIEntry, error)
}

// MealLogStore 飲食紀錄存取；replaceItems 為 true 時整批取代食物項目
type MealLogStore interface {
	CreateMealLog(ctx context.Context, log *MealLog) error
	ListMealLogs(ctx context.Context, userID string, from, to time.Time) ([]MealLog, error)
	GetMealLog(ctx context.Context, id string) (*MealLog, error)
	UpdateMealLog(ctx context.Context, log *MealLog, replaceItems bool) error
	DeleteMealLog(ctx context.Context, id string) error
}

// FoodLookup 依 id 取得食物
type FoodLookup interface {
	GetFood(ctx context.Context, id string) (*menu.Food, error)
}
