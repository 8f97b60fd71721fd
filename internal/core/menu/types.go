package menu

import (
	"context"
	"time"

	"menu-planner/internal/core/nutrition"
)

// MealSlot 一天中的餐別
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotDinner    MealSlot = "dinner"
	SlotSnack     MealSlot = "snack"
)

// Slots 每天依序處理的餐別
var Slots = []MealSlot{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack}

// DaysPerWeek 每份週菜單的天數
const DaysPerWeek = 7

// Valid 檢查餐別是否合法
func (s MealSlot) Valid() bool {
	switch s {
	case SlotBreakfast, SlotLunch, SlotDinner, SlotSnack:
		return true
	}
	return false
}

// Ingredient 食材；KcalPer100g 只出現在食譜目錄
type Ingredient struct {
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	KcalPer100g float64 `json:"kcalPer100g,omitempty"`
}

// Recipe 食譜目錄中的一筆
type Recipe struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	MealSlot       MealSlot     `json:"mealSlot"`
	Ingredients    []Ingredient `json:"ingredients"`
	TotalKcal      float64      `json:"totalKcal"`
	KcalPerServing float64      `json:"kcalPerServing"`
	Servings       int          `json:"servings"`
	Tags           []string     `json:"tags,omitempty"`
}

// RecipeMatch 食譜與食物櫃的比對結果
type RecipeMatch struct {
	MatchPercentage          float64  `json:"matchPercentage"`
	AvailableIngredientNames []string `json:"availableIngredientNames"`
	MissingIngredientNames   []string `json:"missingIngredientNames"`
}

// RecipeBody 菜單餐點的食譜內容
type RecipeBody struct {
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions string       `json:"instructions"`
}

// Meal 菜單中的一餐
type Meal struct {
	ID        string     `json:"id"`
	DayID     string     `json:"dayId"`
	MealSlot  MealSlot   `json:"mealSlot"`
	Title     string     `json:"title"`
	Recipe    RecipeBody `json:"recipe"`
	TotalKcal int        `json:"totalKcal"`
	Locked    bool       `json:"locked"`
}

// Day 菜單中的一天
type Day struct {
	ID     string    `json:"id"`
	PlanID string    `json:"planId"`
	Date   time.Time `json:"date"`
	Meals  []Meal    `json:"meals"`
}

// Plan 週菜單
type Plan struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	WeekStartDate time.Time `json:"weekStartDate"`
	TargetKcal    int       `json:"targetKcal"`
	CreatedAt     time.Time `json:"createdAt"`
	Days          []Day     `json:"days"`
}

// Food 食物參考資料
type Food struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	KcalPer100g float64   `json:"kcalPer100g"`
	UnitType    string    `json:"unitType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PantryEntry 食物櫃原始資料，FoodID 不為空時名稱取自連結的食物
type PantryEntry struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	FoodID      string     `json:"foodId,omitempty"`
	FoodName    string     `json:"foodName,omitempty"`
	KcalPer100g float64    `json:"kcalPer100g,omitempty"`
	CustomName  string     `json:"customName,omitempty"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// EffectiveName 連結食物時用食物名稱，否則用自訂名稱
func (e PantryEntry) EffectiveName() string {
	if e.FoodID != "" {
		return e.FoodName
	}
	return e.CustomName
}

// PantryItem 食物櫃快照中的一項
type PantryItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// CurrentPlanQuery 「目前週菜單」的查詢條件：
// week_start >= WeekStart，依 week_start 降冪排序，取第一筆。
// 取代舊菜單時則刪除所有符合條件的菜單。
type CurrentPlanQuery struct {
	UserID    string
	WeekStart time.Time
}

// ProfileReader 讀取個人檔案，不存在時回傳 nil, nil
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*nutrition.Profile, error)
}

// PantrySource 依建立順序列出使用者的食物櫃資料
type PantrySource interface {
	ListPantryEntries(ctx context.Context, userID string) ([]PantryEntry, error)
}

// RecipeCatalog 唯讀食譜目錄，依插入順序回傳
type RecipeCatalog interface {
	ListRecipes(ctx context.Context) ([]Recipe, error)
}

// PlanStore 週菜單儲存
type PlanStore interface {
	// FindCurrentPlan 依 CurrentPlanQuery 取得菜單（不含天與餐），沒有時回傳 nil, nil
	FindCurrentPlan(ctx context.Context, q CurrentPlanQuery) (*Plan, error)
	// GetPlan 取得完整菜單，天依日期排序
	GetPlan(ctx context.Context, planID string) (*Plan, error)
	// WithinTx 在單一交易中執行，fn 回傳錯誤時回滾
	WithinTx(ctx context.Context, fn func(tx PlanTx) error) error
}

// PlanTx 交易內的菜單寫入操作
type PlanTx interface {
	FindPlansFrom(ctx context.Context, q CurrentPlanQuery) ([]Plan, error)
	DeletePlanCascade(ctx context.Context, planID string) error
	CreatePlan(ctx context.Context, userID string, weekStart time.Time, targetKcal int) (*Plan, error)
	CreateDay(ctx context.Context, planID string, date time.Time) (*Day, error)
	CreateMeal(ctx context.Context, dayID string, meal Meal) (*Meal, error)
}

// TextGenerator 外部文字生成服務，輸出視為不可信文字
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Locker 每位使用者的生成鎖
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
