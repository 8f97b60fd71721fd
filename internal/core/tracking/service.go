package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"menu-planner/internal/core/menu"
	"menu-planner/internal/core/nutrition"
	"menu-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// ItemInput 新增或取代飲食紀錄時的一項食物
type ItemInput struct {
	FoodID        string
	CustomName    string
	Quantity      float64
	Unit          string
	EstimatedKcal *float64
}

// MealInput 新增飲食紀錄
type MealInput struct {
	Date     time.Time
	MealType menu.MealSlot
	Items    []ItemInput
}

// MealPatch 部分更新；Items 為 nil 時保留原本的項目
type MealPatch struct {
	Date     *time.Time
	MealType *menu.MealSlot
	Items    []ItemInput
}

// Service BMI 與飲食紀錄
type Service struct {
	bmi   BMIStore
	meals MealLogStore
	foods FoodLookup
	loc   *time.Location
	now   func() time.Time
}

// NewService 創建紀錄服務；日期邊界以 loc 計算
func NewService(bmi BMIStore, meals MealLogStore, foods FoodLookup, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{bmi: bmi, meals: meals, foods: foods, loc: loc, now: time.Now}
}

// RecordBMI 計算 BMI，寫入歷史並更新個人檔案
func (s *Service) RecordBMI(ctx context.Context, userID string, weightKg, heightCm float64) (*BMIEntry, error) {
	bmi, err := nutrition.BMI(weightKg, heightCm)
	if err != nil {
		return nil, ErrInvalidBody.Wrap(err)
	}

	entry := &BMIEntry{
		ID:        common.GenerateUUID(),
		UserID:    userID,
		WeightKg:  weightKg,
		HeightCm:  heightCm,
		BMI:       bmi,
		Category:  nutrition.CategoryFor(bmi),
		CreatedAt: s.now().In(s.loc).Truncate(time.Second),
	}
	if err := s.bmi.RecordBMI(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record bmi: %w", err)
	}

	common.LogInfo("BMI 已記錄",
		zap.String("user_id", userID),
		zap.Float64("bmi", bmi),
		zap.String("category", string(entry.Category)),
	)
	return entry, nil
}

// BMIHistory 由新到舊最多 HistoryLimit 筆
func (s *Service) BMIHistory(ctx context.Context, userID string) ([]BMIEntry, error) {
	history, err := s.bmi.ListBMIHistory(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bmi history: %w", err)
	}
	if history == nil {
		history = []BMIEntry{}
	}
	return history, nil
}

// ParseDate 接受 RFC3339 或 YYYY-MM-DD；只有日期時視為服務時區的午夜
func (s *Service) ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.In(s.loc), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", v)
	}
	return t, nil
}

// Today 服務時區的今天午夜
func (s *Service) Today() time.Time {
	return s.startOfDay(s.now())
}

func (s *Service) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// MealsOn 列出某天的飲食紀錄，依時間排序
func (s *Service) MealsOn(ctx context.Context, userID string, day time.Time) ([]MealLog, error) {
	from := s.startOfDay(day)
	logs, err := s.meals.ListMealLogs(ctx, userID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to list meal logs: %w", err)
	}
	if logs == nil {
		logs = []MealLog{}
	}
	return logs, nil
}

// LogMeal 新增飲食紀錄並估計每項熱量
func (s *Service) LogMeal(ctx context.Context, userID string, in MealInput) (*MealLog, error) {
	items, err := s.buildItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	log := &MealLog{
		ID:       common.GenerateUUID(),
		UserID:   userID,
		Date:     in.Date.In(s.loc),
		MealType: in.MealType,
		Items:    items,
	}
	for i := range log.Items {
		log.Items[i].MealLogID = log.ID
	}
	log.SumItems()

	if err := s.meals.CreateMealLog(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to create meal log: %w", err)
	}
	return log, nil
}

// UpdateMeal 更新日期、餐別或整批食物項目；不屬於使用者時回傳 ErrMealLogNotFound
func (s *Service) UpdateMeal(ctx context.Context, userID, id string, patch MealPatch) (*MealLog, error) {
	log, err := s.ownedLog(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Date != nil {
		log.Date = patch.Date.In(s.loc)
	}
	if patch.MealType != nil {
		log.MealType = *patch.MealType
	}
	replace := patch.Items != nil
	if replace {
		items, err := s.buildItems(ctx, patch.Items)
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].MealLogID = log.ID
		}
		log.Items = items
	}
	log.SumItems()

	if err := s.meals.UpdateMealLog(ctx, log, replace); err != nil {
		return nil, fmt.Errorf("failed to update meal log: %w", err)
	}
	return log, nil
}

// DeleteMeal 刪除紀錄與其項目
func (s *Service) DeleteMeal(ctx context.Context, userID, id string) error {
	if _, err := s.ownedLog(ctx, userID, id); err != nil {
		return err
	}
	if err := s.meals.DeleteMealLog(ctx, id); err != nil {
		return fmt.Errorf("failed to delete meal log: %w", err)
	}
	return nil
}

func (s *Service) ownedLog(ctx context.Context, userID, id string) (*MealLog, error) {
	log, err := s.meals.GetMealLog(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal log: %w", err)
	}
	if log == nil || log.UserID != userID {
		return nil, ErrMealLogNotFound
	}
	return log, nil
}

// buildItems 連結食物時以 kcalPer100g × 數量 / 100 估計熱量，否則採用傳入的估計值
func (s *Service) buildItems(ctx context.Context, inputs []ItemInput) ([]MealItem, error) {
	items := make([]MealItem, 0, len(inputs))
	for _, in := range inputs {
		item := MealItem{
			ID:         common.GenerateUUID(),
			FoodID:     strings.TrimSpace(in.FoodID),
			CustomName: strings.TrimSpace(in.CustomName),
			Quantity:   in.Quantity,
			Unit:       strings.TrimSpace(in.Unit),
		}
		if item.Unit == "" {
			item.Unit = "g"
		}
		if in.EstimatedKcal != nil {
			item.EstimatedKcal = common.RoundTo(*in.EstimatedKcal, 1)
		}

		if item.FoodID != "" {
			food, err := s.foods.GetFood(ctx, item.FoodID)
			if err != nil {
				return nil, fmt.Errorf("failed to get food: %w", err)
			}
			if food == nil {
				return nil, ErrFoodNotFound
			}
			item.FoodName = food.Name
			item.EstimatedKcal = common.RoundTo(food.KcalPer100g*item.Quantity/100, 1)
		}
		items = append(items, item)
	}
	return items, nil
}
