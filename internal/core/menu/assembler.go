package menu

import (
	"context"
	"fmt"
	"time"

	"menu-planner/internal/core/nutrition"
	"menu-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// 使用者可自行修正的前置條件錯誤
var (
	ErrProfileIncomplete = common.NewPreconditionError("Perfil incompleto. Completa tu perfil primero.")
	ErrEmptyPantry       = common.NewPreconditionError("No hay items en la despensa. Agrega alimentos primero.")
)

// Dependencies 週菜單生成器的協作者
type Dependencies struct {
	Profiles    ProfileReader
	Pantry      PantrySource
	Catalog     RecipeCatalog
	Plans       PlanStore
	Locker      Locker
	Selector    *Selector
	Synthesizer *Synthesizer
	Calendar    WeekCalendar
	// Now 預設為 time.Now
	Now func() time.Time
}

// Generator 週菜單生成器
type Generator struct {
	profiles    ProfileReader
	pantry      *SnapshotReader
	catalog     RecipeCatalog
	plans       PlanStore
	locker      Locker
	selector    *Selector
	synthesizer *Synthesizer
	calendar    WeekCalendar
	now         func() time.Time
}

// NewGenerator 創建週菜單生成器
func NewGenerator(deps Dependencies) *Generator {
	g := &Generator{
		profiles:    deps.Profiles,
		pantry:      NewSnapshotReader(deps.Pantry),
		catalog:     deps.Catalog,
		plans:       deps.Plans,
		locker:      deps.Locker,
		selector:    deps.Selector,
		synthesizer: deps.Synthesizer,
		calendar:    deps.Calendar,
		now:         deps.Now,
	}
	if g.selector == nil {
		g.selector = NewSelector(nil, DefaultMatchThreshold)
	}
	if g.synthesizer == nil {
		g.synthesizer = NewSynthesizer(nil, 0)
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

func lockKey(userID string) string {
	return "menu:generate:" + userID
}

// GenerateWeeklyPlan 為使用者生成本週菜單並取代本週既有菜單。
// 整週先在記憶體中組好，再於單一交易中刪除舊菜單並寫入新菜單。
func (g *Generator) GenerateWeeklyPlan(ctx context.Context, userID string) (*Plan, error) {
	if g.locker != nil {
		release, err := g.locker.Acquire(ctx, lockKey(userID))
		if err != nil {
			return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
		}
		defer release()
	}

	profile, err := g.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if !profile.HasTarget() {
		return nil, ErrProfileIncomplete
	}

	pantry, err := g.pantry.ListPantry(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(pantry) == 0 {
		return nil, ErrEmptyPantry
	}

	catalog, err := g.catalog.ListRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	targetKcal := *profile.TargetKcal
	weekStart := g.calendar.WeekStart(g.now())
	dates := g.calendar.DayDates(weekStart)

	started := time.Now()
	days := g.stageWeek(ctx, stageInput{
		Allocation: Allocate(targetKcal),
		Catalog:    catalog,
		Pantry:     pantry,
		Objective:  profile.Objective,
	})

	// 生成途中取消時不寫入，舊菜單維持可見
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := CurrentPlanQuery{UserID: userID, WeekStart: weekStart}
	var planID string
	err = g.plans.WithinTx(ctx, func(tx PlanTx) error {
		prior, err := tx.FindPlansFrom(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to find prior plans: %w", err)
		}
		for _, p := range prior {
			if err := tx.DeletePlanCascade(ctx, p.ID); err != nil {
				return fmt.Errorf("failed to delete plan %s: %w", p.ID, err)
			}
		}

		plan, err := tx.CreatePlan(ctx, userID, weekStart, targetKcal)
		if err != nil {
			return fmt.Errorf("failed to create plan: %w", err)
		}
		planID = plan.ID

		for i, meals := range days {
			day, err := tx.CreateDay(ctx, plan.ID, dates[i])
			if err != nil {
				return fmt.Errorf("failed to create day: %w", err)
			}
			for _, meal := range meals {
				if _, err := tx.CreateMeal(ctx, day.ID, meal); err != nil {
					return fmt.Errorf("failed to create meal: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	common.LogInfo("週菜單已生成",
		zap.String("user_id", userID),
		zap.String("plan_id", planID),
		zap.Time("week_start", weekStart),
		zap.Int("target_kcal", targetKcal),
		zap.Duration("duration", time.Since(started)),
	)

	return g.plans.GetPlan(ctx, planID)
}

type stageInput struct {
	Allocation Allocation
	Catalog    []Recipe
	Pantry     []PantryItem
	Objective  nutrition.Objective
}

// stageWeek 依序處理 7 天 × 4 餐，回傳每天的餐點
func (g *Generator) stageWeek(ctx context.Context, in stageInput) [][]Meal {
	index := NewPantryIndex(in.Pantry)
	used := make(UsedRecipes)
	days := make([][]Meal, DaysPerWeek)

	var fromCatalog, synthesized int
	for d := 0; d < DaysPerWeek; d++ {
		meals := make([]Meal, 0, len(Slots))
		for _, slot := range Slots {
			req := SlotRequest{DayIndex: d, Slot: slot, TargetKcal: in.Allocation[slot]}

			if sel, ok := g.selector.Select(in.Catalog, req, index, used); ok {
				meals = append(meals, sel.Meal)
				fromCatalog++
				continue
			}

			meals = append(meals, g.synthesizer.Synthesize(ctx, SynthesisRequest{
				DayIndex:   d,
				Slot:       slot,
				TargetKcal: req.TargetKcal,
				Objective:  in.Objective,
				Pantry:     in.Pantry,
			}))
			synthesized++
		}
		days[d] = meals
	}

	common.LogDebug("週菜單餐點組裝完成",
		zap.Int("from_catalog", fromCatalog),
		zap.Int("synthesized", synthesized),
	)
	return days
}

// GetCurrentPlan 取得本週或之後最新的菜單，沒有時回傳 nil
func (g *Generator) GetCurrentPlan(ctx context.Context, userID string) (*Plan, error) {
	weekStart := g.calendar.WeekStart(g.now())
	current, err := g.plans.FindCurrentPlan(ctx, CurrentPlanQuery{UserID: userID, WeekStart: weekStart})
	if err != nil {
		return nil, fmt.Errorf("failed to find current plan: %w", err)
	}
	if current == nil {
		return nil, nil
	}
	return g.plans.GetPlan(ctx, current.ID)
}
