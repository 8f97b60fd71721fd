package menu

import (
	"fmt"
	"math"
)

// 各餐別佔每日熱量的比例
var slotWeights = map[MealSlot]float64{
	SlotBreakfast: 0.25,
	SlotLunch:     0.35,
	SlotDinner:    0.30,
	SlotSnack:     0.10,
}

const (
	minMultiplier = 0.5
	maxMultiplier = 2.0
)

// Allocation 每個餐別的目標熱量
type Allocation map[MealSlot]int

// Allocate 以固定比例分配每日熱量；四捨五入後的總和不一定等於目標
func Allocate(dailyTarget int) Allocation {
	alloc := make(Allocation, len(slotWeights))
	for slot, w := range slotWeights {
		alloc[slot] = int(math.Round(float64(dailyTarget) * w))
	}
	return alloc
}

// Rescaled 熱量調整結果
type Rescaled struct {
	// Multiplier 套用到食材數量的倍率，限制在 [0.5, 2.0]
	Multiplier float64
	// AdjustedKcal 以未限制的倍率計算的熱量
	AdjustedKcal int
}

// Rescale 將食譜基礎熱量調整到目標熱量。
// AdjustedKcal 使用未限制的倍率，Multiplier 使用限制後的倍率。
func Rescale(baseKcal, targetKcal float64) (Rescaled, error) {
	if baseKcal <= 0 || math.IsNaN(baseKcal) || math.IsInf(baseKcal, 0) {
		return Rescaled{}, fmt.Errorf("invalid base kcal %v", baseKcal)
	}

	ratio := targetKcal / baseKcal
	return Rescaled{
		Multiplier:   math.Max(minMultiplier, math.Min(maxMultiplier, ratio)),
		AdjustedKcal: int(math.Round(baseKcal * ratio)),
	}, nil
}
