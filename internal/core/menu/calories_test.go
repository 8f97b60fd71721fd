package menu

import (
	"math"
	"testing"
)

func TestAllocate(t *testing.T) {
	tests := []struct {
		target int
		want   Allocation
	}{
		{2000, Allocation{SlotBreakfast: 500, SlotLunch: 700, SlotDinner: 600, SlotSnack: 200}},
		{2100, Allocation{SlotBreakfast: 525, SlotLunch: 735, SlotDinner: 630, SlotSnack: 210}},
		// 四捨五入後總和可能不等於目標
		{1001, Allocation{SlotBreakfast: 250, SlotLunch: 350, SlotDinner: 300, SlotSnack: 100}},
	}

	for _, tt := range tests {
		got := Allocate(tt.target)
		for _, slot := range Slots {
			if got[slot] != tt.want[slot] {
				t.Errorf("Allocate(%d)[%s]: expected %d, got %d", tt.target, slot, tt.want[slot], got[slot])
			}
		}
	}
}

func TestRescale(t *testing.T) {
	tests := []struct {
		name           string
		base, target   float64
		wantMultiplier float64
		wantKcal       int
	}{
		{"WithinBounds", 200, 300, 1.5, 300},
		{"ClampedHigh", 200, 800, 2.0, 800},
		{"ClampedLow", 800, 200, 0.5, 200},
		{"Identity", 450, 450, 1.0, 450},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rescale(tt.base, tt.target)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got.Multiplier != tt.wantMultiplier {
				t.Errorf("Expected multiplier %v, got %v", tt.wantMultiplier, got.Multiplier)
			}
			if got.AdjustedKcal != tt.wantKcal {
				t.Errorf("Expected adjusted kcal %d, got %d", tt.wantKcal, got.AdjustedKcal)
			}
		})
	}

	t.Run("InvalidBase", func(t *testing.T) {
		for _, base := range []float64{0, -100, math.NaN(), math.Inf(1)} {
			if _, err := Rescale(base, 500); err == nil {
				t.Errorf("Expected error for base %v", base)
			}
		}
	})
}
