// Package nutrition 提供個人檔案相關的營養計算：BMI 與每日熱量目標。
package nutrition

import (
	"fmt"
	"math"
	"time"
)

// Sex 性別
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
	SexOther  Sex = "O"
)

// Activity 活動量
type Activity string

const (
	ActivitySedentary  Activity = "sedentario"
	ActivityLight      Activity = "ligero"
	ActivityModerate   Activity = "moderado"
	ActivityActive     Activity = "activo"
	ActivityVeryActive Activity = "muy_activo"
)

// Objective 體重目標
type Objective string

const (
	ObjectiveLose     Objective = "perder"
	ObjectiveMaintain Objective = "mantener"
	ObjectiveGain     Objective = "ganar"
)

// BMICategory BMI 分類
type BMICategory string

const (
	BMIUnderweight BMICategory = "bajo_peso"
	BMINormal      BMICategory = "normal"
	BMIOverweight  BMICategory = "sobrepeso"
	BMIObese       BMICategory = "obesidad"
)

var activityMultipliers = map[Activity]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

// 每日熱量赤字/盈餘
const objectiveAdjustment = 500

// Profile 使用者個人檔案
type Profile struct {
	UserID     string    `json:"userId"`
	WeightKg   float64   `json:"weightKg"`
	HeightCm   float64   `json:"heightCm"`
	Age        int       `json:"age"`
	Sex        Sex       `json:"sex,omitempty"`
	Activity   Activity  `json:"activity,omitempty"`
	Objective  Objective `json:"objective,omitempty"`
	TargetKcal *int      `json:"targetKcal,omitempty"`
	BMI        *float64  `json:"bmi,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// HasTarget 是否已有每日熱量目標
func (p *Profile) HasTarget() bool {
	return p != nil && p.TargetKcal != nil && *p.TargetKcal > 0
}

// Valid 檢查列舉值
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexOther
}

// Valid 檢查列舉值
func (a Activity) Valid() bool {
	_, ok := activityMultipliers[a]
	return ok
}

// Valid 檢查列舉值
func (o Objective) Valid() bool {
	return o == ObjectiveLose || o == ObjectiveMaintain || o == ObjectiveGain
}

// BMI 計算身體質量指數，四捨五入到一位小數
func BMI(weightKg, heightCm float64) (float64, error) {
	if weightKg <= 0 || heightCm <= 0 {
		return 0, fmt.Errorf("weight and height must be positive")
	}
	m := heightCm / 100
	bmi := weightKg / (m * m)
	return math.Round(bmi*10) / 10, nil
}

// CategoryFor 依 BMI 取得分類
func CategoryFor(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return BMIUnderweight
	case bmi < 25:
		return BMINormal
	case bmi < 30:
		return BMIOverweight
	default:
		return BMIObese
	}
}

// DailyCalories 以 Mifflin-St Jeor 公式計算每日熱量目標
func DailyCalories(weightKg, heightCm float64, age int, sex Sex, activity Activity, objective Objective) (int, error) {
	multiplier, ok := activityMultipliers[activity]
	if !ok {
		return 0, fmt.Errorf("unknown activity level %q", activity)
	}

	bmr := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if sex == SexMale {
		bmr += 5
	} else {
		bmr -= 161
	}

	target := bmr * multiplier
	switch objective {
	case ObjectiveLose:
		target -= objectiveAdjustment
	case ObjectiveGain:
		target += objectiveAdjustment
	}

	return int(math.Round(target)), nil
}

// Derive 依身體資料重新計算 BMI 與熱量目標。
// 熱量目標只在性別、活動量與目標齊全時計算，否則清除。
func (p *Profile) Derive() error {
	bmi, err := BMI(p.WeightKg, p.HeightCm)
	if err != nil {
		return err
	}
	p.BMI = &bmi

	p.TargetKcal = nil
	if p.Sex != "" && p.Activity != "" && p.Objective != "" {
		kcal, err := DailyCalories(p.WeightKg, p.HeightCm, p.Age, p.Sex, p.Activity, p.Objective)
		if err != nil {
			return err
		}
		p.TargetKcal = &kcal
	}
	return nil
}
