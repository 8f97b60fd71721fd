package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"menu-planner/internal/core/nutrition"
	"menu-planner/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	fallbackInstructions = "Prepara según tus preferencias"
	fallbackItemCount    = 3
	fallbackPortion      = 0.3

	// DeadlineReserve 請求截止前保留給寫入菜單的時間
	DeadlineReserve = 2 * time.Second
)

// SynthesisRequest 生成食譜所需的資料
type SynthesisRequest struct {
	DayIndex   int
	Slot       MealSlot
	TargetKcal int
	Objective  nutrition.Objective
	Pantry     []PantryItem
}

// generatedRecipe 生成服務預期回傳的 JSON
type generatedRecipe struct {
	Name         string                `json:"name"`
	Ingredients  []generatedIngredient `json:"ingredients"`
	Instructions string                `json:"instructions"`
	TotalKcal    looseFloat            `json:"totalKcal"`
}

type generatedIngredient struct {
	Name     string     `json:"name"`
	Quantity looseFloat `json:"quantity"`
	Unit     string     `json:"unit"`
}

// looseFloat 接受數字或數字字串（"450"、"150 g"、"1,5"），無法解析時為 0
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		v, _ := n.Float64()
		*f = looseFloat(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*f = 0
		return nil
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.Replace(fields[0], ",", ".", 1), 64)
	if err != nil {
		v = 0
	}
	*f = looseFloat(v)
	return nil
}

// toIngredients 轉成餐點食材，略過沒有名稱的項目
func (g *generatedRecipe) toIngredients() []Ingredient {
	out := make([]Ingredient, 0, len(g.Ingredients))
	for _, in := range g.Ingredients {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		out = append(out, Ingredient{Name: name, Quantity: float64(in.Quantity), Unit: strings.TrimSpace(in.Unit)})
	}
	return out
}

// Synthesizer 目錄中沒有合適食譜時，向生成服務要一份食譜
type Synthesizer struct {
	generator TextGenerator
	timeout   time.Duration
	reserve   time.Duration
	now       func() time.Time
}

// NewSynthesizer 創建食譜生成器；generator 為 nil 時一律使用備用餐點
func NewSynthesizer(generator TextGenerator, timeout time.Duration) *Synthesizer {
	return &Synthesizer{generator: generator, timeout: timeout, reserve: DeadlineReserve, now: time.Now}
}

// hasBudget ctx 的截止時間是否還容得下一次完整的生成呼叫加上寫入保留時間
func (s *Synthesizer) hasBudget(ctx context.Context) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return deadline.Sub(s.now()) >= s.timeout+s.reserve
}

// Synthesize 生成一餐。服務失敗、逾時或回應無法解析時回傳固定的備用餐點，不會回傳錯誤。
func (s *Synthesizer) Synthesize(ctx context.Context, req SynthesisRequest) Meal {
	if s.generator == nil {
		return FallbackMeal(req)
	}
	if !s.hasBudget(ctx) {
		common.LogWarn("剩餘時間不足，使用備用餐點",
			zap.Int("day", req.DayIndex),
			zap.String("slot", string(req.Slot)),
		)
		return FallbackMeal(req)
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	system, user := BuildPrompts(req)
	text, err := s.generator.GenerateText(callCtx, system, user)
	if err != nil {
		common.LogWarn("食譜生成失敗，使用備用餐點",
			zap.Int("day", req.DayIndex),
			zap.String("slot", string(req.Slot)),
			zap.Error(err),
		)
		return FallbackMeal(req)
	}

	gen, err := ParseGeneratedRecipe(text)
	if err != nil {
		common.LogWarn("生成內容無法解析，使用備用餐點",
			zap.Int("day", req.DayIndex),
			zap.String("slot", string(req.Slot)),
			zap.Int("content_length", len(text)),
			zap.Error(err),
		)
		return FallbackMeal(req)
	}

	instructions := strings.TrimSpace(gen.Instructions)
	if instructions == "" {
		instructions = fallbackInstructions
	}
	totalKcal := req.TargetKcal
	if gen.TotalKcal > 0 {
		totalKcal = int(math.Round(float64(gen.TotalKcal)))
	}

	return Meal{
		MealSlot: req.Slot,
		Title:    strings.TrimSpace(gen.Name),
		Recipe: RecipeBody{
			Ingredients:  gen.toIngredients(),
			Instructions: instructions,
		},
		TotalKcal: totalKcal,
	}
}

// ParseGeneratedRecipe 從不可信文字中取出食譜。
// 取第一個括號平衡的 {...}；沒有括號時解析整段文字。name 與 ingredients 為必填。
func ParseGeneratedRecipe(text string) (*generatedRecipe, error) {
	payload, ok := common.ExtractJSONObject(text)
	if !ok {
		payload = strings.TrimSpace(text)
	}

	var gen generatedRecipe
	if err := common.ParseJSON(payload, &gen); err != nil {
		return nil, fmt.Errorf("failed to parse generated recipe: %w", err)
	}
	if strings.TrimSpace(gen.Name) == "" {
		return nil, fmt.Errorf("generated recipe has no name")
	}
	if len(gen.toIngredients()) == 0 {
		return nil, fmt.Errorf("generated recipe has no ingredients")
	}
	return &gen, nil
}

// FallbackMeal 固定的備用餐點：取前三項食物櫃食材的 30%，熱量等於目標
func FallbackMeal(req SynthesisRequest) Meal {
	n := min(fallbackItemCount, len(req.Pantry))
	ingredients := make([]Ingredient, 0, n)
	for _, item := range req.Pantry[:n] {
		ingredients = append(ingredients, Ingredient{
			Name:     item.Name,
			Quantity: math.Round(item.Quantity * fallbackPortion),
			Unit:     item.Unit,
		})
	}

	return Meal{
		MealSlot: req.Slot,
		Title:    common.Capitalize(string(req.Slot)) + " personalizado",
		Recipe: RecipeBody{
			Ingredients:  ingredients,
			Instructions: fallbackInstructions,
		},
		TotalKcal: req.TargetKcal,
	}
}

// objectiveFraming 依體重目標描述食譜方向
func objectiveFraming(o nutrition.Objective) string {
	switch o {
	case nutrition.ObjectiveLose:
		return "perder peso (receta ligera y nutritiva)"
	case nutrition.ObjectiveGain:
		return "ganar peso (receta más calórica y nutritiva)"
	default:
		return "mantener peso (receta balanceada)"
	}
}

// BuildPrompts 組出 system 與 user prompt
func BuildPrompts(req SynthesisRequest) (string, string) {
	names := make([]string, len(req.Pantry))
	for i, item := range req.Pantry {
		names[i] = item.Name
	}

	system := fmt.Sprintf(`Eres un nutricionista experto y chef casero. Genera recetas saludables, fáciles y caseras basadas en ingredientes disponibles.
Las recetas deben ser prácticas, caseras, con ingredientes comunes y fáciles de preparar.

Responde SOLO con un JSON válido con esta estructura:
{
  "name": "Nombre de la receta (atractivo y descriptivo)",
  "ingredients": [
    {"name": "Nombre ingrediente", "quantity": cantidad, "unit": "unidad"}
  ],
  "instructions": "Instrucciones de preparación breves y claras (2-3 pasos)",
  "totalKcal": número de calorías estimadas
}

El objetivo del usuario es %s.
Las calorías objetivo para esta comida son %d kcal.
Genera una receta de tipo %s que sea:
- Fácil de preparar
- Con ingredientes comunes y accesibles
- Deliciosa y casera
- Apropiada para el objetivo nutricional del usuario`, objectiveFraming(req.Objective), req.TargetKcal, req.Slot)

	user := fmt.Sprintf(`Genera una receta casera y fácil usando estos ingredientes disponibles: %s.
La receta debe tener aproximadamente %d kcal.
Puedes usar ingredientes básicos comunes (aceite de oliva, sal, pimienta, ajo, etc.) además de los ingredientes listados.
Haz que sea una receta práctica, deliciosa y que cualquier persona pueda hacer en casa.`, strings.Join(names, ", "), req.TargetKcal)

	return system, user
}
