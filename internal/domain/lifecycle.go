package domain

import (
	"math"
	"time"
)

// quarterWindow es el número de registros consecutivos (ordenados por fecha) que
// se suman en un "trimestre". Es posicional, no de calendario: un producto con varios
// registros por día tiene trimestres más cortos en el tiempo que uno diario.
const quarterWindow = 90

// Stage es una etapa del ciclo de vida del producto.
type Stage string

const (
	StageIntroduction Stage = "introduction"
	StageGrowth       Stage = "growth"
	StageMaturity     Stage = "maturity"
	StageDecline      Stage = "decline"
)

// LifecycleMetrics son las métricas base de las que se deriva la etapa.
type LifecycleMetrics struct {
	GrowthRate          float64 `json:"growth_rate"`
	GrowthVolatility    float64 `json:"growth_volatility"`
	MarketSaturation    float64 `json:"market_saturation"`
	CompetitivePressure float64 `json:"competitive_pressure"`

	// MarketShare no se puede calcular solo con el historial; queda en 0 y
	// los umbrales de clasificación que dependen de él se mantienen igual.
	MarketShare float64 `json:"-"`
}

// LifecycleComputed contiene los valores derivados de LifecycleMetrics.
type LifecycleComputed struct {
	CurrentStage        Stage   `json:"current_stage"`
	DaysInStage         int     `json:"days_in_stage"`
	StageTransitionRisk float64 `json:"stage_transition_risk"`
}

// LifecycleResult es la vista de ciclo de vida de un producto.
type LifecycleResult struct {
	Metrics        LifecycleMetrics  `json:"metrics"`
	StageStartDate string            `json:"stage_start_date,omitempty"`
	Computed       LifecycleComputed `json:"computed"`
}

// LifecycleAnalyzer clasifica la etapa del ciclo de vida. Now da el instante
// de evaluación para days_in_stage; nil significa time.Now.
type LifecycleAnalyzer struct {
	Now func() time.Time
}

// NewLifecycleAnalyzer devuelve un analizador evaluado en now().
func NewLifecycleAnalyzer(now func() time.Time) *LifecycleAnalyzer {
	return &LifecycleAnalyzer{Now: now}
}

// Compute deriva las métricas y la etapa. Un historial nil devuelve (nil, nil).
func (a *LifecycleAnalyzer) Compute(history SalesHistory) (*LifecycleResult, error) {
	if history == nil {
		return nil, nil
	}

	obs, err := history.SortedObservations()
	if err != nil {
		return nil, err
	}

	result := &LifecycleResult{}
	if len(obs) > 0 {
		quarters := QuarterSales(obs)
		growth := GrowthRates(quarters)

		result.Metrics = LifecycleMetrics{
			GrowthRate:          mean(growth),
			GrowthVolatility:    math.Min(1.0, populationStdDev(growth)),
			MarketSaturation:    marketSaturation(quarters),
			CompetitivePressure: CompetitivePressure(obs),
		}
		result.StageStartDate = obs[0].Record.Date
		result.Computed.DaysInStage = daysSince(obs[0].At, a.now())
	}

	result.Computed.CurrentStage = ClassifyStage(result.Metrics)
	result.Computed.StageTransitionRisk = TransitionRisk(result.Metrics)

	if err := checkFinite("domain.LifecycleAnalyzer.Compute", map[string]float64{
		"growth_rate":           result.Metrics.GrowthRate,
		"growth_volatility":     result.Metrics.GrowthVolatility,
		"market_saturation":     result.Metrics.MarketSaturation,
		"competitive_pressure":  result.Metrics.CompetitivePressure,
		"stage_transition_risk": result.Computed.StageTransitionRisk,
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *LifecycleAnalyzer) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// QuarterSales suma ventas en ventanas consecutivas de quarterWindow registros.
// El input debe venir ordenado por fecha. La última ventana puede ser más corta.
func QuarterSales(sorted []Observation) []float64 {
	quarters := make([]float64, 0, (len(sorted)+quarterWindow-1)/quarterWindow)
	for i := 0; i < len(sorted); i += quarterWindow {
		end := min(i+quarterWindow, len(sorted))
		sum := 0
		for _, o := range sorted[i:end] {
			sum += o.Record.Sales
		}
		quarters = append(quarters, float64(sum))
	}
	return quarters
}

// GrowthRates devuelve (Q[i]-Q[i-1])/Q[i-1] para trimestres consecutivos.
// Los pasos cuyo trimestre anterior es 0 se saltan, no cuentan como 0.
func GrowthRates(quarters []float64) []float64 {
	var rates []float64
	for i := 1; i < len(quarters); i++ {
		if quarters[i-1] > 0 {
			rates = append(rates, (quarters[i]-quarters[i-1])/quarters[i-1])
		}
	}
	return rates
}

// marketSaturation es el último trimestre relativo al trimestre pico.
func marketSaturation(quarters []float64) float64 {
	if len(quarters) == 0 {
		return 0
	}
	peak := quarters[0]
	for _, q := range quarters[1:] {
		peak = math.Max(peak, q)
	}
	if peak <= 0 {
		return 0
	}
	return quarters[len(quarters)-1] / peak
}

// CompetitivePressure combina el cambio relativo medio de precio (70%) con la
// tasa de devolución global (30%), con tope en 1. El input debe ir ordenado por fecha.
func CompetitivePressure(sorted []Observation) float64 {
	if len(sorted) == 0 {
		return 0
	}

	var changes []float64
	totalSales, totalReturns := 0, 0
	for i, o := range sorted {
		totalSales += o.Record.Sales
		totalReturns += o.Record.Returns
		if i == 0 {
			continue
		}
		prev := sorted[i-1].Record.Price
		if prev == 0 {
			continue
		}
		changes = append(changes, math.Abs(o.Record.Price-prev)/prev)
	}

	priceVolatility := mean(changes)
	returnRate := ratio(float64(totalReturns), float64(totalSales))
	return math.Min(1.0, 0.7*priceVolatility+0.3*returnRate)
}

// ClassifyStage mapea growth rate y market share a una etapa. Con MarketShare
// siempre en 0 solo se alcanzan "decline" e "introduction".
func ClassifyStage(m LifecycleMetrics) Stage {
	switch {
	case m.GrowthRate < 0 && m.MarketShare < 0.1:
		return StageDecline
	case m.GrowthRate < 0.05 && m.MarketShare >= 0.1:
		return StageMaturity
	case m.GrowthRate >= 0.05 && m.MarketShare >= 0.05:
		return StageGrowth
	default:
		return StageIntroduction
	}
}

// TransitionRisk es el riesgo ponderado de salir de la etapa actual, en [0, 1].
func TransitionRisk(m LifecycleMetrics) float64 {
	return clamp01(0.4*m.GrowthVolatility + 0.3*m.MarketSaturation + 0.3*m.CompetitivePressure)
}

// daysSince cuenta días completos de start a now, nunca negativo.
func daysSince(start, now time.Time) int {
	days := int(now.Sub(start).Hours() / 24)
	return max(0, days)
}
