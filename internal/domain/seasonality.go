package domain

import (
	"math"
	"sort"
	"time"
)

const (
	peakIndexThreshold = 1.1 // 10% sobre la media global
	lowIndexThreshold  = 0.9 // 10% bajo la media global
)

// SeasonalityType gradúa lo marcado que es el patrón estacional.
type SeasonalityType string

const (
	SeasonalityWeak     SeasonalityType = "weak"
	SeasonalityModerate SeasonalityType = "moderate"
	SeasonalityStrong   SeasonalityType = "strong"
)

// SeasonalityPatterns contiene los índices por mes. Los meses nunca observados
// no aparecen en MonthlyIndices.
type SeasonalityPatterns struct {
	MonthlyIndices      map[int]float64 `json:"monthly_indices"`
	PeakMonths          []int           `json:"peak_months"`
	LowMonths           []int           `json:"low_months"`
	SeasonalityStrength float64         `json:"seasonality_strength"`
}

// SeasonalityMetrics son las medias de las que salen los índices.
type SeasonalityMetrics struct {
	OverallAverageSales float64         `json:"overall_average_sales"`
	MonthlyAverages     map[int]float64 `json:"monthly_averages"`
}

// SeasonalityInterpretation es la lectura legible de los patrones.
type SeasonalityInterpretation struct {
	SeasonalityType SeasonalityType `json:"seasonality_type"`
	PeakSeasons     []string        `json:"peak_seasons"`
	LowSeasons      []string        `json:"low_seasons"`
	ConfidenceScore float64         `json:"confidence_score"`
}

// SeasonalityResult es la vista de estacionalidad de un producto.
type SeasonalityResult struct {
	SeasonalityPatterns SeasonalityPatterns       `json:"seasonality_patterns"`
	Metrics             SeasonalityMetrics        `json:"metrics"`
	Interpretation      SeasonalityInterpretation `json:"interpretation"`
}

// ComputeSeasonality agrupa ventas por mes del año (todos los años juntos) e indexa
// cada mes contra la media global. Un historial nil devuelve (nil, nil).
func ComputeSeasonality(history SalesHistory) (*SeasonalityResult, error) {
	if history == nil {
		return nil, nil
	}

	obs, err := history.Observations()
	if err != nil {
		return nil, err
	}

	type monthSales struct {
		sum   float64
		count int
	}
	byMonth := make(map[int]*monthSales)
	total := 0.0
	for _, o := range obs {
		m := int(o.At.Month())
		ms, ok := byMonth[m]
		if !ok {
			ms = &monthSales{}
			byMonth[m] = ms
		}
		ms.sum += float64(o.Record.Sales)
		ms.count++
		total += float64(o.Record.Sales)
	}

	overall := ratio(total, float64(len(obs)))

	averages := make(map[int]float64, len(byMonth))
	indices := make(map[int]float64, len(byMonth))
	for m, ms := range byMonth {
		averages[m] = ms.sum / float64(ms.count)
		indices[m] = ratio(averages[m], overall)
	}

	peaks, lows := []int{}, []int{}
	for _, m := range sortedMonths(indices) {
		switch idx := indices[m]; {
		case idx > peakIndexThreshold:
			peaks = append(peaks, m)
		case idx < lowIndexThreshold:
			lows = append(lows, m)
		}
	}

	// Un historial todo a cero no tiene patrón que medir; sus índices 0
	// se leerían como desviación máxima.
	strength := 0.0
	if overall > 0 {
		strength = SeasonalityStrength(indices)
	}
	result := &SeasonalityResult{
		SeasonalityPatterns: SeasonalityPatterns{
			MonthlyIndices:      indices,
			PeakMonths:          peaks,
			LowMonths:           lows,
			SeasonalityStrength: strength,
		},
		Metrics: SeasonalityMetrics{
			OverallAverageSales: overall,
			MonthlyAverages:     averages,
		},
		Interpretation: SeasonalityInterpretation{
			SeasonalityType: classifySeasonality(strength),
			PeakSeasons:     MonthNames(peaks),
			LowSeasons:      MonthNames(lows),
			ConfidenceScore: math.Min(1.0, strength*1.5),
		},
	}

	if err := checkFinite("domain.ComputeSeasonality", map[string]float64{
		"overall_average_sales": overall,
		"seasonality_strength":  strength,
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// SeasonalityStrength es el doble de la desviación cuadrática media de los índices
// respecto a 1.0, con tope en 1. Sin meses observados devuelve 0.
func SeasonalityStrength(indices map[int]float64) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range sortedMonths(indices) {
		d := indices[m] - 1.0
		sum += d * d
	}
	return math.Min(1.0, 2*sum/float64(len(indices)))
}

func classifySeasonality(strength float64) SeasonalityType {
	switch {
	case strength > 0.5:
		return SeasonalityStrong
	case strength > 0.2:
		return SeasonalityModerate
	default:
		return SeasonalityWeak
	}
}

// MonthNames convierte números de mes (1-12) en nombres en inglés.
func MonthNames(months []int) []string {
	names := make([]string, 0, len(months))
	for _, m := range months {
		names = append(names, time.Month(m).String())
	}
	return names
}

func sortedMonths(m map[int]float64) []int {
	months := make([]int, 0, len(m))
	for k := range m {
		months = append(months, k)
	}
	sort.Ints(months)
	return months
}
