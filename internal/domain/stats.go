package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// mean devuelve la media aritmética, o 0 para un slice vacío.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStdDev divide por n, no n-1. Slices vacíos o de un valor devuelven 0.
func populationStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// ratio devuelve num/den, o 0 si den es 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func clamp01(v float64) float64 {
	return math.Min(1.0, math.Max(0.0, v))
}

// round redondea (mitad lejos de cero) al número de decimales dado.
// El valor debe ser finito.
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// checkFinite devuelve un ComputationError con la primera métrica no finita, si la hay.
func checkFinite(op string, metrics map[string]float64) error {
	for name, v := range metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ComputationError{Op: op, Err: fmt.Errorf("%s is %v", name, v)}
		}
	}
	return nil
}
