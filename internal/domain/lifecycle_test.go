package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return evalTime }

// quarterHistory genera un registro diario, quarterWindow días por entrada de
// perRecordSales; todos los registros de un trimestre venden lo mismo.
func quarterHistory(start time.Time, perRecordSales ...int) SalesHistory {
	var h SalesHistory
	day := 0
	for _, s := range perRecordSales {
		for i := 0; i < quarterWindow; i++ {
			h = append(h, SalesRecord{
				Date:  start.AddDate(0, 0, day).Format("2006-01-02"),
				Sales: s,
				Price: 10,
			})
			day++
		}
	}
	return h
}

func TestLifecycle_NilHistoryIsNotFound(t *testing.T) {
	res, err := NewLifecycleAnalyzer(fixedClock).Compute(nil)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestLifecycle_EmptyHistoryDefaults(t *testing.T) {
	res, err := NewLifecycleAnalyzer(fixedClock).Compute(SalesHistory{})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, LifecycleMetrics{}, res.Metrics)
	assert.Equal(t, StageIntroduction, res.Computed.CurrentStage)
	assert.Equal(t, 0, res.Computed.DaysInStage)
	assert.Equal(t, 0.0, res.Computed.StageTransitionRisk)
	assert.Empty(t, res.StageStartDate)
}

func TestLifecycle_Decline(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := quarterHistory(start, 100, 50, 5) // Q = 9000, 4500, 450

	res, err := NewLifecycleAnalyzer(fixedClock).Compute(h)
	require.NoError(t, err)

	m := res.Metrics
	assert.InDelta(t, -0.7, m.GrowthRate, 1e-9)       // mean(-0.5, -0.9)
	assert.InDelta(t, 0.2, m.GrowthVolatility, 1e-9)  // population std dev
	assert.InDelta(t, 0.05, m.MarketSaturation, 1e-9) // 450 / 9000
	assert.Less(t, m.MarketSaturation, 0.1)
	assert.Equal(t, 0.0, m.CompetitivePressure)

	assert.Equal(t, StageDecline, res.Computed.CurrentStage)
	assert.InDelta(t, 0.095, res.Computed.StageTransitionRisk, 1e-9)
	assert.Equal(t, "2024-01-01", res.StageStartDate)
}

func TestLifecycle_PositiveGrowthStaysIntroduction(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := quarterHistory(start, 10, 20)

	res, err := NewLifecycleAnalyzer(fixedClock).Compute(h)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.Metrics.GrowthRate, 1e-9)
	assert.Equal(t, 0.0, res.Metrics.GrowthVolatility)
	assert.InDelta(t, 1.0, res.Metrics.MarketSaturation, 1e-9)
	// market share nunca se calcula, así que la rama de growth no puede matchear
	assert.Equal(t, StageIntroduction, res.Computed.CurrentStage)
	assert.InDelta(t, 0.3, res.Computed.StageTransitionRisk, 1e-9)
}

func TestLifecycle_ZeroQuarterSkippedInGrowth(t *testing.T) {
	quarters := []float64{0, 900, 1800}
	assert.Equal(t, []float64{1.0}, GrowthRates(quarters))
	assert.Empty(t, GrowthRates([]float64{0, 0, 5}))
	assert.Empty(t, GrowthRates([]float64{42}))
}

func TestLifecycle_PartialLastQuarter(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := quarterHistory(start, 1)
	h = append(h, SalesRecord{Date: "2024-12-01", Sales: 45, Price: 10})

	obs, err := h.SortedObservations()
	require.NoError(t, err)
	assert.Equal(t, []float64{90, 45}, QuarterSales(obs))
}

func TestLifecycle_UnsortedInputMatchesSorted(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	sorted := quarterHistory(start, 40, 60, 30, 35)
	for i := range sorted {
		sorted[i].Price = 10 + float64(i%4)
		sorted[i].Returns = i % 2
	}

	shuffled := make(SalesHistory, len(sorted))
	copy(shuffled, sorted)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	a := NewLifecycleAnalyzer(fixedClock)
	want, err := a.Compute(sorted)
	require.NoError(t, err)
	got, err := a.Compute(shuffled)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLifecycle_DaysInStage(t *testing.T) {
	h := SalesHistory{
		{Date: "2025-04-02T12:00:00", Sales: 1, Price: 1},
		{Date: "2025-05-01", Sales: 1, Price: 1},
	}
	res, err := NewLifecycleAnalyzer(fixedClock).Compute(h)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Computed.DaysInStage)

	future := SalesHistory{{Date: "2030-01-01", Sales: 1, Price: 1}}
	res, err = NewLifecycleAnalyzer(fixedClock).Compute(future)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Computed.DaysInStage)
}

func TestCompetitivePressure(t *testing.T) {
	h := SalesHistory{
		{Date: "2024-01-03", Sales: 10, Price: 11, Returns: 1},
		{Date: "2024-01-01", Sales: 10, Price: 10, Returns: 2},
		{Date: "2024-01-02", Sales: 10, Price: 11},
	}
	obs, err := h.SortedObservations()
	require.NoError(t, err)

	// volatilidad de precio mean(0.1, 0) = 0.05; tasa de devolución 3/30 = 0.1
	assert.InDelta(t, 0.7*0.05+0.3*0.1, CompetitivePressure(obs), 1e-9)
}

func TestCompetitivePressure_Capped(t *testing.T) {
	h := SalesHistory{
		{Date: "2024-01-01", Sales: 1, Price: 1},
		{Date: "2024-01-02", Sales: 1, Price: 100},
	}
	obs, err := h.SortedObservations()
	require.NoError(t, err)
	assert.Equal(t, 1.0, CompetitivePressure(obs))
}

func TestCompetitivePressure_NoSales(t *testing.T) {
	h := SalesHistory{
		{Date: "2024-01-01", Sales: 0, Price: 5, Returns: 4},
		{Date: "2024-01-02", Sales: 0, Price: 5, Returns: 1},
	}
	obs, err := h.SortedObservations()
	require.NoError(t, err)
	assert.Equal(t, 0.0, CompetitivePressure(obs))
}

func TestGrowthVolatility_Capped(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := quarterHistory(start, 1, 10, 1, 10)

	res, err := NewLifecycleAnalyzer(fixedClock).Compute(h)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Metrics.GrowthVolatility)
	assert.LessOrEqual(t, res.Computed.StageTransitionRisk, 1.0)
}

func TestClassifyStage(t *testing.T) {
	cases := []struct {
		name string
		m    LifecycleMetrics
		want Stage
	}{
		{"negative growth, no share", LifecycleMetrics{GrowthRate: -0.2}, StageDecline},
		{"flat growth, no share", LifecycleMetrics{GrowthRate: 0.01}, StageIntroduction},
		{"strong growth, no share", LifecycleMetrics{GrowthRate: 0.5}, StageIntroduction},
		{"flat growth, large share", LifecycleMetrics{GrowthRate: 0.01, MarketShare: 0.2}, StageMaturity},
		{"negative growth, large share", LifecycleMetrics{GrowthRate: -0.1, MarketShare: 0.2}, StageMaturity},
		{"growth, some share", LifecycleMetrics{GrowthRate: 0.1, MarketShare: 0.06}, StageGrowth},
		{"growth at threshold", LifecycleMetrics{GrowthRate: 0.05, MarketShare: 0.05}, StageGrowth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyStage(tc.m))
		})
	}
}

func TestLifecycle_MalformedDate(t *testing.T) {
	h := SalesHistory{{Date: "2024-01-01", Sales: 1, Price: 1}, {Date: "Jan 2", Sales: 1, Price: 1}}
	_, err := NewLifecycleAnalyzer(fixedClock).Compute(h)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLifecycle_Idempotent(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := quarterHistory(start, 3, 9, 4)
	a := NewLifecycleAnalyzer(fixedClock)

	first, err := a.Compute(h)
	require.NoError(t, err)
	second, err := a.Compute(h)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
