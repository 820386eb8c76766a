package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonality_NilHistoryIsNotFound(t *testing.T) {
	res, err := ComputeSeasonality(nil)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestSeasonality_EmptyHistory(t *testing.T) {
	res, err := ComputeSeasonality(SalesHistory{})
	require.NoError(t, err)
	require.NotNil(t, res)

	p := res.SeasonalityPatterns
	assert.Empty(t, p.MonthlyIndices)
	assert.NotNil(t, p.PeakMonths)
	assert.Empty(t, p.PeakMonths)
	assert.Empty(t, p.LowMonths)
	assert.Equal(t, 0.0, p.SeasonalityStrength)
	assert.Equal(t, 0.0, res.Metrics.OverallAverageSales)
	assert.Equal(t, SeasonalityWeak, res.Interpretation.SeasonalityType)
	assert.Equal(t, 0.0, res.Interpretation.ConfidenceScore)
}

func TestSeasonality_SingleRecord(t *testing.T) {
	for _, sales := range []int{0, 1, 250} {
		res, err := ComputeSeasonality(SalesHistory{{Date: "2024-08-15", Sales: sales, Price: 3}})
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.SeasonalityPatterns.SeasonalityStrength, "sales=%d", sales)
		assert.Len(t, res.SeasonalityPatterns.MonthlyIndices, 1)
	}
}

func TestSeasonality_AllZeroHistoryIsWeak(t *testing.T) {
	h := SalesHistory{
		{Date: "2024-01-10", Sales: 0, Price: 2},
		{Date: "2024-06-03", Sales: 0, Price: 2},
		{Date: "2024-06-20", Sales: 0, Price: 2},
	}

	res, err := ComputeSeasonality(h)
	require.NoError(t, err)

	p := res.SeasonalityPatterns
	assert.Equal(t, map[int]float64{1: 0, 6: 0}, p.MonthlyIndices)
	assert.Equal(t, 0.0, p.SeasonalityStrength)
	assert.Empty(t, p.PeakMonths)
	assert.Equal(t, SeasonalityWeak, res.Interpretation.SeasonalityType)
	assert.Equal(t, 0.0, res.Interpretation.ConfidenceScore)
	assert.Equal(t, 0.0, res.Metrics.OverallAverageSales)
}

func TestSeasonality_ModeratePattern(t *testing.T) {
	h := SalesHistory{
		{Date: "2023-01-10", Sales: 30, Price: 1},
		{Date: "2024-01-12", Sales: 30, Price: 1},
		{Date: "2023-07-03", Sales: 10, Price: 1},
		{Date: "2024-07-09", Sales: 10, Price: 1},
	}

	res, err := ComputeSeasonality(h)
	require.NoError(t, err)

	p := res.SeasonalityPatterns
	assert.Equal(t, map[int]float64{1: 1.5, 7: 0.5}, p.MonthlyIndices)
	assert.Equal(t, []int{1}, p.PeakMonths)
	assert.Equal(t, []int{7}, p.LowMonths)
	assert.InDelta(t, 0.5, p.SeasonalityStrength, 1e-9)

	assert.Equal(t, 20.0, res.Metrics.OverallAverageSales)
	assert.Equal(t, map[int]float64{1: 30, 7: 10}, res.Metrics.MonthlyAverages)

	in := res.Interpretation
	assert.Equal(t, SeasonalityModerate, in.SeasonalityType)
	assert.Equal(t, []string{"January"}, in.PeakSeasons)
	assert.Equal(t, []string{"July"}, in.LowSeasons)
	assert.InDelta(t, 0.75, in.ConfidenceScore, 1e-9)
}

func TestSeasonality_StrongPattern(t *testing.T) {
	h := SalesHistory{
		{Date: "2024-12-01", Sales: 100, Price: 1},
		{Date: "2024-06-01", Sales: 10, Price: 1},
	}
	res, err := ComputeSeasonality(h)
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.SeasonalityPatterns.SeasonalityStrength)
	assert.Equal(t, SeasonalityStrong, res.Interpretation.SeasonalityType)
	assert.Equal(t, 1.0, res.Interpretation.ConfidenceScore)
	assert.Equal(t, []string{"December"}, res.Interpretation.PeakSeasons)
	assert.Equal(t, []string{"June"}, res.Interpretation.LowSeasons)
}

func TestSeasonality_UnobservedMonthsAbsent(t *testing.T) {
	h := SalesHistory{
		{Date: "2024-03-01", Sales: 5, Price: 1},
		{Date: "2024-03-02", Sales: 6, Price: 1},
		{Date: "2024-10-01", Sales: 5, Price: 1},
	}
	res, err := ComputeSeasonality(h)
	require.NoError(t, err)

	idx := res.SeasonalityPatterns.MonthlyIndices
	assert.Len(t, idx, 2)
	_, hasJan := idx[1]
	assert.False(t, hasJan)
}

func TestSeasonality_PeaksAndLowsInMonthOrder(t *testing.T) {
	h := SalesHistory{
		{Date: "2024-11-01", Sales: 50, Price: 1},
		{Date: "2024-02-01", Sales: 50, Price: 1},
		{Date: "2024-09-01", Sales: 1, Price: 1},
		{Date: "2024-04-01", Sales: 1, Price: 1},
	}
	res, err := ComputeSeasonality(h)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 11}, res.SeasonalityPatterns.PeakMonths)
	assert.Equal(t, []int{4, 9}, res.SeasonalityPatterns.LowMonths)
	assert.Equal(t, []string{"February", "November"}, res.Interpretation.PeakSeasons)
}

func TestSeasonality_Bounds(t *testing.T) {
	for n := 1; n <= 40; n++ {
		var h SalesHistory
		for i := 0; i < n; i++ {
			h = append(h, SalesRecord{
				Date:  fmt.Sprintf("%d-%02d-15", 2020+i/12, i%12+1),
				Sales: (i * i * 13) % 97,
				Price: 2,
			})
		}
		res, err := ComputeSeasonality(h)
		require.NoError(t, err)

		s := res.SeasonalityPatterns.SeasonalityStrength
		c := res.Interpretation.ConfidenceScore
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
	}
}

func TestSeasonality_MalformedDate(t *testing.T) {
	_, err := ComputeSeasonality(SalesHistory{{Date: "15/08/2024", Sales: 1, Price: 1}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSeasonality_Idempotent(t *testing.T) {
	var h SalesHistory
	for i := 0; i < 36; i++ {
		h = append(h, SalesRecord{Date: fmt.Sprintf("%d-%02d-01", 2021+i/12, i%12+1), Sales: 3 + i%7, Price: 1})
	}
	a, err := ComputeSeasonality(h)
	require.NoError(t, err)
	b, err := ComputeSeasonality(h)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
