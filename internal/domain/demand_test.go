package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDemand_Scenario(t *testing.T) {
	h := SalesHistory{
		{Date: "2024-01-10", Sales: 10, Price: 5.0, Returns: 1},
		{Date: "2024-01-20", Sales: 5, Price: 5.0},
		{Date: "2024-02-05", Sales: 8, Price: 6.0},
	}

	res, err := ComputeDemand(h, "2024-01-01", "2024-02-28")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, []DemandMonth{
		{Month: "2024-01", TotalSales: 15, TotalRevenue: 75.0, TotalReturns: 1, AveragePrice: 5.0, ReturnRate: 0.0667},
		{Month: "2024-02", TotalSales: 8, TotalRevenue: 48.0, TotalReturns: 0, AveragePrice: 6.0, ReturnRate: 0.0},
	}, res.TimeSeries)
	assert.Equal(t, DemandSummary{
		TotalMonths:         2,
		TotalSales:          23,
		TotalRevenue:        123.0,
		AverageMonthlySales: 11.5,
	}, res.Summary)
}

func TestComputeDemand_NilHistoryIsNotFound(t *testing.T) {
	res, err := ComputeDemand(nil, "2024-01-01", "2024-12-31")
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestComputeDemand_NothingInRange(t *testing.T) {
	h := SalesHistory{{Date: "2023-06-01", Sales: 4, Price: 2}}

	res, err := ComputeDemand(h, "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotNil(t, res.TimeSeries)
	assert.Empty(t, res.TimeSeries)
	assert.Equal(t, DemandSummary{}, res.Summary)
}

func TestComputeDemand_EmptyHistory(t *testing.T) {
	res, err := ComputeDemand(SalesHistory{}, "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Empty(t, res.TimeSeries)
}

func TestComputeDemand_ValidationErrors(t *testing.T) {
	h := SalesHistory{{Date: "2024-01-10", Sales: 1, Price: 1}}

	_, err := ComputeDemand(h, "01/01/2024", "2024-12-31")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ComputeDemand(h, "2024-01-01", "end of year")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ComputeDemand(h, "2024-12-31", "2024-01-01")
	assert.ErrorIs(t, err, ErrValidation)

	bad := SalesHistory{{Date: "2024-01-10", Sales: 1, Price: 1}, {Date: "garbage", Sales: 1, Price: 1}}
	_, err = ComputeDemand(bad, "2024-01-01", "2024-12-31")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestComputeDemand_BoundsAreInclusive(t *testing.T) {
	h := SalesHistory{
		{Date: "2024-01-01", Sales: 1, Price: 1},
		{Date: "2024-03-31", Sales: 2, Price: 1},
		{Date: "2024-03-31T00:00:01", Sales: 100, Price: 1}, // after the end instant
		{Date: "2023-12-31T23:59:59", Sales: 100, Price: 1},
	}

	res, err := ComputeDemand(h, "2024-01-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Summary.TotalSales)
	require.Len(t, res.TimeSeries, 2)
	assert.Equal(t, "2024-01", res.TimeSeries[0].Month)
	assert.Equal(t, "2024-03", res.TimeSeries[1].Month)
}

func TestComputeDemand_OffsetIgnored(t *testing.T) {
	h := SalesHistory{{Date: "2024-01-31T23:30:00-05:00", Sales: 7, Price: 1}}

	res, err := ComputeDemand(h, "2024-01-01", "2024-02-29")
	require.NoError(t, err)
	require.Len(t, res.TimeSeries, 1)
	assert.Equal(t, "2024-01", res.TimeSeries[0].Month)
}

func TestComputeDemand_ZeroSalesMonthAndExcessReturns(t *testing.T) {
	h := SalesHistory{
		{Date: "2024-05-02", Sales: 0, Price: 9.99, Returns: 2},
		{Date: "2024-06-02", Sales: 2, Price: 3.0, Returns: 5},
	}

	res, err := ComputeDemand(h, "2024-05-01", "2024-06-30")
	require.NoError(t, err)
	require.Len(t, res.TimeSeries, 2)

	may := res.TimeSeries[0]
	assert.Equal(t, 0.0, may.AveragePrice)
	assert.Equal(t, 0.0, may.ReturnRate)
	assert.Equal(t, 2, may.TotalReturns)

	june := res.TimeSeries[1]
	assert.Equal(t, 2.5, june.ReturnRate)
}

func TestComputeDemand_Rounding(t *testing.T) {
	h := SalesHistory{
		{Date: "2024-01-05", Sales: 3, Price: 3.333},
		{Date: "2024-01-06", Sales: 3, Price: 1.0, Returns: 1},
		{Date: "2024-02-06", Sales: 1, Price: 1.0},
	}

	res, err := ComputeDemand(h, "2024-01-01", "2024-12-31")
	require.NoError(t, err)

	jan := res.TimeSeries[0]
	assert.Equal(t, 13.0, jan.TotalRevenue) // 9.999 + 3
	assert.Equal(t, 2.17, jan.AveragePrice) // 12.999 / 6
	assert.Equal(t, 0.1667, jan.ReturnRate) // 1 / 6

	assert.Equal(t, 3.5, res.Summary.AverageMonthlySales)
}

func TestComputeDemand_FilterAndSumInvariants(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	var h SalesHistory
	for i := 0; i < 500; i++ {
		day := start.AddDate(0, 0, i*2)
		h = append(h, SalesRecord{
			Date:    day.Format("2006-01-02"),
			Sales:   (i * 7) % 23,
			Price:   1 + float64(i%5),
			Returns: i % 3,
		})
	}

	from, to := "2023-03-15", "2024-02-10"
	res, err := ComputeDemand(h, from, to)
	require.NoError(t, err)

	rng, err := ParseDateRange(from, to)
	require.NoError(t, err)
	expected := map[string]int{}
	wantTotal := 0
	for _, r := range h {
		at, err := ParseDate(r.Date)
		require.NoError(t, err)
		if rng.Contains(at) {
			expected[at.Format("2006-01")] += r.Sales
			wantTotal += r.Sales
		}
	}

	sum := 0
	for i, m := range res.TimeSeries {
		assert.Equal(t, expected[m.Month], m.TotalSales, m.Month)
		sum += m.TotalSales
		if i > 0 {
			assert.Less(t, res.TimeSeries[i-1].Month, m.Month)
		}
	}
	assert.Len(t, res.TimeSeries, len(expected))
	assert.Equal(t, wantTotal, sum)
	assert.Equal(t, sum, res.Summary.TotalSales)
	assert.Equal(t, len(res.TimeSeries), res.Summary.TotalMonths)
}

func TestComputeDemand_Idempotent(t *testing.T) {
	var h SalesHistory
	for i := 1; i <= 28; i++ {
		h = append(h, SalesRecord{Date: fmt.Sprintf("2024-02-%02d", i), Sales: i, Price: 1.1 * float64(i)})
	}
	a, err := ComputeDemand(h, "2024-02-01", "2024-02-29")
	require.NoError(t, err)
	b, err := ComputeDemand(h, "2024-02-01", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
