package domain

import (
	"sort"
)

// DemandMonth es un mes calendario de la serie temporal de demanda.
type DemandMonth struct {
	Month        string  `json:"month"` // YYYY-MM
	TotalSales   int     `json:"total_sales"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalReturns int     `json:"total_returns"`
	AveragePrice float64 `json:"average_price"`
	ReturnRate   float64 `json:"return_rate"`
}

// DemandSummary agrega la serie temporal completa.
type DemandSummary struct {
	TotalMonths         int     `json:"total_months"`
	TotalSales          int     `json:"total_sales"`
	TotalRevenue        float64 `json:"total_revenue"`
	AverageMonthlySales float64 `json:"average_monthly_sales"`
}

// DemandResult es la vista mensual de demanda de un producto.
type DemandResult struct {
	TimeSeries []DemandMonth `json:"time_series"`
	Summary    DemandSummary `json:"summary"`
}

// monthlyBucket acumula los registros de un mes.
type monthlyBucket struct {
	sales   int
	revenue float64
	returns int
	count   int
}

func (b *monthlyBucket) add(r SalesRecord) {
	b.sales += r.Sales
	b.revenue += float64(r.Sales) * r.Price
	b.returns += r.Returns
	b.count++
}

// ParseDateRange parsea ambos límites y rechaza start > end.
func ParseDateRange(startDate, endDate string) (TimeRange, error) {
	s, err := ParseDate(startDate)
	if err != nil {
		return TimeRange{}, NewValidationError("start_date", startDate, "expected ISO 8601 date or date-time")
	}
	e, err := ParseDate(endDate)
	if err != nil {
		return TimeRange{}, NewValidationError("end_date", endDate, "expected ISO 8601 date or date-time")
	}
	if s.After(e) {
		return TimeRange{}, NewValidationError("date range", startDate+".."+endDate, "start date is after end date")
	}
	return TimeRange{From: s, To: e}, nil
}

// ComputeDemand agrupa por mes calendario los registros con fecha en
// [startDate, endDate] (ambos inclusive). Un historial nil devuelve (nil, nil): el
// producto no tiene historial. Sin registros en el rango la serie sale vacía.
func ComputeDemand(history SalesHistory, startDate, endDate string) (*DemandResult, error) {
	if history == nil {
		return nil, nil
	}

	rng, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	obs, err := history.Observations()
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*monthlyBucket)
	for _, o := range obs {
		if !rng.Contains(o.At) {
			continue
		}
		key := o.At.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &monthlyBucket{}
			buckets[key] = b
		}
		b.add(o.Record)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := &DemandResult{TimeSeries: make([]DemandMonth, 0, len(keys))}
	revenueSum := 0.0
	for _, k := range keys {
		b := buckets[k]
		if err := checkFinite("domain.ComputeDemand", map[string]float64{"revenue " + k: b.revenue}); err != nil {
			return nil, err
		}

		sales := float64(b.sales)
		month := DemandMonth{
			Month:        k,
			TotalSales:   b.sales,
			TotalRevenue: round(b.revenue, 2),
			TotalReturns: b.returns,
			AveragePrice: round(ratio(b.revenue, sales), 2),
			ReturnRate:   round(ratio(float64(b.returns), sales), 4),
		}
		result.TimeSeries = append(result.TimeSeries, month)
		result.Summary.TotalSales += month.TotalSales
		revenueSum += month.TotalRevenue
	}

	result.Summary.TotalMonths = len(result.TimeSeries)
	result.Summary.TotalRevenue = round(revenueSum, 2)
	result.Summary.AverageMonthlySales = round(ratio(float64(result.Summary.TotalSales), float64(result.Summary.TotalMonths)), 2)
	return result, nil
}
