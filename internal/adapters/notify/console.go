package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/salescope/internal/domain"
	"github.com/alejandrodnm/salescope/internal/ports"
	"github.com/olekukonko/tablewriter"
)

var _ ports.Reporter = (*Console)(nil)

// Format elige cómo imprime el Console.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat acepta "table" o "json"; cualquier otra cosa es error.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("notify.ParseFormat: unknown format %q", s)
	}
}

// Console implementa ports.Reporter escribiendo a un io.Writer.
type Console struct {
	out    io.Writer
	format Format
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(format Format) *Console {
	return &Console{out: os.Stdout, format: format}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, format Format) *Console {
	return &Console{out: w, format: format}
}

// Report imprime la respuesta en el formato configurado.
func (c *Console) Report(_ context.Context, resp domain.Response) error {
	if c.format == FormatJSON {
		return c.printJSON(resp)
	}

	status := "OK"
	if !resp.Success {
		status = "FAIL"
	}
	fmt.Fprintf(c.out, "\n[%s] %s\n", status, resp.Message)
	if resp.AnalysisData == nil {
		return nil
	}

	var err error
	switch r := resp.AnalysisData.Result.(type) {
	case *domain.DemandResult:
		err = c.printDemand(r)
	case *domain.LifecycleResult:
		err = c.printLifecycle(r)
	case *domain.SeasonalityResult:
		err = c.printSeasonality(r)
	default:
		err = c.printJSON(resp.AnalysisData.Result)
	}
	if err != nil {
		return fmt.Errorf("notify.Report: %w", err)
	}
	fmt.Fprintf(c.out, "  computed in %s\n\n", formatSeconds(resp.AnalysisData.Metrics.ComputationTime))
	return nil
}

// PrintRuns lista las ejecuciones recientes, las más nuevas primero.
func (c *Console) PrintRuns(runs []domain.RunRecord) error {
	if c.format == FormatJSON {
		return c.printJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "no analysis runs recorded")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Started", "Kind", "Product", "Found", "OK", "Duration", "Error")
	for _, r := range runs {
		table.Append(
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Kind,
			truncate(r.ProductID, 36),
			yesNo(r.Found),
			yesNo(r.Success),
			r.Duration.String(),
			truncate(r.Error, 40),
		)
	}
	return table.Render()
}

// ToolInfo describe un análisis disponible para PrintTools.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PrintTools lista los análisis disponibles.
func (c *Console) PrintTools(tools []ToolInfo) error {
	if c.format == FormatJSON {
		return c.printJSON(tools)
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Tool", "Description")
	for _, t := range tools {
		table.Append(t.Name, t.Description)
	}
	return table.Render()
}

func (c *Console) printDemand(r *domain.DemandResult) error {
	if len(r.TimeSeries) == 0 {
		fmt.Fprintln(c.out, "  no sales in the requested range")
	} else {
		table := tablewriter.NewWriter(c.out)
		table.Header("Month", "Sales", "Revenue", "Returns", "Avg price", "Return rate")
		for _, m := range r.TimeSeries {
			table.Append(
				m.Month,
				fmt.Sprintf("%d", m.TotalSales),
				fmt.Sprintf("%.2f", m.TotalRevenue),
				fmt.Sprintf("%d", m.TotalReturns),
				fmt.Sprintf("%.2f", m.AveragePrice),
				fmt.Sprintf("%.2f%%", m.ReturnRate*100),
			)
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	s := r.Summary
	fmt.Fprintf(c.out, "  %d months | sales %d | revenue %.2f | avg/month %.2f\n",
		s.TotalMonths, s.TotalSales, s.TotalRevenue, s.AverageMonthlySales)
	return nil
}

func (c *Console) printLifecycle(r *domain.LifecycleResult) error {
	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("Stage", string(r.Computed.CurrentStage))
	table.Append("Growth rate", fmt.Sprintf("%+.2f%%", r.Metrics.GrowthRate*100))
	table.Append("Growth volatility", fmt.Sprintf("%.4f", r.Metrics.GrowthVolatility))
	table.Append("Market saturation", fmt.Sprintf("%.4f", r.Metrics.MarketSaturation))
	table.Append("Competitive pressure", fmt.Sprintf("%.4f", r.Metrics.CompetitivePressure))
	table.Append("Transition risk", fmt.Sprintf("%.4f", r.Computed.StageTransitionRisk))
	if r.StageStartDate != "" {
		table.Append("Stage start", r.StageStartDate)
	}
	table.Append("Days in stage", fmt.Sprintf("%d", r.Computed.DaysInStage))
	return table.Render()
}

func (c *Console) printSeasonality(r *domain.SeasonalityResult) error {
	p := r.SeasonalityPatterns
	if len(p.MonthlyIndices) > 0 {
		months := make([]int, 0, len(p.MonthlyIndices))
		for m := range p.MonthlyIndices {
			months = append(months, m)
		}
		sort.Ints(months)

		table := tablewriter.NewWriter(c.out)
		table.Header("Month", "Avg sales", "Index", "")
		for _, m := range months {
			table.Append(
				time.Month(m).String(),
				fmt.Sprintf("%.2f", r.Metrics.MonthlyAverages[m]),
				fmt.Sprintf("%.3f", p.MonthlyIndices[m]),
				seasonFlag(m, p),
			)
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	in := r.Interpretation
	fmt.Fprintf(c.out, "  %s seasonality (strength %.3f, confidence %.2f)\n",
		in.SeasonalityType, p.SeasonalityStrength, in.ConfidenceScore)
	if len(in.PeakSeasons) > 0 {
		fmt.Fprintf(c.out, "  peaks: %s\n", strings.Join(in.PeakSeasons, ", "))
	}
	if len(in.LowSeasons) > 0 {
		fmt.Fprintf(c.out, "  lows:  %s\n", strings.Join(in.LowSeasons, ", "))
	}
	return nil
}

func (c *Console) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("notify.printJSON: %w", err)
	}
	return nil
}

// --- helpers ---

func seasonFlag(month int, p domain.SeasonalityPatterns) string {
	for _, m := range p.PeakMonths {
		if m == month {
			return "peak"
		}
	}
	for _, m := range p.LowMonths {
		if m == month {
			return "low"
		}
	}
	return ""
}

func formatSeconds(s float64) string {
	return time.Duration(s * float64(time.Second)).Round(time.Microsecond).String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
