package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/vicanso/go-charts/v2"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/quantcase/frontier/internal/portfolio"
	"github.com/quantcase/frontier/internal/stats"
)

// ChartRenderer renders the analysis charts as PNG files.
type ChartRenderer struct {
	log zerolog.Logger
}

// NewChartRenderer creates a chart renderer.
func NewChartRenderer(log zerolog.Logger) *ChartRenderer {
	return &ChartRenderer{log: log.With().Str("component", "charts").Logger()}
}

// FrontierChart plots the random portfolio cloud, the efficient frontier
// line and the named portfolios in risk/return space.
func (r *ChartRenderer) FrontierChart(samples []portfolio.Sampled, frontier *portfolio.Frontier, path string) error {
	cloudX := make([]float64, len(samples))
	cloudY := make([]float64, len(samples))
	for i, s := range samples {
		cloudX[i] = s.Volatility
		cloudY[i] = s.Return
	}

	// The frontier line must be drawn in volatility order, not sweep order.
	points := make([]portfolio.FrontierPoint, len(frontier.Points))
	copy(points, frontier.Points)
	sort.Slice(points, func(a, b int) bool { return points[a].Volatility < points[b].Volatility })
	lineX := make([]float64, len(points))
	lineY := make([]float64, len(points))
	for i, p := range points {
		lineX[i] = p.Volatility
		lineY[i] = p.Return
	}

	graph := chart.Chart{
		Title:  "Efficient Frontier",
		Width:  1000,
		Height: 700,
		XAxis: chart.XAxis{
			Name:           "Annualized Volatility",
			ValueFormatter: percentFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Annualized Return",
			ValueFormatter: percentFormatter,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: "Random portfolios",
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    2,
					DotColor:    drawing.ColorFromHex("9bc1e5"),
				},
				XValues: cloudX,
				YValues: cloudY,
			},
			chart.ContinuousSeries{
				Name: "Efficient frontier",
				Style: chart.Style{
					StrokeWidth: 2.5,
					StrokeColor: drawing.ColorFromHex("1f4e79"),
				},
				XValues: lineX,
				YValues: lineY,
			},
			chart.ContinuousSeries{
				Name: "Min volatility",
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    7,
					DotColor:    drawing.ColorFromHex("c00000"),
				},
				XValues: []float64{frontier.MinVariance.Volatility},
				YValues: []float64{frontier.MinVariance.Return},
			},
			chart.ContinuousSeries{
				Name: "Max Sharpe",
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    7,
					DotColor:    drawing.ColorFromHex("2e7d32"),
				},
				XValues: []float64{frontier.MaxSharpe.Volatility},
				YValues: []float64{frontier.MaxSharpe.Return},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("failed to render frontier chart: %w", err)
	}

	r.log.Debug().Str("path", filepath.Base(path)).Msg("Rendered frontier chart")
	return nil
}

// ReturnBars renders a grouped bar chart of annualized geometric returns
// per window, one bar group per symbol.
func (r *ChartRenderer) ReturnBars(symbols []string, byWindow map[string]map[string]stats.Summary, windows []string, path string) error {
	values := make([][]float64, len(windows))
	for i, w := range windows {
		row := make([]float64, len(symbols))
		for j, symbol := range symbols {
			row[j] = byWindow[w][symbol].GeometricReturn * 100
		}
		values[i] = row
	}

	painter, err := charts.BarRender(values,
		charts.TitleTextOptionFunc("Annualized Return by Window (%)"),
		charts.XAxisDataOptionFunc(symbols),
		charts.LegendOptionFunc(charts.LegendOption{Data: windows}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return fmt.Errorf("failed to render return bars: %w", err)
	}

	buf, err := painter.Bytes()
	if err != nil {
		return fmt.Errorf("failed to encode return bars: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write return bars: %w", err)
	}

	r.log.Debug().Str("path", filepath.Base(path)).Msg("Rendered return bars")
	return nil
}

// CorrelationTable renders the pairwise correlation matrix as a table image.
func (r *ChartRenderer) CorrelationTable(matrix [][]float64, symbols []string, path string) error {
	header := make([]string, 0, len(symbols)+1)
	header = append(header, "")
	header = append(header, symbols...)

	data := make([][]string, len(symbols))
	for i, symbol := range symbols {
		row := make([]string, 0, len(symbols)+1)
		row = append(row, symbol)
		for j := range symbols {
			row = append(row, fmt.Sprintf("%.2f", matrix[i][j]))
		}
		data[i] = row
	}

	painter, err := charts.TableRender(header, data)
	if err != nil {
		return fmt.Errorf("failed to render correlation table: %w", err)
	}

	buf, err := painter.Bytes()
	if err != nil {
		return fmt.Errorf("failed to encode correlation table: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write correlation table: %w", err)
	}

	r.log.Debug().Str("path", filepath.Base(path)).Msg("Rendered correlation table")
	return nil
}

func percentFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.1f%%", f*100)
	}
	return ""
}
