package main

import (
	"bytes"
	"errors"
	"io"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"examdash/internal/dashboard"
	"examdash/internal/detail"
	"examdash/internal/rankdelta"
	"examdash/internal/series"
)

const (
	chartWidth  = 800
	chartHeight = 400
)

var errNoChartData = errors.New("no chart data")

// ChartHandler serves PNG renditions of the dashboard charts.
type ChartHandler struct {
	Site *Site
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// comparisonChart plots the two sittings as lines over categorical labels.
func comparisonChart(title string, labels []string, monthly, midterm []float64) (chart.Chart, error) {
	if len(labels) == 0 {
		return chart.Chart{}, errNoChartData
	}

	xs := make([]float64, len(labels))
	ticks := make([]chart.Tick, len(labels))
	top := 1.0
	for i, label := range labels {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: label}
		top = math.Max(top, math.Max(monthly[i], midterm[i]))
	}

	line := func(name, color string, ys []float64) chart.ContinuousSeries {
		return chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: hexColor(color),
				StrokeWidth: 2,
				DotColor:    hexColor(color),
				DotWidth:    4,
			},
		}
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(labels)) - 0.5},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Series: []chart.Series{
			line(detail.MonthlyName, rankdelta.MonthlyColor, monthly),
			line(detail.MidtermName, midtermColor, midterm),
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph, nil
}

// DistributionImage renders both score histograms.
func DistributionImage(d series.Distribution) (chart.Chart, error) {
	return comparisonChart("总分分布", d.Labels, countsToFloats(d.Monthly), countsToFloats(d.Midterm))
}

// SubjectImage renders the subject averages of both sittings.
func SubjectImage(s series.SubjectSeries) (chart.Chart, error) {
	return comparisonChart("各科平均分", s.Labels, s.Monthly, s.Midterm)
}

// ClassImage renders the midterm class averages as bars.
func ClassImage(c series.ClassSeries) (chart.BarChart, error) {
	if len(c.Labels) == 0 {
		return chart.BarChart{}, errNoChartData
	}

	top := 1.0
	bars := make([]chart.Value, len(c.Labels))
	for i, label := range c.Labels {
		top = math.Max(top, c.Values[i])
		bars[i] = chart.Value{
			Value: c.Values[i],
			Label: label,
			Style: chart.Style{FillColor: hexColor(midtermColor), StrokeColor: hexColor(midtermColor)},
		}
	}
	return barChart("班级期中平均分", bars, top), nil
}

// StudentImage renders a student's ranks as bar pairs. The monthly bar is
// drawn in the fixed monthly color and the midterm bar in the color of its
// classification.
func StudentImage(p detail.Projection) (chart.BarChart, error) {
	if p.Len() == 0 {
		return chart.BarChart{}, errNoChartData
	}

	top := 1.0
	monthly := hexColor(rankdelta.MonthlyColor)
	bars := make([]chart.Value, 0, 2*p.Len())
	for i, label := range p.Labels {
		color := hexColor(p.Classifications[i].Category.Color())
		top = math.Max(top, float64(max(p.Monthly[i], p.Midterm[i])))
		bars = append(bars,
			chart.Value{
				Value: float64(p.Monthly[i]),
				Label: label,
				Style: chart.Style{FillColor: monthly, StrokeColor: monthly},
			},
			chart.Value{
				Value: float64(p.Midterm[i]),
				Style: chart.Style{FillColor: color, StrokeColor: color},
			},
		)
	}

	graph := barChart(p.Name+" 排名对比", bars, top)
	graph.BarWidth = 24
	graph.BarSpacing = 8
	graph.Width = max(chartWidth, len(bars)*(graph.BarWidth+graph.BarSpacing)+120)
	return graph, nil
}

func barChart(title string, bars []chart.Value, top float64) chart.BarChart {
	return chart.BarChart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 50},
		},
		BarWidth: 40,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}
}

// renderer is satisfied by chart.Chart and chart.BarChart.
type renderer interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func writePNG(w http.ResponseWriter, graph renderer, err error) {
	if errors.Is(err, errNoChartData) {
		http.Error(w, "No chart data", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Chart error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		log.Printf("Chart render error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

// Distribution serves the score histogram chart.
func (h *ChartHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	graph, err := DistributionImage(h.Site.Overview.Distribution)
	writePNG(w, graph, err)
}

// Subjects serves the subject averages chart.
func (h *ChartHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	graph, err := SubjectImage(h.Site.Overview.Subjects)
	writePNG(w, graph, err)
}

// Classes serves the class averages chart.
func (h *ChartHandler) Classes(w http.ResponseWriter, r *http.Request) {
	graph, err := ClassImage(h.Site.Overview.Classes)
	writePNG(w, graph, err)
}

// Student serves one student's rank chart.
func (h *ChartHandler) Student(w http.ResponseWriter, r *http.Request) {
	p, err := h.Site.Project(chi.URLParam(r, "id"))
	if errors.Is(err, dashboard.ErrUnknownStudent) {
		http.NotFound(w, r)
		return
	}
	graph, err := StudentImage(p)
	writePNG(w, graph, err)
}
