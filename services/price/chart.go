package price

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/mshojaei77/tsetmc-go/interfaces"
	"github.com/mshojaei77/tsetmc-go/models"
)

// RenderChart renders a PNG line chart of one price field. When the
// history carries adjusted prices, the adjusted close is drawn as a
// second dashed series.
func (s *Service) RenderChart(_ context.Context, req interfaces.ChartRequest) ([]byte, error) {
	if req.History == nil || len(req.History.Bars) < 2 {
		return nil, fmt.Errorf("need at least 2 bars to render a chart")
	}

	field := req.Field
	if field == "" {
		field = "Close"
	}
	width := req.Width
	if width <= 0 {
		width = 900
	}
	height := req.Height
	if height <= 0 {
		height = 400
	}

	bars := req.History.Bars
	xValues := make([]time.Time, len(bars))
	rawY := make([]float64, len(bars))
	adjY := make([]float64, len(bars))
	for i, b := range bars {
		xValues[i] = b.Date
		v, err := barField(b, field)
		if err != nil {
			return nil, err
		}
		rawY[i] = v
		adjY[i] = b.AdjClose
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name: fmt.Sprintf("%s %s", req.History.Instrument.Symbol, field),
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("2563eb"),
				StrokeWidth: 2.5,
			},
			XValues: xValues,
			YValues: rawY,
		},
	}
	if req.History.Adjusted {
		series = append(series, chart.TimeSeries{
			Name: "Adjusted Close",
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("9ca3af"),
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: xValues,
			YValues: adjY,
		})
	}

	graph := chart.Chart{
		Title:  req.History.Instrument.Symbol,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func barField(b models.PriceBar, field string) (float64, error) {
	switch field {
	case "Open":
		return b.Open, nil
	case "High":
		return b.High, nil
	case "Low":
		return b.Low, nil
	case "Close":
		return b.Close, nil
	case "Last":
		return b.Last, nil
	case "Count":
		return float64(b.Count), nil
	case "Volume":
		return float64(b.Volume), nil
	case "Value":
		return float64(b.Value), nil
	default:
		return 0, fmt.Errorf("unknown price field %q", field)
	}
}
