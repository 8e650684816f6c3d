package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrTooFewPoints is returned by RenderPNG when the option has fewer than two
// categories; a line needs two points.
var ErrTooFewPoints = errors.New("need at least two years to draw a preview")

const (
	pngWidth  = 1024
	pngHeight = 512
)

// RenderPNG draws opt as a PNG image on w.
func RenderPNG(w io.Writer, opt Option) error {
	n := len(opt.XAxis.Data)
	if n < 2 {
		return ErrTooFewPoints
	}

	xs := make([]float64, n)
	ticks := make([]gochart.Tick, n)
	for i, label := range opt.XAxis.Data {
		xs[i] = float64(i)
		ticks[i] = gochart.Tick{Value: float64(i), Label: label}
	}

	var primary, secondary []float64
	series := make([]gochart.Series, 0, len(opt.Series))
	for _, s := range opt.Series {
		if len(s.Data) != n {
			return fmt.Errorf("series %q has %d points for %d categories", s.Name, len(s.Data), n)
		}
		cs := gochart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: s.Data,
			Style:   seriesStyle(s.LineStyle.Color),
		}
		if s.YAxisIndex == AxisPercent {
			cs.YAxis = gochart.YAxisSecondary
			secondary = append(secondary, s.Data...)
		} else {
			primary = append(primary, s.Data...)
		}
		series = append(series, cs)
	}

	ch := gochart.Chart{
		Title:      opt.Title.Text,
		Width:      pngWidth,
		Height:     pngHeight,
		Background: gochart.Style{Padding: gochart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Ticks: ticks, Range: &gochart.ContinuousRange{Min: 0, Max: float64(n - 1)}},
		Series:     series,
	}
	if len(opt.YAxis) > AxisAmount {
		ch.YAxis = gochart.YAxis{Name: opt.YAxis[AxisAmount].Name, Range: paddedRange(primary)}
	}
	if len(secondary) > 0 && len(opt.YAxis) > AxisPercent {
		ch.YAxisSecondary = gochart.YAxis{Name: opt.YAxis[AxisPercent].Name, Range: paddedRange(secondary)}
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}

func seriesStyle(hex string) gochart.Style {
	col := drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
	return gochart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	}
}

// paddedRange spans values; a flat series gets one unit of headroom on each
// side so the axis never collapses to zero height.
func paddedRange(values []float64) *gochart.ContinuousRange {
	if len(values) == 0 {
		return &gochart.ContinuousRange{Min: 0, Max: 1}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}
