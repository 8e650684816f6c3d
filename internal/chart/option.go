// Package chart maps a validated record and its derived metrics to a line
// chart configuration for a given display mode.
//
// The Option type serializes to the option object understood by ECharts, so
// the browser passes it to setOption unchanged. RenderPNG draws the same
// Option on the server.
package chart

import "paychart/internal/core"

type (
	Option struct {
		Title   Title    `json:"title"`
		Tooltip Tooltip  `json:"tooltip"`
		Legend  Legend   `json:"legend"`
		XAxis   XAxis    `json:"xAxis"`
		YAxis   []YAxis  `json:"yAxis"`
		Series  []Series `json:"series"`
	}

	Title struct {
		Text string `json:"text"`
	}

	Tooltip struct {
		Trigger string `json:"trigger"`
	}

	Legend struct {
		Data []string `json:"data"`
	}

	XAxis struct {
		Type string   `json:"type"`
		Data []string `json:"data"`
	}

	YAxis struct {
		Type      string    `json:"type"`
		Name      string    `json:"name"`
		Position  string    `json:"position"`
		AxisLabel AxisLabel `json:"axisLabel"`
	}

	AxisLabel struct {
		Formatter string `json:"formatter,omitempty"`
	}

	Series struct {
		Name       string    `json:"name"`
		Type       string    `json:"type"`
		Data       []float64 `json:"data"`
		YAxisIndex int       `json:"yAxisIndex"`
		LineStyle  Style     `json:"lineStyle"`
		ItemStyle  Style     `json:"itemStyle"`
	}

	Style struct {
		Color string `json:"color"`
	}
)

// Axis indexes used by Series.YAxisIndex.
const (
	AxisAmount  = 0
	AxisPercent = 1
)

type seriesSpec struct {
	name  string
	color string
	axis  int
	data  func(core.Record, core.Derived) []float64
}

type modeSpec struct {
	title       string
	amountAxis  string
	percentAxis string
	series      []seriesSpec
}

var modes = map[Mode]modeSpec{
	Annual: {
		title:       "Annual Salary Growth",
		amountAxis:  "Annual salary / raise",
		percentAxis: "Raise (%)",
		series: []seriesSpec{
			{"Annual salary", "#FF6384", AxisAmount, func(r core.Record, _ core.Derived) []float64 { return r.AnnualSalaries }},
			{"Annual raise", "#4CAF50", AxisAmount, func(_ core.Record, d core.Derived) []float64 { return d.AnnualRaiseAmounts }},
			{"Annual raise (%)", "#FFCE56", AxisPercent, func(_ core.Record, d core.Derived) []float64 { return d.AnnualRaisePercentages }},
		},
	},
	Monthly: {
		title:       "Monthly Salary Growth",
		amountAxis:  "Monthly salary / raise",
		percentAxis: "Raise (%)",
		series: []seriesSpec{
			{"Monthly salary", "#36A2EB", AxisAmount, func(r core.Record, _ core.Derived) []float64 { return r.MonthlySalaries }},
			{"Monthly raise", "#9966FF", AxisAmount, func(_ core.Record, d core.Derived) []float64 { return d.MonthlyRaiseAmounts }},
			{"Monthly raise (%)", "#FF9F40", AxisPercent, func(_ core.Record, d core.Derived) []float64 { return d.MonthlyRaisePercentages }},
		},
	},
	Bonus: {
		title:      "Bonus Breakdown",
		amountAxis: "Bonus",
		series: []seriesSpec{
			{"Year-end bonus", "#FF6384", AxisAmount, func(_ core.Record, d core.Derived) []float64 { return d.YearEndBonuses }},
			{"Second-half performance bonus", "#36A2EB", AxisAmount, func(_ core.Record, d core.Derived) []float64 { return d.SecondHalfBonuses }},
			{"Dividend bonus", "#4CAF50", AxisAmount, func(_ core.Record, d core.Derived) []float64 { return d.DividendBonuses }},
			{"First-half performance bonus", "#FFCE56", AxisAmount, func(_ core.Record, d core.Derived) []float64 { return d.FirstHalfBonuses }},
		},
	},
}

// Build returns the chart option for mode. An invalid mode renders as Annual.
func Build(r core.Record, d core.Derived, mode Mode) Option {
	spec := modes[mode.normalize()]

	opt := Option{
		Title:   Title{Text: spec.title},
		Tooltip: Tooltip{Trigger: "axis"},
		XAxis:   XAxis{Type: "category", Data: nonNil(r.Years)},
		YAxis: []YAxis{
			{Type: "value", Name: spec.amountAxis, Position: "left"},
			{Type: "value", Name: spec.percentAxis, Position: "right"},
		},
	}
	if spec.percentAxis != "" {
		opt.YAxis[AxisPercent].AxisLabel.Formatter = "{value} %"
	}

	for _, s := range spec.series {
		opt.Legend.Data = append(opt.Legend.Data, s.name)
		data := s.data(r, d)
		if data == nil {
			data = []float64{}
		}
		opt.Series = append(opt.Series, Series{
			Name:       s.name,
			Type:       "line",
			Data:       data,
			YAxisIndex: s.axis,
			LineStyle:  Style{Color: s.color},
			ItemStyle:  Style{Color: s.color},
		})
	}
	return opt
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
