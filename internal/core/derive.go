package core

import "github.com/shopspring/decimal"

// Derived holds the year-over-year metrics computed from a Record. Every
// series is index-aligned with the record's years.
type Derived struct {
	AnnualRaiseAmounts      []float64
	AnnualRaisePercentages  []float64
	MonthlyRaiseAmounts     []float64
	MonthlyRaisePercentages []float64

	YearEndBonuses    []float64
	SecondHalfBonuses []float64
	DividendBonuses   []float64
	FirstHalfBonuses  []float64
}

var hundred = decimal.NewFromInt(100)

// Derive computes raise amounts, raise percentages and the four bonus series.
// It has no side effects.
func Derive(r Record) Derived {
	d := Derived{}
	d.AnnualRaiseAmounts, d.AnnualRaisePercentages = raises(r.AnnualSalaries)
	d.MonthlyRaiseAmounts, d.MonthlyRaisePercentages = raises(r.MonthlySalaries)
	d.YearEndBonuses = project(r.Bonuses, BonusYearEnd)
	d.SecondHalfBonuses = project(r.Bonuses, BonusSecondHalf)
	d.DividendBonuses = project(r.Bonuses, BonusDividend)
	d.FirstHalfBonuses = project(r.Bonuses, BonusFirstHalf)
	return d
}

func raises(values []float64) (amounts, percentages []float64) {
	amounts = make([]float64, len(values))
	percentages = make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		prev := decimal.NewFromFloat(values[i-1])
		raise := decimal.NewFromFloat(values[i]).Sub(prev)
		amounts[i] = raise.InexactFloat64()
		percentages[i] = RaisePercentage(raise, prev)
	}
	return amounts, percentages
}

// RaisePercentage returns raise/prev*100 rounded to 2 decimal places, or 0
// when prev is zero or negative.
func RaisePercentage(raise, prev decimal.Decimal) float64 {
	if !prev.IsPositive() {
		return 0
	}
	return raise.Mul(hundred).Div(prev).Round(2).InexactFloat64()
}

func project(bonuses []Bonus, pos int) []float64 {
	out := make([]float64, len(bonuses))
	for i, b := range bonuses {
		out[i] = b[pos]
	}
	return out
}
