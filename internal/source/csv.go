package source

import (
	"encoding/csv"
	"fmt"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"

	"paychart/internal/core"
)

// Row is one year of tabular salary data. CSV uploads and spreadsheet
// imports share this column layout.
type Row struct {
	Year       string  `csv:"year"`
	Annual     float64 `csv:"annual_salary"`
	Monthly    float64 `csv:"monthly_salary"`
	YearEnd    float64 `csv:"year_end_bonus"`
	SecondHalf float64 `csv:"second_half_bonus"`
	Dividend   float64 `csv:"dividend_bonus"`
	FirstHalf  float64 `csv:"first_half_bonus"`
	Note       string  `csv:"note"`
}

// Columns lists the header names in file order.
var Columns = []string{
	"year", "annual_salary", "monthly_salary",
	"year_end_bonus", "second_half_bonus", "dividend_bonus", "first_half_bonus",
	"note",
}

// RequiredColumns are the columns every tabular source must name. Only the
// note may be left out.
func RequiredColumns() []string {
	return slices.DeleteFunc(slices.Clone(Columns), func(c string) bool { return c == "note" })
}

// ParseCSV decodes CSV text into the same object shape as the JSON format.
// Every required column must appear in the header; gocsv would otherwise
// decode a misspelled column as zeros.
func ParseCSV(text string) (any, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	header, err := csv.NewReader(strings.NewReader(text)).Read()
	if err != nil {
		return nil, &core.ParseError{Source: CSV, Err: fmt.Errorf("read header: %w", err)}
	}
	var missing []string
	for _, col := range RequiredColumns() {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &core.ParseError{Source: CSV, Err: fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))}
	}

	var rows []*Row
	if err := gocsv.UnmarshalString(text, &rows); err != nil {
		return nil, &core.ParseError{Source: CSV, Err: err}
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return FromRows(out), nil
}

// FromRows builds a decoded-JSON-shaped value from rows. Per-row notes are
// joined as "<year>: <note>" lines.
func FromRows(rows []Row) map[string]any {
	years := make([]any, len(rows))
	annual := make([]any, len(rows))
	monthly := make([]any, len(rows))
	bonuses := make([]any, len(rows))
	var notes []string

	for i, r := range rows {
		year := strings.TrimSpace(r.Year)
		years[i] = year
		annual[i] = r.Annual
		monthly[i] = r.Monthly
		bonuses[i] = []any{r.YearEnd, r.SecondHalf, r.Dividend, r.FirstHalf}
		if n := strings.TrimSpace(r.Note); n != "" {
			notes = append(notes, year+": "+n)
		}
	}

	v := map[string]any{
		core.FieldYears:           years,
		core.FieldAnnualSalaries:  annual,
		core.FieldMonthlySalaries: monthly,
		core.FieldBonuses:         bonuses,
	}
	if len(notes) > 0 {
		v[core.FieldNote] = strings.Join(notes, "\n")
	}
	return v
}
