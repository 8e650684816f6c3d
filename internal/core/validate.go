package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Input field names.
const (
	FieldYears           = "years"
	FieldAnnualSalaries  = "annualSalaries"
	FieldMonthlySalaries = "monthlySalaries"
	FieldBonuses         = "bonuses"
	FieldNote            = "note"
)

var requiredFields = []string{FieldYears, FieldAnnualSalaries, FieldMonthlySalaries, FieldBonuses}

// Validate checks an arbitrary decoded JSON value and builds a Record from it.
// Validation is all-or-nothing: on error the returned Record is zero.
func Validate(v any) (Record, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Record{}, &ShapeError{Field: "(root)", Reason: "is not an object"}
	}

	arrays := make(map[string][]any, len(requiredFields))
	for _, f := range requiredFields {
		raw, present := obj[f]
		if !present || raw == nil {
			return Record{}, &ShapeError{Field: f, Reason: "is missing"}
		}
		arr, isArr := raw.([]any)
		if !isArr {
			return Record{}, &ShapeError{Field: f, Reason: "is not an array"}
		}
		arrays[f] = arr
	}

	n := len(arrays[FieldYears])
	for _, f := range requiredFields[1:] {
		if got := len(arrays[f]); got != n {
			return Record{}, &ShapeError{Field: f, Reason: fmt.Sprintf("has %d entries but 'years' has %d", got, n)}
		}
	}

	for i, b := range arrays[FieldBonuses] {
		tuple, isArr := b.([]any)
		if !isArr || len(tuple) != BonusArity {
			return Record{}, &BonusArityError{Year: i + 1}
		}
		for _, x := range tuple {
			if _, isNum := toFloat(x); !isNum {
				return Record{}, &BonusArityError{Year: i + 1}
			}
		}
	}

	rec := Record{
		Years:           make([]string, n),
		AnnualSalaries:  make([]float64, n),
		MonthlySalaries: make([]float64, n),
		Bonuses:         make([]Bonus, n),
	}
	for i, y := range arrays[FieldYears] {
		label, ok := toLabel(y)
		if !ok {
			return Record{}, &ShapeError{Field: FieldYears, Reason: fmt.Sprintf("entry %d is not a string", i+1)}
		}
		rec.Years[i] = label
	}
	if err := fillNumbers(rec.AnnualSalaries, arrays[FieldAnnualSalaries], FieldAnnualSalaries); err != nil {
		return Record{}, err
	}
	if err := fillNumbers(rec.MonthlySalaries, arrays[FieldMonthlySalaries], FieldMonthlySalaries); err != nil {
		return Record{}, err
	}
	for i, b := range arrays[FieldBonuses] {
		for j, x := range b.([]any) {
			rec.Bonuses[i][j], _ = toFloat(x)
		}
	}

	switch note := obj[FieldNote].(type) {
	case nil:
	case string:
		rec.Note = note
	case bool:
		if note {
			rec.Note = "true"
		}
	default:
		if f, ok := toFloat(note); ok {
			if f != 0 {
				rec.Note = strconv.FormatFloat(f, 'f', -1, 64)
			}
		} else {
			return Record{}, &ShapeError{Field: FieldNote, Reason: "is not a string"}
		}
	}

	return rec, nil
}

func fillNumbers(dst []float64, src []any, field string) error {
	for i, x := range src {
		f, ok := toFloat(x)
		if !ok {
			return &ShapeError{Field: field, Reason: fmt.Sprintf("entry %d is not a number", i+1)}
		}
		dst[i] = f
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toLabel(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
