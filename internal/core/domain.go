package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// NoNote is displayed when a record carries no usable note.
const NoNote = "No note"

// Positions inside a Bonus tuple.
const (
	BonusYearEnd = iota
	BonusSecondHalf
	BonusDividend
	BonusFirstHalf

	BonusArity
)

type (
	// Bonus is the per-year breakdown ordered as
	// [year-end, second-half performance, dividend, first-half performance].
	Bonus [BonusArity]float64

	// Record is one complete salary history. It is never mutated once built;
	// a new load replaces it wholesale.
	Record struct {
		Years           []string  `json:"years"`
		AnnualSalaries  []float64 `json:"annualSalaries"`
		MonthlySalaries []float64 `json:"monthlySalaries"`
		Bonuses         []Bonus   `json:"bonuses"`
		Note            string    `json:"note,omitempty"`
	}
)

// Len returns the number of years in the record.
func (r Record) Len() int {
	return len(r.Years)
}

// DisplayNote returns the note or the NoNote sentinel when it is empty.
func (r Record) DisplayNote() string {
	if r.Note == "" {
		return NoNote
	}
	return r.Note
}

// Format pretty-prints the record with 2-space indentation.
func (r Record) Format() string {
	b, err := json.MarshalIndent(r.normalized(), "", "  ")
	if err != nil {
		// Only float NaN/Inf can fail here and Validate never admits them.
		return ""
	}
	return string(b)
}

// Identity returns a stable hash of the record's canonical JSON form.
func (r Record) Identity() string {
	b, _ := json.Marshal(r.normalized())
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// normalized replaces nil slices so empty records print as [] not null.
func (r Record) normalized() Record {
	if r.Years == nil {
		r.Years = []string{}
	}
	if r.AnnualSalaries == nil {
		r.AnnualSalaries = []float64{}
	}
	if r.MonthlySalaries == nil {
		r.MonthlySalaries = []float64{}
	}
	if r.Bonuses == nil {
		r.Bonuses = []Bonus{}
	}
	return r
}

// Equal reports whether two records hold the same data.
func (r Record) Equal(o Record) bool {
	if r.Note != o.Note || r.Len() != o.Len() ||
		len(r.AnnualSalaries) != len(o.AnnualSalaries) ||
		len(r.MonthlySalaries) != len(o.MonthlySalaries) ||
		len(r.Bonuses) != len(o.Bonuses) {
		return false
	}
	for i := range r.Years {
		if r.Years[i] != o.Years[i] {
			return false
		}
	}
	for i := range r.AnnualSalaries {
		if r.AnnualSalaries[i] != o.AnnualSalaries[i] {
			return false
		}
	}
	for i := range r.MonthlySalaries {
		if r.MonthlySalaries[i] != o.MonthlySalaries[i] {
			return false
		}
	}
	for i := range r.Bonuses {
		if r.Bonuses[i] != o.Bonuses[i] {
			return false
		}
	}
	return true
}
