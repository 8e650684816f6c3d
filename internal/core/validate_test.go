package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestValidate_Valid(t *testing.T) {
	v := decode(t, `{"years":["2020","2021"],"annualSalaries":[100,150],"monthlySalaries":[10,12],"bonuses":[[0,0,0,0],[5,0,0,0]],"note":"x"}`)

	rec, err := Validate(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"2020", "2021"}, rec.Years)
	assert.Equal(t, []float64{100, 150}, rec.AnnualSalaries)
	assert.Equal(t, []float64{10, 12}, rec.MonthlySalaries)
	assert.Equal(t, []Bonus{{0, 0, 0, 0}, {5, 0, 0, 0}}, rec.Bonuses)
	assert.Equal(t, "x", rec.Note)
}

func TestValidate_EmptyArrays(t *testing.T) {
	rec, err := Validate(decode(t, `{"years":[],"annualSalaries":[],"monthlySalaries":[],"bonuses":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Len())
	assert.Equal(t, NoNote, rec.DisplayNote())
}

func TestValidate_NumericYears(t *testing.T) {
	rec, err := Validate(decode(t, `{"years":[2020,2021.5],"annualSalaries":[1,2],"monthlySalaries":[1,2],"bonuses":[[0,0,0,0],[0,0,0,0]]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"2020", "2021.5"}, rec.Years)
}

func TestValidate_ShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"not an object", `[1,2,3]`, "(root)"},
		{"missing years", `{"annualSalaries":[],"monthlySalaries":[],"bonuses":[]}`, FieldYears},
		{"null bonuses", `{"years":[],"annualSalaries":[],"monthlySalaries":[],"bonuses":null}`, FieldBonuses},
		{"years not array", `{"years":"2020","annualSalaries":[],"monthlySalaries":[],"bonuses":[]}`, FieldYears},
		{"length mismatch", `{"years":["2020"],"annualSalaries":[],"monthlySalaries":[1],"bonuses":[[0,0,0,0]]}`, FieldAnnualSalaries},
		{"bonuses short", `{"years":["2020"],"annualSalaries":[1],"monthlySalaries":[1],"bonuses":[]}`, FieldBonuses},
		{"salary not number", `{"years":["2020"],"annualSalaries":["a"],"monthlySalaries":[1],"bonuses":[[0,0,0,0]]}`, FieldAnnualSalaries},
		{"year not string", `{"years":[true],"annualSalaries":[1],"monthlySalaries":[1],"bonuses":[[0,0,0,0]]}`, FieldYears},
		{"note object", `{"years":[],"annualSalaries":[],"monthlySalaries":[],"bonuses":[],"note":{}}`, FieldNote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Validate(decode(t, tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShape))
			assert.False(t, errors.Is(err, ErrBonusArity))

			var se *ShapeError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.field, se.Field)
			assert.Equal(t, 0, rec.Len())
		})
	}
}

func TestValidate_BonusArity(t *testing.T) {
	tests := []struct {
		name  string
		input string
		year  int
	}{
		{"three entries", `{"years":["2020"],"annualSalaries":[1],"monthlySalaries":[1],"bonuses":[[1,2,3]]}`, 1},
		{"five entries", `{"years":["2020","2021"],"annualSalaries":[1,2],"monthlySalaries":[1,2],"bonuses":[[0,0,0,0],[1,2,3,4,5]]}`, 2},
		{"not an array", `{"years":["2020","2021"],"annualSalaries":[1,2],"monthlySalaries":[1,2],"bonuses":[[0,0,0,0],7]}`, 2},
		{"non numeric", `{"years":["2020"],"annualSalaries":[1],"monthlySalaries":[1],"bonuses":[[0,"x",0,0]]}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(decode(t, tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBonusArity))

			var be *BonusArityError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.year, be.Year)
			assert.Contains(t, err.Error(), "year "+itoa(tt.year))
		})
	}
}

func TestValidate_NoteVariants(t *testing.T) {
	base := `{"years":[],"annualSalaries":[],"monthlySalaries":[],"bonuses":[]`
	tests := []struct {
		suffix  string
		display string
	}{
		{`}`, NoNote},
		{`,"note":null}`, NoNote},
		{`,"note":""}`, NoNote},
		{`,"note":"hello"}`, "hello"},
		{`,"note":42}`, "42"},
	}
	for _, tt := range tests {
		rec, err := Validate(decode(t, base+tt.suffix))
		require.NoError(t, err)
		assert.Equal(t, tt.display, rec.DisplayNote())
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
	assert.Equal(t, KindShape, Classify(&ShapeError{Field: "years", Reason: "is missing"}))
	assert.Equal(t, KindBonusArity, Classify(&BonusArityError{Year: 3}))
	assert.Equal(t, KindParse, Classify(&ParseError{Source: "text", Err: errors.New("boom")}))
	assert.Equal(t, KindRead, Classify(&ReadError{Name: "a.json", Err: errors.New("boom")}))
	assert.Equal(t, KindInternal, Classify(errors.New("other")))

	assert.True(t, IsUserError(&ParseError{Source: "file", Err: errors.New("x")}))
	assert.False(t, IsUserError(errors.New("db down")))
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}
