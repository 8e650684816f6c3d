package google

import (
	"fmt"
	"strconv"
	"strings"

	"paychart/internal/core"
	"paychart/internal/source"
)

// parseSalaryRows maps a header-led value matrix onto source rows. Header
// matching is case-insensitive and ignores surrounding spaces. Every column
// except the note is required.
func parseSalaryRows(values [][]interface{}) (map[string]any, error) {
	if len(values) == 0 {
		return source.FromRows(nil), nil
	}

	header := toStrings(values[0])
	idx := make(map[string]int, len(source.Columns))
	for _, col := range source.Columns {
		idx[col] = indexOf(header, col)
	}
	var missing []string
	for _, col := range source.RequiredColumns() {
		if idx[col] < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, sheetErr(fmt.Errorf("header row is missing columns: %s", strings.Join(missing, ", ")))
	}

	rows := make([]source.Row, 0, len(values)-1)
	for i, raw := range values[1:] {
		cells := toStrings(raw)
		rawAt := func(j int) interface{} {
			if j < 0 || j >= len(raw) {
				return nil
			}
			return raw[j]
		}
		year := safeGet(cells, idx["year"])
		if year == "" {
			continue
		}

		row := source.Row{Year: year, Note: safeGet(cells, idx["note"])}
		nums := []struct {
			col string
			dst *float64
		}{
			{"annual_salary", &row.Annual},
			{"monthly_salary", &row.Monthly},
			{"year_end_bonus", &row.YearEnd},
			{"second_half_bonus", &row.SecondHalf},
			{"dividend_bonus", &row.Dividend},
			{"first_half_bonus", &row.FirstHalf},
		}
		for _, n := range nums {
			f, err := cellAmount(rawAt(idx[n.col]))
			if err != nil {
				// +2: one for the header, one for 1-based sheet rows
				return nil, sheetErr(fmt.Errorf("row %d column %s: %w", i+2, n.col, err))
			}
			*n.dst = f
		}
		rows = append(rows, row)
	}
	return source.FromRows(rows), nil
}

func sheetErr(err error) error {
	return &core.ParseError{Source: source.Sheets, Err: err}
}

// parseAmount accepts plain numbers and formatted amounts such as
// "€ 1.234,50", "1,234.50" or "600,000". With both separators present the
// last one is the decimal mark. A lone separator kind followed by groups of
// exactly three digits is a thousands separator; a single occurrence
// followed by anything else is the decimal mark.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, s)

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		decimal, group := ".", ","
		if lastComma > lastDot {
			decimal, group = ",", "."
		}
		s = strings.ReplaceAll(s, group, "")
		if strings.Count(s, decimal) > 1 {
			return 0, fmt.Errorf("ambiguous amount %q", s)
		}
		s = strings.Replace(s, decimal, ".", 1)
	case lastDot >= 0:
		return parseSingleSeparator(s, ".")
	case lastComma >= 0:
		return parseSingleSeparator(s, ",")
	}
	return strconv.ParseFloat(s, 64)
}

func parseSingleSeparator(s, sep string) (float64, error) {
	parts := strings.Split(s, sep)
	grouped := true
	for _, p := range parts[1:] {
		if len(p) != 3 {
			grouped = false
			break
		}
	}
	switch {
	case grouped:
		s = strings.Join(parts, "")
	case len(parts) == 2:
		s = parts[0] + "." + parts[1]
	default:
		return 0, fmt.Errorf("ambiguous amount %q", s)
	}
	return strconv.ParseFloat(s, 64)
}

// cellAmount reads a numeric cell. Unformatted reads return numbers as
// float64, which must not go through the separator heuristics.
func cellAmount(v interface{}) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		return parseAmount(t)
	default:
		return parseAmount(fmt.Sprint(t))
	}
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch t := v.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = strings.TrimSpace(t)
		case float64:
			out[i] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(t))
		}
	}
	return out
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
