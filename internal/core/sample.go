package core

// Sample returns the bundled example record. Each call returns fresh slices.
func Sample() Record {
	return Record{
		Years:           []string{"2022", "2023", "2024", "2025"},
		AnnualSalaries:  []float64{600000, 600000, 600000, 600000},
		MonthlySalaries: []float64{92000, 94900, 100700, 104100},
		Bonuses: []Bonus{
			{0, 0, 0, 0},
			{161819, 268100, 150000, 66000},
			{189800, 306000, 197000, 139000},
			{201400, 312000, 0, 0},
		},
		Note: "2022: no bonus data\n2023: first dividend included\n2024: performance bonuses grew significantly\n2025: some bonus data missing",
	}
}
