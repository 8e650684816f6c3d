package chart

import "strconv"

// Mode selects which series the chart displays.
type Mode int

const (
	Annual Mode = iota
	Monthly
	Bonus

	modeCount
)

// Next cycles Annual -> Monthly -> Bonus -> Annual.
func (m Mode) Next() Mode {
	return Mode((int(m.normalize()) + 1) % int(modeCount))
}

// Valid reports whether m is one of the three display modes.
func (m Mode) Valid() bool {
	return m >= Annual && m < modeCount
}

func (m Mode) normalize() Mode {
	if !m.Valid() {
		return Annual
	}
	return m
}

func (m Mode) String() string {
	switch m {
	case Annual:
		return "annual"
	case Monthly:
		return "monthly"
	case Bonus:
		return "bonus"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ToggleLabel is the caption of the button that switches away from m.
func (m Mode) ToggleLabel() string {
	switch m.normalize() {
	case Monthly:
		return "Switch to bonus data"
	case Bonus:
		return "Switch to annual data"
	default:
		return "Switch to monthly data"
	}
}

