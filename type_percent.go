package stresslab

import "fmt"

// Percent is a ratio expressed in percent points for display.
type Percent float64

// AsPercent converts a ratio (0.12 for 12%) to its display value.
func AsPercent(ratio float64) Percent { return Percent(100 * ratio) }

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

// SignedString renders the percent with an explicit sign, and "-" for zero.
func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" {
		return "-"
	}
	return res
}
