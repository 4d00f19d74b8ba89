package i18n

import (
	"fmt"
	"time"
)

var frenchMonths = [...]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."}

// FormatDate renders a day/short-month/year date the way each locale writes it.
// Zero dates render empty.
func FormatDate(t time.Time, loc Locale) string {
	if t.IsZero() {
		return ""
	}
	if loc == French {
		return fmt.Sprintf("%02d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
	}
	return t.Format("Jan 02, 2006")
}
