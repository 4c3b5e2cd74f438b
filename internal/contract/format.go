package contract

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// rocEpochOffset converts Gregorian years to Republic of China (民國) years
const rocEpochOffset = 1911

// ROCYear returns the ROC calendar year of t
func ROCYear(t time.Time) int {
	return t.Year() - rocEpochOffset
}

// GregorianYear converts an ROC year back to the Gregorian calendar
func GregorianYear(rocYear int) int {
	return rocYear + rocEpochOffset
}

// FormatAmount renders an amount with thousands separators, e.g. 30000 -> "30,000"
func FormatAmount(amount int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", amount)
}
