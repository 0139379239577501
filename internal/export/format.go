package export

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var german = message.NewPrinter(language.German)

// FormatAmount renders d in German notation with two decimals, 1.234,56.
// Amounts are rounded half up before formatting.
func FormatAmount(d decimal.Decimal) string {
	return german.Sprintf("%v", number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}
