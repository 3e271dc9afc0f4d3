package insights

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"INR": "₹",
	"EUR": "€",
	"GBP": "£",
}

var amountPrinter = message.NewPrinter(language.English)

// Symbol returns the display symbol for an ISO currency code, or the code itself.
func Symbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return code
}

// Format renders amount with the currency symbol, thousands separators and 2 decimals.
func Format(amount float64, code string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	symbol := Symbol(code)
	if _, known := currencySymbols[strings.ToUpper(strings.TrimSpace(code))]; !known && symbol != "" {
		symbol += " "
	}
	return sign + symbol + amountPrinter.Sprintf("%.2f", Round(amount))
}

// Round rounds a money amount to cents.
func Round(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// cents converts an amount to an integer number of cents.
func cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Round(2).Shift(2).IntPart()
}
