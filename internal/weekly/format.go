package weekly

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

const (
	DefaultLocale   = "en-US"
	DefaultCurrency = "USD"
)

var ErrUnsupportedLocale = errors.New("unsupported locale")

// numberStyle describes how one locale writes a money amount.
type numberStyle struct {
	group    string
	decimal  string
	suffix   bool // symbol after the number
	spaced   bool // space between symbol and number
	weekdays [7]string
}

var englishWeekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var localeStyles = map[string]numberStyle{
	"en-US": {group: ",", decimal: ".", weekdays: englishWeekdays},
	"en-GB": {group: ",", decimal: ".", weekdays: englishWeekdays},
	"it-IT": {group: ".", decimal: ",", suffix: true, spaced: true, weekdays: [7]string{"dom", "lun", "mar", "mer", "gio", "ven", "sab"}},
	"de-DE": {group: ".", decimal: ",", suffix: true, spaced: true, weekdays: [7]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"}},
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Formatter renders amounts and day labels for one locale/currency pair.
type Formatter struct {
	locale   language.Tag
	currency currency.Unit
	symbol   string
	style    numberStyle
}

// NewFormatter validates the locale tag and ISO currency code and returns a
// formatter for the pair.
func NewFormatter(locale, currencyCode string) (Formatter, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return Formatter{}, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(strings.TrimSpace(currencyCode))
	if err != nil {
		return Formatter{}, fmt.Errorf("parse currency %q: %w", currencyCode, err)
	}
	style, ok := localeStyles[tag.String()]
	if !ok {
		return Formatter{}, fmt.Errorf("%w: %s", ErrUnsupportedLocale, tag)
	}
	symbol, ok := currencySymbols[unit.String()]
	if !ok {
		return Formatter{}, fmt.Errorf("%w: currency %s", ErrUnsupportedLocale, unit)
	}
	return Formatter{locale: tag, currency: unit, symbol: symbol, style: style}, nil
}

// DefaultFormatter returns the en-US/USD formatter.
func DefaultFormatter() Formatter {
	f, err := NewFormatter(DefaultLocale, DefaultCurrency)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Formatter) Locale() string {
	return f.locale.String()
}

func (f Formatter) Currency() string {
	return f.currency.String()
}

// FormatCurrency renders amount with two decimals, the locale's separators
// and the currency symbol, e.g. "$1,234.50" or "1.234,50 €".
func (f Formatter) FormatCurrency(amount decimal.Decimal) string {
	style := f.style
	if f.symbol == "" {
		style = localeStyles[DefaultLocale]
	}
	fixed := amount.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")
	number := groupThousands(intPart, style.group) + style.decimal + fracPart

	symbol := f.symbol
	if symbol == "" {
		symbol = currencySymbols[DefaultCurrency]
	}
	sep := ""
	if style.spaced {
		sep = " "
	}
	var out string
	if style.suffix {
		out = number + sep + symbol
	} else {
		out = symbol + sep + number
	}
	if amount.Round(2).IsNegative() {
		out = "-" + out
	}
	return out
}

// DayLabel returns the short weekday name of t in the formatter's locale.
func (f Formatter) DayLabel(t time.Time) string {
	names := f.style.weekdays
	if names[0] == "" {
		names = englishWeekdays
	}
	return names[t.Weekday()]
}

// DayLabels labels every day of a window.
func (f Formatter) DayLabels(days [7]time.Time) [7]string {
	var labels [7]string
	for i, d := range days {
		labels[i] = f.DayLabel(d)
	}
	return labels
}

// RoundForDisplay rounds amount to two decimals, half away from zero, and
// converts it for chart payloads.
func RoundForDisplay(amount decimal.Decimal) float64 {
	return amount.Round(2).InexactFloat64()
}

// RoundFloat is RoundForDisplay for values that are already floats.
// NaN and infinities are returned unchanged.
func RoundFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return RoundForDisplay(decimal.NewFromFloat(v))
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
