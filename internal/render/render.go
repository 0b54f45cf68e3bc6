// Package render turns quotes and errors into Telegram Markdown messages.
package render

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cryptochecker/internal/provider"
)

var flags = map[string]string{
	"UAH": "🇺🇦",
	"EUR": "🇪🇺",
	"USD": "🇺🇸",
	"GBP": "🇬🇧",
	"PLN": "🇵🇱",
	"CHF": "🇨🇭",
	"JPY": "🇯🇵",
}

var signs = map[string]string{
	"UAH": "₴",
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"JPY": "¥",
}

var escaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// Escape makes s safe to embed in a legacy Markdown message outside of
// any entity.
func Escape(s string) string { return escaper.Replace(s) }

// Bold wraps s in a bold entity. Backslash escapes are not honored inside
// an entity, so the only character that could close it early is dropped.
func Bold(s string) string { return "*" + strings.ReplaceAll(s, "*", "") + "*" }

// Number formats v with thousands separators and the given decimals,
// e.g. Number(1234.5, 2) == "1,234.50".
func Number(v float64, decimals int) string {
	return message.NewPrinter(language.English).Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

// Quote renders q:
//
//	*Bitcoin* (BTC)
//
//	💵 USD: *$67,012.50*
//	🇺🇦 UAH: *₴2,761,000.10*
//
//	Change (24h): 🔴 -1.23%
func Quote(q provider.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n\n", Bold(q.Name), Escape(q.Symbol))
	fmt.Fprintf(&b, "💵 USD: *$%s*\n", Number(q.USD, q.USDDecimals))

	cur := q.Currency
	if cur == "" {
		cur = "UAH"
	}
	local := "N/A"
	if q.Local != nil {
		local = Number(*q.Local, 2)
	}
	fmt.Fprintf(&b, "%s %s: *%s%s*\n\n", flag(cur), cur, sign(cur), local)

	b.WriteString("Change (24h): ")
	switch {
	case q.Fiat:
		b.WriteString("⚪ N/A (fiat)")
	case q.Change24h == nil:
		b.WriteString("⚪ N/A")
	case *q.Change24h >= 0:
		fmt.Fprintf(&b, "🟢 %+.2f%%", *q.Change24h)
	default:
		fmt.Fprintf(&b, "🔴 %+.2f%%", *q.Change24h)
	}
	return b.String()
}

// Error renders a user facing message for a failed lookup of symbol.
func Error(symbol string, err error) string {
	s := Bold(symbol)
	switch kind := provider.KindOf(err); {
	case errors.Is(kind, provider.ErrNotFound):
		return fmt.Sprintf("Cryptocurrency %s not found. Check the symbol.", s)
	case errors.Is(kind, provider.ErrNoPriceData):
		return fmt.Sprintf("No price data for %s.", s)
	case errors.Is(kind, provider.ErrRatesUnavailable):
		return fmt.Sprintf("Could not get current fiat rates for %s. Try again later.", s)
	case errors.Is(kind, provider.ErrMalformedResponse):
		return fmt.Sprintf("Unexpected response from the price service for %s. Try again later.", s)
	default:
		return fmt.Sprintf("Connection error while checking %s. Try again later.", s)
	}
}

func flag(code string) string {
	if f, ok := flags[code]; ok {
		return f
	}
	return "💱"
}

func sign(code string) string {
	if s, ok := signs[code]; ok {
		return s
	}
	return code + " "
}
