package catalog

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	StockOut = "out of stock"
	StockLow = "low stock"
	StockIn  = "in stock"

	lowStockThreshold = 10
	currencyPrefix    = "Rp "
)

// letters NFKD leaves untouched
var transliterations = map[rune]string{
	'ß': "ss",
	'æ': "ae",
	'œ': "oe",
	'ø': "o",
	'đ': "d",
	'ð': "d",
	'ł': "l",
	'þ': "th",
	'ı': "i",
}

var priceLocale = language.Indonesian

// Slugify lowercases and transliterates name to ASCII, collapses every run
// of other characters into a single hyphen and trims hyphens at both ends.
func Slugify(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}

	var b strings.Builder
	b.Grow(len(s))
	gap := false
	emit := func(part string) {
		if gap && b.Len() > 0 {
			b.WriteByte('-')
		}
		gap = false
		b.WriteString(part)
	}
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			emit(string(r))
		default:
			if rep, ok := transliterations[r]; ok {
				emit(rep)
				continue
			}
			gap = true
		}
	}
	return b.String()
}

// FormattedPrice renders price in whole rupiah with local digit grouping,
// e.g. 1500000 -> "Rp 1.500.000". Halves round away from zero.
func FormattedPrice(price decimal.Decimal) string {
	p := message.NewPrinter(priceLocale)
	return currencyPrefix + p.Sprintf("%d", price.Round(0).IntPart())
}

// StockStatus buckets a stock level for display
func StockStatus(stock int) string {
	switch {
	case stock <= 0:
		return StockOut
	case stock < lowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}
