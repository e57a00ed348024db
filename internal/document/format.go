package document

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

const ellipsis = "..."

// Formatter renders money amounts in one fixed currency and locale.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter constructs a Formatter. English grouping is used for every currency so documents
// look the same regardless of the server locale.
func NewFormatter(unit currency.Unit) *Formatter {
	return &Formatter{unit: unit, printer: message.NewPrinter(language.English)}
}

// NGN is the default document currency. x/text only exports constants for major currencies.
var NGN = currency.MustParseISO("NGN")

var defaultFormatter = NewFormatter(NGN)

// Currency formats amount with exactly two fraction digits, prefixed by the ISO currency code.
// Negative and non-finite amounts are formatted as zero.
func (f *Formatter) Currency(amount float64) string {
	amount = quotation.Sanitize(amount)
	return f.unit.String() + " " + f.printer.Sprint(number.Decimal(amount, number.Scale(2)))
}

// Unit returns the configured currency.
func (f *Formatter) Unit() currency.Unit {
	return f.unit
}

// FormatCurrency formats amount in the default currency (NGN). It never fails.
func FormatCurrency(amount float64) string {
	return defaultFormatter.Currency(amount)
}

// WrapText greedily wraps text into lines no wider than maxWidth. Words are never split: a word
// wider than maxWidth occupies a line of its own. Explicit newlines start new lines, and empty input
// yields a single empty line.
func WrapText(m Measurer, text string, maxWidth float64, font Font) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if m.StringWidth(candidate, font) <= maxWidth {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}

// fitText shortens text with a trailing ellipsis until it fits maxWidth.
func fitText(m Measurer, text string, maxWidth float64, font Font) string {
	if m.StringWidth(text, font) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimRight(string(runes), " ") + ellipsis
		if m.StringWidth(candidate, font) <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func formatQuantity(qty float64) string {
	s := fmt.Sprintf("%.4f", quotation.Sanitize(qty))
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}

func formatPercent(v float64) string {
	s := fmt.Sprintf("%.2f", quotation.Sanitize(v))
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s + "%"
}

func formatDate(raw string) string {
	t, err := time.Parse(quotation.DateLayout, raw)
	if err != nil {
		return raw
	}
	return t.Format("02 Jan 2006")
}
