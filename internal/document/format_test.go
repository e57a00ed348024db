package document

import (
	"math"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

// runeMeasurer gives every rune the same width regardless of font.
type runeMeasurer float64

func (m runeMeasurer) StringWidth(text string, _ Font) float64 {
	return float64(utf8.RuneCountInString(text)) * float64(m)
}

func TestFormatCurrencyCoercesInvalidAmounts(t *testing.T) {
	zero := FormatCurrency(0)
	require.Equal(t, "NGN 0.00", zero)
	for _, v := range []float64{-5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Equal(t, zero, FormatCurrency(v))
	}
	assert.Equal(t, "NGN 12.50", FormatCurrency(12.5))
	assert.Equal(t, "NGN 225.00", FormatCurrency(225))
}

func TestFormatterUsesConfiguredCurrency(t *testing.T) {
	f := NewFormatter(currency.USD)
	assert.Equal(t, "USD 7.00", f.Currency(7))
	assert.Equal(t, currency.USD, f.Unit())
}

func TestEngineDefaultsToNaira(t *testing.T) {
	assert.Equal(t, "NGN", NGN.String())
	assert.Equal(t, NGN, New(nil).Formatter().Unit())
}

func TestWrapTextEmptyInputYieldsOneLine(t *testing.T) {
	lines := WrapText(runeMeasurer(1), "", 50, fontBody)
	require.Equal(t, []string{""}, lines)
}

func TestWrapTextRespectsMaxWidth(t *testing.T) {
	m := runeMeasurer(1)
	text := "the quick brown fox jumps over the lazy dog and keeps running far beyond the fence"
	lines := WrapText(m, text, 20, fontBody)
	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, m.StringWidth(line, fontBody), 20.0, line)
	}
}

func TestWrapTextKeepsOverlongWordWhole(t *testing.T) {
	m := runeMeasurer(1)
	lines := WrapText(m, "short supercalifragilisticexpialidocious end", 10, fontBody)
	require.Equal(t, []string{"short", "supercalifragilisticexpialidocious", "end"}, lines)
}

func TestWrapTextHonoursNewlines(t *testing.T) {
	lines := WrapText(runeMeasurer(1), "one\r\n\ntwo", 100, fontBody)
	require.Equal(t, []string{"one", "", "two"}, lines)
}

func TestFitTextAddsEllipsis(t *testing.T) {
	m := runeMeasurer(1)
	assert.Equal(t, "fits", fitText(m, "fits", 10, fontBody))
	got := fitText(m, "a rather long company address", 10, fontBody)
	assert.LessOrEqual(t, m.StringWidth(got, fontBody), 10.0)
	assert.Equal(t, "a rathe...", got)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "2", formatQuantity(2))
	assert.Equal(t, "1.5", formatQuantity(1.5))
	assert.Equal(t, "0", formatQuantity(-3))
	assert.Equal(t, "7.5%", formatPercent(7.5))
	assert.Equal(t, "0%", formatPercent(0))
	assert.Equal(t, "09 Apr 2025", formatDate("2025-04-09"))
	assert.Equal(t, "someday", formatDate("someday"))
}
