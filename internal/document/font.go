package document

import (
	"github.com/go-pdf/fpdf"
)

// Font names a core PDF font at a size in points.
type Font struct {
	Family string
	Style  string
	Size   float64
}

const fontFamily = "Helvetica"

var (
	fontBody      = Font{Family: fontFamily, Size: 10}
	fontBodyBold  = Font{Family: fontFamily, Style: "B", Size: 10}
	fontLabel     = Font{Family: fontFamily, Size: 9}
	fontCompany   = Font{Family: fontFamily, Style: "B", Size: 15}
	fontNumber    = Font{Family: fontFamily, Style: "B", Size: 13}
	fontGrand     = Font{Family: fontFamily, Style: "B", Size: 12}
	fontFooter    = Font{Family: fontFamily, Style: "I", Size: 8}
	fontTableHead = Font{Family: fontFamily, Style: "B", Size: 9.5}
)

// Measurer reports the rendered width of text in millimetres.
type Measurer interface {
	StringWidth(text string, font Font) float64
}

// Metrics measures text with the core font metrics used by the pdf encoder. A Metrics value is not
// safe for concurrent use; each render creates its own.
type Metrics struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	current Font
}

// NewMetrics constructs a Metrics instance.
func NewMetrics() *Metrics {
	pdf := fpdf.New("P", "mm", "A4", "")
	return &Metrics{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// StringWidth implements Measurer.
func (m *Metrics) StringWidth(text string, font Font) float64 {
	if text == "" {
		return 0
	}
	if m.current != font {
		m.pdf.SetFont(font.Family, font.Style, font.Size)
		m.current = font
	}
	return m.pdf.GetStringWidth(m.tr(text))
}
