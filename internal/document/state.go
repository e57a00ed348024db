package document

import (
	"image"
	"math"
)

// Layout constants in millimetres.
const (
	lineHeight         = 5.0
	rowLineHeight      = 6.0
	headerRowHeight    = 8.0
	cellPadding        = 2.0
	sectionGap         = 6.0
	logoMaxWidth       = 30.0
	logoMaxHeight      = 30.0
	logoGap            = 5.0
	headerMinHeight    = 28.0
	headerRightWidth   = 55.0
	customerMinHeight  = 20.0
	totalsBoxWidth     = 80.0
	signatureWidth     = 50.0
	signatureMaxHeight = 25.0
	columnGap          = 8.0
	footerLineHeight   = 4.5
	ruleThickness      = 0.4
)

// renderState is the per-render bookkeeping: cursor geometry plus the pages built so far.
type renderState struct {
	setup     PageSetup
	geo       *Geometry
	pages     []*Page
	measure   Measurer
	money     *Formatter
	truncated bool
}

func newRenderState(setup PageSetup, m Measurer, money *Formatter) *renderState {
	s := &renderState{setup: setup, measure: m, money: money}
	s.geo = NewGeometry(setup, s.openPage)
	return s
}

func (s *renderState) openPage(index int) {
	if n := len(s.pages); n > 0 {
		s.pages[n-1].closed = true
	}
	s.pages = append(s.pages, &Page{Index: index, Width: s.setup.Width, Height: s.setup.Height})
}

// finish closes the last page and returns all pages.
func (s *renderState) finish() []*Page {
	if n := len(s.pages); n > 0 {
		s.pages[n-1].closed = true
	}
	return s.pages
}

func (s *renderState) page() *Page {
	return s.pages[len(s.pages)-1]
}

func (s *renderState) text(x, top, lh float64, text string, font Font, color Color, role Role) {
	s.page().add(TextRun{X: x, Y: baseline(top, lh), Text: text, Font: font, Color: color, Role: role})
}

// textRight places text so that it ends at x.
func (s *renderState) textRight(x, top, lh float64, text string, font Font, color Color, role Role) {
	s.text(x-s.measure.StringWidth(text, font), top, lh, text, font, color, role)
}

func (s *renderState) rect(x, y, w, h float64, color Color, role Role) {
	s.page().add(FilledRect{X: x, Y: y, W: w, H: h, Color: color, Role: role})
}

func (s *renderState) image(x, y, w, h float64, name string, img image.Image, role Role) {
	s.page().add(ImagePlacement{X: x, Y: y, W: w, H: h, Name: name, Image: img, Role: role})
}

// baseline places text inside a line box of height lh whose top edge is at top.
func baseline(top, lh float64) float64 {
	return top + lh*0.72
}

// fitImage scales an image into maxW×maxH keeping its aspect ratio. Images smaller than the box
// are scaled up to touch it.
func fitImage(img image.Image, maxW, maxH float64) (float64, float64) {
	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw <= 0 || ih <= 0 {
		return 0, 0
	}
	scale := math.Min(maxW/iw, maxH/ih)
	return iw * scale, ih * scale
}
