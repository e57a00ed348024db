package document

import (
	"math"
	"strings"

	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

const (
	totalsRowHeight   = 6.0
	grandRowHeight    = 9.0
	totalsBoxPadding  = 3.0
	signatureCaption  = "Authorized Signature"
	notesLabel        = "Notes"
	signatureCaptionH = 5.0
)

type totalsLine struct {
	label string
	value string
}

// renderTotals draws the totals box right-aligned against the content area. The box is kept whole:
// if it does not fit above the footer band, it moves to a new page as a unit.
func (s *renderState) renderTotals(rec quotation.Record) {
	totals := rec.Totals()
	rows := []totalsLine{
		{"Subtotal", s.money.Currency(totals.Subtotal)},
		{"VAT (" + formatPercent(quotation.Sanitize(rec.VATPercent)) + ")", s.money.Currency(totals.VATAmount)},
		{"Shipping", s.money.Currency(totals.Shipping)},
	}
	height := 2*totalsBoxPadding + float64(len(rows))*totalsRowHeight + ruleThickness + grandRowHeight
	s.geo.EnsureClosingSpace(height, nil)

	top := s.geo.CursorY()
	right := s.geo.Right()
	left := right - totalsBoxWidth
	s.rect(left, top, totalsBoxWidth, height, colorTotalsFill, RoleTotals)

	y := top + totalsBoxPadding
	for _, row := range rows {
		s.text(left+totalsBoxPadding, y, totalsRowHeight, row.label, fontBody, colorMuted, RoleTotals)
		s.textRight(right-totalsBoxPadding, y, totalsRowHeight, row.value, fontBody, colorText, RoleTotals)
		y += totalsRowHeight
	}
	s.rect(left+totalsBoxPadding, y, totalsBoxWidth-2*totalsBoxPadding, ruleThickness, colorRule, RoleTotals)
	y += ruleThickness
	s.text(left+totalsBoxPadding, y, grandRowHeight, "Grand Total", fontGrand, colorText, RoleTotals)
	s.textRight(right-totalsBoxPadding, y, grandRowHeight, s.money.Currency(totals.GrandTotal), fontGrand, colorText, RoleTotals)

	s.geo.Advance(height + sectionGap)
}

// renderNotes places the notes on the left and the signature on the right. Without a signature the
// notes take the full content width; with neither, nothing is drawn.
func (s *renderState) renderNotes(rec quotation.Record) {
	notes := strings.TrimSpace(rec.Notes)
	var sigW, sigH float64
	if rec.Signature != nil {
		sigW, sigH = fitImage(rec.Signature, signatureWidth, signatureMaxHeight)
	}
	hasSignature := sigW > 0
	if notes == "" && !hasSignature {
		return
	}

	notesW := s.geo.ContentWidth()
	if hasSignature {
		notesW -= signatureWidth + columnGap
	}
	var lines []string
	if notes != "" {
		lines = WrapText(s.measure, notes, notesW, fontBody)
	}

	// The signature block and the first lines of notes stay together.
	sigBlock := 0.0
	if hasSignature {
		sigBlock = sigH + signatureCaptionH
	}
	lead := 0.0
	if len(lines) > 0 {
		lead = lineHeight * 2
	}
	s.geo.EnsureClosingSpace(math.Max(sigBlock, lead), nil)

	top := s.geo.CursorY()
	if hasSignature {
		x := s.geo.Right() - signatureWidth
		s.image(x+(signatureWidth-sigW)/2, top, sigW, sigH, "signature", rec.Signature, RoleSignature)
		s.rect(x, top+sigH, signatureWidth, ruleThickness/2, colorRule, RoleSignature)
		captionX := x + (signatureWidth-s.measure.StringWidth(signatureCaption, fontLabel))/2
		s.text(captionX, top+sigH, signatureCaptionH, signatureCaption, fontLabel, colorMuted, RoleSignature)
	}

	if len(lines) > 0 {
		pageAtStart := s.geo.PageIndex()
		s.text(s.geo.Left(), s.geo.CursorY(), lineHeight, notesLabel, fontBodyBold, colorMuted, RoleNotes)
		s.geo.Advance(lineHeight)
		for _, line := range lines {
			s.geo.EnsureClosingSpace(lineHeight, nil)
			s.text(s.geo.Left(), s.geo.CursorY(), lineHeight, line, fontBody, colorText, RoleNotes)
			s.geo.Advance(lineHeight)
		}
		if s.geo.PageIndex() != pageAtStart {
			s.geo.Advance(sectionGap)
			return
		}
	}
	if used := s.geo.CursorY() - top; used < sigBlock {
		s.geo.Advance(sigBlock - used)
	}
	s.geo.Advance(sectionGap)
}
