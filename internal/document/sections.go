package document

import (
	"math"
	"strings"

	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

// renderHeader places the logo, the company block to its right and the quote number and date
// right-aligned. Without a logo the company block starts at the left margin.
func (s *renderState) renderHeader(rec quotation.Record) {
	top := s.geo.CursorY()
	left, right := s.geo.Left(), s.geo.Right()

	textX := left
	logoH := 0.0
	if rec.Company.Logo != nil {
		w, h := fitImage(rec.Company.Logo, logoMaxWidth, logoMaxHeight)
		if w > 0 {
			s.image(left, top, w, h, "logo", rec.Company.Logo, RoleHeader)
			textX = left + w + logoGap
			logoH = h
		}
	}

	textW := right - headerRightWidth - textX
	y := top
	if rec.Company.Name != "" {
		for _, line := range WrapText(s.measure, rec.Company.Name, textW, fontCompany) {
			s.text(textX, y, 7, line, fontCompany, colorText, RoleHeader)
			y += 7
		}
	}
	if rec.Company.Address != "" {
		for _, line := range WrapText(s.measure, rec.Company.Address, textW, fontBody) {
			s.text(textX, y, lineHeight, line, fontBody, colorMuted, RoleHeader)
			y += lineHeight
		}
	}
	if contact := joinNonEmpty(" | ", rec.Company.Phone, rec.Company.Email); contact != "" {
		s.text(textX, y, lineHeight, fitText(s.measure, contact, textW, fontBody), fontBody, colorMuted, RoleHeader)
		y += lineHeight
	}
	companyH := y - top

	ry := top
	s.textRight(right, ry, lineHeight, "Quote #", fontLabel, colorMuted, RoleHeader)
	ry += lineHeight
	s.textRight(right, ry, 7, rec.QuoteNumber, fontNumber, colorText, RoleHeader)
	ry += 7
	s.textRight(right, ry, lineHeight, "Date", fontLabel, colorMuted, RoleHeader)
	ry += lineHeight
	s.textRight(right, ry, lineHeight, formatDate(rec.Date), fontBody, colorText, RoleHeader)
	ry += lineHeight

	height := math.Max(math.Max(logoH, headerMinHeight), math.Max(companyH, ry-top))
	s.geo.Advance(height)
	s.rule(RoleHeader)
}

// renderCustomer places the "Prepared for" label and one line per non-empty customer field.
func (s *renderState) renderCustomer(rec quotation.Record) {
	fields := rec.Customer.Fields()
	height := math.Max(customerMinHeight, float64(len(fields)+1)*lineHeight)
	s.geo.EnsureSpace(height, nil)

	top := s.geo.CursorY()
	left := s.geo.Left()
	width := s.geo.ContentWidth()
	s.text(left, top, lineHeight, "Prepared for", fontBodyBold, colorMuted, RoleCustomer)
	y := top + lineHeight
	for _, field := range fields {
		s.text(left, y, lineHeight, fitText(s.measure, field, width, fontBody), fontBody, colorText, RoleCustomer)
		y += lineHeight
	}
	s.geo.Advance(height)
	s.rule(RoleCustomer)
}

// renderFooter places the terms text at a fixed offset from the bottom margin of the current page.
// It runs after every other section, so only the last page carries it.
func (s *renderState) renderFooter(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	setup := s.geo.Setup()
	lines := WrapText(s.measure, text, s.geo.ContentWidth(), fontFooter)
	maxLines := int(math.Floor(setup.ReservedFooter / footerLineHeight))
	if maxLines < 1 {
		maxLines = 1
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = fitText(s.measure, lines[maxLines-1]+" "+ellipsis, s.geo.ContentWidth(), fontFooter)
	}
	top := setup.Height - setup.Margin - float64(len(lines))*footerLineHeight
	for i, line := range lines {
		s.text(s.geo.Left(), top+float64(i)*footerLineHeight, footerLineHeight, line, fontFooter, colorMuted, RoleFooter)
	}
}

// rule draws a thin separator under the current section and leaves a gap below it.
func (s *renderState) rule(role Role) {
	y := s.geo.CursorY() + sectionGap/2
	s.rect(s.geo.Left(), y, s.geo.ContentWidth(), ruleThickness, colorRule, role)
	s.geo.Advance(sectionGap)
}

func joinNonEmpty(sep string, values ...string) string {
	var parts []string
	for _, v := range values {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
