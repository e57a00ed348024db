package document

import (
	"math"

	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

// Column share of the content width: description, quantity, unit price, line total.
var columnShares = [4]float64{0.55, 0.10, 0.17, 0.18}

type tableColumns struct {
	x [4]float64
	w [4]float64
}

func (s *renderState) columns() tableColumns {
	var cols tableColumns
	x := s.geo.Left()
	for i, share := range columnShares {
		cols.x[i] = x
		cols.w[i] = s.geo.ContentWidth() * share
		x += cols.w[i]
	}
	return cols
}

// maxRowLines is the number of description lines a single row may carry and still fit on an
// otherwise empty page below the table header.
func (s *renderState) maxRowLines() int {
	n := int(math.Floor((s.geo.Setup().Usable() - headerRowHeight) / rowLineHeight))
	if n < 1 {
		return 1
	}
	return n
}

func (s *renderState) drawTableHeader() {
	cols := s.columns()
	top := s.geo.CursorY()
	s.rect(s.geo.Left(), top, s.geo.ContentWidth(), headerRowHeight, colorHeaderFill, RoleTableHeader)
	s.text(cols.x[0]+cellPadding, top, headerRowHeight, "Description", fontTableHead, colorText, RoleTableHeader)
	s.text(cols.x[1]+cellPadding, top, headerRowHeight, "Qty", fontTableHead, colorText, RoleTableHeader)
	s.textRight(cols.x[2]+cols.w[2]-cellPadding, top, headerRowHeight, "Unit Price", fontTableHead, colorText, RoleTableHeader)
	s.textRight(cols.x[3]+cols.w[3]-cellPadding, top, headerRowHeight, "Total", fontTableHead, colorText, RoleTableHeader)
	s.geo.Advance(headerRowHeight)
}

// renderItems draws the item table. Every row is measured in full before space is reserved for it,
// and the header is drawn again at the top of each page the table continues onto.
func (s *renderState) renderItems(items []quotation.LineItem) {
	cols := s.columns()
	descWidth := cols.w[0] - 2*cellPadding
	limit := s.maxRowLines()

	firstRow := rowLineHeight
	if len(items) > 0 {
		firstRow = float64(min(len(WrapText(s.measure, items[0].Description, descWidth, fontBody)), limit)) * rowLineHeight
	}
	s.geo.EnsureSpace(headerRowHeight+firstRow, nil)
	s.drawTableHeader()

	for i, item := range items {
		lines := WrapText(s.measure, item.Description, descWidth, fontBody)
		if len(lines) > limit {
			lines = lines[:limit]
			lines[limit-1] = fitText(s.measure, lines[limit-1]+" "+ellipsis, descWidth, fontBody)
			s.truncated = true
		}
		height := float64(len(lines)) * rowLineHeight
		s.geo.EnsureSpace(height, s.drawTableHeader)

		top := s.geo.CursorY()
		no := i + 1
		if i%2 == 1 {
			s.page().add(FilledRect{X: s.geo.Left(), Y: top, W: s.geo.ContentWidth(), H: height, Color: colorStripe, Role: RoleItem, Item: no})
		}
		for j, line := range lines {
			s.itemText(cols.x[0]+cellPadding, top+float64(j)*rowLineHeight, line, no)
		}
		s.itemText(cols.x[1]+cellPadding, top, formatQuantity(quotation.Sanitize(item.Quantity)), no)
		price := s.money.Currency(item.UnitPrice)
		s.itemText(cols.x[2]+cols.w[2]-cellPadding-s.measure.StringWidth(price, fontBody), top, price, no)
		total := s.money.Currency(quotation.LineTotal(item))
		s.itemText(cols.x[3]+cols.w[3]-cellPadding-s.measure.StringWidth(total, fontBody), top, total, no)
		s.geo.Advance(height)
	}
	s.geo.Advance(sectionGap)
}

func (s *renderState) itemText(x, top float64, text string, item int) {
	s.page().add(TextRun{
		X:     x,
		Y:     baseline(top, rowLineHeight),
		Text:  text,
		Font:  fontBody,
		Color: colorText,
		Role:  RoleItem,
		Item:  item,
	})
}
