package document

// PageSetup describes the fixed page format in millimetres.
type PageSetup struct {
	Width  float64
	Height float64
	Margin float64
	// ReservedFooter is kept free at the bottom of every page for the footer terms.
	ReservedFooter float64
	// ReservedClosing sits above the footer band. Body content such as item rows stops short of
	// it; only the closing sections (totals, notes and signature) may draw into it, so a table
	// that fills a page still leaves room for the totals box beside its last rows.
	ReservedClosing float64
}

// A4 is the default portrait page format. The closing reserve fits the totals box and the gap
// above it.
var A4 = PageSetup{Width: 210, Height: 297, Margin: 15, ReservedFooter: 16, ReservedClosing: 40}

// ContentWidth is the page width minus both side margins.
func (s PageSetup) ContentWidth() float64 {
	return s.Width - 2*s.Margin
}

// Usable is the vertical space available to body content on one page.
func (s PageSetup) Usable() float64 {
	return s.Height - 2*s.Margin - s.ReservedFooter - s.ReservedClosing
}

// Geometry owns the vertical cursor and decides page breaks. It calls onOpen whenever a page
// starts, including the first one.
type Geometry struct {
	setup     PageSetup
	cursorY   float64
	pageIndex int
	onOpen    func(index int)
}

// NewGeometry starts page zero with the cursor at the top margin.
func NewGeometry(setup PageSetup, onOpen func(index int)) *Geometry {
	g := &Geometry{setup: setup, cursorY: setup.Margin, onOpen: onOpen}
	if onOpen != nil {
		onOpen(0)
	}
	return g
}

func (g *Geometry) Setup() PageSetup      { return g.setup }
func (g *Geometry) CursorY() float64      { return g.cursorY }
func (g *Geometry) PageIndex() int        { return g.pageIndex }
func (g *Geometry) ContentWidth() float64 { return g.setup.ContentWidth() }

// Left is the x coordinate of the content area.
func (g *Geometry) Left() float64 { return g.setup.Margin }

// Right is the x coordinate of the right content edge.
func (g *Geometry) Right() float64 { return g.setup.Width - g.setup.Margin }

// Limit is the lowest y body content may reach on a page.
func (g *Geometry) Limit() float64 {
	return g.ClosingLimit() - g.setup.ReservedClosing
}

// ClosingLimit is the lowest y the closing sections may reach: the top of the footer band.
func (g *Geometry) ClosingLimit() float64 {
	return g.setup.Height - g.setup.Margin - g.setup.ReservedFooter
}

// AtTop reports whether nothing has been placed on the current page yet.
func (g *Geometry) AtTop() bool {
	return g.cursorY <= g.setup.Margin
}

// Advance moves the cursor down by height. It never breaks the page; non-positive heights are
// ignored so the cursor stays monotonic.
func (g *Geometry) Advance(height float64) {
	if height > 0 {
		g.cursorY += height
	}
}

// EnsureSpace starts a new page when height does not fit between the cursor and Limit, then calls
// onNewPage so the caller can redraw repeated content such as a table header. It reports whether a
// break happened. A fresh page is never broken again: content taller than a whole page is placed
// at the top and allowed to overflow.
func (g *Geometry) EnsureSpace(height float64, onNewPage func()) bool {
	return g.ensure(height, g.Limit(), onNewPage)
}

// EnsureClosingSpace is EnsureSpace for the closing sections, which may use the closing reserve.
func (g *Geometry) EnsureClosingSpace(height float64, onNewPage func()) bool {
	return g.ensure(height, g.ClosingLimit(), onNewPage)
}

func (g *Geometry) ensure(height, limit float64, onNewPage func()) bool {
	if g.cursorY+height <= limit || g.AtTop() {
		return false
	}
	g.NewPage()
	if onNewPage != nil {
		onNewPage()
	}
	return true
}

// NewPage closes the current page and moves the cursor to the top margin of the next one.
func (g *Geometry) NewPage() {
	g.pageIndex++
	g.cursorY = g.setup.Margin
	if g.onOpen != nil {
		g.onOpen(g.pageIndex)
	}
}
