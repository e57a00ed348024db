package document

import "image"

// Color is an RGB fill or text colour.
type Color struct {
	R, G, B uint8
}

var (
	colorText       = Color{R: 15, G: 23, B: 42}
	colorMuted      = Color{R: 100, G: 116, B: 139}
	colorHeaderFill = Color{R: 226, G: 232, B: 240}
	colorStripe     = Color{R: 248, G: 250, B: 252}
	colorTotalsFill = Color{R: 241, G: 253, B: 250}
	colorRule       = Color{R: 203, G: 213, B: 225}
)

// Role tags a placement command with the section that emitted it.
type Role string

const (
	RoleHeader      Role = "header"
	RoleCustomer    Role = "customer"
	RoleTableHeader Role = "table-header"
	RoleItem        Role = "item"
	RoleTotals      Role = "totals"
	RoleNotes       Role = "notes"
	RoleSignature   Role = "signature"
	RoleFooter      Role = "footer"
)

// Command is a single placement instruction on a page.
type Command interface {
	CommandRole() Role
}

// TextRun draws Text with its baseline at (X, Y).
type TextRun struct {
	X, Y  float64
	Text  string
	Font  Font
	Color Color
	Role  Role
	// Item is the 1-based line item index for rows of the item table, zero elsewhere.
	Item int
}

// ImagePlacement draws Image scaled into the box at (X, Y) with size W×H.
type ImagePlacement struct {
	X, Y, W, H float64
	Name       string
	Image      image.Image
	Role       Role
}

// FilledRect fills the box at (X, Y) with size W×H.
type FilledRect struct {
	X, Y, W, H float64
	Color      Color
	Role       Role
	Item       int
}

func (t TextRun) CommandRole() Role        { return t.Role }
func (i ImagePlacement) CommandRole() Role { return i.Role }
func (r FilledRect) CommandRole() Role     { return r.Role }

// Page is an ordered list of placement commands. Commands are only appended while the page is
// open; once the next page starts the page is closed and never changes again.
type Page struct {
	Index    int
	Width    float64
	Height   float64
	Commands []Command
	closed   bool
}

// Closed reports whether the page has been finished.
func (p *Page) Closed() bool {
	return p.closed
}

func (p *Page) add(cmd Command) {
	if p.closed {
		panic("document: placement on a closed page")
	}
	p.Commands = append(p.Commands, cmd)
}

// Texts returns the text runs of the page, optionally filtered by role.
func (p *Page) Texts(roles ...Role) []TextRun {
	var out []TextRun
	for _, cmd := range p.Commands {
		run, ok := cmd.(TextRun)
		if !ok {
			continue
		}
		if len(roles) == 0 || hasRole(roles, run.Role) {
			out = append(out, run)
		}
	}
	return out
}

// Images returns the image placements of the page.
func (p *Page) Images() []ImagePlacement {
	var out []ImagePlacement
	for _, cmd := range p.Commands {
		if img, ok := cmd.(ImagePlacement); ok {
			out = append(out, img)
		}
	}
	return out
}

// Rects returns the filled rectangles of the page, optionally filtered by role.
func (p *Page) Rects(roles ...Role) []FilledRect {
	var out []FilledRect
	for _, cmd := range p.Commands {
		rect, ok := cmd.(FilledRect)
		if !ok {
			continue
		}
		if len(roles) == 0 || hasRole(roles, rect.Role) {
			out = append(out, rect)
		}
	}
	return out
}

func hasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
