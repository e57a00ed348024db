package document

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/text/currency"

	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

var (
	// ErrGenerationFailed is returned for any render that could not produce an artifact.
	ErrGenerationFailed = errors.New("document: generation failed")
	// ErrPageLimit reports a layout that needs more pages than Options.MaxPages allows.
	ErrPageLimit = errors.New("document: page limit exceeded")
)

// DefaultFooterText is printed at the bottom of the last page unless overridden.
const DefaultFooterText = "Thank you for your business. Prices are valid for 30 days from the quotation date. " +
	"Payment terms: 50% deposit on acceptance, balance on delivery."

// ContentTypePDF is the media type of artifacts produced by the pdf encoder.
const ContentTypePDF = "application/pdf"

// fixedEpoch stamps documents whose record carries no parseable date.
var fixedEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Info is document-level metadata handed to the encoder.
type Info struct {
	Title   string
	Subject string
	Author  string
	Creator string
	Created time.Time
}

// Document is the laid-out quotation: closed pages plus metadata.
type Document struct {
	Pages     []*Page
	Info      Info
	Truncated bool
}

// Encoder serializes a laid-out document.
type Encoder interface {
	Encode(doc *Document) ([]byte, error)
}

// Artifact is a finished render.
type Artifact struct {
	Data        []byte
	PageCount   int
	Filename    string
	ContentType string
	Checksum    string
	Truncated   bool
}

// Options tune the layout engine.
type Options struct {
	Page       PageSetup
	MaxPages   int
	FooterText string
	Currency   currency.Unit
	Measurer   func() Measurer
}

// Option mutates Options.
type Option func(*Options)

// WithPageSetup overrides the A4 page geometry.
func WithPageSetup(setup PageSetup) Option {
	return func(o *Options) { o.Page = setup }
}

// WithMaxPages caps the number of pages. Zero means unlimited.
func WithMaxPages(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.MaxPages = n
		}
	}
}

// WithFooterText replaces the footer terms. An empty string keeps the default.
func WithFooterText(text string) Option {
	return func(o *Options) {
		if text != "" {
			o.FooterText = text
		}
	}
}

// WithCurrency sets the currency used for every amount.
func WithCurrency(unit currency.Unit) Option {
	return func(o *Options) { o.Currency = unit }
}

// WithMeasurer replaces the text measurer factory. A new measurer is created for every render.
func WithMeasurer(fn func() Measurer) Option {
	return func(o *Options) {
		if fn != nil {
			o.Measurer = fn
		}
	}
}

// Engine lays out quotation records and encodes them. It holds no per-render state and is safe
// for concurrent use as long as the encoder is.
type Engine struct {
	enc   Encoder
	opts  Options
	money *Formatter
}

// New constructs an Engine around the given encoder.
func New(enc Encoder, opts ...Option) *Engine {
	o := Options{
		Page:       A4,
		FooterText: DefaultFooterText,
		Currency:   NGN,
		Measurer:   func() Measurer { return NewMetrics() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{enc: enc, opts: o, money: NewFormatter(o.Currency)}
}

// Formatter exposes the money formatter configured for the engine.
func (e *Engine) Formatter() *Formatter {
	return e.money
}

// Layout runs every section renderer in order against a fresh render state.
func (e *Engine) Layout(rec quotation.Record) (*Document, error) {
	state := newRenderState(e.opts.Page, e.opts.Measurer(), e.money)
	state.renderHeader(rec)
	state.renderCustomer(rec)
	state.renderItems(rec.Items)
	state.renderTotals(rec)
	state.renderNotes(rec)
	state.renderFooter(e.opts.FooterText)
	pages := state.finish()

	if e.opts.MaxPages > 0 && len(pages) > e.opts.MaxPages {
		return nil, fmt.Errorf("%w: %d pages, limit %d", ErrPageLimit, len(pages), e.opts.MaxPages)
	}
	return &Document{Pages: pages, Info: documentInfo(rec), Truncated: state.truncated}, nil
}

// Render lays out and encodes rec. Any failure is reported as ErrGenerationFailed and no partial
// artifact is returned.
func (e *Engine) Render(rec quotation.Record) (Artifact, error) {
	doc, err := e.Layout(rec)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	data, err := e.encode(doc)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	sum := sha256.Sum256(data)
	return Artifact{
		Data:        data,
		PageCount:   len(doc.Pages),
		Filename:    Filename(rec.QuoteNumber),
		ContentType: ContentTypePDF,
		Checksum:    hex.EncodeToString(sum[:]),
		Truncated:   doc.Truncated,
	}, nil
}

func (e *Engine) encode(doc *Document) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encoder panic: %v", r)
			data = nil
		}
	}()
	data, err = e.enc.Encode(doc)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("encoder returned no data")
	}
	return data, nil
}

func documentInfo(rec quotation.Record) Info {
	created := fixedEpoch
	if d := rec.ParsedDate(); !d.IsZero() {
		created = d
	}
	title := "Quotation"
	if rec.QuoteNumber != "" {
		title += " " + rec.QuoteNumber
	}
	return Info{
		Title:   title,
		Subject: rec.Customer.Name,
		Author:  rec.Company.Name,
		Creator: "quotedesk",
		Created: created,
	}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename derives the download name for a quote number.
func Filename(quoteNumber string) string {
	name := unsafeFilename.ReplaceAllString(quoteNumber, "_")
	if name == "" || name == "_" {
		name = "quotation"
	}
	return name + ".pdf"
}

// Summary is the compact totals view shown in list screens.
type Summary struct {
	Subtotal string `json:"subtotal"`
	VAT      string `json:"vat"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

// Summarize formats totals the same way the totals box does.
func Summarize(totals quotation.Totals, f *Formatter) Summary {
	if f == nil {
		f = defaultFormatter
	}
	return Summary{
		Subtotal: f.Currency(totals.Subtotal),
		VAT:      f.Currency(totals.VATAmount),
		Shipping: f.Currency(totals.Shipping),
		Total:    f.Currency(totals.GrandTotal),
	}
}
