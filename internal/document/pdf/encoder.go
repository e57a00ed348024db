// Package pdf serializes laid-out quotation pages with go-pdf/fpdf.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/go-pdf/fpdf"

	"github.com/odyssey-erp/quotedesk/internal/document"
)

const producer = "quotedesk"

// Encoder implements document.Encoder. It keeps no state between calls.
type Encoder struct {
	compress bool
}

// Option configures the Encoder.
type Option func(*Encoder)

// WithCompression toggles stream compression. Compression is on by default.
func WithCompression(on bool) Option {
	return func(e *Encoder) { e.compress = on }
}

// New constructs an Encoder.
func New(opts ...Option) *Encoder {
	e := &Encoder{compress: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode writes every page of doc in order. Creation and modification dates come from the
// document info and catalog entries are sorted, so equal documents encode to equal bytes.
func (e *Encoder) Encode(doc *document.Document) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("pdf: empty document")
	}
	first := doc.Pages[0]
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: first.Width, Ht: first.Height},
	})
	pdf.SetCompression(e.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.Info.Created)
	pdf.SetModificationDate(doc.Info.Created)
	pdf.SetProducer(producer, false)
	pdf.SetTitle(doc.Info.Title, true)
	pdf.SetSubject(doc.Info.Subject, true)
	pdf.SetAuthor(doc.Info.Author, true)
	pdf.SetCreator(doc.Info.Creator, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	registered := make(map[string]bool)

	for _, page := range doc.Pages {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: page.Width, Ht: page.Height})
		for _, cmd := range page.Commands {
			switch c := cmd.(type) {
			case document.FilledRect:
				pdf.SetFillColor(int(c.Color.R), int(c.Color.G), int(c.Color.B))
				pdf.Rect(c.X, c.Y, c.W, c.H, "F")
			case document.TextRun:
				pdf.SetFont(c.Font.Family, c.Font.Style, c.Font.Size)
				pdf.SetTextColor(int(c.Color.R), int(c.Color.G), int(c.Color.B))
				pdf.Text(c.X, c.Y, tr(c.Text))
			case document.ImagePlacement:
				if !registered[c.Name] {
					raw, err := encodePNG(c.Image)
					if err != nil {
						return nil, fmt.Errorf("pdf: encode image %s: %w", c.Name, err)
					}
					pdf.RegisterImageOptionsReader(c.Name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(raw))
					registered[c.Name] = true
				}
				pdf.ImageOptions(c.Name, c.X, c.Y, c.W, c.H, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			}
			if err := pdf.Error(); err != nil {
				return nil, fmt.Errorf("pdf: page %d: %w", page.Index+1, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: output: %w", err)
	}
	return buf.Bytes(), nil
}

// encodePNG flattens img to 8-bit NRGBA, the only PNG layout every fpdf version accepts.
func encodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	b := img.Bounds()
	flat := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Src)
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, flat); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
