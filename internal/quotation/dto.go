package quotation

import (
	"strconv"
	"strings"
)

// Number is a lenient JSON number. Form state may carry numbers, numeric strings, empty strings or
// garbage; anything that does not parse decodes as zero instead of failing the request.
type Number float64

// UnmarshalJSON implements json.Unmarshaler and never returns an error.
func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(Sanitize(f))
	return nil
}

// Float returns the sanitized value.
func (n Number) Float() float64 {
	return Sanitize(float64(n))
}

// CompanyRequest carries the company block; the logo arrives as a data URL.
type CompanyRequest struct {
	Name        string `json:"name" validate:"max=200"`
	Address     string `json:"address" validate:"max=500"`
	Phone       string `json:"phone" validate:"max=50"`
	Email       string `json:"email" validate:"max=200"`
	LogoDataURL string `json:"logoDataUrl,omitempty" validate:"max=8388608"`
}

type CustomerRequest struct {
	Name    string `json:"name" validate:"max=200"`
	Address string `json:"address" validate:"max=500"`
	Phone   string `json:"phone" validate:"max=50"`
}

type ItemRequest struct {
	ID          any    `json:"id,omitempty"`
	Description string `json:"description" validate:"max=4000"`
	Qty         Number `json:"qty"`
	Price       Number `json:"price"`
}

// Request is the quotation payload assembled by the UI from form state. It is also the snapshot
// stored with drafts and history entries.
type Request struct {
	Company          CompanyRequest  `json:"company"`
	Customer         CustomerRequest `json:"customer"`
	Items            []ItemRequest   `json:"items" validate:"max=2000,dive"`
	VATPercent       Number          `json:"vatPercent"`
	Shipping         Number          `json:"shipping"`
	Notes            string          `json:"notes" validate:"max=20000"`
	QuoteNumber      string          `json:"quoteNumber" validate:"max=64"`
	Date             string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	SignatureDataURL string          `json:"signatureDataUrl,omitempty" validate:"max=8388608"`
}

// Record converts the request into a render record. Input defects are normalized: numbers are
// sanitized, text is trimmed and undecodable images are dropped.
func (r Request) Record() Record {
	items := make([]LineItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, LineItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Qty.Float(),
			UnitPrice:   it.Price.Float(),
		})
	}
	return Record{
		Company: Company{
			Name:    strings.TrimSpace(r.Company.Name),
			Address: strings.TrimSpace(r.Company.Address),
			Phone:   strings.TrimSpace(r.Company.Phone),
			Email:   strings.TrimSpace(r.Company.Email),
			Logo:    DecodeImage(r.Company.LogoDataURL),
		},
		Customer: Customer{
			Name:    strings.TrimSpace(r.Customer.Name),
			Address: strings.TrimSpace(r.Customer.Address),
			Phone:   strings.TrimSpace(r.Customer.Phone),
		},
		Items:        items,
		VATPercent:   r.VATPercent.Float(),
		ShippingCost: r.Shipping.Float(),
		Notes:        strings.TrimRight(r.Notes, " \t\r\n"),
		QuoteNumber:  strings.TrimSpace(r.QuoteNumber),
		Date:         strings.TrimSpace(r.Date),
		Signature:    DecodeImage(r.SignatureDataURL),
	}
}

// Totals computes totals straight from the request, without decoding images.
func (r Request) Totals() Totals {
	items := make([]LineItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, LineItem{Quantity: it.Qty.Float(), UnitPrice: it.Price.Float()})
	}
	return ComputeTotals(items, r.VATPercent.Float(), r.Shipping.Float())
}
