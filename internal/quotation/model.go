package quotation

import (
	"image"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used for quote dates.
const DateLayout = "2006-01-02"

type Company struct {
	Name    string      `json:"name"`
	Address string      `json:"address"`
	Phone   string      `json:"phone"`
	Email   string      `json:"email"`
	Logo    image.Image `json:"-"`
}

type Customer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Fields returns the non-empty customer fields in display order.
func (c Customer) Fields() []string {
	fields := make([]string, 0, 3)
	for _, v := range []string{c.Name, c.Address, c.Phone} {
		if v != "" {
			fields = append(fields, v)
		}
	}
	return fields
}

type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Record is the immutable input of one document render.
type Record struct {
	Company      Company     `json:"company"`
	Customer     Customer    `json:"customer"`
	Items        []LineItem  `json:"items"`
	VATPercent   float64     `json:"vat_percent"`
	ShippingCost float64     `json:"shipping_cost"`
	Notes        string      `json:"notes"`
	QuoteNumber  string      `json:"quote_number"`
	Date         string      `json:"date"`
	Signature    image.Image `json:"-"`
}

// Totals returns the derived totals for the record.
func (r Record) Totals() Totals {
	return ComputeTotals(r.Items, r.VATPercent, r.ShippingCost)
}

// ParsedDate returns the quote date, or the zero time when Date is not a valid calendar date.
func (r Record) ParsedDate() time.Time {
	t, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}
