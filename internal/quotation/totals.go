package quotation

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals are derived from a record and never stored.
type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	VATAmount  float64 `json:"vat_amount"`
	Shipping   float64 `json:"shipping"`
	GrandTotal float64 `json:"grand_total"`
}

// ComputeTotals sums line totals with exact decimal arithmetic, so the result does not depend on
// item order and repeated calls agree bit-for-bit. Negative or non-finite inputs count as zero.
func ComputeTotals(items []LineItem, vatPercent, shippingCost float64) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(lineTotal(item))
	}
	vat := subtotal.Mul(decimal.NewFromFloat(Sanitize(vatPercent))).Div(hundred)
	shipping := decimal.NewFromFloat(Sanitize(shippingCost))
	grand := subtotal.Add(vat).Add(shipping)
	return Totals{
		Subtotal:   subtotal.InexactFloat64(),
		VATAmount:  vat.InexactFloat64(),
		Shipping:   shipping.InexactFloat64(),
		GrandTotal: grand.InexactFloat64(),
	}
}

// LineTotal returns quantity × unit price for a single item.
func LineTotal(item LineItem) float64 {
	return lineTotal(item).InexactFloat64()
}

func lineTotal(item LineItem) decimal.Decimal {
	qty := decimal.NewFromFloat(Sanitize(item.Quantity))
	price := decimal.NewFromFloat(Sanitize(item.UnitPrice))
	return qty.Mul(price)
}

// Sanitize coerces negative, NaN and infinite values to zero. Negative zero becomes zero too.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}
