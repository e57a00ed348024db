package quotation

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
)

// CSV renders the spreadsheet export of a quotation.
func CSV(req Request) ([]byte, error) {
	totals := req.Totals()
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	rows := [][]string{{"Description", "Qty", "Price", "Total"}}
	for _, it := range req.Items {
		item := LineItem{Quantity: it.Qty.Float(), UnitPrice: it.Price.Float()}
		rows = append(rows, []string{
			it.Description,
			formatFloat(item.Quantity),
			formatFloat(item.UnitPrice),
			formatFloat(LineTotal(item)),
		})
	}
	rows = append(rows,
		[]string{},
		[]string{"Subtotal", formatFloat(totals.Subtotal)},
		[]string{"VAT (%)", formatFloat(req.VATPercent.Float()), "VAT Amount", formatFloat(totals.VATAmount)},
		[]string{"Shipping", formatFloat(totals.Shipping)},
		[]string{"Total", formatFloat(totals.GrandTotal)},
	)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("quotation: write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// JSON renders the pretty-printed payload download.
func JSON(req Request) ([]byte, error) {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("quotation: marshal json: %w", err)
	}
	return data, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
