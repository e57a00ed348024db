package quotation

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/png"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotalsScenario(t *testing.T) {
	totals := ComputeTotals([]LineItem{{Description: "Widget", Quantity: 2, UnitPrice: 100}}, 7.5, 10)
	assert.Equal(t, Totals{Subtotal: 200, VATAmount: 15, Shipping: 10, GrandTotal: 225}, totals)
}

func TestComputeTotalsIgnoresItemOrder(t *testing.T) {
	items := []LineItem{
		{Quantity: 0.1, UnitPrice: 0.2},
		{Quantity: 3, UnitPrice: 19.99},
		{Quantity: 1.5, UnitPrice: 1e6},
		{Quantity: 7, UnitPrice: 0.3},
		{Quantity: 2, UnitPrice: 33.333},
	}
	want := ComputeTotals(items, 7.5, 12.4)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]LineItem(nil), items...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, ComputeTotals(shuffled, 7.5, 12.4))
	}
}

func TestComputeTotalsSanitizesInputs(t *testing.T) {
	items := []LineItem{
		{Quantity: math.NaN(), UnitPrice: 10},
		{Quantity: -1, UnitPrice: 10},
		{Quantity: 1, UnitPrice: math.Inf(1)},
		{Quantity: 1, UnitPrice: 4},
	}
	totals := ComputeTotals(items, -3, math.NaN())
	assert.Equal(t, Totals{Subtotal: 4, GrandTotal: 4}, totals)
	assert.Equal(t, totals, ComputeTotals(items, -3, math.NaN()))
}

func TestComputeTotalsEmpty(t *testing.T) {
	assert.Equal(t, Totals{Shipping: 5, GrandTotal: 5}, ComputeTotals(nil, 7.5, 5))
}

func TestNumberIsLenient(t *testing.T) {
	var payload struct {
		A, B, C, D, E, F Number
	}
	err := json.Unmarshal([]byte(`{"A": 2.5, "B": "3", "C": "", "D": "abc", "E": -4, "F": null}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, 2.5, payload.A.Float())
	assert.Equal(t, 3.0, payload.B.Float())
	assert.Zero(t, payload.C.Float())
	assert.Zero(t, payload.D.Float())
	assert.Zero(t, payload.E.Float())
	assert.Zero(t, payload.F.Float())
}

func sampleRequest() Request {
	return Request{
		Company:  CompanyRequest{Name: "  Acme  ", Email: "sales@acme.test"},
		Customer: CustomerRequest{Name: "Globex", Phone: " 0800 "},
		Items: []ItemRequest{
			{Description: "Widget", Qty: 2, Price: 100},
			{Description: "Bolt, zinc", Qty: 1.5, Price: 3},
		},
		VATPercent:  7.5,
		Shipping:    10,
		Notes:       "Thanks\n",
		QuoteNumber: "Q-20250409-001",
		Date:        "2025-04-09",
	}
}

func TestRequestRecordNormalizes(t *testing.T) {
	req := sampleRequest()
	req.Company.LogoDataURL = "data:image/png;base64,@@not-base64@@"

	rec := req.Record()
	assert.Equal(t, "Acme", rec.Company.Name)
	assert.Equal(t, "0800", rec.Customer.Phone)
	assert.Equal(t, []string{"Globex", "0800"}, rec.Customer.Fields())
	assert.Equal(t, "Thanks", rec.Notes)
	assert.Nil(t, rec.Company.Logo)
	assert.Nil(t, rec.Signature)
	require.Len(t, rec.Items, 2)
	assert.Equal(t, 1.5, rec.Items[1].Quantity)
	assert.Equal(t, req.Totals(), rec.Totals())
	assert.Equal(t, 2025, rec.ParsedDate().Year())
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeImage(t *testing.T) {
	img := DecodeImage(pngDataURL(t, 12, 7))
	require.NotNil(t, img)
	assert.Equal(t, 12, img.Bounds().Dx())

	bare := strings.TrimPrefix(pngDataURL(t, 3, 3), "data:image/png;base64,")
	assert.NotNil(t, DecodeImage(bare))
	assert.NotNil(t, DecodeImage(strings.TrimRight(bare, "=")))

	for _, bad := range []string{"", "   ", "data:image/png,plain", "data:image/png;base64", "aGVsbG8=", "%%%"} {
		assert.Nil(t, DecodeImage(bad), bad)
	}
	assert.Nil(t, DecodeImageBytes(nil))
}

// pngHeader returns a PNG signature and IHDR chunk declaring a w by h RGBA image with no pixel data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolor with alpha

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeImageRejectsOversizedDimensions(t *testing.T) {
	header := pngHeader(40000, 40000)
	cfg, err := png.DecodeConfig(bytes.NewReader(header))
	require.NoError(t, err)
	require.Equal(t, 40000, cfg.Width)

	assert.Nil(t, DecodeImageBytes(header))
	assert.Nil(t, DecodeImage("data:image/png;base64,"+base64.StdEncoding.EncodeToString(header)))
	assert.Nil(t, DecodeImageBytes(pngHeader(4097, 4096)))
}

func TestDecodeImageAcceptsImagesWithinPixelBudget(t *testing.T) {
	img := DecodeImage(pngDataURL(t, 2048, 1))
	require.NotNil(t, img)
	assert.Equal(t, 2048, img.Bounds().Dx())
}

func TestCSVExport(t *testing.T) {
	data, err := CSV(sampleRequest())
	require.NoError(t, err)
	want := strings.Join([]string{
		"Description,Qty,Price,Total",
		"Widget,2,100,200",
		`"Bolt, zinc",1.5,3,4.5`,
		"",
		"Subtotal,204.5",
		"VAT (%),7.5,VAT Amount,15.3375",
		"Shipping,10",
		"Total,229.8375",
		"",
	}, "\n")
	assert.Equal(t, want, string(data))
}

func TestJSONExportRoundTrips(t *testing.T) {
	req := sampleRequest()
	data, err := JSON(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"company\": {")

	var back Request
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, req.Totals(), back.Totals())
	assert.Equal(t, req.QuoteNumber, back.QuoteNumber)
}
