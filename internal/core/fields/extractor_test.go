package fields

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/core/textnorm"
)

func invoiceText(total string) textnorm.Text {
	return textnorm.Normalize(strings.Join([]string{
		"Sysco Foods LLC",
		"1200 Harbor Blvd",
		"Oakland, CA 94607",
		"Invoice # INV-2045",
		"Date: 03/14/2024",
		"Tomatoes case 2 50.00 100.00",
		"Chicken breast 1 145.00 145.00",
		"Total " + total,
	}, "\n"))
}

func TestExtractItemsAgreeWithTotal(t *testing.T) {
	res := Extract(invoiceText("$245.00"))

	assert.Equal(t, "Sysco Foods LLC", res.Vendor)
	assert.Equal(t, "2024-03-14", res.Date)
	assert.Equal(t, "INV-2045", res.InvoiceNumber)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, "1200 Harbor Blvd, Oakland, CA 94607", res.Address)
	require.NotNil(t, res.Totals.Total)
	assert.Equal(t, int64(24500), *res.Totals.Total)

	require.Len(t, res.LineItems, 2)
	assert.Equal(t, "Tomatoes case", res.LineItems[0].Description)
	assert.Equal(t, 2.0, res.LineItems[0].Quantity)
	require.NotNil(t, res.LineItems[0].UnitPriceCents)
	assert.Equal(t, int64(5000), *res.LineItems[0].UnitPriceCents)
	assert.Equal(t, int64(24500), res.LineItemSum())
	assert.False(t, res.Ambiguous)
}

func TestExtractItemsDisagreeWithTotal(t *testing.T) {
	res := Extract(invoiceText("$400.00"))

	require.NotNil(t, res.Totals.Total)
	assert.Equal(t, int64(40000), *res.Totals.Total)
	assert.True(t, res.Ambiguous)
	assert.NotEmpty(t, res.Notes)
}

func TestExtractEmpty(t *testing.T) {
	res := Extract(textnorm.Normalize(""))

	assert.Empty(t, res.Vendor)
	assert.Nil(t, res.Totals.Total)
	assert.NotNil(t, res.LineItems)
	assert.Empty(t, res.LineItems)
	assert.Equal(t, "USD", res.Currency)
	assert.False(t, res.Ambiguous)
}

func TestTotalsSkipSummaryNoise(t *testing.T) {
	lines := []string{
		"Subtotal $90.00",
		"Sales Tax 8.25% $7.43",
		"Shipping $5.00",
		"Discount ($2.00)",
		"Total $100.43",
		"Line total $4.00",
	}
	totals := extractTotals(lines)

	require.NotNil(t, totals.Subtotal)
	require.NotNil(t, totals.Tax)
	require.NotNil(t, totals.TaxRate)
	require.NotNil(t, totals.Shipping)
	require.NotNil(t, totals.Discount)
	require.NotNil(t, totals.Total)
	assert.Equal(t, int64(9000), *totals.Subtotal)
	assert.Equal(t, int64(743), *totals.Tax)
	assert.InDelta(t, 8.25, *totals.TaxRate, 1e-9)
	assert.Equal(t, int64(500), *totals.Shipping)
	assert.Equal(t, int64(200), *totals.Discount)
	assert.Equal(t, int64(10043), *totals.Total)
}

func TestVendorChain(t *testing.T) {
	v, src := firstMatch(vendorMatchers, []string{"INVOICE", "Vendor: Blue Bottle Roasters", "Acme Inc"})
	assert.Equal(t, "Blue Bottle Roasters", v)
	assert.Equal(t, "labeled", src)

	v, src = firstMatch(vendorMatchers, []string{"INVOICE", "123456", "Harbor Bakery", "Acme Inc"})
	assert.Equal(t, "Acme Inc", v)
	assert.Equal(t, "company_suffix", src)

	v, src = firstMatch(vendorMatchers, []string{"RECEIPT", "Harbor Bakery"})
	assert.Equal(t, "Harbor Bakery", v)
	assert.Equal(t, "first_alpha_line", src)
}

func TestDateChain(t *testing.T) {
	cases := []struct {
		lines []string
		want  string
	}{
		{[]string{"Due Date: 04/30/2024", "Invoice Date: 2024-04-01"}, "2024-04-01"},
		{[]string{"Invoice Date", "March 5th, 2024"}, "2024-03-05"},
		{[]string{"Issued 14 Feb 2023"}, "2023-02-14"},
		{[]string{"Date 25/12/2023"}, "2023-12-25"},
		{[]string{"Ref 02/30/2024"}, ""},
	}
	for _, tc := range cases {
		got, _ := firstMatch(dateMatchers, tc.lines)
		assert.Equal(t, tc.want, got, tc.lines)
	}
}

func TestInvoiceNumberChain(t *testing.T) {
	cases := []struct {
		lines     []string
		want, src string
	}{
		{[]string{"Invoice #: A-1029"}, "A-1029", "invoice_hash"},
		{[]string{"Invoice No. 778812"}, "778812", "invoice_no"},
		{[]string{"INV: 55-019"}, "55-019", "inv"},
		{[]string{"PO # 4410"}, "4410", "reference"},
		{[]string{"Ticket SO-99812 issued"}, "SO-99812", "generic_code"},
		{[]string{"Invoice # 12"}, "", ""},
		{[]string{"Invoice Notes: deliver to back door"}, "", ""},
		{[]string{"Invoice Notes: deliver to back door", "SO-99812"}, "SO-99812", "generic_code"},
		{[]string{"Order Notes: leave at desk"}, "", ""},
		{[]string{"Invoice Number", "INV-20931"}, "INV-20931", "invoice_no"},
		{[]string{"Invoice #", "A-1029 03/14/2024"}, "A-1029", "invoice_hash"},
		{[]string{"Invoice No.", "Date: 03/14/2024"}, "", ""},
	}
	for _, tc := range cases {
		got, src := extractInvoiceNumber(tc.lines)
		assert.Equal(t, tc.want, got, tc.lines)
		assert.Equal(t, tc.src, src, tc.lines)
	}

	res := Extract(textnorm.Normalize("Acme Supply Co\nInvoice Notes: deliver to back door\nTotal $10.00"))
	assert.Empty(t, res.InvoiceNumber)
}

func TestLineItemStrategies(t *testing.T) {
	items, s, ok := extractLineItems([]string{
		"2 x Coffee beans @ $12.50 ea",
		"3 x Filters @ 1.25 each",
	})
	require.True(t, ok)
	assert.Equal(t, "qty_at_price", s.name)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2500), items[0].TotalCents)
	assert.Equal(t, int64(375), items[1].TotalCents)

	items, s, ok = extractLineItems([]string{
		"Espresso machine service ..... $180.00",
		"Total $180.00",
	})
	require.True(t, ok)
	assert.Equal(t, "price_anchored", s.name)
	assert.True(t, s.ambiguous)
	require.Len(t, items, 1)
	assert.Equal(t, "Espresso machine service", items[0].Description)

	items, _, _ = extractLineItems([]string{"AB1234 Paper towels 4 5.00 20.00"})
	require.Len(t, items, 1)
	assert.Equal(t, "AB1234", items[0].SKU)
	assert.Equal(t, "Paper towels", items[0].Description)
	assert.Equal(t, "PaperGoods", items[0].Category)
}

func TestQtyAtPriceWithoutEachSuffix(t *testing.T) {
	items, s, ok := extractLineItems([]string{
		"2 x Widget @ 5.00",
		"4 x Bolts @ $0.25",
	})
	require.True(t, ok)
	assert.Equal(t, "qty_at_price", s.name)
	assert.False(t, s.ambiguous)
	require.Len(t, items, 2)
	assert.Equal(t, "Widget", items[0].Description)
	assert.Equal(t, 2.0, items[0].Quantity)
	assert.Equal(t, int64(1000), items[0].TotalCents)
	assert.Equal(t, int64(100), items[1].TotalCents)

	res := Extract(textnorm.Normalize("Hardware Depot\n2 x Widget @ 5.00\n4 x Bolts @ $0.25\nTotal $11.00"))
	require.NotNil(t, res.Totals.Total)
	assert.Equal(t, int64(1100), res.LineItemSum())
	assert.False(t, res.Ambiguous)
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "EUR", extractCurrency("Total €12.00"))
	assert.Equal(t, "CAD", extractCurrency("Total CAD 12.00"))
	assert.Equal(t, "USD", extractCurrency("nothing here"))
}
