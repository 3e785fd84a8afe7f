package entity

// Totals are the labeled amounts found on the document, in cents.
type Totals struct {
	Subtotal *int64   `json:"subtotal,omitempty"`
	Tax      *int64   `json:"tax,omitempty"`
	TaxRate  *float64 `json:"taxRate,omitempty"`
	Shipping *int64   `json:"shipping,omitempty"`
	Discount *int64   `json:"discount,omitempty"`
	Total    *int64   `json:"total,omitempty"`
}

// LineItem is one purchased item or service.
type LineItem struct {
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents *int64  `json:"unitPriceCents,omitempty"`
	TotalCents     int64   `json:"totalCents"`
	SKU            string  `json:"sku,omitempty"`
	Category       string  `json:"category,omitempty"`
}

// ExtractionResult is the structured invoice. Values are never patched in
// place; use the With* helpers to derive a corrected copy.
type ExtractionResult struct {
	Vendor        string     `json:"vendor,omitempty"`
	Date          string     `json:"date,omitempty"`
	InvoiceNumber string     `json:"invoiceNumber,omitempty"`
	Totals        Totals     `json:"totals"`
	Address       string     `json:"address,omitempty"`
	LineItems     []LineItem `json:"lineItems"`
	Currency      string     `json:"currency"`
	Ambiguous     bool       `json:"ambiguous"`
	Notes         []string   `json:"notes,omitempty"`
}

// LineItemSum is the sum of every line item total.
func (r ExtractionResult) LineItemSum() int64 {
	var sum int64
	for _, li := range r.LineItems {
		sum += li.TotalCents
	}
	return sum
}

// Clone returns a deep copy.
func (r ExtractionResult) Clone() ExtractionResult {
	out := r
	out.Totals = r.Totals.clone()
	if r.LineItems != nil {
		out.LineItems = make([]LineItem, len(r.LineItems))
		for i, li := range r.LineItems {
			if li.UnitPriceCents != nil {
				v := *li.UnitPriceCents
				li.UnitPriceCents = &v
			}
			out.LineItems[i] = li
		}
	}
	if r.Notes != nil {
		out.Notes = append([]string(nil), r.Notes...)
	}
	return out
}

// WithTotal returns a copy whose total is replaced and whose notes record why.
func (r ExtractionResult) WithTotal(cents int64, note string) ExtractionResult {
	out := r.Clone()
	out.Totals.Total = &cents
	if note != "" {
		out.Notes = append(out.Notes, note)
	}
	return out
}

// WithNote returns a copy with note appended.
func (r ExtractionResult) WithNote(note string) ExtractionResult {
	out := r.Clone()
	out.Notes = append(out.Notes, note)
	return out
}

func (t Totals) clone() Totals {
	return Totals{
		Subtotal: copyInt(t.Subtotal),
		Tax:      copyInt(t.Tax),
		TaxRate:  copyFloat(t.TaxRate),
		Shipping: copyInt(t.Shipping),
		Discount: copyInt(t.Discount),
		Total:    copyInt(t.Total),
	}
}

func copyInt(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
