package arbiter

import "regexp"

// vendorTotalPatterns are total labels specific to vendors whose invoices
// the generic labels handle poorly. Keys are normalized vendor keys.
var vendorTotalPatterns = map[string][]*regexp.Regexp{
	"sysco": {
		regexp.MustCompile(`(?i)\binvoice\s+total\b`),
		regexp.MustCompile(`(?i)\btotal\s+due\s+upon\s+receipt\b`),
	},
	"us_foods": {
		regexp.MustCompile(`(?i)\btotal\s+invoice\s+amount\b`),
	},
	"restaurant_depot": {
		regexp.MustCompile(`(?i)\btotal\s+sale\b`),
	},
	"costco": {
		regexp.MustCompile(`(?i)\*+\s*total\b`),
	},
	"amazon": {
		regexp.MustCompile(`(?i)\b(?:grand|order)\s+total\b`),
	},
	"gordon_food_service": {
		regexp.MustCompile(`(?i)\binvoice\s+amount\b`),
	},
}

// genericTotalPatterns apply when the vendor is unknown: a total label that
// starts the line and an amount that ends it.
var genericTotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(?:invoice\s+)?(?:grand\s+)?(?:total|amount\s+due|balance\s+due)\b[^0-9]*[$€£]?\s?[\d,]+\.\d{2}\s*$`),
}

// KnownVendor reports whether key has a tuned pattern set.
func KnownVendor(key string) bool {
	_, ok := vendorTotalPatterns[NormalizeVendorKey(key)]
	return ok
}

func scoreVendorPatterns(c Candidate, dc DocumentContext) []Reason {
	if patterns, ok := vendorTotalPatterns[dc.VendorKey]; ok {
		for _, re := range patterns {
			if re.MatchString(c.LineText) {
				return []Reason{{"vendor_pattern_" + dc.VendorKey, 10}}
			}
		}
		return nil
	}
	for _, re := range genericTotalPatterns {
		if re.MatchString(c.LineText) {
			return []Reason{{"generic_total_pattern", 5}}
		}
	}
	return nil
}
