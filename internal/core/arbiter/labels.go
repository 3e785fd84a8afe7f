package arbiter

import "regexp"

// Label vocabulary shared by detection, scoring and the field extractor.
var (
	ReSubtotal    = regexp.MustCompile(`(?i)\bsub[\s-]*total\b`)
	ReGroupMarker = regexp.MustCompile(`(?i)\b(?:dept|department|group|section|category|employee|emp)\b`)
	ReTaxLabel    = regexp.MustCompile(`(?i)\b(?:sales\s+tax|tax(?:es)?|vat|gst|hst|pst)\b`)
	ReTotalWord   = regexp.MustCompile(`(?i)total`)
	ReTaxTotal    = regexp.MustCompile(`(?i)\b(?:total\s+(?:sales\s+)?tax(?:es)?|tax(?:es)?\s+total)\b`)
	ReShipping    = regexp.MustCompile(`(?i)\b(?:shipping|freight|delivery|s&h|handling)\b`)
	ReDiscount    = regexp.MustCompile(`(?i)\b(?:discount|credit|coupon|savings|rebate|promo)\b`)
	ReStrongTotal = regexp.MustCompile(`(?i)\b(?:invoice\s+total|total\s+invoice|amount\s+due|balance\s+due|grand\s+total|total\s+due)\b`)
)
