package entity

// Attempt is one recognition try: a single image variant through one engine
// under one segmentation mode.
type Attempt struct {
	VariantName string   `json:"variantName"`
	Engine      string   `json:"engine"`
	Mode        string   `json:"mode,omitempty"`
	Confidence  float64  `json:"confidence"`
	Score       float64  `json:"score"`
	Notes       []string `json:"notes,omitempty"`
	DurationMs  int64    `json:"durationMs"`
	Failed      bool     `json:"failed,omitempty"`
}
