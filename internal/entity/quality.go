package entity

// QualityMetrics are measured once per image and read-only afterwards.
// Measured is false for inputs that never had an image (text, PDF text layer).
type QualityMetrics struct {
	Measured                 bool    `json:"measured"`
	Blur                     float64 `json:"blur"`       // 0 sharp .. 1 blurry
	Glare                    float64 `json:"glare"`      // fraction of saturated pixels
	Brightness               float64 `json:"brightness"` // mean luminance 0..1
	Contrast                 float64 `json:"contrast"`   // luminance stddev 0..1
	Width                    int     `json:"width"`
	Height                   int     `json:"height"`
	Megapixels               float64 `json:"megapixels"`
	SkewDegrees              float64 `json:"skewDegrees"`
	DocumentBoundaryDetected bool    `json:"documentBoundaryDetected"`
}
