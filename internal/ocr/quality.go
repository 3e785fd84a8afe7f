package ocr

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

const (
	analysisSize      = 800
	skewAnalysisSize  = 400
	maxSkewSearch     = 15
	sharpLaplacianVar = 300.0
	borderFraction    = 0.05
	boundaryMinDelta  = 30.0
)

// MeasureQuality computes blur, glare, exposure, contrast, resolution, skew
// and document-boundary metrics on a downscaled grayscale copy.
func MeasureQuality(src image.Image) entity.QualityMetrics {
	b := src.Bounds()
	q := entity.QualityMetrics{
		Measured:   true,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Megapixels: math.Round(float64(b.Dx()*b.Dy())/1e4) / 100,
	}
	if b.Empty() {
		return q
	}

	gray := imaging.Grayscale(imaging.Fit(src, analysisSize, analysisSize, imaging.Box))
	lum := lumaGrid(gray)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()

	mean, std := meanStd(lum)
	q.Brightness = round3(mean / 255)
	q.Contrast = round3(math.Min(1, std/128))
	q.Blur = round3(1 - math.Min(1, laplacianVariance(lum, w, h)/sharpLaplacianVar))
	q.Glare = round3(glareFraction(lum))
	q.DocumentBoundaryDetected = boundaryDetected(lum, w, h)
	q.SkewDegrees = estimateSkew(src)
	return q
}

func lumaGrid(img *image.NRGBA) []float64 {
	out := make([]float64, 0, len(img.Pix)/4)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		out = append(out, luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2]))
	}
	return out
}

func meanStd(v []float64) (float64, float64) {
	if len(v) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	mean := sum / float64(len(v))
	var ss float64
	for _, x := range v {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(v)))
}

func laplacianVariance(lum []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}
	vals := make([]float64, 0, (w-2)*(h-2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			vals = append(vals, 4*lum[i]-lum[i-1]-lum[i+1]-lum[i-w]-lum[i+w])
		}
	}
	_, std := meanStd(vals)
	return std * std
}

// glareFraction counts specular pixels: saturated and clearly brighter than
// the paper tone. A page that is white everywhere has no glare.
func glareFraction(lum []float64) float64 {
	if len(lum) == 0 {
		return 0
	}
	var hist [256]int
	for _, v := range lum {
		hist[int(math.Min(255, math.Max(0, v)))]++
	}
	target := int(0.9 * float64(len(lum)))
	paper, acc := 255, 0
	for i := 0; i < 256; i++ {
		acc += hist[i]
		if acc >= target {
			paper = i
			break
		}
	}
	threshold := math.Max(245, float64(paper)+15)
	if threshold > 255 {
		return 0
	}
	n := 0
	for _, v := range lum {
		if v >= threshold {
			n++
		}
	}
	return float64(n) / float64(len(lum))
}

// boundaryDetected is true when the border band differs clearly from the
// interior (a page on a background), or the border is uniform bright paper
// (a scan where the page fills the frame).
func boundaryDetected(lum []float64, w, h int) bool {
	bw := int(math.Max(1, float64(w)*borderFraction))
	bh := int(math.Max(1, float64(h)*borderFraction))
	var border, interior []float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := lum[y*w+x]
			switch {
			case x < bw || x >= w-bw || y < bh || y >= h-bh:
				border = append(border, v)
			case x > w/5 && x < 4*w/5 && y > h/5 && y < 4*h/5:
				interior = append(interior, v)
			}
		}
	}
	if len(border) == 0 || len(interior) == 0 {
		return false
	}
	bMean, bStd := meanStd(border)
	iMean, _ := meanStd(interior)
	if math.Abs(bMean-iMean) >= boundaryMinDelta {
		return true
	}
	return bMean >= 230 && bStd < 12
}

// estimateSkew finds the rotation that maximizes the variance of the row
// profile of dark pixels. Returns degrees the content is rotated by.
func estimateSkew(src image.Image) float64 {
	small := Binarize(imaging.Grayscale(imaging.Fit(src, skewAnalysisSize, skewAnalysisSize, imaging.Box)))
	if darkFraction(small) < 0.005 {
		return 0
	}
	best, bestVar := 0, -1.0
	for angle := -maxSkewSearch; angle <= maxSkewSearch; angle++ {
		rotated := imaging.Rotate(small, float64(angle), color.White)
		if v := rowProfileVariance(rotated); v > bestVar {
			best, bestVar = angle, v
		}
	}
	return float64(-best)
}

func darkFraction(img *image.NRGBA) float64 {
	dark, n := 0, 0
	for i := 0; i+3 < len(img.Pix); i += 4 {
		n++
		if img.Pix[i] < 128 {
			dark++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(dark) / float64(n)
}

func rowProfileVariance(img *image.NRGBA) float64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	rows := make([]float64, h)
	for y := 0; y < h; y++ {
		off := y * img.Stride
		for x := 0; x < w; x++ {
			if img.Pix[off+4*x] < 128 {
				rows[y]++
			}
		}
	}
	_, std := meanStd(rows)
	return std * std
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
