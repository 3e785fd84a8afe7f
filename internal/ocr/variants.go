package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Variant is one preprocessed rendition of the input image.
type Variant struct {
	Name  string
	Image image.Image
}

const (
	upscaleBelowHeight = 1600
	upscaleTargetH     = 2400
)

// BuildVariants returns up to max renditions in preference order. The
// untouched original always comes first.
func BuildVariants(src image.Image, max int) []Variant {
	gray := imaging.Grayscale(src)
	variants := []Variant{
		{"original", src},
		{"high_contrast", imaging.Sharpen(imaging.AdjustContrast(gray, 30), 1.5)},
	}
	if h := src.Bounds().Dy(); h > 0 && h < upscaleBelowHeight {
		target := upscaleTargetH
		if target > 2*h {
			target = 2 * h
		}
		variants = append(variants, Variant{"upscaled", imaging.Resize(gray, 0, target, imaging.Lanczos)})
	}
	variants = append(variants,
		Variant{"binarized", Binarize(gray)},
		Variant{"grayscale", gray},
	)
	if max > 0 && len(variants) > max {
		variants = variants[:max]
	}
	return variants
}

// Binarize thresholds a grayscale image at its mean luminance. Pixels at the
// mean count as paper, so a uniform image stays white.
func Binarize(gray image.Image) *image.NRGBA {
	threshold := uint8(meanLuminance(imaging.Clone(gray)))
	return imaging.AdjustFunc(gray, func(c color.NRGBA) color.NRGBA {
		if c.R >= threshold {
			return color.NRGBA{255, 255, 255, c.A}
		}
		return color.NRGBA{0, 0, 0, c.A}
	})
}

func meanLuminance(img *image.NRGBA) float64 {
	var sum float64
	n := 0
	for i := 0; i+3 < len(img.Pix); i += 4 {
		sum += luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		n++
	}
	if n == 0 {
		return 127
	}
	return sum / float64(n)
}

func luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}
