package u2net

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// normalize min-max scales raw saliency values into an 8-bit map
func normalize(values []float32, w, h int) (*image.Gray, error) {
	if w <= 0 || h <= 0 || len(values) < w*h {
		return nil, fmt.Errorf("saliency map size mismatch: %d values for %dx%d", len(values), w, h)
	}

	lo, hi := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for _, v := range values[:w*h] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	mask := image.NewGray(image.Rect(0, 0, w, h))
	span := hi - lo
	if span <= 0 {
		return mask, nil
	}

	for y := 0; y < h; y++ {
		row := y * mask.Stride
		for x := 0; x < w; x++ {
			v := (values[y*w+x] - lo) / span
			mask.Pix[row+x] = uint8(v*255 + 0.5)
		}
	}
	return mask, nil
}

// scaleMask resizes the model-resolution map back to the source size
func scaleMask(mask *image.Gray, w, h int) *image.Gray {
	if mask.Bounds().Dx() == w && mask.Bounds().Dy() == h {
		return mask
	}

	scaled := resize.Resize(uint(w), uint(h), mask, resize.Bilinear)
	if gray, ok := scaled.(*image.Gray); ok {
		return gray
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	b := scaled.Bounds()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, scaled.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

func binarize(mask *image.Gray, threshold float64) {
	binarizeAt(mask, uint8(threshold*255))
}

// binarizeAt sets every value above cut to opaque and the rest to clear
func binarizeAt(mask *image.Gray, cut uint8) {
	for i, v := range mask.Pix {
		if v > cut {
			mask.Pix[i] = 255
		} else {
			mask.Pix[i] = 0
		}
	}
}

// applyAlpha returns an NRGBA copy of src whose alpha channel is mask.
// src is left untouched.
func applyAlpha(src image.Image, mask *image.Gray) *image.NRGBA {
	out := imaging.Clone(src)
	b := out.Bounds()

	for y := 0; y < b.Dy(); y++ {
		row := y * out.Stride
		mrow := y * mask.Stride
		for x := 0; x < b.Dx(); x++ {
			out.Pix[row+x*4+3] = mask.Pix[mrow+x]
		}
	}
	return out
}
