package u2net

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// otsuLevel returns the 8-bit level that maximises the between-class
// variance of the mask histogram.
func otsuLevel(mask *image.Gray) uint8 {
	b := mask.Bounds()
	total := float64(b.Dx() * b.Dy())
	if total == 0 {
		return 0
	}

	hist := make([]float64, 256)
	for y := 0; y < b.Dy(); y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}
	for i := range hist {
		hist[i] /= total
	}

	sum := 0.0
	for i := 0; i < 256; i++ {
		sum += float64(i) * hist[i]
	}

	sumB, wB, best := 0.0, 0.0, 0.0
	level := 0
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := 1.0 - wB
		if wF <= 0 {
			break
		}

		sumB += float64(t) * hist[t]
		mB := sumB / wB
		mF := (sum - sumB) / wF

		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			level = t
			best = between
		}
	}
	return uint8(level)
}

// cleanMask removes speckles and fills pinholes with a morphological
// open followed by a close. kernelSize <= 1 returns mask unchanged.
func cleanMask(mask *image.Gray, kernelSize int) (*image.Gray, error) {
	if kernelSize <= 1 {
		return mask, nil
	}

	src, err := gocv.ImageGrayToMatGray(mask)
	if err != nil {
		return nil, fmt.Errorf("failed to convert mask: %w", err)
	}
	defer src.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(kernelSize, kernelSize))
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(src, &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)

	img, err := closed.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert mask: %w", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected mask type %T", img)
	}
	return gray, nil
}
